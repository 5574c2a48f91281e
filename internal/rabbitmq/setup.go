package rabbitmq

import (
	"fmt"

	"github.com/streadway/amqp"

	librabbitmq "github.com/magabrotheeeer/car-rental/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Exchange и очереди для уведомлений о бронированиях.
const (
	NotificationsExchange = "notifications"
	BookingQueue          = "notifications.booking"
	BookingRoutingKey     = "booking"
)

// SetupChannel объявляет exchange и очередь уведомлений и связывает их.
func SetupChannel(conn *amqp.Connection) (*amqp.Channel, error) {
	const op = "rabbitmq.SetupChannel"
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := ch.Qos(10, 0, false); err != nil {
		return nil, fmt.Errorf("%s: failed to set QoS: %w", op, err)
	}
	err = ch.ExchangeDeclare(
		NotificationsExchange,
		"direct",
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	_, err = ch.QueueDeclare(
		BookingQueue,
		true,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	err = ch.QueueBind(BookingQueue, BookingRoutingKey, NotificationsExchange, false, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ch, err
}

// BookingPublisher публикует уведомления о бронированиях в exchange notifications.
type BookingPublisher struct {
	ch *amqp.Channel
}

// NewBookingPublisher создает новый экземпляр BookingPublisher.
func NewBookingPublisher(ch *amqp.Channel) *BookingPublisher {
	return &BookingPublisher{ch: ch}
}

// PublishBooking отправляет сообщение о новом бронировании.
func (p *BookingPublisher) PublishBooking(info models.BookingInfo) error {
	return librabbitmq.PublishMessage(p.ch, NotificationsExchange, BookingRoutingKey, info)
}
