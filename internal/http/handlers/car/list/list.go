// Package list реализует HTTP-обработчик списка доступных автомобилей.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	ListAvailable(ctx context.Context) ([]*models.Car, error)
}

// Handler обрабатывает HTTP-запросы списка автомобилей.
type Handler struct {
	log      *slog.Logger
	registry Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry Service) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
	}
}

// ServeHTTP godoc
// @Summary Список доступных автомобилей
// @Description Возвращает все автомобили, доступные для аренды на данный момент.
// @Tags Cars
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} map[string]any "Список автомобилей"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cars [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.car.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	cars, err := h.registry.ListAvailable(r.Context())
	if err != nil {
		log.Error("failed to list cars", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list cars"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"cars":  cars,
		"count": len(cars),
	}))
}
