// Package availability реализует HTTP-обработчик проверки доступности автомобиля.
package availability

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс движка аренды.
type Service interface {
	CheckAvailability(ctx context.Context, carID string) (bool, error)
}

// Handler обрабатывает HTTP-запросы проверки доступности.
type Handler struct {
	log    *slog.Logger
	rental Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, rental Service) *Handler {
	return &Handler{
		log:    log,
		rental: rental,
	}
}

// ServeHTTP godoc
// @Summary Проверить доступность автомобиля
// @Description Возвращает доступность автомобиля на момент запроса. Ответ — снимок: к моменту бронирования он может устареть.
// @Tags Cars
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID автомобиля"
// @Success 200 {object} map[string]any "Доступность автомобиля"
// @Failure 404 {object} response.ErrorResponse "Автомобиль не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cars/{id}/availability [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.car.availability"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	carID := chi.URLParam(r, "id")

	available, err := h.rental.CheckAvailability(r.Context(), carID)
	if err != nil {
		if errors.Is(err, models.ErrCarNotFound) {
			log.Error("car not found", slog.String("id", carID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("car not found"))
			return
		}
		log.Error("failed to check availability", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to check availability"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":        carID,
		"available": available,
	}))
}
