// Package remove реализует HTTP-обработчик удаления автомобиля из каталога.
package remove

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

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	Remove(ctx context.Context, carID string) error
}

// Handler обрабатывает HTTP-запросы удаления автомобиля.
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
// @Summary Удалить автомобиль
// @Description Удаляет автомобиль из каталога. Автомобиль с активной арендой удалить нельзя. Доступно только администратору.
// @Tags Cars
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID автомобиля"
// @Success 200 {object} map[string]any "Автомобиль удалён"
// @Failure 404 {object} response.ErrorResponse "Автомобиль не найден"
// @Failure 409 {object} response.ErrorResponse "У автомобиля есть активная аренда"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cars/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.car.remove"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	carID := chi.URLParam(r, "id")

	if err := h.registry.Remove(r.Context(), carID); err != nil {
		switch {
		case errors.Is(err, models.ErrCarNotFound):
			log.Error("car not found", slog.String("id", carID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("car not found"))
		case errors.Is(err, models.ErrCarInUse):
			log.Error("car has active lease", slog.String("id", carID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("car has active lease"))
		default:
			log.Error("failed to remove car", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to remove car"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      carID,
		"message": "car removed successfully",
	}))
}
