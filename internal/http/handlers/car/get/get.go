// Package get реализует HTTP-обработчик чтения карточки автомобиля.
package get

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

// Service описывает интерфейс сервиса каталога автомобилей.
type Service interface {
	Get(ctx context.Context, carID string) (*models.Car, error)
}

// Handler обрабатывает HTTP-запросы чтения карточки автомобиля.
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
// @Summary Получить автомобиль
// @Description Возвращает карточку автомобиля по его ID. Чтение идет через кеш каталога.
// @Tags Cars
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID автомобиля"
// @Success 200 {object} map[string]any "Данные автомобиля"
// @Failure 404 {object} response.ErrorResponse "Автомобиль не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cars/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.car.get"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	carID := chi.URLParam(r, "id")

	car, err := h.registry.Get(r.Context(), carID)
	if err != nil {
		if errors.Is(err, models.ErrCarNotFound) {
			log.Error("car not found", slog.String("id", carID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("car not found"))
			return
		}
		log.Error("failed to get car", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to get car"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":           car.ID,
		"make":         car.Make,
		"model":        car.Model,
		"year":         car.Year,
		"rate_per_day": car.RatePerDay,
		"available":    car.Available,
	}))
}
