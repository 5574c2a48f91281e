// Package update реализует HTTP-обработчик изменения данных автомобиля.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс бизнес-логики каталога.
type Service interface {
	Update(ctx context.Context, carID string, req models.DummyCar) error
}

// Handler обрабатывает HTTP-запросы изменения автомобиля.
type Handler struct {
	log      *slog.Logger
	registry Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, registry Service) *Handler {
	return &Handler{
		log:      log,
		registry: registry,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Изменить автомобиль
// @Description Обновляет данные автомобиля по ID. Доступно только администратору.
// @Tags Cars
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID автомобиля"
// @Param request body models.DummyCar true "Новые данные автомобиля"
// @Success 200 {object} map[string]any "Автомобиль обновлён"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Автомобиль не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /cars/{id} [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.car.update"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	carID := chi.URLParam(r, "id")

	var req models.DummyCar
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	log.Info("request body decoded", slog.Any("request", req))

	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusUnprocessableEntity)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	if err := h.registry.Update(r.Context(), carID, req); err != nil {
		if errors.Is(err, models.ErrCarNotFound) {
			log.Error("car not found", slog.String("id", carID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("car not found"))
			return
		}
		log.Error("failed to update car", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to update car"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id":      carID,
		"message": "car updated successfully",
	}))
}
