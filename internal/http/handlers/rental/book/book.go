// Package book реализует HTTP-обработчик бронирования автомобиля.
package book

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/car-rental/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс движка аренды.
type Service interface {
	Book(ctx context.Context, ident models.Identity, req models.DummyBooking) (*models.BookingResult, error)
}

// Handler обрабатывает HTTP-запросы бронирования.
type Handler struct {
	log      *slog.Logger
	rental   Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, rental Service) *Handler {
	return &Handler{
		log:      log,
		rental:   rental,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Забронировать автомобиль
// @Description Бронирует автомобиль на заданное число суток. Из конкурентных бронирований одного автомобиля выигрывает ровно одно.
// @Tags Rentals
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.DummyBooking true "Параметры бронирования"
// @Success 200 {object} map[string]any "Результат бронирования"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 404 {object} response.ErrorResponse "Автомобиль не найден"
// @Failure 409 {object} response.ErrorResponse "Автомобиль уже арендован"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /rentals [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.book"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	ident, ok := middlewarectx.IdentityFromContext(r.Context())
	if !ok {
		log.Error("identity missing in context")
		w.WriteHeader(http.StatusUnauthorized)
		render.JSON(w, r, response.Error("unauthorized"))
		return
	}

	var req models.DummyBooking
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

	result, err := h.rental.Book(r.Context(), ident, req)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrCarNotFound):
			log.Error("car not found", slog.String("car_id", req.CarID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("car not found"))
		case errors.Is(err, models.ErrCarAlreadyLeased):
			log.Error("car already leased", slog.String("car_id", req.CarID))
			w.WriteHeader(http.StatusConflict)
			render.JSON(w, r, response.Error("car already leased"))
		default:
			log.Error("failed to book car", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to book car"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(result))
}
