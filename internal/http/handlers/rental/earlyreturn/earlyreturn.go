// Package earlyreturn реализует HTTP-обработчик досрочного возврата автомобиля.
package earlyreturn

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-rental/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс движка аренды.
type Service interface {
	ReturnEarly(ctx context.Context, ident models.Identity, leaseID string) error
}

// Handler обрабатывает HTTP-запросы досрочного возврата.
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
// @Summary Досрочный возврат автомобиля
// @Description Завершает аренду до истечения срока. Разрешено арендатору и администратору. Повторный возврат той же аренды — no-op.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID аренды"
// @Success 200 {object} map[string]any "Аренда завершена"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Аренда не найдена"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /rentals/{id}/return [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.earlyreturn"

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

	leaseID := chi.URLParam(r, "id")

	if err := h.rental.ReturnEarly(r.Context(), ident, leaseID); err != nil {
		switch {
		case errors.Is(err, models.ErrLeaseNotFound):
			log.Error("lease not found", slog.String("lease_id", leaseID))
			w.WriteHeader(http.StatusNotFound)
			render.JSON(w, r, response.Error("lease not found"))
		case errors.Is(err, models.ErrForbidden):
			log.Error("return forbidden",
				slog.String("lease_id", leaseID),
				slog.String("user_uid", ident.UserUID))
			w.WriteHeader(http.StatusForbidden)
			render.JSON(w, r, response.Error("forbidden"))
		default:
			log.Error("failed to return car", sl.Err(err))
			w.WriteHeader(http.StatusInternalServerError)
			render.JSON(w, r, response.Error("failed to return car"))
		}
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"lease_id": leaseID,
		"message":  "car returned successfully",
	}))
}
