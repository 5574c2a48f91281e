// Package leaselist реализует HTTP-обработчик истории аренд пользователя.
package leaselist

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/car-rental/internal/http/middlewarectx"
	"github.com/magabrotheeeer/car-rental/internal/http/response"
	"github.com/magabrotheeeer/car-rental/internal/lib/sl"
	"github.com/magabrotheeeer/car-rental/internal/models"
)

// Service описывает интерфейс движка аренды.
type Service interface {
	ListLeases(ctx context.Context, ident models.Identity, limit, offset int) ([]*models.Lease, error)
}

// Handler обрабатывает HTTP-запросы истории аренд.
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
// @Summary История аренд пользователя
// @Description Возвращает аренды текущего пользователя с пагинацией, включая завершённые.
// @Tags Rentals
// @Security BearerAuth
// @Produce  json
// @Param limit query int false "Максимум записей (по умолчанию 10)"
// @Param offset query int false "Смещение (по умолчанию 0)"
// @Success 200 {object} map[string]any "Список аренд"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /rentals [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.rental.leaselist"

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

	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}

	leases, err := h.rental.ListLeases(r.Context(), ident, limit, offset)
	if err != nil {
		log.Error("failed to list leases", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("failed to list leases"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"leases": leases,
		"count":  len(leases),
	}))
}
