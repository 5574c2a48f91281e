// Package carrental предоставляет маршруты для основного приложения.
package carrental

import (
	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/car-rental/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/availability"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/create"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/get"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/list"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/remove"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/car/update"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/health"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/rental/book"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/rental/earlyreturn"
	"github.com/magabrotheeeer/car-rental/internal/http/handlers/rental/leaselist"
	"github.com/magabrotheeeer/car-rental/internal/http/middlewarectx"
	authservice "github.com/magabrotheeeer/car-rental/internal/services/auth"
	registryservice "github.com/magabrotheeeer/car-rental/internal/services/registry"
	rentalservice "github.com/magabrotheeeer/car-rental/internal/services/rental"
	"github.com/magabrotheeeer/car-rental/internal/storage/repository"

	"log/slog"
)

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, db *repository.Storage,
	authService *authservice.Service, registryService *registryservice.Service,
	rentalEngine *rentalservice.Engine) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Открытые конечные точки
		r.Post("/register", register.New(logger, authService).ServeHTTP)
		r.Post("/login", login.New(logger, authService).ServeHTTP)
		r.Get("/health", health.New(logger, db).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(authService, logger))
			r.Use(middlewarectx.RateLimitMiddleware(logger))

			r.Get("/cars", list.New(logger, registryService).ServeHTTP)
			r.Get("/cars/{id}", get.New(logger, registryService).ServeHTTP)
			r.Get("/cars/{id}/availability", availability.New(logger, rentalEngine).ServeHTTP)

			r.Post("/rentals", book.New(logger, rentalEngine).ServeHTTP)
			r.Get("/rentals", leaselist.New(logger, rentalEngine).ServeHTTP)
			r.Post("/rentals/{id}/return", earlyreturn.New(logger, rentalEngine).ServeHTTP)

			// Администрирование каталога
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminOnly(logger))
				r.Post("/cars", create.New(logger, registryService).ServeHTTP)
				r.Put("/cars/{id}", update.New(logger, registryService).ServeHTTP)
				r.Delete("/cars/{id}", remove.New(logger, registryService).ServeHTTP)
			})
		})
	})

	r.Handle("/metrics", promhttp.Handler())
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
