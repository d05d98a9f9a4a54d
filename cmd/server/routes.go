package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/your-org/wanted/internal/handlers"
	"github.com/your-org/wanted/internal/middleware"
)

// newRouter собирает маршруты и цепочку middleware.
func (a *App) newRouter() http.Handler {
	wantedHandler := handlers.NewWantedHandler(a.usecase, a.logger)
	cacheHandler := handlers.NewCacheHandler(a.cache, a.logger)
	authHandler := handlers.NewAuthHandler(a.auth, a.logger)

	rateLimiter := middleware.NewRateLimiter(a.config.RateLimit.Requests, a.config.RateLimit.Window)

	r := chi.NewRouter()

	// Общая цепочка:
	// request id -> реальный IP -> метрики -> логирование -> recovery -> CORS
	r.Use(middleware.RequestIDMiddleware)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.MetricsMiddleware(a.metrics))
	r.Use(middleware.LoggingMiddleware(a.logger))
	r.Use(middleware.RecoveryMiddleware(a.logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.NotFound(handlers.NotFound)
	r.MethodNotAllowed(handlers.MethodNotAllowed)

	// Служебные маршруты без лимитов.
	r.Get("/health", cacheHandler.Health)
	r.Handle("/metrics", a.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.TimeoutMiddleware(a.config.Server.RequestTimeout))
		r.Use(middleware.RateLimitMiddleware(rateLimiter, a.logger))

		r.Post("/login", authHandler.Login)

		r.Route("/api/cache", func(r chi.Router) {
			r.Get("/stats", cacheHandler.Stats)
			r.Post("/clear", cacheHandler.Clear)
			r.Post("/warmup", cacheHandler.Warmup)
		})

		// Данные о разыскиваемых только с токеном.
		r.Route("/api/wanted", func(r chi.Router) {
			r.Use(middleware.AuthMiddleware(a.auth, a.logger))
			wantedHandler.Routes(r)
		})
	})

	return r
}
