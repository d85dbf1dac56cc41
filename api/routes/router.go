package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/zamyshop/reviews-backend/api/controllers"
	"github.com/zamyshop/reviews-backend/api/middleware"
	"github.com/zamyshop/reviews-backend/internal/reviews"
	"github.com/zamyshop/reviews-backend/pkg/config"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	pkgredis "github.com/zamyshop/reviews-backend/pkg/redis"
	"github.com/zamyshop/reviews-backend/pkg/supabase"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	storePinger supabase.Pinger,
	cachePinger pkgredis.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	reviewService reviews.Service,
	fetcher *reviews.ImageFetcher,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Get("/health", controllers.HealthLive())
	r.Get("/health/ready", controllers.HealthReady(storePinger, cachePinger, logg))
	r.Handle("/metrics", promhttp.Handler())

	idempotency := middleware.Idempotency(idempotencyStore, logg)
	r.With(idempotency).Post("/api/v1/reviews", controllers.SubmitReview(reviewService, fetcher, logg))
	r.With(idempotency).Post("/api/v1/reviews/form", controllers.SubmitReviewForm(reviewService, cfg.Media, logg))

	return r
}
