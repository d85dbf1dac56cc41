package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/zamyshop/reviews-backend/api/routes"
	"github.com/zamyshop/reviews-backend/internal/reviews"
	"github.com/zamyshop/reviews-backend/internal/sentiment"
	"github.com/zamyshop/reviews-backend/pkg/config"
	"github.com/zamyshop/reviews-backend/pkg/logger"
	"github.com/zamyshop/reviews-backend/pkg/metrics"
	"github.com/zamyshop/reviews-backend/pkg/pubsub"
	pkgredis "github.com/zamyshop/reviews-backend/pkg/redis"
	"github.com/zamyshop/reviews-backend/pkg/supabase"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	supabaseClient, err := supabase.NewClient(cfg.Supabase, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap store client", err)
		os.Exit(1)
	}

	var redisClient *pkgredis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = pkgredis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	}

	reviewMetrics := metrics.NewReviewMetrics(prometheus.DefaultRegisterer)
	classifier := sentiment.NewScriptClassifier(cfg.Sentiment, logg, reviewMetrics)

	var publisher *pubsub.Client
	if cfg.PubSub.Enabled() {
		publisher, err = pubsub.NewClient(context.Background(), cfg.PubSub, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap pubsub", err)
			os.Exit(1)
		}
		defer func() {
			if err := publisher.Close(); err != nil {
				logg.Error(context.Background(), "error closing pubsub", err)
			}
		}()
	}

	serviceParams := reviews.ServiceParams{
		Records:    supabaseClient,
		Objects:    supabaseClient,
		Classifier: classifier,
		Config:     cfg.Supabase,
		Logger:     logg,
		Metrics:    reviewMetrics,
	}
	if publisher != nil {
		serviceParams.Publisher = publisher
	}
	reviewService, err := reviews.NewService(serviceParams)
	if err != nil {
		logg.Error(context.Background(), "failed to create review service", err)
		os.Exit(1)
	}

	fetcher := reviews.NewImageFetcher(cfg.Media.ImageFetchTimeout)

	var cachePinger pkgredis.Pinger
	var idempotencyStore pkgredis.IdempotencyStore
	if redisClient != nil {
		cachePinger = redisClient
		idempotencyStore = redisClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, supabaseClient, cachePinger, idempotencyStore, reviewService, fetcher),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
