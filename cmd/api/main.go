package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	server "dealer_reviews/internal/adapters/http_server"
	"dealer_reviews/internal/adapters/observability"
	redisad "dealer_reviews/internal/adapters/redis"
	"dealer_reviews/internal/adapters/restclient"
	"dealer_reviews/internal/adapters/sentiment"
	"dealer_reviews/internal/app"
	"dealer_reviews/internal/domain"
	"dealer_reviews/internal/shared"
)

func main() {
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	observability.Serve(cfg.MetricsAddr)

	// upstream clients
	backend, err := restclient.New(cfg.BackendURL, restclient.Options{
		Service: "backend", Timeout: cfg.BackendTimeout, RPS: cfg.UpstreamRPS, Retries: 2,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize backend client")
	}
	sentimentRC, err := restclient.New(cfg.SentimentURL, restclient.Options{
		Service: "sentiment", Timeout: cfg.SentimentTimeout, RPS: cfg.UpstreamRPS,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize sentiment client")
	}
	analyzer := sentiment.New(sentimentRC, sentiment.DefaultBreakerConfig())

	// deps
	var cache domain.Cache
	if cfg.RedisAddr != "" {
		rc := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		defer rc.Close()
		cache = rc
	}
	q := app.NewQueryService(
		app.NewDealerService(backend),
		app.NewReviewService(backend, analyzer, cfg.Workers),
		cache, cfg.CacheTTL,
	)

	// http
	srv := server.New(15 * time.Second)
	srv.Mount("/metrics", observability.MetricsHandler(observability.InitRegistry()))
	srv.MountHandlers(&server.Handlers{Q: q})

	log.Info().
		Str("addr", cfg.HTTPAddr).
		Str("backend", cfg.BackendURL).
		Str("sentiment", cfg.SentimentURL).
		Int("workers", cfg.Workers).
		Bool("cache", cache != nil).
		Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux(), ReadHeaderTimeout: 5 * time.Second}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("http shutdown failed")
		}
	}()

	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("http server failed")
	}
	log.Info().Msg("API stopped")
}
