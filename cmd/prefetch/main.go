package main

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"dealer_reviews/internal/adapters/observability"
	redisad "dealer_reviews/internal/adapters/redis"
	"dealer_reviews/internal/adapters/restclient"
	"dealer_reviews/internal/adapters/sentiment"
	"dealer_reviews/internal/app"
	"dealer_reviews/internal/shared"
)

func main() {
	ctx := context.Background()
	cfg, err := shared.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	// 1) initialize global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv, cfg.LogLevel)

	if cfg.RedisAddr == "" {
		log.Fatal().Msg("REDIS_ADDR is required for prefetch")
	}
	if len(cfg.PrefetchDealers) == 0 {
		log.Warn().Msg("PREFETCH_DEALERS is empty, nothing to do")
		return
	}

	log.Info().
		Str("backend", cfg.BackendURL).
		Int("workers", cfg.Workers).
		Int("dealers", len(cfg.PrefetchDealers)).
		Msg("prefetch starting")

	cache := redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cache.Close()
	if err := cache.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("redis ping failed")
	}

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

	q := app.NewQueryService(
		app.NewDealerService(backend),
		app.NewReviewService(backend, sentiment.New(sentimentRC, sentiment.DefaultBreakerConfig()), cfg.Workers),
		cache, cfg.CacheTTL,
	)

	// dealers run concurrently too; each one's reviews already fan out inside ReviewsForDealer
	sem := semaphore.NewWeighted(int64(max(cfg.Workers/4, 1)))
	var wg sync.WaitGroup

	for _, id := range cfg.PrefetchDealers {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(dealerID int64) {
			defer wg.Done()
			defer sem.Release(1)

			reviews := q.ReviewsForDealer(ctx, dealerID)
			if len(reviews) == 0 {
				log.Warn().Int64("dealer_id", dealerID).Msg("no reviews fetched, nothing cached")
				return
			}
			log.Info().Int64("dealer_id", dealerID).Int("reviews", len(reviews)).Msg("prefetch ok")
		}(id)
	}

	wg.Wait()
	log.Info().Msg("prefetch completed")
}
