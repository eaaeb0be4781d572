package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/domain"
)

// QueryService fronts the dealer and review services with an optional
// read-through cache. A nil cache turns it into a plain pass-through.
type QueryService struct {
	dealers  *DealerService
	reviews  *ReviewService
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewQueryService(d *DealerService, r *ReviewService, c domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{dealers: d, reviews: r, cache: c, cacheTTL: ttl}
}

func (s *QueryService) Dealerships(ctx context.Context, state string) any {
	key := "dealers:all"
	if !isAllStates(state) {
		key = "dealers:state:" + strings.ToLower(strings.TrimSpace(state))
	}
	var v any
	if s.cached(ctx, key, &v) {
		return v
	}
	out := s.dealers.Dealerships(ctx, state)
	s.store(ctx, key, out)
	return out
}

func (s *QueryService) Dealer(ctx context.Context, dealerID int64) any {
	key := fmt.Sprintf("dealer:%d", dealerID)
	var v any
	if s.cached(ctx, key, &v) {
		return v
	}
	out := s.dealers.Dealer(ctx, dealerID)
	s.store(ctx, key, out)
	return out
}

func (s *QueryService) ReviewsForDealer(ctx context.Context, dealerID int64) []any {
	key := reviewsKey(dealerID)
	var v []any
	if s.cached(ctx, key, &v) && v != nil {
		return v
	}
	out, complete := s.reviews.Reviews(ctx, dealerID)
	// neutral stand-ins would outlive the outage that produced them
	if !complete {
		log.Debug().Int64("dealer_id", dealerID).Msg("reviews batch degraded, not caching")
		return out
	}
	s.store(ctx, key, out)
	return out
}

// Submit forwards the review and drops the target dealer's cached reviews
// so the next read sees it.
func (s *QueryService) Submit(ctx context.Context, payload domain.ReviewSubmission) any {
	out := s.reviews.Submit(ctx, payload)
	if s.cache != nil {
		if id := submissionDealerID(payload); id != nil {
			if err := s.cache.Del(ctx, reviewsKey(*id)); err != nil {
				log.Warn().Err(err).Int64("dealer_id", *id).Msg("reviews cache invalidation failed")
			}
		}
	}
	return out
}

func (s *QueryService) cached(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, err := s.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		return false
	}
	return ok
}

func (s *QueryService) store(ctx context.Context, key string, v any) {
	if s.cache == nil || isEmpty(v) {
		return
	}
	if err := s.cache.Set(ctx, key, v, int(s.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func reviewsKey(dealerID int64) string { return fmt.Sprintf("reviews:dealer:%d", dealerID) }
