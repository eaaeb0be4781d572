package app

import (
	"context"
	"fmt"
	"maps"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/domain"
)

const DefaultWorkers = 8

// ReviewService fetches dealer reviews, labels them and forwards new submissions.
type ReviewService struct {
	backend  domain.RequestClient
	analyzer domain.SentimentAnalyzer
	workers  int
}

func NewReviewService(backend domain.RequestClient, analyzer domain.SentimentAnalyzer, workers int) *ReviewService {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &ReviewService{backend: backend, analyzer: analyzer, workers: workers}
}

// ReviewsForDealer returns the dealer's reviews, each with a "sentiment" label added.
// The result has the backend list's length and order. A failed fetch yields an
// empty list; a failed lookup yields "neutral" for that review only.
func (s *ReviewService) ReviewsForDealer(ctx context.Context, dealerID int64) []any {
	out, _ := s.Reviews(ctx, dealerID)
	return out
}

// Reviews is ReviewsForDealer plus a completeness flag. complete is false when
// the fetch failed or any label is a stand-in (lookup failure, panic or
// cancellation), i.e. when the batch is not worth remembering.
func (s *ReviewService) Reviews(ctx context.Context, dealerID int64) (reviews []any, complete bool) {
	raw, ok := s.backend.Get(ctx, fmt.Sprintf("/fetchReviews/dealer/%d", dealerID), nil).([]any)
	if !ok {
		log.Warn().Int64("dealer_id", dealerID).Msg("reviews payload is not a list, treating as empty")
		return []any{}, false
	}
	return s.enrich(ctx, dealerID, raw)
}

// Submit forwards payload to the backend and returns its echo, or an empty
// object when nothing came back. Callers own authentication and deduplication.
func (s *ReviewService) Submit(ctx context.Context, payload domain.ReviewSubmission) any {
	return s.backend.Post(ctx, "/insert_review", payload)
}

// enrich labels raw concurrently. Slot i of labels and answered belongs to
// raw[i] only, so completion order never leaks into the output.
func (s *ReviewService) enrich(ctx context.Context, dealerID int64, raw []any) ([]any, bool) {
	labels := make([]domain.SentimentLabel, len(raw))
	answered := make([]bool, len(raw))
	for i := range labels {
		labels[i] = domain.Neutral
	}

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, item := range raw {
		rv, ok := item.(map[string]any)
		if !ok {
			answered[i] = true
			continue
		}
		if ctx.Err() != nil {
			// keep the neutral placeholder for everything not yet started
			observability.ObserveEnrichmentFailure("canceled")
			continue
		}
		i, text := i, domain.ReviewText(rv)
		g.Go(func() error {
			labels[i], answered[i] = s.label(ctx, dealerID, i, text)
			return nil
		})
	}
	_ = g.Wait()

	complete := true
	out := make([]any, len(raw))
	for i, item := range raw {
		complete = complete && answered[i]
		rv, ok := item.(map[string]any)
		if !ok {
			out[i] = item
			continue
		}
		enriched := maps.Clone(rv)
		enriched[domain.SentimentKey] = string(labels[i])
		observability.ObserveSentiment(string(labels[i]))
		out[i] = enriched
	}
	return out, complete
}

// label isolates one review: a panic in the analyzer becomes neutral here
// and is reported separately from ordinary transport failures.
func (s *ReviewService) label(ctx context.Context, dealerID int64, idx int, text string) (l domain.SentimentLabel, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			observability.ObserveEnrichmentFailure("panic")
			log.Error().
				Int64("dealer_id", dealerID).
				Int("index", idx).
				Str("panic", fmt.Sprint(r)).
				Msg("sentiment enrichment panicked, using neutral")
			l, ok = domain.Neutral, false
		}
	}()
	l, ok = s.analyzer.Classify(ctx, text)
	return domain.ParseSentiment(string(l)), ok
}
