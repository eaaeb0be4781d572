package domain

import "context"

// RequestClient talks JSON to one upstream. Both calls are total:
// Get falls back to an empty list and Post to an empty object.
type RequestClient interface {
	Get(ctx context.Context, endpoint string, params map[string]string) any
	Post(ctx context.Context, endpoint string, body any) any
}

// SentimentAnalyzer always yields one of Positive, Negative or Neutral.
// ok is false when the label is the neutral fallback for a failed lookup.
type SentimentAnalyzer interface {
	Classify(ctx context.Context, text string) (label SentimentLabel, ok bool)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
