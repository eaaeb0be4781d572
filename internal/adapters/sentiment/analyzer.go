// Package sentiment labels review text through the external sentiment service.
package sentiment

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"dealer_reviews/internal/adapters/observability"
	"dealer_reviews/internal/domain"
)

// Fetcher is the error-reporting side of the request client.
type Fetcher interface {
	Fetch(ctx context.Context, method, endpoint string, params map[string]string, body any) (any, error)
}

// Analyzer is total: every path out of Analyze yields a label from the closed set.
type Analyzer struct {
	rc Fetcher
	cb *gobreaker.CircuitBreaker
}

func New(rc Fetcher, cfg BreakerConfig) *Analyzer {
	return &Analyzer{rc: rc, cb: newBreaker(cfg)}
}

// Analyze asks the service for a label. Failures, an open breaker and
// unrecognised answers all come back as domain.Neutral.
func (a *Analyzer) Analyze(ctx context.Context, text string) domain.SentimentLabel {
	l, _ := a.Classify(ctx, text)
	return l
}

// Classify is Analyze that also reports whether the label came from the
// service. ok is false only when the lookup failed and neutral stands in.
func (a *Analyzer) Classify(ctx context.Context, text string) (domain.SentimentLabel, bool) {
	if strings.TrimSpace(text) == "" {
		return domain.Neutral, true
	}
	endpoint := "analyze/" + url.PathEscape(text)

	res, err := a.cb.Execute(func() (interface{}, error) {
		return a.rc.Fetch(ctx, http.MethodGet, endpoint, nil, nil)
	})
	if err != nil {
		kind := "transport"
		switch {
		case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
			kind = "breaker"
		case ctx.Err() != nil:
			kind = "canceled"
		}
		observability.ObserveEnrichmentFailure(kind)
		log.Warn().Err(err).Str("kind", kind).Str("endpoint", endpoint).
			Msg("sentiment lookup failed, using neutral")
		return domain.Neutral, false
	}
	return Normalize(res), true
}

// Normalize maps the service's reply shapes onto a label:
// {"sentiment": "<label>"} first, then a bare "<label>", else neutral.
func Normalize(v any) domain.SentimentLabel {
	switch t := v.(type) {
	case map[string]any:
		if s, ok := t[domain.SentimentKey].(string); ok {
			return domain.ParseSentiment(s)
		}
	case string:
		return domain.ParseSentiment(t)
	}
	return domain.Neutral
}
