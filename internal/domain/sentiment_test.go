package domain_test

import (
	"testing"

	"dealer_reviews/internal/domain"
)

func TestParseSentiment(t *testing.T) {
	cases := map[string]domain.SentimentLabel{
		"positive":   domain.Positive,
		" Negative ": domain.Negative,
		"NEUTRAL":    domain.Neutral,
		"":           domain.Neutral,
		"mixed":      domain.Neutral,
		"positive!":  domain.Neutral,
	}
	for in, want := range cases {
		if got := domain.ParseSentiment(in); got != want {
			t.Errorf("ParseSentiment(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReviewText(t *testing.T) {
	if got := domain.ReviewText(domain.Review{"review": "Great service"}); got != "Great service" {
		t.Fatalf("unexpected text %q", got)
	}
	if got := domain.ReviewText(domain.Review{"review": 42}); got != "" {
		t.Fatalf("non-string body should read as empty, got %q", got)
	}
	if got := domain.ReviewText(domain.Review{}); got != "" {
		t.Fatalf("missing body should read as empty, got %q", got)
	}
}
