package domain

import "strings"

type SentimentLabel string

const (
	Positive SentimentLabel = "positive"
	Negative SentimentLabel = "negative"
	Neutral  SentimentLabel = "neutral"
)

// ParseSentiment maps a raw label onto the closed set. Anything unknown is Neutral.
func ParseSentiment(raw string) SentimentLabel {
	switch l := SentimentLabel(strings.ToLower(strings.TrimSpace(raw))); l {
	case Positive, Negative, Neutral:
		return l
	default:
		return Neutral
	}
}
