package domain

// Review is a backend review record passed through verbatim.
// After enrichment it carries one extra key, "sentiment".
type Review = map[string]any

// ReviewSubmission is a caller-built payload forwarded as-is to the backend.
type ReviewSubmission = map[string]any

const (
	// ReviewTextKey holds the free-text body the sentiment service scores.
	ReviewTextKey = "review"
	// SentimentKey is the only field enrichment adds to a review.
	SentimentKey = "sentiment"
)

// ReviewText returns the review body, or "" if it is missing or not a string.
func ReviewText(r Review) string {
	if s, ok := r[ReviewTextKey].(string); ok {
		return s
	}
	return ""
}
