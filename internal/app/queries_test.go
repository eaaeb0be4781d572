package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"dealer_reviews/internal/app"
	"dealer_reviews/internal/domain"
)

func newQueries(be *fakeBackend, c domain.Cache) *app.QueryService {
	return app.NewQueryService(
		app.NewDealerService(be),
		app.NewReviewService(be, &keywordAnalyzer{}, 4),
		c, 10*time.Minute,
	)
}

func TestDealerships_Endpoints(t *testing.T) {
	be := &fakeBackend{get: map[string]any{
		"/fetchDealers":              []any{map[string]any{"id": 1.0}, map[string]any{"id": 2.0}},
		"/fetchDealers/Kansas":       []any{map[string]any{"id": 2.0, "state": "Kansas"}},
		"/fetchDealers/New%20Mexico": []any{map[string]any{"id": 3.0, "state": "New Mexico"}},
		"/fetchDealer/3":             map[string]any{"id": 3.0, "full_name": "Mesa Motors"},
	}}
	d := app.NewDealerService(be)
	ctx := context.Background()

	if got := d.Dealerships(ctx, "All").([]any); len(got) != 2 {
		t.Fatalf("All: expected 2 dealers, got %v", got)
	}
	if got := d.Dealerships(ctx, "").([]any); len(got) != 2 {
		t.Fatalf("empty state: expected 2 dealers, got %v", got)
	}
	if got := d.Dealerships(ctx, "Kansas").([]any); len(got) != 1 {
		t.Fatalf("Kansas: expected 1 dealer, got %v", got)
	}
	if got := d.Dealerships(ctx, "New Mexico").([]any); len(got) != 1 {
		t.Fatalf("New Mexico: expected 1 dealer, got %v", got)
	}
	if diff := cmp.Diff(map[string]any{"id": 3.0, "full_name": "Mesa Motors"}, d.Dealer(ctx, 3)); diff != "" {
		t.Fatalf("dealer mismatch (-want +got):\n%s", diff)
	}
}

func TestQueries_DealershipsCacheMissThenHit(t *testing.T) {
	be := &fakeBackend{get: map[string]any{"/fetchDealers": []any{map[string]any{"id": 1.0}}}}
	c := &fakeCache{}
	q := newQueries(be, c)
	ctx := context.Background()

	first := q.Dealerships(ctx, "All")
	// Change the backend; the second read must come from cache
	be.get["/fetchDealers"] = []any{map[string]any{"id": 99.0}}
	second := q.Dealerships(ctx, "All")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("expected cached dealers (-first +second):\n%s", diff)
	}
	if n := be.getCount(); n != 1 {
		t.Fatalf("expected 1 backend call, got %d", n)
	}
}

func TestQueries_EmptyResultsAreNotCached(t *testing.T) {
	be := &fakeBackend{} // unreachable
	c := &fakeCache{}
	q := newQueries(be, c)
	ctx := context.Background()

	_ = q.Dealerships(ctx, "Texas")
	_ = q.Dealer(ctx, 1)
	_ = q.ReviewsForDealer(ctx, 1)
	if len(c.store) != 0 {
		t.Fatalf("fallback values must not be cached, got keys %v", c.store)
	}

	// backend recovers: next read goes through
	be.get = map[string]any{"/fetchDealers/Texas": []any{map[string]any{"id": 7.0}}}
	if got := q.Dealerships(ctx, "Texas").([]any); len(got) != 1 {
		t.Fatalf("expected fresh dealers after recovery, got %v", got)
	}
	if !c.has("dealers:state:texas") {
		t.Fatalf("expected dealers:state:texas to be cached")
	}
}

func TestQueries_ReviewsCachedAndInvalidatedOnSubmit(t *testing.T) {
	be := &fakeBackend{get: map[string]any{"/fetchReviews/dealer/15": reviewsPayload("great car")}}
	c := &fakeCache{}
	q := newQueries(be, c)
	ctx := context.Background()

	got := q.ReviewsForDealer(ctx, 15)
	if len(got) != 1 || got[0].(map[string]any)["sentiment"] != "positive" {
		t.Fatalf("unexpected reviews: %v", got)
	}
	if !c.has("reviews:dealer:15") {
		t.Fatalf("expected enriched reviews to be cached")
	}

	cached := q.ReviewsForDealer(ctx, 15)
	if diff := cmp.Diff(got, cached); diff != "" {
		t.Fatalf("cached reviews differ (-fresh +cached):\n%s", diff)
	}
	if n := be.getCount(); n != 1 {
		t.Fatalf("expected 1 backend call, got %d", n)
	}

	_ = q.Submit(ctx, domain.ReviewSubmission{"dealership": 15.0, "review": "bad"})
	if c.has("reviews:dealer:15") {
		t.Fatalf("expected reviews cache to be invalidated after submit")
	}
	if diff := cmp.Diff([]string{"reviews:dealer:15"}, c.dels); diff != "" {
		t.Fatalf("unexpected deletions (-want +got):\n%s", diff)
	}
}

func TestQueries_SubmitDealerIDShapes(t *testing.T) {
	for _, id := range []any{15, 15.0, "15", int64(15)} {
		c := &fakeCache{}
		q := newQueries(&fakeBackend{}, c)
		_ = q.Submit(context.Background(), domain.ReviewSubmission{"dealership": id})
		if diff := cmp.Diff([]string{"reviews:dealer:15"}, c.dels); diff != "" {
			t.Fatalf("id %#v: unexpected deletions (-want +got):\n%s", id, diff)
		}
	}

	c := &fakeCache{}
	_ = newQueries(&fakeBackend{}, c).Submit(context.Background(), domain.ReviewSubmission{"review": "no dealer"})
	if len(c.dels) != 0 {
		t.Fatalf("expected no invalidation without a dealer id, got %v", c.dels)
	}
}

func TestQueries_NilCachePassThrough(t *testing.T) {
	be := &fakeBackend{get: map[string]any{"/fetchDealer/1": map[string]any{"id": 1.0}}}
	q := newQueries(be, nil)
	ctx := context.Background()

	_ = q.Dealer(ctx, 1)
	_ = q.Dealer(ctx, 1)
	if n := be.getCount(); n != 2 {
		t.Fatalf("expected every read to reach the backend, got %d calls", n)
	}
	if got := q.Submit(ctx, domain.ReviewSubmission{"dealership": 1}); len(got.(map[string]any)) != 0 {
		t.Fatalf("expected empty echo, got %v", got)
	}
}

func TestQueries_DegradedReviewsAreNotCached(t *testing.T) {
	be := &fakeBackend{get: map[string]any{"/fetchReviews/dealer/15": reviewsPayload("great car")}}
	c := &fakeCache{}
	an := &flakyAnalyzer{}
	an.down.Store(true)
	q := app.NewQueryService(app.NewDealerService(be), app.NewReviewService(be, an, 2), c, 10*time.Minute)
	ctx := context.Background()

	got := q.ReviewsForDealer(ctx, 15)
	if len(got) != 1 || got[0].(map[string]any)["sentiment"] != "neutral" {
		t.Fatalf("expected neutral stand-in while sentiment is down, got %v", got)
	}
	if c.has("reviews:dealer:15") {
		t.Fatalf("degraded batch must not be cached")
	}

	// sentiment recovers: the next read re-enriches and is cached
	an.down.Store(false)
	got = q.ReviewsForDealer(ctx, 15)
	if s := got[0].(map[string]any)["sentiment"]; s != "positive" {
		t.Fatalf("expected fresh label after recovery, got %v", s)
	}
	if !c.has("reviews:dealer:15") {
		t.Fatalf("expected complete batch to be cached")
	}
	if n := be.getCount(); n != 2 {
		t.Fatalf("expected 2 backend calls, got %d", n)
	}
}
