package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"

	"dealer_reviews/internal/domain"
)

// ---- fakes ----

type fakeBackend struct {
	mu       sync.Mutex
	get      map[string]any // endpoint -> payload; missing means "unreachable"
	gets     []string
	posts    []any
	postResp any
}

func (f *fakeBackend) Get(ctx context.Context, endpoint string, params map[string]string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, endpoint)
	if v, ok := f.get[endpoint]; ok {
		return v
	}
	return []any{}
}

func (f *fakeBackend) Post(ctx context.Context, endpoint string, body any) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, body)
	if f.postResp == nil {
		return map[string]any{}
	}
	return f.postResp
}

func (f *fakeBackend) getCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.gets)
}

// keywordAnalyzer labels by keyword and can be told to panic or block.
type keywordAnalyzer struct {
	calls    int32
	inFlight int32
	peak     int32
	block    chan struct{} // when set, Analyze waits on it or ctx
}

func (a *keywordAnalyzer) Classify(ctx context.Context, text string) (domain.SentimentLabel, bool) {
	atomic.AddInt32(&a.calls, 1)
	n := atomic.AddInt32(&a.inFlight, 1)
	defer atomic.AddInt32(&a.inFlight, -1)
	for {
		p := atomic.LoadInt32(&a.peak)
		if n <= p || atomic.CompareAndSwapInt32(&a.peak, p, n) {
			break
		}
	}
	if a.block != nil {
		select {
		case <-a.block:
		case <-ctx.Done():
			return domain.Neutral, false
		}
	}
	switch {
	case strings.Contains(text, "panic"):
		panic("analyzer bug")
	case strings.Contains(text, "great"):
		return domain.Positive, true
	case strings.Contains(text, "bad"):
		return domain.Negative, true
	case strings.Contains(text, "weird"):
		return domain.SentimentLabel("ecstatic"), true
	}
	return domain.Neutral, true
}

// neutralAnalyzer stands in for an unreachable sentiment service.
type neutralAnalyzer struct{}

func (neutralAnalyzer) Classify(ctx context.Context, text string) (domain.SentimentLabel, bool) {
	return domain.Neutral, false
}

// flakyAnalyzer fails every lookup while down is set, then answers like keywordAnalyzer.
type flakyAnalyzer struct {
	down atomic.Bool
	kw   keywordAnalyzer
}

func (a *flakyAnalyzer) Classify(ctx context.Context, text string) (domain.SentimentLabel, bool) {
	if a.down.Load() {
		return domain.Neutral, false
	}
	return a.kw.Classify(ctx, text)
}

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = map[string][]byte{}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

func (c *fakeCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.store[key]
	return ok
}
