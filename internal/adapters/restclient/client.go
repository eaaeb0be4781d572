// internal/adapters/restclient/client.go
package restclient

import (
	"bytes"
	"context"
	crand "crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"dealer_reviews/internal/adapters/observability"
)

const maxBody = 8 << 20

type Options struct {
	Service   string        // label for logs and metrics, e.g. "backend"
	Timeout   time.Duration // per call, retries included
	RPS       int
	Retries   int           // extra attempts for GET on 429/5xx/transport errors
	RetryBase time.Duration // first backoff step, doubled per attempt
}

// Client issues JSON requests against one base URL.
type Client struct {
	service   string
	base      string
	hc        *http.Client
	timeout   time.Duration
	rl        *rate.Limiter
	retries   int
	retryBase time.Duration
}

func New(base string, opts Options) (*Client, error) {
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("base url must be absolute http(s), got %q", base)
	}
	if opts.Timeout <= 0 {
		return nil, fmt.Errorf("timeout must be positive")
	}
	if opts.RPS <= 0 {
		opts.RPS = 20
	}
	if opts.Retries < 0 {
		opts.Retries = 0
	}
	if opts.RetryBase <= 0 {
		opts.RetryBase = 200 * time.Millisecond
	}
	if opts.Service == "" {
		opts.Service = u.Host
	}
	return &Client{
		service:   opts.Service,
		base:      strings.TrimRight(base, "/"),
		hc:        &http.Client{Timeout: opts.Timeout},
		timeout:   opts.Timeout,
		rl:        rate.NewLimiter(rate.Limit(opts.RPS), opts.RPS),
		retries:   opts.Retries,
		retryBase: opts.RetryBase,
	}, nil
}

// ---- Public API: total, never returns an error ----

// Get returns the decoded JSON at endpoint, or an empty list on any failure.
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]string) any {
	v, err := c.Fetch(ctx, http.MethodGet, endpoint, params, nil)
	if err != nil {
		log.Warn().Err(err).Str("service", c.service).Str("url", c.URL(endpoint, params)).
			Interface("params", params).Msg("GET failed, returning empty list")
		return []any{}
	}
	return v
}

// Post sends body as JSON and returns the decoded reply, or an empty object on any failure.
func (c *Client) Post(ctx context.Context, endpoint string, body any) any {
	v, err := c.Fetch(ctx, http.MethodPost, endpoint, nil, body)
	if err != nil {
		log.Warn().Err(err).Str("service", c.service).Str("url", c.URL(endpoint, nil)).
			Interface("body", body).Msg("POST failed, returning empty object")
		return map[string]any{}
	}
	return v
}

// URL joins endpoint and query params onto the base URL.
// Endpoint segments must already be escaped.
func (c *Client) URL(endpoint string, params map[string]string) string {
	u := c.base + "/" + strings.TrimLeft(endpoint, "/")
	if len(params) == 0 {
		return u
	}
	q := url.Values{}
	for k, v := range params {
		q.Set(k, v)
	}
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return u + sep + q.Encode()
}

// ---- Internals ----

// Fetch performs one logical call and classifies failures as *TransportError,
// *HTTPStatusError or *MalformedResponseError. GETs are retried on 429, transient
// 5xx and transport errors, honoring Retry-After. POSTs are sent exactly once.
func (c *Client) Fetch(ctx context.Context, method, endpoint string, params map[string]string, body any) (any, error) {
	target := c.URL(endpoint, params)
	log.Debug().Str("service", c.service).Str("method", method).Str("url", target).
		Interface("params", params).Msg("outbound request")

	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode body for %s: %w", target, err)
		}
		payload = b
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// client-side rate limiting
	if err := c.rl.Wait(ctx); err != nil {
		return nil, &TransportError{URL: target, Err: err}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		out, wait, err := c.do(ctx, method, target, payload)
		if err == nil {
			return out, nil
		}
		lastErr = err
		if !retryable(err) || i == attempts-1 {
			break
		}
		if wait == 0 {
			wait = backoff(c.retryBase, i)
		}
		if !sleepCtx(ctx, wait) {
			break
		}
	}
	return nil, lastErr
}

// do runs a single attempt. wait is a server-suggested delay before retrying.
func (c *Client) do(ctx context.Context, method, target string, payload []byte) (any, time.Duration, error) {
	var rdr io.Reader
	if payload != nil {
		rdr = bytes.NewReader(payload)
	}
	// build a fresh request each attempt
	req, err := http.NewRequestWithContext(ctx, method, target, rdr)
	if err != nil {
		return nil, 0, &TransportError{URL: target, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "dealer-reviews/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveExternal(c.service, method, 0, time.Since(start))
		return nil, 0, &TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()
	observability.ObserveExternal(c.service, method, resp.StatusCode, time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// read a small error body for diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, retryAfter(resp), &HTTPStatusError{
			URL:    target,
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, 0, &TransportError{URL: target, Err: err}
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, 0, &MalformedResponseError{URL: target, Err: errors.New("empty body")}
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, 0, &MalformedResponseError{URL: target, Err: err}
	}
	return out, 0, nil
}

func retryable(err error) bool {
	var se *HTTPStatusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		// the call's own deadline or the caller's cancellation: no point retrying
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	}
	return false
}

// sleepCtx waits for d or returns early if ctx is done.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After header (seconds or HTTP-date). Returns 0 if absent/invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	// seconds form
	if secs, err := strconv.Atoi(strings.TrimSpace(h)); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	// HTTP-date form
	if t, err := http.ParseTime(h); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

// backoff doubles base per attempt and adds up to +50% jitter.
func backoff(base time.Duration, i int) time.Duration {
	d := time.Duration(1<<i) * base
	// concurrency-safe jitter using crypto/rand
	var b [1]byte
	if _, err := crand.Read(b[:]); err != nil {
		return d
	}
	f := float64(b[0]) / 255.0
	return d + time.Duration(0.5*f*float64(d))
}
