package shared

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

type Config struct {
	AppEnv           string
	LogLevel         string
	HTTPAddr         string
	MetricsAddr      string
	BackendURL       string
	SentimentURL     string
	BackendTimeout   time.Duration
	SentimentTimeout time.Duration
	UpstreamRPS      int
	Workers          int
	RedisAddr        string
	RedisDB          int
	RedisPass        string
	CacheTTL         time.Duration
	PrefetchDealers  []int64
}

// Load reads the process configuration from the environment.
// Base URLs are resolved once here; an invalid one is a startup error.
func Load() (Config, error) {
	var numErr error
	atoi := func(k string, def int) int {
		v := strings.TrimSpace(os.Getenv(k))
		if v == "" {
			return def
		}
		n, err := strconv.Atoi(v)
		if err != nil && numErr == nil {
			numErr = fmt.Errorf("%s: not an integer: %q", k, v)
		}
		return n
	}
	c := Config{
		AppEnv:           env("APP_ENV", "prod"),
		LogLevel:         env("LOG_LEVEL", "info"),
		HTTPAddr:         env("HTTP_ADDR", ":8080"),
		MetricsAddr:      env("METRICS_ADDR", ""),
		BackendURL:       env("BACKEND_URL", "http://localhost:3030"),
		SentimentURL:     env("SENTIMENT_ANALYZER_URL", "http://localhost:5000/"),
		BackendTimeout:   time.Duration(atoi("BACKEND_TIMEOUT_MS", 5000)) * time.Millisecond,
		SentimentTimeout: time.Duration(atoi("SENTIMENT_TIMEOUT_MS", 3000)) * time.Millisecond,
		UpstreamRPS:      atoi("UPSTREAM_RPS", 20),
		Workers:          atoi("ENRICH_WORKERS", 8),
		RedisAddr:        env("REDIS_ADDR", ""),
		RedisPass:        env("REDIS_PASSWORD", ""),
		RedisDB:          atoi("REDIS_DB", 0),
		CacheTTL:         time.Duration(atoi("CACHE_TTL_SECONDS", 300)) * time.Second,
	}

	if numErr != nil {
		return Config{}, numErr
	}

	ids, err := parseIDs(os.Getenv("PREFETCH_DEALERS"))
	if err != nil {
		return Config{}, err
	}
	c.PrefetchDealers = ids

	if err := validateBaseURL("BACKEND_URL", c.BackendURL); err != nil {
		return Config{}, err
	}
	if err := validateBaseURL("SENTIMENT_ANALYZER_URL", c.SentimentURL); err != nil {
		return Config{}, err
	}
	if c.BackendTimeout <= 0 {
		return Config{}, fmt.Errorf("BACKEND_TIMEOUT_MS must be positive")
	}
	if c.SentimentTimeout <= 0 {
		return Config{}, fmt.Errorf("SENTIMENT_TIMEOUT_MS must be positive")
	}
	if c.Workers <= 0 {
		return Config{}, fmt.Errorf("ENRICH_WORKERS must be positive")
	}
	if c.RedisAddr == "" {
		log.Info().Msg("REDIS_ADDR is empty, caching disabled")
	}
	return c, nil
}

func validateBaseURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s has no host: %q", key, raw)
	}
	return nil
}

func parseIDs(raw string) ([]int64, error) {
	var out []int64
	for _, p := range strings.Split(raw, ",") {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		id, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("PREFETCH_DEALERS: bad id %q: %w", p, err)
		}
		out = append(out, id)
	}
	return out, nil
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
