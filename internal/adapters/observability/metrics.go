package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dealer_reviews"

var (
	HTTPRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "http_requests_total", Help: "HTTP requests."},
		[]string{"route", "method", "status"},
	)
	HTTPLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "http_request_duration_seconds",
			Help:    "HTTP request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)
	ExternalRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "external_requests_total", Help: "Outbound requests."},
		[]string{"service", "method", "status"}, // status: HTTP code, or "error" when no response arrived
	)
	ExternalLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace, Name: "external_request_duration_seconds",
			Help:    "Outbound request duration seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"service", "method"},
	)
	CacheEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "cache_events_total", Help: "Cache hits, misses, sets, deletes and corrupt-entry evictions."},
		[]string{"cache", "event"}, // event: hit|miss|set|del|corrupt
	)
	SentimentLabels = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "sentiment_labels_total", Help: "Labels attached to reviews."},
		[]string{"label"},
	)
	EnrichmentFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{Namespace: namespace, Name: "enrichment_failures_total", Help: "Reviews that fell back to neutral."},
		[]string{"kind"}, // kind: transport|breaker|panic|canceled
	)
)

func Serve(addr string) {
	if addr == "" {
		return // disabled
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", MetricsHandler(InitRegistry()))

	go func() {
		srv := &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		log.Info().Str("addr", addr).Msg("metrics server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("metrics server failed")
		}
	}()
}

var registry *prometheus.Registry

// InitRegistry returns the process registry, creating it on first use.
func InitRegistry() *prometheus.Registry {
	if registry == nil {
		registry = prometheus.NewRegistry()
		registry.MustRegister(HTTPRequests, HTTPLatency, ExternalRequests, ExternalLatency,
			CacheEvents, SentimentLabels, EnrichmentFailures)
	}
	return registry
}

func MetricsHandler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

func ObserveHTTP(route, method string, status int, dur time.Duration) {
	HTTPRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	HTTPLatency.WithLabelValues(route, method).Observe(dur.Seconds())
}

// ObserveExternal records one outbound call. status 0 means no response was received.
func ObserveExternal(service, method string, status int, dur time.Duration) {
	s := "error"
	if status > 0 {
		s = strconv.Itoa(status)
	}
	ExternalRequests.WithLabelValues(service, method, s).Inc()
	ExternalLatency.WithLabelValues(service, method).Observe(dur.Seconds())
}

func ObserveCache(cache, event string) { // event: hit|miss|set|del|corrupt
	CacheEvents.WithLabelValues(cache, event).Inc()
}

func ObserveSentiment(label string) {
	SentimentLabels.WithLabelValues(label).Inc()
}

func ObserveEnrichmentFailure(kind string) {
	EnrichmentFailures.WithLabelValues(kind).Inc()
}
