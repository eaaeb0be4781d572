package httpserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"dealer_reviews/internal/adapters/observability"
)

// ---- status-recording ResponseWriter ----

type srw struct {
	http.ResponseWriter
	status int
	wrote  bool
}

// WriteHeader keeps the first status. chi's Timeout sends a late 504 even when
// the handler already answered with a partial result; that call is dropped.
func (w *srw) WriteHeader(code int) {
	if w.wrote {
		return
	}
	w.status = code
	w.wrote = true
	w.ResponseWriter.WriteHeader(code)
}

func (w *srw) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *srw) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

// ---- Metrics + structured logging ----

// Metrics records route-level counters and latency.
func Metrics(next http.Handler) http.Handler {
	return observe(next, func(r *http.Request, route string, status int, d time.Duration) {
		observability.ObserveHTTP(route, r.Method, status, d)
	})
}

// Logger emits one http_request line per request. RemoteAddr is already
// rewritten by chi's RealIP middleware.
func Logger(l zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return observe(next, func(r *http.Request, route string, status int, d time.Duration) {
			lvl := zerolog.InfoLevel
			if status >= 500 {
				lvl = zerolog.WarnLevel
			}
			l.WithLevel(lvl).
				Str("route", route).
				Str("method", r.Method).
				Int("status", status).
				Dur("duration", d).
				Str("remote", r.RemoteAddr).
				Str("request_id", chimw.GetReqID(r.Context())).
				Str("ua", r.UserAgent()).
				Msg("http_request")
		})
	}
}

func observe(next http.Handler, done func(r *http.Request, route string, status int, d time.Duration)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &srw{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		done(r, route, sw.Status(), time.Since(start))
	})
}
