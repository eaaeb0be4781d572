// internal/adapters/http_server/handlers.go
package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"dealer_reviews/internal/app"
	"dealer_reviews/internal/domain"
)

const maxSubmissionBytes = 1 << 20

type Handlers struct{ Q *app.QueryService }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Route("/djangoapp", func(r chi.Router) {
		r.Get("/get_dealers", h.getDealerships)
		r.Get("/get_dealers/{state}", h.getDealerships)
		r.Get("/dealer/{dealer_id}", h.getDealerDetails)
		r.Get("/reviews/dealer/{dealer_id}", h.getDealerReviews)
		r.Post("/add_review", h.addReview)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable writes v with a weak ETag and answers 304 when the client has it.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if body == nil {
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "response could not be encoded")
		return
	}
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag) // include ETag on 304
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("failed to write body")
	}
}

func dealerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "dealer_id"), 10, 64)
	if err != nil || id <= 0 {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "dealer_id must be a positive number")
		return 0, false
	}
	return id, true
}

func (h *Handlers) getDealerships(w http.ResponseWriter, r *http.Request) {
	state := chi.URLParam(r, "state")
	if state == "" {
		state = "All"
	}
	writeCacheable(w, r, map[string]any{"status": 200, "dealers": h.Q.Dealerships(r.Context(), state)})
}

func (h *Handlers) getDealerDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := dealerID(w, r)
	if !ok {
		return
	}
	writeCacheable(w, r, map[string]any{"status": 200, "dealer": h.Q.Dealer(r.Context(), id)})
}

func (h *Handlers) getDealerReviews(w http.ResponseWriter, r *http.Request) {
	id, ok := dealerID(w, r)
	if !ok {
		return
	}
	writeCacheable(w, r, map[string]any{"status": 200, "reviews": h.Q.ReviewsForDealer(r.Context(), id)})
}

// addReview forwards the body to the backend. Authentication happens upstream
// of this service; by the time a request lands here the submitter is trusted.
func (h *Handlers) addReview(w http.ResponseWriter, r *http.Request) {
	var payload domain.ReviewSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxSubmissionBytes)).Decode(&payload); err != nil || payload == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"status": 400, "message": "Invalid JSON body"})
		return
	}
	h.Q.Submit(r.Context(), payload)
	writeJSON(w, http.StatusOK, map[string]any{"status": 200})
}
