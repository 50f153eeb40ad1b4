package server

import (
	"net/http"
	"time"
)

// Routes builds the API mux. Genkit flows, when configured, are served
// under /flows/.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", h.HandleHealth)

	mux.HandleFunc("POST /api/v1/analyze", h.HandleAnalyze)
	mux.HandleFunc("POST /api/v1/gherkin", h.HandleGherkin)
	mux.HandleFunc("GET /api/v1/suites", h.HandleListSuites)
	mux.HandleFunc("GET /api/v1/suites/{id}", h.HandleGetSuite)
	mux.HandleFunc("DELETE /api/v1/suites/{id}", h.HandleDeleteSuite)

	mux.HandleFunc("POST /api/v1/digest", h.HandleDigest)
	mux.HandleFunc("POST /api/v1/webhooks/sign", h.HandleWebhookSign)
	mux.HandleFunc("GET /api/v1/payloads", h.HandlePayloads)
	mux.HandleFunc("POST /api/v1/mock", h.HandleMock)
	mux.HandleFunc("POST /api/v1/json", h.HandleJSON)
	mux.HandleFunc("POST /api/v1/compress", h.HandleCompress)

	if h.flows != nil {
		h.flows.Mount(mux, "/flows/")
	}

	return CORS(h.allowedOrigins, h.logRequests(limitBody(mux)))
}

func limitBody(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
