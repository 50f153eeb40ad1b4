package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"qakit/internal/compress"
	"qakit/internal/core"
	"qakit/internal/jsonutil"
	"qakit/internal/repository"
)

const (
	maxBodyBytes         = 8 << 20
	maxDecompressedBytes = 64 << 20
)

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// writeJSON encodes v without HTML escaping.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := jsonutil.MarshalNoEscape(v)
	if err != nil {
		http.Error(w, "encode response: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n"))
}

func writeText(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}

func badRequest(w http.ResponseWriter, format string, args ...any) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf(format, args...)})
}

// decodeJSON reads a JSON request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.ValidationError{Field: "body", Message: "invalid json body: " + err.Error(), Err: err}
	}
	return nil
}

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, &core.ValidationError{Field: "body", Message: "read body: " + err.Error(), Err: err}
	}
	return data, nil
}

// writeError maps domain errors onto HTTP statuses.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *core.ValidationError
	var lerr *core.LockError
	var maxErr *http.MaxBytesError

	switch {
	case errors.As(err, &maxErr), errors.Is(err, compress.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: err.Error()})
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: verr.Message, Field: verr.Field})
	case errors.Is(err, repository.ErrInvalidSuiteID):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Field: "id"})
	case errors.Is(err, repository.ErrSuiteNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "suite not found"})
	case errors.As(err, &lerr):
		writeJSON(w, http.StatusConflict, errorBody{Error: lerr.Error()})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: err.Error()})
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}
}
