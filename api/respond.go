package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/garnizeh/jobly/pkg/apperr"
)

// maxBodyBytes caps request bodies read by handlers and middleware.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, v any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("encode response", slog.Any("err", err))
	}
}

// writeError renders err as {status, message}. Domain errors keep their
// message; anything else is logged and hidden behind a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(apperr.KindOf(err))
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("request failed",
			slog.String("request_id", requestID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Any("err", err),
		)
		msg = http.StatusText(http.StatusInternalServerError)
	}
	writeJSON(w, errorResponse{Status: status, Message: msg}, status)
}

func statusFor(k apperr.Kind) int {
	switch k {
	case apperr.KindInvalidInput, apperr.KindConflict, apperr.KindInvalidCredentials:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// readBody returns the raw request body, bounded by maxBodyBytes.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	b, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, apperr.InvalidInput("request body too large")
		}
		return nil, apperr.InvalidInput("could not read request body")
	}
	return b, nil
}

// decode unmarshals an already validated body into v.
func decode(body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		return apperr.InvalidInput("invalid request body: %v", err)
	}
	return nil
}

// NotFoundHandler answers unknown routes with a JSON 404.
func NotFoundHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, errorResponse{Status: http.StatusNotFound, Message: "Not Found"}, http.StatusNotFound)
	})
}

// MethodNotAllowedHandler answers known routes hit with the wrong method.
// mux skips middleware on a method mismatch, so CORS preflight for a known
// path is answered here.
func MethodNotAllowedHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions {
			setCORSHeaders(w)
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(w, errorResponse{Status: http.StatusMethodNotAllowed, Message: "Method Not Allowed"}, http.StatusMethodNotAllowed)
	})
}
