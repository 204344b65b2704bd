package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/okian/endolimit/pkg/metrics"
)

// RequestIDHeader carries the request id, echoed or generated.
const RequestIDHeader = "X-Request-ID"

// MetricsMiddleware tags every response with a request id and records
// request and error metrics under endpoint.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := r.Header.Get(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		durationMs := float64(time.Since(start).Microseconds()) / 1000
		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(wrapped.statusCode), durationMs)
		if wrapped.statusCode >= http.StatusBadRequest {
			errType, severity := classify(wrapped.statusCode)
			metrics.RecordHTTPError(endpoint, r.Method, errType, severity, durationMs)
		}
	}
}

// classify maps an error status to the error type and severity labels.
func classify(statusCode int) (string, string) {
	switch {
	case statusCode >= http.StatusInternalServerError:
		return "internal", "high"
	case statusCode == http.StatusRequestEntityTooLarge:
		return "too_large", "medium"
	case statusCode == http.StatusNotFound:
		return "not_found", "low"
	default:
		return "bad_request", "medium"
	}
}

// responseWriter wraps http.ResponseWriter to capture status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	if err != nil {
		return n, fmt.Errorf("failed to write response: %w", err)
	}
	return n, nil
}
