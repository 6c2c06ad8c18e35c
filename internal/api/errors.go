package api

import (
	"encoding/json"
	"net/http"

	"github.com/runeforge/optimizer/internal/log"
)

// StandardError is the consistent JSON error shape for any response that
// short-circuits before a search.Result exists at all (malformed body,
// rate limiting, auth, or a tripped circuit breaker). Decodable-but-odd
// requests never land here — they're resolved into diagnostics and
// returned as part of a normal 200 Response (SPEC_FULL.md §7).
type StandardError struct {
	Status     int                    `json:"status"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	RetryAfter *int                   `json:"retryAfter,omitempty"`
}

// writeStandardErrorResponse writes a standardized JSON error response.
func writeStandardErrorResponse(w http.ResponseWriter, r *http.Request, code string, message string, statusCode int, details map[string]interface{}, retryAfter *int) {
	requestID := requestIDFromContext(r.Context())

	if details == nil {
		details = make(map[string]interface{})
	}
	details["request_id"] = requestID
	details["code"] = code

	errorResponse := StandardError{
		Status:     statusCode,
		Message:    message,
		Details:    details,
		RetryAfter: retryAfter,
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Request-ID", requestID)
	w.WriteHeader(statusCode)

	log.Error("api error response",
		"request_id", requestID,
		"error_code", code,
		"status_code", statusCode,
		"method", r.Method,
		"path", r.URL.Path)

	if err := json.NewEncoder(w).Encode(errorResponse); err != nil {
		log.Error("failed to encode error response", "request_id", requestID, "encoding_error", err.Error())
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

// writeMalformedBodyError reports a request body that doesn't even decode
// as JSON, or decodes to a shape search_builds can't resolve at all.
func writeMalformedBodyError(w http.ResponseWriter, r *http.Request, detail string) {
	writeStandardErrorResponse(w, r, "MALFORMED_REQUEST", "request body could not be decoded: "+detail, http.StatusBadRequest, nil, nil)
}

// writeSearchUnavailableError writes the 503 the optimize handler returns
// whenever the guarded search call yields an error and no stale cached
// result is available: an open circuit breaker, or a single search that was
// cancelled or ran past its wall-clock budget.
func writeSearchUnavailableError(w http.ResponseWriter, r *http.Request, retryAfterSecs int) {
	details := map[string]interface{}{"reason": "search_unavailable"}
	writeStandardErrorResponse(w, r, "SEARCH_UNAVAILABLE",
		"search is temporarily unavailable, try again shortly",
		http.StatusServiceUnavailable, details, &retryAfterSecs)
}

// writeInternalError writes a standardized internal error response.
func writeInternalError(w http.ResponseWriter, r *http.Request, message string) {
	writeStandardErrorResponse(w, r, "INTERNAL_ERROR", message, http.StatusInternalServerError, nil, nil)
}
