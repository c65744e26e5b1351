package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alexandrughinea/llm-api/internal/manager"
	"github.com/alexandrughinea/llm-api/pkg/types"
)

// statusClientClosedRequest is logged when the client went away; nothing is written.
const statusClientClosedRequest = 499

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}

// writeGenerateError maps a Generate failure to a response and returns the
// status used. A client that disconnected gets nothing; a request that ran
// out of time while the client is still connected gets an empty 504.
func writeGenerateError(w http.ResponseWriter, r *http.Request, base context.Context, err error) int {
	switch {
	case r.Context().Err() != nil:
		return statusClientClosedRequest
	case base.Err() != nil:
		writeJSONError(w, http.StatusServiceUnavailable, "server shutting down")
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		w.WriteHeader(http.StatusGatewayTimeout)
		return http.StatusGatewayTimeout
	case manager.IsTooBusy(err):
		IncrementBackpressure(manager.TooBusyReason(err))
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
		return http.StatusTooManyRequests
	}
	var he HTTPError
	if errors.As(err, &he) {
		writeJSONError(w, he.StatusCode(), he.Error())
		return he.StatusCode()
	}
	writeJSONError(w, http.StatusInternalServerError, "generation failed: "+err.Error())
	return http.StatusInternalServerError
}
