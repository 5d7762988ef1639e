package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"chamber-v2/internal/middleware"
	"chamber-v2/pkg/errors"
)

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// respondError maps a service error to the wire format. Unclassified errors
// become opaque internal errors so storage details never leak to callers.
func respondError(w http.ResponseWriter, err error) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		appErr = errors.NewInternalError("unexpected error", err)
	}

	response := &errors.ErrorResponse{}
	response.Error.Type = appErr.Type
	response.Error.Message = appErr.Message
	response.Error.Details = appErr.Details
	response.Error.Timestamp = time.Now().UTC().Format(time.RFC3339)

	respondJSON(w, appErr.StatusCode, response)
}

// callerID returns the authenticated caller's ID, or "" when the route was
// reached without authentication.
func callerID(r *http.Request) string {
	if caller := middleware.CallerFromContext(r.Context()); caller != nil {
		return caller.ID
	}
	return ""
}
