package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	pkgerrors "flowbuilder/pkg/errors"
)

// MaxBodyBytes caps request bodies. Imported snapshots are the largest.
const MaxBodyBytes = 4 << 20

// HealthResponse is the body of health and readiness probes
type HealthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// RespondJSON sends data as a JSON response
func RespondJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// ParseJSONBody decodes a JSON request body with a size limit. Unknown
// fields and trailing data are rejected as validation errors.
func ParseJSONBody(w http.ResponseWriter, r *http.Request, v interface{}, maxBytes int64) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return pkgerrors.NewValidationError("Request body is required")
		case errors.As(err, &tooLarge):
			return pkgerrors.NewValidationError(fmt.Sprintf("Request body exceeds %d bytes", tooLarge.Limit))
		default:
			return pkgerrors.NewValidationError("Invalid request body: " + err.Error())
		}
	}
	if decoder.More() {
		return pkgerrors.NewValidationError("Request body must contain a single JSON object")
	}
	return nil
}

// ExtractRequestID returns the caller supplied request id, if any
func ExtractRequestID(r *http.Request) string {
	for _, header := range []string{"X-Request-ID", "X-Amzn-Trace-Id"} {
		if id := r.Header.Get(header); id != "" {
			return id
		}
	}
	return ""
}
