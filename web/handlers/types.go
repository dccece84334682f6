// Package handlers provides the HTTP handlers and middleware for the
// Notefold API. Handlers translate between the wire format and the service
// layer; all domain rules live in the services, and the error taxonomy is
// mapped to status codes here.
package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// errorResponse is the JSON body for every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`

	// AvailableProviders is populated for provider-unavailable errors so the
	// client can offer a correction.
	AvailableProviders []types.Provider `json:"available_providers,omitempty"`

	// BlockingFields is populated when a model delete is refused because
	// defaults slots still reference it.
	BlockingFields []types.DefaultsField `json:"blocking_fields,omitempty"`

	// MissingKeys is populated for credential errors.
	MissingKeys []string `json:"missing_keys,omitempty"`
}

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("handlers: failed to encode response: %v", err)
	}
}

// writeError maps a service error onto a status code and structured body.
func writeError(w http.ResponseWriter, err error) {
	resp := errorResponse{Error: err.Error()}
	status := http.StatusInternalServerError
	resp.Code = "INTERNAL"

	switch {
	case errors.Is(err, storage.ErrNotFound):
		status = http.StatusNotFound
		resp.Code = "NOT_FOUND"

	case errors.Is(err, types.ErrProviderUnavailable):
		status = http.StatusBadRequest
		resp.Code = "PROVIDER_UNAVAILABLE"
		var unavailable *types.ProviderUnavailableError
		if errors.As(err, &unavailable) {
			resp.AvailableProviders = unavailable.Available
		}

	case errors.Is(err, types.ErrInvalidProvider),
		errors.Is(err, types.ErrInvalidModelType),
		errors.Is(err, types.ErrUnknownModel),
		errors.Is(err, types.ErrTypeMismatch),
		errors.Is(err, storage.ErrInvalidInput):
		status = http.StatusBadRequest
		resp.Code = "INVALID_INPUT"

	case errors.Is(err, types.ErrDuplicateModel):
		status = http.StatusConflict
		resp.Code = "DUPLICATE_MODEL"

	case errors.Is(err, types.ErrModelInUse):
		status = http.StatusConflict
		resp.Code = "MODEL_IN_USE"
		var inUse *types.ModelInUseError
		if errors.As(err, &inUse) {
			resp.BlockingFields = inUse.Fields
		}

	case errors.Is(err, types.ErrAlreadyLinked):
		status = http.StatusConflict
		resp.Code = "ALREADY_LINKED"

	case errors.Is(err, types.ErrNoDefaultConfigured):
		status = http.StatusPreconditionFailed
		resp.Code = "NO_DEFAULT_CONFIGURED"

	case errors.Is(err, types.ErrCredentialMissing):
		status = http.StatusServiceUnavailable
		resp.Code = "CREDENTIAL_MISSING"
		var missing *types.CredentialMissingError
		if errors.As(err, &missing) {
			resp.MissingKeys = missing.Keys
		}
	}

	if status == http.StatusInternalServerError {
		// Don't leak internals; the detail is logged server side.
		log.Printf("handlers: internal error: %v", err)
		resp.Error = "internal server error"
	}
	writeJSON(w, status, resp)
}

// decodeBody decodes the request JSON into dst, rejecting unknown fields.
func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "invalid JSON body: " + err.Error(),
			Code:  "INVALID_INPUT",
		})
		return false
	}
	return true
}

// writeValidationError reports an ozzo-validation failure.
func writeValidationError(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{
		Error: err.Error(),
		Code:  "INVALID_INPUT",
	})
}
