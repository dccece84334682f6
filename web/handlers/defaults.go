package handlers

import (
	"net/http"

	"github.com/notefold/notefold/internal/models"
	"github.com/notefold/notefold/pkg/types"
)

// DefaultsHandlers serves the default-models record endpoints.
type DefaultsHandlers struct {
	defaults *models.DefaultsService
	hub      *WebSocketHub
}

// NewDefaultsHandlers creates the defaults handlers. hub may be nil.
func NewDefaultsHandlers(defaults *models.DefaultsService, hub *WebSocketHub) *DefaultsHandlers {
	return &DefaultsHandlers{defaults: defaults, hub: hub}
}

// Get handles GET /api/models/defaults.
func (h *DefaultsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	defaults, err := h.defaults.Get(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, defaults)
}

// Update handles PATCH /api/models/defaults. The body is a partial record:
// present fields are assigned (empty string clears a slot), absent fields
// are untouched. The whole patch is validated before anything is written.
func (h *DefaultsHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var body map[string]string
	if !decodeBody(w, r, &body) {
		return
	}

	patch := make(map[types.DefaultsField]string, len(body))
	for field, modelID := range body {
		patch[types.DefaultsField(field)] = modelID
	}

	updated, err := h.defaults.Update(r.Context(), patch)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast()
	writeJSON(w, http.StatusOK, updated)
}

// Reset handles DELETE /api/models/defaults, clearing every slot.
func (h *DefaultsHandlers) Reset(w http.ResponseWriter, r *http.Request) {
	reset, err := h.defaults.Reset(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast()
	writeJSON(w, http.StatusOK, reset)
}

func (h *DefaultsHandlers) broadcast() {
	if h.hub != nil {
		h.hub.Broadcast(Event{Type: "defaults.updated"})
	}
}
