package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/notefold/notefold/internal/models"
	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// ModelHandlers serves the model registry endpoints.
type ModelHandlers struct {
	registry *models.Registry
	hub      *WebSocketHub
}

// NewModelHandlers creates the model registry handlers. hub may be nil.
func NewModelHandlers(registry *models.Registry, hub *WebSocketHub) *ModelHandlers {
	return &ModelHandlers{registry: registry, hub: hub}
}

type createModelRequest struct {
	Name     string `json:"name"`
	Provider string `json:"provider"`
	Type     string `json:"type"`
}

func (req createModelRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Provider, validation.Required),
		validation.Field(&req.Type, validation.Required),
	)
}

type renameModelRequest struct {
	Name string `json:"name"`
}

func (req renameModelRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
	)
}

// List handles GET /api/models. The type and provider query parameters
// filter the result; both may be combined.
func (h *ModelHandlers) List(w http.ResponseWriter, r *http.Request) {
	filter := storage.ModelFilter{
		Type:     types.ModelType(r.URL.Query().Get("type")),
		Provider: types.Provider(r.URL.Query().Get("provider")),
	}

	listed, err := h.registry.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	if listed == nil {
		listed = []*types.Model{}
	}
	writeJSON(w, http.StatusOK, listed)
}

// Types handles GET /api/models/types, reporting which model types have at
// least one registered model.
func (h *ModelHandlers) Types(w http.ResponseWriter, r *http.Request) {
	availability, err := h.registry.TypeAvailability(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// Create handles POST /api/models.
func (h *ModelHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req createModelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	model, err := h.registry.Create(r.Context(), req.Name, types.Provider(req.Provider), types.ModelType(req.Type))
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("model.created", model.ID)
	writeJSON(w, http.StatusCreated, model)
}

// Get handles GET /api/models/{id}.
func (h *ModelHandlers) Get(w http.ResponseWriter, r *http.Request) {
	model, err := h.registry.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, model)
}

// Rename handles PATCH /api/models/{id}.
func (h *ModelHandlers) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameModelRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	model, err := h.registry.Rename(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("model.renamed", model.ID)
	writeJSON(w, http.StatusOK, model)
}

// Delete handles DELETE /api/models/{id}.
func (h *ModelHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.registry.Delete(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("model.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *ModelHandlers) broadcast(event, id string) {
	if h.hub != nil {
		h.hub.Broadcast(Event{Type: event, ID: id})
	}
}
