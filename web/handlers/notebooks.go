package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/notefold/notefold/internal/graph"
	"github.com/notefold/notefold/pkg/types"
)

// NotebookHandlers serves the notebook and link endpoints.
type NotebookHandlers struct {
	graph *graph.Service
	hub   *WebSocketHub
}

// NewNotebookHandlers creates the notebook handlers. hub may be nil.
func NewNotebookHandlers(g *graph.Service, hub *WebSocketHub) *NotebookHandlers {
	return &NotebookHandlers{graph: g, hub: hub}
}

type notebookRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Archived    bool   `json:"archived"`
}

func (req notebookRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&req.Description, validation.Length(0, 2000)),
	)
}

type linkRequest struct {
	ArtifactID string `json:"artifact_id"`
}

func (req linkRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.ArtifactID, validation.Required),
	)
}

// List handles GET /api/notebooks.
func (h *NotebookHandlers) List(w http.ResponseWriter, r *http.Request) {
	notebooks, err := h.graph.ListNotebooks(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	if notebooks == nil {
		notebooks = []*types.Notebook{}
	}
	writeJSON(w, http.StatusOK, notebooks)
}

// Create handles POST /api/notebooks.
func (h *NotebookHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req notebookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	nb, err := h.graph.CreateNotebook(r.Context(), req.Name, req.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("notebook.created", nb.ID)
	writeJSON(w, http.StatusCreated, nb)
}

// Get handles GET /api/notebooks/{id}.
func (h *NotebookHandlers) Get(w http.ResponseWriter, r *http.Request) {
	nb, err := h.graph.GetNotebook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nb)
}

// Update handles PUT /api/notebooks/{id}.
func (h *NotebookHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req notebookRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	nb, err := h.graph.UpdateNotebook(r.Context(), chi.URLParam(r, "id"), req.Name, req.Description, req.Archived)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("notebook.updated", nb.ID)
	writeJSON(w, http.StatusOK, nb)
}

// Delete handles DELETE /api/notebooks/{id}. Linked artifacts survive; only
// the notebook and its edges are removed.
func (h *NotebookHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.graph.DeleteNotebook(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("notebook.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Artifacts handles GET /api/notebooks/{id}/artifacts. The kind query
// parameter restricts the listing to sources or notes.
func (h *NotebookHandlers) Artifacts(w http.ResponseWriter, r *http.Request) {
	artifacts, err := h.graph.ArtifactsOf(r.Context(), chi.URLParam(r, "id"),
		types.ArtifactKind(r.URL.Query().Get("kind")))
	if err != nil {
		writeError(w, err)
		return
	}
	if artifacts == nil {
		artifacts = []*types.Artifact{}
	}
	writeJSON(w, http.StatusOK, artifacts)
}

// Link handles POST /api/notebooks/{id}/links. Linking an already linked
// artifact reports a conflict; idempotent clients may treat that as success.
func (h *NotebookHandlers) Link(w http.ResponseWriter, r *http.Request) {
	var req linkRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	notebookID := chi.URLParam(r, "id")
	if err := h.graph.Link(r.Context(), notebookID, req.ArtifactID); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("notebook.linked", notebookID)
	w.WriteHeader(http.StatusNoContent)
}

// Unlink handles DELETE /api/notebooks/{id}/links/{artifactID}. Unlinking an
// absent edge succeeds.
func (h *NotebookHandlers) Unlink(w http.ResponseWriter, r *http.Request) {
	notebookID := chi.URLParam(r, "id")
	if err := h.graph.Unlink(r.Context(), notebookID, chi.URLParam(r, "artifactID")); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("notebook.unlinked", notebookID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotebookHandlers) broadcast(event, id string) {
	if h.hub != nil {
		h.hub.Broadcast(Event{Type: event, ID: id})
	}
}
