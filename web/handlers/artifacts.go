package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/notefold/notefold/internal/graph"
	"github.com/notefold/notefold/pkg/types"
)

// ArtifactHandlers serves the source and note endpoints.
type ArtifactHandlers struct {
	graph *graph.Service
	hub   *WebSocketHub
}

// NewArtifactHandlers creates the artifact handlers. hub may be nil.
func NewArtifactHandlers(g *graph.Service, hub *WebSocketHub) *ArtifactHandlers {
	return &ArtifactHandlers{graph: g, hub: hub}
}

type createNoteRequest struct {
	NotebookID string `json:"notebook_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	NoteType   string `json:"note_type"`
}

func (req createNoteRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Content, validation.Required),
		validation.Field(&req.Title, validation.Length(0, 500)),
		validation.Field(&req.NoteType, validation.In("", string(types.NoteTypeHuman), string(types.NoteTypeAI))),
	)
}

type createSourceRequest struct {
	NotebookID string `json:"notebook_id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
}

func (req createSourceRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Required, validation.Length(1, 500)),
	)
}

type updateArtifactRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (req updateArtifactRequest) Validate() error {
	return validation.ValidateStruct(&req,
		validation.Field(&req.Title, validation.Length(0, 500)),
	)
}

// CreateNote handles POST /api/notes. When notebook_id is set the note is
// linked into that notebook in the same call.
func (h *ArtifactHandlers) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	note, err := h.graph.CreateNote(r.Context(), req.NotebookID, req.Title, req.Content, types.NoteType(req.NoteType))
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("note.created", note.ID)
	writeJSON(w, http.StatusCreated, note)
}

// CreateSource handles POST /api/sources.
func (h *ArtifactHandlers) CreateSource(w http.ResponseWriter, r *http.Request) {
	var req createSourceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	source, err := h.graph.CreateSource(r.Context(), req.NotebookID, req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("source.created", source.ID)
	writeJSON(w, http.StatusCreated, source)
}

// Get handles GET /api/artifacts/{id}.
func (h *ArtifactHandlers) Get(w http.ResponseWriter, r *http.Request) {
	artifact, err := h.graph.GetArtifact(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// Update handles PATCH /api/artifacts/{id}.
func (h *ArtifactHandlers) Update(w http.ResponseWriter, r *http.Request) {
	var req updateArtifactRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		writeValidationError(w, err)
		return
	}

	artifact, err := h.graph.UpdateArtifact(r.Context(), chi.URLParam(r, "id"), req.Title, req.Content)
	if err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("artifact.updated", artifact.ID)
	writeJSON(w, http.StatusOK, artifact)
}

// Delete handles DELETE /api/artifacts/{id}. Every edge referencing the
// artifact goes with it.
func (h *ArtifactHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.graph.DeleteArtifact(r.Context(), id); err != nil {
		writeError(w, err)
		return
	}

	h.broadcast("artifact.deleted", id)
	w.WriteHeader(http.StatusNoContent)
}

// Notebooks handles GET /api/artifacts/{id}/notebooks, the reverse lookup.
func (h *ArtifactHandlers) Notebooks(w http.ResponseWriter, r *http.Request) {
	notebooks, err := h.graph.NotebooksOf(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if notebooks == nil {
		notebooks = []*types.Notebook{}
	}
	writeJSON(w, http.StatusOK, notebooks)
}

func (h *ArtifactHandlers) broadcast(event, id string) {
	if h.hub != nil {
		h.hub.Broadcast(Event{Type: event, ID: id})
	}
}
