package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold/pkg/types"
)

func TestArtifactHandlers_CreateNote(t *testing.T) {
	ts := newTestServer(t)
	nb := ts.createNotebook(t, "Notes")

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
		wantType   types.NoteType
	}{
		{
			name:       "defaults to human note",
			body:       map[string]string{"notebook_id": nb.ID, "content": "plain"},
			wantStatus: http.StatusCreated,
			wantType:   types.NoteTypeHuman,
		},
		{
			name:       "ai note",
			body:       map[string]string{"notebook_id": nb.ID, "content": "generated", "note_type": "ai"},
			wantStatus: http.StatusCreated,
			wantType:   types.NoteTypeAI,
		},
		{
			name:       "missing content",
			body:       map[string]string{"notebook_id": nb.ID, "title": "Only title"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "bad note type",
			body:       map[string]string{"notebook_id": nb.ID, "content": "x", "note_type": "robot"},
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown notebook",
			body:       map[string]string{"notebook_id": "notebook:missing", "content": "x"},
			wantStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/notes", tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			if tt.wantStatus != http.StatusCreated {
				return
			}
			var note types.Artifact
			decode(t, w, &note)
			assert.Equal(t, types.ArtifactKindNote, note.Kind)
			assert.Equal(t, tt.wantType, note.NoteType)
		})
	}
}

func TestArtifactHandlers_CreateSourceWithoutContent(t *testing.T) {
	ts := newTestServer(t)
	nb := ts.createNotebook(t, "Sources")

	// Sources may be registered before their content is fetched.
	w := ts.do(t, http.MethodPost, "/api/sources", map[string]string{
		"notebook_id": nb.ID,
		"title":       "Pending fetch",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var source types.Artifact
	decode(t, w, &source)
	assert.Equal(t, types.ArtifactKindSource, source.Kind)
	assert.Empty(t, source.Content)

	// But a title is required.
	w = ts.do(t, http.MethodPost, "/api/sources", map[string]string{
		"notebook_id": nb.ID,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestArtifactHandlers_Update(t *testing.T) {
	ts := newTestServer(t)
	nb := ts.createNotebook(t, "Notes")

	w := ts.do(t, http.MethodPost, "/api/notes", map[string]string{
		"notebook_id": nb.ID,
		"title":       "Draft",
		"content":     "v1",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var note types.Artifact
	decode(t, w, &note)

	w = ts.do(t, http.MethodPatch, "/api/artifacts/"+note.ID, map[string]string{
		"title":   "Final",
		"content": "v2",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated types.Artifact
	decode(t, w, &updated)
	assert.Equal(t, "Final", updated.Title)
	assert.Equal(t, "v2", updated.Content)
}

func TestArtifactHandlers_Delete(t *testing.T) {
	ts := newTestServer(t)
	nb := ts.createNotebook(t, "Notes")

	w := ts.do(t, http.MethodPost, "/api/notes", map[string]string{
		"notebook_id": nb.ID,
		"content":     "ephemeral",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var note types.Artifact
	decode(t, w, &note)

	w = ts.do(t, http.MethodDelete, "/api/artifacts/"+note.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/artifacts/"+note.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Its edge is gone from the notebook listing too.
	var artifacts []*types.Artifact
	w = ts.do(t, http.MethodGet, "/api/notebooks/"+nb.ID+"/artifacts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &artifacts)
	assert.Empty(t, artifacts)
}

func TestArtifactHandlers_NoteEmbeddedOnCreate(t *testing.T) {
	ts := newTestServer(t)
	nb := ts.createNotebook(t, "Notes")

	embed := ts.createModel(t, "text-embedding-3-small", types.ProviderOpenAI, types.ModelTypeEmbedding)
	w := ts.do(t, http.MethodPatch, "/api/models/defaults", map[string]string{
		"default_embedding_model": embed.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodPost, "/api/notes", map[string]string{
		"notebook_id": nb.ID,
		"content":     "embed me",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 1, ts.embedder.embedCalls())
}
