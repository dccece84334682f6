package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/internal/storage/sqlite"
	"github.com/notefold/notefold/pkg/types"
)

// stubEmbedder returns a fixed vector and counts calls.
type stubEmbedder struct {
	calls int
	vec   []float32
	err   error
}

func (e *stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	return e.vec, e.err
}

func (e *stubEmbedder) GetModel() string { return "stub-embed" }

func newTestService(t *testing.T, embedder *stubEmbedder) *Service {
	t.Helper()
	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	var resolver EmbedderResolver
	if embedder != nil {
		resolver = func(ctx context.Context) (Embedder, error) { return embedder, nil }
	}
	return NewService(store, resolver)
}

func TestCreateNotebookValidation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateNotebook(ctx, "  ", "desc")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	nb, err := svc.CreateNotebook(ctx, "research", "provider papers")
	require.NoError(t, err)
	assert.NotEmpty(t, nb.ID)
	assert.False(t, nb.Archived)

	got, err := svc.GetNotebook(ctx, nb.ID)
	require.NoError(t, err)
	assert.Equal(t, "research", got.Name)
}

func TestCreateNoteLinksIntoNotebook(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{0.1, 0.2}}
	svc := newTestService(t, embedder)
	ctx := context.Background()

	nb, err := svc.CreateNotebook(ctx, "research", "")
	require.NoError(t, err)

	note, err := svc.CreateNote(ctx, nb.ID, "first", "note body", types.NoteTypeHuman)
	require.NoError(t, err)
	assert.Equal(t, types.ArtifactKindNote, note.Kind)
	assert.Equal(t, []float32{0.1, 0.2}, note.Embedding)
	assert.Equal(t, 1, embedder.calls)

	artifacts, err := svc.ArtifactsOf(ctx, nb.ID, types.ArtifactKindNote)
	require.NoError(t, err)
	require.Len(t, artifacts, 1)
	assert.Equal(t, note.ID, artifacts[0].ID)
}

func TestCreateNoteValidation(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	_, err := svc.CreateNote(ctx, "", "t", "   ", types.NoteTypeHuman)
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	_, err = svc.CreateNote(ctx, "", "t", "body", "robot")
	assert.ErrorIs(t, err, storage.ErrInvalidInput)

	// Unset note type defaults to human.
	note, err := svc.CreateNote(ctx, "", "t", "body", "")
	require.NoError(t, err)
	assert.Equal(t, types.NoteTypeHuman, note.NoteType)

	_, err = svc.CreateNote(ctx, "notebook:missing", "t", "body", types.NoteTypeAI)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestCreateNoteWithoutEmbeddingModel(t *testing.T) {
	svc := newTestService(t, nil)

	note, err := svc.CreateNote(context.Background(), "", "t", "body", types.NoteTypeAI)
	require.NoError(t, err)
	assert.Empty(t, note.Embedding)
}

func TestCreateSourceAllowsEmptyContent(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{1}}
	svc := newTestService(t, embedder)
	ctx := context.Background()

	source, err := svc.CreateSource(ctx, "", "pending fetch", "")
	require.NoError(t, err)
	assert.Equal(t, types.ArtifactKindSource, source.Kind)
	assert.Empty(t, source.Embedding)
	assert.Equal(t, 0, embedder.calls)
}

func TestLinkSemantics(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	nb, err := svc.CreateNotebook(ctx, "research", "")
	require.NoError(t, err)
	note, err := svc.CreateNote(ctx, "", "t", "body", types.NoteTypeHuman)
	require.NoError(t, err)

	require.NoError(t, svc.Link(ctx, nb.ID, note.ID))

	err = svc.Link(ctx, nb.ID, note.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrAlreadyLinked)

	var already *types.AlreadyLinkedError
	require.ErrorAs(t, err, &already)
	assert.Equal(t, nb.ID, already.NotebookID)

	assert.True(t, errors.Is(svc.Link(ctx, "notebook:missing", note.ID), storage.ErrNotFound))
}

func TestUnlinkIsIdempotent(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	nb, err := svc.CreateNotebook(ctx, "research", "")
	require.NoError(t, err)
	note, err := svc.CreateNote(ctx, nb.ID, "t", "body", types.NoteTypeHuman)
	require.NoError(t, err)

	require.NoError(t, svc.Unlink(ctx, nb.ID, note.ID))
	require.NoError(t, svc.Unlink(ctx, nb.ID, note.ID))

	artifacts, err := svc.ArtifactsOf(ctx, nb.ID, "")
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestDeleteNotebookKeepsSharedArtifacts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	first, err := svc.CreateNotebook(ctx, "first", "")
	require.NoError(t, err)
	second, err := svc.CreateNotebook(ctx, "second", "")
	require.NoError(t, err)

	note, err := svc.CreateNote(ctx, first.ID, "t", "body", types.NoteTypeHuman)
	require.NoError(t, err)
	require.NoError(t, svc.Link(ctx, second.ID, note.ID))

	require.NoError(t, svc.DeleteNotebook(ctx, first.ID))

	// The note survives and is still linked into the second notebook.
	got, err := svc.GetArtifact(ctx, note.ID)
	require.NoError(t, err)
	assert.Equal(t, note.ID, got.ID)

	notebooks, err := svc.NotebooksOf(ctx, note.ID)
	require.NoError(t, err)
	require.Len(t, notebooks, 1)
	assert.Equal(t, second.ID, notebooks[0].ID)
}

func TestDeleteArtifactRemovesEdges(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	nb, err := svc.CreateNotebook(ctx, "research", "")
	require.NoError(t, err)
	note, err := svc.CreateNote(ctx, nb.ID, "t", "body", types.NoteTypeHuman)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteArtifact(ctx, note.ID))

	artifacts, err := svc.ArtifactsOf(ctx, nb.ID, "")
	require.NoError(t, err)
	assert.Empty(t, artifacts)
}

func TestUpdateArtifactReembedsOnContentChange(t *testing.T) {
	embedder := &stubEmbedder{vec: []float32{0.5}}
	svc := newTestService(t, embedder)
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, "", "t", "original", types.NoteTypeHuman)
	require.NoError(t, err)
	require.Equal(t, 1, embedder.calls)

	// Title-only change does not re-embed.
	_, err = svc.UpdateArtifact(ctx, note.ID, "new title", "original")
	require.NoError(t, err)
	assert.Equal(t, 1, embedder.calls)

	updated, err := svc.UpdateArtifact(ctx, note.ID, "new title", "revised")
	require.NoError(t, err)
	assert.Equal(t, 2, embedder.calls)
	assert.Equal(t, "revised", updated.Content)
}

func TestUpdateNotebookArchives(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()

	nb, err := svc.CreateNotebook(ctx, "research", "")
	require.NoError(t, err)

	updated, err := svc.UpdateNotebook(ctx, nb.ID, "research", "done for now", true)
	require.NoError(t, err)
	assert.True(t, updated.Archived)

	got, err := svc.GetNotebook(ctx, nb.ID)
	require.NoError(t, err)
	assert.True(t, got.Archived)
}
