package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// newTestStore connects to the database named by NOTEFOLD_TEST_POSTGRES_DSN,
// skipping the test when no database is available.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("NOTEFOLD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("NOTEFOLD_TEST_POSTGRES_DSN not set; skipping postgres integration test")
	}
	store, err := NewStore(dsn)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestPostgresModelRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	model := &types.Model{
		ID:       "model:pgtest-" + now.Format("150405"),
		Name:     "gpt-4o-mini",
		Provider: types.ProviderOpenAI,
		Type:     types.ModelTypeLanguage,
		Created:  now,
		Updated:  now,
	}
	if err := store.CreateModel(ctx, model); err != nil {
		t.Fatalf("CreateModel() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteModel(ctx, model.ID) })

	got, err := store.GetModel(ctx, model.ID)
	if err != nil {
		t.Fatalf("GetModel() failed: %v", err)
	}
	if got.Name != model.Name || got.Provider != model.Provider {
		t.Errorf("round-trip mismatch: %+v", got)
	}

	dup := *model
	dup.ID = model.ID + "-dup"
	if err := store.CreateModel(ctx, &dup); !errors.Is(err, storage.ErrDuplicate) {
		t.Errorf("duplicate create: got %v, want ErrDuplicate", err)
	}
}

func TestPostgresLinkCascade(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	nb := &types.Notebook{ID: "notebook:pgtest-" + now.Format("150405"), Name: "pg", Created: now, Updated: now}
	note := &types.Artifact{
		ID: "note:pgtest-" + now.Format("150405"), Kind: types.ArtifactKindNote,
		Content: "pg note", NoteType: types.NoteTypeHuman, Created: now, Updated: now,
	}
	if err := store.CreateNotebook(ctx, nb); err != nil {
		t.Fatalf("CreateNotebook() failed: %v", err)
	}
	if err := store.CreateArtifact(ctx, note); err != nil {
		t.Fatalf("CreateArtifact() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.DeleteArtifact(ctx, note.ID) })

	if err := store.Link(ctx, nb.ID, note.ID); err != nil {
		t.Fatalf("Link() failed: %v", err)
	}
	if err := store.DeleteNotebook(ctx, nb.ID); err != nil {
		t.Fatalf("DeleteNotebook() failed: %v", err)
	}

	// Edge is gone, artifact survives.
	if _, err := store.GetArtifact(ctx, note.ID); err != nil {
		t.Fatalf("artifact should survive notebook deletion: %v", err)
	}
	notebooks, err := store.NotebooksOf(ctx, note.ID)
	if err != nil {
		t.Fatalf("NotebooksOf() failed: %v", err)
	}
	if len(notebooks) != 0 {
		t.Errorf("NotebooksOf() = %v, want empty", notebooks)
	}
}
