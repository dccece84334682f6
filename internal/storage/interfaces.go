// Package storage provides composable storage interfaces for the Notefold
// backend.
//
// The layer is split into small, focused interfaces that can be implemented
// independently and composed as needed. Two backends implement the full
// Store: sqlite (embedded, single-writer) and postgres (shared, row-locked,
// with optional pgvector support for artifact embeddings).
package storage

import (
	"context"

	"github.com/notefold/notefold/pkg/types"
)

// ModelStore persists AI model records.
type ModelStore interface {
	// CreateModel persists a new model record.
	// Returns ErrDuplicate if a model with the same (name, provider, type)
	// triple already exists.
	CreateModel(ctx context.Context, model *types.Model) error

	// GetModel retrieves a model by ID.
	// Returns ErrNotFound if the model doesn't exist.
	GetModel(ctx context.Context, id string) (*types.Model, error)

	// ListModels retrieves models matching the filter, ordered by creation
	// time ascending (stable registration order).
	ListModels(ctx context.Context, filter ModelFilter) ([]*types.Model, error)

	// RenameModel changes a model's name and bumps its updated timestamp.
	// Returns ErrNotFound if the model doesn't exist, ErrDuplicate if the
	// new (name, provider, type) triple collides with another model.
	RenameModel(ctx context.Context, id, name string) (*types.Model, error)

	// DeleteModel removes a model record.
	// Returns ErrNotFound if the model doesn't exist. Reference checks
	// against the defaults record are the registry service's concern.
	DeleteModel(ctx context.Context, id string) error
}

// DefaultsStore persists the singleton default-models record.
type DefaultsStore interface {
	// GetDefaults returns the defaults record, creating an all-empty one on
	// first read (lazy singleton).
	GetDefaults(ctx context.Context) (*types.DefaultModels, error)

	// PutDefaults replaces the whole defaults record in one write. Field
	// validation happens in the defaults service before this is called; the
	// single-row replace is what makes the update all-or-nothing.
	PutDefaults(ctx context.Context, defaults *types.DefaultModels) error
}

// NotebookStore persists notebooks.
type NotebookStore interface {
	// CreateNotebook persists a new notebook.
	CreateNotebook(ctx context.Context, nb *types.Notebook) error

	// GetNotebook retrieves a notebook by ID.
	// Returns ErrNotFound if the notebook doesn't exist.
	GetNotebook(ctx context.Context, id string) (*types.Notebook, error)

	// ListNotebooks returns all notebooks ordered by updated descending.
	ListNotebooks(ctx context.Context) ([]*types.Notebook, error)

	// UpdateNotebook updates name, description, and archived flag.
	// Returns ErrNotFound if the notebook doesn't exist.
	UpdateNotebook(ctx context.Context, nb *types.Notebook) error

	// DeleteNotebook removes the notebook and cascades removal of all its
	// edges in the same transaction. Linked artifacts are not deleted.
	// Returns ErrNotFound if the notebook doesn't exist.
	DeleteNotebook(ctx context.Context, id string) error
}

// ArtifactStore persists sources and notes.
type ArtifactStore interface {
	// CreateArtifact persists a new artifact.
	CreateArtifact(ctx context.Context, a *types.Artifact) error

	// GetArtifact retrieves an artifact by ID.
	// Returns ErrNotFound if the artifact doesn't exist.
	GetArtifact(ctx context.Context, id string) (*types.Artifact, error)

	// UpdateArtifact updates title, content, and embedding.
	// Returns ErrNotFound if the artifact doesn't exist.
	UpdateArtifact(ctx context.Context, a *types.Artifact) error

	// DeleteArtifact removes the artifact and cascades removal of all its
	// edges in the same transaction.
	// Returns ErrNotFound if the artifact doesn't exist.
	DeleteArtifact(ctx context.Context, id string) error
}

// LinkStore manages the notebook-artifact edges. Implementations must make
// edge creation atomic with respect to concurrent deletes of either
// endpoint: an edge must never reference a deleted entity, even transiently.
type LinkStore interface {
	// Link creates the edge between a notebook and an artifact.
	// Returns ErrNotFound if either endpoint is missing, ErrDuplicateEdge
	// if the edge already exists.
	Link(ctx context.Context, notebookID, artifactID string) error

	// Unlink removes the edge if present. Removing a non-existent edge is
	// a no-op, not an error.
	Unlink(ctx context.Context, notebookID, artifactID string) error

	// ArtifactsOf returns the artifacts linked to the notebook, optionally
	// filtered by kind, ordered by artifact creation time descending.
	// Returns ErrNotFound if the notebook doesn't exist.
	ArtifactsOf(ctx context.Context, notebookID string, filter ArtifactFilter) ([]*types.Artifact, error)

	// NotebooksOf returns the notebooks the artifact is linked into,
	// ordered by notebook creation time descending.
	// Returns ErrNotFound if the artifact doesn't exist.
	NotebooksOf(ctx context.Context, artifactID string) ([]*types.Notebook, error)
}

// Store is the full persistence surface consumed by the services.
type Store interface {
	ModelStore
	DefaultsStore
	NotebookStore
	ArtifactStore
	LinkStore

	// Close releases any resources held by the store.
	Close() error
}
