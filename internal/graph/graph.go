// Package graph implements the notebook-artifact relationship service: the
// entity lifecycle for notebooks, sources, and notes, and the link edges
// connecting them. Edge uniqueness and cascade-on-delete are enforced by the
// storage layer; this service adds input validation, error mapping, and
// optional embedding of new artifacts.
package graph

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// Embedder resolves the default embedding client. Satisfied by
// models.Manager; split out so the graph service can be tested without a
// provider stack.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	GetModel() string
}

// EmbedderResolver returns the current default embedding client, or
// ErrNoDefaultConfigured when none is set. Wired to the model manager's
// ResolveEmbedder in production.
type EmbedderResolver func(ctx context.Context) (Embedder, error)

// graphStore is the persistence surface the service needs.
type graphStore interface {
	storage.NotebookStore
	storage.ArtifactStore
	storage.LinkStore
}

// Service is the artifact graph service.
type Service struct {
	store    graphStore
	resolver EmbedderResolver
}

// NewService creates a graph service. resolver may be nil, in which case new
// artifacts are stored without embeddings.
func NewService(store graphStore, resolver EmbedderResolver) *Service {
	return &Service{store: store, resolver: resolver}
}

// CreateNotebook creates a notebook with the given name and description.
func (s *Service) CreateNotebook(ctx context.Context, name, description string) (*types.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: notebook name must not be empty", storage.ErrInvalidInput)
	}

	now := time.Now().UTC()
	nb := &types.Notebook{
		ID:          "notebook:" + uuid.NewString(),
		Name:        name,
		Description: description,
		Created:     now,
		Updated:     now,
	}
	if err := s.store.CreateNotebook(ctx, nb); err != nil {
		return nil, fmt.Errorf("failed to create notebook: %w", err)
	}
	return nb, nil
}

// GetNotebook returns the notebook with the given id.
func (s *Service) GetNotebook(ctx context.Context, id string) (*types.Notebook, error) {
	return s.store.GetNotebook(ctx, id)
}

// ListNotebooks returns all notebooks, most recently updated first.
func (s *Service) ListNotebooks(ctx context.Context) ([]*types.Notebook, error) {
	return s.store.ListNotebooks(ctx)
}

// UpdateNotebook updates a notebook's name, description, and archived flag.
func (s *Service) UpdateNotebook(ctx context.Context, id, name, description string, archived bool) (*types.Notebook, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: notebook name must not be empty", storage.ErrInvalidInput)
	}

	nb, err := s.store.GetNotebook(ctx, id)
	if err != nil {
		return nil, err
	}
	nb.Name = name
	nb.Description = description
	nb.Archived = archived
	nb.Updated = time.Now().UTC()

	if err := s.store.UpdateNotebook(ctx, nb); err != nil {
		return nil, err
	}
	return nb, nil
}

// DeleteNotebook removes the notebook and all its edges. Linked artifacts
// survive; they may belong to other notebooks.
func (s *Service) DeleteNotebook(ctx context.Context, id string) error {
	return s.store.DeleteNotebook(ctx, id)
}

// CreateNote creates a note, embeds its content when a default embedding
// model is configured, and links it into the notebook when notebookID is
// non-empty.
func (s *Service) CreateNote(ctx context.Context, notebookID, title, content string, noteType types.NoteType) (*types.Artifact, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content must not be empty", storage.ErrInvalidInput)
	}
	if noteType == "" {
		noteType = types.NoteTypeHuman
	}
	if !noteType.IsValid() {
		return nil, fmt.Errorf("%w: unknown note type %q", storage.ErrInvalidInput, noteType)
	}

	now := time.Now().UTC()
	note := &types.Artifact{
		ID:        "note:" + uuid.NewString(),
		Kind:      types.ArtifactKindNote,
		Title:     title,
		Content:   content,
		NoteType:  noteType,
		Embedding: s.embed(ctx, content),
		Created:   now,
		Updated:   now,
	}
	return s.createLinked(ctx, notebookID, note)
}

// CreateSource creates a source artifact and links it into the notebook when
// notebookID is non-empty. Sources may be created before their content is
// fetched, so empty content is allowed; only non-empty content is embedded.
func (s *Service) CreateSource(ctx context.Context, notebookID, title, content string) (*types.Artifact, error) {
	now := time.Now().UTC()
	source := &types.Artifact{
		ID:      "source:" + uuid.NewString(),
		Kind:    types.ArtifactKindSource,
		Title:   title,
		Content: content,
		Created: now,
		Updated: now,
	}
	if strings.TrimSpace(content) != "" {
		source.Embedding = s.embed(ctx, content)
	}
	return s.createLinked(ctx, notebookID, source)
}

// createLinked persists the artifact and attaches it to the notebook. The
// notebook is checked first so a bad notebook id fails before anything is
// written.
func (s *Service) createLinked(ctx context.Context, notebookID string, a *types.Artifact) (*types.Artifact, error) {
	if notebookID != "" {
		if _, err := s.store.GetNotebook(ctx, notebookID); err != nil {
			return nil, err
		}
	}

	if err := s.store.CreateArtifact(ctx, a); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", a.Kind, err)
	}

	if notebookID != "" {
		if err := s.Link(ctx, notebookID, a.ID); err != nil && !errors.Is(err, types.ErrAlreadyLinked) {
			return nil, err
		}
	}
	return a, nil
}

// embed returns the embedding for the given text, or nil when no default
// embedding model is configured or the provider is temporarily unusable.
// Artifact creation never fails because of embedding problems; the artifact
// is stored unembedded and can be embedded later.
func (s *Service) embed(ctx context.Context, text string) []float32 {
	if s.resolver == nil {
		return nil
	}
	embedder, err := s.resolver(ctx)
	if err != nil {
		return nil
	}
	vec, err := embedder.Embed(ctx, text)
	if err != nil {
		return nil
	}
	return vec
}

// GetArtifact returns the artifact with the given id.
func (s *Service) GetArtifact(ctx context.Context, id string) (*types.Artifact, error) {
	return s.store.GetArtifact(ctx, id)
}

// UpdateArtifact updates an artifact's title and content. Content changes
// re-embed when possible.
func (s *Service) UpdateArtifact(ctx context.Context, id, title, content string) (*types.Artifact, error) {
	a, err := s.store.GetArtifact(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsNote() && strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: note content must not be empty", storage.ErrInvalidInput)
	}

	if content != a.Content && strings.TrimSpace(content) != "" {
		a.Embedding = s.embed(ctx, content)
	}
	a.Title = title
	a.Content = content
	a.Updated = time.Now().UTC()

	if err := s.store.UpdateArtifact(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteArtifact removes the artifact and all its edges.
func (s *Service) DeleteArtifact(ctx context.Context, id string) error {
	return s.store.DeleteArtifact(ctx, id)
}

// Link attaches an artifact to a notebook. Returns storage.ErrNotFound if
// either endpoint is missing and an AlreadyLinkedError if the edge exists;
// idempotent callers may treat the latter as success.
func (s *Service) Link(ctx context.Context, notebookID, artifactID string) error {
	err := s.store.Link(ctx, notebookID, artifactID)
	if errors.Is(err, storage.ErrDuplicateEdge) {
		return &types.AlreadyLinkedError{NotebookID: notebookID, ArtifactID: artifactID}
	}
	return err
}

// Unlink detaches an artifact from a notebook. Unlinking a non-existent edge
// is a no-op.
func (s *Service) Unlink(ctx context.Context, notebookID, artifactID string) error {
	return s.store.Unlink(ctx, notebookID, artifactID)
}

// ArtifactsOf returns the artifacts linked to the notebook, newest first,
// optionally filtered by kind.
func (s *Service) ArtifactsOf(ctx context.Context, notebookID string, kind types.ArtifactKind) ([]*types.Artifact, error) {
	if kind != "" && !kind.IsValid() {
		return nil, fmt.Errorf("%w: unknown artifact kind %q", storage.ErrInvalidInput, kind)
	}
	return s.store.ArtifactsOf(ctx, notebookID, storage.ArtifactFilter{Kind: kind})
}

// NotebooksOf returns the notebooks an artifact is linked into.
func (s *Service) NotebooksOf(ctx context.Context, artifactID string) ([]*types.Notebook, error) {
	return s.store.NotebooksOf(ctx, artifactID)
}
