// Package models implements the model registry, the default-model
// configuration service, and the process-wide client cache sitting between
// the persistence layer and the provider clients.
package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// registryStore is the persistence surface the registry needs.
type registryStore interface {
	storage.ModelStore
	storage.DefaultsStore
}

// Registry validates and persists model records. Every registration is
// checked against the provider catalog (does the provider exist, can it
// serve the type) and the credential probe (is it usable right now) before
// anything is written.
type Registry struct {
	store   registryStore
	probe   *catalog.Probe
	manager *Manager
}

// NewRegistry creates a registry. manager may be nil when no client cache
// needs invalidating (tests).
func NewRegistry(store registryStore, probe *catalog.Probe, manager *Manager) *Registry {
	return &Registry{store: store, probe: probe, manager: manager}
}

// Create validates and registers a new model record.
func (r *Registry) Create(ctx context.Context, name string, provider types.Provider, modelType types.ModelType) (*types.Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: model name must not be empty", storage.ErrInvalidInput)
	}
	if !modelType.IsValid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidModelType, modelType)
	}
	if !catalog.Known(provider) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidProvider, provider)
	}
	if !catalog.SupportsType(provider, modelType) || !r.probe.IsAvailable(provider) {
		return nil, &types.ProviderUnavailableError{
			Provider:  provider,
			Type:      modelType,
			Available: r.probe.AvailableFor(modelType),
		}
	}

	now := time.Now().UTC()
	model := &types.Model{
		ID:       "model:" + uuid.NewString(),
		Name:     name,
		Provider: provider,
		Type:     modelType,
		Created:  now,
		Updated:  now,
	}

	if err := r.store.CreateModel(ctx, model); err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &types.DuplicateModelError{Name: name, Provider: provider, Type: modelType}
		}
		return nil, fmt.Errorf("failed to create model: %w", err)
	}
	return model, nil
}

// Get returns the model with the given id, or storage.ErrNotFound.
func (r *Registry) Get(ctx context.Context, id string) (*types.Model, error) {
	return r.store.GetModel(ctx, id)
}

// List returns the models matching the filter in registration order. Filter
// fields are validated before hitting the store.
func (r *Registry) List(ctx context.Context, filter storage.ModelFilter) ([]*types.Model, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidModelType, filter.Type)
	}
	if filter.Provider != "" && !catalog.Known(filter.Provider) {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidProvider, filter.Provider)
	}
	return r.store.ListModels(ctx, filter)
}

// TypeAvailability reports, per model type, whether at least one model of
// that type is registered. Clients use it to grey out features that have no
// backing model yet.
func (r *Registry) TypeAvailability(ctx context.Context) (map[types.ModelType]bool, error) {
	listed, err := r.store.ListModels(ctx, storage.ModelFilter{})
	if err != nil {
		return nil, err
	}

	availability := make(map[types.ModelType]bool, len(types.ValidModelTypes))
	for _, t := range types.ValidModelTypes {
		availability[t] = false
	}
	for _, m := range listed {
		availability[m.Type] = true
	}
	return availability, nil
}

// Rename changes a model's name. The client cache entry for the old name is
// evicted since the cache key includes the provider-side name.
func (r *Registry) Rename(ctx context.Context, id, name string) (*types.Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: model name must not be empty", storage.ErrInvalidInput)
	}

	old, err := r.store.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := r.store.RenameModel(ctx, id, name)
	if err != nil {
		if errors.Is(err, storage.ErrDuplicate) {
			return nil, &types.DuplicateModelError{Name: name, Provider: old.Provider, Type: old.Type}
		}
		return nil, err
	}

	if r.manager != nil {
		r.manager.Invalidate(old)
	}
	return updated, nil
}

// Delete removes a model record. The delete is blocked while any defaults
// slot still references the model; the error names the blocking fields.
func (r *Registry) Delete(ctx context.Context, id string) error {
	model, err := r.store.GetModel(ctx, id)
	if err != nil {
		return err
	}

	defaults, err := r.store.GetDefaults(ctx)
	if err != nil {
		return fmt.Errorf("failed to read defaults: %w", err)
	}
	if fields := defaults.ReferencedBy(id); len(fields) > 0 {
		return &types.ModelInUseError{ModelID: id, Fields: fields}
	}

	if err := r.store.DeleteModel(ctx, id); err != nil {
		return err
	}

	if r.manager != nil {
		r.manager.Invalidate(model)
	}
	return nil
}
