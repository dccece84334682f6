package models

import (
	"context"
	"errors"
	"fmt"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

// DefaultsService manages the singleton default-models record. Updates are
// validated field by field against the registry, then written as a single
// whole-record replace so a partial update is all-or-nothing.
type DefaultsService struct {
	store registryStore
}

// NewDefaultsService creates a defaults service.
func NewDefaultsService(store registryStore) *DefaultsService {
	return &DefaultsService{store: store}
}

// Get returns the current defaults record, creating an all-empty one on
// first read.
func (s *DefaultsService) Get(ctx context.Context) (*types.DefaultModels, error) {
	return s.store.GetDefaults(ctx)
}

// Update applies a partial update to the defaults record. patch maps slot
// names to model ids; an empty string clears the slot. Every referenced
// model must exist and carry the type the slot requires. Any single failure
// aborts the whole update and leaves the prior record unchanged.
func (s *DefaultsService) Update(ctx context.Context, patch map[types.DefaultsField]string) (*types.DefaultModels, error) {
	current, err := s.store.GetDefaults(ctx)
	if err != nil {
		return nil, err
	}

	next := *current
	for field, modelID := range patch {
		if !knownField(field) {
			return nil, fmt.Errorf("%w: unknown defaults field %q", storage.ErrInvalidInput, field)
		}
		if modelID == "" {
			next.SetField(field, "")
			continue
		}

		model, err := s.store.GetModel(ctx, modelID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return nil, fmt.Errorf("%w: %s (field %s)", types.ErrUnknownModel, modelID, field)
			}
			return nil, err
		}
		if required := field.RequiredType(); model.Type != required {
			return nil, &types.TypeMismatchError{
				Field:    field,
				ModelID:  modelID,
				Got:      model.Type,
				Required: required,
			}
		}
		next.SetField(field, modelID)
	}

	if err := s.store.PutDefaults(ctx, &next); err != nil {
		return nil, err
	}
	return &next, nil
}

// Reset clears every slot of the defaults record.
func (s *DefaultsService) Reset(ctx context.Context) (*types.DefaultModels, error) {
	empty := &types.DefaultModels{}
	if err := s.store.PutDefaults(ctx, empty); err != nil {
		return nil, err
	}
	return empty, nil
}

func knownField(f types.DefaultsField) bool {
	for _, known := range types.DefaultsFields {
		if f == known {
			return true
		}
	}
	return false
}
