package storage

import (
	"errors"

	"github.com/notefold/notefold/pkg/types"
)

var (
	// ErrNotFound indicates that the requested record was not found.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput indicates that the input parameters are invalid.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDuplicate indicates a uniqueness constraint violation: a model
	// with the same (name, provider, type) triple already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrDuplicateEdge indicates the notebook-artifact edge already exists.
	ErrDuplicateEdge = errors.New("edge already exists")
)

// ModelFilter narrows ListModels results. Zero-valued fields are ignored;
// set fields are ANDed together.
type ModelFilter struct {
	// Type restricts results to models of this type.
	Type types.ModelType

	// Provider restricts results to models from this provider.
	Provider types.Provider
}

// ArtifactFilter narrows ArtifactsOf results. The zero value matches every
// artifact kind.
type ArtifactFilter struct {
	// Kind restricts results to sources or notes.
	Kind types.ArtifactKind
}
