package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for the failure taxonomy. Callers match with errors.Is;
// the concrete error values below carry the offending identifiers so the
// boundary layer can log and report meaningfully.
var (
	// ErrInvalidProvider indicates an unknown provider identifier.
	ErrInvalidProvider = errors.New("invalid provider")

	// ErrInvalidModelType indicates an unknown model type.
	ErrInvalidModelType = errors.New("invalid model type")

	// ErrProviderUnavailable indicates the provider exists but cannot serve
	// the requested model type, or lacks credentials.
	ErrProviderUnavailable = errors.New("provider unavailable for type")

	// ErrDuplicateModel indicates the (name, provider, type) triple is
	// already registered.
	ErrDuplicateModel = errors.New("duplicate model")

	// ErrModelInUse indicates a delete was blocked because the model is
	// referenced by the defaults record.
	ErrModelInUse = errors.New("model in use")

	// ErrUnknownModel indicates a defaults update referenced a model id
	// that does not exist.
	ErrUnknownModel = errors.New("unknown model")

	// ErrTypeMismatch indicates a defaults update assigned a model to a
	// slot requiring a different model type.
	ErrTypeMismatch = errors.New("model type mismatch")

	// ErrNoDefaultConfigured indicates resolution requested a default model
	// for a type that has never been configured. Distinct from not-found so
	// callers can tell "nothing configured" from "bad id".
	ErrNoDefaultConfigured = errors.New("no default model configured")

	// ErrCredentialMissing indicates the provider credential disappeared
	// between registration and client construction. Transient: retryable
	// once credentials are restored, and never cached.
	ErrCredentialMissing = errors.New("provider credential missing")

	// ErrAlreadyLinked indicates the notebook-artifact edge already exists.
	// Idempotent callers may treat this as success.
	ErrAlreadyLinked = errors.New("already linked")
)

// ProviderUnavailableError reports that a provider cannot serve a model
// type, along with the providers that currently can, to aid correction.
type ProviderUnavailableError struct {
	Provider  Provider
	Type      ModelType
	Available []Provider
}

func (e *ProviderUnavailableError) Error() string {
	return fmt.Sprintf("provider %q is not available for %s models (available: %v)",
		e.Provider, e.Type, e.Available)
}

func (e *ProviderUnavailableError) Is(target error) bool {
	return target == ErrProviderUnavailable
}

// DuplicateModelError reports a uniqueness violation on registration.
type DuplicateModelError struct {
	Name     string
	Provider Provider
	Type     ModelType
}

func (e *DuplicateModelError) Error() string {
	return fmt.Sprintf("model %q (%s, %s) already exists", e.Name, e.Provider, e.Type)
}

func (e *DuplicateModelError) Is(target error) bool {
	return target == ErrDuplicateModel
}

// ModelInUseError reports a blocked delete and names the defaults fields
// still referencing the model.
type ModelInUseError struct {
	ModelID string
	Fields  []DefaultsField
}

func (e *ModelInUseError) Error() string {
	return fmt.Sprintf("model %s is referenced by default model fields %v", e.ModelID, e.Fields)
}

func (e *ModelInUseError) Is(target error) bool {
	return target == ErrModelInUse
}

// TypeMismatchError reports a defaults assignment whose model has the wrong
// type for the target slot.
type TypeMismatchError struct {
	Field    DefaultsField
	ModelID  string
	Got      ModelType
	Required ModelType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("model %s has type %s but field %s requires %s",
		e.ModelID, e.Got, e.Field, e.Required)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}

// CredentialMissingError reports which credential keys are absent for a
// provider at client construction time.
type CredentialMissingError struct {
	Provider Provider
	Keys     []string
}

func (e *CredentialMissingError) Error() string {
	return fmt.Sprintf("credentials for provider %q are not configured (need %v)", e.Provider, e.Keys)
}

func (e *CredentialMissingError) Is(target error) bool {
	return target == ErrCredentialMissing
}

// AlreadyLinkedError reports a duplicate notebook-artifact edge.
type AlreadyLinkedError struct {
	NotebookID string
	ArtifactID string
}

func (e *AlreadyLinkedError) Error() string {
	return fmt.Sprintf("artifact %s is already linked to notebook %s", e.ArtifactID, e.NotebookID)
}

func (e *AlreadyLinkedError) Is(target error) bool {
	return target == ErrAlreadyLinked
}
