package models

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/llm"
	"github.com/notefold/notefold/pkg/types"
)

// ClientFactory constructs a provider client for a model. creds maps
// credential environment keys to their resolved values.
type ClientFactory func(model types.Model, creds map[string]string) (llm.Client, error)

// cacheKey identifies a constructed client. Renaming a model changes the key,
// which is why renames must evict through Invalidate.
type cacheKey struct {
	Provider types.Provider
	Name     string
	Type     types.ModelType
}

// Manager is the process-wide cache of constructed provider clients.
//
// Construction is expensive (HTTP client setup, circuit breaker state), so a
// constructed client lives for the process lifetime unless explicitly
// invalidated. Concurrent misses for the same key are collapsed into a single
// construction; different keys construct fully in parallel. Construction
// failures, including missing credentials, are returned to the caller but
// never cached, so the next call retries fresh.
//
// Invalidation wins over in-flight construction: the generation counter is
// snapshotted before a construction starts and re-checked before the result
// is inserted, so a client built before an Invalidate or Clear can never
// repopulate the cache afterwards.
type Manager struct {
	store   registryStore
	probe   *catalog.Probe
	factory ClientFactory

	mu    sync.RWMutex
	gen   uint64
	cache map[cacheKey]llm.Client
	group singleflight.Group
}

// NewManager creates a manager. factory may be nil, in which case the
// standard provider factory is used.
func NewManager(store registryStore, probe *catalog.Probe, factory ClientFactory) *Manager {
	if factory == nil {
		factory = llm.NewClient
	}
	return &Manager{
		store:   store,
		probe:   probe,
		factory: factory,
		cache:   make(map[cacheKey]llm.Client),
	}
}

// Get returns the client for the given model id, constructing and caching it
// on first use. Returns storage.ErrNotFound if the id is unknown, or a
// CredentialMissingError if the provider's credentials have disappeared
// since registration.
func (m *Manager) Get(ctx context.Context, modelID string) (llm.Client, error) {
	model, err := m.store.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	return m.clientFor(ctx, model)
}

func (m *Manager) clientFor(ctx context.Context, model *types.Model) (llm.Client, error) {
	key := cacheKey{Provider: model.Provider, Name: model.Name, Type: model.Type}

	m.mu.RLock()
	if client, ok := m.cache[key]; ok {
		m.mu.RUnlock()
		return client, nil
	}
	gen := m.gen
	m.mu.RUnlock()

	// The generation is part of the flight key so that callers arriving
	// after an invalidation never join a flight started before it.
	flightKey := fmt.Sprintf("%s|%s|%s|%d", key.Provider, key.Name, key.Type, gen)
	result, err, _ := m.group.Do(flightKey, func() (interface{}, error) {
		m.mu.RLock()
		client, ok := m.cache[key]
		m.mu.RUnlock()
		if ok {
			return client, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		creds, ok := m.probe.Credentials(model.Provider)
		if !ok {
			return nil, &types.CredentialMissingError{
				Provider: model.Provider,
				Keys:     m.probe.MissingKeys(model.Provider),
			}
		}

		client, err := m.factory(*model, creds)
		if err != nil {
			return nil, fmt.Errorf("failed to construct client for %s: %w", model.ID, err)
		}

		m.mu.Lock()
		if m.gen == gen {
			m.cache[key] = client
		}
		m.mu.Unlock()
		return client, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(llm.Client), nil
}

// Resolve returns a usable client for the given model type. When explicitID
// is non-empty that model is used directly; otherwise the canonical defaults
// slot for the type is consulted. Returns ErrNoDefaultConfigured if the slot
// is unset.
func (m *Manager) Resolve(ctx context.Context, modelType types.ModelType, explicitID string) (llm.Client, error) {
	if explicitID != "" {
		model, err := m.store.GetModel(ctx, explicitID)
		if err != nil {
			return nil, err
		}
		if model.Type != modelType {
			return nil, fmt.Errorf("%w: model %s is %s, want %s",
				types.ErrTypeMismatch, explicitID, model.Type, modelType)
		}
		return m.clientFor(ctx, model)
	}
	return m.ResolveField(ctx, defaultFieldFor(modelType))
}

// ResolveField returns a client for the model configured in the given
// defaults slot. Returns ErrNoDefaultConfigured if the slot is unset. This
// is how callers reach the non-canonical language slots (transformation,
// large context, tools).
func (m *Manager) ResolveField(ctx context.Context, field types.DefaultsField) (llm.Client, error) {
	defaults, err := m.store.GetDefaults(ctx)
	if err != nil {
		return nil, err
	}
	id := defaults.Field(field)
	if id == "" {
		return nil, fmt.Errorf("%w: %s is unset", types.ErrNoDefaultConfigured, field)
	}
	model, err := m.store.GetModel(ctx, id)
	if err != nil {
		return nil, err
	}
	return m.clientFor(ctx, model)
}

// ResolveTextGenerator resolves the given language slot to a TextGenerator.
func (m *Manager) ResolveTextGenerator(ctx context.Context, field types.DefaultsField) (llm.TextGenerator, error) {
	client, err := m.ResolveField(ctx, field)
	if err != nil {
		return nil, err
	}
	tg, ok := client.(llm.TextGenerator)
	if !ok {
		return nil, fmt.Errorf("model in slot %s does not generate text", field)
	}
	return tg, nil
}

// ResolveEmbedder resolves the default embedding model to an EmbeddingGenerator.
func (m *Manager) ResolveEmbedder(ctx context.Context) (llm.EmbeddingGenerator, error) {
	client, err := m.ResolveField(ctx, types.FieldDefaultEmbeddingModel)
	if err != nil {
		return nil, err
	}
	eg, ok := client.(llm.EmbeddingGenerator)
	if !ok {
		return nil, fmt.Errorf("default embedding model does not generate embeddings")
	}
	return eg, nil
}

// Invalidate evicts the cache entry for the given model and bumps the
// generation so any in-flight construction for it is discarded.
func (m *Manager) Invalidate(model *types.Model) {
	key := cacheKey{Provider: model.Provider, Name: model.Name, Type: model.Type}
	m.mu.Lock()
	m.gen++
	delete(m.cache, key)
	m.mu.Unlock()
}

// Clear evicts the entire cache. Called on configuration reload, when any
// credential may have changed.
func (m *Manager) Clear() {
	m.mu.Lock()
	m.gen++
	m.cache = make(map[cacheKey]llm.Client)
	m.mu.Unlock()
}

// Size returns the number of cached clients.
func (m *Manager) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.cache)
}

// defaultFieldFor maps a model type to its canonical defaults slot.
func defaultFieldFor(t types.ModelType) types.DefaultsField {
	switch t {
	case types.ModelTypeEmbedding:
		return types.FieldDefaultEmbeddingModel
	case types.ModelTypeTextToSpeech:
		return types.FieldDefaultTextToSpeechModel
	case types.ModelTypeSpeechToText:
		return types.FieldDefaultSpeechToTextModel
	default:
		return types.FieldDefaultChatModel
	}
}
