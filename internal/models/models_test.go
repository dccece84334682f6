package models

import (
	"context"
	"sync"
	"testing"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/llm"
	"github.com/notefold/notefold/internal/storage/sqlite"
	"github.com/notefold/notefold/pkg/types"
)

// stubClient is the client returned by the counting factory.
type stubClient struct {
	model string
}

func (c *stubClient) GetModel() string { return c.model }

// countingFactory counts constructions so tests can observe cache hits and
// misses. When block is set, construction parks until the channel is closed.
type countingFactory struct {
	mu    sync.Mutex
	calls int
	block chan struct{}
}

func (f *countingFactory) New(model types.Model, creds map[string]string) (llm.Client, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		<-block
	}
	return &stubClient{model: model.Name}, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// testEnv bundles the services under test over an in-memory store and a
// fake environment.
type testEnv struct {
	env      map[string]string
	store    *sqlite.Store
	probe    *catalog.Probe
	factory  *countingFactory
	manager  *Manager
	registry *Registry
	defaults *DefaultsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	env := map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"VOYAGE_API_KEY": "pa-test",
	}
	probe := catalog.NewProbeWithEnv(func(key string) string { return env[key] })

	factory := &countingFactory{}
	manager := NewManager(store, probe, factory.New)

	return &testEnv{
		env:      env,
		store:    store,
		probe:    probe,
		factory:  factory,
		manager:  manager,
		registry: NewRegistry(store, probe, manager),
		defaults: NewDefaultsService(store),
	}
}

func (te *testEnv) mustCreate(t *testing.T, name string, provider types.Provider, modelType types.ModelType) *types.Model {
	t.Helper()
	model, err := te.registry.Create(context.Background(), name, provider, modelType)
	if err != nil {
		t.Fatalf("failed to create model %q: %v", name, err)
	}
	return model
}
