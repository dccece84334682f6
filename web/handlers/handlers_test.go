package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/graph"
	"github.com/notefold/notefold/internal/llm"
	"github.com/notefold/notefold/internal/models"
	"github.com/notefold/notefold/internal/storage/sqlite"
	"github.com/notefold/notefold/pkg/types"
)

// stubClient satisfies the llm interfaces for handler tests without making
// network calls.
type stubClient struct {
	model string
	mu    sync.Mutex
	calls int
}

func (c *stubClient) GetModel() string { return c.model }

func (c *stubClient) Embed(ctx context.Context, text string) ([]float32, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return []float32{0.1, 0.2, 0.3}, nil
}

func (c *stubClient) embedCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// testServer bundles the full HTTP surface over in-memory storage and a
// stubbed provider environment.
type testServer struct {
	router   chi.Router
	env      map[string]string
	registry *models.Registry
	defaults *models.DefaultsService
	graph    *graph.Service
	embedder *stubClient
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	store, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	env := map[string]string{
		"OPENAI_API_KEY": "sk-test",
		"VOYAGE_API_KEY": "pa-test",
	}
	probe := catalog.NewProbeWithEnv(func(key string) string { return env[key] })

	embedder := &stubClient{model: "test-embedder"}
	factory := func(model types.Model, creds map[string]string) (llm.Client, error) {
		return embedder, nil
	}
	manager := models.NewManager(store, probe, factory)
	registry := models.NewRegistry(store, probe, manager)
	defaults := models.NewDefaultsService(store)

	resolver := func(ctx context.Context) (graph.Embedder, error) {
		client, err := manager.ResolveEmbedder(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
	graphSvc := graph.NewService(store, resolver)

	modelHandlers := NewModelHandlers(registry, nil)
	providerHandlers := NewProviderHandlers(probe)
	defaultsHandlers := NewDefaultsHandlers(defaults, nil)
	notebookHandlers := NewNotebookHandlers(graphSvc, nil)
	artifactHandlers := NewArtifactHandlers(graphSvc, nil)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", providerHandlers.List)

		r.Route("/models", func(r chi.Router) {
			r.Get("/", modelHandlers.List)
			r.Post("/", modelHandlers.Create)
			r.Get("/types", modelHandlers.Types)
			r.Get("/defaults", defaultsHandlers.Get)
			r.Patch("/defaults", defaultsHandlers.Update)
			r.Delete("/defaults", defaultsHandlers.Reset)
			r.Get("/{id}", modelHandlers.Get)
			r.Patch("/{id}", modelHandlers.Rename)
			r.Delete("/{id}", modelHandlers.Delete)
		})

		r.Route("/notebooks", func(r chi.Router) {
			r.Get("/", notebookHandlers.List)
			r.Post("/", notebookHandlers.Create)
			r.Get("/{id}", notebookHandlers.Get)
			r.Put("/{id}", notebookHandlers.Update)
			r.Delete("/{id}", notebookHandlers.Delete)
			r.Get("/{id}/artifacts", notebookHandlers.Artifacts)
			r.Post("/{id}/links", notebookHandlers.Link)
			r.Delete("/{id}/links/{artifactID}", notebookHandlers.Unlink)
		})

		r.Post("/notes", artifactHandlers.CreateNote)
		r.Post("/sources", artifactHandlers.CreateSource)
		r.Route("/artifacts/{id}", func(r chi.Router) {
			r.Get("/", artifactHandlers.Get)
			r.Patch("/", artifactHandlers.Update)
			r.Delete("/", artifactHandlers.Delete)
			r.Get("/notebooks", artifactHandlers.Notebooks)
		})
	})

	return &testServer{
		router:   r,
		env:      env,
		registry: registry,
		defaults: defaults,
		graph:    graphSvc,
		embedder: embedder,
	}
}

// do runs one request through the router, JSON-encoding body when non-nil.
func (ts *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

// decode parses the recorded JSON body into dst.
func decode(t *testing.T, w *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(dst))
}

// createModel registers a model through the API and returns it.
func (ts *testServer) createModel(t *testing.T, name string, provider types.Provider, modelType types.ModelType) *types.Model {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/models", map[string]string{
		"name":     name,
		"provider": string(provider),
		"type":     string(modelType),
	})
	require.Equal(t, http.StatusCreated, w.Code, "create model %q: %s", name, w.Body.String())

	var model types.Model
	decode(t, w, &model)
	return &model
}

// createNotebook creates a notebook through the API and returns it.
func (ts *testServer) createNotebook(t *testing.T, name string) *types.Notebook {
	t.Helper()

	w := ts.do(t, http.MethodPost, "/api/notebooks", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, w.Code, "create notebook %q: %s", name, w.Body.String())

	var nb types.Notebook
	decode(t, w, &nb)
	return &nb
}
