package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold/pkg/types"
)

func TestModelHandlers_CreateAndGet(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "gpt-4o-mini", created.Name)
	assert.Equal(t, types.ProviderOpenAI, created.Provider)

	w := ts.do(t, http.MethodGet, "/api/models/"+created.ID, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched types.Model
	decode(t, w, &fetched)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestModelHandlers_CreateValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name         string
		body         map[string]string
		expectedCode string
	}{
		{
			name:         "missing name",
			body:         map[string]string{"provider": "openai", "type": "language"},
			expectedCode: "INVALID_INPUT",
		},
		{
			name:         "unknown provider",
			body:         map[string]string{"name": "m", "provider": "acme", "type": "language"},
			expectedCode: "INVALID_INPUT",
		},
		{
			name:         "unknown type",
			body:         map[string]string{"name": "m", "provider": "openai", "type": "vision"},
			expectedCode: "INVALID_INPUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/api/models", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var resp errorResponse
			decode(t, w, &resp)
			assert.Equal(t, tt.expectedCode, resp.Code)
		})
	}
}

func TestModelHandlers_CreateUnavailableProvider(t *testing.T) {
	ts := newTestServer(t)

	// No ANTHROPIC_API_KEY in the test environment.
	w := ts.do(t, http.MethodPost, "/api/models", map[string]string{
		"name":     "claude-sonnet",
		"provider": "anthropic",
		"type":     "language",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	decode(t, w, &resp)
	assert.Equal(t, "PROVIDER_UNAVAILABLE", resp.Code)
	assert.Contains(t, resp.AvailableProviders, types.ProviderOpenAI)
	assert.NotContains(t, resp.AvailableProviders, types.ProviderAnthropic)
}

func TestModelHandlers_DuplicateConflict(t *testing.T) {
	ts := newTestServer(t)

	ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	w := ts.do(t, http.MethodPost, "/api/models", map[string]string{
		"name":     "gpt-4o-mini",
		"provider": "openai",
		"type":     "language",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	var resp errorResponse
	decode(t, w, &resp)
	assert.Equal(t, "DUPLICATE_MODEL", resp.Code)
}

func TestModelHandlers_ListFilters(t *testing.T) {
	ts := newTestServer(t)

	ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)
	ts.createModel(t, "text-embedding-3-small", types.ProviderOpenAI, types.ModelTypeEmbedding)
	ts.createModel(t, "voyage-3", types.ProviderVoyage, types.ModelTypeEmbedding)

	var listed []*types.Model

	w := ts.do(t, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &listed)
	assert.Len(t, listed, 3)

	w = ts.do(t, http.MethodGet, "/api/models?type=embedding", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &listed)
	assert.Len(t, listed, 2)

	w = ts.do(t, http.MethodGet, "/api/models?type=embedding&provider=voyage", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &listed)
	require.Len(t, listed, 1)
	assert.Equal(t, "voyage-3", listed[0].Name)

	w = ts.do(t, http.MethodGet, "/api/models?type=nonsense", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestModelHandlers_ListEmpty(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/api/models", nil)
	require.Equal(t, http.StatusOK, w.Code)
	// Empty registry serializes as [], not null.
	assert.JSONEq(t, "[]", w.Body.String())
}

func TestModelHandlers_Rename(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	w := ts.do(t, http.MethodPatch, "/api/models/"+created.ID, map[string]string{"name": "gpt-4o"})
	require.Equal(t, http.StatusOK, w.Code)

	var renamed types.Model
	decode(t, w, &renamed)
	assert.Equal(t, "gpt-4o", renamed.Name)
	assert.Equal(t, created.ID, renamed.ID)

	// Renaming onto an existing triple conflicts.
	ts.createModel(t, "gpt-4.1", types.ProviderOpenAI, types.ModelTypeLanguage)
	w = ts.do(t, http.MethodPatch, "/api/models/"+created.ID, map[string]string{"name": "gpt-4.1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestModelHandlers_Delete(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	w := ts.do(t, http.MethodDelete, "/api/models/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = ts.do(t, http.MethodGet, "/api/models/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestModelHandlers_DeleteReferencedModel(t *testing.T) {
	ts := newTestServer(t)

	created := ts.createModel(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	w := ts.do(t, http.MethodPatch, "/api/models/defaults", map[string]string{
		"default_chat_model": created.ID,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/models/"+created.ID, nil)
	require.Equal(t, http.StatusConflict, w.Code)

	var resp errorResponse
	decode(t, w, &resp)
	assert.Equal(t, "MODEL_IN_USE", resp.Code)
	assert.Contains(t, resp.BlockingFields, types.FieldDefaultChatModel)

	// Clearing the slot unblocks the delete.
	w = ts.do(t, http.MethodPatch, "/api/models/defaults", map[string]string{
		"default_chat_model": "",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = ts.do(t, http.MethodDelete, "/api/models/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestModelHandlers_TypeAvailability(t *testing.T) {
	ts := newTestServer(t)

	var availability map[types.ModelType]bool

	w := ts.do(t, http.MethodGet, "/api/models/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &availability)
	assert.Len(t, availability, 4)
	for modelType, present := range availability {
		assert.False(t, present, "type %s", modelType)
	}

	ts.createModel(t, "text-embedding-3-small", types.ProviderOpenAI, types.ModelTypeEmbedding)

	w = ts.do(t, http.MethodGet, "/api/models/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &availability)
	assert.True(t, availability[types.ModelTypeEmbedding])
	assert.False(t, availability[types.ModelTypeLanguage])
}

func TestModelHandlers_InvalidJSON(t *testing.T) {
	ts := newTestServer(t)

	req := ts.do(t, http.MethodPost, "/api/models", "not an object")
	assert.Equal(t, http.StatusBadRequest, req.Code)
}
