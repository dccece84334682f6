package models

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/notefold/notefold/internal/storage"
	"github.com/notefold/notefold/pkg/types"
)

func TestManagerCachesConstructedClient(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	model := te.mustCreate(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	first, err := te.manager.Get(ctx, model.ID)
	require.NoError(t, err)
	second, err := te.manager.Get(ctx, model.ID)
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, te.factory.count())
	assert.Equal(t, 1, te.manager.Size())
}

func TestManagerGetUnknownModel(t *testing.T) {
	te := newTestEnv(t)

	_, err := te.manager.Get(context.Background(), "model:missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestManagerResolveDefault(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	_, err := te.manager.Resolve(ctx, types.ModelTypeEmbedding, "")
	assert.ErrorIs(t, err, types.ErrNoDefaultConfigured)

	embed := te.mustCreate(t, "voyage-3", types.ProviderVoyage, types.ModelTypeEmbedding)
	_, err = te.defaults.Update(ctx, map[types.DefaultsField]string{
		types.FieldDefaultEmbeddingModel: embed.ID,
	})
	require.NoError(t, err)

	client, err := te.manager.Resolve(ctx, types.ModelTypeEmbedding, "")
	require.NoError(t, err)
	assert.Equal(t, "voyage-3", client.GetModel())

	// Second resolve hits the cache.
	_, err = te.manager.Resolve(ctx, types.ModelTypeEmbedding, "")
	require.NoError(t, err)
	assert.Equal(t, 1, te.factory.count())
}

func TestManagerResolveExplicitChecksType(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	embed := te.mustCreate(t, "voyage-3", types.ProviderVoyage, types.ModelTypeEmbedding)

	_, err := te.manager.Resolve(ctx, types.ModelTypeLanguage, embed.ID)
	assert.ErrorIs(t, err, types.ErrTypeMismatch)

	client, err := te.manager.Resolve(ctx, types.ModelTypeEmbedding, embed.ID)
	require.NoError(t, err)
	assert.Equal(t, "voyage-3", client.GetModel())
}

func TestManagerCredentialMissingIsNotCached(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	model := te.mustCreate(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	// Credential revoked between registration and use.
	delete(te.env, "OPENAI_API_KEY")

	_, err := te.manager.Get(ctx, model.ID)
	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrCredentialMissing)

	var missing *types.CredentialMissingError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{"OPENAI_API_KEY"}, missing.Keys)
	assert.Equal(t, 0, te.factory.count())

	// Restoring the credential makes the next call succeed without any
	// poisoned state in between.
	te.env["OPENAI_API_KEY"] = "sk-rotated"
	client, err := te.manager.Get(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o-mini", client.GetModel())
	assert.Equal(t, 1, te.factory.count())
}

func TestManagerConcurrentMissesConstructOnce(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	model := te.mustCreate(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := te.manager.Get(ctx, model.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, te.factory.count())
}

func TestManagerClearBeatsInflightConstruction(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	model := te.mustCreate(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)

	block := make(chan struct{})
	te.factory.block = block

	done := make(chan error, 1)
	go func() {
		_, err := te.manager.Get(ctx, model.ID)
		done <- err
	}()

	// Wait for the construction to start, then invalidate everything while
	// it is still in flight.
	require.Eventually(t, func() bool { return te.factory.count() == 1 },
		time.Second, time.Millisecond)
	te.manager.Clear()

	close(block)
	require.NoError(t, <-done)

	// The stale construction must not have repopulated the cache.
	assert.Equal(t, 0, te.manager.Size())

	te.factory.block = nil
	_, err := te.manager.Get(ctx, model.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, te.factory.count())
}

func TestManagerInvalidateEvictsSingleKey(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	chat := te.mustCreate(t, "gpt-4o-mini", types.ProviderOpenAI, types.ModelTypeLanguage)
	embed := te.mustCreate(t, "voyage-3", types.ProviderVoyage, types.ModelTypeEmbedding)

	_, err := te.manager.Get(ctx, chat.ID)
	require.NoError(t, err)
	_, err = te.manager.Get(ctx, embed.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, te.manager.Size())

	te.manager.Invalidate(chat)
	assert.Equal(t, 1, te.manager.Size())

	_, err = te.manager.Get(ctx, chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, te.factory.count())
}
