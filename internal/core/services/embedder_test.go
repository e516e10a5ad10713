package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
	"github.com/custodia-labs/tutorbot/internal/core/ports/driven"
)

func TestEmbedder_LoadsOnce(t *testing.T) {
	svc := &mockEmbeddingService{}
	loads := 0
	e := NewEmbedder(func(context.Context) (driven.EmbeddingService, error) {
		loads++
		return svc, nil
	})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = e.EnsureLoaded(context.Background())
		}()
	}
	wg.Wait()

	_, err := e.EmbedOne(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, 1, loads)
}

func TestEmbedder_LoadErrorIsSticky(t *testing.T) {
	loads := 0
	e := NewEmbedder(func(context.Context) (driven.EmbeddingService, error) {
		loads++
		return nil, errors.New("model missing")
	})

	err := e.EnsureLoaded(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmbeddingUnavailable)

	_, err2 := e.Embed(context.Background(), []string{"a"})
	assert.Equal(t, err, err2)
	assert.Equal(t, 1, loads)
}

func TestEmbedder_NilLoader(t *testing.T) {
	e := NewEmbedder(nil)
	assert.ErrorIs(t, e.EnsureLoaded(context.Background()), domain.ErrEmbeddingUnavailable)
}

func TestEmbedder_Embed(t *testing.T) {
	svc := &mockEmbeddingService{dims: 3}
	e := NewEmbedderFrom(svc)

	vectors, err := e.Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, []float32{1, 0, 0}, vectors[0])
	assert.Equal(t, []float32{3, 0, 0}, vectors[1])

	dims, err := e.Dimensions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, dims)
}

func TestEmbedder_EmptyInputSkipsProvider(t *testing.T) {
	svc := &mockEmbeddingService{}
	e := NewEmbedderFrom(svc)

	vectors, err := e.Embed(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, vectors)
	assert.Zero(t, svc.calls)
}

func TestEmbedder_ProviderError(t *testing.T) {
	svc := &mockEmbeddingService{embedErr: domain.ErrProviderUnreachable}
	e := NewEmbedderFrom(svc)

	_, err := e.EmbedOne(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrProviderUnreachable)
}

func TestEmbedder_Close(t *testing.T) {
	svc := &mockEmbeddingService{}
	e := NewEmbedderFrom(svc)

	require.NoError(t, e.Close())
	assert.False(t, svc.closed, "unopened provider is not closed")

	require.NoError(t, e.EnsureLoaded(context.Background()))
	require.NoError(t, e.Close())
	assert.True(t, svc.closed)
}
