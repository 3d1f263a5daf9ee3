package ai

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeEmbeddingDriver struct {
	calls     [][]string
	dimension int
	fail      bool
	short     bool
}

func (f *fakeEmbeddingDriver) Embedding(ctx context.Context, input []string) ([][]float32, error) {
	f.calls = append(f.calls, append([]string(nil), input...))
	if f.fail {
		return nil, fmt.Errorf("api unavailable")
	}
	n := len(input)
	if f.short {
		n--
	}
	out := make([][]float32, 0, n)
	for i := 0; i < n; i++ {
		vec := make([]float32, f.dimension)
		vec[0] = float32(len(input[i]))
		out = append(out, vec)
	}
	return out, nil
}

func TestEmbedBatchKeepsOrder(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 3}
	embedder := NewEmbedder(driver, 2)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"a", "bb", "ccc", "dddd", "eeeee"})
	require.NoError(t, err)
	require.Len(t, vectors, 5)

	for i, want := range []float32{1, 2, 3, 4, 5} {
		assert.Equal(t, want, vectors[i][0], "vector %d out of order", i)
	}
	// 5 texts with batch size 2 -> 3 API calls
	assert.Len(t, driver.calls, 3)
}

func TestEmbedBatchSkipsBlanks(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 2}
	embedder := NewEmbedder(driver, 10)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"", "hello", "   ", "world"})
	require.NoError(t, err)
	require.Len(t, vectors, 4)

	assert.Empty(t, vectors[0])
	assert.Len(t, vectors[1], 2)
	assert.Empty(t, vectors[2])
	assert.Len(t, vectors[3], 2)

	// blanks never reach the API
	require.Len(t, driver.calls, 1)
	assert.Equal(t, []string{"hello", "world"}, driver.calls[0])
}

func TestEmbedBatchAllBlank(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 2}
	embedder := NewEmbedder(driver, 10)

	vectors, err := embedder.EmbedBatch(context.Background(), []string{"", "  "})
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Empty(t, driver.calls)
}

func TestEmbedBatchCountMismatchAborts(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 2, short: true}
	embedder := NewEmbedder(driver, 10)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b", "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "returned 2 vectors for 3 inputs")
}

func TestEmbedBatchDriverErrorAborts(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 2, fail: true}
	embedder := NewEmbedder(driver, 1)

	_, err := embedder.EmbedBatch(context.Background(), []string{"a", "b"})
	require.Error(t, err)
}

func TestEmbedSingle(t *testing.T) {
	driver := &fakeEmbeddingDriver{dimension: 4}
	embedder := NewEmbedder(driver, 5)

	vec, err := embedder.Embed(context.Background(), "hi")
	require.NoError(t, err)
	assert.Len(t, vec, 4)
}
