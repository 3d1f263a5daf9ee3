package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Embedder groups texts into fixed-size batches before calling the
// embedding API. Blank inputs are assigned a zero-length vector without
// consuming an API call, and output order always matches input order
// regardless of batching or blank placement.
type Embedder struct {
	driver    EmbeddingDriver
	batchSize int
}

func NewEmbedder(driver EmbeddingDriver, batchSize int) *Embedder {
	if batchSize < 1 {
		batchSize = 1
	}
	return &Embedder{driver: driver, batchSize: batchSize}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	result, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return []float32{}, nil
	}
	return result[0], nil
}

// EmbedBatch embeds texts in submission order. A count mismatch from any
// API call aborts the whole operation; there is no partial success.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	results := make([][]float32, len(texts))

	var (
		pending        []string
		pendingIndexes []int
	)

	flush := func() error {
		if len(pending) == 0 {
			return nil
		}
		vectors, err := e.driver.Embedding(ctx, pending)
		if err != nil {
			return err
		}
		if len(vectors) != len(pending) {
			return fmt.Errorf("embedding API returned %d vectors for %d inputs", len(vectors), len(pending))
		}
		for i, idx := range pendingIndexes {
			results[idx] = vectors[i]
		}
		pending = pending[:0]
		pendingIndexes = pendingIndexes[:0]
		return nil
	}

	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			results[i] = []float32{}
			continue
		}
		pending = append(pending, text)
		pendingIndexes = append(pendingIndexes, i)
		if len(pending) == e.batchSize {
			slog.Debug("submitting embedding batch", slog.Int("size", e.batchSize))
			if err := flush(); err != nil {
				return nil, err
			}
		}
	}

	if err := flush(); err != nil {
		return nil, err
	}

	return results, nil
}
