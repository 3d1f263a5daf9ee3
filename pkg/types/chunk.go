package types

import (
	"github.com/pgvector/pgvector-go"
)

// Chunk is a bounded, overlapping segment of a document's normalized text.
// The embedding column is backfilled after the batcher has run; it is nil
// until then and the row is not searchable before that point.
type Chunk struct {
	ID         string           `json:"id" db:"id"`
	DocumentID string           `json:"document_id" db:"document_id"`
	ChunkIndex int              `json:"chunk_index" db:"chunk_index"`
	Content    string           `json:"content" db:"content"`
	Embedding  *pgvector.Vector `json:"embedding,omitempty" db:"embedding"`
	CreatedAt  int64            `json:"created_at" db:"created_at"`
}

// ChunkSearchResult carries one nearest-neighbor match. Similarity is
// derived from pgvector distance, see SimilarityFromDistance.
type ChunkSearchResult struct {
	ID         string  `json:"id" db:"id"`
	DocumentID string  `json:"document_id" db:"document_id"`
	ChunkIndex int     `json:"chunk_index" db:"chunk_index"`
	Content    string  `json:"content" db:"content"`
	Distance   float64 `json:"-" db:"distance"`
	Similarity float64 `json:"similarity" db:"-"`
}

// SimilarityFromDistance maps a vector distance into (0,1]. Zero distance
// yields exactly 1.0 and the score is strictly decreasing in distance.
func SimilarityFromDistance(distance float64) float64 {
	return 1 / (1 + distance)
}
