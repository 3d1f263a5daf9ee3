package v1

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/chronicle-ai/chronicle/app/core"
	"github.com/chronicle-ai/chronicle/app/store"
	"github.com/chronicle-ai/chronicle/pkg/errors"
	"github.com/chronicle-ai/chronicle/pkg/safe"
	"github.com/chronicle-ai/chronicle/pkg/textract"
	"github.com/chronicle-ai/chronicle/pkg/types"
	"github.com/chronicle-ai/chronicle/pkg/utils"
)

const ingestionBatchSize = 5

type UploadLogic struct {
	ctx  context.Context
	core *core.Core
}

func NewUploadLogic(ctx context.Context, core *core.Core) *UploadLogic {
	return &UploadLogic{
		ctx:  ctx,
		core: core,
	}
}

type UploadResult struct {
	DocumentID string `json:"document_id"`
	ChunkCount int    `json:"chunk_count"`
	Duplicate  bool   `json:"duplicate"`
}

// Ingest takes an uploaded file end to end: dedup by content hash,
// chunk, embed, persist, then kick the knowledge-graph worker in the
// background. A re-upload of identical content returns the existing
// document id with zero new chunks.
func (l *UploadLogic) Ingest(title, filename string, raw []byte) (*UploadResult, error) {
	extractor, err := textract.ForFile(filename)
	if err != nil {
		return nil, errors.New("UploadLogic.Ingest.ForFile", err.Error(), err).Code(http.StatusBadRequest)
	}
	text, err := extractor.Extract(filename, raw)
	if err != nil {
		return nil, errors.New("UploadLogic.Ingest.Extract", err.Error(), err).Code(http.StatusBadRequest)
	}

	fingerprint := utils.Fingerprint(raw)
	existing, err := l.core.Store().DocumentStore().GetByFingerprint(l.ctx, fingerprint)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.New("UploadLogic.Ingest.GetByFingerprint", "internal error", err)
	}
	if existing != nil {
		return &UploadResult{
			DocumentID: existing.ID,
			ChunkCount: 0,
			Duplicate:  true,
		}, nil
	}

	documentID := utils.GenRandomID()
	chunks := l.core.Chunker().Split(documentID, text)

	contents := make([]string, len(chunks))
	for i, c := range chunks {
		contents[i] = c.Content
	}

	timer := l.core.Metrics().EmbeddingTimer()
	vectors, err := l.core.Embedder().EmbedBatch(l.ctx, contents)
	timer.ObserveDuration()
	if err != nil {
		return nil, errors.New("UploadLogic.Ingest.EmbedBatch", "embedding failed", err)
	}

	category := NewClassifierLogic(l.ctx, l.core).Classify(text)

	pending := types.KG_STATUS_PENDING
	err = l.core.Store().DocumentStore().Create(l.ctx, types.Document{
		ID:          documentID,
		Title:       title,
		SourceType:  "upload",
		Fingerprint: fingerprint,
		Category:    category,
		KgStatus:    &pending,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return nil, errors.New("UploadLogic.Ingest.DocumentStore.Create", "internal error", err)
	}

	stored, err := persistChunks(l.ctx, l.core.Store().ChunkStore(), chunks, vectors)
	if err != nil {
		return nil, errors.New("UploadLogic.Ingest.ChunkStore.Upsert", "internal error", err)
	}

	// fire and forget, the worker claims its own transaction
	c := l.core
	safe.RunWithLog(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute*10)
		defer cancel()
		_, _ = NewIngestionLogic(ctx, c).RunOnce(ingestionBatchSize)
	}, "upload.kg-trigger")

	return &UploadResult{
		DocumentID: documentID,
		ChunkCount: stored,
	}, nil
}

// persistChunks writes embedded chunks and reports how many rows were
// actually stored. A chunk whose embedding came back empty is logged
// and skipped, not persisted.
func persistChunks(ctx context.Context, chunkStore store.ChunkStore, chunks []types.Chunk, vectors [][]float32) (int, error) {
	stored := 0
	for i := range chunks {
		if len(vectors[i]) == 0 {
			slog.Warn("skipping chunk without embedding",
				slog.String("document_id", chunks[i].DocumentID),
				slog.Int("chunk_index", chunks[i].ChunkIndex))
			continue
		}
		v := pgvector.NewVector(vectors[i])
		chunks[i].Embedding = &v
		if err := chunkStore.Upsert(ctx, chunks[i]); err != nil {
			return stored, err
		}
		stored++
	}
	return stored, nil
}
