package v1

import (
	"context"
	"errors"
	"testing"

	"github.com/pgvector/pgvector-go"

	"github.com/chronicle-ai/chronicle/pkg/types"
)

func TestFinalizeRunKeepsResultOnFault(t *testing.T) {
	report := &RunReport{RunID: 7, Claimed: 2, Completed: 1}
	status := finalizeRun(report, errors.New("claim failed"), nil)

	if status != types.RUN_STATUS_FAILED {
		t.Fatalf("status = %q, want %q", status, types.RUN_STATUS_FAILED)
	}
	if report.Error == nil || *report.Error != "claim failed" {
		t.Fatalf("report error = %v, want claim failed", report.Error)
	}
	if report.RunID != 7 || report.Completed != 1 {
		t.Fatalf("report lost its run id or counts: %+v", report)
	}
}

func TestFinalizeRunJoinsDocumentErrors(t *testing.T) {
	report := &RunReport{RunID: 8, Completed: 1, Failed: 2}
	status := finalizeRun(report, nil, []string{"doc-a: boom", "doc-b: bust"})

	if status != types.RUN_STATUS_COMPLETED {
		t.Fatalf("status = %q, want %q", status, types.RUN_STATUS_COMPLETED)
	}
	if report.Error == nil || *report.Error != "doc-a: boom; doc-b: bust" {
		t.Fatalf("report error = %v", report.Error)
	}
}

func TestFinalizeRunCleanRun(t *testing.T) {
	report := &RunReport{RunID: 9, Completed: 3}
	if status := finalizeRun(report, nil, nil); status != types.RUN_STATUS_COMPLETED {
		t.Fatalf("status = %q, want %q", status, types.RUN_STATUS_COMPLETED)
	}
	if report.Error != nil {
		t.Fatalf("unexpected report error %q", *report.Error)
	}
}

type memChunkStore struct {
	rows []types.Chunk
}

func (s *memChunkStore) GetTable(...interface{}) string { return "chunks" }

func (s *memChunkStore) Upsert(ctx context.Context, data types.Chunk) error {
	s.rows = append(s.rows, data)
	return nil
}

func (s *memChunkStore) ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error) {
	return s.rows, nil
}

func (s *memChunkStore) Search(ctx context.Context, vector pgvector.Vector, topK int, category string) ([]types.ChunkSearchResult, error) {
	return nil, nil
}

func TestPersistChunksSkipsMissingEmbeddings(t *testing.T) {
	chunkStore := &memChunkStore{}
	chunks := []types.Chunk{
		{ID: "c0", DocumentID: "doc-1", ChunkIndex: 0, Content: "first"},
		{ID: "c1", DocumentID: "doc-1", ChunkIndex: 1, Content: ""},
		{ID: "c2", DocumentID: "doc-1", ChunkIndex: 2, Content: "third"},
	}
	vectors := [][]float32{{0.1, 0.2}, nil, {0.3, 0.4}}

	stored, err := persistChunks(context.Background(), chunkStore, chunks, vectors)
	if err != nil {
		t.Fatal(err)
	}
	if stored != 2 {
		t.Fatalf("stored = %d, want 2", stored)
	}
	if len(chunkStore.rows) != 2 {
		t.Fatalf("persisted %d rows, want 2", len(chunkStore.rows))
	}
	for _, row := range chunkStore.rows {
		if row.Embedding == nil {
			t.Fatalf("chunk %s persisted without embedding", row.ID)
		}
	}
	if chunkStore.rows[0].ID != "c0" || chunkStore.rows[1].ID != "c2" {
		t.Fatalf("unexpected rows %v, %v", chunkStore.rows[0].ID, chunkStore.rows[1].ID)
	}
}
