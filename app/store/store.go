package store

import (
	"context"

	"github.com/pgvector/pgvector-go"

	"github.com/chronicle-ai/chronicle/pkg/sqlstore"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

type DocumentStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data types.Document) error
	Get(ctx context.Context, id string) (*types.Document, error)
	GetByFingerprint(ctx context.Context, fingerprint string) (*types.Document, error)
	GetByTitle(ctx context.Context, title string) (*types.Document, error)
	// ClaimPending selects up to limit documents whose kg_status is NULL
	// or PENDING, locking the rows and skipping rows locked by a
	// concurrent claimer. Must run inside a transaction.
	ClaimPending(ctx context.Context, limit int) ([]string, error)
	UpdateKgStatus(ctx context.Context, id, status string, kgError *string) error
	// ResetKgStatus returns a document to PENDING; operator-only, nothing
	// calls it automatically.
	ResetKgStatus(ctx context.Context, id string) error
	CountByKgStatus(ctx context.Context) (types.KgStatusCounts, error)
}

type ChunkStore interface {
	sqlstore.SqlCommons
	Upsert(ctx context.Context, data types.Chunk) error
	ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error)
	Search(ctx context.Context, vector pgvector.Vector, topK int, category string) ([]types.ChunkSearchResult, error)
}

type GraphEntityStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.GraphEntity) error
	GetByCanonicalKey(ctx context.Context, key string) (*types.GraphEntity, error)
	GetByName(ctx context.Context, name string) (*types.GraphEntity, error)
	Get(ctx context.Context, id int64) (*types.GraphEntity, error)
	ListAll(ctx context.Context) ([]types.GraphEntity, error)
}

type EntityAliasStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.EntityAlias) error
	GetByAlias(ctx context.Context, alias string) (*types.EntityAlias, error)
}

type EventStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.Event) error
}

type EventParticipantStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.EventParticipant) error
	// CountDistinctEvents counts distinct events where the actor
	// participated with the given outcome and event type, optionally
	// scoped to one document.
	CountDistinctEvents(ctx context.Context, actorID int64, outcome, eventType string, documentID *string) (int64, error)
}

type RelationStore interface {
	sqlstore.SqlCommons
	Create(ctx context.Context, data *types.Relation) error
	// ListByDocument returns relation rows joined with the canonical keys
	// needed to compute dedup hashes.
	ListByDocument(ctx context.Context, documentID string) ([]types.RelationRow, error)
	CountBySubjectAndPredicates(ctx context.Context, subjectName string, predicates []string, documentID *string) (int64, error)
}

type KgRunHistoryStore interface {
	sqlstore.SqlCommons
	StartRun(ctx context.Context) (int64, error)
	FinishRun(ctx context.Context, id int64, status string, processedCount int, errorSummary *string) error
	RecentRuns(ctx context.Context, limit int) ([]types.KgRunHistory, error)
}
