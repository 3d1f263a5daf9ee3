package types

import (
	sq "github.com/Masterminds/squirrel"
)

// Knowledge-graph processing states for a document. A NULL kg_status is
// treated as PENDING by the claim query.
const (
	KG_STATUS_PENDING    = "PENDING"
	KG_STATUS_PROCESSING = "PROCESSING"
	KG_STATUS_COMPLETED  = "COMPLETED"
	KG_STATUS_FAILED     = "FAILED"
)

type Document struct {
	ID            string  `json:"id" db:"id"`
	Title         string  `json:"title" db:"title"`
	SourceType    string  `json:"source_type" db:"source_type"`
	Fingerprint   string  `json:"fingerprint" db:"fingerprint"` // content hash, upload dedup key
	Category      string  `json:"category" db:"category"`
	KgStatus      *string `json:"kg_status" db:"kg_status"`
	KgStartedAt   *int64  `json:"kg_started_at" db:"kg_started_at"`
	KgCompletedAt *int64  `json:"kg_completed_at" db:"kg_completed_at"`
	KgError       *string `json:"kg_error" db:"kg_error"`
	CreatedAt     int64   `json:"created_at" db:"created_at"`
}

type GetDocumentsOptions struct {
	ID          string
	Fingerprint string
	Category    string
	KgStatus    string
}

func (opts GetDocumentsOptions) Apply(query *sq.SelectBuilder) {
	if opts.ID != "" {
		*query = query.Where(sq.Eq{"id": opts.ID})
	}
	if opts.Fingerprint != "" {
		*query = query.Where(sq.Eq{"fingerprint": opts.Fingerprint})
	}
	if opts.Category != "" {
		*query = query.Where(sq.Eq{"category": opts.Category})
	}
	if opts.KgStatus != "" {
		*query = query.Where(sq.Eq{"kg_status": opts.KgStatus})
	}
}

// KgStatusCounts aggregates documents by knowledge-graph state.
type KgStatusCounts struct {
	Pending    int64 `json:"pending"`
	Processing int64 `json:"processing"`
	Completed  int64 `json:"completed"`
	Failed     int64 `json:"failed"`
}
