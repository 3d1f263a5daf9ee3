package types

const (
	RUN_STATUS_STARTED   = "STARTED"
	RUN_STATUS_COMPLETED = "COMPLETED"
	RUN_STATUS_FAILED    = "FAILED"
)

// KgRunHistory is append-only: one row per orchestrator invocation.
type KgRunHistory struct {
	ID             int64   `json:"id" db:"id"`
	StartedAt      int64   `json:"started_at" db:"started_at"`
	CompletedAt    *int64  `json:"completed_at" db:"completed_at"`
	Status         string  `json:"status" db:"status"`
	ProcessedCount int     `json:"processed_count" db:"processed_count"`
	ErrorSummary   *string `json:"error_summary" db:"error_summary"`
}
