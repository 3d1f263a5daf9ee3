package types

// GraphEntity is a node in the knowledge graph. The canonical key is the
// entity's true identity: no two rows may share one.
type GraphEntity struct {
	ID           int64  `json:"id" db:"id"`
	Name         string `json:"name" db:"name"`
	CanonicalKey string `json:"canonical_key" db:"canonical_key"`
	EntityType   string `json:"entity_type" db:"entity_type"`
	Description  string `json:"description" db:"description"`
	CreatedAt    int64  `json:"created_at" db:"created_at"`
}

// EntityAlias rows are append-only and not deduplicated; repeated
// extraction runs may accumulate identical aliases for one entity.
type EntityAlias struct {
	ID       int64   `json:"id" db:"id"`
	EntityID int64   `json:"entity_id" db:"entity_id"`
	Alias    string  `json:"alias" db:"alias"`
	Language *string `json:"language" db:"language"`
}

type Event struct {
	ID            int64  `json:"id" db:"id"`
	DocumentID    string `json:"document_id" db:"document_id"`
	EventType     string `json:"event_type" db:"event_type"`
	EventCategory string `json:"event_category" db:"event_category"`
	Name          string `json:"name" db:"name"`
	Chapter       string `json:"chapter" db:"chapter"`
	Location      string `json:"location" db:"location"`
	StartYear     *int   `json:"start_year" db:"start_year"`
	EndYear       *int   `json:"end_year" db:"end_year"`
}

type EventParticipant struct {
	ID         int64   `json:"id" db:"id"`
	EventID    int64   `json:"event_id" db:"event_id"`
	ActorID    int64   `json:"actor_id" db:"actor_id"`
	Role       string  `json:"role" db:"role"`
	Outcome    string  `json:"outcome" db:"outcome"`
	DocumentID string  `json:"document_id" db:"document_id"`
	ChunkID    *string `json:"chunk_id" db:"chunk_id"`
	Note       string  `json:"note" db:"note"`
}

// Relation links a subject entity to either another entity or free text.
// Within one document no two rows may share the same normalized
// (subject key, predicate, object key-or-text) triple.
type Relation struct {
	ID             string  `json:"id" db:"id"`
	SubjectID      int64   `json:"subject_id" db:"subject_id"`
	Predicate      string  `json:"predicate" db:"predicate"`
	ObjectEntityID *int64  `json:"object_entity_id" db:"object_entity_id"`
	ObjectText     *string `json:"object_text" db:"object_text"`
	DocumentID     string  `json:"document_id" db:"document_id"`
	ChunkID        *string `json:"chunk_id" db:"chunk_id"`
	CreatedAt      int64   `json:"created_at" db:"created_at"`
}

// RelationRow joins a relation with the canonical keys needed to compute
// its dedup hash without further lookups.
type RelationRow struct {
	Relation
	SubjectKey string  `json:"-" db:"subject_key"`
	ObjectKey  *string `json:"-" db:"object_key"`
}
