package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.EventParticipantStore = NewEventParticipantStore(provider)
	})
}

type EventParticipantStore struct {
	CommonFields
}

func NewEventParticipantStore(provider SqlProviderAchieve) *EventParticipantStore {
	repo := &EventParticipantStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_EVENT_PARTICIPANT)
	repo.SetAllColumns("id", "event_id", "actor_id", "role", "outcome",
		"document_id", "chunk_id", "note")
	return repo
}

func (s *EventParticipantStore) Create(ctx context.Context, data *types.EventParticipant) error {
	query := sq.Insert(s.GetTable()).
		Columns("event_id", "actor_id", "role", "outcome", "document_id", "chunk_id", "note").
		Values(data.EventID, data.ActorID, data.Role, data.Outcome, data.DocumentID, data.ChunkID, data.Note).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	return s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&data.ID)
}

// CountDistinctEvents counts the distinct events where the actor
// appears with the given outcome and event type. An event counts once
// no matter how many participant rows tie the actor to it.
func (s *EventParticipantStore) CountDistinctEvents(ctx context.Context, actorID int64, outcome, eventType string, documentID *string) (int64, error) {
	query := sq.Select("COUNT(DISTINCT p.event_id)").
		From(s.GetTable() + " p").
		Join(types.TABLE_EVENT.Name() + " e ON e.id = p.event_id").
		Where(sq.Eq{"p.actor_id": actorID}).
		Where(sq.Expr("LOWER(p.outcome) = LOWER(?)", outcome)).
		Where(sq.Expr("LOWER(e.event_type) = LOWER(?)", eventType))

	if documentID != nil {
		query = query.Where(sq.Eq{"p.document_id": *documentID})
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var count int64
	if err = s.GetReplica(ctx).Get(&count, queryString, args...); err != nil {
		return 0, err
	}
	return count, nil
}
