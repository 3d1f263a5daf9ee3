package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.EventStore = NewEventStore(provider)
	})
}

type EventStore struct {
	CommonFields
}

func NewEventStore(provider SqlProviderAchieve) *EventStore {
	repo := &EventStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_EVENT)
	repo.SetAllColumns("id", "document_id", "event_type", "event_category", "name",
		"chapter", "location", "start_year", "end_year")
	return repo
}

func (s *EventStore) Create(ctx context.Context, data *types.Event) error {
	query := sq.Insert(s.GetTable()).
		Columns("document_id", "event_type", "event_category", "name",
			"chapter", "location", "start_year", "end_year").
		Values(data.DocumentID, data.EventType, data.EventCategory, data.Name,
			data.Chapter, data.Location, data.StartYear, data.EndYear).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	return s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&data.ID)
}
