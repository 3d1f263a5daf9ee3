package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.KgRunHistoryStore = NewKgRunHistoryStore(provider)
	})
}

type KgRunHistoryStore struct {
	CommonFields
}

func NewKgRunHistoryStore(provider SqlProviderAchieve) *KgRunHistoryStore {
	repo := &KgRunHistoryStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_KG_RUN_HISTORY)
	repo.SetAllColumns("id", "started_at", "completed_at", "status", "processed_count", "error_summary")
	return repo
}

func (s *KgRunHistoryStore) StartRun(ctx context.Context) (int64, error) {
	query := sq.Insert(s.GetTable()).
		Columns("started_at", "status", "processed_count").
		Values(time.Now().Unix(), types.RUN_STATUS_STARTED, 0).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return 0, ErrorSqlBuild(err)
	}

	var id int64
	if err = s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *KgRunHistoryStore) FinishRun(ctx context.Context, id int64, status string, processedCount int, errorSummary *string) error {
	query := sq.Update(s.GetTable()).
		Set("completed_at", time.Now().Unix()).
		Set("status", status).
		Set("processed_count", processedCount).
		Set("error_summary", errorSummary).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *KgRunHistoryStore) RecentRuns(ctx context.Context, limit int) ([]types.KgRunHistory, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		OrderBy("started_at DESC", "id DESC").
		Limit(uint64(limit))

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.KgRunHistory
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
