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
		provider.stores.DocumentStore = NewDocumentStore(provider)
	})
}

type DocumentStore struct {
	CommonFields
}

func NewDocumentStore(provider SqlProviderAchieve) *DocumentStore {
	repo := &DocumentStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_DOCUMENT)
	repo.SetAllColumns("id", "title", "source_type", "fingerprint", "category",
		"kg_status", "kg_started_at", "kg_completed_at", "kg_error", "created_at")
	return repo
}

func (s *DocumentStore) Create(ctx context.Context, data types.Document) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "title", "source_type", "fingerprint", "category",
			"kg_status", "kg_started_at", "kg_completed_at", "kg_error", "created_at").
		Values(data.ID, data.Title, data.SourceType, data.Fingerprint, data.Category,
			data.KgStatus, data.KgStartedAt, data.KgCompletedAt, data.KgError, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) Get(ctx context.Context, id string) (*types.Document, error) {
	return s.getOne(ctx, types.GetDocumentsOptions{ID: id})
}

func (s *DocumentStore) GetByFingerprint(ctx context.Context, fingerprint string) (*types.Document, error) {
	return s.getOne(ctx, types.GetDocumentsOptions{Fingerprint: fingerprint})
}

func (s *DocumentStore) getOne(ctx context.Context, opts types.GetDocumentsOptions) (*types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).From(s.GetTable()).Limit(1)
	opts.Apply(&query)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Document
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByTitle matches case-insensitively; ties break on the oldest upload.
func (s *DocumentStore) GetByTitle(ctx context.Context, title string) (*types.Document, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Expr("LOWER(title) = LOWER(?)", title)).
		OrderBy("created_at ASC").
		Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.Document
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// ClaimPending locks up to limit claimable rows for the calling
// transaction. NULL kg_status counts as PENDING; PROCESSING, COMPLETED
// and FAILED rows are never reclaimed. Rows already locked by another
// claimer are skipped rather than waited on.
func (s *DocumentStore) ClaimPending(ctx context.Context, limit int) ([]string, error) {
	query := sq.Select("id").
		From(s.GetTable()).
		Where(sq.Or{
			sq.Eq{"kg_status": nil},
			sq.Eq{"kg_status": types.KG_STATUS_PENDING},
		}).
		OrderBy("created_at ASC").
		Limit(uint64(limit)).
		Suffix("FOR UPDATE SKIP LOCKED")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var ids []string
	if err = s.GetMaster(ctx).Select(&ids, queryString, args...); err != nil {
		return nil, err
	}
	return ids, nil
}

func (s *DocumentStore) UpdateKgStatus(ctx context.Context, id, status string, kgError *string) error {
	query := sq.Update(s.GetTable()).
		Set("kg_status", status).
		Set("kg_error", kgError).
		Where(sq.Eq{"id": id})

	now := time.Now().Unix()
	switch status {
	case types.KG_STATUS_PROCESSING:
		query = query.Set("kg_started_at", now)
	case types.KG_STATUS_COMPLETED, types.KG_STATUS_FAILED:
		query = query.Set("kg_completed_at", now)
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) ResetKgStatus(ctx context.Context, id string) error {
	query := sq.Update(s.GetTable()).
		Set("kg_status", types.KG_STATUS_PENDING).
		Set("kg_started_at", nil).
		Set("kg_completed_at", nil).
		Set("kg_error", nil).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *DocumentStore) CountByKgStatus(ctx context.Context) (types.KgStatusCounts, error) {
	queryString := "SELECT COALESCE(kg_status, $1) AS status, COUNT(*) AS total FROM " +
		s.GetTable() + " GROUP BY COALESCE(kg_status, $1)"

	var rows []struct {
		Status string `db:"status"`
		Total  int64  `db:"total"`
	}
	if err := s.GetReplica(ctx).Select(&rows, queryString, types.KG_STATUS_PENDING); err != nil {
		return types.KgStatusCounts{}, err
	}

	var counts types.KgStatusCounts
	for _, row := range rows {
		switch row.Status {
		case types.KG_STATUS_PENDING:
			counts.Pending = row.Total
		case types.KG_STATUS_PROCESSING:
			counts.Processing = row.Total
		case types.KG_STATUS_COMPLETED:
			counts.Completed = row.Total
		case types.KG_STATUS_FAILED:
			counts.Failed = row.Total
		}
	}
	return counts, nil
}
