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
		provider.stores.GraphEntityStore = NewGraphEntityStore(provider)
	})
}

type GraphEntityStore struct {
	CommonFields
}

func NewGraphEntityStore(provider SqlProviderAchieve) *GraphEntityStore {
	repo := &GraphEntityStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_GRAPH_ENTITY)
	repo.SetAllColumns("id", "name", "canonical_key", "entity_type", "description", "created_at")
	return repo
}

// Create inserts the entity and fills data.ID from the sequence.
func (s *GraphEntityStore) Create(ctx context.Context, data *types.GraphEntity) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("name", "canonical_key", "entity_type", "description", "created_at").
		Values(data.Name, data.CanonicalKey, data.EntityType, data.Description, data.CreatedAt).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	return s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&data.ID)
}

func (s *GraphEntityStore) Get(ctx context.Context, id int64) (*types.GraphEntity, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"id": id})

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.GraphEntity
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GraphEntityStore) GetByCanonicalKey(ctx context.Context, key string) (*types.GraphEntity, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"canonical_key": key}).
		Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.GraphEntity
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

// GetByName matches case-insensitively; the oldest entity wins when
// several share a display name.
func (s *GraphEntityStore) GetByName(ctx context.Context, name string) (*types.GraphEntity, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Expr("LOWER(name) = LOWER(?)", name)).
		OrderBy("id ASC").
		Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.GraphEntity
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *GraphEntityStore) ListAll(ctx context.Context) ([]types.GraphEntity, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		OrderBy("id ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.GraphEntity
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}
