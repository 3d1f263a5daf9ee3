package sqlstore

import (
	"context"

	sq "github.com/Masterminds/squirrel"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.EntityAliasStore = NewEntityAliasStore(provider)
	})
}

type EntityAliasStore struct {
	CommonFields
}

func NewEntityAliasStore(provider SqlProviderAchieve) *EntityAliasStore {
	repo := &EntityAliasStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_ENTITY_ALIAS)
	repo.SetAllColumns("id", "entity_id", "alias", "language")
	return repo
}

// Create appends the alias without deduplication; repeated ingestion
// runs may store the same alias more than once.
func (s *EntityAliasStore) Create(ctx context.Context, data *types.EntityAlias) error {
	query := sq.Insert(s.GetTable()).
		Columns("entity_id", "alias", "language").
		Values(data.EntityID, data.Alias, data.Language).
		Suffix("RETURNING id")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	return s.GetMaster(ctx).QueryRowx(queryString, args...).Scan(&data.ID)
}

func (s *EntityAliasStore) GetByAlias(ctx context.Context, alias string) (*types.EntityAlias, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Expr("LOWER(alias) = LOWER(?)", alias)).
		OrderBy("id ASC").
		Limit(1)

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res types.EntityAlias
	if err = s.GetReplica(ctx).Get(&res, queryString, args...); err != nil {
		return nil, err
	}
	return &res, nil
}
