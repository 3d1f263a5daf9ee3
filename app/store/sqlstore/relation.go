package sqlstore

import (
	"context"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/samber/lo"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.RelationStore = NewRelationStore(provider)
	})
}

type RelationStore struct {
	CommonFields
}

func NewRelationStore(provider SqlProviderAchieve) *RelationStore {
	repo := &RelationStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_RELATION)
	repo.SetAllColumns("id", "subject_id", "predicate", "object_entity_id", "object_text",
		"document_id", "chunk_id", "created_at")
	return repo
}

func (s *RelationStore) Create(ctx context.Context, data *types.Relation) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "subject_id", "predicate", "object_entity_id", "object_text",
			"document_id", "chunk_id", "created_at").
		Values(data.ID, data.SubjectID, data.Predicate, data.ObjectEntityID, data.ObjectText,
			data.DocumentID, data.ChunkID, data.CreatedAt)

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

// ListByDocument joins the subject's and object's canonical keys onto
// each relation so the caller can compute dedup hashes without extra
// entity lookups.
func (s *RelationStore) ListByDocument(ctx context.Context, documentID string) ([]types.RelationRow, error) {
	columns := s.GetAllColumnsWithPrefix("r")
	columns = append(columns, "se.canonical_key AS subject_key", "oe.canonical_key AS object_key")

	query := sq.Select(columns...).
		From(s.GetTable() + " r").
		Join(types.TABLE_GRAPH_ENTITY.Name() + " se ON se.id = r.subject_id").
		LeftJoin(types.TABLE_GRAPH_ENTITY.Name() + " oe ON oe.id = r.object_entity_id").
		Where(sq.Eq{"r.document_id": documentID}).
		OrderBy("r.created_at ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.RelationRow
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// CountBySubjectAndPredicates counts relations whose subject matches the
// name case-insensitively and whose predicate is in the synonym set,
// optionally scoped to one document.
func (s *RelationStore) CountBySubjectAndPredicates(ctx context.Context, subjectName string, predicates []string, documentID *string) (int64, error) {
	if len(predicates) == 0 {
		return 0, nil
	}

	lowered := lo.Map(predicates, func(p string, _ int) string {
		return strings.ToLower(p)
	})

	query := sq.Select("COUNT(*)").
		From(s.GetTable() + " r").
		Join(types.TABLE_GRAPH_ENTITY.Name() + " se ON se.id = r.subject_id").
		Where(sq.Expr("LOWER(se.name) = LOWER(?)", subjectName)).
		Where(sq.Eq{"LOWER(r.predicate)": lowered})

	if documentID != nil {
		query = query.Where(sq.Eq{"r.document_id": *documentID})
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
