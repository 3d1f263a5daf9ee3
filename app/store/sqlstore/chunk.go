package sqlstore

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pgvector/pgvector-go"
	"github.com/samber/lo"

	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

func init() {
	register.RegisterFunc[*Provider](RegisterKey{}, func(provider *Provider) {
		provider.stores.ChunkStore = NewChunkStore(provider)
	})
}

type ChunkStore struct {
	CommonFields
}

func NewChunkStore(provider SqlProviderAchieve) *ChunkStore {
	repo := &ChunkStore{}
	repo.SetProvider(provider)
	repo.SetTable(types.TABLE_CHUNK)
	repo.SetAllColumns("id", "document_id", "chunk_index", "content", "embedding", "created_at")
	return repo
}

// Upsert inserts a chunk, replacing content and embedding when the id
// already exists. Re-ingesting a document therefore refreshes its rows
// in place.
func (s *ChunkStore) Upsert(ctx context.Context, data types.Chunk) error {
	if data.CreatedAt == 0 {
		data.CreatedAt = time.Now().Unix()
	}
	query := sq.Insert(s.GetTable()).
		Columns("id", "document_id", "chunk_index", "content", "embedding", "created_at").
		Values(data.ID, data.DocumentID, data.ChunkIndex, data.Content, data.Embedding, data.CreatedAt).
		Suffix("ON CONFLICT (id) DO UPDATE SET chunk_index = EXCLUDED.chunk_index, content = EXCLUDED.content, embedding = EXCLUDED.embedding")

	queryString, args, err := query.ToSql()
	if err != nil {
		return ErrorSqlBuild(err)
	}

	_, err = s.GetMaster(ctx).Exec(queryString, args...)
	return err
}

func (s *ChunkStore) ListByDocument(ctx context.Context, documentID string) ([]types.Chunk, error) {
	query := sq.Select(s.GetAllColumns()...).
		From(s.GetTable()).
		Where(sq.Eq{"document_id": documentID}).
		OrderBy("chunk_index ASC")

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	var res []types.Chunk
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}
	return res, nil
}

// Search runs nearest-neighbor retrieval over embedded chunks.
// pgvector distance operators:
// <-> - L2 distance
// <#> - (negative) inner product
// <=> - cosine distance
func (s *ChunkStore) Search(ctx context.Context, vector pgvector.Vector, topK int, category string) ([]types.ChunkSearchResult, error) {
	distColumn, vectorArgs, _ := sq.Expr("embedding <-> ? AS distance", vector).ToSql()
	query := sq.Select("id", "document_id", "chunk_index", "content", distColumn).
		From(s.GetTable()).
		Where(sq.NotEq{"embedding": nil}).
		OrderBy("distance ASC").
		Limit(uint64(topK))

	if category != "" {
		query = query.Where(sq.Expr(
			"document_id IN (SELECT id FROM "+types.TABLE_DOCUMENT.Name()+" WHERE category = ?)", category))
	}

	queryString, args, err := query.ToSql()
	if err != nil {
		return nil, ErrorSqlBuild(err)
	}

	args = append(vectorArgs, args...)

	var res []types.ChunkSearchResult
	if err = s.GetReplica(ctx).Select(&res, queryString, args...); err != nil {
		return nil, err
	}

	return lo.Map(res, func(item types.ChunkSearchResult, _ int) types.ChunkSearchResult {
		item.Similarity = types.SimilarityFromDistance(item.Distance)
		return item
	}), nil
}
