package sqlstore

import (
	"embed"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/chronicle-ai/chronicle/app/store"
	"github.com/chronicle-ai/chronicle/pkg/register"
	"github.com/chronicle-ai/chronicle/pkg/sqlstore"
	"github.com/chronicle-ai/chronicle/pkg/types"
)

//go:embed migrations/*.sql
var CreateTableFiles embed.FS

func init() {
	sq.StatementBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
}

var provider = &Provider{
	stores: &Stores{},
}

func GetProvider() *Provider {
	return provider
}

type Provider struct {
	*sqlstore.SqlProvider
	stores *Stores
}

type Stores struct {
	store.DocumentStore
	store.ChunkStore
	store.GraphEntityStore
	store.EntityAliasStore
	store.EventStore
	store.EventParticipantStore
	store.RelationStore
	store.KgRunHistoryStore
}

type RegisterKey struct{}

func MustSetup(m sqlstore.ConnectConfig, s ...sqlstore.ConnectConfig) func() *Provider {
	provider.SqlProvider = sqlstore.MustSetupProvider(m, s...)

	for _, f := range register.ResolveFuncHandlers[*Provider](RegisterKey{}) {
		f(provider)
	}

	return func() *Provider {
		return provider
	}
}

// Install applies embedded migration files that have not run yet.
func (p *Provider) Install() error {
	if err := p.enableExtensions(); err != nil {
		return err
	}

	if err := p.ensureMigrationTable(); err != nil {
		return err
	}

	files, err := CreateTableFiles.ReadDir("migrations")
	if err != nil {
		return err
	}

	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}
		if executed, err := p.isFileExecuted(file.Name()); err != nil {
			return err
		} else if executed {
			continue
		}

		content, err := CreateTableFiles.ReadFile("migrations/" + file.Name())
		if err != nil {
			return err
		}

		if _, err = p.SqlProvider.GetMaster().Exec(string(content)); err != nil {
			return fmt.Errorf("migration %s failed, %w", file.Name(), err)
		}

		if err = p.markFileExecuted(file.Name()); err != nil {
			return err
		}
	}
	return nil
}

func (p *Provider) enableExtensions() error {
	extensions := []string{
		"CREATE EXTENSION IF NOT EXISTS vector;",
	}

	for _, ext := range extensions {
		if _, err := p.SqlProvider.GetMaster().Exec(ext); err != nil {
			return fmt.Errorf("failed to enable extension: %w\nSQL: %s", err, ext)
		}
	}
	return nil
}

func (p *Provider) ensureMigrationTable() error {
	createTableSQL := `
CREATE TABLE IF NOT EXISTS ` + types.TABLE_PREFIX + `schema_migrations (
    filename VARCHAR(255) PRIMARY KEY,
    executed_at BIGINT NOT NULL
);`
	_, err := p.SqlProvider.GetMaster().Exec(createTableSQL)
	return err
}

func (p *Provider) isFileExecuted(filename string) (bool, error) {
	var count int
	err := p.SqlProvider.GetReplica().Get(&count,
		"SELECT COUNT(*) FROM "+types.TABLE_PREFIX+"schema_migrations WHERE filename = $1", filename)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (p *Provider) markFileExecuted(filename string) error {
	_, err := p.SqlProvider.GetMaster().Exec(
		"INSERT INTO "+types.TABLE_PREFIX+"schema_migrations (filename, executed_at) VALUES ($1, $2) ON CONFLICT (filename) DO NOTHING",
		filename, time.Now().Unix())
	return err
}

func (p *Provider) DocumentStore() store.DocumentStore {
	return p.stores.DocumentStore
}

func (p *Provider) ChunkStore() store.ChunkStore {
	return p.stores.ChunkStore
}

func (p *Provider) GraphEntityStore() store.GraphEntityStore {
	return p.stores.GraphEntityStore
}

func (p *Provider) EntityAliasStore() store.EntityAliasStore {
	return p.stores.EntityAliasStore
}

func (p *Provider) EventStore() store.EventStore {
	return p.stores.EventStore
}

func (p *Provider) EventParticipantStore() store.EventParticipantStore {
	return p.stores.EventParticipantStore
}

func (p *Provider) RelationStore() store.RelationStore {
	return p.stores.RelationStore
}

func (p *Provider) KgRunHistoryStore() store.KgRunHistoryStore {
	return p.stores.KgRunHistoryStore
}
