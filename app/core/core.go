package core

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/chronicle-ai/chronicle/app/store/sqlstore"
	"github.com/chronicle-ai/chronicle/pkg/ai"
	"github.com/chronicle-ai/chronicle/pkg/ai/openai"
	"github.com/chronicle-ai/chronicle/pkg/cache"
	"github.com/chronicle-ai/chronicle/pkg/chunker"
	"github.com/chronicle-ai/chronicle/pkg/kg"
)

type Core struct {
	cfg CoreConfig

	stores     func() *sqlstore.Provider
	httpClient *http.Client
	httpEngine *gin.Engine

	aiDriver    ai.Driver
	embedder    *ai.Embedder
	chunker     *chunker.Chunker
	searchCache *cache.SearchCache
	extractor   *kg.Extractor
	router      *kg.Router

	metrics *Metrics
}

func MustSetupCore(cfg CoreConfig) *Core {
	{
		var writer io.Writer = os.Stdout
		if cfg.Log.Path != "" {
			writer = &lumberjack.Logger{
				Filename:   cfg.Log.Path,
				MaxSize:    500, // megabytes
				MaxBackups: 3,
				MaxAge:     28, // days
				Compress:   true,
			}
		}
		l := slog.New(slog.NewJSONHandler(writer, &slog.HandlerOptions{
			Level: cfg.Log.SlogLevel(),
		}))
		slog.SetDefault(l)
	}

	core := &Core{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: time.Second * 3},
		metrics:    NewMetrics("chronicle", "core"),
		httpEngine: gin.New(),
		chunker:    chunker.New(cfg.Chunk.Size, cfg.Chunk.Overlap),
	}

	setupSqlStore(core)

	driver := openai.New(cfg.AI.Token, cfg.AI.Endpoint, openai.ModelName{
		ChatModel:      cfg.AI.ChatModel,
		EmbeddingModel: cfg.AI.EmbeddingModel,
	})
	core.aiDriver = driver
	core.embedder = ai.NewEmbedder(driver, cfg.Embedding.BatchSize)
	core.extractor = kg.NewExtractor(driver, driver.ChatModel())
	core.router = kg.NewRouter(driver, cfg.Predicates)

	if cfg.Cache.Enabled {
		ttl := time.Duration(cfg.Cache.TTLSeconds) * time.Second
		if ttl <= 0 {
			ttl = 5 * time.Minute
		}
		core.searchCache = cache.NewSearchCache(ttl)
	}

	return core
}

func setupSqlStore(core *Core) {
	core.stores = sqlstore.MustSetup(core.cfg.Postgres)
	if err := core.stores().Install(); err != nil {
		panic(err)
	}
	fmt.Println("setupSqlStore done")
}

func (s *Core) Cfg() CoreConfig {
	return s.cfg
}

func (s *Core) HttpEngine() *gin.Engine {
	return s.httpEngine
}

func (s *Core) Metrics() *Metrics {
	return s.metrics
}

func (s *Core) Store() *sqlstore.Provider {
	return s.stores()
}

func (s *Core) AI() ai.Driver {
	return s.aiDriver
}

func (s *Core) Embedder() *ai.Embedder {
	return s.embedder
}

func (s *Core) Chunker() *chunker.Chunker {
	return s.chunker
}

// SearchCache returns nil when caching is disabled; callers must treat
// a nil cache as a miss on every lookup.
func (s *Core) SearchCache() *cache.SearchCache {
	return s.searchCache
}

func (s *Core) Extractor() *kg.Extractor {
	return s.extractor
}

func (s *Core) Router() *kg.Router {
	return s.router
}
