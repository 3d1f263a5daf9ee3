package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr     string   `toml:"addr"`
	Log      Log      `toml:"log"`
	Postgres PGConfig `toml:"postgres"`

	AI        AIConfig        `toml:"ai"`
	Chunk     ChunkConfig     `toml:"chunk"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Cache     CacheConfig     `toml:"cache"`
	Query     QueryConfig     `toml:"query"`
	Category  CategoryConfig  `toml:"category"`

	// Predicates maps a canonical predicate to its synonyms, used both
	// for routing object phrases and for expanding relation counts.
	Predicates map[string][]string `toml:"predicates"`

	Security  Security        `toml:"security"`
	RateLimit RateLimitConfig `toml:"rate_limit"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("CHRONICLE_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.AI.FromENV()
	c.Security.FromENV()
	c.Chunk.Size = envInt("CHRONICLE_CHUNK_SIZE", 0)
	c.Chunk.Overlap = envInt("CHRONICLE_CHUNK_OVERLAP", 0)
	c.Embedding.BatchSize = envInt("CHRONICLE_EMBEDDING_BATCH_SIZE", 0)
}

type AIConfig struct {
	Token          string `toml:"token"`
	Endpoint       string `toml:"endpoint"`
	ChatModel      string `toml:"chat_model"`
	EmbeddingModel string `toml:"embedding_model"`
}

func (a *AIConfig) FromENV() {
	a.Token = os.Getenv("CHRONICLE_AI_TOKEN")
	a.Endpoint = os.Getenv("CHRONICLE_AI_ENDPOINT")
	a.ChatModel = os.Getenv("CHRONICLE_AI_CHAT_MODEL")
	a.EmbeddingModel = os.Getenv("CHRONICLE_AI_EMBEDDING_MODEL")
}

type ChunkConfig struct {
	Size    int `toml:"size"`
	Overlap int `toml:"overlap"`
}

type EmbeddingConfig struct {
	BatchSize int `toml:"batch_size"`
}

type CacheConfig struct {
	Enabled    bool `toml:"enabled"`
	TTLSeconds int  `toml:"ttl_seconds"`
}

type QueryConfig struct {
	TopK int `toml:"top_k"`
}

func (q QueryConfig) TopKOrDefault() int {
	if q.TopK <= 0 {
		return 5
	}
	return q.TopK
}

// CategoryConfig lists the labels the classifier may assign. Anything
// the model returns outside this list falls back to "other".
type CategoryConfig struct {
	Labels []string `toml:"labels"`
}

type Security struct {
	ApiKey string `toml:"api_key"`
}

func (s *Security) FromENV() {
	s.ApiKey = os.Getenv("CHRONICLE_API_KEY")
}

// RateLimitConfig throttles per client IP. PerMinute zero means the
// default of 60; a negative value disables the limiter.
type RateLimitConfig struct {
	PerMinute int `toml:"per_minute"`
	Burst     int `toml:"burst"`
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("CHRONICLE_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("CHRONICLE_LOG_LEVEL")
	l.Path = os.Getenv("CHRONICLE_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

func envInt(key string, fallback int) int {
	if raw := os.Getenv(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			return v
		}
	}
	return fallback
}
