package storage

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Vodeneev/overunder/internal/pkg/config"
)

// Storage kinds accepted in storage.kind.
const (
	KindNone     = "none"
	KindPostgres = "postgres"
	KindSQLite   = "sqlite"
	KindRedis    = "redis"
)

// Open builds the sink selected by cfg.Kind. An empty kind means a dry run.
func Open(cfg *config.StorageConfig) (Sink, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Kind)) {
	case "", KindNone:
		slog.Warn("No storage configured, records will not be saved (DRY RUN mode)")
		return NoopSink{}, nil
	case KindPostgres:
		return NewPostgresSink(&cfg.Postgres)
	case KindSQLite:
		return NewSQLiteSink(&cfg.SQLite)
	case KindRedis:
		return NewRedisSink(&cfg.Redis)
	default:
		return nil, fmt.Errorf("unknown storage kind %q (available: %s, %s, %s, %s)",
			cfg.Kind, KindNone, KindPostgres, KindSQLite, KindRedis)
	}
}
