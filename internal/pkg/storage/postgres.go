package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/lib/pq"

	"github.com/Vodeneev/overunder/internal/pkg/config"
)

var postgresDialect = dialect{
	name: "postgres",
	schema: `
	CREATE TABLE IF NOT EXISTS matches (
		id BIGSERIAL PRIMARY KEY,
		run_id VARCHAR(64) NOT NULL,
		week INTEGER NOT NULL,
		match_date VARCHAR(100) NOT NULL,
		home_team VARCHAR(200) NOT NULL,
		away_team VARCHAR(200) NOT NULL,
		score_home VARCHAR(20) NOT NULL DEFAULT '',
		score_away VARCHAR(20) NOT NULL DEFAULT '',
		status VARCHAR(50) NOT NULL DEFAULT '',
		match_link TEXT NOT NULL DEFAULT '',
		betting_limit DOUBLE PRECISION,
		over_payout DOUBLE PRECISION,
		total_score INTEGER,
		result VARCHAR(32) NOT NULL,
		match_timestamp TIMESTAMPTZ,
		recorded_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_week ON matches(week);
	CREATE INDEX IF NOT EXISTS idx_matches_run_id ON matches(run_id);

	CREATE TABLE IF NOT EXISTS team_history (
		id BIGSERIAL PRIMARY KEY,
		team VARCHAR(200) NOT NULL,
		match_id BIGINT NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		side VARCHAR(4) NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_history_team ON team_history(team, recorded_at DESC);
	`,
	insertMatch: `
	INSERT INTO matches (
		run_id, week, match_date, home_team, away_team,
		score_home, score_away, status, match_link,
		betting_limit, over_payout, total_score, result,
		match_timestamp, recorded_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	RETURNING id`,
	insertHistory: `INSERT INTO team_history (team, match_id, side, recorded_at) VALUES ($1, $2, $3, $4)`,
	clear:         []string{`TRUNCATE TABLE team_history, matches RESTART IDENTITY`},
}

// PostgresSink appends match records to PostgreSQL.
type PostgresSink struct {
	sqlSink
}

var (
	_ Sink    = (*PostgresSink)(nil)
	_ Clearer = (*PostgresSink)(nil)
)

// NewPostgresSink connects, pings and creates the schema if needed.
func NewPostgresSink(cfg *config.PostgresConfig) (*PostgresSink, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required")
	}

	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	s := &PostgresSink{sqlSink{db: db, d: postgresDialect}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	slog.Info("PostgreSQL match storage initialized successfully")
	return s, nil
}
