package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Vodeneev/overunder/internal/pkg/config"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `
	CREATE TABLE IF NOT EXISTS matches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		week INTEGER NOT NULL,
		match_date TEXT NOT NULL,
		home_team TEXT NOT NULL,
		away_team TEXT NOT NULL,
		score_home TEXT NOT NULL DEFAULT '',
		score_away TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		match_link TEXT NOT NULL DEFAULT '',
		betting_limit REAL,
		over_payout REAL,
		total_score INTEGER,
		result TEXT NOT NULL,
		match_timestamp DATETIME,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_matches_week ON matches(week);

	CREATE TABLE IF NOT EXISTS team_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		team TEXT NOT NULL,
		match_id INTEGER NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
		side TEXT NOT NULL,
		recorded_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_team_history_team ON team_history(team);
	`,
	insertMatch: `
	INSERT INTO matches (
		run_id, week, match_date, home_team, away_team,
		score_home, score_away, status, match_link,
		betting_limit, over_payout, total_score, result,
		match_timestamp, recorded_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	RETURNING id`,
	insertHistory: `INSERT INTO team_history (team, match_id, side, recorded_at) VALUES (?, ?, ?, ?)`,
	clear:         []string{`DELETE FROM team_history`, `DELETE FROM matches`},
}

// SQLiteSink appends match records to a local SQLite file.
type SQLiteSink struct {
	sqlSink
}

var (
	_ Sink    = (*SQLiteSink)(nil)
	_ Clearer = (*SQLiteSink)(nil)
)

// NewSQLiteSink opens (or creates) the database at cfg.Path; ":memory:" is allowed.
func NewSQLiteSink(cfg *config.SQLiteConfig) (*SQLiteSink, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer; also keeps a ":memory:" database on a single connection.
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s := &SQLiteSink{sqlSink{db: db, d: sqliteDialect}}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("init sqlite schema: %w", err)
	}

	slog.Info("SQLite match storage initialized", "path", cfg.Path)
	return s, nil
}
