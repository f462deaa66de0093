package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// dialect holds the statements that differ between SQL backends.
type dialect struct {
	name          string
	schema        string
	insertMatch   string
	insertHistory string
	clear         []string
}

// sqlSink stores records in a matches table plus one team_history row per side.
type sqlSink struct {
	db *sql.DB
	d  dialect
}

func (s *sqlSink) initSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, s.d.schema)
	return err
}

func (s *sqlSink) Append(ctx context.Context, rec *models.MatchRecord) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var id int64
	err = tx.QueryRowContext(ctx, s.d.insertMatch,
		rec.RunID, rec.Week, rec.Date, rec.HomeTeam, rec.AwayTeam,
		rec.ScoreHome, rec.ScoreAway, rec.Status, rec.DetailLink,
		rec.Limit, rec.OverPayout, rec.TotalScore, string(rec.Result),
		rec.MatchTimestamp, rec.RecordedAt,
	).Scan(&id)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}

	sides := []struct{ team, side string }{
		{rec.HomeTeam, "home"},
		{rec.AwayTeam, "away"},
	}
	for _, h := range sides {
		if _, err = tx.ExecContext(ctx, s.d.insertHistory, h.team, id, h.side, rec.RecordedAt); err != nil {
			return fmt.Errorf("insert %s team history: %w", h.side, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Clear removes every stored match and team history row.
func (s *sqlSink) Clear(ctx context.Context) error {
	for _, stmt := range s.d.clear {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s clear: %w", s.d.name, err)
		}
	}
	return nil
}

// Count returns the number of stored match records.
func (s *sqlSink) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM matches`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count matches: %w", err)
	}
	return n, nil
}

func (s *sqlSink) Close() error {
	return s.db.Close()
}
