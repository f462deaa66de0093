package storage

import (
	"context"

	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// Sink is an append-only store of match records. Append never updates an
// earlier record; a rerun of the season appends new ones.
type Sink interface {
	// Append stores rec in the matches collection and in both teams' history.
	Append(ctx context.Context, rec *models.MatchRecord) error

	// Close releases the underlying connection.
	Close() error
}

// Clearer is implemented by sinks that can drop everything they stored.
type Clearer interface {
	Clear(ctx context.Context) error
}

// NoopSink discards records. It backs dry runs.
type NoopSink struct{}

var _ Sink = NoopSink{}

func (NoopSink) Append(ctx context.Context, rec *models.MatchRecord) error { return nil }

func (NoopSink) Close() error { return nil }

// IsDryRun reports whether records written to s are discarded.
func IsDryRun(s Sink) bool {
	if s == nil {
		return true
	}
	_, ok := s.(NoopSink)
	return ok
}
