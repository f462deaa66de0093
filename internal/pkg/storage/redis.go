package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Vodeneev/overunder/internal/pkg/config"
	"github.com/Vodeneev/overunder/internal/pkg/models"
)

// RedisSink appends JSON-encoded records to Redis lists: <prefix>matches and
// <prefix>teams:<team>:history, with the set of seen teams in <prefix>teams.
type RedisSink struct {
	client *redis.Client
	prefix string
}

var (
	_ Sink    = (*RedisSink)(nil)
	_ Clearer = (*RedisSink)(nil)
)

func NewRedisSink(cfg *config.RedisConfig) (*RedisSink, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	slog.Info("Redis match storage initialized", "addr", cfg.Addr, "prefix", cfg.Prefix)
	return newRedisSink(client, cfg.Prefix), nil
}

func newRedisSink(client *redis.Client, prefix string) *RedisSink {
	return &RedisSink{client: client, prefix: prefix}
}

func (s *RedisSink) matchesKey() string { return s.prefix + "matches" }

func (s *RedisSink) teamsKey() string { return s.prefix + "teams" }

func (s *RedisSink) historyKey(team string) string {
	return fmt.Sprintf("%steams:%s:history", s.prefix, team)
}

func (s *RedisSink) Append(ctx context.Context, rec *models.MatchRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, s.matchesKey(), data)
		pipe.RPush(ctx, s.historyKey(rec.HomeTeam), data)
		pipe.RPush(ctx, s.historyKey(rec.AwayTeam), data)
		pipe.SAdd(ctx, s.teamsKey(), rec.HomeTeam, rec.AwayTeam)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append: %w", err)
	}
	return nil
}

// Clear deletes the matches list, every known team history and the team set.
func (s *RedisSink) Clear(ctx context.Context) error {
	teams, err := s.client.SMembers(ctx, s.teamsKey()).Result()
	if err != nil {
		return fmt.Errorf("list teams: %w", err)
	}
	keys := []string{s.matchesKey(), s.teamsKey()}
	for _, team := range teams {
		keys = append(keys, s.historyKey(team))
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis clear: %w", err)
	}
	return nil
}

func (s *RedisSink) Close() error {
	return s.client.Close()
}
