// Package cache
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

type Adapter string

const (
	RedisAdapter Adapter = "redis"
)

const defaultVoteTTL = 7 * 24 * time.Hour

type Config struct {
	Adapter Adapter
	URL     string
	DB      int

	IsFlush bool

	VoteTTL time.Duration

	Logger *zap.Logger
}

// Client is the vote store. All mutation goes through TryWriteVote and Clear;
// the store layer provides their atomicity.
type Client interface {
	// TryWriteVote records a vote only if this voter has no field in the
	// subject's hash yet. Returns written=false when the voter already voted.
	TryWriteVote(ctx context.Context, kind types.VoteKind, subjectID, voter, choice string) (bool, error)

	// Snapshot returns all current votes for a subject, voter -> choice.
	// A subject with no votes yields an empty map, not an error.
	Snapshot(ctx context.Context, kind types.VoteKind, subjectID string) (map[string]string, error)

	// Clear removes the subject's entire record set.
	Clear(ctx context.Context, kind types.VoteKind, subjectID string) error

	// Subjects enumerates every subject currently holding at least one vote
	// for the kind.
	Subjects(ctx context.Context, kind types.VoteKind) ([]string, error)

	// CountVoters reports how many voters have voted on the subject.
	CountVoters(ctx context.Context, kind types.VoteKind, subjectID string) (int64, error)

	Ping(ctx context.Context) error
}

func New(cfg Config) (Client, error) {
	switch cfg.Adapter {
	case RedisAdapter:
		return newRedis(cfg)
	}
	return nil, errors.New("invalid cache config")
}

func newRedis(cfg Config) (Client, error) {
	redisClient := redis.NewClient(&redis.Options{
		Addr: cfg.URL,
		DB:   cfg.DB,
	})

	if _, err := redisClient.Ping(context.Background()).Result(); err != nil {
		return nil, err
	}
	if cfg.IsFlush {
		msg, err := redisClient.FlushAll(context.Background()).Result()
		if err != nil || msg != "OK" {
			return nil, err
		}
	}

	if cfg.VoteTTL <= 0 {
		cfg.VoteTTL = defaultVoteTTL
	}

	logger := cfg.Logger.With(zap.String("cache", "redis"))
	client := &Redis{
		client:  redisClient,
		voteTTL: cfg.VoteTTL,
		logger:  logger,
	}
	client.cfg = cfg
	return client, nil
}
