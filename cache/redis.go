// Package cache
package cache

import (
	"context"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/zmart-protocol/vote-backend/types"
)

const scanBatch = 100

type Redis struct {
	cfg     Config
	client  *redis.Client
	voteTTL time.Duration

	logger *zap.Logger
}

func voteKey(kind types.VoteKind, subjectID string) string {
	return kind.KeyPrefix() + subjectID
}

func (c *Redis) TryWriteVote(ctx context.Context, kind types.VoteKind, subjectID, voter, choice string) (bool, error) {
	key := voteKey(kind, subjectID)
	written, err := c.client.HSetNX(ctx, key, voter, choice).Result()
	if err != nil {
		return false, err
	}
	if !written {
		return false, nil
	}
	// The record set lives 7 days from the first vote, independent of
	// aggregation outcome. Later votes must not refresh it.
	ttl, err := c.client.TTL(ctx, key).Result()
	if err != nil {
		c.logger.Warn("cannot read vote set TTL", zap.String("key", key), zap.Error(err))
		return true, nil
	}
	if ttl < 0 {
		if err := c.client.Expire(ctx, key, c.voteTTL).Err(); err != nil {
			c.logger.Warn("cannot set vote set TTL", zap.String("key", key), zap.Error(err))
		}
	}
	return true, nil
}

func (c *Redis) Snapshot(ctx context.Context, kind types.VoteKind, subjectID string) (map[string]string, error) {
	votes, err := c.client.HGetAll(ctx, voteKey(kind, subjectID)).Result()
	if err != nil {
		return nil, err
	}
	return votes, nil
}

func (c *Redis) Clear(ctx context.Context, kind types.VoteKind, subjectID string) error {
	return c.client.Del(ctx, voteKey(kind, subjectID)).Err()
}

func (c *Redis) Subjects(ctx context.Context, kind types.VoteKind) ([]string, error) {
	var (
		subjects []string
		cursor   uint64
	)
	prefix := kind.KeyPrefix()
	for {
		keys, next, err := c.client.Scan(ctx, cursor, prefix+"*", scanBatch).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			subjects = append(subjects, strings.TrimPrefix(key, prefix))
		}
		cursor = next
		if cursor == 0 {
			return subjects, nil
		}
	}
}

func (c *Redis) CountVoters(ctx context.Context, kind types.VoteKind, subjectID string) (int64, error) {
	return c.client.HLen(ctx, voteKey(kind, subjectID)).Result()
}

func (c *Redis) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
