package tokenstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/bookadmin/internal/apperrors"
	"github.com/nkiryanov/bookadmin/internal/models"
)

const redisKeyPrefix = "bookadmin:credential:"

// Redis backend keeps one hash per console profile
type Redis struct {
	client redis.UniversalClient
	key    string
}

func NewRedis(client redis.UniversalClient, profile string) *Redis {
	return &Redis{client: client, key: redisKeyPrefix + profile}
}

func (r *Redis) Load(ctx context.Context) (models.Credential, error) {
	var c models.Credential

	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil {
		return c, fmt.Errorf("redis error: %w", err)
	}

	c.Access = fields["access"]
	c.Refresh = fields["refresh"]
	if c.IsZero() {
		return c, apperrors.ErrCredentialNotFound
	}

	return c, nil
}

// Save replaces the whole hash in one transaction so no stale refresh token survives
func (r *Redis) Save(ctx context.Context, c models.Credential) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		pipe.HSet(ctx, r.key, "access", c.Access, "refresh", c.Refresh)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context) error {
	if err := r.client.Del(ctx, r.key).Err(); err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}
