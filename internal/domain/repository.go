package domain

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SecretRepository is the durable store of secret records, keyed by
// alias. The one-time-read guarantee rests on PopByAlias being atomic:
// there is intentionally no plain Get on the retrieval path.
type SecretRepository interface {
	// Put persists a new record with the given TTL. It returns
	// ErrDuplicateAlias if a live record already holds the alias.
	Put(ctx context.Context, secret *Secret, ttl time.Duration) error

	// PopByAlias retrieves and deletes the record in one indivisible
	// step. Two concurrent calls on the same alias cannot both
	// succeed. Returns ErrNotFound if no record exists.
	PopByAlias(ctx context.Context, alias string) (*Secret, error)
}

type redisRepository struct {
	rdb *redis.Client
}

// NewRedisRepository builds a SecretRepository on top of redis. SETNX
// guards against alias overwrite and GETDEL is the atomic pop.
func NewRedisRepository(rdb *redis.Client) SecretRepository {
	return &redisRepository{rdb: rdb}
}

func (r *redisRepository) Put(ctx context.Context, secret *Secret, ttl time.Duration) error {
	data, err := json.Marshal(secret)
	if err != nil {
		return fmt.Errorf("marshal secret: %w", err)
	}

	ok, err := r.rdb.SetNX(ctx, secretKey(secret.Alias), data, ttl).Result()
	if err != nil {
		return fmt.Errorf("store secret: %w", err)
	}
	if !ok {
		return ErrDuplicateAlias
	}
	return nil
}

func (r *redisRepository) PopByAlias(ctx context.Context, alias string) (*Secret, error) {
	data, err := r.rdb.GetDel(ctx, secretKey(alias)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pop secret: %w", err)
	}

	var secret Secret
	if err := json.Unmarshal(data, &secret); err != nil {
		return nil, fmt.Errorf("unmarshal secret: %w", err)
	}
	return &secret, nil
}

func secretKey(alias string) string { return "secret:" + alias }
