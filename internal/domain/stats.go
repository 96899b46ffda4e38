package domain

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// StatsRepository owns the aggregate counters. Increments are atomic
// per counter; the repository is independent of the secret records and
// deliberately not transactionally tied to them.
type StatsRepository interface {
	// IncrementCreated bumps the global creation counters and, when
	// accountID is non-empty, the same counters scoped to the account.
	IncrementCreated(ctx context.Context, secretType SecretType, accountID string) error

	// IncrementViewed does the same for the view counters.
	IncrementViewed(ctx context.Context, secretType SecretType, accountID string) error

	// Get reads the counters back. An empty accountID returns the
	// global aggregate.
	Get(ctx context.Context, accountID string) (*Stats, error)
}

const (
	fieldSecretsTotal = "secrets_count:total"
	fieldViewsTotal   = "secrets_view_count:total"

	fieldSecretsPrefix = "secrets_count:"
	fieldViewsPrefix   = "secrets_view_count:"
)

type redisStatsRepository struct {
	rdb *redis.Client
}

// NewRedisStatsRepository builds a StatsRepository on redis hashes.
// HINCRBY guarantees no lost updates under concurrent increments.
func NewRedisStatsRepository(rdb *redis.Client) StatsRepository {
	return &redisStatsRepository{rdb: rdb}
}

func (r *redisStatsRepository) IncrementCreated(ctx context.Context, secretType SecretType, accountID string) error {
	return r.increment(ctx, fieldSecretsTotal, fieldSecretsPrefix+string(secretType), accountID)
}

func (r *redisStatsRepository) IncrementViewed(ctx context.Context, secretType SecretType, accountID string) error {
	return r.increment(ctx, fieldViewsTotal, fieldViewsPrefix+string(secretType), accountID)
}

func (r *redisStatsRepository) increment(ctx context.Context, totalField, typeField, accountID string) error {
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HIncrBy(ctx, statsKey(""), totalField, 1)
		pipe.HIncrBy(ctx, statsKey(""), typeField, 1)
		if accountID != "" {
			pipe.HIncrBy(ctx, statsKey(accountID), totalField, 1)
			pipe.HIncrBy(ctx, statsKey(accountID), typeField, 1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("increment stats: %w", err)
	}
	return nil
}

func (r *redisStatsRepository) Get(ctx context.Context, accountID string) (*Stats, error) {
	fields, err := r.rdb.HGetAll(ctx, statsKey(accountID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read stats: %w", err)
	}

	get := func(field string) int64 {
		n, _ := strconv.ParseInt(fields[field], 10, 64)
		return n
	}

	return &Stats{
		TotalSecretsCount: get(fieldSecretsTotal),
		SecretsCount: TypeCounters{
			Text:    get(fieldSecretsPrefix + string(SecretTypeText)),
			URL:     get(fieldSecretsPrefix + string(SecretTypeURL)),
			Neogram: get(fieldSecretsPrefix + string(SecretTypeNeogram)),
		},
		TotalSecretsViewCount: get(fieldViewsTotal),
		SecretsViewCount: TypeCounters{
			Text:    get(fieldViewsPrefix + string(SecretTypeText)),
			URL:     get(fieldViewsPrefix + string(SecretTypeURL)),
			Neogram: get(fieldViewsPrefix + string(SecretTypeNeogram)),
		},
	}, nil
}

func statsKey(accountID string) string {
	if accountID == "" {
		return "stats:global"
	}
	return "stats:account:" + accountID
}
