package customer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/KOMKZ/yogan-market/retry"
	"github.com/redis/go-redis/v9"
)

const defaultTxAttempts = 10

// RedisRepository stores one JSON document per customer and updates it
// through WATCH/MULTI optimistic transactions.
type RedisRepository struct {
	client     redis.UniversalClient
	keyPrefix  string
	txAttempts int
}

// RedisOption configures a RedisRepository
type RedisOption func(*RedisRepository)

// WithTxAttempts bounds retries of a conflicting transaction
func WithTxAttempts(n int) RedisOption {
	return func(r *RedisRepository) {
		if n > 0 {
			r.txAttempts = n
		}
	}
}

// NewRedisRepository keys documents as <keyPrefix>customer:<userID>
func NewRedisRepository(client redis.UniversalClient, keyPrefix string, opts ...RedisOption) *RedisRepository {
	r := &RedisRepository{
		client:     client,
		keyPrefix:  keyPrefix,
		txAttempts: defaultTxAttempts,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *RedisRepository) key(userID string) string {
	return r.keyPrefix + "customer:" + userID
}

// Get loads the profile of userID
func (r *RedisRepository) Get(ctx context.Context, userID string) (*Profile, error) {
	return load(ctx, r.client, r.key(userID))
}

// Update reads, mutates and writes the document inside a WATCH transaction,
// retrying when another writer touched the key in between.
func (r *RedisRepository) Update(ctx context.Context, userID string, fn MutateFunc) (*Profile, error) {
	key := r.key(userID)

	updated, err := retry.DoWithData(ctx, func() (*Profile, error) {
		var result *Profile
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			p, err := load(ctx, tx, key)
			if errors.Is(err, ErrNotFound) {
				p = newProfile(userID)
			} else if err != nil {
				return err
			}

			if err := fn(p); err != nil {
				return err
			}
			p.UpdatedAt = time.Now().UTC()

			data, err := json.Marshal(p)
			if err != nil {
				return fmt.Errorf("encode profile: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, data, 0)
				return nil
			})
			if err != nil {
				return err
			}
			result = p
			return nil
		}, key)
		return result, err
	},
		retry.MaxAttempts(r.txAttempts),
		retry.Backoff(retry.ExponentialBackoff(5*time.Millisecond, retry.WithMaxDelay(100*time.Millisecond), retry.WithJitter(0.2))),
		retry.Condition(retry.ConditionFunc(func(err error, attempt int) bool {
			return errors.Is(err, redis.TxFailedErr)
		})),
	)
	if err != nil {
		var multi *retry.MultiError
		if errors.As(err, &multi) {
			return nil, multi.Last()
		}
		return nil, err
	}
	return updated, nil
}

func load(ctx context.Context, c redis.Cmdable, key string) (*Profile, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode profile %s: %w", key, err)
	}
	return &p, nil
}
