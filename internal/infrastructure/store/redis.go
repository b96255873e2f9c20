package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/returns/backend/internal/domain/shared"
)

const (
	redisKeyPrefix = "returns:"

	// casRetries bounds optimistic retries under WATCH contention before
	// the update surfaces as TRANSACTION_ABORTED.
	casRetries = 8
)

// RedisConfig holds the Redis connection settings.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RedisStore implements Store on Redis. Documents live under
// "returns:{collection}:{id}"; every write publishes on the collection's
// change channel and subscribers re-read the full collection.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisStore connects and pings. Callers fall back to MemoryStore when
// this fails.
func NewRedisStore(cfg RedisConfig, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, logger: logger}, nil
}

// NewRedisStoreWithClient wraps an existing client. Useful for tests that
// share one connection.
func NewRedisStoreWithClient(client *redis.Client, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

func docKey(collection, id string) string {
	return redisKeyPrefix + collection + ":" + id
}

func changeChannel(collection string) string {
	return redisKeyPrefix + collection + ":changed"
}

func (s *RedisStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	val, err := s.client.Get(ctx, docKey(collection, id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return val, nil
}

func (s *RedisStore) List(ctx context.Context, collection string) (Snapshot, error) {
	prefix := redisKeyPrefix + collection + ":"
	snap := make(Snapshot)

	iter := s.client.Scan(ctx, 0, prefix+"*", 200).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", collection, err)
	}
	if len(keys) == 0 {
		return snap, nil
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget %s: %w", collection, err)
	}
	for i, val := range vals {
		str, ok := val.(string)
		if !ok {
			// Expired between SCAN and MGET.
			continue
		}
		snap[strings.TrimPrefix(keys[i], prefix)] = json.RawMessage(str)
	}
	return snap, nil
}

func (s *RedisStore) Set(ctx context.Context, collection, id string, doc any) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
	}
	if err := s.client.Set(ctx, docKey(collection, id), raw, 0).Err(); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, id, err)
	}
	s.publishChange(ctx, collection)
	return nil
}

func (s *RedisStore) Patch(ctx context.Context, collection, id string, fields map[string]any) error {
	err := s.AtomicUpdate(ctx, collection, id, func(current json.RawMessage) (any, error) {
		if current == nil {
			return nil, shared.ErrNotFound
		}
		merged, err := mergeFields(current, fields)
		if err != nil {
			return nil, err
		}
		return merged, nil
	})
	return err
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	if err := s.client.Del(ctx, docKey(collection, id)).Err(); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	s.publishChange(ctx, collection)
	return nil
}

func (s *RedisStore) AtomicUpdate(ctx context.Context, collection, id string, fn func(current json.RawMessage) (any, error)) error {
	key := docKey(collection, id)

	for attempt := 0; attempt < casRetries; attempt++ {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			current, err := tx.Get(ctx, key).Bytes()
			if errors.Is(err, redis.Nil) {
				current = nil
			} else if err != nil {
				return err
			}

			next, err := fn(current)
			if err != nil {
				return err
			}
			if next == nil {
				return nil
			}
			raw, ok := next.(json.RawMessage)
			if !ok {
				raw, err = json.Marshal(next)
				if err != nil {
					return fmt.Errorf("marshal %s/%s: %w", collection, id, err)
				}
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, []byte(raw), 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return err
		}
		s.publishChange(ctx, collection)
		return nil
	}
	return shared.ErrTransactionAborted
}

func (s *RedisStore) Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (Unsubscribe, error) {
	snap, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}
	fn(snap)

	pubsub := s.client.Subscribe(ctx, changeChannel(collection))
	subCtx, cancel := context.WithCancel(context.Background())

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				snap, err := s.List(subCtx, collection)
				if err != nil {
					s.logger.Warn("snapshot refresh failed",
						zap.String("collection", collection),
						zap.Error(err))
					continue
				}
				fn(snap)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			_ = pubsub.Close()
		})
	}, nil
}

// Close closes the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) publishChange(ctx context.Context, collection string) {
	if err := s.client.Publish(ctx, changeChannel(collection), "1").Err(); err != nil {
		s.logger.Warn("change publish failed",
			zap.String("collection", collection),
			zap.Error(err))
	}
}

var _ Store = (*RedisStore)(nil)
