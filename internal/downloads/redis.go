package downloads

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"tailor-form/internal/config"
	"tailor-form/internal/logging"
)

const keyPrefix = "tailor:download:"

// RedisStore keeps downloads in Redis so any server replica can serve them
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewRedisStore creates a store from the redis section of the configuration
func NewRedisStore(cfg *config.Config, logger logging.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}

	opts.DialTimeout = 5 * time.Second
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second

	if logger == nil {
		logger = logging.Nop()
	}

	return &RedisStore{
		client: redis.NewClient(opts),
		ttl:    cfg.Downloads.TTL,
		logger: logger.WithField("component", "download_store"),
	}, nil
}

func (r *RedisStore) Put(ctx context.Context, id string, blob *Blob) error {
	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = time.Now()
	}

	payload, err := json.Marshal(blob)
	if err != nil {
		return fmt.Errorf("failed to marshal download: %w", err)
	}

	if err := r.client.Set(ctx, downloadKey(id), payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store download: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Blob, error) {
	payload, err := r.client.Get(ctx, downloadKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load download: %w", err)
	}

	var blob Blob
	if err := json.Unmarshal(payload, &blob); err != nil {
		return nil, fmt.Errorf("failed to unmarshal download: %w", err)
	}
	return &blob, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, downloadKey(id)).Err()
}

func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisStore) Close() error {
	return r.client.Close()
}

// downloadKey generates the Redis key for a download handle
func downloadKey(id string) string {
	return keyPrefix + id
}
