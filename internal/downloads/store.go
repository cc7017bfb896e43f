package downloads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tailor-form/internal/config"
	"tailor-form/internal/logging"
)

// ErrNotFound is returned for unknown or expired download handles
var ErrNotFound = errors.New("download not found or expired")

// Blob is a tailored document held until its handle expires
type Blob struct {
	Name        string    `json:"name"`
	ContentType string    `json:"content_type"`
	Data        []byte    `json:"data"`
	CreatedAt   time.Time `json:"created_at"`
}

// Store keeps tailored documents addressable by an opaque ID
type Store interface {
	Put(ctx context.Context, id string, blob *Blob) error
	Get(ctx context.Context, id string) (*Blob, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
	Close() error
}

// NewStore builds the store selected by downloads.store
func NewStore(cfg *config.Config, logger logging.Logger) (Store, error) {
	if logger == nil {
		logger = logging.Nop()
	}

	switch cfg.Downloads.Store {
	case "", "memory":
		return NewMemoryStore(cfg.Downloads.TTL, cfg.Downloads.CleanupInterval, logger), nil
	case "redis":
		store, err := NewRedisStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Redis.Timeout)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, fmt.Errorf("redis download store unreachable: %w", err)
		}
		return store, nil
	case "spaces":
		store, err := NewSpacesStore(cfg, logger)
		if err != nil {
			return nil, err
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			return nil, fmt.Errorf("spaces download store unreachable: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported download store: %s", cfg.Downloads.Store)
	}
}
