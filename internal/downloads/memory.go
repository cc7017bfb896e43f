package downloads

import (
	"context"
	"sync"
	"time"

	"tailor-form/internal/logging"
)

type memoryEntry struct {
	blob    *Blob
	expires time.Time
}

// MemoryStore is an in-process Store with per-entry expiry
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
	logger  logging.Logger

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewMemoryStore starts a store whose janitor sweeps expired entries every
// cleanupInterval. A non-positive interval disables the janitor; expired
// entries are still never returned.
func NewMemoryStore(ttl, cleanupInterval time.Duration, logger logging.Logger) *MemoryStore {
	if logger == nil {
		logger = logging.Nop()
	}

	s := &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
		logger:  logger.WithField("component", "download_store"),
		stop:    make(chan struct{}),
	}

	if cleanupInterval > 0 {
		s.wg.Add(1)
		go s.janitor(cleanupInterval)
	}
	return s
}

func (s *MemoryStore) Put(ctx context.Context, id string, blob *Blob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if blob.CreatedAt.IsZero() {
		blob.CreatedAt = s.now()
	}
	s.entries[id] = memoryEntry{blob: blob, expires: s.now().Add(s.ttl)}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Blob, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || !s.now().Before(entry.expires) {
		return nil, ErrNotFound
	}
	return entry.blob, nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.entries, id)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Len reports how many entries are held, expired or not
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) janitor(interval time.Duration) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			if n := s.sweep(); n > 0 {
				s.logger.Debug("Expired downloads removed", map[string]interface{}{"count": n})
			}
		}
	}
}

// sweep drops expired entries and returns how many were removed
func (s *MemoryStore) sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if !now.Before(entry.expires) {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}
