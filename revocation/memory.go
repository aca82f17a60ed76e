package revocation

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"
)

// DefaultMaxSize bounds a MemoryStore created with a zero MaxSize.
const DefaultMaxSize = 10000

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// MaxSize is the number of ids kept before the soonest-expiring ones are evicted
	MaxSize int `yaml:"max_size" json:"max_size"`

	// CleanupInterval, when positive, starts a goroutine that drops expired ids
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval"`

	Clock  func() time.Time `yaml:"-" json:"-"`
	Logger *slog.Logger     `yaml:"-" json:"-"`
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	ids     map[string]time.Time
	maxSize int
	now     func() time.Time
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool

	stop chan struct{}
	wg   sync.WaitGroup
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates a MemoryStore. Call Close to stop its cleanup
// goroutine.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = DefaultMaxSize
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	m := &MemoryStore{
		ids:     make(map[string]time.Time, min(cfg.MaxSize, 1024)),
		maxSize: cfg.MaxSize,
		now:     cfg.Clock,
		logger:  cfg.Logger,
		stop:    make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		m.wg.Add(1)
		go m.cleanupLoop(cfg.CleanupInterval)
	}
	return m
}

func (m *MemoryStore) Add(_ context.Context, id string, expiresAt time.Time) error {
	if id == "" {
		return ErrEmptyID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}

	if prev, ok := m.ids[id]; ok {
		if expiresAt.After(prev) {
			m.ids[id] = expiresAt
		}
		return nil
	}

	if len(m.ids) >= m.maxSize {
		m.removeExpiredLocked(m.now())
		if len(m.ids) >= m.maxSize {
			m.evictLocked(max(m.maxSize/10, 1))
		}
	}

	m.ids[id] = expiresAt
	return nil
}

func (m *MemoryStore) Contains(_ context.Context, id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return false, ErrStoreClosed
	}

	expiresAt, ok := m.ids[id]
	if !ok {
		return false, nil
	}
	// Expired entries stay until the next cleanup; they no longer count.
	return !m.now().After(expiresAt), nil
}

func (m *MemoryStore) Remove(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	delete(m.ids, id)
	return nil
}

// Cleanup drops expired ids and returns how many were removed.
func (m *MemoryStore) Cleanup() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return 0, ErrStoreClosed
	}
	return m.removeExpiredLocked(m.now()), nil
}

// Len returns the number of stored ids, expired ones included.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	m.ids = nil
	m.mu.Unlock()

	close(m.stop)
	m.wg.Wait()
	return nil
}

func (m *MemoryStore) cleanupLoop(interval time.Duration) {
	defer m.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			n, err := m.Cleanup()
			if err != nil {
				return
			}
			if n > 0 {
				m.logger.Debug("revocation cleanup", slog.Int("removed", n))
			}
		case <-m.stop:
			return
		}
	}
}

func (m *MemoryStore) removeExpiredLocked(now time.Time) int {
	removed := 0
	for id, expiresAt := range m.ids {
		if now.After(expiresAt) {
			delete(m.ids, id)
			removed++
		}
	}
	return removed
}

// evictLocked drops the count ids that expire soonest.
func (m *MemoryStore) evictLocked(count int) {
	type entry struct {
		id        string
		expiresAt time.Time
	}

	entries := make([]entry, 0, len(m.ids))
	for id, expiresAt := range m.ids {
		entries = append(entries, entry{id, expiresAt})
	}
	slices.SortFunc(entries, func(a, b entry) int {
		return a.expiresAt.Compare(b.expiresAt)
	})

	for _, e := range entries[:min(count, len(entries))] {
		delete(m.ids, e.id)
	}
	m.logger.Debug("revocation store full, evicted entries", slog.Int("evicted", min(count, len(entries))))
}
