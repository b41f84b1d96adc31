package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/leefowlercu/chunkalyze/internal/metrics"
)

// DefaultInstanceTTL is how long instances are kept after their last update.
const DefaultInstanceTTL = 24 * time.Hour

// Store persists instance state.
type Store interface {
	// Save creates or replaces an instance.
	Save(ctx context.Context, inst *Instance) error

	// Get returns the instance or ErrInstanceNotFound.
	Get(ctx context.Context, id string) (*Instance, error)

	// Counts returns the number of stored instances per status.
	Counts(ctx context.Context) (map[RuntimeStatus]int, error)

	// Close releases store resources.
	Close() error
}

type memoryEntry struct {
	instance  *Instance
	expiresAt time.Time
}

// MemoryStore keeps instances in process memory. Entries expire ttl after
// their last save.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultInstanceTTL
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *MemoryStore) Save(ctx context.Context, inst *Instance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[inst.ID] = memoryEntry{
		instance:  inst.clone(),
		expiresAt: s.now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Instance, error) {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()

	if !ok || s.now().After(e.expiresAt) {
		return nil, ErrInstanceNotFound
	}
	return e.instance.clone(), nil
}

// Counts also evicts expired entries.
func (s *MemoryStore) Counts(ctx context.Context) (map[RuntimeStatus]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	counts := make(map[RuntimeStatus]int)
	for id, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, id)
			continue
		}
		counts[e.instance.RuntimeStatus]++
	}
	return counts, nil
}

func (s *MemoryStore) Close() error {
	return nil
}

// StoreMetrics publishes per-status instance counts as gauges.
type StoreMetrics struct {
	store Store
}

// NewStoreMetrics creates a metrics provider over store.
func NewStoreMetrics(store Store) *StoreMetrics {
	return &StoreMetrics{store: store}
}

// CollectMetrics implements metrics.MetricsProvider.
func (m *StoreMetrics) CollectMetrics(ctx context.Context) error {
	counts, err := m.store.Counts(ctx)
	if err != nil {
		return err
	}
	byName := make(map[string]int, len(Statuses()))
	for _, s := range Statuses() {
		byName[string(s)] = counts[s]
	}
	metrics.UpdateInstanceMetrics(byName)
	return nil
}
