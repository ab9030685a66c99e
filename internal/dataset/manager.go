package dataset

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/crewlens/crewlens/config"
	"github.com/google/uuid"
)

// Handle pairs a loaded dataset with metadata for TTL eviction. Datasets are
// immutable, so handles need no data lock; the mutex guards TTL bookkeeping.
type Handle struct {
	ID        string
	Dataset   *Dataset
	LoadedAt  time.Time
	ExpiresAt time.Time
	mu        sync.RWMutex
}

// Expired reports whether the handle has reached its TTL.
func (h *Handle) Expired(now time.Time) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return now.After(h.ExpiresAt)
}

// DatasetGate coordinates capacity for open dataset handles
// (backed by runtime.Controller).
type DatasetGate interface {
	AcquireDataset(ctx context.Context) error
	ReleaseDataset()
}

// ErrHandleNotFound indicates an unknown or expired handle ID.
var ErrHandleNotFound = errors.New("dataset: handle not found")

// Manager is a TTL-bearing cache of loaded dataset handles with capacity
// gating and periodic eviction.
type Manager struct {
	mu           sync.RWMutex
	handles      map[string]*Handle
	ttl          time.Duration
	cleanupEvery time.Duration
	clock        func() time.Time
	gate         DatasetGate
	stopCh       chan struct{}
	cleanupWG    sync.WaitGroup
}

// NewManager constructs a lifecycle manager. Pass ttl or cleanupEvery <= 0 to
// use defaults from config. Gate can be nil for tests; clock defaults to
// time.Now when nil.
func NewManager(ttl, cleanupEvery time.Duration, gate DatasetGate, clock func() time.Time) *Manager {
	if ttl <= 0 {
		ttl = config.DefaultDatasetIdleTTL
	}
	if cleanupEvery <= 0 {
		cleanupEvery = config.DefaultDatasetCleanupPeriod
	}
	if clock == nil {
		clock = time.Now
	}
	return &Manager{
		handles:      make(map[string]*Handle),
		ttl:          ttl,
		cleanupEvery: cleanupEvery,
		clock:        clock,
		gate:         gate,
		stopCh:       make(chan struct{}),
	}
}

// Start launches periodic eviction of expired handles.
func (m *Manager) Start() {
	m.cleanupWG.Add(1)
	ticker := time.NewTicker(m.cleanupEvery)
	go func() {
		defer m.cleanupWG.Done()
		defer ticker.Stop()
		for {
			select {
			case <-m.stopCh:
				return
			case <-ticker.C:
				m.EvictExpired()
			}
		}
	}()
}

// Close stops background cleanup and drops all handles.
func (m *Manager) Close(ctx context.Context) error {
	close(m.stopCh)
	done := make(chan struct{})
	go func() { m.cleanupWG.Wait(); close(done) }()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.handles {
		delete(m.handles, id)
		if m.gate != nil {
			m.gate.ReleaseDataset()
		}
	}
	return nil
}

// Adopt registers a loaded dataset as a managed handle and returns its ID.
// The manager enforces open-dataset capacity via the gate when provided.
func (m *Manager) Adopt(ctx context.Context, ds *Dataset) (string, error) {
	if ds == nil {
		return "", errors.New("dataset: nil dataset")
	}
	if m.gate != nil {
		if err := m.gate.AcquireDataset(ctx); err != nil {
			return "", err
		}
	}

	id := ds.ID
	if id == "" {
		id = uuid.NewString()
		ds.ID = id
	}
	loadedAt := m.clock()
	h := &Handle{
		ID:        id,
		Dataset:   ds,
		LoadedAt:  loadedAt,
		ExpiresAt: loadedAt.Add(m.ttl),
	}

	m.mu.Lock()
	m.handles[id] = h
	m.mu.Unlock()
	return id, nil
}

// Get returns the dataset when present and refreshes its handle TTL.
func (m *Manager) Get(id string) (*Dataset, bool) {
	m.mu.RLock()
	h, ok := m.handles[id]
	m.mu.RUnlock()
	if !ok {
		return nil, false
	}
	// Refresh TTL on access (idle timeout semantics)
	now := m.clock()
	h.mu.Lock()
	h.ExpiresAt = now.Add(m.ttl)
	h.mu.Unlock()
	return h.Dataset, true
}

// CloseHandle removes a handle by ID, releasing capacity via the gate.
func (m *Manager) CloseHandle(id string) error {
	m.mu.Lock()
	_, ok := m.handles[id]
	if ok {
		delete(m.handles, id)
	}
	m.mu.Unlock()
	if !ok {
		return ErrHandleNotFound
	}
	if m.gate != nil {
		m.gate.ReleaseDataset()
	}
	return nil
}

// EvictExpired drops handles past their TTL.
func (m *Manager) EvictExpired() {
	now := m.clock()
	var expiredIDs []string

	m.mu.RLock()
	for id, h := range m.handles {
		if h.Expired(now) {
			expiredIDs = append(expiredIDs, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expiredIDs {
		m.mu.Lock()
		delete(m.handles, id)
		m.mu.Unlock()
		if m.gate != nil {
			m.gate.ReleaseDataset()
		}
	}
}

// Count returns the current number of cached handles.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.handles)
}
