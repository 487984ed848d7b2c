package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// MemoryStore is an in-memory Store. Saves can be made to fail, which
// makes it useful for exercising retry paths.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
	saves   int
	failErr error
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Load returns the record for key.
func (m *MemoryStore) Load(_ context.Context, key string) (characteristic.Value, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.records[key]
	return r.Value, ok, nil
}

// Save stores v under key unless a failure has been injected.
func (m *MemoryStore) Save(_ context.Context, key string, v characteristic.Value) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failErr != nil {
		return m.failErr
	}
	m.saves++
	m.records[key] = Record{Key: key, Value: v, UpdatedAt: time.Now()}
	return nil
}

// List returns every record ordered by key.
func (m *MemoryStore) List(_ context.Context) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Saves returns the number of successful saves.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}

// Fail makes subsequent saves return err. Fail(nil) clears it.
func (m *MemoryStore) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failErr = err
}
