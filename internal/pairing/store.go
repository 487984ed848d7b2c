package pairing

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Pairing is a controller allowed to operate the strip.
type Pairing struct {
	ControllerID string
	PairedAt     time.Time
}

// Store persists pairings.
type Store interface {
	Add(ctx context.Context, controllerID string) error
	List(ctx context.Context) ([]Pairing, error)
	Reset(ctx context.Context) error
}

// SQLiteStore implements Store on the pairings table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a pairing store on an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Add records controllerID. Re-pairing a known controller refreshes its
// timestamp.
func (s *SQLiteStore) Add(ctx context.Context, controllerID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO pairings (controller_id, paired_at) VALUES (?, ?)
		ON CONFLICT(controller_id) DO UPDATE SET paired_at = excluded.paired_at`,
		controllerID, s.now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("adding pairing %s: %w", controllerID, err)
	}
	return nil
}

// List returns every pairing, oldest first.
func (s *SQLiteStore) List(ctx context.Context) ([]Pairing, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT controller_id, paired_at FROM pairings ORDER BY paired_at, controller_id",
	)
	if err != nil {
		return nil, fmt.Errorf("listing pairings: %w", err)
	}
	defer rows.Close()

	var out []Pairing
	for rows.Next() {
		var p Pairing
		var pairedAt string
		if err := rows.Scan(&p.ControllerID, &pairedAt); err != nil {
			return nil, fmt.Errorf("scanning pairing: %w", err)
		}
		p.PairedAt, _ = time.Parse(time.RFC3339, pairedAt) //nolint:errcheck // Format is controlled
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating pairings: %w", err)
	}
	return out, nil
}

// Reset removes every pairing.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM pairings"); err != nil {
		return fmt.Errorf("clearing pairings: %w", err)
	}
	return nil
}

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu       sync.Mutex
	pairings map[string]time.Time
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pairings: make(map[string]time.Time)}
}

// Add records controllerID.
func (m *MemoryStore) Add(_ context.Context, controllerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairings[controllerID] = time.Now()
	return nil
}

// List returns every pairing ordered by controller ID.
func (m *MemoryStore) List(_ context.Context) ([]Pairing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Pairing, 0, len(m.pairings))
	for id, at := range m.pairings {
		out = append(out, Pairing{ControllerID: id, PairedAt: at})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ControllerID < out[j].ControllerID })
	return out, nil
}

// Reset removes every pairing.
func (m *MemoryStore) Reset(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairings = make(map[string]time.Time)
	return nil
}
