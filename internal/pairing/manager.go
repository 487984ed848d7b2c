package pairing

import (
	"context"
	"crypto/subtle"
	"strings"
)

// Manager admits controllers that know the setup code.
type Manager struct {
	store     Store
	setupCode string
}

// NewManager creates a Manager checking against setupCode.
func NewManager(store Store, setupCode string) *Manager {
	return &Manager{store: store, setupCode: setupCode}
}

// Pair records controllerID if code matches the setup code. Dashes and
// surrounding spaces in code are ignored.
func (m *Manager) Pair(ctx context.Context, controllerID, code string) error {
	if strings.TrimSpace(controllerID) == "" {
		return ErrInvalidController
	}
	if subtle.ConstantTimeCompare([]byte(normalise(code)), []byte(normalise(m.setupCode))) != 1 {
		return ErrInvalidSetupCode
	}
	return m.store.Add(ctx, controllerID)
}

// IsPaired reports whether any controller is paired.
func (m *Manager) IsPaired(ctx context.Context) (bool, error) {
	pairings, err := m.store.List(ctx)
	if err != nil {
		return false, err
	}
	return len(pairings) > 0, nil
}

// List returns every pairing.
func (m *Manager) List(ctx context.Context) ([]Pairing, error) {
	return m.store.List(ctx)
}

// Reset forgets every controller.
func (m *Manager) Reset(ctx context.Context) error {
	return m.store.Reset(ctx)
}

func normalise(code string) string {
	return strings.ReplaceAll(strings.TrimSpace(code), "-", "")
}
