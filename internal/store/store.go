package store

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// Record is one persisted characteristic value.
type Record struct {
	Key       string
	Value     characteristic.Value
	UpdatedAt time.Time
}

// Store persists characteristic values by key.
//
// Implementations must write each record atomically: after a crash a key
// holds either its previous or its new value.
type Store interface {
	// Load returns the value stored under key. found is false, with a nil
	// error, when no record exists.
	Load(ctx context.Context, key string) (v characteristic.Value, found bool, err error)

	// Save writes v under key, replacing any previous record.
	Save(ctx context.Context, key string, v characteristic.Value) error

	// List returns every record ordered by key.
	List(ctx context.Context) ([]Record, error)
}

// timestampFormat is fixed-width so stored timestamps sort as text.
const timestampFormat = "2006-01-02T15:04:05.000000000Z07:00"
