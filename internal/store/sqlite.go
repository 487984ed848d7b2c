package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
)

// SQLiteStore implements Store on the characteristics table.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore creates a store on an open, migrated database.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db, now: time.Now}
}

// Load retrieves the record for key.
func (s *SQLiteStore) Load(ctx context.Context, key string) (characteristic.Value, bool, error) {
	var kind, text string
	err := s.db.QueryRowContext(ctx,
		"SELECT kind, value FROM characteristics WHERE key = ?", key,
	).Scan(&kind, &text)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return characteristic.Value{}, false, nil
		}
		return characteristic.Value{}, false, fmt.Errorf("loading %s: %w", key, err)
	}

	v, err := decode(kind, text)
	if err != nil {
		return characteristic.Value{}, false, fmt.Errorf("%w: %s: %w", ErrCorruptRecord, key, err)
	}
	return v, true, nil
}

// Save upserts the record for key in a single statement.
func (s *SQLiteStore) Save(ctx context.Context, key string, v characteristic.Value) error {
	if !v.IsValid() {
		return fmt.Errorf("saving %s: %w", key, characteristic.ErrInvalidValue)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO characteristics (key, kind, value, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			kind = excluded.kind,
			value = excluded.value,
			updated_at = excluded.updated_at`,
		key, v.Kind().String(), v.String(), s.now().UTC().Format(timestampFormat),
	)
	if err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// List returns every record ordered by key. Rows that cannot be decoded
// are skipped.
func (s *SQLiteStore) List(ctx context.Context) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT key, kind, value, updated_at FROM characteristics ORDER BY key",
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var key, kind, text, updatedAt string
		if err := rows.Scan(&key, &kind, &text, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		v, err := decode(kind, text)
		if err != nil {
			continue
		}
		r := Record{Key: key, Value: v}
		r.UpdatedAt, _ = time.Parse(timestampFormat, updatedAt) //nolint:errcheck // Format is controlled
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

func decode(kind, text string) (characteristic.Value, error) {
	k, err := characteristic.ParseKind(kind)
	if err != nil {
		return characteristic.Value{}, err
	}
	return characteristic.Parse(k, text)
}
