package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session end reasons.
const (
	EndClean        = "clean"
	EndFactoryReset = "factory_reset"
	EndRestart      = "restart"
)

// Session is one process run, from boot to shutdown.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   time.Time

	// EndReason is empty while the session is running or if the process
	// died without recording an end.
	EndReason string
}

// Unexpected reports whether the session ended without recording a reason.
func (s Session) Unexpected() bool {
	return s.EndReason == ""
}

// SessionLog tracks boot sessions so an unexpected restart can be reported
// on the next boot.
type SessionLog interface {
	// Begin opens a new session and returns the previous one, if any.
	Begin(ctx context.Context) (previous *Session, err error)

	// End records why the current session is ending.
	End(ctx context.Context, reason string) error
}

// SQLiteSessions implements SessionLog on the boot_sessions table.
type SQLiteSessions struct {
	db  *sql.DB
	now func() time.Time

	mu      sync.Mutex
	current string
}

// NewSQLiteSessions creates a session log on an open, migrated database.
func NewSQLiteSessions(db *sql.DB) *SQLiteSessions {
	return &SQLiteSessions{db: db, now: time.Now}
}

// Begin returns the most recent session and inserts a new one.
func (s *SQLiteSessions) Begin(ctx context.Context) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, err := s.latest(ctx)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO boot_sessions (id, started_at) VALUES (?, ?)",
		id, s.now().UTC().Format(timestampFormat),
	); err != nil {
		return nil, fmt.Errorf("recording session start: %w", err)
	}
	s.current = id
	return prev, nil
}

// End marks the current session as ended with reason.
func (s *SQLiteSessions) End(ctx context.Context, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.current == "" {
		return ErrNoSession
	}
	if _, err := s.db.ExecContext(ctx,
		"UPDATE boot_sessions SET ended_at = ?, end_reason = ? WHERE id = ?",
		s.now().UTC().Format(timestampFormat), reason, s.current,
	); err != nil {
		return fmt.Errorf("recording session end: %w", err)
	}
	return nil
}

// Recent returns up to limit sessions, newest first.
func (s *SQLiteSessions) Recent(ctx context.Context, limit int) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, ended_at, end_reason
		FROM boot_sessions
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}
	return sessions, nil
}

func (s *SQLiteSessions) latest(ctx context.Context) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, started_at, ended_at, end_reason
		FROM boot_sessions
		ORDER BY started_at DESC, rowid DESC
		LIMIT 1`)
	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sess, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (Session, error) {
	var (
		sess      Session
		startedAt string
		endedAt   sql.NullString
		reason    sql.NullString
	)
	if err := row.Scan(&sess.ID, &startedAt, &endedAt, &reason); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Session{}, err
		}
		return Session{}, fmt.Errorf("scanning session: %w", err)
	}
	sess.StartedAt, _ = time.Parse(timestampFormat, startedAt) //nolint:errcheck // Format is controlled
	if endedAt.Valid {
		sess.EndedAt, _ = time.Parse(timestampFormat, endedAt.String) //nolint:errcheck // Format is controlled
	}
	sess.EndReason = reason.String
	return sess, nil
}

// MemorySessions is an in-memory SessionLog.
type MemorySessions struct {
	mu       sync.Mutex
	sessions []Session
}

// NewMemorySessions returns a log seeded with previous sessions, oldest
// first.
func NewMemorySessions(previous ...Session) *MemorySessions {
	return &MemorySessions{sessions: previous}
}

// Begin returns the last session and appends a new one.
func (m *MemorySessions) Begin(_ context.Context) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var prev *Session
	if n := len(m.sessions); n > 0 {
		p := m.sessions[n-1]
		prev = &p
	}
	m.sessions = append(m.sessions, Session{ID: uuid.NewString(), StartedAt: time.Now()})
	return prev, nil
}

// End records reason on the current session.
func (m *MemorySessions) End(_ context.Context, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.sessions) == 0 {
		return ErrNoSession
	}
	cur := &m.sessions[len(m.sessions)-1]
	cur.EndReason = reason
	cur.EndedAt = time.Now()
	return nil
}

// Sessions returns a copy of every session, oldest first.
func (m *MemorySessions) Sessions() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Session(nil), m.sessions...)
}
