package store

import "errors"

// Domain errors for the persistent store.
var (
	// ErrCorruptRecord is returned when a stored row cannot be decoded.
	ErrCorruptRecord = errors.New("store: corrupt record")

	// ErrNoSession is returned when ending a session that was never begun.
	ErrNoSession = errors.New("store: no active session")
)
