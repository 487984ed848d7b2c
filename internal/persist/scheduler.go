package persist

import (
	"context"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/clock"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

// DefaultDelay is the quiet period used when Options.Delay is zero.
const DefaultDelay = time.Second

// saveTimeout bounds one flush's writes.
const saveTimeout = 10 * time.Second

// Logger defines the logging interface used by the Scheduler.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Source is where dirty values come from. *characteristic.Registry
// satisfies it.
type Source interface {
	Update(fn func(tx *characteristic.Tx) error) error
}

// Options configures a Scheduler.
type Options struct {
	Source Source
	Store  store.Store
	Clock  clock.Clock
	Delay  time.Duration

	// PreserveKey names the bool entry that enables persistence. While it
	// is false, only that entry itself is written.
	PreserveKey string
}

// Scheduler coalesces bursts of changes into one write. Every Arm restarts
// the delay; when it expires without another Arm, the dirty entries are
// drained from the Source and saved.
//
// All methods are thread-safe.
type Scheduler struct {
	source      Source
	store       store.Store
	clock       clock.Clock
	delay       time.Duration
	preserveKey string

	logger   Logger
	loggerMu sync.RWMutex

	mu      sync.Mutex
	timer   clock.Timer
	gen     uint64
	stopped bool

	// flushMu serialises flushes so two writes of one key never interleave.
	flushMu sync.Mutex
	flushes int
}

// New creates a Scheduler. It is idle until the first Arm.
func New(opts Options) *Scheduler {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Delay <= 0 {
		opts.Delay = DefaultDelay
	}
	return &Scheduler{
		source:      opts.Source,
		store:       opts.Store,
		clock:       opts.Clock,
		delay:       opts.Delay,
		preserveKey: opts.PreserveKey,
		logger:      noopLogger{},
	}
}

// SetLogger sets the logger for the scheduler.
func (s *Scheduler) SetLogger(logger Logger) {
	s.loggerMu.Lock()
	s.logger = logger
	s.loggerMu.Unlock()
}

func (s *Scheduler) getLogger() Logger {
	s.loggerMu.RLock()
	defer s.loggerMu.RUnlock()
	return s.logger
}

// Arm (re)starts the delay. The last Arm wins: N arms inside one window
// produce exactly one flush, delay after the last of them.
func (s *Scheduler) Arm() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = s.clock.AfterFunc(s.delay, func() { s.fire(gen) })
}

// Pending reports whether a flush is scheduled.
func (s *Scheduler) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timer != nil
}

// Flushes returns the number of flushes performed so far.
func (s *Scheduler) Flushes() int {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()
	return s.flushes
}

// Flush cancels any pending timer and writes dirty entries now.
func (s *Scheduler) Flush(ctx context.Context) {
	s.mu.Lock()
	s.cancelLocked()
	s.mu.Unlock()

	s.flush(ctx)
}

// Stop cancels any pending flush and ignores later arms. Dirty entries
// stay dirty; call Flush first to keep them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked()
	s.stopped = true
}

func (s *Scheduler) cancelLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.gen++
}

func (s *Scheduler) fire(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		// Superseded by a later Arm or cancelled.
		s.mu.Unlock()
		return
	}
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	s.flush(ctx)
}

// flush drains dirty entries under the registry lock and writes them
// without it. Failed keys are requeued and wait for the next Arm.
func (s *Scheduler) flush(ctx context.Context) {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	var (
		dirty    []characteristic.Snapshot
		preserve bool
	)
	s.source.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // callback never fails
		if v, err := tx.Get(s.preserveKey); err == nil {
			preserve = v.Bool()
		}
		dirty = tx.DrainDirty()
		return nil
	})

	s.flushes++
	if len(dirty) == 0 {
		return
	}

	logger := s.getLogger()
	var failed []string
	written := 0
	for _, snap := range dirty {
		if !preserve && snap.ID != s.preserveKey {
			continue
		}
		if err := s.store.Save(ctx, snap.ID, snap.Value); err != nil {
			logger.Error("saving state failed", "key", snap.ID, "error", err)
			failed = append(failed, snap.ID)
			continue
		}
		written++
	}

	if len(failed) > 0 {
		s.source.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // callback never fails
			for _, id := range failed {
				tx.Requeue(id)
			}
			return nil
		})
	}

	logger.Debug("state flushed",
		"dirty", len(dirty),
		"written", written,
		"failed", len(failed),
		"preserve", preserve,
	)
}
