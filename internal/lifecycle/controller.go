package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/looplab/fsm"
	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/clock"
	"github.com/nerrad567/gray-logic-powerstrip/internal/output"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

// DefaultSettleDelay is the pause after each factory reset step when
// Options.SettleDelay is zero.
const DefaultSettleDelay = time.Second

// Logger defines the logging interface used by the Controller.
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

// Resetter erases one kind of credential during a factory reset.
// provisioning.FileProvisioner and pairing.Manager satisfy it.
type Resetter interface {
	Reset(ctx context.Context) error
}

// Restarter restarts the device. On real hardware Restart does not return.
type Restarter interface {
	Restart(ctx context.Context, reason string) error
}

// Flusher writes pending state immediately. *persist.Scheduler satisfies it.
type Flusher interface {
	Flush(ctx context.Context)
}

// Hook runs once when the device gains connectivity.
type Hook func(ctx context.Context) error

// Observer is told about every state change. OnTransition is called
// without the controller's lock held.
type Observer interface {
	OnTransition(from, to State)
}

// RestartObserver is optionally implemented by an Observer that wants to
// hear about a previous session that ended without a recorded reason.
type RestartObserver interface {
	OnUnexpectedRestart(previous store.Session)
}

// Options wires a Controller to its collaborators.
type Options struct {
	Registry *characteristic.Registry
	Store    store.Store
	Sessions store.SessionLog
	Saver    Flusher

	// Indicator is the status LED. Optional.
	Indicator output.Port

	Provisioning Resetter
	Pairing      Resetter
	Restarter    Restarter

	Clock       clock.Clock
	SettleDelay time.Duration

	// PreserveKey names the bool entry gating state restore.
	PreserveKey string

	// ResetPattern and IdentifyPattern default to the standard codes.
	ResetPattern    output.Pattern
	IdentifyPattern output.Pattern
}

// Controller owns the accessory lifecycle. It boots the registry from the
// store, reacts to provisioning and pairing events and runs the factory
// reset sequence. Transitions go through a state machine built from
// transitionTable; the work for each state runs in its enter callback.
//
// All methods are thread-safe.
type Controller struct {
	opts    Options
	machine *fsm.FSM

	mu             sync.Mutex
	loaded         bool
	hooks          []Hook
	observers      []Observer
	resetting      bool
	identifyCancel context.CancelFunc
	identifyDone   chan struct{}

	logger   Logger
	loggerMu sync.RWMutex

	wg sync.WaitGroup
}

// New creates a Controller in the Booting state.
func New(opts Options) (*Controller, error) {
	var missing []string
	if opts.Registry == nil {
		missing = append(missing, "registry")
	}
	if opts.Store == nil {
		missing = append(missing, "store")
	}
	if opts.Sessions == nil {
		missing = append(missing, "sessions")
	}
	if opts.Restarter == nil {
		missing = append(missing, "restarter")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v", ErrMissingDependency, missing)
	}

	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = DefaultSettleDelay
	}
	if opts.ResetPattern == nil {
		opts.ResetPattern = output.FactoryResetPattern
	}
	if opts.IdentifyPattern == nil {
		opts.IdentifyPattern = output.IdentifyPattern
	}

	c := &Controller{
		opts:   opts,
		logger: noopLogger{},
	}
	c.machine = fsm.NewFSM(Booting.String(), transitionTable(), fsm.Callbacks{
		"leave_" + Booting.String():             c.leaveBooting,
		"enter_" + ProvisionedUnpaired.String(): c.enterProvisionedUnpaired,
		"enter_" + Paired.String():              c.enterPaired,
		"enter_" + FactoryResetting.String():    c.enterFactoryResetting,
		"enter_state":                           c.enterState,
	})
	return c, nil
}

// SetLogger sets the logger for the controller.
func (c *Controller) SetLogger(logger Logger) {
	c.loggerMu.Lock()
	c.logger = logger
	c.loggerMu.Unlock()
}

func (c *Controller) getLogger() Logger {
	c.loggerMu.RLock()
	defer c.loggerMu.RUnlock()
	return c.logger
}

// OnProvisioned registers a hook run when provisioning completes. Hooks
// run in registration order; a failing hook is logged and the rest still
// run. The context passed to a hook is only valid for the call.
func (c *Controller) OnProvisioned(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// AddObserver registers o for state changes.
func (c *Controller) AddObserver(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	return parseState(c.machine.Current())
}

// Boot moves Booting to AwaitingProvisioning. It drives every output to
// its default, opens a boot session, reports an unexpected previous
// restart and restores persisted state when preserve-state is on.
//
// Store failures are logged and leave defaults in place; Boot only fails
// when called twice.
func (c *Controller) Boot(ctx context.Context) error {
	return c.fire(ctx, evBoot)
}

// Provisioned moves AwaitingProvisioning to ProvisionedUnpaired and runs
// the connectivity hooks.
func (c *Controller) Provisioned(ctx context.Context) error {
	return c.fire(ctx, evProvisioned)
}

// Paired moves ProvisionedUnpaired to Paired. It restores persisted state
// if that has not happened yet this session, then pushes every value
// outward once. A pairing event while already Paired is ignored.
func (c *Controller) Paired(ctx context.Context) error {
	err := c.fire(ctx, evPaired)
	var same fsm.NoTransitionError
	if errors.As(err, &same) {
		c.getLogger().Debug("already paired")
		return nil
	}
	return err
}

// RequestFactoryReset starts the factory reset sequence in the background
// and returns immediately. The machine only accepts the request from a
// running state, so requests while booting or while a reset is already
// under way are absorbed. Once started the sequence cannot be cancelled.
func (c *Controller) RequestFactoryReset(reason string) {
	// A request racing Boot would otherwise queue behind it.
	if state := c.State(); state == Booting {
		c.getLogger().Debug("factory reset request ignored", "state", state.String(), "reason", reason)
		return
	}
	if err := c.machine.Event(context.Background(), evFactoryReset, reason); err != nil {
		c.getLogger().Debug("factory reset request ignored", "state", c.machine.Current(), "reason", reason, "error", err)
	}
}

// Identify blinks the identify code on the indicator. A request while a
// code is already playing, or during a factory reset, is ignored. A factory
// reset cuts a running identify short.
func (c *Controller) Identify() {
	if c.opts.Indicator == nil {
		return
	}

	c.mu.Lock()
	if c.resetting || c.identifyDone != nil {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.identifyCancel, c.identifyDone = cancel, done
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		err := output.Play(ctx, c.opts.Clock, c.opts.Indicator, c.opts.IdentifyPattern)

		c.mu.Lock()
		c.identifyCancel, c.identifyDone = nil, nil
		c.mu.Unlock()
		cancel()
		close(done)

		if err != nil && !errors.Is(err, context.Canceled) {
			c.getLogger().Warn("identify failed", "error", err)
		}
	}()
}

// Shutdown writes pending state and records a clean session end. During a
// factory reset only the pending state is written.
func (c *Controller) Shutdown(ctx context.Context) error {
	if c.opts.Saver != nil {
		c.opts.Saver.Flush(ctx)
	}
	if c.State() == FactoryResetting {
		return nil
	}
	if err := c.opts.Sessions.End(ctx, store.EndClean); err != nil {
		return fmt.Errorf("ending session: %w", err)
	}
	return nil
}

// Wait blocks until background identify and factory reset work finishes.
func (c *Controller) Wait() {
	c.wg.Wait()
}

// fire sends event to the machine. An event the current state does not
// accept is reported as ErrInvalidTransition.
func (c *Controller) fire(ctx context.Context, event string, args ...any) error {
	err := c.machine.Event(ctx, event, args...)
	var invalid fsm.InvalidEventError
	if errors.As(err, &invalid) {
		return fmt.Errorf("%w: %s in state %s", ErrInvalidTransition, event, invalid.State)
	}
	return err
}

// leaveBooting prepares the device before it leaves Booting. State still
// reads Booting while it runs.
func (c *Controller) leaveBooting(ctx context.Context, _ *fsm.Event) {
	c.opts.Registry.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // callback never fails
		tx.DriveAll()
		return nil
	})

	c.openSession(ctx)
	c.loadOnce(ctx)
}

func (c *Controller) enterProvisionedUnpaired(ctx context.Context, _ *fsm.Event) {
	c.mu.Lock()
	hooks := append([]Hook(nil), c.hooks...)
	c.mu.Unlock()

	for i, h := range hooks {
		if err := h(ctx); err != nil {
			c.getLogger().Error("connectivity hook failed", "hook", i, "error", err)
		}
	}
}

func (c *Controller) enterPaired(ctx context.Context, _ *fsm.Event) {
	c.loadOnce(ctx)
	c.opts.Registry.NotifyAll()
	c.getLogger().Info("controller paired, state published")
}

// enterFactoryResetting blocks further identify requests and starts the
// reset sequence in the background, after any running identify stops.
func (c *Controller) enterFactoryResetting(_ context.Context, e *fsm.Event) {
	reason := ""
	if len(e.Args) > 0 {
		reason, _ = e.Args[0].(string)
	}

	c.mu.Lock()
	c.resetting = true
	cancelIdentify, identifyDone := c.identifyCancel, c.identifyDone
	c.mu.Unlock()

	c.getLogger().Warn("factory reset requested", "reason", reason, "from", e.Src)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if cancelIdentify != nil {
			cancelIdentify()
			<-identifyDone
		}
		c.factoryReset(reason)
	}()
}

// enterState logs every transition and tells observers.
func (c *Controller) enterState(_ context.Context, e *fsm.Event) {
	c.getLogger().Info("lifecycle transition", "event", e.Event, "from", e.Src, "to", e.Dst)

	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()

	from, to := parseState(e.Src), parseState(e.Dst)
	for _, o := range observers {
		o.OnTransition(from, to)
	}
}

func (c *Controller) openSession(ctx context.Context) {
	logger := c.getLogger()
	prev, err := c.opts.Sessions.Begin(ctx)
	if err != nil {
		logger.Warn("recording boot session failed", "error", err)
		return
	}
	if prev == nil {
		logger.Info("first boot")
		return
	}
	if !prev.Unexpected() {
		logger.Info("previous session ended", "reason", prev.EndReason, "ended_at", prev.EndedAt)
		return
	}

	logger.Warn("previous session ended unexpectedly",
		"session", prev.ID,
		"started_at", prev.StartedAt,
		"reason", "unexpected",
	)
	c.mu.Lock()
	observers := append([]Observer(nil), c.observers...)
	c.mu.Unlock()
	for _, o := range observers {
		if ro, ok := o.(RestartObserver); ok {
			ro.OnUnexpectedRestart(*prev)
		}
	}
}

// loadOnce restores persisted state unless a previous attempt this session
// succeeded.
func (c *Controller) loadOnce(ctx context.Context) {
	c.mu.Lock()
	loaded := c.loaded
	c.mu.Unlock()
	if loaded {
		return
	}

	if err := c.load(ctx); err != nil {
		c.getLogger().Error("restoring state failed, keeping defaults", "error", err)
		return
	}

	c.mu.Lock()
	c.loaded = true
	c.mu.Unlock()
}

// load restores the preserve flag and, if it is on, every persisted
// entry. Without a saved flag the entry's current value decides, so a
// strip that never changed the setting restores with the default. Records
// for unknown or non-persisted keys are ignored, as are records whose kind
// no longer matches the entry.
func (c *Controller) load(ctx context.Context) error {
	logger := c.getLogger()
	key := c.opts.PreserveKey
	flag, found, err := c.opts.Store.Load(ctx, key)
	if err != nil {
		return fmt.Errorf("loading %s: %w", key, err)
	}

	var (
		preserve   bool
		restoreErr error
		lookupErr  error
	)
	c.opts.Registry.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // callback never fails
		if found {
			restoreErr = tx.Restore(key, flag)
		}
		v, err := tx.Get(key)
		lookupErr = err
		preserve = err == nil && v.Bool()
		return nil
	})
	if restoreErr != nil {
		logger.Warn("ignoring saved preserve flag", "key", key, "error", restoreErr)
	}
	if lookupErr != nil {
		logger.Warn("no preserve-state entry, using defaults", "key", key, "error", lookupErr)
		return nil
	}
	if !found {
		logger.Debug("no saved preserve flag, using current value", "key", key, "preserve", preserve)
	}
	if !preserve {
		logger.Info("preserve-state off, using defaults")
		return nil
	}

	records, err := c.opts.Store.List(ctx)
	if err != nil {
		return fmt.Errorf("listing saved state: %w", err)
	}

	persisted := make(map[string]bool)
	for _, info := range c.opts.Registry.Entries() {
		persisted[info.ID] = info.Persisted
	}

	restored := 0
	c.opts.Registry.Update(func(tx *characteristic.Tx) error { //nolint:errcheck // callback never fails
		for _, rec := range records {
			if rec.Key == key {
				continue
			}
			if !persisted[rec.Key] {
				logger.Debug("ignoring saved record", "key", rec.Key)
				continue
			}
			if err := tx.Restore(rec.Key, rec.Value); err != nil {
				if errors.Is(err, characteristic.ErrKindMismatch) {
					logger.Warn("ignoring saved record of wrong kind", "key", rec.Key, "error", err)
				}
				continue
			}
			restored++
		}
		return nil
	})

	logger.Info("state restored", "records", restored)
	return nil
}

// factoryReset runs the reset steps in order with a settling delay after
// each. Step failures are logged and the sequence carries on.
func (c *Controller) factoryReset(reason string) {
	ctx := context.Background()
	logger := c.getLogger()

	if c.opts.Indicator != nil {
		if err := output.Play(ctx, c.opts.Clock, c.opts.Indicator, c.opts.ResetPattern); err != nil {
			logger.Warn("reset indication failed", "error", err)
		}
	}
	c.settle(ctx)

	if c.opts.Provisioning != nil {
		if err := c.opts.Provisioning.Reset(ctx); err != nil {
			logger.Error("erasing provisioning credentials failed", "error", err)
		} else {
			logger.Info("provisioning credentials erased")
		}
	}
	c.settle(ctx)

	if c.opts.Pairing != nil {
		if err := c.opts.Pairing.Reset(ctx); err != nil {
			logger.Error("erasing pairings failed", "error", err)
		} else {
			logger.Info("pairings erased")
		}
	}
	c.settle(ctx)

	if err := c.opts.Sessions.End(ctx, store.EndFactoryReset); err != nil {
		logger.Warn("recording session end failed", "error", err)
	}
	logger.Warn("restarting after factory reset", "reason", reason)
	if err := c.opts.Restarter.Restart(ctx, reason); err != nil {
		logger.Error("restart failed", "error", err)
	}
}

func (c *Controller) settle(ctx context.Context) {
	c.opts.Clock.Sleep(ctx, c.opts.SettleDelay) //nolint:errcheck // background context never cancels
}
