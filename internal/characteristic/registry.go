package characteristic

import (
	"errors"
	"fmt"
	"sync"
)

// Logger defines the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Notifier receives every committed value. Notify is called with the
// registry locked, so it must return promptly and must not call back into
// the Registry; implementations queue the value and deliver it elsewhere.
type Notifier interface {
	Notify(id string, v Value)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(id string, v Value)

// Notify calls f(id, v).
func (f NotifierFunc) Notify(id string, v Value) { f(id, v) }

// SaveScheduler is armed after a persisted entry changes.
type SaveScheduler interface {
	Arm()
}

// Registry is the single owner of every characteristic value.
//
// All reads and mutations are serialised by one mutex and run to
// completion: a mutation commits the value, drives the bound output,
// notifies outward and marks the entry dirty before any other mutation can
// observe the registry. This keeps outputs, in-memory values and the
// remote view in step.
//
// All public methods are thread-safe.
type Registry struct {
	mu        sync.Mutex
	entries   map[string]*entry
	order     []string
	notifiers []Notifier
	saver     SaveScheduler
	logger    Logger
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger = logger
}

// AddNotifier registers n to receive every notification.
func (r *Registry) AddNotifier(n Notifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifiers = append(r.notifiers, n)
}

// SetSaveScheduler sets the scheduler armed by persisted changes.
func (r *Registry) SetSaveScheduler(s SaveScheduler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saver = s
}

// Register adds an entry holding def.Default. The output is not driven;
// the lifecycle controller pushes values to outputs at boot.
func (r *Registry) Register(def Definition) error {
	if err := def.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[def.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateEntry, def.ID)
	}
	r.entries[def.ID] = &entry{def: def, value: def.Default}
	r.order = append(r.order, def.ID)
	return nil
}

// Entries describes every entry in registration order.
func (r *Registry) Entries() []Info {
	r.mu.Lock()
	defer r.mu.Unlock()

	infos := make([]Info, 0, len(r.order))
	for _, id := range r.order {
		infos = append(infos, r.entries[id].info())
	}
	return infos
}

// Get returns the current value of id.
func (r *Registry) Get(id string) (Value, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Value{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.value, nil
}

// Snapshot returns every value in registration order.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Snapshot, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, Snapshot{ID: id, Value: r.entries[id].value})
	}
	return out
}

// Set applies an externally driven write, such as a remote controller
// command. The entry's Setter runs first and may clamp or veto the value.
// A vetoed write leaves the entry unchanged and re-notifies the current
// value so the writer sees its write was not taken. Set returns the value
// left in place; errors are reserved for unknown IDs and wrong kinds.
func (r *Registry) Set(id string, proposed Value) (Value, error) {
	var stored Value
	err := r.Update(func(tx *Tx) error {
		e, err := tx.lookup(id)
		if err != nil {
			return err
		}
		if proposed.Kind() != e.def.Default.Kind() {
			return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, id, e.def.Default.Kind(), proposed.Kind())
		}

		final, err := r.runSetter(e, proposed)
		if err != nil {
			r.logger.Debug("write rejected", "id", id, "proposed", proposed.String(), "reason", err)
			stored = e.value
			r.notify(id, e.value)
			return nil
		}

		tx.commit(e, final)
		stored = final
		return nil
	})
	return stored, err
}

func (r *Registry) runSetter(e *entry, proposed Value) (Value, error) {
	if e.def.ReadOnly {
		return Value{}, fmt.Errorf("%w: %s is read-only", ErrVetoed, e.def.ID)
	}
	if e.def.Setter == nil {
		return proposed, nil
	}

	final, err := e.def.Setter(e.value, proposed)
	if err != nil {
		if !errors.Is(err, ErrVetoed) {
			r.logger.Warn("setter failed", "id", e.def.ID, "error", err)
		}
		return Value{}, err
	}
	if final.Kind() != e.def.Default.Kind() {
		r.logger.Error("setter returned wrong kind", "id", e.def.ID, "kind", final.Kind().String())
		return Value{}, fmt.Errorf("%w: setter for %s", ErrKindMismatch, e.def.ID)
	}
	return final, nil
}

// Notify re-sends the current value of id to every notifier.
func (r *Registry) Notify(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	r.notify(id, e.value)
	return nil
}

// NotifyAll sends every current value, in registration order.
func (r *Registry) NotifyAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, id := range r.order {
		r.notify(id, r.entries[id].value)
	}
}

// MarkDirty flags a persisted entry for the next save and arms the
// scheduler. It is a no-op for entries that are not persisted.
func (r *Registry) MarkDirty(id string) error {
	return r.Update(func(tx *Tx) error {
		e, err := tx.lookup(id)
		if err != nil {
			return err
		}
		tx.markDirty(e)
		return nil
	})
}

// Update runs fn with the registry locked. Every mutation fn makes through
// tx is applied immediately; there is no rollback if fn returns an error.
// If any persisted entry became dirty, the save scheduler is armed once
// after fn returns.
func (r *Registry) Update(fn func(tx *Tx) error) error {
	r.mu.Lock()
	tx := &Tx{r: r}
	err := fn(tx)
	saver, arm := r.saver, tx.arm
	r.mu.Unlock()

	if arm && saver != nil {
		saver.Arm()
	}
	return err
}

func (r *Registry) notify(id string, v Value) {
	for _, n := range r.notifiers {
		n.Notify(id, v)
	}
}

func (r *Registry) drive(e *entry) {
	if e.def.Output == nil {
		return
	}
	if err := e.def.Output.Write(e.value.Bool()); err != nil {
		// The value stays committed; the next write to this entry retries.
		r.logger.Error("output write failed", "id", e.def.ID, "on", e.value.Bool(), "error", err)
	}
}
