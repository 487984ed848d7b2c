package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/clock"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

const preserveKey = "preserve-state"

type harness struct {
	reg   *characteristic.Registry
	store *store.MemoryStore
	clock *clock.Fake
	sched *Scheduler
}

func newHarness(t *testing.T, preserve bool) *harness {
	t.Helper()
	h := &harness{
		reg:   characteristic.NewRegistry(),
		store: store.NewMemoryStore(),
		clock: clock.NewFake(time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)),
	}
	h.sched = New(Options{
		Source:      h.reg,
		Store:       h.store,
		Clock:       h.clock,
		Delay:       time.Second,
		PreserveKey: preserveKey,
	})
	h.reg.SetSaveScheduler(h.sched)

	defs := []characteristic.Definition{
		{ID: "outlet-1", Default: characteristic.BoolValue(false), Persisted: true},
		{ID: "outlet-2", Default: characteristic.BoolValue(false), Persisted: true},
		{ID: "outlet-3", Default: characteristic.BoolValue(false), Persisted: true},
		{ID: preserveKey, Default: characteristic.BoolValue(preserve), Persisted: true},
		{ID: "ota-trigger", Default: characteristic.BoolValue(false)},
	}
	for _, d := range defs {
		if err := h.reg.Register(d); err != nil {
			t.Fatalf("Register(%s) error = %v", d.ID, err)
		}
	}
	return h
}

func (h *harness) set(t *testing.T, id string, v characteristic.Value) {
	t.Helper()
	if _, err := h.reg.Set(id, v); err != nil {
		t.Fatalf("Set(%s) error = %v", id, err)
	}
}

func TestScheduler_CoalescesArms(t *testing.T) {
	h := newHarness(t, true)

	// Five changes, each inside the window of the previous one.
	h.set(t, "outlet-1", characteristic.BoolValue(true))
	h.clock.Advance(500 * time.Millisecond)
	h.set(t, "outlet-2", characteristic.BoolValue(true))
	h.clock.Advance(500 * time.Millisecond)
	h.set(t, "outlet-1", characteristic.BoolValue(false))
	h.clock.Advance(900 * time.Millisecond)
	h.set(t, "outlet-1", characteristic.BoolValue(true))
	h.clock.Advance(900 * time.Millisecond)
	h.set(t, "ota-trigger", characteristic.BoolValue(true)) // not persisted, no arm

	if h.sched.Flushes() != 0 {
		t.Fatalf("flushed early: %d", h.sched.Flushes())
	}
	if !h.sched.Pending() {
		t.Fatal("Pending() = false while changes are waiting")
	}

	h.clock.Advance(100 * time.Millisecond)

	if h.sched.Flushes() != 1 {
		t.Fatalf("Flushes() = %d, want 1", h.sched.Flushes())
	}
	if h.store.Saves() != 2 {
		t.Errorf("Saves() = %d, want 2 (outlet-1 and outlet-2)", h.store.Saves())
	}
	for id, want := range map[string]bool{"outlet-1": true, "outlet-2": true} {
		v, found, _ := h.store.Load(context.Background(), id)
		if !found || v.Bool() != want {
			t.Errorf("stored %s = %v (found %v), want %v", id, v, found, want)
		}
	}
	if _, found, _ := h.store.Load(context.Background(), "outlet-3"); found {
		t.Error("clean entry outlet-3 was written")
	}
	if h.sched.Pending() {
		t.Error("Pending() = true after flush")
	}
}

func TestScheduler_PreserveDisabled(t *testing.T) {
	h := newHarness(t, false)

	h.set(t, "outlet-1", characteristic.BoolValue(true))
	h.set(t, preserveKey, characteristic.BoolValue(false))
	h.clock.Advance(time.Second)

	if _, found, _ := h.store.Load(context.Background(), "outlet-1"); found {
		t.Error("outlet written while preserve-state is off")
	}
	v, found, _ := h.store.Load(context.Background(), preserveKey)
	if !found || v.Bool() {
		t.Errorf("preserve-state stored = %v (found %v), want false", v, found)
	}

	// The outlet's dirty flag was cleared, so enabling preservation later
	// does not resurrect the old change.
	h.set(t, preserveKey, characteristic.BoolValue(true))
	h.clock.Advance(time.Second)
	if _, found, _ := h.store.Load(context.Background(), "outlet-1"); found {
		t.Error("stale outlet change written after preserve-state was enabled")
	}
}

func TestScheduler_FailedSaveRetriedOnNextArm(t *testing.T) {
	h := newHarness(t, true)
	h.store.Fail(errors.New("flash busy"))

	h.set(t, "outlet-1", characteristic.BoolValue(true))
	h.clock.Advance(time.Second)

	if h.sched.Flushes() != 1 {
		t.Fatalf("Flushes() = %d, want 1", h.sched.Flushes())
	}
	if h.sched.Pending() {
		t.Fatal("failed save re-armed the scheduler")
	}

	// Nothing happens without a new change.
	h.store.Fail(nil)
	h.clock.Advance(time.Minute)
	if h.store.Saves() != 0 {
		t.Fatalf("Saves() = %d before next arm, want 0", h.store.Saves())
	}

	h.set(t, "outlet-2", characteristic.BoolValue(true))
	h.clock.Advance(time.Second)

	for _, id := range []string{"outlet-1", "outlet-2"} {
		if v, found, _ := h.store.Load(context.Background(), id); !found || !v.Bool() {
			t.Errorf("%s not saved on retry", id)
		}
	}
}

func TestScheduler_FlushAndStop(t *testing.T) {
	h := newHarness(t, true)

	h.set(t, "outlet-3", characteristic.BoolValue(true))
	h.sched.Flush(context.Background())

	if h.sched.Pending() {
		t.Error("Pending() = true after Flush")
	}
	if v, found, _ := h.store.Load(context.Background(), "outlet-3"); !found || !v.Bool() {
		t.Error("Flush did not write outlet-3")
	}

	// The cancelled timer must not flush again.
	h.clock.Advance(time.Second)
	if h.sched.Flushes() != 1 {
		t.Errorf("Flushes() = %d, want 1", h.sched.Flushes())
	}

	h.sched.Stop()
	h.set(t, "outlet-3", characteristic.BoolValue(false))
	if h.sched.Pending() {
		t.Error("Arm after Stop scheduled a flush")
	}
}

func TestScheduler_SetLoggerWhileFlushing(t *testing.T) {
	h := newHarness(t, true)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			h.sched.SetLogger(noopLogger{})
		}()
		go func(on bool) {
			defer wg.Done()
			h.reg.Set("outlet-1", characteristic.BoolValue(on)) //nolint:errcheck // Only the race matters
			h.sched.Flush(context.Background())
		}(i%2 == 0)
	}
	wg.Wait()

	if h.sched.Flushes() != 4 {
		t.Errorf("Flushes() = %d, want 4", h.sched.Flushes())
	}
}
