package gesture

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/output"
)

type recorder struct {
	mu      sync.Mutex
	ids     []string
	arms    int
	resets  []string
	idented int
}

func (r *recorder) Notify(id string, _ characteristic.Value) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = append(r.ids, id)
}

func (r *recorder) Arm() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.arms++
}

func (r *recorder) RequestFactoryReset(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resets = append(r.resets, reason)
}

func (r *recorder) Identify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.idented++
}

type strip struct {
	reg    *characteristic.Registry
	relays []*output.Relay
	rec    *recorder
	disp   *Dispatcher
}

func newStrip(t *testing.T, initial ...bool) *strip {
	t.Helper()
	s := &strip{reg: characteristic.NewRegistry(), rec: &recorder{}}
	driver := output.NewMemoryDriver()

	for i, on := range initial {
		id := []string{"outlet-1", "outlet-2", "outlet-3", "outlet-usb"}[i]
		relay, err := driver.Open(id, 10+i, false, on)
		if err != nil {
			t.Fatalf("Open() error = %v", err)
		}
		s.relays = append(s.relays, relay)
		if err := s.reg.Register(characteristic.Definition{
			ID:        id,
			Default:   characteristic.BoolValue(on),
			Persisted: true,
			Output:    relay,
		}); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}
	s.reg.AddNotifier(s.rec)
	s.reg.SetSaveScheduler(s.rec)

	s.disp = NewDispatcher(s.reg, s.rec, s.rec)
	s.disp.BindDefaults(PrimaryControl)
	return s
}

func (s *strip) states(t *testing.T) []bool {
	t.Helper()
	var out []bool
	for i, relay := range s.relays {
		v, err := s.reg.Get(relay.Name())
		if err != nil {
			t.Fatalf("Get() error = %v", err)
		}
		if v.Bool() != relay.State() {
			t.Errorf("outlet %d: registry %v, output %v", i, v.Bool(), relay.State())
		}
		out = append(out, v.Bool())
	}
	return out
}

func TestDispatch_DoublePressTogglesAll(t *testing.T) {
	s := newStrip(t, true, false, true)

	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: DoublePress})

	got := s.states(t)
	want := []bool{false, true, false}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("states = %v, want %v", got, want)
		}
	}

	wantIDs := []string{"outlet-1", "outlet-2", "outlet-3"}
	if len(s.rec.ids) != len(wantIDs) {
		t.Fatalf("notifications = %v, want %v", s.rec.ids, wantIDs)
	}
	for i := range wantIDs {
		if s.rec.ids[i] != wantIDs[i] {
			t.Errorf("notification %d = %s, want %s", i, s.rec.ids[i], wantIDs[i])
		}
	}
	if s.rec.arms != 1 {
		t.Errorf("arms = %d, want 1", s.rec.arms)
	}
}

func TestDispatch_SinglePress(t *testing.T) {
	tests := []struct {
		name    string
		initial []bool
		want    []bool
	}{
		{"single outlet toggles", []bool{false}, []bool{true}},
		{"multiple outlets ignored", []bool{false, true, false}, []bool{false, true, false}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newStrip(t, tt.initial...)
			s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: SinglePress})

			got := s.states(t)
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("states = %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestDispatch_LongPressUnboundByDefault(t *testing.T) {
	s := newStrip(t, false, false)
	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: LongPress})

	if len(s.rec.ids) != 0 || s.rec.arms != 0 || len(s.rec.resets) != 0 {
		t.Errorf("long press had an effect: %+v", s.rec)
	}
}

func TestDispatch_VeryLongPressRequestsReset(t *testing.T) {
	s := newStrip(t, false)
	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: VeryLongPress})
	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: VeryLongPress})

	// Absorbing duplicates is the resetter's job; the dispatcher forwards both.
	if len(s.rec.resets) != 2 {
		t.Errorf("reset requests = %d, want 2", len(s.rec.resets))
	}
}

func TestDispatch_UnknownControlIgnored(t *testing.T) {
	s := newStrip(t, false)
	s.disp.Dispatch(Gesture{Control: "side", Kind: DoublePress})

	if s.states(t)[0] {
		t.Error("gesture on an unbound control toggled an outlet")
	}
}

func TestApplyOverrides(t *testing.T) {
	s := newStrip(t, true, true)

	err := s.disp.ApplyOverrides(PrimaryControl, Overrides{
		LongPress:   "all-off",
		SinglePress: "toggle:outlet-2",
		DoublePress: "none",
	})
	if err != nil {
		t.Fatalf("ApplyOverrides() error = %v", err)
	}

	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: DoublePress})
	if got := s.states(t); !got[0] || !got[1] {
		t.Fatalf("unbound double press changed state: %v", got)
	}

	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: SinglePress})
	if got := s.states(t); !got[0] || got[1] {
		t.Fatalf("after single press states = %v, want [true false]", got)
	}

	s.disp.Dispatch(Gesture{Control: PrimaryControl, Kind: LongPress})
	if got := s.states(t); got[0] || got[1] {
		t.Fatalf("after long press states = %v, want all off", got)
	}
}

func TestApplyOverrides_InvalidLeavesTable(t *testing.T) {
	s := newStrip(t, false)

	err := s.disp.ApplyOverrides(PrimaryControl, Overrides{
		DoublePress: "none",
		LongPress:   "explode",
	})
	if !errors.Is(err, ErrUnknownAction) {
		t.Fatalf("ApplyOverrides() error = %v, want ErrUnknownAction", err)
	}
	if len(s.disp.Actions(PrimaryControl, DoublePress)) != 1 {
		t.Error("double press binding changed despite invalid override")
	}
}

func TestDispatch_FailingActionLogged(t *testing.T) {
	s := newStrip(t, false)
	s.disp.Bind("side", SinglePress, ToggleOutlet("missing"), Identify())

	s.disp.Dispatch(Gesture{Control: "side", Kind: SinglePress})

	if s.rec.idented != 1 {
		t.Error("action after a failing one did not run")
	}
}

func TestDispatch_MultipleActionsShareOneTransaction(t *testing.T) {
	s := newStrip(t, false, false)

	var wg sync.WaitGroup
	// The first action starts a concurrent remote write to outlet-2 and
	// gives it time to land. It must wait until the gesture is done.
	interfere := Action{
		Name: "interfere",
		Apply: func(tx *characteristic.Tx) error {
			started := make(chan struct{})
			wg.Add(1)
			go func() {
				defer wg.Done()
				close(started)
				s.reg.Set("outlet-2", characteristic.BoolValue(true)) //nolint:errcheck // Asserted via state
			}()
			<-started
			time.Sleep(20 * time.Millisecond)
			_, err := tx.Toggle("outlet-1")
			return err
		},
	}
	s.disp.Bind("side", DoublePress, interfere, ToggleOutlet("outlet-2"))

	s.disp.Dispatch(Gesture{Control: "side", Kind: DoublePress})
	wg.Wait()

	// Toggle saw outlet-2 off and turned it on; the remote write then found
	// it already on.
	got := s.states(t)
	if !got[0] || !got[1] {
		t.Fatalf("states = %v, want [true true]", got)
	}
	if len(s.rec.ids) < 2 || s.rec.ids[0] != "outlet-1" || s.rec.ids[1] != "outlet-2" {
		t.Errorf("notifications = %v, want the gesture's outlet-1, outlet-2 first", s.rec.ids)
	}
}

func TestDispatch_ArmsSaveOncePerGesture(t *testing.T) {
	s := newStrip(t, false, false)
	s.disp.Bind("side", SinglePress, ToggleOutlet("outlet-1"), ToggleOutlet("outlet-2"), ToggleOutlet("outlet-1"))

	s.disp.Dispatch(Gesture{Control: "side", Kind: SinglePress})

	got := s.states(t)
	if got[0] || !got[1] {
		t.Fatalf("states = %v, want [false true]", got)
	}
	if s.rec.arms != 1 {
		t.Errorf("arms = %d, want 1", s.rec.arms)
	}
}

func TestDispatch_SideEffectsRunAfterStateChanges(t *testing.T) {
	s := newStrip(t, false)
	var seen bool
	check := Action{
		Name: "check",
		Run: func(d *Dispatcher) error {
			v, err := d.registry.Get("outlet-1")
			seen = err == nil && v.Bool()
			return err
		},
	}
	s.disp.Bind("side", SinglePress, check, ToggleOutlet("outlet-1"))

	s.disp.Dispatch(Gesture{Control: "side", Kind: SinglePress})

	if !seen {
		t.Error("side effect ran before the gesture's registry changes committed")
	}
}

func TestDispatcher_SetLoggerWhileDispatching(t *testing.T) {
	s := newStrip(t, false)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.disp.SetLogger(noopLogger{})
		}()
		go func() {
			defer wg.Done()
			s.disp.Dispatch(Gesture{Control: "side", Kind: SinglePress})
		}()
	}
	wg.Wait()
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
	}{
		{"single", SinglePress},
		{"DOUBLE", DoublePress},
		{"hold", LongPress},
		{"very-long", VeryLongPress},
		{"very_long", VeryLongPress},
	}
	for _, tt := range tests {
		got, err := ParseKind(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseKind(%q) = %v, %v; want %v", tt.in, got, err, tt.want)
		}
	}
	if _, err := ParseKind("triple"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("ParseKind(triple) error = %v, want ErrUnknownKind", err)
	}
}
