package telemetry

import (
	"fmt"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/lifecycle"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

type fakeWriter struct {
	lines []string
}

func (w *fakeWriter) WriteState(deviceID, key string, value any) {
	w.lines = append(w.lines, fmt.Sprintf("state %s %s %v", deviceID, key, value))
}

func (w *fakeWriter) WriteLifecycle(deviceID, from, to string) {
	w.lines = append(w.lines, fmt.Sprintf("lifecycle %s %s->%s", deviceID, from, to))
}

func (w *fakeWriter) WriteRestart(deviceID, reason string, _ time.Time) {
	w.lines = append(w.lines, fmt.Sprintf("restart %s %s", deviceID, reason))
}

func TestRecorder(t *testing.T) {
	w := &fakeWriter{}
	r := NewRecorder("strip-1", w)

	var _ characteristic.Notifier = r
	var _ lifecycle.RestartObserver = r

	r.Notify("outlet-1", characteristic.BoolValue(true))
	r.Notify("check-interval", characteristic.IntValue(10))
	r.Notify("name", characteristic.StringValue("Yagala"))
	r.OnTransition(lifecycle.ProvisionedUnpaired, lifecycle.Paired)
	r.OnUnexpectedRestart(store.Session{ID: "s1", StartedAt: time.Now()})

	want := []string{
		"state strip-1 outlet-1 true",
		"state strip-1 check-interval 10",
		"state strip-1 name Yagala",
		"lifecycle strip-1 provisioned_unpaired->paired",
		"restart strip-1 unexpected",
	}
	if len(w.lines) != len(want) {
		t.Fatalf("lines = %v, want %v", w.lines, want)
	}
	for i := range want {
		if w.lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, w.lines[i], want[i])
		}
	}
}
