package telemetry

import (
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/lifecycle"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

// Writer is the telemetry sink. *influxdb.Client satisfies it. Every
// method must be non-blocking.
type Writer interface {
	WriteState(deviceID, key string, value any)
	WriteLifecycle(deviceID, from, to string)
	WriteRestart(deviceID, reason string, previousStart time.Time)
}

// Recorder forwards registry notifications and lifecycle events to a
// Writer. It is a characteristic.Notifier and a lifecycle.Observer.
type Recorder struct {
	deviceID string
	writer   Writer
}

// NewRecorder creates a Recorder tagging every point with deviceID.
func NewRecorder(deviceID string, writer Writer) *Recorder {
	return &Recorder{deviceID: deviceID, writer: writer}
}

// Notify records a published characteristic value.
func (r *Recorder) Notify(id string, v characteristic.Value) {
	switch v.Kind() {
	case characteristic.KindBool:
		r.writer.WriteState(r.deviceID, id, v.Bool())
	case characteristic.KindInt:
		r.writer.WriteState(r.deviceID, id, v.Int())
	case characteristic.KindString:
		r.writer.WriteState(r.deviceID, id, v.Str())
	}
}

// OnTransition records a lifecycle transition.
func (r *Recorder) OnTransition(from, to lifecycle.State) {
	r.writer.WriteLifecycle(r.deviceID, from.String(), to.String())
}

// OnUnexpectedRestart records a session that ended without a reason.
func (r *Recorder) OnUnexpectedRestart(previous store.Session) {
	r.writer.WriteRestart(r.deviceID, "unexpected", previous.StartedAt)
}
