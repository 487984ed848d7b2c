package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the power strip.
const (
	MeasurementState     = "strip_state"
	MeasurementLifecycle = "strip_lifecycle"
	MeasurementRestart   = "strip_restart"
)

// WriteState records a characteristic value. value must be a bool, int or
// string; bools are also written as 0/1 so outlet duty can be averaged.
//
// Example:
//
//	client.WriteState("powerstrip-001", "outlet-1", true)
//	client.WriteState("powerstrip-001", "check-interval", 24)
func (c *Client) WriteState(deviceID, key string, value any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(StatePoint(deviceID, key, value, time.Now()))
}

// WriteLifecycle records a lifecycle transition.
func (c *Client) WriteLifecycle(deviceID, from, to string) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(LifecyclePoint(deviceID, from, to, time.Now()))
}

// WriteRestart records that the previous session ended for reason. An
// unexpected restart has reason "unexpected".
func (c *Client) WriteRestart(deviceID, reason string, previousStart time.Time) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(RestartPoint(deviceID, reason, previousStart, time.Now()))
}

// WritePoint writes a custom point with full control over tags and fields.
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]any) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(write.NewPoint(measurement, tags, fields, time.Now()))
}

// StatePoint builds the point written by WriteState.
func StatePoint(deviceID, key string, value any, ts time.Time) *write.Point {
	fields := map[string]any{}
	switch v := value.(type) {
	case bool:
		fields["on"] = v
		if v {
			fields["value"] = 1
		} else {
			fields["value"] = 0
		}
	case int:
		fields["value"] = v
	default:
		fields["text"] = v
	}

	return write.NewPoint(
		MeasurementState,
		map[string]string{
			"device_id":      deviceID,
			"characteristic": key,
		},
		fields,
		ts,
	)
}

// LifecyclePoint builds the point written by WriteLifecycle.
func LifecyclePoint(deviceID, from, to string, ts time.Time) *write.Point {
	return write.NewPoint(
		MeasurementLifecycle,
		map[string]string{
			"device_id": deviceID,
			"state":     to,
		},
		map[string]any{
			"from": from,
		},
		ts,
	)
}

// RestartPoint builds the point written by WriteRestart.
func RestartPoint(deviceID, reason string, previousStart, ts time.Time) *write.Point {
	fields := map[string]any{"count": 1}
	if !previousStart.IsZero() {
		fields["previous_uptime_s"] = ts.Sub(previousStart).Seconds()
	}
	return write.NewPoint(
		MeasurementRestart,
		map[string]string{
			"device_id": deviceID,
			"reason":    reason,
		},
		fields,
		ts,
	)
}
