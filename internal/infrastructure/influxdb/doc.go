// Package influxdb writes power strip telemetry to InfluxDB 2.x.
//
// It wraps the official influxdb-client-go v2 library. Three measurements
// are written:
//
//   - strip_state: every characteristic value published by the registry
//     (tags device_id, characteristic; fields on/value/text)
//   - strip_lifecycle: every lifecycle transition (tags device_id, state)
//   - strip_restart: how the previous session ended (tags device_id, reason)
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//
//	client.WriteState("powerstrip-001", "outlet-1", true)
//
// # Thread Safety
//
// All methods are safe for concurrent use. Writes are non-blocking and
// batched according to batch_size and flush_interval; batch errors are
// delivered to the SetOnError callback.
package influxdb
