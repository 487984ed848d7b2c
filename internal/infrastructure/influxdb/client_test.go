package influxdb_test

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/influxdb"
)

// testConfig returns a configuration for a local dev InfluxDB.
func testConfig() config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           "http://127.0.0.1:8086",
		Token:         "powerstrip-dev-token",
		Org:           "powerstrip",
		Bucket:        "telemetry",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// connectOrSkip skips the test unless RUN_INTEGRATION is set and InfluxDB
// is reachable.
func connectOrSkip(t *testing.T) *influxdb.Client {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		t.Skip("set RUN_INTEGRATION=1 to run against a local InfluxDB")
	}
	client, err := influxdb.Connect(context.Background(), testConfig())
	if err != nil {
		t.Skipf("InfluxDB not available: %v", err)
	}
	t.Cleanup(func() { client.Close() }) //nolint:errcheck // Test cleanup
	return client
}

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.URL = "http://127.0.0.1:59999"

	_, err := influxdb.Connect(context.Background(), cfg)
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestNilClient(t *testing.T) {
	var client *influxdb.Client
	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

func TestStatePoint(t *testing.T) {
	ts := time.Unix(1_700_000_000, 0)

	tests := []struct {
		name  string
		value any
		want  []string
	}{
		{"outlet on", true, []string{"on=true", "value=1i"}},
		{"outlet off", false, []string{"on=false", "value=0i"}},
		{"interval", 24, []string{"value=24i"}},
		{"text", "Yagala-SWB3", []string{`text="Yagala-SWB3"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := write.PointToLineProtocol(
				influxdb.StatePoint("powerstrip-001", "outlet-1", tt.value, ts), time.Second)

			if !strings.HasPrefix(line, "strip_state,characteristic=outlet-1,device_id=powerstrip-001 ") {
				t.Errorf("line = %q, unexpected measurement or tags", line)
			}
			for _, w := range tt.want {
				if !strings.Contains(line, w) {
					t.Errorf("line = %q, missing %q", line, w)
				}
			}
		})
	}
}

func TestRestartPoint(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	line := write.PointToLineProtocol(
		influxdb.RestartPoint("powerstrip-001", "unexpected", now.Add(-90*time.Second), now), time.Second)

	for _, w := range []string{"reason=unexpected", "count=1i", "previous_uptime_s=90"} {
		if !strings.Contains(line, w) {
			t.Errorf("line = %q, missing %q", line, w)
		}
	}

	line = write.PointToLineProtocol(
		influxdb.RestartPoint("powerstrip-001", "clean", time.Time{}, now), time.Second)
	if strings.Contains(line, "previous_uptime_s") {
		t.Errorf("line = %q, uptime written without a start time", line)
	}
}

func TestLifecyclePoint(t *testing.T) {
	line := write.PointToLineProtocol(
		influxdb.LifecyclePoint("powerstrip-001", "booting", "paired", time.Unix(0, 0)), time.Second)

	if !strings.Contains(line, "state=paired") || !strings.Contains(line, `from="booting"`) {
		t.Errorf("line = %q", line)
	}
}

func TestWrite_Integration(t *testing.T) {
	client := connectOrSkip(t)

	var (
		mu       sync.Mutex
		writeErr error
	)
	client.SetOnError(func(err error) {
		mu.Lock()
		writeErr = err
		mu.Unlock()
	})

	client.WriteState("test-strip", "outlet-1", true)
	client.WriteLifecycle("test-strip", "booting", "awaiting_provisioning")
	client.WriteRestart("test-strip", "clean", time.Now().Add(-time.Minute))
	client.Flush()

	time.Sleep(100 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	if writeErr != nil {
		t.Errorf("write error = %v", writeErr)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}
