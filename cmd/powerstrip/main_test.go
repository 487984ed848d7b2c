package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-powerstrip/internal/store"
)

// writeConfig writes a memory-driver config rooted in a temp dir and
// returns its path and the database path.
func writeConfig(t *testing.T) (configPath, dbPath string) {
	t.Helper()
	tmpDir := t.TempDir()
	configPath = filepath.Join(tmpDir, "test-config.yaml")
	dbPath = filepath.Join(tmpDir, "test.db")

	configContent := `
device:
  id: test-strip
  serial: "87654321"
  setup_code: "222-22-222"

gpio:
  driver: memory

database:
  path: "` + dbPath + `"
  wal_mode: true
  busy_timeout: 5

provisioning:
  credentials_path: "` + filepath.Join(tmpDir, "creds", "credentials.yaml") + `"

mqtt:
  broker:
    host: "127.0.0.1"
    port: 19999
  topic_prefix: powerstrip

influxdb:
  enabled: false

logging:
  level: error
  format: text
  output: stderr
`
	if err := os.WriteFile(configPath, []byte(configContent), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath, dbPath
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("run() error = %v, want a config load error", err)
	}
}

// TestRun_MissingDatabasePath verifies run fails when database path is empty.
func TestRun_MissingDatabasePath(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	data = bytes.Replace(data, []byte(`path: "`+dbPath+`"`), []byte(`path: ""`), 1)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := run(ctx, configPath); err == nil {
		t.Fatal("run() should fail with empty database path")
	}
}

// TestGetConfigPath_Default verifies default config path.
func TestGetConfigPath_Default(t *testing.T) {
	t.Setenv("POWERSTRIP_CONFIG", "")

	if path := getConfigPath(); path != defaultConfigPath {
		t.Errorf("getConfigPath() = %q, want %q", path, defaultConfigPath)
	}
}

// TestGetConfigPath_EnvOverride verifies environment variable override.
func TestGetConfigPath_EnvOverride(t *testing.T) {
	expected := "/custom/path/config.yaml"
	t.Setenv("POWERSTRIP_CONFIG", expected)

	if path := getConfigPath(); path != expected {
		t.Errorf("getConfigPath() = %q, want %q", path, expected)
	}
}

// TestRun_StartupAndShutdown boots the daemon on the memory driver without
// credentials, stops it, and checks the session was closed cleanly.
func TestRun_StartupAndShutdown(t *testing.T) {
	configPath, dbPath := writeConfig(t)
	seedState(t, dbPath, "outlet-1", characteristic.BoolValue(true))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, configPath) }()

	time.Sleep(300 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("run() error = %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("run() did not return after cancel")
	}

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"inspect", "--config", configPath})
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("inspect error = %v", err)
	}

	got := out.String()
	for _, want := range []string{"PowerStrip-SWB3-87654321", "outlet-1", "ON", store.EndClean, "(not paired)"} {
		if !strings.Contains(got, want) {
			t.Errorf("inspect output missing %q:\n%s", want, got)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(out.String(), "powerstrip "+version) {
		t.Errorf("version output = %q", out.String())
	}
}

func TestOpenDriver_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.GPIO.Driver = "memory"

	driver, err := openDriver(cfg)
	if err != nil {
		t.Fatalf("openDriver() error = %v", err)
	}
	driver.Close() //nolint:errcheck // Test cleanup
}

// seedState stores one value as a previous run would have.
func seedState(t *testing.T, dbPath, key string, v characteristic.Value) {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Path: dbPath, WALMode: true, BusyTimeout: 5})
	if err != nil {
		t.Fatalf("database.Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	if err := store.NewSQLiteStore(db.DB).Save(ctx, key, v); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
}
