package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	configPath := writeConfig(t, `
device:
  id: "strip-kitchen"
  setup_code: "222-33-444"
gpio:
  driver: "memory"
outlets:
  - id: "kettle"
    label: "Kettle"
    pin: 20
  - id: "toaster"
    label: "Toaster"
    pin: 21
    inverted: true
database:
  path: "/tmp/test.db"
mqtt:
  broker:
    host: "broker.local"
    port: 1883
  qos: 1
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "strip-kitchen" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "strip-kitchen")
	}
	if cfg.Device.Manufacturer != "Yagala" {
		t.Errorf("Device.Manufacturer = %q, want default %q", cfg.Device.Manufacturer, "Yagala")
	}
	if len(cfg.Outlets) != 2 {
		t.Fatalf("len(Outlets) = %d, want 2 (file replaces defaults)", len(cfg.Outlets))
	}
	if cfg.Outlets[1].ID != "toaster" || !cfg.Outlets[1].Inverted {
		t.Errorf("Outlets[1] = %+v, want inverted toaster", cfg.Outlets[1])
	}
	if cfg.MQTT.Broker.Host != "broker.local" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "broker.local")
	}
}

func TestLoad_KeepsDefaultOutlets(t *testing.T) {
	configPath := writeConfig(t, `
device:
  id: "strip-1"
`)

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := []string{"outlet-1", "outlet-2", "outlet-3", "outlet-usb"}
	if len(cfg.Outlets) != len(want) {
		t.Fatalf("len(Outlets) = %d, want %d", len(cfg.Outlets), len(want))
	}
	for i, id := range want {
		if cfg.Outlets[i].ID != id {
			t.Errorf("Outlets[%d].ID = %q, want %q", i, cfg.Outlets[i].ID, id)
		}
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, "invalid: [yaml: content")

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	configPath := writeConfig(t, `
device:
  id: ""
`)

	_, err := Load(configPath)
	if err == nil {
		t.Error("Load() expected validation error for empty device.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "missing device ID",
			mutate:  func(c *Config) { c.Device.ID = "" },
			wantErr: "device.id",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.GPIO.Driver = "sysfs" },
			wantErr: "gpio.driver",
		},
		{
			name:    "gpiocdev without chip",
			mutate:  func(c *Config) { c.GPIO.Chip = "" },
			wantErr: "gpio.chip",
		},
		{
			name:    "no outlets",
			mutate:  func(c *Config) { c.Outlets = nil },
			wantErr: "at least one outlet",
		},
		{
			name: "duplicate outlet id",
			mutate: func(c *Config) {
				c.Outlets = []OutletConfig{{ID: "a", Pin: 20}, {ID: "a", Pin: 21}}
			},
			wantErr: "duplicated",
		},
		{
			name: "outlet pin shared with indicator",
			mutate: func(c *Config) {
				c.Outlets = []OutletConfig{{ID: "a", Pin: c.GPIO.Indicator.Pin}}
			},
			wantErr: "already used by indicator",
		},
		{
			name:    "zero save delay",
			mutate:  func(c *Config) { c.Persistence.SaveDelayMS = 0 },
			wantErr: "save_delay_ms",
		},
		{
			name:    "check interval default out of range",
			mutate:  func(c *Config) { c.Updates.CheckIntervalDefault = 500 },
			wantErr: "check_interval_default",
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: "mqtt.qos",
		},
		{
			name:    "missing database path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: "database.path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("Validate() error = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_Durations(t *testing.T) {
	cfg := &Config{
		Persistence: PersistenceConfig{SaveDelayMS: 1500},
		Lifecycle:   LifecycleConfig{ResetSettleDelayMS: 250},
	}

	if got := cfg.SaveDelay(); got != 1500*time.Millisecond {
		t.Errorf("SaveDelay() = %v, want 1.5s", got)
	}
	if got := cfg.ResetSettleDelay(); got != 250*time.Millisecond {
		t.Errorf("ResetSettleDelay() = %v, want 250ms", got)
	}
}

func TestConfig_AccessoryName(t *testing.T) {
	tests := []struct {
		name   string
		device DeviceConfig
		want   string
	}{
		{
			name:   "all parts",
			device: DeviceConfig{Name: "PowerStrip", Model: "SWB3", Serial: "12345678"},
			want:   "PowerStrip-SWB3-12345678",
		},
		{
			name:   "missing serial",
			device: DeviceConfig{Name: "PowerStrip", Model: "SWB3"},
			want:   "PowerStrip-SWB3",
		},
		{
			name:   "capped",
			device: DeviceConfig{Name: strings.Repeat("n", 40), Model: "SWB3", Serial: strings.Repeat("9", 40)},
			want:   (strings.Repeat("n", 40) + "-SWB3-" + strings.Repeat("9", 40))[:63],
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Device: tt.device}
			if got := cfg.AccessoryName(); got != tt.want {
				t.Errorf("AccessoryName() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := defaultConfig()

	t.Setenv("POWERSTRIP_DATABASE_PATH", "/custom/path.db")
	t.Setenv("POWERSTRIP_MQTT_HOST", "mqtt.example.com")
	t.Setenv("POWERSTRIP_MQTT_USERNAME", "testuser")
	t.Setenv("POWERSTRIP_MQTT_PASSWORD", "testpass")
	t.Setenv("POWERSTRIP_GPIO_DRIVER", "memory")
	t.Setenv("POWERSTRIP_SAVE_DELAY_MS", "2500")
	t.Setenv("POWERSTRIP_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}
	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}
	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}
	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}
	if cfg.GPIO.Driver != "memory" {
		t.Errorf("GPIO.Driver = %q, want %q", cfg.GPIO.Driver, "memory")
	}
	if cfg.Persistence.SaveDelayMS != 2500 {
		t.Errorf("Persistence.SaveDelayMS = %d, want 2500", cfg.Persistence.SaveDelayMS)
	}
	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := Default()

	if cfg.Database.Path == "" {
		t.Error("Default should have non-empty Database.Path")
	}
	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
	if !cfg.GPIO.Indicator.Inverted {
		t.Error("Default indicator should be inverted")
	}
	if cfg.Updates.CheckIntervalDefault != 10 {
		t.Errorf("Default CheckIntervalDefault = %d, want 10", cfg.Updates.CheckIntervalDefault)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}
