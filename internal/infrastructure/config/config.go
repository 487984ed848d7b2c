package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// maxAccessoryNameLength is the longest accessory name advertised to
// controllers. Longer names are truncated.
const maxAccessoryNameLength = 63

// Config is the root configuration structure for the power strip core.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	Device       DeviceConfig       `yaml:"device"`
	GPIO         GPIOConfig         `yaml:"gpio"`
	Outlets      []OutletConfig     `yaml:"outlets"`
	Buttons      []ButtonConfig     `yaml:"buttons"`
	Persistence  PersistenceConfig  `yaml:"persistence"`
	Updates      UpdatesConfig      `yaml:"updates"`
	Lifecycle    LifecycleConfig    `yaml:"lifecycle"`
	Provisioning ProvisioningConfig `yaml:"provisioning"`
	Database     DatabaseConfig     `yaml:"database"`
	MQTT         MQTTConfig         `yaml:"mqtt"`
	InfluxDB     InfluxDBConfig     `yaml:"influxdb"`
	Logging      LoggingConfig      `yaml:"logging"`
}

// DeviceConfig contains the accessory information exposed to controllers.
type DeviceConfig struct {
	ID           string `yaml:"id"`
	Name         string `yaml:"name"`
	Manufacturer string `yaml:"manufacturer"`
	Model        string `yaml:"model"`
	Serial       string `yaml:"serial"`
	Firmware     string `yaml:"firmware"`

	// SetupCode is the code a controller must present to pair.
	// Format: "XXX-XX-XXX"
	SetupCode string `yaml:"setup_code"`
}

// GPIOConfig selects the output driver and the status indicator line.
type GPIOConfig struct {
	// Driver is "gpiocdev" for real hardware or "memory" for a dry run.
	Driver string `yaml:"driver"`

	// Chip is the GPIO character device name, e.g. "gpiochip0".
	Chip string `yaml:"chip"`

	Indicator LineConfig `yaml:"indicator"`
}

// LineConfig describes a single output line.
type LineConfig struct {
	Pin      int  `yaml:"pin"`
	Inverted bool `yaml:"inverted"`
}

// OutletConfig describes one switched outlet and the relay line driving it.
// Outlets are declared in the order used for "all outlets" actions.
type OutletConfig struct {
	ID       string `yaml:"id"`
	Label    string `yaml:"label"`
	Pin      int    `yaml:"pin"`
	Inverted bool   `yaml:"inverted"`
}

// ButtonConfig overrides gesture bindings for one physical control.
// Empty fields keep the default behaviour for that gesture.
type ButtonConfig struct {
	Control       string `yaml:"control"`
	SinglePress   string `yaml:"single_press"`
	DoublePress   string `yaml:"double_press"`
	LongPress     string `yaml:"long_press"`
	VeryLongPress string `yaml:"very_long_press"`
}

// PersistenceConfig contains debounced state saving settings.
type PersistenceConfig struct {
	// SaveDelayMS is the quiet period after the last change before dirty
	// state is written, in milliseconds.
	SaveDelayMS int `yaml:"save_delay_ms"`

	// PreserveStateDefault is the preserve-state value used when no record
	// exists yet.
	PreserveStateDefault bool `yaml:"preserve_state_default"`
}

// UpdatesConfig contains firmware update check settings.
type UpdatesConfig struct {
	CheckIntervalDefault int `yaml:"check_interval_default"`
	CheckIntervalMin     int `yaml:"check_interval_min"`
	CheckIntervalMax     int `yaml:"check_interval_max"`
}

// LifecycleConfig contains factory reset and restart settings.
type LifecycleConfig struct {
	// ResetSettleDelayMS is the pause after each factory reset step.
	ResetSettleDelayMS int `yaml:"reset_settle_delay_ms"`

	// RestartCommand is executed to restart the device. When empty the
	// process exits and relies on its supervisor.
	RestartCommand []string `yaml:"restart_command"`
}

// ProvisioningConfig locates the network credentials written by the
// provisioning tool.
type ProvisioningConfig struct {
	CredentialsPath string `yaml:"credentials_path"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// MQTTConfig contains MQTT broker connection settings.
type MQTTConfig struct {
	Broker    MQTTBrokerConfig    `yaml:"broker"`
	Auth      MQTTAuthConfig      `yaml:"auth"`
	QoS       int                 `yaml:"qos"`
	Reconnect MQTTReconnectConfig `yaml:"reconnect"`

	// TopicPrefix is the root of every device topic.
	TopicPrefix string `yaml:"topic_prefix"`

	// DiscoveryPrefix enables Home Assistant discovery when non-empty.
	DiscoveryPrefix string `yaml:"discovery_prefix"`
}

// MQTTBrokerConfig contains MQTT broker connection details.
type MQTTBrokerConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	TLS      bool   `yaml:"tls"`
	ClientID string `yaml:"client_id"`
}

// MQTTAuthConfig contains MQTT authentication credentials.
type MQTTAuthConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// MQTTReconnectConfig contains MQTT reconnection settings.
type MQTTReconnectConfig struct {
	InitialDelay int `yaml:"initial_delay"`
	MaxDelay     int `yaml:"max_delay"`
	MaxAttempts  int `yaml:"max_attempts"`
}

// InfluxDBConfig contains InfluxDB connection settings.
type InfluxDBConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	Token         string `yaml:"token"`
	Org           string `yaml:"org"`
	Bucket        string `yaml:"bucket"`
	BatchSize     int    `yaml:"batch_size"`
	FlushInterval int    `yaml:"flush_interval"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. Environment variables (override file values)
//
// Environment variables follow the pattern: POWERSTRIP_SECTION_KEY
// For example: POWERSTRIP_DATABASE_PATH, POWERSTRIP_MQTT_HOST
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// A file that declares outlets replaces the default set entirely.
	cfg.Outlets = nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if len(cfg.Outlets) == 0 {
		cfg.Outlets = defaultOutlets()
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the built-in configuration without reading any file.
// It matches the SWB3 four-outlet strip.
func Default() *Config {
	return defaultConfig()
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		Device: DeviceConfig{
			ID:           "powerstrip-001",
			Name:         "PowerStrip",
			Manufacturer: "Yagala",
			Model:        "SWB3",
			Serial:       "12345678",
			Firmware:     "1.0",
			SetupCode:    "111-11-111",
		},
		GPIO: GPIOConfig{
			Driver:    "gpiocdev",
			Chip:      "gpiochip0",
			Indicator: LineConfig{Pin: 2, Inverted: true},
		},
		Outlets: defaultOutlets(),
		Buttons: []ButtonConfig{
			{Control: "primary"},
		},
		Persistence: PersistenceConfig{
			SaveDelayMS:          1000,
			PreserveStateDefault: true,
		},
		Updates: UpdatesConfig{
			CheckIntervalDefault: 10,
			CheckIntervalMin:     1,
			CheckIntervalMax:     168,
		},
		Lifecycle: LifecycleConfig{
			ResetSettleDelayMS: 1000,
			RestartCommand:     []string{"systemctl", "reboot"},
		},
		Provisioning: ProvisioningConfig{
			CredentialsPath: "./data/credentials.yaml",
		},
		Database: DatabaseConfig{
			Path:        "./data/powerstrip.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		MQTT: MQTTConfig{
			Broker: MQTTBrokerConfig{
				Host:     "localhost",
				Port:     1883,
				ClientID: "powerstrip",
			},
			QoS: 1,
			Reconnect: MQTTReconnectConfig{
				InitialDelay: 1,
				MaxDelay:     60,
				MaxAttempts:  0,
			},
			TopicPrefix:     "powerstrip",
			DiscoveryPrefix: "homeassistant",
		},
		InfluxDB: InfluxDBConfig{
			BatchSize:     100,
			FlushInterval: 10,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

func defaultOutlets() []OutletConfig {
	return []OutletConfig{
		{ID: "outlet-1", Label: "Socket One", Pin: 12},
		{ID: "outlet-2", Label: "Socket Two", Pin: 14},
		{ID: "outlet-3", Label: "Socket Three", Pin: 5},
		{ID: "outlet-usb", Label: "USB", Pin: 15},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: POWERSTRIP_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// Device
	if v := os.Getenv("POWERSTRIP_DEVICE_ID"); v != "" {
		cfg.Device.ID = v
	}
	if v := os.Getenv("POWERSTRIP_DEVICE_SERIAL"); v != "" {
		cfg.Device.Serial = v
	}
	if v := os.Getenv("POWERSTRIP_SETUP_CODE"); v != "" {
		cfg.Device.SetupCode = v
	}

	// GPIO
	if v := os.Getenv("POWERSTRIP_GPIO_DRIVER"); v != "" {
		cfg.GPIO.Driver = v
	}
	if v := os.Getenv("POWERSTRIP_GPIO_CHIP"); v != "" {
		cfg.GPIO.Chip = v
	}

	// Persistence
	if v := os.Getenv("POWERSTRIP_SAVE_DELAY_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Persistence.SaveDelayMS = n
		}
	}

	// Database
	if v := os.Getenv("POWERSTRIP_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}

	// Provisioning
	if v := os.Getenv("POWERSTRIP_CREDENTIALS_PATH"); v != "" {
		cfg.Provisioning.CredentialsPath = v
	}

	// MQTT
	if v := os.Getenv("POWERSTRIP_MQTT_HOST"); v != "" {
		cfg.MQTT.Broker.Host = v
	}
	if v := os.Getenv("POWERSTRIP_MQTT_USERNAME"); v != "" {
		cfg.MQTT.Auth.Username = v
	}
	if v := os.Getenv("POWERSTRIP_MQTT_PASSWORD"); v != "" {
		cfg.MQTT.Auth.Password = v
	}

	// InfluxDB
	if v := os.Getenv("POWERSTRIP_INFLUXDB_TOKEN"); v != "" {
		cfg.InfluxDB.Token = v
	}

	// Logging
	if v := os.Getenv("POWERSTRIP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if c.Device.ID == "" {
		errs = append(errs, "device.id is required")
	}
	if c.Device.SetupCode == "" {
		errs = append(errs, "device.setup_code is required")
	}

	switch c.GPIO.Driver {
	case "gpiocdev", "memory":
	default:
		errs = append(errs, fmt.Sprintf("gpio.driver %q must be gpiocdev or memory", c.GPIO.Driver))
	}
	if c.GPIO.Driver == "gpiocdev" && c.GPIO.Chip == "" {
		errs = append(errs, "gpio.chip is required for the gpiocdev driver")
	}

	if len(c.Outlets) == 0 {
		errs = append(errs, "at least one outlet is required")
	}
	seenIDs := make(map[string]bool, len(c.Outlets))
	seenPins := map[int]string{c.GPIO.Indicator.Pin: "indicator"}
	for i, o := range c.Outlets {
		if o.ID == "" {
			errs = append(errs, fmt.Sprintf("outlets[%d].id is required", i))
			continue
		}
		if seenIDs[o.ID] {
			errs = append(errs, fmt.Sprintf("outlets[%d].id %q is duplicated", i, o.ID))
		}
		seenIDs[o.ID] = true
		if o.Pin < 0 {
			errs = append(errs, fmt.Sprintf("outlets[%d].pin must not be negative", i))
		}
		if owner, ok := seenPins[o.Pin]; ok {
			errs = append(errs, fmt.Sprintf("outlets[%d].pin %d already used by %s", i, o.Pin, owner))
		}
		seenPins[o.Pin] = o.ID
	}

	for i, b := range c.Buttons {
		if b.Control == "" {
			errs = append(errs, fmt.Sprintf("buttons[%d].control is required", i))
		}
	}

	if c.Persistence.SaveDelayMS <= 0 {
		errs = append(errs, "persistence.save_delay_ms must be positive")
	}

	if c.Updates.CheckIntervalMin > c.Updates.CheckIntervalMax {
		errs = append(errs, "updates.check_interval_min must not exceed check_interval_max")
	} else if c.Updates.CheckIntervalDefault < c.Updates.CheckIntervalMin ||
		c.Updates.CheckIntervalDefault > c.Updates.CheckIntervalMax {
		errs = append(errs, "updates.check_interval_default must be within min and max")
	}

	if c.Lifecycle.ResetSettleDelayMS < 0 {
		errs = append(errs, "lifecycle.reset_settle_delay_ms must not be negative")
	}

	if c.Provisioning.CredentialsPath == "" {
		errs = append(errs, "provisioning.credentials_path is required")
	}

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}

	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, "mqtt.qos must be 0, 1, or 2")
	}
	if c.MQTT.TopicPrefix == "" {
		errs = append(errs, "mqtt.topic_prefix is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// SaveDelay returns the persistence debounce window as a Duration.
func (c *Config) SaveDelay() time.Duration {
	return time.Duration(c.Persistence.SaveDelayMS) * time.Millisecond
}

// ResetSettleDelay returns the pause between factory reset steps.
func (c *Config) ResetSettleDelay() time.Duration {
	return time.Duration(c.Lifecycle.ResetSettleDelayMS) * time.Millisecond
}

// AccessoryName builds the advertised accessory name from the device name,
// model and serial, e.g. "PowerStrip-SWB3-12345678". The result is capped
// at 63 characters.
func (c *Config) AccessoryName() string {
	parts := make([]string, 0, 3)
	for _, p := range []string{c.Device.Name, c.Device.Model, c.Device.Serial} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	name := strings.Join(parts, "-")
	if len(name) > maxAccessoryNameLength {
		name = name[:maxAccessoryNameLength]
	}
	return name
}
