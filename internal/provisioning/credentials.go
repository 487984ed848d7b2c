package provisioning

import (
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/config"
)

// Credentials is the network configuration written by the provisioning
// tool: which broker to join and how to authenticate.
type Credentials struct {
	Broker struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
		TLS  bool   `yaml:"tls"`
	} `yaml:"broker"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// Validate checks that the credentials name a broker.
func (c *Credentials) Validate() error {
	var errs []string
	if c.Broker.Host == "" {
		errs = append(errs, "broker.host is required")
	}
	if c.Broker.Port < 0 || c.Broker.Port > 65535 {
		errs = append(errs, "broker.port must be between 0 and 65535")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, strings.Join(errs, "; "))
	}
	return nil
}

// Apply overlays the credentials on an MQTT configuration. A zero port
// keeps the configured one.
func (c *Credentials) Apply(cfg config.MQTTConfig) config.MQTTConfig {
	cfg.Broker.Host = c.Broker.Host
	if c.Broker.Port != 0 {
		cfg.Broker.Port = c.Broker.Port
	}
	cfg.Broker.TLS = c.Broker.TLS
	if c.Username != "" {
		cfg.Auth.Username = c.Username
		cfg.Auth.Password = c.Password
	}
	return cfg
}
