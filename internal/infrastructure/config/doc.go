// Package config handles loading and validating power strip configuration.
//
// This package manages:
//   - Loading configuration from YAML files
//   - Overriding with environment variables
//   - Validation of required fields
//   - Default value handling
//
// The defaults describe the SWB3 strip: three mains sockets and a USB
// port on lines 12, 14, 5 and 15, an inverted status LED on line 2, and a
// one second save debounce.
//
// Environment overrides:
//
//	POWERSTRIP_DEVICE_ID, POWERSTRIP_DEVICE_SERIAL, POWERSTRIP_SETUP_CODE
//	POWERSTRIP_GPIO_DRIVER, POWERSTRIP_GPIO_CHIP
//	POWERSTRIP_SAVE_DELAY_MS
//	POWERSTRIP_DATABASE_PATH, POWERSTRIP_CREDENTIALS_PATH
//	POWERSTRIP_MQTT_HOST, POWERSTRIP_MQTT_USERNAME, POWERSTRIP_MQTT_PASSWORD
//	POWERSTRIP_INFLUXDB_TOKEN
//	POWERSTRIP_LOG_LEVEL
//
// Security Considerations:
//   - Sensitive values (broker passwords, tokens) should be set via environment variables
//   - The config file should have restricted permissions (0600)
//   - The default setup code must be changed before the strip is deployed
//
// Usage:
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.AccessoryName())
package config
