// Package logging provides structured logging for the power strip core.
//
// It wraps log/slog so every component logs with the same default fields
// (service, version) and the same level filter.
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Component("scheduler").Info("flush complete", "records", 3)
//
// Component packages do not import this package; they declare a small
// Logger interface (Debug, Info, Warn, Error) which *Logger satisfies.
//
// Never log broker passwords, setup codes or tokens.
package logging
