// Package telemetry records what the strip does: every published
// characteristic value, every lifecycle transition and every unexpected
// restart.
package telemetry
