// Package output drives the strip's physical outputs: one relay per outlet
// and the status indicator LED.
//
// A Relay is the logical view of a line. Write(true) means "energised" or
// "lit" regardless of wiring; the inverted flag translates that into the
// physical line level, so an active-low LED is lit by driving the line to 0.
//
// Two drivers open lines:
//   - GPIODriver requests lines from a Linux GPIO character device through
//     go-gpiocdev.
//   - MemoryDriver keeps line levels in memory and records every write. It
//     backs dry runs and tests.
//
// Writes are synchronous and idempotent: writing the state a line already
// holds is harmless. Relay is safe for concurrent use, although the
// characteristic registry already serialises every write.
//
// The indicator plays blink Patterns (identify, factory reset) through
// Play, which honours context cancellation between steps.
package output
