// Package pairing keeps the list of controllers allowed to operate the
// strip.
//
// A controller pairs by presenting the device's setup code (printed on the
// label, "111-11-111" by default). Accepted controllers are stored in the
// pairings table; a factory reset clears it.
package pairing
