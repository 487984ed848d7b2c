// Package lifecycle drives the power strip through boot, provisioning,
// pairing and factory reset.
//
// The Controller owns the characteristic registry for the process. Its
// state machine is:
//
//	Booting ──Boot──▶ AwaitingProvisioning ──Provisioned──▶ ProvisionedUnpaired ──Paired──▶ Paired
//	                         │                                      │                        │
//	                         └──────────────RequestFactoryReset─────┴────────────────────────┴──▶ FactoryResetting
//
// The transitions are events on a looplab/fsm machine; each state's work
// runs in its enter callback.
//
// Boot drives every output to its default and, when preserve-state is on
// (the saved flag, or the entry's default if none was saved), restores
// every persisted entry before any value is published. Paired publishes every value once. A factory reset
// blinks the indicator, erases network credentials, erases pairings and
// restarts, pausing after each step so the drivers can settle.
//
// Each boot opens a session in the store. A previous session with no
// recorded end is reported as an unexpected restart; it does not change
// any state.
package lifecycle
