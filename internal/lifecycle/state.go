package lifecycle

import "github.com/looplab/fsm"

// State is the accessory lifecycle state.
type State int

// Lifecycle states, in the order a fresh device moves through them.
const (
	Booting State = iota
	AwaitingProvisioning
	ProvisionedUnpaired
	Paired
	FactoryResetting
)

// String returns the state name used in logs and telemetry.
func (s State) String() string {
	switch s {
	case Booting:
		return "booting"
	case AwaitingProvisioning:
		return "awaiting_provisioning"
	case ProvisionedUnpaired:
		return "provisioned_unpaired"
	case Paired:
		return "paired"
	case FactoryResetting:
		return "factory_resetting"
	default:
		return "unknown"
	}
}

var allStates = []State{Booting, AwaitingProvisioning, ProvisionedUnpaired, Paired, FactoryResetting}

// parseState maps a state machine state name back to its State.
func parseState(name string) State {
	for _, s := range allStates {
		if s.String() == name {
			return s
		}
	}
	return State(-1)
}

// Lifecycle events fed to the state machine.
const (
	evBoot         = "boot"
	evProvisioned  = "provisioned"
	evPaired       = "paired"
	evFactoryReset = "factory_reset"
)

// transitionTable lists which events each state accepts. An event from any
// other state is rejected by the machine. Paired accepts a repeat pairing
// as a self transition, which is reported as a no-op.
func transitionTable() fsm.Events {
	return fsm.Events{
		{Name: evBoot, Src: []string{Booting.String()}, Dst: AwaitingProvisioning.String()},
		{Name: evProvisioned, Src: []string{AwaitingProvisioning.String()}, Dst: ProvisionedUnpaired.String()},
		{Name: evPaired, Src: []string{ProvisionedUnpaired.String(), Paired.String()}, Dst: Paired.String()},
		{
			Name: evFactoryReset,
			Src:  []string{AwaitingProvisioning.String(), ProvisionedUnpaired.String(), Paired.String()},
			Dst:  FactoryResetting.String(),
		},
	}
}
