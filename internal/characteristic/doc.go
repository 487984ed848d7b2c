// Package characteristic holds the strip's externally visible state: one
// entry per outlet, the accessory configuration values and the read-only
// accessory information.
//
// The Registry is the only place values change. Every committed mutation
// runs, with the registry locked and in this order:
//
//  1. the new value is stored;
//  2. the bound output, if any, is driven;
//  3. every Notifier receives the value;
//  4. a persisted entry is marked dirty and the save scheduler is armed.
//
// Externally driven writes go through Registry.Set, which consults the
// entry's Setter first. Internal changes (gestures, boot load) go through
// Registry.Update and a Tx, which bypasses setters.
//
// # Usage
//
//	reg := characteristic.NewRegistry()
//	reg.Register(characteristic.Definition{
//	    ID:        "outlet-1",
//	    Default:   characteristic.BoolValue(false),
//	    Persisted: true,
//	    Output:    relay,
//	})
//	reg.Update(func(tx *characteristic.Tx) error {
//	    _, err := tx.Toggle("outlet-1")
//	    return err
//	})
package characteristic
