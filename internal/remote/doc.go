// Package remote bridges the characteristic registry to MQTT controllers.
//
// Topics, under {prefix}/{device}:
//
//	characteristic/{id}/state   retained value: ON/OFF, decimal, or text
//	characteristic/{id}/set     write from a paired controller
//	button/{control}/gesture    classified press from the button classifier
//	pair                        {"controller_id": "...", "setup_code": "..."}
//	identify                    any payload blinks the indicator
//	system/reset                EXECUTE starts a factory reset
//
// When a discovery prefix is configured the bridge also publishes Home
// Assistant discovery configs, so outlets appear as switches without any
// manual setup.
//
// Writes and resets are only accepted once a controller has paired with
// the setup code. Gestures and identify are always accepted.
package remote
