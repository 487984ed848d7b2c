// Package gesture turns classified button presses into device actions.
//
// A separate classifier (firmware on the button, or an MQTT publisher)
// decides whether a press was single, double, long or very long. This
// package only looks the gesture up in a binding table and runs the bound
// actions against the characteristic registry. Default bindings for the
// strip's primary button:
//
//	single     toggle the outlet, only on single-outlet strips
//	double     toggle every outlet, in declaration order
//	long       unbound (configurable per device)
//	very_long  factory reset
//
// Bindings can be overridden from configuration with action names such as
// "toggle:outlet-2", "all-off" or "identify".
package gesture
