// Package strip assembles the power strip accessory from configuration.
//
// It opens one relay per configured outlet plus the indicator LED, and
// registers the characteristics a controller sees:
//
//	outlet-1 ... outlet-usb   bool, persisted, drives the relay
//	preserve-state            bool, persisted, gates restore at boot
//	check-interval            int, persisted, clamped to the update bounds
//	ota-trigger               bool, forwards to the update service
//	name, manufacturer,       read-only accessory information
//	model, serial,
//	firmware-revision
//
// Registration order is declaration order: outlets first, in the order
// configured, which is also the order "all outlets" actions use.
package strip
