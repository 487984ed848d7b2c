package mqtt

import (
	"fmt"
	"strings"
)

// Availability payloads published on the status topic. Home Assistant
// expects these exact strings by default.
const (
	PayloadOnline  = "online"
	PayloadOffline = "offline"
)

// Topics builds the topics of one power strip. Every topic lives under
// {prefix}/{device}:
//
//	powerstrip/powerstrip-001/status
//	powerstrip/powerstrip-001/characteristic/outlet-1/state
//	powerstrip/powerstrip-001/characteristic/outlet-1/set
//	powerstrip/powerstrip-001/button/primary/gesture
//	powerstrip/powerstrip-001/pair
//	powerstrip/powerstrip-001/identify
//	powerstrip/powerstrip-001/system/reset
type Topics struct {
	Prefix   string
	DeviceID string
}

// NewTopics returns the topic builder for deviceID under prefix.
func NewTopics(prefix, deviceID string) Topics {
	return Topics{Prefix: prefix, DeviceID: deviceID}
}

// Base returns {prefix}/{device}.
func (t Topics) Base() string {
	return fmt.Sprintf("%s/%s", t.Prefix, t.DeviceID)
}

// Status returns the retained availability topic, also used for the LWT.
func (t Topics) Status() string {
	return t.Base() + "/status"
}

// CharacteristicState returns the retained state topic of a characteristic.
func (t Topics) CharacteristicState(id string) string {
	return fmt.Sprintf("%s/characteristic/%s/state", t.Base(), id)
}

// CharacteristicSet returns the command topic of a characteristic.
func (t Topics) CharacteristicSet(id string) string {
	return fmt.Sprintf("%s/characteristic/%s/set", t.Base(), id)
}

// AllCharacteristicSets matches every characteristic command topic.
func (t Topics) AllCharacteristicSets() string {
	return t.CharacteristicSet("+")
}

// ButtonGesture returns the topic the gesture classifier publishes to.
func (t Topics) ButtonGesture(control string) string {
	return fmt.Sprintf("%s/button/%s/gesture", t.Base(), control)
}

// AllButtonGestures matches every control's gesture topic.
func (t Topics) AllButtonGestures() string {
	return t.ButtonGesture("+")
}

// Pair returns the pairing request topic.
func (t Topics) Pair() string {
	return t.Base() + "/pair"
}

// Identify returns the identify request topic.
func (t Topics) Identify() string {
	return t.Base() + "/identify"
}

// SystemReset returns the factory reset command topic.
func (t Topics) SystemReset() string {
	return t.Base() + "/system/reset"
}

// ParseCharacteristicSet extracts the characteristic ID from a command
// topic.
func (t Topics) ParseCharacteristicSet(topic string) (string, bool) {
	return t.segment(topic, "characteristic", "set")
}

// ParseButtonGesture extracts the control from a gesture topic.
func (t Topics) ParseButtonGesture(topic string) (string, bool) {
	return t.segment(topic, "button", "gesture")
}

// segment matches {base}/{kind}/{x}/{leaf} and returns x.
func (t Topics) segment(topic, kind, leaf string) (string, bool) {
	rest, ok := strings.CutPrefix(topic, t.Base()+"/"+kind+"/")
	if !ok {
		return "", false
	}
	x, ok := strings.CutSuffix(rest, "/"+leaf)
	if !ok || x == "" || strings.Contains(x, "/") {
		return "", false
	}
	return x, true
}

// DiscoveryConfig returns a Home Assistant discovery topic:
// {discoveryPrefix}/{component}/{node}/{object}/config.
func DiscoveryConfig(discoveryPrefix, component, node, object string) string {
	return fmt.Sprintf("%s/%s/%s/%s/config", discoveryPrefix, component, node, object)
}
