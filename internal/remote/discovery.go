package remote

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/nerrad567/gray-logic-powerstrip/internal/characteristic"
	"github.com/nerrad567/gray-logic-powerstrip/internal/infrastructure/mqtt"
)

// Home Assistant payloads.
const (
	payloadOn    = "ON"
	payloadOff   = "OFF"
	payloadReset = "EXECUTE"
	payloadPress = "PRESS"
)

// DeviceInfo is the accessory information advertised in discovery.
type DeviceInfo struct {
	ID           string
	Name         string
	Manufacturer string
	Model        string
	Firmware     string
}

// IntRange bounds an int characteristic in discovery.
type IntRange struct {
	Min int
	Max int
}

// discoveryMessage is one retained discovery config.
type discoveryMessage struct {
	Topic   string
	Payload map[string]any
}

func (b *Bridge) deviceInfo() map[string]any {
	return map[string]any{
		"identifiers":  []string{b.opts.Device.ID},
		"name":         b.opts.Device.Name,
		"manufacturer": b.opts.Device.Manufacturer,
		"model":        b.opts.Device.Model,
		"sw_version":   b.opts.Device.Firmware,
	}
}

// discoveryBase creates a payload with the fields every entity carries.
func (b *Bridge) discoveryBase(name, object, commandTopic, stateTopic string) map[string]any {
	payload := map[string]any{
		"name":               name,
		"unique_id":          b.uniqueID(object),
		"availability_topic": b.topics.Status(),
		"device":             b.deviceInfo(),
	}
	if commandTopic != "" {
		payload["command_topic"] = commandTopic
	}
	if stateTopic != "" {
		payload["state_topic"] = stateTopic
	}
	return payload
}

func (b *Bridge) uniqueID(object string) string {
	return nodeID(b.opts.Device.ID) + "_" + nodeID(object)
}

// nodeID maps an identifier onto the characters Home Assistant allows in
// discovery topics.
func nodeID(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// discoveryMessages builds one entity per characteristic plus the
// identify and reset buttons:
//
//   - writable bools (the outlets among them) become switches;
//   - writable ints become numbers, bounded by Options.Ranges;
//   - read-only entries become diagnostic sensors.
func (b *Bridge) discoveryMessages(entries []characteristic.Info) []discoveryMessage {
	node := nodeID(b.opts.Device.ID)
	prefix := b.opts.DiscoveryPrefix
	msgs := make([]discoveryMessage, 0, len(entries)+2)

	for _, e := range entries {
		name := e.Label
		if name == "" {
			name = e.ID
		}
		state := b.topics.CharacteristicState(e.ID)

		var component string
		var payload map[string]any
		switch {
		case e.ReadOnly:
			component = "sensor"
			payload = b.discoveryBase(name, e.ID, "", state)
			payload["entity_category"] = "diagnostic"
		case e.Kind == characteristic.KindBool:
			component = "switch"
			payload = b.discoveryBase(name, e.ID, b.topics.CharacteristicSet(e.ID), state)
			payload["payload_on"] = payloadOn
			payload["payload_off"] = payloadOff
			payload["optimistic"] = false
			if e.Outlet {
				payload["device_class"] = "outlet"
			} else {
				payload["entity_category"] = "config"
			}
		case e.Kind == characteristic.KindInt:
			component = "number"
			payload = b.discoveryBase(name, e.ID, b.topics.CharacteristicSet(e.ID), state)
			payload["mode"] = "box"
			payload["entity_category"] = "config"
			if r, ok := b.opts.Ranges[e.ID]; ok {
				payload["min"] = r.Min
				payload["max"] = r.Max
			}
		default:
			component = "text"
			payload = b.discoveryBase(name, e.ID, b.topics.CharacteristicSet(e.ID), state)
			payload["entity_category"] = "config"
		}
		msgs = append(msgs, discoveryMessage{
			Topic:   mqtt.DiscoveryConfig(prefix, component, node, nodeID(e.ID)),
			Payload: payload,
		})
	}

	identify := b.discoveryBase("Identify", "identify", b.topics.Identify(), "")
	identify["device_class"] = "identify"
	identify["payload_press"] = payloadPress
	identify["entity_category"] = "config"
	msgs = append(msgs, discoveryMessage{
		Topic:   mqtt.DiscoveryConfig(prefix, "button", node, "identify"),
		Payload: identify,
	})

	reset := b.discoveryBase("Factory Reset", "factory_reset", b.topics.SystemReset(), "")
	reset["payload_press"] = payloadReset
	reset["entity_category"] = "diagnostic"
	reset["icon"] = "mdi:restore-alert"
	msgs = append(msgs, discoveryMessage{
		Topic:   mqtt.DiscoveryConfig(prefix, "button", node, "factory_reset"),
		Payload: reset,
	})

	return msgs
}

// publishDiscovery publishes every discovery config retained. It is a
// no-op when no discovery prefix is configured.
func (b *Bridge) publishDiscovery() error {
	if b.opts.DiscoveryPrefix == "" {
		return nil
	}
	for _, m := range b.discoveryMessages(b.registry.Entries()) {
		data, err := json.Marshal(m.Payload)
		if err != nil {
			return fmt.Errorf("marshal discovery payload for %s: %w", m.Topic, err)
		}
		if err := b.transport.Publish(m.Topic, data, b.opts.QoS, true); err != nil {
			return fmt.Errorf("publish discovery %s: %w", m.Topic, err)
		}
	}
	return nil
}

// encodeState formats a value for a state topic.
func encodeState(v characteristic.Value) []byte {
	if v.Kind() == characteristic.KindBool {
		if v.Bool() {
			return []byte(payloadOn)
		}
		return []byte(payloadOff)
	}
	return []byte(v.String())
}
