// Package mqtt connects the power strip to an MQTT broker.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support, restored on reconnect
//   - Last Will and Testament on the strip's status topic
//
// MQTT is the strip's remote-control transport. Controllers (Home
// Assistant, a phone app, a hub) read retained state topics and write
// command topics; the classifier on the button board publishes gestures.
//
//	Controller ↔ MQTT Broker ↔ Power strip ↔ Button board
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) whenever the broker is not on the device
//   - Broker credentials come from the provisioning file
//   - Pairing requests carry the setup code in clear text; rely on TLS
//
// # Usage
//
//	topics := mqtt.NewTopics(cfg.MQTT.TopicPrefix, cfg.Device.ID)
//	client, err := mqtt.Connect(cfg.MQTT, topics)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(topics.AllCharacteristicSets(), 1,
//	    func(topic string, payload []byte) error {
//	        id, _ := topics.ParseCharacteristicSet(topic)
//	        ...
//	    })
package mqtt
