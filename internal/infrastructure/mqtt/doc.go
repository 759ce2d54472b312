// Package mqtt provides MQTT client connectivity for the VTX control core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after reconnects
//   - Last Will and Testament (LWT) for offline detection
//
// MQTT carries the control surface (desired settings, arm state, pit mode,
// status) and, with the mqtt driver, the link to a remote transmitter:
//
//	vtxcore ↔ broker ↔ transmitter bridge / ground station
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.VTXSettingsSet(), 1, handler)
//
// Use TLS (cfg.Broker.TLS) outside a bench setup; payloads are not
// encrypted beyond the transport.
package mqtt
