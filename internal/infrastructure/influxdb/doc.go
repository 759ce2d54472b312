// Package influxdb records VTX telemetry in InfluxDB v2.
//
// It wraps the official influxdb-client-go v2 library for connection
// management, non-blocking batched writes and health monitoring.
//
// # Measurements
//
//   - vtx_command: every set-operation that reached the transmitter (tag op)
//   - vtx_power_transition: power state machine changes (tags from, to)
//   - vtx_state: periodic live-state snapshot (tag device_type)
//
// Every point carries a device_id tag.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB, cfg.VTX.DeviceID)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	observers = append(observers, client)
//
// # Error Handling
//
// Writes never block the caller; batch failures are delivered to the
// SetOnError callback. Connection and health check errors are returned
// directly.
package influxdb
