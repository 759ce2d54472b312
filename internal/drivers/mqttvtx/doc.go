// Package mqttvtx drives a video transmitter that lives behind an MQTT
// bridge.
//
// The remote side publishes its live state, retained, on
// vtxcore/state/vtx/<id> and accepts set-operations on
// vtxcore/command/vtx/<id>. Getters answer from the last state report and
// return ok=false until the first one arrives (or once it goes stale).
// Setters only record the latest intent per operation; the scheduler's
// housekeeping call (Process) hands pending commands to a bounded queue
// that a publisher goroutine drains, so the control tick never waits on
// the broker.
//
// State payload (every field optional, absent fields keep their cached
// value):
//
//	{"band":4,"channel":1,"freq":5800,"power_index":2,"pit":false}
//
// Command payload:
//
//	{"id":"<uuid>","op":"set_power_index","power_index":3,"issued_at":"..."}
package mqttvtx
