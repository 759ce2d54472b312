// Package vtx is the video-transmitter control core.
//
// It reconciles a desired transmitter configuration (band, channel, direct
// frequency, output power) against the live state reported by the attached
// transmitter, and ramps output power with the vehicle's arm state.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────────┐
//	│                        Scheduler (scheduler.go)                   │
//	│  Process(now) every tick ─▶ 10 Hz gate ─▶ alternate two tasks     │
//	│                                                                   │
//	│   ┌────────────────────┐            ┌─────────────────────────┐   │
//	│   │ band/channel task  │            │ PowerMachine (power.go) │   │
//	│   │ (suppressed armed) │            │ Disarmed/ArmDelay/Armed │   │
//	│   └─────────┬──────────┘            └────────────┬────────────┘   │
//	└─────────────│────────────────────────────────────│────────────────┘
//	              ▼                                    ▼
//	┌───────────────────────────────────────────────────────────────────┐
//	│                     Registry (registry.go)                        │
//	│  single Device slot • capability bounds • optional operations     │
//	└───────────────────────────────────────────────────────────────────┘
//
// # Key Types
//
//   - Device: a registered transmitter; every other operation is an
//     optional interface discovered by type assertion
//   - Capability: band/channel/power counts captured at registration
//   - Settings: desired configuration, read fresh on every cycle
//   - PowerState: Disarmed, ArmDelay, Armed
//   - TimeUs: wrapping microsecond timestamp, compared with CmpTimeUs
//
// # Usage
//
//	reg := vtx.NewRegistry()
//	reg.Register(driver)
//
//	store := vtx.NewSettingsStore(vtx.DefaultSettings())
//	arm := &vtx.ArmFlag{}
//
//	sched := vtx.NewScheduler(reg, store, arm)
//	for range ticker.C {
//	    sched.Process(vtx.TimeUs(time.Since(start).Microseconds()))
//	}
//
// # Thread Safety
//
// The Registry and SettingsStore are safe for concurrent use. The Scheduler
// is driven from one goroutine; Status may be called from any goroutine.
// Nothing in this package blocks beyond the device calls themselves.
package vtx
