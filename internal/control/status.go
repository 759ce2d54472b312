package control

import (
	"time"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Status is the retained status document. Live fields are omitted when the
// device cannot report them.
type Status struct {
	Registered  bool            `json:"registered"`
	DeviceType  string          `json:"device_type"`
	Capability  *vtx.Capability `json:"capability,omitempty"`
	Armed       bool            `json:"armed"`
	PowerState  string          `json:"power_state"`
	ArmedAtUs   uint32          `json:"armed_at_us,omitempty"`
	NextTask    string          `json:"next_task"`
	LastCycleUs uint32          `json:"last_cycle_us"`
	Cycles      uint64          `json:"cycles"`
	Desired     vtx.Settings    `json:"desired"`

	Band       *uint8  `json:"band,omitempty"`
	Channel    *uint8  `json:"channel,omitempty"`
	BandName   string  `json:"band_name,omitempty"`
	Frequency  *uint16 `json:"freq,omitempty"`
	PowerIndex *uint8  `json:"power_index,omitempty"`
	PitMode    *bool   `json:"pit,omitempty"`

	Timestamp string `json:"timestamp"`
}

// buildStatus assembles a status snapshot from the scheduler and the
// registered device.
func buildStatus(sched vtx.Status, live LiveReader, armed bool, desired vtx.Settings, now time.Time) Status {
	st := Status{
		Registered:  sched.Registered,
		DeviceType:  sched.DeviceType.String(),
		Armed:       armed,
		PowerState:  sched.PowerState.String(),
		NextTask:    sched.NextTask.String(),
		LastCycleUs: uint32(sched.LastCycle),
		Cycles:      sched.Cycles,
		Desired:     desired,
		Timestamp:   now.UTC().Format(time.RFC3339),
	}
	if sched.PowerState != vtx.PowerDisarmed {
		st.ArmedAtUs = uint32(sched.ArmedAt)
	}
	if !sched.Registered {
		return st
	}

	capability := sched.Capability
	st.Capability = &capability

	if band, channel, ok := live.BandChannel(); ok {
		st.Band, st.Channel = &band, &channel
		st.BandName = vtx.BandName(band)
	}
	if freq, ok := live.Frequency(); ok {
		st.Frequency = &freq
	}
	if power, ok := live.PowerIndex(); ok {
		st.PowerIndex = &power
	}
	if pit, ok := live.PitMode(); ok {
		st.PitMode = &pit
	}
	return st
}
