package influxdb

import (
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Measurements written by the client.
const (
	MeasurementCommand = "vtx_command"
	MeasurementPower   = "vtx_power_transition"
	MeasurementState   = "vtx_state"
)

// LiveReader reads the registered device's live state.
// *vtx.Registry satisfies it.
type LiveReader interface {
	BandChannel() (band, channel uint8, ok bool)
	Frequency() (uint16, bool)
	PowerIndex() (uint8, bool)
	PitMode() (bool, bool)
}

// WriteCommand records a set-operation that reached the device.
func (c *Client) WriteCommand(cmd vtx.Command) {
	fields := map[string]interface{}{}
	switch cmd.Op {
	case vtx.OpSetBandChannel:
		fields["band"] = int64(cmd.Band)
		fields["channel"] = int64(cmd.Channel)
	case vtx.OpSetFrequency:
		fields["freq_mhz"] = int64(cmd.FrequencyMHz)
	case vtx.OpSetPowerIndex:
		fields["power_index"] = int64(cmd.PowerIndex)
	case vtx.OpSetPitMode:
		fields["pit"] = cmd.PitMode
	default:
		return
	}
	c.writePoint(MeasurementCommand, map[string]string{"op": string(cmd.Op)}, fields)
}

// WritePowerTransition records a power state change. now is the core's
// microsecond clock at the transition.
func (c *Client) WritePowerTransition(from, to vtx.PowerState, now vtx.TimeUs) {
	c.writePoint(MeasurementPower,
		map[string]string{"from": from.String(), "to": to.String()},
		map[string]interface{}{"state": int64(to), "now_us": int64(now)},
	)
}

// WriteState records a snapshot of the scheduler and the live device
// state. Values the device cannot report are left out.
func (c *Client) WriteState(st vtx.Status, live LiveReader, armed bool) {
	fields := map[string]interface{}{
		"registered":  st.Registered,
		"armed":       armed,
		"power_state": int64(st.PowerState),
		"cycles":      int64(st.Cycles),
	}
	if st.Registered {
		if band, channel, ok := live.BandChannel(); ok {
			fields["band"] = int64(band)
			fields["channel"] = int64(channel)
		}
		if freq, ok := live.Frequency(); ok {
			fields["freq_mhz"] = int64(freq)
		}
		if power, ok := live.PowerIndex(); ok {
			fields["power_index"] = int64(power)
		}
		if pit, ok := live.PitMode(); ok {
			fields["pit"] = pit
		}
	}
	c.writePoint(MeasurementState, map[string]string{"device_type": st.DeviceType.String()}, fields)
}

// writePoint adds the device tag and queues the point.
func (c *Client) writePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}
	if c.deviceID != "" {
		tags["device_id"] = c.deviceID
	}
	c.writer.WritePoint(write.NewPoint(measurement, tags, fields, c.now()))
}

// CommandIssued implements vtx.Observer.
func (c *Client) CommandIssued(cmd vtx.Command) {
	c.WriteCommand(cmd)
}

// CycleCompleted implements vtx.Observer. Cycles run at 10 Hz and are
// counted by the metrics collector instead.
func (c *Client) CycleCompleted(vtx.Task, bool) {}

// PowerStateChanged implements vtx.Observer.
func (c *Client) PowerStateChanged(from, to vtx.PowerState, now vtx.TimeUs) {
	c.WritePowerTransition(from, to, now)
}

var _ vtx.Observer = (*Client)(nil)
