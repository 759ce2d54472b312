// Package simvtx provides a simulated video transmitter.
//
// The simulator behaves like a SmartAudio/Tramp class device: band/channel
// selection updates the reported frequency from the standard channel plan,
// and a direct frequency write maps back to a band/channel when the
// frequency is on the plan. Individual operations can be disabled to model
// devices that only implement part of the operation set.
//
// It is used by `driver: sim` and by tests of packages above the core.
package simvtx

import (
	"sync"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Options configures a simulated device.
type Options struct {
	DeviceType vtx.DeviceType
	Capability vtx.Capability

	// Initial live state.
	Band, Channel uint8
	PowerIndex    uint8

	// NoFrequency removes the frequency getter and setter.
	NoFrequency bool
	// NoPitMode removes the pit-mode getter and setter.
	NoPitMode bool
}

// DefaultOptions returns a full-featured SmartAudio-like device on A1.
func DefaultOptions() Options {
	return Options{
		DeviceType: vtx.DeviceTypeSmartAudio,
		Capability: vtx.Capability{
			BandCount:    vtx.BandCount,
			ChannelCount: vtx.ChannelCount,
			PowerCount:   vtx.PowerCount,
		},
		Band:    1,
		Channel: 1,
	}
}

// Device is a simulated transmitter. All methods are safe for concurrent use.
type Device struct {
	opts Options

	mu        sync.Mutex
	band      uint8
	channel   uint8
	freq      uint16
	power     uint8
	pit       bool
	offline   bool
	commands  []vtx.Command
	processed uint64
}

// New creates a simulated device.
//
// The returned value implements vtx.Device plus the optional operations
// selected by opts; see Build.
func New(opts Options) *Device {
	d := &Device{
		opts:    opts,
		band:    opts.Band,
		channel: opts.Channel,
		power:   opts.PowerIndex,
	}
	d.freq, _ = vtx.Frequency(opts.Band, opts.Channel)
	return d
}

// Build returns a vtx.Device exposing only the operations enabled in opts,
// together with the underlying simulator for inspection.
func Build(opts Options) (vtx.Device, *Device) {
	d := New(opts)
	switch {
	case opts.NoFrequency && opts.NoPitMode:
		return bandPowerOnly{d}, d
	case opts.NoFrequency:
		return noFrequency{d, d}, d
	case opts.NoPitMode:
		return noPitMode{d, d}, d
	default:
		return d, d
	}
}

// Capability implements vtx.Device.
func (d *Device) Capability() vtx.Capability { return d.opts.Capability }

// DeviceType implements vtx.DeviceTyper.
func (d *Device) DeviceType() vtx.DeviceType { return d.opts.DeviceType }

// BandChannel implements vtx.BandChannelGetter.
func (d *Device) BandChannel() (uint8, uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.offline {
		return 0, 0, false
	}
	return d.band, d.channel, true
}

// SetBandChannel implements vtx.BandChannelSetter.
func (d *Device) SetBandChannel(band, channel uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(vtx.Command{Op: vtx.OpSetBandChannel, Band: band, Channel: channel})
	d.band, d.channel = band, channel
	if freq, ok := vtx.Frequency(band, channel); ok {
		d.freq = freq
	}
}

// Frequency implements vtx.FrequencyGetter.
func (d *Device) Frequency() (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.offline {
		return 0, false
	}
	return d.freq, true
}

// SetFrequency implements vtx.FrequencySetter. An off-plan frequency puts
// the device in band 0.
func (d *Device) SetFrequency(mhz uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(vtx.Command{Op: vtx.OpSetFrequency, FrequencyMHz: mhz})
	d.freq = mhz
	if band, channel, ok := vtx.LookupBandChannel(mhz); ok {
		d.band, d.channel = band, channel
	} else {
		d.band, d.channel = 0, 0
	}
}

// PowerIndex implements vtx.PowerIndexGetter.
func (d *Device) PowerIndex() (uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.offline {
		return 0, false
	}
	return d.power, true
}

// SetPowerIndex implements vtx.PowerIndexSetter.
func (d *Device) SetPowerIndex(index uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(vtx.Command{Op: vtx.OpSetPowerIndex, PowerIndex: index})
	d.power = index
}

// PitMode implements vtx.PitModeGetter.
func (d *Device) PitMode() (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.offline {
		return false, false
	}
	return d.pit, true
}

// SetPitMode implements vtx.PitModeSetter.
func (d *Device) SetPitMode(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.record(vtx.Command{Op: vtx.OpSetPitMode, PitMode: on})
	d.pit = on
}

// Process implements vtx.Processor.
func (d *Device) Process(vtx.TimeUs) {
	d.mu.Lock()
	d.processed++
	d.mu.Unlock()
}

// SetOffline makes every getter report "cannot read" until cleared.
// Setters keep working, modelling a device with a one-way link.
func (d *Device) SetOffline(offline bool) {
	d.mu.Lock()
	d.offline = offline
	d.mu.Unlock()
}

// Commands returns a copy of every set-operation received.
func (d *Device) Commands() []vtx.Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]vtx.Command(nil), d.commands...)
}

// ProcessCount returns how many times the housekeeping hook ran.
func (d *Device) ProcessCount() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.processed
}

// maxCommands bounds the recorded history on long-running simulations.
const maxCommands = 1024

func (d *Device) record(cmd vtx.Command) {
	if len(d.commands) == maxCommands {
		copy(d.commands, d.commands[1:])
		d.commands = d.commands[:maxCommands-1]
	}
	d.commands = append(d.commands, cmd)
}

// Partial views. Each embeds an interface carrying only the operations it
// exposes, so the registry's type assertions see the others as absent.

type coreOps interface {
	vtx.Device
	vtx.DeviceTyper
	vtx.BandChannelGetter
	vtx.BandChannelSetter
	vtx.PowerIndexGetter
	vtx.PowerIndexSetter
	vtx.Processor
}

type frequencyOps interface {
	vtx.FrequencyGetter
	vtx.FrequencySetter
}

type pitOps interface {
	vtx.PitModeGetter
	vtx.PitModeSetter
}

type bandPowerOnly struct{ coreOps }

type noFrequency struct {
	coreOps
	pitOps
}

type noPitMode struct {
	coreOps
	frequencyOps
}
