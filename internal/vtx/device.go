package vtx

// Device is a transmitter driver that can be registered with the Registry.
//
// Only Capability is mandatory. Every other operation is an optional
// interface below; the Registry discovers them by type assertion and treats
// a missing interface as "unsupported", never as an error.
type Device interface {
	Capability() Capability
}

// BandChannelGetter reports the live band and channel (1-origin).
// ok is false when the device cannot currently report them.
type BandChannelGetter interface {
	BandChannel() (band, channel uint8, ok bool)
}

// BandChannelSetter changes band and channel (1-origin).
type BandChannelSetter interface {
	SetBandChannel(band, channel uint8)
}

// FrequencyGetter reports the live frequency in MHz.
type FrequencyGetter interface {
	Frequency() (mhz uint16, ok bool)
}

// FrequencySetter tunes directly to a frequency in MHz.
type FrequencySetter interface {
	SetFrequency(mhz uint16)
}

// PowerIndexGetter reports the live power index (0-origin, 0 is off).
type PowerIndexGetter interface {
	PowerIndex() (index uint8, ok bool)
}

// PowerIndexSetter changes the power index.
type PowerIndexSetter interface {
	SetPowerIndex(index uint8)
}

// PitModeGetter reports whether pit (ultra-low-power) mode is active.
type PitModeGetter interface {
	PitMode() (on bool, ok bool)
}

// PitModeSetter enters or leaves pit mode.
type PitModeSetter interface {
	SetPitMode(on bool)
}

// DeviceTyper reports the transmitter protocol family.
type DeviceTyper interface {
	DeviceType() DeviceType
}

// Processor is the driver's periodic housekeeping hook, called from the
// scheduler's tick. It must not block.
type Processor interface {
	Process(now TimeUs)
}

// Op names a device set-operation.
type Op string

const (
	OpSetBandChannel Op = "set_band_channel"
	OpSetFrequency   Op = "set_frequency"
	OpSetPowerIndex  Op = "set_power_index"
	OpSetPitMode     Op = "set_pit_mode"
)

// Command is a set-operation that was dispatched to the device.
// Only the fields relevant to Op are meaningful.
type Command struct {
	Op           Op
	Band         uint8
	Channel      uint8
	FrequencyMHz uint16
	PowerIndex   uint8
	PitMode      bool
}
