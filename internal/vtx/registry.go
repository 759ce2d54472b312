package vtx

import "sync"

// Registry holds the single active transmitter and dispatches operations
// to it.
//
// Registering a device replaces any previous one unconditionally; the last
// registration wins. Every read returns ok=false when no device is
// registered or the device lacks the operation, and every write is then a
// silent no-op. Set-operations are bounds-checked against the Capability
// captured at registration and dropped when out of range.
//
// All public methods are thread-safe. One mutex protects the slot and is
// held across each device call, so device operations are serialised.
type Registry struct {
	mu         sync.Mutex
	device     Device
	capability Capability
	generation uint64

	logger   Logger
	observer Observer
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:   noopLogger{},
		observer: noopObserver{},
	}
}

// SetLogger sets the logger for the registry.
// A nil logger disables logging.
func (r *Registry) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	r.mu.Lock()
	r.logger = logger
	r.mu.Unlock()
}

// SetObserver sets the observer notified of dispatched commands.
func (r *Registry) SetObserver(observer Observer) {
	if observer == nil {
		observer = noopObserver{}
	}
	r.mu.Lock()
	r.observer = observer
	r.mu.Unlock()
}

// Register makes dev the active transmitter, replacing any previous one.
//
// The capability is captured once here and used for bounds checks until
// the next registration. Every call increments Generation, which the
// scheduler uses to restart its phase and power machine.
//
// Parameters:
//   - dev: Transmitter to activate; nil leaves the registry empty
func (r *Registry) Register(dev Device) {
	r.mu.Lock()
	defer r.mu.Unlock()

	replaced := r.device != nil
	r.device = dev
	r.capability = Capability{}
	if dev != nil {
		r.capability = dev.Capability()
	}
	r.generation++

	if dev == nil {
		r.logger.Info("vtx device unregistered")
		return
	}
	r.logger.Info("vtx device registered",
		"type", deviceTypeOf(dev),
		"bands", r.capability.BandCount,
		"channels", r.capability.ChannelCount,
		"powers", r.capability.PowerCount,
		"replaced", replaced,
	)
}

// IsRegistered reports whether a device is present.
func (r *Registry) IsRegistered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.device != nil
}

// Generation increments on every Register call. Callers compare it to
// notice that the device was replaced.
func (r *Registry) Generation() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.generation
}

// Capability returns the active device's capability.
func (r *Registry) Capability() (Capability, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return Capability{}, false
	}
	return r.capability, true
}

// Supports reports whether the active device implements a set-operation.
func (r *Registry) Supports(op Op) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ok bool
	switch op {
	case OpSetBandChannel:
		_, ok = r.device.(BandChannelSetter)
	case OpSetFrequency:
		_, ok = r.device.(FrequencySetter)
	case OpSetPowerIndex:
		_, ok = r.device.(PowerIndexSetter)
	case OpSetPitMode:
		_, ok = r.device.(PitModeSetter)
	}
	return ok
}

// SetBandChannel changes band and channel (1-origin). Dropped unless
// band <= BandCount and channel <= ChannelCount.
func (r *Registry) SetBandChannel(band, channel uint8) {
	r.mu.Lock()
	setter, ok := r.device.(BandChannelSetter)
	if !ok || band > r.capability.BandCount || channel > r.capability.ChannelCount {
		r.mu.Unlock()
		return
	}
	setter.SetBandChannel(band, channel)
	logger, observer := r.logger, r.observer
	r.mu.Unlock()

	logger.Debug("vtx band/channel set", "band", band, "channel", channel)
	observer.CommandIssued(Command{Op: OpSetBandChannel, Band: band, Channel: channel})
}

// SetPowerIndex changes the power index (0-origin, 0 is off). Dropped
// unless index <= PowerCount.
func (r *Registry) SetPowerIndex(index uint8) {
	r.mu.Lock()
	setter, ok := r.device.(PowerIndexSetter)
	if !ok || index > r.capability.PowerCount {
		r.mu.Unlock()
		return
	}
	setter.SetPowerIndex(index)
	logger, observer := r.logger, r.observer
	r.mu.Unlock()

	logger.Debug("vtx power set", "index", index)
	observer.CommandIssued(Command{Op: OpSetPowerIndex, PowerIndex: index})
}

// SetFrequency tunes to freqMHz. Frequency validity is the driver's concern.
func (r *Registry) SetFrequency(freqMHz uint16) {
	r.mu.Lock()
	setter, ok := r.device.(FrequencySetter)
	if !ok {
		r.mu.Unlock()
		return
	}
	setter.SetFrequency(freqMHz)
	logger, observer := r.logger, r.observer
	r.mu.Unlock()

	logger.Debug("vtx frequency set", "mhz", freqMHz)
	observer.CommandIssued(Command{Op: OpSetFrequency, FrequencyMHz: freqMHz})
}

// SetPitMode enters or leaves pit mode.
func (r *Registry) SetPitMode(on bool) {
	r.mu.Lock()
	setter, ok := r.device.(PitModeSetter)
	if !ok {
		r.mu.Unlock()
		return
	}
	setter.SetPitMode(on)
	logger, observer := r.logger, r.observer
	r.mu.Unlock()

	logger.Debug("vtx pit mode set", "on", on)
	observer.CommandIssued(Command{Op: OpSetPitMode, PitMode: on})
}

// BandChannel reads the live band and channel from the device.
func (r *Registry) BandChannel() (band, channel uint8, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	getter, has := r.device.(BandChannelGetter)
	if !has {
		return 0, 0, false
	}
	return getter.BandChannel()
}

// PowerIndex reads the live power index from the device.
func (r *Registry) PowerIndex() (uint8, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	getter, has := r.device.(PowerIndexGetter)
	if !has {
		return 0, false
	}
	return getter.PowerIndex()
}

// Frequency reads the live frequency in MHz from the device.
func (r *Registry) Frequency() (uint16, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	getter, has := r.device.(FrequencyGetter)
	if !has {
		return 0, false
	}
	return getter.Frequency()
}

// PitMode reads the live pit mode state from the device.
func (r *Registry) PitMode() (bool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	getter, has := r.device.(PitModeGetter)
	if !has {
		return false, false
	}
	return getter.PitMode()
}

// DeviceType returns the device's protocol family, or DeviceTypeUnknown
// when no device is registered or it does not report one.
func (r *Registry) DeviceType() DeviceType {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.device == nil {
		return DeviceTypeUnknown
	}
	return deviceTypeOf(r.device)
}

// Process runs the device's housekeeping hook if it has one.
// Returns false when nothing was called.
func (r *Registry) Process(now TimeUs) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.device.(Processor)
	if !ok {
		return false
	}
	p.Process(now)
	return true
}

func deviceTypeOf(dev Device) DeviceType {
	if typer, ok := dev.(DeviceTyper); ok {
		return typer.DeviceType()
	}
	return DeviceTypeUnknown
}
