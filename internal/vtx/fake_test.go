package vtx

import "sync"

// fakeDevice is a test transmitter implementing every optional operation.
// Each getter can be made to fail to model a device that cannot report.
type fakeDevice struct {
	mu sync.Mutex

	capability Capability
	devType    DeviceType

	band, channel uint8
	freq          uint16
	power         uint8
	pit           bool

	failBandChannel bool
	failFrequency   bool
	failPower       bool

	commands  []Command
	processed []TimeUs
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		capability: Capability{BandCount: 5, ChannelCount: 8, PowerCount: 5},
		devType:    DeviceTypeSmartAudio,
		band:       1,
		channel:    1,
		freq:       5865,
	}
}

func (d *fakeDevice) Capability() Capability { return d.capability }
func (d *fakeDevice) DeviceType() DeviceType { return d.devType }

func (d *fakeDevice) BandChannel() (uint8, uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failBandChannel {
		return 0, 0, false
	}
	return d.band, d.channel, true
}

func (d *fakeDevice) SetBandChannel(band, channel uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.band, d.channel = band, channel
	d.commands = append(d.commands, Command{Op: OpSetBandChannel, Band: band, Channel: channel})
}

func (d *fakeDevice) Frequency() (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failFrequency {
		return 0, false
	}
	return d.freq, true
}

func (d *fakeDevice) SetFrequency(mhz uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.freq = mhz
	d.commands = append(d.commands, Command{Op: OpSetFrequency, FrequencyMHz: mhz})
}

func (d *fakeDevice) PowerIndex() (uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.failPower {
		return 0, false
	}
	return d.power, true
}

func (d *fakeDevice) SetPowerIndex(index uint8) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.power = index
	d.commands = append(d.commands, Command{Op: OpSetPowerIndex, PowerIndex: index})
}

func (d *fakeDevice) PitMode() (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pit, true
}

func (d *fakeDevice) SetPitMode(on bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pit = on
	d.commands = append(d.commands, Command{Op: OpSetPitMode, PitMode: on})
}

func (d *fakeDevice) Process(now TimeUs) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.processed = append(d.processed, now)
}

func (d *fakeDevice) Commands() []Command {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Command(nil), d.commands...)
}

func (d *fakeDevice) ProcessCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.processed)
}

func (d *fakeDevice) ClearCommands() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.commands = nil
}

// bareDevice supports nothing beyond its capability.
type bareDevice struct {
	capability Capability
}

func (d bareDevice) Capability() Capability { return d.capability }

// recordingObserver captures observer notifications.
type recordingObserver struct {
	commands    []Command
	cycles      []Task
	transitions [][2]PowerState
}

func (o *recordingObserver) CommandIssued(cmd Command) {
	o.commands = append(o.commands, cmd)
}

func (o *recordingObserver) CycleCompleted(task Task, _ bool) {
	o.cycles = append(o.cycles, task)
}

func (o *recordingObserver) PowerStateChanged(from, to PowerState, _ TimeUs) {
	o.transitions = append(o.transitions, [2]PowerState{from, to})
}
