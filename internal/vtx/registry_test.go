package vtx

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()

	if r.IsRegistered() {
		t.Fatal("IsRegistered() = true on empty registry")
	}
	if _, ok := r.Capability(); ok {
		t.Error("Capability() ok = true on empty registry")
	}
	if _, _, ok := r.BandChannel(); ok {
		t.Error("BandChannel() ok = true on empty registry")
	}
	if _, ok := r.PowerIndex(); ok {
		t.Error("PowerIndex() ok = true on empty registry")
	}
	if _, ok := r.Frequency(); ok {
		t.Error("Frequency() ok = true on empty registry")
	}
	if _, ok := r.PitMode(); ok {
		t.Error("PitMode() ok = true on empty registry")
	}
	if got := r.DeviceType(); got != DeviceTypeUnknown {
		t.Errorf("DeviceType() = %v, want %v", got, DeviceTypeUnknown)
	}
	if r.Process(0) {
		t.Error("Process() = true on empty registry")
	}

	// Writes must be silent no-ops.
	r.SetBandChannel(1, 1)
	r.SetPowerIndex(1)
	r.SetFrequency(5800)
	r.SetPitMode(true)
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	r := NewRegistry()
	first := newFakeDevice()
	second := newFakeDevice()
	second.capability = Capability{BandCount: 3, ChannelCount: 4, PowerCount: 2}
	second.devType = DeviceTypeTramp

	r.Register(first)
	gen := r.Generation()
	r.Register(second)

	if r.Generation() != gen+1 {
		t.Errorf("Generation() = %d, want %d", r.Generation(), gen+1)
	}
	capability, ok := r.Capability()
	if !ok {
		t.Fatal("Capability() ok = false after Register")
	}
	if capability != second.capability {
		t.Errorf("Capability() = %+v, want %+v", capability, second.capability)
	}
	if got := r.DeviceType(); got != DeviceTypeTramp {
		t.Errorf("DeviceType() = %v, want tramp", got)
	}

	r.SetPowerIndex(1)
	if len(first.Commands()) != 0 {
		t.Error("replaced device still received commands")
	}
	if len(second.Commands()) != 1 {
		t.Errorf("active device commands = %d, want 1", len(second.Commands()))
	}
}

func TestRegistry_RegisterNilClears(t *testing.T) {
	r := NewRegistry()
	r.Register(newFakeDevice())
	r.Register(nil)

	if r.IsRegistered() {
		t.Error("IsRegistered() = true after Register(nil)")
	}
}

func TestRegistry_SetBandChannelBounds(t *testing.T) {
	tests := []struct {
		name          string
		band, channel uint8
		wantDispatch  bool
	}{
		{name: "within capability", band: 4, channel: 1, wantDispatch: true},
		{name: "at upper bounds", band: 5, channel: 8, wantDispatch: true},
		{name: "band above count", band: 6, channel: 1, wantDispatch: false},
		{name: "channel above count", band: 1, channel: 9, wantDispatch: false},
		{name: "both above count", band: 255, channel: 255, wantDispatch: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			r := NewRegistry()
			r.Register(dev)

			r.SetBandChannel(tt.band, tt.channel)

			got := len(dev.Commands()) == 1
			if got != tt.wantDispatch {
				t.Errorf("SetBandChannel(%d, %d) dispatched = %v, want %v", tt.band, tt.channel, got, tt.wantDispatch)
			}
		})
	}
}

func TestRegistry_SetPowerIndexBounds(t *testing.T) {
	for index := 0; index <= 255; index++ {
		dev := newFakeDevice()
		r := NewRegistry()
		r.Register(dev)

		r.SetPowerIndex(uint8(index))

		dispatched := len(dev.Commands()) == 1
		if want := index <= int(dev.capability.PowerCount); dispatched != want {
			t.Fatalf("SetPowerIndex(%d) dispatched = %v, want %v", index, dispatched, want)
		}
	}
}

func TestRegistry_FrequencyAndPitUnvalidated(t *testing.T) {
	dev := newFakeDevice()
	r := NewRegistry()
	r.Register(dev)

	r.SetFrequency(65535)
	r.SetPitMode(true)

	want := []Command{
		{Op: OpSetFrequency, FrequencyMHz: 65535},
		{Op: OpSetPitMode, PitMode: true},
	}
	if diff := cmp.Diff(want, dev.Commands()); diff != "" {
		t.Errorf("commands mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_UnsupportedOperations(t *testing.T) {
	r := NewRegistry()
	r.Register(bareDevice{capability: Capability{BandCount: 5, ChannelCount: 8, PowerCount: 5}})

	if !r.IsRegistered() {
		t.Fatal("IsRegistered() = false")
	}
	if _, _, ok := r.BandChannel(); ok {
		t.Error("BandChannel() ok = true without getter")
	}
	if _, ok := r.PowerIndex(); ok {
		t.Error("PowerIndex() ok = true without getter")
	}
	if got := r.DeviceType(); got != DeviceTypeUnknown {
		t.Errorf("DeviceType() = %v, want unknown", got)
	}
	for _, op := range []Op{OpSetBandChannel, OpSetFrequency, OpSetPowerIndex, OpSetPitMode} {
		if r.Supports(op) {
			t.Errorf("Supports(%s) = true without setter", op)
		}
	}
	if r.Process(0) {
		t.Error("Process() = true without hook")
	}

	// Must not panic.
	r.SetBandChannel(1, 1)
	r.SetPowerIndex(0)
	r.SetFrequency(5800)
	r.SetPitMode(false)
}

func TestRegistry_ObserverSeesOnlyDispatched(t *testing.T) {
	obs := &recordingObserver{}
	r := NewRegistry()
	r.SetObserver(obs)
	r.Register(newFakeDevice())

	r.SetPowerIndex(9) // dropped
	r.SetPowerIndex(2)
	r.SetBandChannel(9, 9) // dropped
	r.SetBandChannel(3, 2)

	want := []Command{
		{Op: OpSetPowerIndex, PowerIndex: 2},
		{Op: OpSetBandChannel, Band: 3, Channel: 2},
	}
	if diff := cmp.Diff(want, obs.commands); diff != "" {
		t.Errorf("observed commands mismatch (-want +got):\n%s", diff)
	}
}

func TestRegistry_GettersReturnLiveValues(t *testing.T) {
	dev := newFakeDevice()
	r := NewRegistry()
	r.Register(dev)

	dev.mu.Lock()
	dev.band, dev.channel, dev.power, dev.freq, dev.pit = 2, 7, 3, 5847, true
	dev.mu.Unlock()

	if b, c, ok := r.BandChannel(); !ok || b != 2 || c != 7 {
		t.Errorf("BandChannel() = %d, %d, %v", b, c, ok)
	}
	if p, ok := r.PowerIndex(); !ok || p != 3 {
		t.Errorf("PowerIndex() = %d, %v", p, ok)
	}
	if f, ok := r.Frequency(); !ok || f != 5847 {
		t.Errorf("Frequency() = %d, %v", f, ok)
	}
	if on, ok := r.PitMode(); !ok || !on {
		t.Errorf("PitMode() = %v, %v", on, ok)
	}
}

func TestRegistry_SetLoggerNil(t *testing.T) {
	r := NewRegistry()
	r.SetLogger(nil)

	r.Register(newFakeDevice())
	r.Register(nil)
	if r.IsRegistered() {
		t.Error("IsRegistered() = true after registering nil")
	}
}
