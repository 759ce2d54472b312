package vtx

import "fmt"

// Setting limits for 5.8 GHz analogue transmitters.
const (
	MinBand    = 1
	MaxBand    = 5
	MinChannel = 1
	MaxChannel = 8

	BandCount    = MaxBand - MinBand + 1
	ChannelCount = MaxChannel - MinChannel + 1

	DefaultBand    = 4
	DefaultChannel = 1

	// MaxFrequencyMHz is the highest frequency accepted for direct-frequency mode.
	MaxFrequencyMHz = 5999

	// PowerCount is the number of power levels on SmartAudio/Tramp class devices.
	PowerCount   = 5
	DefaultPower = 1
	MinPower     = 0
)

// DeviceType identifies the transmitter protocol family.
type DeviceType uint8

const (
	DeviceTypeUnsupported DeviceType = 0
	DeviceTypeRTC6705     DeviceType = 1
	DeviceTypeSmartAudio  DeviceType = 3
	DeviceTypeTramp       DeviceType = 4
	DeviceTypeUnknown     DeviceType = 0xFF
)

// String returns a human-readable device type name.
func (t DeviceType) String() string {
	switch t {
	case DeviceTypeUnsupported:
		return "unsupported"
	case DeviceTypeRTC6705:
		return "rtc6705"
	case DeviceTypeSmartAudio:
		return "smartaudio"
	case DeviceTypeTramp:
		return "tramp"
	case DeviceTypeUnknown:
		return "unknown"
	default:
		return fmt.Sprintf("devtype(%d)", uint8(t))
	}
}

// Capability describes what a registered transmitter supports.
// It is captured once at registration and does not change for the session.
type Capability struct {
	BandCount    uint8 `json:"band_count"`
	ChannelCount uint8 `json:"channel_count"`
	PowerCount   uint8 `json:"power_count"`
}

// bandNames are the single-letter band identifiers, 1-origin.
var bandNames = [BandCount]string{"A", "B", "E", "F", "R"}

// frequencyTable holds the standard 5.8 GHz channel plan in MHz,
// indexed [band-1][channel-1].
var frequencyTable = [BandCount][ChannelCount]uint16{
	{5865, 5845, 5825, 5805, 5785, 5765, 5745, 5725}, // A
	{5733, 5752, 5771, 5790, 5809, 5828, 5847, 5866}, // B
	{5705, 5685, 5665, 5645, 5885, 5905, 5925, 5945}, // E
	{5740, 5760, 5780, 5800, 5820, 5840, 5860, 5880}, // F (Airwave/Fatshark)
	{5658, 5695, 5732, 5769, 5806, 5843, 5880, 5917}, // R (Raceband)
}

// BandName returns the letter for a 1-origin band, or "" when out of range.
func BandName(band uint8) string {
	if band < MinBand || band > MaxBand {
		return ""
	}
	return bandNames[band-1]
}

// Frequency returns the frequency in MHz for a 1-origin band and channel.
// Returns false when either is outside the standard channel plan.
func Frequency(band, channel uint8) (uint16, bool) {
	if band < MinBand || band > MaxBand || channel < MinChannel || channel > MaxChannel {
		return 0, false
	}
	return frequencyTable[band-1][channel-1], true
}

// LookupBandChannel finds the band and channel for a frequency in the
// standard channel plan. The first match in band order wins.
func LookupBandChannel(freqMHz uint16) (band, channel uint8, ok bool) {
	for b := range frequencyTable {
		for c, f := range frequencyTable[b] {
			if f == freqMHz {
				return uint8(b + 1), uint8(c + 1), true
			}
		}
	}
	return 0, 0, false
}
