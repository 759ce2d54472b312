package vtx

// PowerState is the arm-gated power ramp state.
type PowerState uint8

const (
	PowerDisarmed PowerState = iota
	PowerArmDelay
	PowerArmed
)

// String returns the state name.
func (s PowerState) String() string {
	switch s {
	case PowerArmDelay:
		return "arm_delay"
	case PowerArmed:
		return "armed"
	default:
		return "disarmed"
	}
}

// ArmDelayUs is how long the transmitter stays at low power after arming.
const ArmDelayUs = 3_000_000

// PowerDevice is the slice of the registry the power machine needs.
type PowerDevice interface {
	PowerIndex() (uint8, bool)
	SetPowerIndex(index uint8)
}

// PowerMachine ramps output power with the arm state.
//
//	Disarmed --arm--> ArmDelay --(> ArmDelayUs)--> Armed
//	    ^                 |                          |
//	    +-----disarm------+----------disarm----------+
//
// Low power is enforced on every cycle spent disarmed. High power is set
// once, on the ArmDelay to Armed transition. The zero value is Disarmed.
type PowerMachine struct {
	state   PowerState
	armedAt TimeUs
}

// State returns the current state.
func (m *PowerMachine) State() PowerState {
	return m.state
}

// ArmedAt returns when the current arm began. Meaningful only outside
// Disarmed.
func (m *PowerMachine) ArmedAt() TimeUs {
	return m.armedAt
}

// Reset returns the machine to Disarmed.
func (m *PowerMachine) Reset() {
	m.state = PowerDisarmed
	m.armedAt = 0
}

// Step runs one power reconciliation cycle and reports whether the device
// still needs its housekeeping call this cycle. Only the steady Armed
// state reports false.
func (m *PowerMachine) Step(now TimeUs, armed bool, settings Settings, dev PowerDevice) bool {
	switch m.state {
	case PowerDisarmed:
		if armed {
			m.armedAt = now
			m.state = PowerArmDelay
			return true
		}
		applyPower(dev, settings.LoPower)
		return true

	case PowerArmDelay:
		if !armed {
			m.state = PowerDisarmed
			return true
		}
		if CmpTimeUs(now, m.armedAt) > ArmDelayUs {
			applyPower(dev, settings.HiPower)
			m.state = PowerArmed
		}
		return true

	case PowerArmed:
		if !armed {
			m.state = PowerDisarmed
			return true
		}
		return false
	}

	// Unreachable for valid states; recover to a defined one.
	m.Reset()
	return true
}

// applyPower sets index unless the device already reports it. A device
// that cannot report its power gets the set unconditionally.
func applyPower(dev PowerDevice, index uint8) {
	if current, ok := dev.PowerIndex(); ok && current == index {
		return
	}
	dev.SetPowerIndex(index)
}
