package vtx

import "sync"

// CyclePeriodUs is the reconciliation period (10 Hz).
const CyclePeriodUs = 100_000

// Scheduler reconciles desired settings against the registered device.
//
// Process is called on every main-loop tick. It rate-limits itself to one
// reconciliation cycle per CyclePeriodUs and alternates strictly between
// the band/channel task and the power task, so at most one corrective
// command family is issued per period. After the period check it calls
// the device's housekeeping hook unless the task that just ran reported
// that nothing more is needed this cycle.
//
// When the registry reports a new registration, the phase restarts so the
// next due cycle runs band/channel, and the power machine returns to
// Disarmed so a device swapped in while armed goes through the arm delay
// and receives high power instead of staying at whatever it booted with.
type Scheduler struct {
	registry *Registry
	settings SettingsSource
	arm      ArmSource

	mu         sync.Mutex
	lastCycle  TimeUs
	phase      uint8
	generation uint64
	cycles     uint64
	power      PowerMachine

	logger   Logger
	observer Observer
}

// NewScheduler creates a scheduler over reg.
//
// Parameters:
//   - reg: Registry holding the transmitter to reconcile
//   - settings: Desired settings, read once per due cycle
//   - arm: Vehicle arm state, read synchronously by both tasks
//
// Returns:
//   - *Scheduler: Scheduler whose first due cycle runs the band/channel task
func NewScheduler(reg *Registry, settings SettingsSource, arm ArmSource) *Scheduler {
	return &Scheduler{
		registry: reg,
		settings: settings,
		arm:      arm,
		phase:    initialPhase,
		logger:   noopLogger{},
		observer: noopObserver{},
	}
}

// initialPhase makes the first due cycle run the band/channel task.
const initialPhase = 1

// SetLogger sets the logger for the scheduler.
// A nil logger disables logging.
func (s *Scheduler) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

// SetObserver sets the observer notified of cycles and power transitions.
func (s *Scheduler) SetObserver(observer Observer) {
	if observer == nil {
		observer = noopObserver{}
	}
	s.mu.Lock()
	s.observer = observer
	s.mu.Unlock()
}

// Process runs one tick. It never blocks beyond the device calls and does
// nothing when no device is registered.
func (s *Scheduler) Process(now TimeUs) {
	if !s.registry.IsRegistered() {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen := s.registry.Generation(); gen != s.generation {
		s.generation = gen
		s.phase = initialPhase
		s.power.Reset()
	}

	processNeeded := true
	elapsed := CmpTimeUs(now, s.lastCycle)
	if elapsed < 0 {
		// The clock is behind the last cycle (counter started far from
		// zero, or stepped back). Resynchronise without running a task so
		// the next cycle is still a full period away.
		s.lastCycle = now
	} else if elapsed > CyclePeriodUs {
		settings := s.settings.Settings()
		s.phase = (s.phase + 1) % 2

		task := Task(s.phase)
		switch task {
		case TaskBandChannel:
			processNeeded = s.reconcileBandChannel(settings)
		case TaskPower:
			processNeeded = s.reconcilePower(now, settings)
		}

		s.lastCycle = now
		s.cycles++
		s.observer.CycleCompleted(task, processNeeded)
	}

	if processNeeded {
		s.registry.Process(now)
	}
}

// reconcileBandChannel converges band/channel, or the direct frequency when
// band is 0. Changes are suppressed while armed so the video link is not
// interrupted in flight.
func (s *Scheduler) reconcileBandChannel(settings Settings) bool {
	if s.arm.IsArmed() {
		return true
	}

	if settings.Band != 0 {
		band, channel, ok := s.registry.BandChannel()
		if ok && (band != settings.Band || channel != settings.Channel) {
			s.registry.SetBandChannel(settings.Band, settings.Channel)
		}
		return true
	}

	if !s.registry.Supports(OpSetFrequency) {
		return true
	}
	freq, ok := s.registry.Frequency()
	if ok && freq != settings.FrequencyMHz {
		s.registry.SetFrequency(settings.FrequencyMHz)
	}
	return true
}

// reconcilePower steps the power machine and reports transitions.
func (s *Scheduler) reconcilePower(now TimeUs, settings Settings) bool {
	from := s.power.State()
	processNeeded := s.power.Step(now, s.arm.IsArmed(), settings, s.registry)
	if to := s.power.State(); to != from {
		s.logger.Info("vtx power state changed", "from", from, "to", to, "now_us", uint32(now))
		s.observer.PowerStateChanged(from, to, now)
	}
	return processNeeded
}

// Status is a point-in-time view of the scheduler.
type Status struct {
	Registered bool
	DeviceType DeviceType
	Capability Capability
	PowerState PowerState
	ArmedAt    TimeUs
	NextTask   Task
	LastCycle  TimeUs
	Cycles     uint64
}

// Status returns a snapshot. Safe to call from any goroutine.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	st := Status{
		PowerState: s.power.State(),
		ArmedAt:    s.power.ArmedAt(),
		NextTask:   Task((s.phase + 1) % 2),
		LastCycle:  s.lastCycle,
		Cycles:     s.cycles,
	}
	s.mu.Unlock()

	st.Capability, st.Registered = s.registry.Capability()
	st.DeviceType = s.registry.DeviceType()
	return st
}
