package vtx

// Task identifies one of the two reconciliation tasks.
type Task uint8

const (
	TaskBandChannel Task = iota
	TaskPower
)

// String returns the task name used in logs and metric labels.
func (t Task) String() string {
	if t == TaskPower {
		return "power"
	}
	return "band_channel"
}

// Observer receives notifications from the core. Implementations are
// called synchronously from the tick and must not block.
type Observer interface {
	// CommandIssued is called after a set-operation reached the device.
	CommandIssued(cmd Command)

	// CycleCompleted is called after a due reconciliation cycle ran task.
	CycleCompleted(task Task, processNeeded bool)

	// PowerStateChanged is called on every power state transition.
	PowerStateChanged(from, to PowerState, now TimeUs)
}

// Observers fans notifications out to several observers in order.
type Observers []Observer

// CommandIssued implements Observer.
func (o Observers) CommandIssued(cmd Command) {
	for _, obs := range o {
		obs.CommandIssued(cmd)
	}
}

// CycleCompleted implements Observer.
func (o Observers) CycleCompleted(task Task, processNeeded bool) {
	for _, obs := range o {
		obs.CycleCompleted(task, processNeeded)
	}
}

// PowerStateChanged implements Observer.
func (o Observers) PowerStateChanged(from, to PowerState, now TimeUs) {
	for _, obs := range o {
		obs.PowerStateChanged(from, to, now)
	}
}

// noopObserver ignores everything.
type noopObserver struct{}

func (noopObserver) CommandIssued(Command)                             {}
func (noopObserver) CycleCompleted(Task, bool)                         {}
func (noopObserver) PowerStateChanged(PowerState, PowerState, TimeUs) {}

// Logger defines the logging interface used by the core.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
