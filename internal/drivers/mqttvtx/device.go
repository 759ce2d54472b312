package mqttvtx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nerrad567/vtx-control-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// ErrAlreadyStarted is returned by Start on a running device.
var ErrAlreadyStarted = errors.New("mqttvtx: already started")

// Client is the subset of the MQTT client the driver needs.
// *mqtt.Client satisfies it.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// Logger defines the logging interface used by the driver.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Options configures the driver.
type Options struct {
	DeviceID   string
	DeviceType vtx.DeviceType
	Capability vtx.Capability
	QoS        byte

	// QueueSize bounds the outbound command queue.
	QueueSize int

	// StaleAfter invalidates cached state when no report arrived for this
	// long. Zero keeps state forever.
	StaleAfter time.Duration
}

// Stats counts driver activity.
type Stats struct {
	StateReports   uint64
	BadReports     uint64
	Published      uint64
	PublishErrors  uint64
	QueueFull      uint64
	LastReportedAt time.Time
}

// opOrder fixes the order pending commands are queued in.
var opOrder = [...]vtx.Op{vtx.OpSetBandChannel, vtx.OpSetFrequency, vtx.OpSetPowerIndex, vtx.OpSetPitMode}

// Device is a transmitter reached over MQTT. It implements vtx.Device and
// every optional operation. All methods are safe for concurrent use.
type Device struct {
	client Client
	opts   Options
	topics struct{ state, command string }

	mu       sync.Mutex
	state    StateReport
	reported time.Time
	pending  map[vtx.Op]vtx.Command
	stats    Stats

	queue  chan vtx.Command
	cancel context.CancelFunc
	done   chan struct{}

	now    func() time.Time
	newID  func() string
	logger Logger
}

// New creates a driver. Call Start before registering it.
//
// Parameters:
//   - client: MQTT client used for the state and command topics
//   - opts: Device identity, capability and queueing; a QueueSize below 1
//     is raised to 1
//
// Returns:
//   - *Device: Driver that reports no live state until the first report
func New(client Client, opts Options) *Device {
	if opts.QueueSize < 1 {
		opts.QueueSize = 1
	}
	d := &Device{
		client:  client,
		opts:    opts,
		pending: make(map[vtx.Op]vtx.Command),
		queue:   make(chan vtx.Command, opts.QueueSize),
		now:     time.Now,
		newID:   uuid.NewString,
		logger:  noopLogger{},
	}
	d.topics.state = mqtt.Topics{}.VTXState(opts.DeviceID)
	d.topics.command = mqtt.Topics{}.VTXCommand(opts.DeviceID)
	return d
}

// SetLogger sets the logger for the driver.
// A nil logger disables logging.
func (d *Device) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	d.mu.Lock()
	d.logger = logger
	d.mu.Unlock()
}

// Start subscribes to the state topic and starts the publisher. The
// publisher stops when ctx is cancelled or Stop is called.
func (d *Device) Start(ctx context.Context) error {
	d.mu.Lock()
	if d.cancel != nil {
		d.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.done = make(chan struct{})
	d.mu.Unlock()

	if err := d.client.Subscribe(d.topics.state, d.opts.QoS, d.handleState); err != nil {
		cancel()
		d.mu.Lock()
		d.cancel = nil
		d.mu.Unlock()
		return fmt.Errorf("subscribing to %s: %w", d.topics.state, err)
	}

	go d.publishLoop(ctx, d.done)
	return nil
}

// Stop unsubscribes and waits for the publisher to exit. Commands still
// queued are discarded.
func (d *Device) Stop() {
	d.mu.Lock()
	cancel, done := d.cancel, d.done
	d.cancel = nil
	d.mu.Unlock()
	if cancel == nil {
		return
	}

	cancel()
	<-done
	if err := d.client.Unsubscribe(d.topics.state); err != nil {
		d.log().Warn("vtx state unsubscribe failed", "topic", d.topics.state, "error", err)
	}
}

func (d *Device) log() Logger {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.logger
}

func (d *Device) publishLoop(ctx context.Context, done chan struct{}) {
	defer close(done)
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-d.queue:
			d.publish(cmd)
		}
	}
}

func (d *Device) publish(cmd vtx.Command) {
	id := d.newID()
	payload, err := json.Marshal(newCommandMessage(id, cmd, d.now()))
	if err != nil {
		d.log().Warn("vtx command encode failed", "op", cmd.Op, "error", err)
		return
	}

	err = d.client.Publish(d.topics.command, payload, d.opts.QoS, false)

	d.mu.Lock()
	if err != nil {
		d.stats.PublishErrors++
	} else {
		d.stats.Published++
	}
	logger := d.logger
	d.mu.Unlock()

	if err != nil {
		logger.Warn("vtx command publish failed", "op", cmd.Op, "id", id, "error", err)
		return
	}
	logger.Debug("vtx command published", "op", cmd.Op, "id", id)
}

// handleState merges a state report into the cache.
func (d *Device) handleState(_ string, payload []byte) error {
	var report StateReport
	if err := json.Unmarshal(payload, &report); err != nil {
		d.mu.Lock()
		d.stats.BadReports++
		d.mu.Unlock()
		return fmt.Errorf("decoding vtx state: %w", err)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if report.Band != nil {
		d.state.Band = report.Band
	}
	if report.Channel != nil {
		d.state.Channel = report.Channel
	}
	if report.FrequencyMHz != nil {
		d.state.FrequencyMHz = report.FrequencyMHz
	}
	if report.PowerIndex != nil {
		d.state.PowerIndex = report.PowerIndex
	}
	if report.PitMode != nil {
		d.state.PitMode = report.PitMode
	}
	d.reported = d.now()
	d.stats.StateReports++
	d.stats.LastReportedAt = d.reported
	return nil
}

// fresh reports whether cached state may be used. Caller holds d.mu.
func (d *Device) fresh() bool {
	if d.reported.IsZero() {
		return false
	}
	return d.opts.StaleAfter <= 0 || d.now().Sub(d.reported) <= d.opts.StaleAfter
}

// Capability implements vtx.Device.
func (d *Device) Capability() vtx.Capability { return d.opts.Capability }

// DeviceType implements vtx.DeviceTyper.
func (d *Device) DeviceType() vtx.DeviceType { return d.opts.DeviceType }

// BandChannel implements vtx.BandChannelGetter.
func (d *Device) BandChannel() (uint8, uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.fresh() || d.state.Band == nil || d.state.Channel == nil {
		return 0, 0, false
	}
	return *d.state.Band, *d.state.Channel, true
}

// Frequency implements vtx.FrequencyGetter.
func (d *Device) Frequency() (uint16, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.fresh() || d.state.FrequencyMHz == nil {
		return 0, false
	}
	return *d.state.FrequencyMHz, true
}

// PowerIndex implements vtx.PowerIndexGetter.
func (d *Device) PowerIndex() (uint8, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.fresh() || d.state.PowerIndex == nil {
		return 0, false
	}
	return *d.state.PowerIndex, true
}

// PitMode implements vtx.PitModeGetter.
func (d *Device) PitMode() (bool, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.fresh() || d.state.PitMode == nil {
		return false, false
	}
	return *d.state.PitMode, true
}

// SetBandChannel implements vtx.BandChannelSetter.
func (d *Device) SetBandChannel(band, channel uint8) {
	d.setPending(vtx.Command{Op: vtx.OpSetBandChannel, Band: band, Channel: channel})
}

// SetFrequency implements vtx.FrequencySetter.
func (d *Device) SetFrequency(mhz uint16) {
	d.setPending(vtx.Command{Op: vtx.OpSetFrequency, FrequencyMHz: mhz})
}

// SetPowerIndex implements vtx.PowerIndexSetter.
func (d *Device) SetPowerIndex(index uint8) {
	d.setPending(vtx.Command{Op: vtx.OpSetPowerIndex, PowerIndex: index})
}

// SetPitMode implements vtx.PitModeSetter.
func (d *Device) SetPitMode(on bool) {
	d.setPending(vtx.Command{Op: vtx.OpSetPitMode, PitMode: on})
}

// setPending replaces any unsent command for the same operation.
func (d *Device) setPending(cmd vtx.Command) {
	d.mu.Lock()
	d.pending[cmd.Op] = cmd
	d.mu.Unlock()
}

// Process implements vtx.Processor. Pending commands move to the publish
// queue without blocking; whatever does not fit stays pending for the
// next call.
func (d *Device) Process(vtx.TimeUs) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, op := range opOrder {
		cmd, ok := d.pending[op]
		if !ok {
			continue
		}
		select {
		case d.queue <- cmd:
			delete(d.pending, op)
		default:
			d.stats.QueueFull++
			return
		}
	}
}

// Pending returns the number of commands not yet queued.
func (d *Device) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stats returns a snapshot of the driver counters.
func (d *Device) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stats
}
