package control

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/nerrad567/vtx-control-core/internal/audit"
	"github.com/nerrad567/vtx-control-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/vtx-control-core/internal/settings"
	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Client is the subset of the MQTT client the surface needs.
type Client interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
}

// SettingsApplier validates, persists and activates desired settings.
// *settings.Manager satisfies it.
type SettingsApplier interface {
	Current() vtx.Settings
	Apply(ctx context.Context, next vtx.Settings, source string) error
	History(ctx context.Context, limit int) ([]settings.HistoryEntry, error)
}

// LiveReader reads the registered device's live state.
type LiveReader interface {
	BandChannel() (band, channel uint8, ok bool)
	Frequency() (uint16, bool)
	PowerIndex() (uint8, bool)
	PitMode() (bool, bool)
}

// DeviceControl is the registry surface used here. *vtx.Registry
// satisfies it.
type DeviceControl interface {
	LiveReader
	SetPitMode(on bool)
}

// StatusSource reports scheduler state. *vtx.Scheduler satisfies it.
type StatusSource interface {
	Status() vtx.Status
}

// ArmState is read and written by the arm topic. *vtx.ArmFlag satisfies it.
type ArmState interface {
	vtx.ArmSource
	Set(armed bool)
}

// AuditTrail stores and lists control requests.
// *audit.SQLiteRepository satisfies it.
type AuditTrail interface {
	Create(ctx context.Context, entry *audit.Entry) error
	List(ctx context.Context, filter audit.Filter) (*audit.ListResult, error)
}

// Logger defines the logging interface used by the surface.
type Logger interface {
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any) {}
func (noopLogger) Warn(string, ...any) {}

// Deps are the collaborators of a Surface.
type Deps struct {
	Settings  SettingsApplier
	Device    DeviceControl
	Scheduler StatusSource
	Arm       ArmState

	// Audit is optional.
	Audit AuditTrail
}

// Surface wires MQTT topics to the core.
type Surface struct {
	client   Client
	deps     Deps
	qos      byte
	interval time.Duration
	topics   mqtt.Topics

	mu      sync.Mutex
	ctx     context.Context
	started bool

	now    func() time.Time
	logger Logger
}

// New creates a surface publishing status every interval.
//
// Parameters:
//   - client: MQTT client for the inbound and retained topics
//   - deps: Core collaborators; Audit may be nil
//   - qos: QoS for subscriptions and publications
//   - interval: Status publication period used by Run
//
// Returns:
//   - *Surface: Surface ready for Start
func New(client Client, deps Deps, qos byte, interval time.Duration) *Surface {
	return &Surface{
		client:   client,
		deps:     deps,
		qos:      qos,
		interval: interval,
		ctx:      context.Background(),
		now:      time.Now,
		logger:   noopLogger{},
	}
}

// SetLogger sets the logger for the surface.
// A nil logger disables logging.
func (s *Surface) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	s.mu.Lock()
	s.logger = logger
	s.mu.Unlock()
}

func (s *Surface) log() Logger {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger
}

func (s *Surface) baseContext() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx
}

// Start subscribes to the inbound topics. ctx bounds settings
// persistence triggered by incoming messages.
func (s *Surface) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}
	s.started = true
	s.ctx = ctx
	s.mu.Unlock()

	subs := []struct {
		topic   string
		handler mqtt.MessageHandler
	}{
		{s.topics.VTXSettingsSet(), s.handleSettings},
		{s.topics.Arm(), s.handleArm},
		{s.topics.VTXPit(), s.handlePit},
	}
	for _, sub := range subs {
		if err := s.client.Subscribe(sub.topic, s.qos, sub.handler); err != nil {
			return fmt.Errorf("subscribing to %s: %w", sub.topic, err)
		}
	}

	s.publishHistory()
	s.publishAudit()
	return nil
}

// Stop unsubscribes from the inbound topics.
func (s *Surface) Stop() {
	s.mu.Lock()
	started := s.started
	s.started = false
	s.mu.Unlock()
	if !started {
		return
	}

	for _, topic := range []string{s.topics.VTXSettingsSet(), s.topics.Arm(), s.topics.VTXPit()} {
		if err := s.client.Unsubscribe(topic); err != nil {
			s.log().Warn("control unsubscribe failed", "topic", topic, "error", err)
		}
	}
}

// Run publishes status every interval until ctx is cancelled.
func (s *Surface) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := s.PublishStatus(); err != nil {
			s.log().Warn("vtx status publish failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// Snapshot returns the current status document.
func (s *Surface) Snapshot() Status {
	return buildStatus(
		s.deps.Scheduler.Status(),
		s.deps.Device,
		s.deps.Arm.IsArmed(),
		s.deps.Settings.Current(),
		s.now(),
	)
}

// PublishStatus publishes the retained status document once.
func (s *Surface) PublishStatus() error {
	payload, err := json.Marshal(s.Snapshot())
	if err != nil {
		return fmt.Errorf("encoding status: %w", err)
	}
	return s.client.Publish(s.topics.VTXStatus(), payload, s.qos, true)
}

func (s *Surface) handleSettings(_ string, payload []byte) error {
	update, err := decodeSettingsUpdate(payload)
	if err != nil {
		s.record(audit.ActionSettingsSet, err, nil)
		return err
	}

	next := update.mergeOnto(s.deps.Settings.Current())
	if err := s.deps.Settings.Apply(s.baseContext(), next, settings.SourceMQTT); err != nil {
		s.record(audit.ActionSettingsSet, err, map[string]any{"settings": next})
		return fmt.Errorf("applying vtx settings: %w", err)
	}
	s.record(audit.ActionSettingsSet, nil, map[string]any{"settings": next})
	s.publishHistory()
	return nil
}

func (s *Surface) handleArm(_ string, payload []byte) error {
	armed, err := decodeSwitch(payload, "armed")
	if err != nil {
		s.record(audit.ActionArm, err, nil)
		return err
	}
	if s.deps.Arm.IsArmed() != armed {
		s.log().Info("arm state changed", "armed", armed)
		s.record(audit.ActionArm, nil, map[string]any{"armed": armed})
	}
	s.deps.Arm.Set(armed)
	return nil
}

func (s *Surface) handlePit(_ string, payload []byte) error {
	on, err := decodeSwitch(payload, "on")
	if err != nil {
		s.record(audit.ActionPitMode, err, nil)
		return err
	}
	s.log().Info("vtx pit mode requested", "on", on)
	s.deps.Device.SetPitMode(on)
	s.record(audit.ActionPitMode, nil, map[string]any{"on": on})
	return nil
}

// record writes an audit entry; a failed write is logged, never returned.
func (s *Surface) record(action string, reqErr error, details map[string]any) {
	if s.deps.Audit == nil {
		return
	}
	if reqErr != nil {
		if details == nil {
			details = map[string]any{}
		}
		details["error"] = reqErr.Error()
	}
	entry := &audit.Entry{
		Action:   action,
		Source:   settings.SourceMQTT,
		Accepted: reqErr == nil,
		Details:  details,
	}
	if err := s.deps.Audit.Create(s.baseContext(), entry); err != nil {
		s.log().Warn("audit write failed", "action", action, "error", err)
		return
	}
	s.publishAudit()
}

func (s *Surface) publishHistory() {
	if err := s.PublishHistory(); err != nil {
		s.log().Warn("vtx history publish failed", "error", err)
	}
}

func (s *Surface) publishAudit() {
	if err := s.PublishAudit(); err != nil {
		s.log().Warn("audit publish failed", "error", err)
	}
}
