package settings

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// Logger defines the logging interface used by the manager.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Manager applies desired-settings changes: validate, persist, then
// publish to the store the scheduler reads.
type Manager struct {
	repo  Repository
	store *vtx.SettingsStore

	// mu serialises Apply so the store and the database agree on order.
	mu     sync.Mutex
	logger Logger
}

// NewManager creates a manager over repo and store.
func NewManager(repo Repository, store *vtx.SettingsStore) *Manager {
	return &Manager{repo: repo, store: store, logger: noopLogger{}}
}

// SetLogger sets the logger for the manager.
// A nil logger disables logging.
func (m *Manager) SetLogger(logger Logger) {
	if logger == nil {
		logger = noopLogger{}
	}
	m.logger = logger
}

// Bootstrap loads the stored settings into the store. When nothing is
// stored, defaults are validated, saved and used instead.
func (m *Manager) Bootstrap(ctx context.Context, defaults vtx.Settings) error {
	stored, err := m.repo.Load(ctx)
	switch {
	case err == nil:
		if verr := stored.Validate(); verr != nil {
			m.logger.Warn("stored vtx settings invalid, reseeding from defaults", "error", verr)
			return m.Apply(ctx, defaults, SourceDefaults)
		}
		m.store.Update(stored)
		m.logger.Info("vtx settings loaded", settingsAttrs(stored)...)
		return nil
	case errors.Is(err, ErrNotFound):
		m.logger.Info("no stored vtx settings, seeding defaults")
		return m.Apply(ctx, defaults, SourceDefaults)
	default:
		return fmt.Errorf("bootstrapping settings: %w", err)
	}
}

// Apply validates next, persists it and updates the store. The store is
// left untouched when validation or persistence fails.
//
// Parameters:
//   - ctx: Bounds the database write
//   - next: Complete desired settings
//   - source: Change origin recorded in the history (SourceDefaults, SourceMQTT)
//
// Returns:
//   - error: Validation error from vtx.Settings.Validate, or the repository error
func (m *Manager) Apply(ctx context.Context, next vtx.Settings, source string) error {
	if err := next.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.repo.Save(ctx, next, source); err != nil {
		return err
	}
	m.store.Update(next)

	m.logger.Info("vtx settings applied", append(settingsAttrs(next), "source", source)...)
	return nil
}

// Current returns the settings the scheduler is reconciling towards.
func (m *Manager) Current() vtx.Settings {
	return m.store.Settings()
}

// History returns recent changes, newest first.
func (m *Manager) History(ctx context.Context, limit int) ([]HistoryEntry, error) {
	return m.repo.History(ctx, limit)
}

func settingsAttrs(s vtx.Settings) []any {
	return []any{
		"band", s.Band,
		"channel", s.Channel,
		"freq_mhz", s.FrequencyMHz,
		"lo_power", s.LoPower,
		"hi_power", s.HiPower,
	}
}
