package vtx

import (
	"fmt"
	"strings"
	"sync"
)

// Settings is the desired transmitter configuration.
//
// Band 0 selects direct-frequency mode, in which FrequencyMHz is used
// instead of Band/Channel. LoPower applies while disarmed, HiPower once the
// arm delay has elapsed.
type Settings struct {
	Band         uint8  `json:"band" yaml:"band"`
	Channel      uint8  `json:"channel" yaml:"channel"`
	FrequencyMHz uint16 `json:"freq" yaml:"freq"`
	LoPower      uint8  `json:"lo_power" yaml:"lo_power"`
	HiPower      uint8  `json:"hi_power" yaml:"hi_power"`
}

// DefaultSettings returns the factory desired settings.
func DefaultSettings() Settings {
	return Settings{
		Band:    DefaultBand,
		Channel: DefaultChannel,
		LoPower: MinPower,
		HiPower: DefaultPower,
	}
}

// Validate checks the settings against the channel plan limits.
//
// This is for external writers (configuration, control surface). The core
// never rejects settings; out-of-capability values are dropped at dispatch.
func (s Settings) Validate() error {
	var errs []string

	if s.Band > MaxBand {
		errs = append(errs, fmt.Sprintf("band %d exceeds %d", s.Band, MaxBand))
	}
	if s.Band != 0 && (s.Channel < MinChannel || s.Channel > MaxChannel) {
		errs = append(errs, fmt.Sprintf("channel %d outside %d-%d", s.Channel, MinChannel, MaxChannel))
	}
	if s.Band == 0 && (s.FrequencyMHz == 0 || s.FrequencyMHz > MaxFrequencyMHz) {
		errs = append(errs, fmt.Sprintf("freq %d outside 1-%d", s.FrequencyMHz, MaxFrequencyMHz))
	}
	if s.LoPower > PowerCount {
		errs = append(errs, fmt.Sprintf("lo_power %d exceeds %d", s.LoPower, PowerCount))
	}
	if s.HiPower > PowerCount {
		errs = append(errs, fmt.Sprintf("hi_power %d exceeds %d", s.HiPower, PowerCount))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidSettings, strings.Join(errs, "; "))
	}
	return nil
}

// SettingsSource supplies the current desired settings.
// Implementations must return a fresh value on every call.
type SettingsSource interface {
	Settings() Settings
}

// SettingsStore is an in-memory, goroutine-safe SettingsSource.
// External writers replace the whole record with Update; there is no
// versioning, readers see the last complete write.
type SettingsStore struct {
	mu       sync.RWMutex
	settings Settings
}

// NewSettingsStore creates a store holding initial.
func NewSettingsStore(initial Settings) *SettingsStore {
	return &SettingsStore{settings: initial}
}

// Settings implements SettingsSource.
func (s *SettingsStore) Settings() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Update replaces the desired settings.
func (s *SettingsStore) Update(settings Settings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
}
