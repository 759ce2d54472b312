package control

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// settingsUpdate is a partial desired-settings change.
type settingsUpdate struct {
	Band         *uint8  `json:"band"`
	Channel      *uint8  `json:"channel"`
	FrequencyMHz *uint16 `json:"freq"`
	LoPower      *uint8  `json:"lo_power"`
	HiPower      *uint8  `json:"hi_power"`
}

func (u settingsUpdate) empty() bool {
	return u.Band == nil && u.Channel == nil && u.FrequencyMHz == nil && u.LoPower == nil && u.HiPower == nil
}

// mergeOnto returns current with every present field replaced.
func (u settingsUpdate) mergeOnto(current vtx.Settings) vtx.Settings {
	next := current
	if u.Band != nil {
		next.Band = *u.Band
	}
	if u.Channel != nil {
		next.Channel = *u.Channel
	}
	if u.FrequencyMHz != nil {
		next.FrequencyMHz = *u.FrequencyMHz
	}
	if u.LoPower != nil {
		next.LoPower = *u.LoPower
	}
	if u.HiPower != nil {
		next.HiPower = *u.HiPower
	}
	return next
}

func decodeSettingsUpdate(payload []byte) (settingsUpdate, error) {
	var u settingsUpdate
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&u); err != nil {
		return settingsUpdate{}, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if u.empty() {
		return settingsUpdate{}, fmt.Errorf("%w: no settings fields", ErrInvalidPayload)
	}
	return u, nil
}

// decodeSwitch accepts a bare JSON boolean or an object holding key.
func decodeSwitch(payload []byte, key string) (bool, error) {
	payload = bytes.TrimSpace(payload)

	var bare bool
	if err := json.Unmarshal(payload, &bare); err == nil {
		return bare, nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(payload, &obj); err != nil {
		return false, fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	raw, ok := obj[key]
	if !ok {
		return false, fmt.Errorf("%w: missing %q", ErrInvalidPayload, key)
	}
	var value bool
	if err := json.Unmarshal(raw, &value); err != nil {
		return false, fmt.Errorf("%w: %q: %w", ErrInvalidPayload, key, err)
	}
	return value, nil
}
