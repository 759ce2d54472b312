package mqttvtx

import (
	"time"

	"github.com/nerrad567/vtx-control-core/internal/vtx"
)

// StateReport is the JSON state published by the remote transmitter.
type StateReport struct {
	Band         *uint8  `json:"band,omitempty"`
	Channel      *uint8  `json:"channel,omitempty"`
	FrequencyMHz *uint16 `json:"freq,omitempty"`
	PowerIndex   *uint8  `json:"power_index,omitempty"`
	PitMode      *bool   `json:"pit,omitempty"`
}

// CommandMessage is the JSON sent on the command topic.
type CommandMessage struct {
	ID           string  `json:"id"`
	Op           vtx.Op  `json:"op"`
	Band         *uint8  `json:"band,omitempty"`
	Channel      *uint8  `json:"channel,omitempty"`
	FrequencyMHz *uint16 `json:"freq,omitempty"`
	PowerIndex   *uint8  `json:"power_index,omitempty"`
	PitMode      *bool   `json:"pit,omitempty"`
	IssuedAt     string  `json:"issued_at"`
}

func newCommandMessage(id string, cmd vtx.Command, issuedAt time.Time) CommandMessage {
	msg := CommandMessage{
		ID:       id,
		Op:       cmd.Op,
		IssuedAt: issuedAt.UTC().Format(time.RFC3339Nano),
	}
	switch cmd.Op {
	case vtx.OpSetBandChannel:
		msg.Band, msg.Channel = &cmd.Band, &cmd.Channel
	case vtx.OpSetFrequency:
		msg.FrequencyMHz = &cmd.FrequencyMHz
	case vtx.OpSetPowerIndex:
		msg.PowerIndex = &cmd.PowerIndex
	case vtx.OpSetPitMode:
		msg.PitMode = &cmd.PitMode
	}
	return msg
}
