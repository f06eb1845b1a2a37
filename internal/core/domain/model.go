package domain

import "time"

// Trigger names what started a voice session.
type Trigger string

const (
	TriggerMessage    Trigger = "message"
	TriggerVoiceState Trigger = "voice-state"
	TriggerCommand    Trigger = "command"
)

type PlayStatus string

const (
	PlayStatusPlayed PlayStatus = "played"
	PlayStatusFailed PlayStatus = "failed"
)

// Play is one attempt to join a voice channel and play the clip.
type Play struct {
	GuildID   string
	ChannelID string
	UserID    string
	Trigger   Trigger
	Status    PlayStatus
	Error     string
	StartedAt time.Time
}
