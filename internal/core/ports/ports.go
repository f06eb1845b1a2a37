package ports

import (
	"context"

	"gorilla-voice-bot/internal/core/domain"
)

// Connection is a live voice connection bound to one guild and channel.
type Connection interface {
	Ready() bool
	Speaking(speaking bool) error
	OpusSend() chan<- []byte
	Disconnect() error
}

type VoiceDialer interface {
	Dial(guildID, channelID string) (Connection, error)
}

type PlayRepository interface {
	RecordPlay(ctx context.Context, play domain.Play) error
	RecentPlays(ctx context.Context, guildID string, limit int) ([]domain.Play, error)
	Close()
}
