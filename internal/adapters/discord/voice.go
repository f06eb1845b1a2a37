package discord

import (
	"fmt"
	"log/slog"

	"gorilla-voice-bot/internal/core/ports"

	"github.com/bwmarrin/discordgo"
)

type VoiceJoiner interface {
	ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)
}

// VoiceDialer joins voice channels through the gateway session.
type VoiceDialer struct {
	session VoiceJoiner
}

func NewVoiceDialer(session VoiceJoiner) *VoiceDialer {
	return &VoiceDialer{session: session}
}

func (d *VoiceDialer) Dial(guildID, channelID string) (ports.Connection, error) {
	vc, err := d.session.ChannelVoiceJoin(guildID, channelID, false, true)
	if err != nil {
		// discordgo hands back a half-open connection when the handshake times out
		if vc != nil {
			if derr := vc.Disconnect(); derr != nil {
				slog.Warn("Failed to drop half-open voice connection", "guild_id", guildID, "error", derr)
			}
		}
		return nil, fmt.Errorf("join voice channel %s: %w", channelID, err)
	}
	if vc == nil {
		return nil, nil
	}

	return &voiceConnection{vc: vc}, nil
}

type voiceConnection struct {
	vc *discordgo.VoiceConnection
}

var _ ports.Connection = (*voiceConnection)(nil)

func (c *voiceConnection) Ready() bool {
	c.vc.RLock()
	defer c.vc.RUnlock()
	return c.vc.Ready
}

func (c *voiceConnection) Speaking(speaking bool) error {
	return c.vc.Speaking(speaking)
}

func (c *voiceConnection) OpusSend() chan<- []byte {
	return c.vc.OpusSend
}

func (c *voiceConnection) Disconnect() error {
	return c.vc.Disconnect()
}
