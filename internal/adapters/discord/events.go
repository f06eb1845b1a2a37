package discord

import (
	"context"
	"errors"
	"log/slog"

	"gorilla-voice-bot/internal/adapters/discord/formatting"
	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/services/voice"
	"gorilla-voice-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

type VoiceStarter interface {
	ConnectAndPlay(ctx context.Context, req voice.Request) error
}

type ClipWarmer interface {
	Warm(path string) error
}

type MessageSession interface {
	ChannelMessageSendReply(channelID, content string, reference *discordgo.MessageReference, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// VoiceStates resolves which voice channel a member is in; *discordgo.State satisfies it.
type VoiceStates interface {
	VoiceState(guildID, userID string) (*discordgo.VoiceState, error)
}

// EventHandler dispatches ready, message and voice state gateway events.
type EventHandler struct {
	ctx      context.Context
	voice    VoiceStarter
	clips    ClipWarmer
	trigger  string
	clipPath string
}

func NewEventHandler(ctx context.Context, v VoiceStarter, clips ClipWarmer, trigger, clipPath string) *EventHandler {
	return &EventHandler{
		ctx:      ctx,
		voice:    v,
		clips:    clips,
		trigger:  trigger,
		clipPath: clipPath,
	}
}

// Register subscribes the handler to the session's gateway events.
func (h *EventHandler) Register(s *discordgo.Session) {
	s.AddHandler(h.Ready)
	s.AddHandler(h.MessageCreate)
	s.AddHandler(h.VoiceStateUpdate)
}

func (h *EventHandler) Ready(_ *discordgo.Session, r *discordgo.Ready) {
	if r.User != nil {
		slog.Info("Gorilla bot is online!", "user", r.User.Username, "discriminator", r.User.Discriminator)
	}

	if h.clips == nil {
		return
	}
	if err := h.clips.Warm(h.clipPath); err != nil {
		slog.Warn("Failed to pre-buffer audio clip", "path", h.clipPath, "error", err)
	}
}

func (h *EventHandler) MessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	h.HandleMessage(s, s.State, m)
}

func (h *EventHandler) VoiceStateUpdate(s *discordgo.Session, v *discordgo.VoiceStateUpdate) {
	var selfID string
	if s.State != nil && s.State.User != nil {
		selfID = s.State.User.ID
	}
	h.HandleVoiceState(selfID, v)
}

// HandleMessage joins the author's voice channel when the message is exactly the trigger phrase.
func (h *EventHandler) HandleMessage(s MessageSession, states VoiceStates, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}
	if m.Content != h.trigger {
		return
	}

	channelID := voiceChannelOf(states, m.GuildID, m.Author.ID)
	if channelID == "" {
		metrics.TriggerMessages.WithLabelValues("no_voice").Inc()
		if _, err := s.ChannelMessageSendReply(m.ChannelID, formatting.MsgJoinVoiceChannel, m.Reference()); err != nil {
			slog.Error("Failed to send reply", "channel_id", m.ChannelID, "error", err)
		}
		return
	}

	metrics.TriggerMessages.WithLabelValues("joined").Inc()
	h.connect(voice.Request{
		GuildID:   m.GuildID,
		ChannelID: channelID,
		UserID:    m.Author.ID,
		Trigger:   domain.TriggerMessage,
	})
}

// HandleVoiceState treats a member moving from no channel into a channel as a trigger.
func (h *EventHandler) HandleVoiceState(selfID string, v *discordgo.VoiceStateUpdate) {
	if v.VoiceState == nil || v.UserID == selfID {
		return
	}
	if v.Member != nil && v.Member.User != nil && v.Member.User.Bot {
		return
	}
	if v.ChannelID == "" || (v.BeforeUpdate != nil && v.BeforeUpdate.ChannelID != "") {
		return
	}

	h.connect(voice.Request{
		GuildID:   v.GuildID,
		ChannelID: v.ChannelID,
		UserID:    v.UserID,
		Trigger:   domain.TriggerVoiceState,
	})
}

func (h *EventHandler) connect(req voice.Request) {
	err := h.voice.ConnectAndPlay(h.ctx, req)
	switch {
	case err == nil:
	case errors.Is(err, voice.ErrCooldown):
		slog.Debug("Voice trigger ignored during cooldown", "guild_id", req.GuildID, "trigger", req.Trigger)
	default:
		slog.Error("Failed to play clip", "guild_id", req.GuildID, "channel_id", req.ChannelID, "trigger", req.Trigger, "error", err)
	}
}

func voiceChannelOf(states VoiceStates, guildID, userID string) string {
	vs, err := states.VoiceState(guildID, userID)
	if err != nil || vs == nil {
		return ""
	}
	return vs.ChannelID
}
