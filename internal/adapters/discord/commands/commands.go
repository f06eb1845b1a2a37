package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorilla-voice-bot/internal/adapters/discord/formatting"
	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/services/voice"

	"github.com/bwmarrin/discordgo"
)

var dmPermission = false

type BotHandler struct {
	Voice   VoiceStarter
	History PlayHistory
	States  VoiceStates
}

// Definitions is the ordered list of slash commands the bot serves.
func Definitions(h *BotHandler) []Command {
	return []Command{
		{
			Definition: &discordgo.ApplicationCommand{
				Name:        "gorilla",
				Description: "Go. Ril. La.",
			},
			Execute: h.Gorilla,
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:         "summon",
				Description:  "Join your voice channel and play the gorilla clip",
				DMPermission: &dmPermission,
			},
			Execute: WithGuildOnly(h.Summon),
		},
		{
			Definition: &discordgo.ApplicationCommand{
				Name:         "plays",
				Description:  "Show the latest gorilla plays in this server",
				DMPermission: &dmPermission,
			},
			Execute: WithGuildOnly(h.Plays),
		},
	}
}

func (h *BotHandler) Gorilla(_ context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
	return respond(s, i, formatting.MsgGorilla, false)
}

func (h *BotHandler) Summon(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
	userID := invokerID(i)

	vs, err := h.States.VoiceState(i.GuildID, userID)
	if err != nil || vs == nil || vs.ChannelID == "" {
		return respond(s, i, formatting.MsgJoinVoiceChannel, true)
	}

	if err := respond(s, i, formatting.MsgSummoning(vs.ChannelID), false); err != nil {
		return fmt.Errorf("acknowledge summon: %w", err)
	}

	err = h.Voice.ConnectAndPlay(ctx, voice.Request{
		GuildID:   i.GuildID,
		ChannelID: vs.ChannelID,
		UserID:    userID,
		Trigger:   domain.TriggerCommand,
	})
	if errors.Is(err, voice.ErrCooldown) {
		slog.Debug("Summon ignored during cooldown", "guild_id", i.GuildID)
		return followup(s, i, formatting.MsgCooldown, true)
	}
	if err != nil {
		return fmt.Errorf("summon to channel %s: %w", vs.ChannelID, err)
	}

	return nil
}

func (h *BotHandler) Plays(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
	plays, err := h.History.RecentPlays(ctx, i.GuildID)
	if err != nil {
		return fmt.Errorf("load recent plays: %w", err)
	}

	if len(plays) == 0 {
		return respond(s, i, formatting.MsgNoPlays, true)
	}

	return respond(s, i, formatting.MsgPlaysList(plays), false)
}
