package commands

import (
	"context"

	"gorilla-voice-bot/internal/adapters/discord/formatting"

	"github.com/bwmarrin/discordgo"
)

type Middleware func(Handler) Handler

func WithGuildOnly(next Handler) Handler {
	return func(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error {
		if i.GuildID == "" {
			return respond(s, i, formatting.MsgGuildOnly, true)
		}
		return next(ctx, s, i)
	}
}
