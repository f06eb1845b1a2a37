package commands

import (
	"context"

	"gorilla-voice-bot/internal/core/domain"
	"gorilla-voice-bot/internal/core/services/voice"

	"github.com/bwmarrin/discordgo"
)

type DiscordSession interface {
	InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error
	FollowupMessageCreate(interaction *discordgo.Interaction, wait bool, data *discordgo.WebhookParams, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

type CommandSession interface {
	ApplicationCommandCreate(appID, guildID string, cmd *discordgo.ApplicationCommand, options ...discordgo.RequestOption) (*discordgo.ApplicationCommand, error)
	ApplicationCommandDelete(appID, guildID, cmdID string, options ...discordgo.RequestOption) error
}

type VoiceStarter interface {
	ConnectAndPlay(ctx context.Context, req voice.Request) error
}

type PlayHistory interface {
	RecentPlays(ctx context.Context, guildID string) ([]domain.Play, error)
}

type VoiceStates interface {
	VoiceState(guildID, userID string) (*discordgo.VoiceState, error)
}
