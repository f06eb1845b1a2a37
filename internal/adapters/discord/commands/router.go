package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync/atomic"

	"gorilla-voice-bot/internal/adapters/discord/formatting"
	"gorilla-voice-bot/internal/metrics"

	"github.com/bwmarrin/discordgo"
)

type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	slog.Info("Router initialized", "commands", registry.Len())
	return &Router{registry: registry}
}

// Handle executes chat-input commands. Unknown commands are logged and dropped.
// A failing or panicking handler gets the generic ephemeral error reply.
func (r *Router) Handle(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) {
	data, ok := chatInputData(i)
	if !ok {
		return
	}

	name := data.Name
	slog.Info("Router received interaction", "name", name, "guild_id", i.GuildID)

	handler, ok := r.registry.Lookup(name)
	if !ok {
		slog.Warn("No handler found for command", "name", name)
		metrics.CommandsExecuted.WithLabelValues(name, "unknown").Inc()
		return
	}

	tracked := &trackingSession{DiscordSession: s}
	if err := execute(ctx, handler, tracked, i); err != nil {
		slog.Error("Command failed", "name", name, "guild_id", i.GuildID, "error", err, "stack", errorStack(err))
		metrics.CommandsExecuted.WithLabelValues(name, "error").Inc()
		replyError(tracked, i)
		return
	}

	metrics.CommandsExecuted.WithLabelValues(name, "success").Inc()
}

func (r *Router) HandleFunc(ctx context.Context) func(*discordgo.Session, *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		r.Handle(ctx, s, i)
	}
}

func execute(ctx context.Context, handler Handler, s DiscordSession, i *discordgo.InteractionCreate) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &panicError{value: rec, stack: debug.Stack()}
		}
	}()
	return handler(ctx, s, i)
}

// panicError keeps the stack captured where the handler panicked.
type panicError struct {
	value any
	stack []byte
}

func (e *panicError) Error() string {
	return fmt.Sprintf("command panicked: %v", e.value)
}

func errorStack(err error) string {
	var pe *panicError
	if errors.As(err, &pe) {
		return string(pe.stack)
	}
	return string(debug.Stack())
}

func replyError(s *trackingSession, i *discordgo.InteractionCreate) {
	var err error
	if s.responded.Load() {
		err = followup(s, i, formatting.MsgCommandError, true)
	} else {
		err = respond(s, i, formatting.MsgCommandError, true)
	}
	if err != nil {
		slog.Error("Failed to send error reply", "error", err)
	}
}

func chatInputData(i *discordgo.InteractionCreate) (discordgo.ApplicationCommandInteractionData, bool) {
	if i == nil || i.Interaction == nil || i.Type != discordgo.InteractionApplicationCommand {
		return discordgo.ApplicationCommandInteractionData{}, false
	}
	data, ok := i.Data.(discordgo.ApplicationCommandInteractionData)
	if !ok || data.CommandType != discordgo.ChatApplicationCommand {
		return discordgo.ApplicationCommandInteractionData{}, false
	}
	return data, true
}

// trackingSession remembers whether the interaction already has its initial response.
type trackingSession struct {
	DiscordSession
	responded atomic.Bool
}

func (t *trackingSession) InteractionRespond(interaction *discordgo.Interaction, resp *discordgo.InteractionResponse, options ...discordgo.RequestOption) error {
	if err := t.DiscordSession.InteractionRespond(interaction, resp, options...); err != nil {
		return err
	}
	t.responded.Store(true)
	return nil
}
