package commands

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/bwmarrin/discordgo"
)

var (
	errMissingName    = errors.New("command definition has no name")
	errMissingExecute = errors.New("command definition has no execute handler")
)

type Handler func(ctx context.Context, s DiscordSession, i *discordgo.InteractionCreate) error

// Command pairs the definition registered with Discord with the handler that executes it.
type Command struct {
	Definition *discordgo.ApplicationCommand
	Execute    Handler
}

func (c Command) validate() error {
	if c.Definition == nil || c.Definition.Name == "" {
		return errMissingName
	}
	if c.Execute == nil {
		return errMissingExecute
	}
	return nil
}

// Registry is the immutable name -> command table built once at startup.
type Registry struct {
	commands map[string]Command
	order    []*discordgo.ApplicationCommand
}

// NewRegistry keeps every valid definition in order. Invalid definitions and
// repeated names are skipped with a warning; the first definition of a name wins.
func NewRegistry(defs []Command) *Registry {
	r := &Registry{commands: make(map[string]Command, len(defs))}

	for idx, def := range defs {
		if err := def.validate(); err != nil {
			slog.Warn("Skipping command definition", "index", idx, "error", err)
			continue
		}

		name := def.Definition.Name
		if _, exists := r.commands[name]; exists {
			slog.Warn("Skipping duplicate command definition", "index", idx, "name", name)
			continue
		}

		r.commands[name] = def
		r.order = append(r.order, def.Definition)
	}

	slog.Info("Command registry loaded", "commands", len(r.order))
	return r
}

func (r *Registry) Lookup(name string) (Handler, bool) {
	cmd, ok := r.commands[name]
	if !ok {
		return nil, false
	}
	return cmd.Execute, true
}

func (r *Registry) Len() int {
	return len(r.order)
}

// ApplicationCommands returns the registered definitions in registration order.
func (r *Registry) ApplicationCommands() []*discordgo.ApplicationCommand {
	return slices.Clone(r.order)
}

func RegisterCommands(session CommandSession, commands []*discordgo.ApplicationCommand, userID, guildID string) []*discordgo.ApplicationCommand {
	registered := make([]*discordgo.ApplicationCommand, len(commands))

	for i, cmd := range commands {
		result, err := session.ApplicationCommandCreate(userID, guildID, cmd)
		if err != nil {
			slog.Error("Cannot create command", "name", cmd.Name, "error", err)
			continue
		}
		registered[i] = result
		slog.Info("Registered command", "name", cmd.Name, "guild", guildID)
	}

	return registered
}

func CleanupCommands(session CommandSession, commands []*discordgo.ApplicationCommand, userID, guildID string) {
	for _, cmd := range commands {
		if cmd == nil {
			continue
		}
		if err := session.ApplicationCommandDelete(userID, guildID, cmd.ID); err != nil {
			slog.Error("Cannot delete command", "name", cmd.Name, "error", err)
		}
	}
}
