package formatting

import (
	"fmt"
	"strings"

	"gorilla-voice-bot/internal/core/domain"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	MsgCommandError     = "There was an error while executing this command!"
	MsgJoinVoiceChannel = "Join a voice channel then try again!"
	MsgGorilla          = ":gorilla: :gorilla: :gorilla:"
	MsgGuildOnly        = "This command can only be used in a server."
	MsgNoPlays          = "No clips have been played in this server yet."
	MsgCooldown         = "Give me a moment to catch my breath, then try again."
)

func MsgSummoning(channelID string) string {
	return fmt.Sprintf("On my way to <#%s>!", channelID)
}

// TriggerLabel turns a trigger name like "voice-state" into "Voice State".
func TriggerLabel(t domain.Trigger) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(t), "-", " "))
}

func MsgPlaysList(plays []domain.Play) string {
	p := message.NewPrinter(language.English)

	failed := 0
	for _, play := range plays {
		if play.Status == domain.PlayStatusFailed {
			failed++
		}
	}

	var b strings.Builder
	b.WriteString(p.Sprintf("Last %d clip plays (%d failed):\n", len(plays), failed))
	for _, play := range plays {
		fmt.Fprintf(&b, "- <t:%d:R> in <#%s> via %s", play.StartedAt.Unix(), play.ChannelID, TriggerLabel(play.Trigger))
		if play.UserID != "" {
			fmt.Fprintf(&b, " by <@%s>", play.UserID)
		}
		if play.Status == domain.PlayStatusFailed {
			b.WriteString(" (failed)")
		}
		b.WriteString("\n")
	}
	return b.String()
}
