package commands

import (
	"dm-scheduler/commands/defs"

	"github.com/bwmarrin/discordgo"
)

// GenerateCommands returns every application command the bot registers.
func GenerateCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		defs.Send,
		defs.ScheduleDM,
		defs.List,
		defs.Get,
		defs.Cancel,
		defs.Status,
	}
}
