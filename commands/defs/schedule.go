package defs

import "github.com/bwmarrin/discordgo"

var minScheduleID = 1.0

var Send = &discordgo.ApplicationCommand{
	Name:        "send",
	Description: "Send an instant DM to a member (text and/or file)",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Who receives the DM",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "Text to send",
			Required:    false,
			MaxLength:   2000,
		},
		{
			Type:        discordgo.ApplicationCommandOptionAttachment,
			Name:        "file",
			Description: "File to forward with the message",
			Required:    false,
		},
	},
}

var ScheduleDM = &discordgo.ApplicationCommand{
	Name:        "scheduledm",
	Description: "Schedule a DM at a local 12-hour time (next occurrence)",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        "user",
			Description: "Who receives the DM",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "time",
			Description: "Local time like 02:30 PM",
			Required:    true,
		},
		{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        "message",
			Description: "Text to send",
			Required:    false,
			MaxLength:   2000,
		},
		{
			Type:        discordgo.ApplicationCommandOptionAttachment,
			Name:        "file",
			Description: "File to forward with the message",
			Required:    false,
		},
	},
}

var List = &discordgo.ApplicationCommand{
	Name:        "list",
	Description: "List scheduled DMs",
}

var Get = &discordgo.ApplicationCommand{
	Name:        "get",
	Description: "Show details of a scheduled DM",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Schedule id",
			Required:    true,
			MinValue:    &minScheduleID,
		},
	},
}

var Cancel = &discordgo.ApplicationCommand{
	Name:        "cancel",
	Description: "Cancel a pending scheduled DM",
	Options: []*discordgo.ApplicationCommandOption{
		{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "id",
			Description: "Schedule id",
			Required:    true,
			MinValue:    &minScheduleID,
		},
	},
}

var Status = &discordgo.ApplicationCommand{
	Name:        "status",
	Description: "Show queue and host status",
}
