package handlers

import (
	"context"
	"dm-scheduler/bot"
	"dm-scheduler/handlers/schedule"
	"dm-scheduler/utils"
	"strings"

	"github.com/bwmarrin/discordgo"
)

func handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot, h *schedule.Handler) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if handler, ok := b.CommandHandlers[i.ApplicationCommandData().Name]; ok {
			handler(s, i)
		}
	case discordgo.InteractionMessageComponent:
		customID := i.MessageComponentData().CustomID
		if strings.HasPrefix(customID, schedule.ListCustomIDPrefix+":") {
			log := b.Log.WithField("command", "list")
			ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
			defer cancel()
			reply := runSafely(log, func() schedule.Reply { return h.HandleListPage(ctx, i) })
			utils.UpdateComponentMessage(s, i, log, reply.Content, reply.Components)
		}
	}
}
