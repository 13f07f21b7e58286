package handlers

import (
	"context"
	"dm-scheduler/bot"
	"dm-scheduler/handlers/schedule"
	"dm-scheduler/utils"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// commandTimeout bounds the work behind one deferred reply.
const commandTimeout = 2 * time.Minute

const (
	msgUnexpectedFailure = "❌ Something went wrong while handling that command."
	msgReplyRejected     = "❌ The reply could not be delivered, please try again."
)

type replyFunc func(ctx context.Context, i *discordgo.InteractionCreate) schedule.Reply

func Register(b *bot.Bot) {
	h := schedule.NewHandler(b.Store, b.Dispatcher, b.Config.Location, b.Log.WithField("component", "commands"))
	b.CommandHandlers = commandHandlers(b, h)
	addHandlers(b, h)
}

func commandHandlers(b *bot.Bot, h *schedule.Handler) map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return map[string]func(s *discordgo.Session, i *discordgo.InteractionCreate){
		"send":       deferred(b.Log, h.HandleSend),
		"scheduledm": deferred(b.Log, h.HandleScheduleDM),
		"list":       deferred(b.Log, h.HandleList),
		"get":        deferred(b.Log, h.HandleGet),
		"cancel":     deferred(b.Log, h.HandleCancel),
		"status": deferred(b.Log, func(ctx context.Context, i *discordgo.InteractionCreate) schedule.Reply {
			reply := h.HandleStatus(ctx, i)
			reply.Embeds = append(reply.Embeds, SystemInfoEmbed(b.Session))
			return reply
		}),
	}
}

func addHandlers(b *bot.Bot, h *schedule.Handler) {
	b.Session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.Log.Infof("Logged in as: %v (ID: %v)", r.User.Username, r.User.ID)
	})
	b.Session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		handleInteractionCreate(s, i, b, h)
	})
}

// deferred acknowledges the command right away, runs fn and replaces the
// acknowledgment with its reply. A panic in fn becomes a generic failure reply.
func deferred(log logrus.FieldLogger, fn replyFunc) func(s *discordgo.Session, i *discordgo.InteractionCreate) {
	return func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		entry := log.WithField("command", i.ApplicationCommandData().Name)
		if err := utils.DeferResponse(s, i, true); err != nil {
			entry.WithError(err).Warn("Failed to acknowledge interaction")
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
		defer cancel()

		reply := runSafely(entry, func() schedule.Reply { return fn(ctx, i) })
		deliverReply(entry, reply,
			func(r schedule.Reply) error {
				if len(r.Embeds) > 0 {
					return utils.SendEmbedFollowUp(s, i.Interaction, r.Content, r.Embeds)
				}
				return utils.SendFollowUp(s, i.Interaction, r.Content, r.Components)
			})
	}
}

// deliverReply sends reply and, when Discord rejects it, replaces it with a short
// failure notice so the requester is not left on the deferred acknowledgment.
func deliverReply(log logrus.FieldLogger, reply schedule.Reply, send func(schedule.Reply) error) {
	err := send(reply)
	if err == nil {
		return
	}
	log.WithError(err).Warn("Error sending follow-up message")
	if err := send(schedule.Reply{Content: msgReplyRejected}); err != nil {
		log.WithError(err).Error("Error sending fallback reply")
	}
}

func runSafely(log logrus.FieldLogger, fn func() schedule.Reply) (reply schedule.Reply) {
	defer func() {
		if r := recover(); r != nil {
			log.WithField("panic", r).Error("Recovered from panic in command handler")
			reply = schedule.Reply{Content: msgUnexpectedFailure}
		}
	}()
	return fn()
}
