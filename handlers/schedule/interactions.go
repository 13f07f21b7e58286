package schedule

import (
	"context"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Reply is the final response to a command.
type Reply struct {
	Content    string
	Embeds     []*discordgo.MessageEmbed
	Components []discordgo.MessageComponent
}

func text(content string) Reply {
	return Reply{Content: content}
}

func optionMap(options []*discordgo.ApplicationCommandInteractionDataOption) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	optionMap := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		optionMap[opt.Name] = opt
	}
	return optionMap
}

func stringOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		return opt.StringValue()
	}
	return ""
}

// userOption returns the id of the user picked for name.
func userOption(opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	if opt, ok := opts[name]; ok {
		if id, ok := opt.Value.(string); ok {
			return id
		}
	}
	return ""
}

// attachmentURL resolves the attachment option name to its CDN URL.
func attachmentURL(data discordgo.ApplicationCommandInteractionData, opts map[string]*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	opt, ok := opts[name]
	if !ok || data.Resolved == nil {
		return ""
	}
	id, _ := opt.Value.(string)
	if a, ok := data.Resolved.Attachments[id]; ok && a != nil {
		return a.URL
	}
	return ""
}

func displayName(data discordgo.ApplicationCommandInteractionData, userID string) string {
	if data.Resolved != nil {
		if m, ok := data.Resolved.Members[userID]; ok && m != nil && m.Nick != "" {
			return m.Nick
		}
		if u, ok := data.Resolved.Users[userID]; ok && u != nil {
			if u.GlobalName != "" {
				return u.GlobalName
			}
			return u.Username
		}
	}
	return "<@" + userID + ">"
}

// HandleSend handles /send.
func (h *Handler) HandleSend(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	data := i.ApplicationCommandData()
	opts := optionMap(data.Options)
	userID := userOption(opts, "user")

	return text(h.Send(ctx, userID, displayName(data, userID), stringOption(opts, "message"), attachmentURL(data, opts, "file")))
}

// HandleScheduleDM handles /scheduledm.
func (h *Handler) HandleScheduleDM(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	data := i.ApplicationCommandData()
	opts := optionMap(data.Options)

	return text(h.Create(ctx, userOption(opts, "user"), stringOption(opts, "time"), stringOption(opts, "message"), attachmentURL(data, opts, "file")))
}

// HandleList handles /list, starting on the first page.
func (h *Handler) HandleList(ctx context.Context, _ *discordgo.InteractionCreate) Reply {
	content, components := h.List(ctx, 1)
	return Reply{Content: content, Components: components}
}

// HandleListPage handles the Previous/Next buttons of /list.
func (h *Handler) HandleListPage(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	page := 1
	if _, raw, ok := strings.Cut(i.MessageComponentData().CustomID, ":"); ok {
		if n, err := strconv.Atoi(raw); err == nil {
			page = n
		}
	}
	content, components := h.List(ctx, page)
	return Reply{Content: content, Components: components}
}

// HandleGet handles /get.
func (h *Handler) HandleGet(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	opts := optionMap(i.ApplicationCommandData().Options)
	opt, ok := opts["id"]
	if !ok {
		return text(msgNotFound)
	}
	return text(h.Get(ctx, opt.IntValue()))
}

// HandleCancel handles /cancel.
func (h *Handler) HandleCancel(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	opts := optionMap(i.ApplicationCommandData().Options)
	opt, ok := opts["id"]
	if !ok {
		return text(msgNotFound)
	}
	return text(h.Cancel(ctx, opt.IntValue()))
}

// HandleStatus handles the queue part of /status.
func (h *Handler) HandleStatus(ctx context.Context, _ *discordgo.InteractionCreate) Reply {
	embed, err := h.Status(ctx)
	if err != nil {
		h.log.WithError(err).Error("Failed to build status")
		return text(msgStorageFailure)
	}
	return Reply{Embeds: []*discordgo.MessageEmbed{embed}}
}
