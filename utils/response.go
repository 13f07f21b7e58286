package utils

import (
	"unicode/utf8"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
)

// MaxMessageLength is the most characters Discord accepts in message content.
const MaxMessageLength = 2000

// ClipRunes shortens s to at most n characters, ending the cut text with "…".
func ClipRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n-1]) + "…"
}

// DeferResponse acknowledges an interaction immediately so the real reply can follow later.
func DeferResponse(s *discordgo.Session, i *discordgo.InteractionCreate, ephemeral bool) error {
	response := &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}
	if ephemeral {
		response.Data = &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		}
	}
	return s.InteractionRespond(i.Interaction, response)
}

// SendFollowUp replaces the deferred response with message and optional components.
// Content over MaxMessageLength is clipped.
func SendFollowUp(s *discordgo.Session, i *discordgo.Interaction, message string, components []discordgo.MessageComponent) error {
	message = ClipRunes(message, MaxMessageLength)
	edit := &discordgo.WebhookEdit{Content: &message}
	if components != nil {
		edit.Components = &components
	}
	_, err := s.InteractionResponseEdit(i, edit)
	return err
}

// UpdateComponentMessage rewrites the message a button belongs to.
func UpdateComponentMessage(s *discordgo.Session, i *discordgo.InteractionCreate, log logrus.FieldLogger, message string, components []discordgo.MessageComponent) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    ClipRunes(message, MaxMessageLength),
			Components: components,
			Flags:      discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Error updating component message")
	}
}

// SendErrorResponse sends an ephemeral error message as the first response.
func SendErrorResponse(s *discordgo.Session, i *discordgo.InteractionCreate, log logrus.FieldLogger, message string) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "❌ " + message,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		log.WithError(err).Warn("Error sending error response")
	}
}

// SendEmbedFollowUp replaces the deferred response with message and embeds.
func SendEmbedFollowUp(s *discordgo.Session, i *discordgo.Interaction, message string, embeds []*discordgo.MessageEmbed) error {
	edit := &discordgo.WebhookEdit{Embeds: &embeds}
	if message != "" {
		message = ClipRunes(message, MaxMessageLength)
		edit.Content = &message
	}
	_, err := s.InteractionResponseEdit(i, edit)
	return err
}
