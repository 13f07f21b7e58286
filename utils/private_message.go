package utils

import (
	"bytes"
	"dm-scheduler/model"

	"github.com/bwmarrin/discordgo"
)

// DirectMessenger resolves Discord users and sends them direct messages.
type DirectMessenger struct {
	session *discordgo.Session
}

// NewDirectMessenger wraps s.
func NewDirectMessenger(s *discordgo.Session) *DirectMessenger {
	return &DirectMessenger{session: s}
}

// SendDirectMessage resolves userID and sends content, with file attached when non-nil,
// as a single message. Failures are returned as *model.DeliveryError.
func (m *DirectMessenger) SendDirectMessage(userID, content string, file *model.Attachment) error {
	if _, err := m.session.User(userID); err != nil {
		return &model.DeliveryError{UserID: userID, Err: err}
	}

	channel, err := m.session.UserChannelCreate(userID)
	if err != nil {
		return &model.DeliveryError{UserID: userID, Err: err}
	}

	msg := &discordgo.MessageSend{Content: content}
	if file != nil {
		msg.Files = []*discordgo.File{{
			Name:        file.Name,
			ContentType: file.ContentType,
			Reader:      bytes.NewReader(file.Data),
		}}
	}

	if _, err := m.session.ChannelMessageSendComplex(channel.ID, msg); err != nil {
		return &model.DeliveryError{UserID: userID, Err: err}
	}
	return nil
}
