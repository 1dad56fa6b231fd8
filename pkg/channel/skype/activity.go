package skype

import (
	"encoding/json"
	"fmt"
	"strings"

	"skypeconnector/pkg/digester"
)

const activityTypeMessage = "message"

// ChannelAccount identifies a user or bot on the channel.
type ChannelAccount struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

type ConversationAccount struct {
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	IsGroup bool   `json:"isGroup,omitempty"`
}

// Activity is the Bot Framework envelope for inbound and outbound messages.
type Activity struct {
	Type             string                `json:"type"`
	ID               string                `json:"id,omitempty"`
	ChannelID        string                `json:"channelId,omitempty"`
	ServiceURL       string                `json:"serviceUrl,omitempty"`
	From             *ChannelAccount       `json:"from,omitempty"`
	Recipient        *ChannelAccount       `json:"recipient,omitempty"`
	Conversation     *ConversationAccount  `json:"conversation,omitempty"`
	ReplyToID        string                `json:"replyToId,omitempty"`
	Locale           string                `json:"locale,omitempty"`
	Text             string                `json:"text,omitempty"`
	AttachmentLayout string                `json:"attachmentLayout,omitempty"`
	Attachments      []digester.Attachment `json:"attachments,omitempty"`
}

// ParseActivity decodes the addressing part of an inbound activity.
// Inbound attachments are left to the digester.
func ParseActivity(raw []byte) (Activity, error) {
	var probe struct {
		Activity
		Attachments json.RawMessage `json:"attachments,omitempty"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Activity{}, fmt.Errorf("decode activity: %w", err)
	}

	activity := probe.Activity
	activity.Attachments = nil
	if activity.Conversation == nil || strings.TrimSpace(activity.Conversation.ID) == "" {
		return Activity{}, fmt.Errorf("activity %q has no conversation id", activity.ID)
	}
	return activity, nil
}

// ConversationKey maps one channel conversation to one backend session namespace.
func (a Activity) ConversationKey() string {
	if a.Conversation == nil {
		return "skype:"
	}
	return "skype:" + strings.TrimSpace(a.Conversation.ID)
}

// ReplyTo addresses msg as a reply to the inbound activity.
func ReplyTo(inbound Activity, msg digester.Message) Activity {
	return Activity{
		Type:             activityTypeMessage,
		ChannelID:        inbound.ChannelID,
		ServiceURL:       inbound.ServiceURL,
		From:             inbound.Recipient,
		Recipient:        inbound.From,
		Conversation:     inbound.Conversation,
		ReplyToID:        inbound.ID,
		Locale:           inbound.Locale,
		Text:             msg.Text,
		AttachmentLayout: msg.AttachmentLayout,
		Attachments:      msg.Attachments,
	}
}
