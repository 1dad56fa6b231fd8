package digester

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"
)

const (
	activityTypeMessage            = "message"
	activityTypeConversationUpdate = "conversationUpdate"

	// postbackMarker is embedded by the channel in channelData.text when a card button is clicked.
	postbackMarker = "smbapostback"
)

// InboundKind is the semantic type of one inbound channel payload.
type InboundKind string

const (
	InboundUnknown    InboundKind = ""
	InboundText       InboundKind = "text"
	InboundPostback   InboundKind = "postback"
	InboundAttachment InboundKind = "attachment"
)

// inboundKinds lists the inbound kinds in classification priority order.
var inboundKinds = []InboundKind{InboundText, InboundPostback, InboundAttachment}

// InboundMessage is the typed view of an inbound channel activity.
type InboundMessage struct {
	Type        string              `json:"type"`
	Text        *string             `json:"text,omitempty"`
	ChannelData *InboundChannelData `json:"channelData,omitempty"`
	Attachments []InboundFile       `json:"attachments,omitempty"`
}

// InboundChannelData is the channel side-channel object of an activity.
type InboundChannelData struct {
	Postback json.RawMessage `json:"postback,omitempty"`
	Text     *string         `json:"text,omitempty"`
}

// InboundFile describes one file the user sent.
type InboundFile struct {
	ContentType string `json:"contentType,omitempty"`
	ContentURL  string `json:"contentUrl"`
	Name        string `json:"name,omitempty"`
}

// CanonicalRequest is the normalized JSON object sent to the backend.
type CanonicalRequest map[string]any

// Message returns the "message" field when it is a string.
func (r CanonicalRequest) Message() (string, bool) {
	value, ok := r["message"].(string)
	return value, ok
}

// IsChannelRequest reports whether raw is a channel message activity addressed to the bot.
func IsChannelRequest(raw []byte) bool {
	var probe struct {
		Type         string          `json:"type"`
		Conversation json.RawMessage `json:"conversation"`
		Recipient    json.RawMessage `json:"recipient"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}

	return probe.Type == activityTypeMessage && present(probe.Conversation) && present(probe.Recipient)
}

// ClassifyInbound returns the first kind in priority order that matches msg.
func ClassifyInbound(msg InboundMessage) InboundKind {
	for _, kind := range inboundKinds {
		if inboundMatchers[kind](msg) {
			return kind
		}
	}

	return InboundUnknown
}

var inboundMatchers = map[InboundKind]func(InboundMessage) bool{
	InboundText:       isText,
	InboundPostback:   isPostback,
	InboundAttachment: isAttachment,
}

func isText(msg InboundMessage) bool {
	return msg.Text != nil && *msg.Text != "" && !isPostback(msg)
}

func isPostback(msg InboundMessage) bool {
	if msg.ChannelData == nil {
		return false
	}

	explicit := msg.Text != nil && truthy(msg.ChannelData.Postback)
	marked := msg.ChannelData.Text != nil && strings.Contains(*msg.ChannelData.Text, postbackMarker)
	return explicit || marked
}

func isAttachment(msg InboundMessage) bool {
	return len(msg.Attachments) > 0
}

func digestText(msg InboundMessage) ([]CanonicalRequest, error) {
	return []CanonicalRequest{{"message": *msg.Text}}, nil
}

// digestPostback decodes the JSON object a card button carried in the text field.
func digestPostback(msg InboundMessage) ([]CanonicalRequest, error) {
	text := ""
	if msg.Text != nil {
		text = *msg.Text
	}

	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.UseNumber()

	var request CanonicalRequest
	if err := decoder.Decode(&request); err != nil {
		return nil, newError(ErrorMalformedPostback, "decode postback text", err)
	}
	if request == nil {
		return nil, newError(ErrorMalformedPostback, "postback text is not a JSON object", nil)
	}
	if err := decoder.Decode(&json.RawMessage{}); !errors.Is(err, io.EOF) {
		return nil, newError(ErrorMalformedPostback, "trailing data after postback object", err)
	}

	return []CanonicalRequest{request}, nil
}

func digestAttachments(msg InboundMessage) ([]CanonicalRequest, error) {
	requests := make([]CanonicalRequest, 0, len(msg.Attachments))
	for _, attachment := range msg.Attachments {
		requests = append(requests, CanonicalRequest{"message": attachment.ContentURL})
	}

	return requests, nil
}

// present reports whether a raw JSON field was set to a non-null value.
func present(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// truthy treats the JSON falsy literals and empty containers as false.
func truthy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", "0", `""`, `"0"`, "[]":
		return false
	default:
		return true
	}
}
