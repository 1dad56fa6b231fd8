package digester

const (
	ButtonPostBack = "postBack"
	ButtonOpenURL  = "openUrl"

	LayoutList          = "list"
	ContentTypeHeroCard = "application/vnd.microsoft.card.hero"
)

// Message is one channel-native payload: plain text, a single image attachment or a hero card.
type Message struct {
	Text             string       `json:"text,omitempty"`
	AttachmentLayout string       `json:"attachmentLayout,omitempty"`
	Attachments      []Attachment `json:"attachments,omitempty"`
}

// Attachment is either an image descriptor or a card wrapper.
type Attachment struct {
	ContentType string    `json:"contentType"`
	ContentURL  string    `json:"contentUrl,omitempty"`
	Name        string    `json:"name,omitempty"`
	Content     *HeroCard `json:"content,omitempty"`
}

type HeroCard struct {
	Text    string   `json:"text"`
	Buttons []Button `json:"buttons"`
}

// Button is one card action. Value is always a string: JSON for postBack, the URL for openUrl.
type Button struct {
	Title string `json:"title"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Card returns the hero card carried by the message, if any.
func (m Message) Card() (*HeroCard, bool) {
	for _, attachment := range m.Attachments {
		if attachment.ContentType == ContentTypeHeroCard && attachment.Content != nil {
			return attachment.Content, true
		}
	}
	return nil, false
}

// Empty reports whether the message carries neither text nor attachments.
func (m Message) Empty() bool {
	return m.Text == "" && len(m.Attachments) == 0
}

func TextMessage(text string) Message {
	return Message{Text: text}
}

// ImageMessage builds an attachment message for one image.
func ImageMessage(url string, name string, extension string) Message {
	return Message{
		Attachments: []Attachment{{
			ContentType: "image/" + extension,
			ContentURL:  url,
			Name:        name,
		}},
	}
}

func PostBackButton(title string, value string) Button {
	return Button{Title: StripTags(title), Type: ButtonPostBack, Value: value}
}

func OpenURLButton(title string, url string) Button {
	return Button{Title: StripTags(title), Type: ButtonOpenURL, Value: url}
}

// BuildCard renders text and buttons as a single hero card in list layout.
func BuildCard(text string, buttons []Button) Message {
	if buttons == nil {
		buttons = []Button{}
	}

	return Message{
		Text:             StripTags(text),
		AttachmentLayout: LayoutList,
		Attachments: []Attachment{{
			ContentType: ContentTypeHeroCard,
			Content: &HeroCard{
				Text:    "",
				Buttons: buttons,
			},
		}},
	}
}
