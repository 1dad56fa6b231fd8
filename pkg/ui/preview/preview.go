// Package preview draws digested channel messages in the terminal.
package preview

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"skypeconnector/pkg/digester"
)

// Render draws messages top to bottom in delivery order.
func Render(messages []digester.Message) string {
	t := defaultTheme()

	blocks := make([]string, 0, len(messages))
	for i, msg := range messages {
		header := t.meta.Render(fmt.Sprintf("#%d", i+1))
		blocks = append(blocks, lipgloss.JoinVertical(lipgloss.Left, header, t.renderMessage(msg)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, blocks...)
}

func (t theme) renderMessage(msg digester.Message) string {
	if card, ok := msg.Card(); ok {
		return t.renderCard(msg.Text, card)
	}

	parts := make([]string, 0, len(msg.Attachments)+1)
	if msg.Text != "" || len(msg.Attachments) == 0 {
		parts = append(parts, t.textBox.Render(msg.Text))
	}
	for _, attachment := range msg.Attachments {
		parts = append(parts, t.imageBox.Render(lipgloss.JoinVertical(lipgloss.Left,
			t.imageTitle.Render(attachment.Name),
			t.meta.Render(attachment.ContentType),
			attachment.ContentURL,
		)))
	}

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (t theme) renderCard(text string, card *digester.HeroCard) string {
	rows := []string{t.cardTitle.Render(text)}
	for _, button := range card.Buttons {
		style := t.postBack
		if button.Type == digester.ButtonOpenURL {
			style = t.openURL
		}
		rows = append(rows, style.Render(button.Title)+" "+t.meta.Render(truncate(button.Value, 60)))
	}

	return t.cardBox.Render(strings.Join(rows, "\n"))
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
