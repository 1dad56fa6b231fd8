package digester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
)

const maxExtendedContents = 3

const (
	keyRateContentIntro = "rate_content_intro"
	keyAskToEscalate    = "ask_to_escalate"
	keyYes              = "yes"
	keyNo               = "no"
)

// RatingOption is one choice offered by the content rating card.
type RatingOption struct {
	ID         int    `json:"id"`
	Label      string `json:"label"`
	Comment    bool   `json:"comment,omitempty"`
	IsNegative bool   `json:"isNegative,omitempty"`
}

// digestAnswer renders a plain answer: split images first, then URL buttons, then stripped text.
func (d *Digester) digestAnswer(answer Answer, _ string) ([]Message, error) {
	if strings.Contains(answer.Message, "<img") {
		parts := slices.DeleteFunc(SplitImages(answer.Message), Message.Empty)
		if len(parts) == 0 {
			d.log.Warn("Answer has no deliverable text or images", "message", answer.Message)
		}
		return parts, nil
	}

	if def, ok := answer.Attributes.Raw(d.cfg.URLButtons.AttributeName); ok && truthy(def) {
		if buttons, ok := d.urlButtons(def); ok {
			return []Message{BuildCard(answer.Message, buttons)}, nil
		}
		d.log.Debug("Incomplete URL button definition, sending plain text", "attribute", d.cfg.URLButtons.AttributeName)
	}

	return []Message{TextMessage(StripTags(answer.Message))}, nil
}

// urlButtons builds openUrl buttons from one definition object or a list of them.
// It reports false when any definition lacks a title or a URL.
func (d *Digester) urlButtons(def json.RawMessage) ([]Button, bool) {
	var defs []Attributes
	trimmed := bytes.TrimSpace(def)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &defs); err != nil {
			return nil, false
		}
	} else {
		var single Attributes
		if err := json.Unmarshal(trimmed, &single); err != nil {
			return nil, false
		}
		defs = []Attributes{single}
	}

	buttons := make([]Button, 0, len(defs))
	for _, button := range defs {
		title, ok := button.String(d.cfg.URLButtons.ButtonTitleVar)
		if !ok || title == "" {
			return nil, false
		}
		url, ok := button.String(d.cfg.URLButtons.ButtonURLVar)
		if !ok || url == "" {
			return nil, false
		}
		buttons = append(buttons, OpenURLButton(title, url))
	}

	return buttons, len(buttons) > 0
}

func (d *Digester) digestPolarQuestion(answer Answer, lastUserQuestion string) ([]Message, error) {
	buttons := make([]Button, 0, len(answer.Options))
	for _, option := range answer.Options {
		value, err := EncodeValue(OptionValue{Message: lastUserQuestion, Option: option.Value})
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, PostBackButton(d.lang.Translate(option.Label), value))
	}

	return []Message{BuildCard(answer.Message, buttons)}, nil
}

func (d *Digester) digestMultipleChoiceQuestion(answer Answer, lastUserQuestion string) ([]Message, error) {
	multiple := slices.Contains(answer.Flags, flagMultipleOptions)

	buttons := make([]Button, 0, len(answer.Options))
	for _, option := range answer.Options {
		title := option.Label
		if multiple {
			if configured, ok := option.Attributes.String(d.cfg.ButtonTitle); ok {
				title = configured
			}
		}

		value, err := EncodeValue(OptionValue{Message: lastUserQuestion, Option: option.Value})
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, PostBackButton(title, value))
	}

	return []Message{BuildCard(answer.Message, buttons)}, nil
}

// digestExtendedContentsAnswer offers at most three sub-answers as buttons; the rest are dropped.
func (d *Digester) digestExtendedContentsAnswer(answer Answer, _ string) ([]Message, error) {
	subAnswers := answer.SubAnswers[:min(len(answer.SubAnswers), maxExtendedContents)]

	buttons := make([]Button, 0, len(subAnswers))
	for _, sub := range subAnswers {
		title := sub.Message
		if configured, ok := sub.Attributes.String(d.cfg.ButtonTitle); ok {
			title = configured
		}

		value, err := EncodeValue(ExtendedContentValue{ExtendedContentAnswer: sub})
		if err != nil {
			return nil, err
		}
		buttons = append(buttons, PostBackButton(title, value))
	}

	return []Message{BuildCard(answer.Message, buttons)}, nil
}

// BuildRatingMessage renders the content rating card for the answer identified by rateCode.
func (d *Digester) BuildRatingMessage(options []RatingOption, rateCode string) (Message, error) {
	buttons := make([]Button, 0, len(options))
	for _, option := range options {
		value, err := EncodeValue(RatingValue{
			AskRatingComment: option.Comment,
			IsNegativeRating: option.IsNegative,
			RatingData: RatingData{
				Type: "rate",
				Data: RatingDetail{Code: rateCode, Value: option.ID},
			},
		})
		if err != nil {
			return Message{}, fmt.Errorf("build rating option %d: %w", option.ID, err)
		}
		buttons = append(buttons, PostBackButton(d.lang.Translate(option.Label), value))
	}

	return BuildCard(d.lang.Translate(keyRateContentIntro), buttons), nil
}

// BuildEscalationMessage renders the fixed yes/no card asking to talk to an agent.
func (d *Digester) BuildEscalationMessage() (Message, error) {
	choices := []struct {
		label    string
		escalate bool
	}{
		{keyYes, true},
		{keyNo, false},
	}

	buttons := make([]Button, 0, len(choices))
	for _, choice := range choices {
		value, err := EncodeValue(EscalationValue{EscalateOption: choice.escalate})
		if err != nil {
			return Message{}, err
		}
		buttons = append(buttons, PostBackButton(d.lang.Translate(choice.label), value))
	}

	return BuildCard(d.lang.Translate(keyAskToEscalate), buttons), nil
}
