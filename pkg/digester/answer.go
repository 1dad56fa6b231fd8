package digester

import (
	"bytes"
	"encoding/json"
)

// AnswerKind is the semantic type of one backend answer.
type AnswerKind string

const (
	KindUnknown                AnswerKind = ""
	KindAnswer                 AnswerKind = "answer"
	KindPolarQuestion          AnswerKind = "polarQuestion"
	KindMultipleChoiceQuestion AnswerKind = "multipleChoiceQuestion"
	KindExtendedContentsAnswer AnswerKind = "extendedContentsAnswer"
)

// AnswerKinds lists every backend answer kind the digester renders.
var AnswerKinds = []AnswerKind{
	KindAnswer,
	KindPolarQuestion,
	KindMultipleChoiceQuestion,
	KindExtendedContentsAnswer,
}

const flagMultipleOptions = "multiple-options"

// Answer is one backend answer object.
type Answer struct {
	Type       string     `json:"type"`
	Message    string     `json:"message"`
	Options    []Option   `json:"options,omitempty"`
	Flags      []string   `json:"flags,omitempty"`
	Attributes Attributes `json:"attributes,omitempty"`
	SubAnswers []Answer   `json:"subAnswers,omitempty"`

	// raw keeps the decoded object so it can be echoed back untouched.
	raw json.RawMessage
}

// Option is one selectable choice of a question answer.
type Option struct {
	Label      string          `json:"label"`
	Value      json.RawMessage `json:"value"`
	Attributes Attributes      `json:"attributes,omitempty"`
}

// Attributes is the free-form attribute map attached to answers and options.
type Attributes map[string]json.RawMessage

type plainAnswer Answer

func (a *Answer) UnmarshalJSON(data []byte) error {
	var decoded plainAnswer
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}

	*a = Answer(decoded)
	a.raw = append(json.RawMessage(nil), data...)
	return nil
}

func (a Answer) MarshalJSON() ([]byte, error) {
	if len(a.raw) > 0 {
		return a.raw, nil
	}
	return json.Marshal(plainAnswer(a))
}

// UnmarshalJSON accepts an empty JSON array as an empty map, which is how
// some backends serialize attribute-less entries.
func (a *Attributes) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("[]")) || bytes.Equal(trimmed, []byte("null")) {
		*a = nil
		return nil
	}

	var decoded map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &decoded); err != nil {
		return err
	}
	*a = decoded
	return nil
}

// Raw returns the undecoded attribute value when key is set to a non-null value.
func (a Attributes) Raw(key string) (json.RawMessage, bool) {
	if key == "" {
		return nil, false
	}

	raw, ok := a[key]
	if !ok || !present(raw) {
		return nil, false
	}
	return raw, true
}

// String returns the attribute as text. Non-string values are returned as their JSON encoding.
func (a Attributes) String(key string) (string, bool) {
	raw, ok := a.Raw(key)
	if !ok {
		return "", false
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text, true
	}
	return string(bytes.TrimSpace(raw)), true
}

// ClassifyAnswer maps the answer type tag onto a known kind.
func ClassifyAnswer(answer Answer) AnswerKind {
	for _, kind := range AnswerKinds {
		if answer.Type == string(kind) {
			return kind
		}
	}

	return KindUnknown
}
