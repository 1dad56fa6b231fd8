// Package digester translates between channel activities and backend requests and answers.
//
// Inbound payloads are classified and normalized into canonical backend
// requests. Backend answers are classified and rendered into channel messages.
// A Digester holds no mutable state and is safe for concurrent use when its
// Translator is.
package digester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"

	"skypeconnector/pkg/config"
)

// Translator resolves localized UI strings.
type Translator interface {
	Translate(key string) string
}

type identityTranslator struct{}

func (identityTranslator) Translate(key string) string { return key }

type inboundDigester func(InboundMessage) ([]CanonicalRequest, error)

type answerDigester func(Answer, string) ([]Message, error)

// Digester runs classification and transformation in both directions.
type Digester struct {
	cfg  config.DigesterConfig
	lang Translator
	log  *slog.Logger

	inbound  map[InboundKind]inboundDigester
	outbound map[AnswerKind]answerDigester
}

// New builds a Digester. A nil lang translates every key to itself.
func New(cfg config.DigesterConfig, lang Translator, log *slog.Logger) *Digester {
	if lang == nil {
		lang = identityTranslator{}
	}
	if log == nil {
		log = slog.Default()
	}

	d := &Digester{
		cfg:  cfg,
		lang: lang,
		log:  log.With("component", "digester"),
		inbound: map[InboundKind]inboundDigester{
			InboundText:       digestText,
			InboundPostback:   digestPostback,
			InboundAttachment: digestAttachments,
		},
	}
	d.outbound = map[AnswerKind]answerDigester{
		KindAnswer:                 d.digestAnswer,
		KindPolarQuestion:          d.digestPolarQuestion,
		KindMultipleChoiceQuestion: d.digestMultipleChoiceQuestion,
		KindExtendedContentsAnswer: d.digestExtendedContentsAnswer,
	}

	return d
}

// DigestInbound converts one raw channel payload into canonical backend requests.
//
// Empty payloads, activities other than "message" and unrecognized payloads
// yield an empty batch.
func (d *Digester) DigestInbound(raw []byte) ([]CanonicalRequest, error) {
	if !present(raw) {
		return nil, nil
	}

	var msg InboundMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, newError(ErrorMalformedInbound, "decode activity", err)
	}

	return d.DigestInboundMessage(msg)
}

// DigestInboundMessage is DigestInbound for an already decoded payload.
func (d *Digester) DigestInboundMessage(msg InboundMessage) ([]CanonicalRequest, error) {
	if msg.Type != activityTypeMessage {
		if msg.Type != activityTypeConversationUpdate {
			d.log.Debug("Ignoring non-message activity", "type", msg.Type)
		}
		return nil, nil
	}

	kind := ClassifyInbound(msg)
	digest, ok := d.inbound[kind]
	if !ok {
		d.log.Debug("Ignoring unrecognized inbound payload", "type", msg.Type)
		return nil, nil
	}

	return digest(msg)
}

// DigestOutbound renders a backend response into channel messages.
//
// raw may be a single answer, a JSON array of answers or an object holding an
// "answers" array. Any answer of unknown type fails the whole call.
func (d *Digester) DigestOutbound(raw []byte, lastUserQuestion string) ([]Message, error) {
	answers, err := decodeAnswers(raw)
	if err != nil {
		return nil, err
	}

	return d.DigestAnswers(answers, lastUserQuestion)
}

// DigestAnswers renders decoded answers in order and flattens the results.
func (d *Digester) DigestAnswers(answers []Answer, lastUserQuestion string) ([]Message, error) {
	var out []Message
	for i, answer := range answers {
		digest, ok := d.outbound[ClassifyAnswer(answer)]
		if !ok {
			return nil, newError(ErrorUnknownAnswerType, fmt.Sprintf("answer %d has type %q", i, answer.Type), nil)
		}

		messages, err := digest(answer, lastUserQuestion)
		if err != nil {
			return nil, fmt.Errorf("digest %s answer: %w", answer.Type, err)
		}
		out = append(out, messages...)
	}

	return out, nil
}

func decodeAnswers(raw []byte) ([]Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var answers []Answer
		if err := json.Unmarshal(trimmed, &answers); err != nil {
			return nil, newError(ErrorMalformedAnswer, "decode answer list", err)
		}
		return answers, nil
	}

	var envelope struct {
		Answers json.RawMessage `json:"answers"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, newError(ErrorMalformedAnswer, "decode response", err)
	}
	if list := bytes.TrimSpace(envelope.Answers); len(list) > 0 && list[0] == '[' {
		var answers []Answer
		if err := json.Unmarshal(list, &answers); err != nil {
			return nil, newError(ErrorMalformedAnswer, "decode answers", err)
		}
		return answers, nil
	}

	var single Answer
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, newError(ErrorMalformedAnswer, "decode answer", err)
	}
	if ClassifyAnswer(single) == KindUnknown {
		return nil, newError(ErrorUnknownAnswerType, fmt.Sprintf("unknown backend response of type %q", single.Type), nil)
	}

	return []Answer{single}, nil
}
