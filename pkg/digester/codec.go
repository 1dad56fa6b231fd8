package digester

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// OptionValue is carried by question buttons.
type OptionValue struct {
	Message string          `json:"message"`
	Option  json.RawMessage `json:"option"`
}

// ExtendedContentValue echoes a whole sub-answer back to the backend.
type ExtendedContentValue struct {
	ExtendedContentAnswer Answer `json:"extendedContentAnswer"`
}

// EscalationValue is carried by the yes/no escalation buttons.
type EscalationValue struct {
	EscalateOption bool `json:"escalateOption"`
}

// RatingValue is carried by content rating buttons.
type RatingValue struct {
	AskRatingComment bool       `json:"askRatingComment"`
	IsNegativeRating bool       `json:"isNegativeRating"`
	RatingData       RatingData `json:"ratingData"`
}

type RatingData struct {
	Type string       `json:"type"`
	Data RatingDetail `json:"data"`
}

// RatingDetail always serializes comment, as null when unset.
type RatingDetail struct {
	Code    string  `json:"code"`
	Value   int     `json:"value"`
	Comment *string `json:"comment"`
}

// EncodeValue serializes a button value payload into the string form the channel carries.
func EncodeValue(v any) (string, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return "", fmt.Errorf("encode button value: %w", err)
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeValue parses a button value produced by EncodeValue.
func DecodeValue(value string, v any) error {
	if err := json.Unmarshal([]byte(value), v); err != nil {
		return fmt.Errorf("decode button value: %w", err)
	}
	return nil
}
