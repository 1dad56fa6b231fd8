package digester

import (
	"errors"
	"fmt"
)

const (
	ErrorUnknownAnswerType = "unknown_answer_type"
	ErrorMalformedPostback = "malformed_postback"
	ErrorMalformedInbound  = "malformed_inbound"
	ErrorMalformedAnswer   = "malformed_answer"
)

// Error is a categorized digest failure.
type Error struct {
	Kind   string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Kind
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}

	return msg
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(kind string, detail string, err error) error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// KindOf returns the digest error kind carried by err, or "" when err is not a digest error.
func KindOf(err error) string {
	var digestErr *Error
	if errors.As(err, &digestErr) {
		return digestErr.Kind
	}

	return ""
}

// IsKind reports whether err is a digest error of the given kind.
func IsKind(err error, kind string) bool {
	return err != nil && KindOf(err) == kind
}
