package stylist

import (
	"errors"
	"strings"
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindDecode     Kind = "decode"
	KindGeneration Kind = "generation"
	KindRefinement Kind = "refinement"
	KindTransport  Kind = "transport"
)

// Error carries a user facing message. Error() returns Message unchanged
// so callers can surface it verbatim; the cause stays reachable through
// Unwrap.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func (e *Error) withCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

var (
	ErrMissingImages    = &Error{Kind: KindValidation, Message: "Please upload both a closeup and a full body photo."}
	ErrEmptyInstruction = &Error{Kind: KindValidation, Message: "Please describe the change you want to make."}
	ErrNoStyledImage    = &Error{Kind: KindValidation, Message: "Cannot refine image without a base image and a closeup reference."}

	ErrMalformedSuggestion = &Error{Kind: KindDecode, Message: "Failed to get style suggestions. The AI's response was not valid JSON."}
	ErrImageGeneration     = &Error{Kind: KindGeneration, Message: "Image generation failed. The AI did not return an image."}
	ErrImageRefinement     = &Error{Kind: KindRefinement, Message: "Image refinement failed. The AI did not return an image."}
)

const (
	FallbackGenerateMessage = "An unexpected error occurred."
	FallbackRefineMessage   = "An unexpected error occurred during refinement."
)

// KindOf classifies err. Anything that is not a stylist error is treated as
// a transport failure.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransport
}

// UserMessage returns err's own message, or fallback when it has none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallback
}
