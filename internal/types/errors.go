package types

import (
	"context"
	"errors"
	"fmt"
)

// Kind classifies pipeline failures. The user-facing message of an error
// depends only on its kind, never on provider or tool output.
type Kind int

const (
	KindExtraction Kind = iota + 1
	KindAuthentication
	KindInvalidInput
	KindProviderUnavailable
	KindRender
)

func (k Kind) String() string {
	switch k {
	case KindExtraction:
		return "extraction"
	case KindAuthentication:
		return "authentication"
	case KindInvalidInput:
		return "invalid input"
	case KindProviderUnavailable:
		return "provider unavailable"
	case KindRender:
		return "render"
	default:
		return "unknown"
	}
}

// Error is the pipeline error taxonomy. Detail holds bounded, redacted
// diagnostic text for logs only and is not part of Error().
type Error struct {
	Kind   Kind
	Op     string
	Detail string
	Err    error
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		var inner *Error
		if !errors.As(e.Err, &inner) {
			return fmt.Sprintf("%s (%s)", msg, causeLabel(e.Err))
		}
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// causeLabel keeps context/OS-level causes recognisable without leaking
// arbitrary wrapped text.
func causeLabel(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "see logs"
	}
}

func newErr(kind Kind, op, detail string, err error) *Error {
	return &Error{Kind: kind, Op: op, Detail: detail, Err: err}
}

func ExtractionError(op, detail string, err error) error {
	return newErr(KindExtraction, op, detail, err)
}

func AuthenticationError(op, detail string, err error) error {
	return newErr(KindAuthentication, op, detail, err)
}

func InvalidInputError(op, detail string, err error) error {
	return newErr(KindInvalidInput, op, detail, err)
}

func ProviderUnavailableError(op, detail string, err error) error {
	return newErr(KindProviderUnavailable, op, detail, err)
}

func RenderError(op, detail string, err error) error {
	return newErr(KindRender, op, detail, err)
}

// KindOf returns the taxonomy kind of err, or 0 when err is outside it.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// IsKind reports whether err belongs to kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// DetailOf returns the log-only diagnostic text attached to err.
func DetailOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Detail
	}
	return ""
}

// Retryable reports whether a caller may retry err with backoff.
func Retryable(err error) bool { return IsKind(err, KindProviderUnavailable) }

// UserMessage maps err to the message shown to end users.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	switch KindOf(err) {
	case KindExtraction:
		return "audio processing failed"
	case KindAuthentication:
		return "transcription service configuration error"
	case KindInvalidInput:
		return "unsupported or corrupt input"
	case KindProviderUnavailable:
		return "transcription service temporarily unavailable, please try again later"
	case KindRender:
		return "render failed"
	default:
		return "request failed"
	}
}
