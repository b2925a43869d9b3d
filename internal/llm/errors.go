package llm

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds. Match with errors.Is.
var (
	ErrAuth              = errors.New("authentication failed")
	ErrNetwork           = errors.New("network failure")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed response")
	ErrAPI               = errors.New("inference service error")
)

// Error is returned by Completer implementations.
type Error struct {
	Kind       error         // one of the Err* sentinels
	StatusCode int           // HTTP status, 0 when no response was received
	Message    string        // detail from the service or the client
	RetryAfter time.Duration // set for ErrRateLimited when the service sent Retry-After
	Err        error         // underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := e.Kind.Error()
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.StatusCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RetryAfter > 0 {
		msg += fmt.Sprintf(" (retry after %s)", e.RetryAfter)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewAuthError reports a missing or rejected credential.
func NewAuthError(message string) *Error {
	return &Error{Kind: ErrAuth, Message: message}
}
