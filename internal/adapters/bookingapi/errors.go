package bookingapi

import (
	"errors"
	"fmt"
)

// Failure classes. Every error returned by Client wraps exactly one of them.
var (
	// ErrTransport covers unreachable servers and non-2xx statuses.
	ErrTransport = errors.New("booking server request failed")
	// ErrPayload means the answer was not the structured data the contract promises.
	ErrPayload = errors.New("unusable response from booking server")
	// ErrApplication is a well-formed answer that reports failure.
	ErrApplication = errors.New("booking server reported a failure")
)

// StatusError is a non-2xx answer. Message holds the server's text when the
// body was a readable JSON error, otherwise it is empty.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("booking server returned %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("booking server returned %d", e.Code)
}

func (e *StatusError) Unwrap() error { return ErrTransport }

// PayloadError describes why a response body could not be used.
type PayloadError struct {
	Reason string
}

func (e *PayloadError) Error() string {
	return "unusable response from booking server: " + e.Reason
}

func (e *PayloadError) Unwrap() error { return ErrPayload }

// ApplicationError carries the server's own failure message.
type ApplicationError struct {
	Message string
}

func (e *ApplicationError) Error() string {
	return "booking server reported a failure: " + e.Message
}

func (e *ApplicationError) Unwrap() error { return ErrApplication }

// ServerMessage extracts the human readable text the server sent with a
// failure, if any.
func ServerMessage(err error) (string, bool) {
	var appErr *ApplicationError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message, true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) && statusErr.Message != "" {
		return statusErr.Message, true
	}
	return "", false
}

func payloadErrorf(format string, args ...any) error {
	return &PayloadError{Reason: fmt.Sprintf(format, args...)}
}
