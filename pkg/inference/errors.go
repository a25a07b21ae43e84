package inference

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType classifies an inference failure.
type ErrorType string

const (
	// ErrorTypeAuth means the provider rejected the credentials.
	ErrorTypeAuth ErrorType = "auth"
	// ErrorTypeEndpoint means the provider was unreachable or returned a
	// non-success status.
	ErrorTypeEndpoint ErrorType = "endpoint"
	// ErrorTypeResponse means the provider answered but the payload carried
	// no usable generated text.
	ErrorTypeResponse ErrorType = "response"
	// ErrorTypeUnknown is everything else.
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a structured inference failure. Every error leaving this package
// is one of these; callers never see a provider SDK error directly.
type Error struct {
	Type       ErrorType
	Message    string // human-readable message
	StatusCode int    // upstream HTTP status if applicable
	Body       string // truncated upstream body when available
	Cause      error  // underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var parts []string
	parts = append(parts, string(e.Type))
	if e.StatusCode > 0 {
		parts = append(parts, fmt.Sprintf("HTTP %d", e.StatusCode))
	}
	parts = append(parts, e.Message)

	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", strings.Join(parts, " "), e.Cause)
	}
	return strings.Join(parts, " ")
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Cause
}

func newError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

// classifyStatus maps an upstream HTTP status to an error type.
func classifyStatus(statusCode int) ErrorType {
	switch {
	case statusCode == 401 || statusCode == 403:
		return ErrorTypeAuth
	case statusCode >= 400:
		return ErrorTypeEndpoint
	default:
		return ErrorTypeUnknown
	}
}

// wrapTransportError converts a transport-level failure into a typed Error.
// Already-typed errors pass through unchanged.
func wrapTransportError(err error, message string) *Error {
	var infErr *Error
	if errors.As(err, &infErr) {
		return infErr
	}
	return newError(ErrorTypeEndpoint, message, err)
}

// truncateBody bounds an upstream body for logs and error context.
func truncateBody(body []byte, max int) string {
	s := strings.TrimSpace(string(body))
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
