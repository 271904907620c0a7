// Package apierror defines the closed error taxonomy for the helpdesk API
// client. Every failure that crosses the client or contract boundary is
// exactly one *Error with exactly one Kind.
package apierror

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindBadRequest      Kind = "BAD_REQUEST"
	KindUnauthorized    Kind = "UNAUTHORIZED"
	KindForbidden       Kind = "FORBIDDEN"
	KindNotFound        Kind = "NOT_FOUND"
	KindConflict        Kind = "CONFLICT"
	KindValidationError Kind = "VALIDATION_ERROR"
	KindRateLimited     Kind = "RATE_LIMITED"
	KindTimeout         Kind = "TIMEOUT"
	KindServerError     Kind = "SERVER_ERROR"
	KindNetworkError    Kind = "NETWORK_ERROR"
	KindBadResponse     Kind = "BAD_RESPONSE"
	KindUnknown         Kind = "UNKNOWN_ERROR"
)

// statusKinds is the exact status mapping; anything >= 500 becomes
// SERVER_ERROR and everything else falls through to UNKNOWN_ERROR.
var statusKinds = map[int]Kind{
	http.StatusBadRequest:          KindBadRequest,
	http.StatusUnauthorized:        KindUnauthorized,
	http.StatusForbidden:           KindForbidden,
	http.StatusNotFound:            KindNotFound,
	http.StatusRequestTimeout:      KindTimeout,
	http.StatusConflict:            KindConflict,
	http.StatusUnprocessableEntity: KindValidationError,
	http.StatusTooManyRequests:     KindRateLimited,
}

func KindFromStatus(status int) Kind {
	if kind, ok := statusKinds[status]; ok {
		return kind
	}
	if status >= http.StatusInternalServerError {
		return KindServerError
	}
	return KindUnknown
}

// userMessages are the only strings shown to end users. Raw server text
// never reaches them; it travels in Details for logs and telemetry.
var userMessages = map[Kind]string{
	KindBadRequest:      "The request could not be processed. Please check your input and try again.",
	KindUnauthorized:    "Your session has expired. Please sign in again.",
	KindForbidden:       "You do not have permission to perform this action.",
	KindNotFound:        "The requested resource could not be found.",
	KindConflict:        "This action conflicts with the current state. Please refresh and try again.",
	KindValidationError: "Some fields contain invalid values. Please review and try again.",
	KindRateLimited:     "Too many requests. Please wait a moment and try again.",
	KindTimeout:         "The request timed out. Please check your connection and try again.",
	KindServerError:     "Something went wrong on our end. Please try again later.",
	KindNetworkError:    "Unable to reach the server. Please check your connection.",
	KindBadResponse:     "Received an unexpected response from the server. Please try again later.",
	KindUnknown:         "An unexpected error occurred. Please try again.",
}

// UserMessage returns the safe display string for a kind. An explicit
// override wins; unknown kinds fall back to the UNKNOWN_ERROR message.
func UserMessage(kind Kind, override string) string {
	if override != "" {
		return override
	}
	if msg, ok := userMessages[kind]; ok {
		return msg
	}
	return userMessages[KindUnknown]
}

// Error is the one failure shape the core propagates. Kind and UserMessage
// are derived together at construction and are never settable afterwards,
// so they cannot disagree. Code preserves the server-asserted error code
// verbatim when one was present in the response body.
type Error struct {
	Status      int
	Kind        Kind
	Code        string
	Message     string
	UserMessage string
	Details     any
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("helpdesk api: %s (%d %s): %s", e.Code, e.Status, e.Kind, e.Message)
	}
	return fmt.Sprintf("helpdesk api: %d %s: %s", e.Status, e.Kind, e.Message)
}

// New builds an Error whose kind derives from the HTTP status.
func New(status int, message string) *Error {
	kind := KindFromStatus(status)
	return &Error{
		Status:      status,
		Kind:        kind,
		Message:     message,
		UserMessage: UserMessage(kind, ""),
	}
}

// NewKind builds an Error with an explicit kind, for failures that have no
// meaningful transport status of their own (timeouts, transport faults,
// contract violations).
func NewKind(kind Kind, status int, message string) *Error {
	return &Error{
		Status:      status,
		Kind:        kind,
		Message:     message,
		UserMessage: UserMessage(kind, ""),
	}
}

// FromServer builds an Error from a structured server error body. The
// server-asserted code is kept verbatim, and when it names a kind from the
// closed set it wins over the status-derived kind.
func FromServer(status int, code, message string, details any) *Error {
	kind := KindFromStatus(status)
	if code != "" {
		if _, ok := userMessages[Kind(code)]; ok {
			kind = Kind(code)
		}
	}
	return &Error{
		Status:      status,
		Kind:        kind,
		Code:        code,
		Message:     message,
		UserMessage: UserMessage(kind, ""),
		Details:     details,
	}
}

// WithDetails returns e with Details attached. Kind and UserMessage are
// left untouched.
func (e *Error) WithDetails(details any) *Error {
	e.Details = details
	return e
}

// As unwraps err into *Error when the chain contains one.
func As(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
