package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Veraticus/commerce-admin/internal/common"
)

// Kind classifies a failed backend call.
type Kind int

// Error kinds.
const (
	KindUnknown Kind = iota
	KindNetwork
	KindTimeout
	KindBadRequest
	KindValidation
	KindNotFound
	KindUnauthorized
	KindForbidden
	KindServer
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindBadRequest:
		return "bad_request"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindServer:
		return "server"
	default:
		return "unknown"
	}
}

// FieldError is a field-level problem reported by the backend.
type FieldError struct {
	Value   any    `json:"value,omitempty"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// Error is returned for every failed backend call.
type Error struct {
	Err       error
	Method    string
	Path      string
	Message   string
	RequestID string
	Fields    []FieldError
	Kind      Kind
	Status    int

	// fromBackend is set when Message was written by the backend rather
	// than derived from the status code or transport failure.
	fromBackend bool
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", e.Method, e.Path)
	if e.Status != 0 {
		fmt.Fprintf(&b, ": %d", e.Status)
	}
	fmt.Fprintf(&b, ": %s", e.Message)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets callers match kinds against the sentinels in package common.
func (e *Error) Is(target error) bool {
	switch target {
	case common.ErrNotFound:
		return e.Kind == KindNotFound
	case common.ErrValidation:
		return e.Kind == KindValidation
	case common.ErrUnauthorized:
		return e.Kind == KindUnauthorized
	case common.ErrForbidden:
		return e.Kind == KindForbidden
	case common.ErrServer:
		return e.Kind == KindServer
	case common.ErrNetwork:
		return e.Kind == KindNetwork
	case common.ErrTimeout:
		return e.Kind == KindTimeout
	}
	return false
}

// FieldMessages formats field errors one per line as "field: message".
func (e *Error) FieldMessages() string {
	lines := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		field := f.Field
		if field == "" {
			field = "field"
		}
		lines = append(lines, field+": "+f.Message)
	}
	return strings.Join(lines, "\n")
}

// KindOf returns the kind of err, or KindUnknown when err is not an *Error.
func KindOf(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnknown
}

// UserMessage picks the text to show for a failed mutation: field errors when
// the backend sent them, the backend's own message otherwise, and fallback
// when neither is available.
func UserMessage(err error, fallback string) string {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return fallback
	}
	if len(apiErr.Fields) > 0 {
		return "Validation errors:\n" + apiErr.FieldMessages()
	}
	if apiErr.fromBackend && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// BackendMessage returns the message the backend sent with a failure, if any.
func BackendMessage(err error) (string, bool) {
	var apiErr *Error
	if !errors.As(err, &apiErr) || !apiErr.fromBackend || apiErr.Message == "" {
		return "", false
	}
	return apiErr.Message, true
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusBadRequest:
		return KindBadRequest
	case status == http.StatusUnprocessableEntity:
		return KindValidation
	case status == http.StatusNotFound:
		return KindNotFound
	case status == http.StatusUnauthorized:
		return KindUnauthorized
	case status == http.StatusForbidden:
		return KindForbidden
	case status >= 500:
		return KindServer
	case status == http.StatusConflict:
		return KindValidation
	default:
		return KindUnknown
	}
}

func defaultStatusMessage(status int, statusText string) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "access denied"
	case http.StatusNotFound:
		return "resource not found"
	case http.StatusUnprocessableEntity:
		return "validation error"
	case http.StatusInternalServerError:
		return "internal server error"
	}
	if statusText == "" {
		statusText = http.StatusText(status)
	}
	return fmt.Sprintf("error %d: %s", status, statusText)
}

// statusMessage follows the backend's message, then its field errors, then a
// per-status default.
func statusMessage(status int, env *envelope) string {
	if env != nil {
		if env.Message != "" {
			return env.Message
		}
		if len(env.Errors) > 0 {
			msgs := make([]string, len(env.Errors))
			for i, fe := range env.Errors {
				msgs[i] = fe.Message
			}
			return strings.Join(msgs, ", ")
		}
	}
	return defaultStatusMessage(status, "")
}
