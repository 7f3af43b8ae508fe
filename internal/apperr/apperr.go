package apperr

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure so callers can branch without inspecting response bodies.
type Kind string

const (
	KindValidation         Kind = "validation"
	KindNotFound           Kind = "not_found"
	KindUnauthorized       Kind = "unauthorized"
	KindForbidden          Kind = "forbidden"
	KindBadRequest         Kind = "bad_request"
	KindConflict           Kind = "conflict"
	KindInvalidCredentials Kind = "invalid_credentials"
	KindDuplicateEmail     Kind = "duplicate_email"
	KindAlreadyAssigned    Kind = "already_assigned"
	KindNotAvailable       Kind = "not_available"
	KindRequestFailure     Kind = "request_failure"
	KindNetwork            Kind = "network"
	KindCanceled           Kind = "canceled"
	KindNoSession          Kind = "no_session"
	KindInFlight           Kind = "in_flight"
)

// FieldError describes a problem with a single input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is the single error shape returned by the client layers.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap attaches a kind to an underlying error. Context cancellation always wins.
func Wrap(kind Kind, message string, err error) *Error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		kind = KindCanceled
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation reports client-side field failures detected before any network call.
func Validation(fields ...FieldError) *Error {
	messages := make([]string, 0, len(fields))
	for _, field := range fields {
		messages = append(messages, field.Message)
	}
	return &Error{Kind: KindValidation, Message: strings.Join(messages, "; "), Fields: fields}
}

// KindOf returns the kind of err, or KindRequestFailure for foreign errors.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindRequestFailure
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// MessageOf returns the user-facing message for err, falling back when none was supplied.
func MessageOf(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) && strings.TrimSpace(appErr.Message) != "" {
		return appErr.Message
	}
	return fallback
}

// Rule re-classifies an error when its message contains Fragment.
type Rule struct {
	From     []Kind
	Fragment string
	To       Kind
}

// Refine applies the first matching rule to err. Errors that are not *Error pass through.
func Refine(err error, rules ...Rule) error {
	var appErr *Error
	if !errors.As(err, &appErr) {
		return err
	}

	message := strings.ToLower(appErr.Message)
	for _, rule := range rules {
		if len(rule.From) > 0 && !containsKind(rule.From, appErr.Kind) {
			continue
		}
		if rule.Fragment != "" && !strings.Contains(message, strings.ToLower(rule.Fragment)) {
			continue
		}
		refined := *appErr
		refined.Kind = rule.To
		return &refined
	}
	return err
}

func containsKind(kinds []Kind, kind Kind) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}
