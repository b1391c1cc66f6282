package result

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind names one of the error kinds enumerated in the pipeline's error
// handling design. Kinds are compared by name, following the teacher's
// ErrorKind/ErrorType enums (internal/controlplane/runmanager.ErrorKind,
// internal/transport.ErrorType).
type Kind string

const (
	// KindScopeCancelled is a sentinel never logged as fatal; used purely
	// for control flow around a cancelled receive.
	KindScopeCancelled Kind = "scope_cancelled"
	// KindQueueUnavailable marks a backend I/O failure.
	KindQueueUnavailable Kind = "queue_unavailable"
	// KindMapperDroppedAttribute marks a non-fatal mapper attribute drop.
	KindMapperDroppedAttribute Kind = "mapper_dropped_attribute"
	// KindExportTransportError marks an HTTP client/transport failure.
	KindExportTransportError Kind = "export_transport_error"
	// KindExportServerError marks a non-2xx response with a body.
	KindExportServerError Kind = "export_server_error"
	// KindExportPartialSuccess marks rejectedLogRecords > 0.
	KindExportPartialSuccess Kind = "export_partial_success"
	// KindExportPartialWarning marks a zero-reject informational partial success.
	KindExportPartialWarning Kind = "export_partial_warning"
)

// Error is a structured error: a name, a human message, an optional JSON
// context payload, an optional cause, and a flag distinguishing expected
// failures from programmer-invariant violations. Errors are
// JSON-serializable so that one can be encoded as the value of a
// record's "error" reserved key; encoding flattens the cause to its
// message, and there is no decoder back into an Error.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any
	Cause   error
	Bug     bool
}

// New constructs an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// WithContext attaches a context payload and returns the receiver for
// chaining.
func (e *Error) WithContext(ctx map[string]any) *Error {
	e.Context = ctx
	return e
}

// WithCause attaches a cause and returns the receiver for chaining.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the cause chain to errors.Is / errors.As.
func (e *Error) Unwrap() error { return e.Cause }

// jsonError is the wire shape of Error: Cause is flattened to a string
// since the cause may not itself be JSON-serializable.
type jsonError struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Cause   string         `json:"cause,omitempty"`
	Bug     bool           `json:"bug,omitempty"`
}

// MarshalJSON lets an *Error be embedded directly as a Record attribute
// value (the spec's "error" reserved key).
func (e *Error) MarshalJSON() ([]byte, error) {
	je := jsonError{
		Kind:    e.Kind,
		Message: e.Message,
		Context: e.Context,
		Bug:     e.Bug,
	}
	if e.Cause != nil {
		je.Cause = e.Cause.Error()
	}
	return json.Marshal(je)
}

// Bug constructs a panic value for a programmer-invariant violation: a
// condition the rest of the error model never expects to observe (e.g. a
// queue backend returning neither ok nor err). Only Bug aborts; every
// other kind is logged and swallowed by the caller.
func Bug(message string) *Error {
	return &Error{Kind: "bug", Message: message, Bug: true}
}

// ScopeCancelled is the sentinel failure for a receive cut short by
// cancellation (timeout or outer stop).
func ScopeCancelled() *Error {
	return New(KindScopeCancelled, "scope cancelled")
}

// QueueUnavailable wraps a backend I/O failure.
func QueueUnavailable(cause error) *Error {
	return New(KindQueueUnavailable, "queue backend unavailable").WithCause(cause)
}

// Is reports whether err is an *Error of the given kind, unwrapping
// standard error chains along the way (mirrors
// runmanager.AsRunManagerError / IsNotFound).
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// IsScopeCancelled reports whether err is the ScopeCancelled sentinel.
func IsScopeCancelled(err error) bool { return Is(err, KindScopeCancelled) }

// IsQueueUnavailable reports whether err is a QueueUnavailable failure.
func IsQueueUnavailable(err error) bool { return Is(err, KindQueueUnavailable) }
