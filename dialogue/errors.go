package dialogue

import (
	"errors"
	"fmt"
	"log/slog"
)

// Kind classifies per-event failures.
type Kind uint8

const (
	// KindStoreUnavailable means the session store could not be read or written.
	KindStoreUnavailable Kind = iota + 1
	// KindUnknownState means the stored label is not a known state.
	KindUnknownState
	// KindDeliveryFailed means the transport rejected or timed out an operation.
	KindDeliveryFailed
)

var (
	// ErrStoreUnavailable matches errors of KindStoreUnavailable.
	ErrStoreUnavailable = errors.New("dialogue: session store unavailable")
	// ErrUnknownState matches errors of KindUnknownState.
	ErrUnknownState = errors.New("dialogue: unknown state")
	// ErrDeliveryFailed matches errors of KindDeliveryFailed.
	ErrDeliveryFailed = errors.New("dialogue: delivery failed")
)

// Code returns a stable upper-case identifier used in logs.
func (k Kind) Code() string {
	switch k {
	case KindStoreUnavailable:
		return "STORE_UNAVAILABLE"
	case KindUnknownState:
		return "UNKNOWN_STATE"
	case KindDeliveryFailed:
		return "DELIVERY_FAILED"
	default:
		return "INTERNAL"
	}
}

func (k Kind) sentinel() error {
	switch k {
	case KindStoreUnavailable:
		return ErrStoreUnavailable
	case KindUnknownState:
		return ErrUnknownState
	case KindDeliveryFailed:
		return ErrDeliveryFailed
	default:
		return nil
	}
}

// Error is a per-event failure. It never aborts processing of other sessions.
type Error struct {
	Kind      Kind
	SessionID int64
	// State is the stored label involved (raw for KindUnknownState).
	State string
	// Op is the store or transport operation that failed ("get", "set", "send", "delete").
	Op  string
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("dialogue: %s session=%d", e.Kind.Code(), e.SessionID)
	if e.Op != "" {
		msg += " op=" + e.Op
	}
	if e.State != "" {
		msg += fmt.Sprintf(" state=%q", e.State)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code returns the kind's identifier.
func (e *Error) Code() string { return e.Kind.Code() }

// LogLevel is the level callers should log the failure at. A corrupt stored
// label is an operator concern rather than an outage.
func (e *Error) LogLevel() slog.Level {
	if e.Kind == KindUnknownState {
		return slog.LevelWarn
	}
	return slog.LevelError
}

// Is matches the sentinel of the error's kind.
func (e *Error) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}
