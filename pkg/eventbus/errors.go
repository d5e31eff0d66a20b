package eventbus

import (
	"errors"
	"fmt"
	"reflect"
)

// Sentinel errors identify the broad kind of failure without carrying
// per-call detail. Use errors.Is against these; use errors.As against the
// typed errors below when the detail fields are needed.
var (
	// ErrNoHandlers is returned by Register when a subscriber's type (and
	// its embedded ancestors) yields zero eligible handler methods.
	ErrNoHandlers = errors.New("eventbus: subscriber has no handler methods")

	// ErrAlreadyRegistered is returned by Register when the same
	// (subscriber, descriptor) pair is already present in the registry.
	ErrAlreadyRegistered = errors.New("eventbus: handler already registered")

	// ErrIllegalHandler is returned by Register in strict verification
	// mode when a candidate method fails eligibility (wrong modifiers,
	// wrong parameter count).
	ErrIllegalHandler = errors.New("eventbus: illegal handler method")

	// ErrNotPosting is returned by CancelEventDelivery when called from a
	// goroutine that is not currently draining a posted event.
	ErrNotPosting = errors.New("eventbus: cancel called outside of dispatch")

	// ErrWrongEvent is returned by CancelEventDelivery when the event
	// passed does not match the event currently being dispatched.
	ErrWrongEvent = errors.New("eventbus: cancel called with wrong event")

	// ErrWrongThreadMode is returned by CancelEventDelivery when the
	// currently executing handler is not in POSTING mode.
	ErrWrongThreadMode = errors.New("eventbus: cancel only valid from a POSTING handler")

	// ErrNullEvent is returned by Post/PostSticky when given a nil event.
	ErrNullEvent = errors.New("eventbus: event must not be nil")

	// ErrBusClosed is returned by operations attempted after Close.
	ErrBusClosed = errors.New("eventbus: bus is closed")
)

// RegistrationError reports why Register failed for a specific subscriber
// type. Err is one of the sentinel errors above, reachable via
// errors.Is/errors.Unwrap.
type RegistrationError struct {
	SubscriberType reflect.Type
	Method         string // populated for IllegalHandler
	Err            error
}

// Error implements the error interface.
func (e *RegistrationError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("eventbus: register %s.%s: %v", e.SubscriberType, e.Method, e.Err)
	}
	return fmt.Sprintf("eventbus: register %s: %v", e.SubscriberType, e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *RegistrationError) Unwrap() error {
	return e.Err
}

// CancelError reports why CancelEventDelivery was refused.
type CancelError struct {
	Event Event
	Err   error
}

// Error implements the error interface.
func (e *CancelError) Error() string {
	return fmt.Sprintf("eventbus: cancel: %v", e.Err)
}

// Unwrap returns the underlying sentinel error.
func (e *CancelError) Unwrap() error {
	return e.Err
}

// HandlerInvocationError wraps a panic or error raised by a handler.
// It is surfaced to the caller only when the bus is built with
// WithThrowSubscriberException; otherwise the bus logs it and/or re-posts a SubscriberExceptionEvent.
type HandlerInvocationError struct {
	Subscriber  any
	EventType   reflect.Type
	HandlerName string
	Err         error
}

// Error implements the error interface.
func (e *HandlerInvocationError) Error() string {
	return fmt.Sprintf("eventbus: handler %T.%s(%s): %v", e.Subscriber, e.HandlerName, e.EventType, e.Err)
}

// Unwrap returns the underlying error (or recovered panic value wrapped in
// an error by the dispatcher).
func (e *HandlerInvocationError) Unwrap() error {
	return e.Err
}

// unknownThreadModeError reports a descriptor whose ThreadMode is outside
// the known set. Neither the scanner nor NewHandlerDescriptor validates the
// mode, so a HandlerOptionsProvider, a SubscriberInfoIndex or a hand-built
// descriptor can supply one. The dispatcher logs it and skips that handler;
// Post returns it only when the bus is built with
// WithThrowSubscriberException.
type unknownThreadModeError struct {
	mode ThreadMode
}

func (e *unknownThreadModeError) Error() string {
	return fmt.Sprintf("eventbus: unknown thread mode %v", e.mode)
}
