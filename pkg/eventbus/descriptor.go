package eventbus

import (
	"fmt"
	"reflect"
)

// ThreadMode selects which goroutine executes a handler relative to the
// goroutine that called Post.
type ThreadMode int

const (
	// Posting runs the handler inline, on the calling goroutine.
	Posting ThreadMode = iota

	// Main runs the handler on the bus's main poster if the posting
	// goroutine is not the main one; inline otherwise.
	Main

	// MainOrdered always enqueues on the main poster, even when already
	// on the main goroutine, preserving strict FIFO order across posts
	// that originate from different goroutines. Falls back to inline
	// delivery when no main poster support is configured.
	MainOrdered

	// Background runs the handler on a single serial background
	// goroutine, unless the posting goroutine is already off the main
	// goroutine, in which case it runs inline.
	Background

	// Async submits the handler as an independent task to the configured
	// WorkerPool. No ordering is guaranteed across deliveries.
	Async
)

// String returns the canonical name used in descriptor signatures and logs.
func (m ThreadMode) String() string {
	switch m {
	case Posting:
		return "POSTING"
	case Main:
		return "MAIN"
	case MainOrdered:
		return "MAIN_ORDERED"
	case Background:
		return "BACKGROUND"
	case Async:
		return "ASYNC"
	default:
		return fmt.Sprintf("ThreadMode(%d)", int(m))
	}
}

// HandlerOptions carries the annotation-equivalent metadata for one handler
// method: the Go translation of the original spec's attribute mechanism
// (out of scope for this bus, named only via this collaborator shape).
type HandlerOptions struct {
	ThreadMode ThreadMode
	Priority   int
	Sticky     bool
}

// DefaultHandlerOptions are applied to any handler discovered through the
// naming-convention fallback, or left unset by a HandlerOptionsProvider.
var DefaultHandlerOptions = HandlerOptions{
	ThreadMode: Posting,
	Priority:   0,
	Sticky:     false,
}

// HandlerOptionsProvider is implemented by subscriber types that declare
// handler metadata out-of-band instead of relying on the "On<Name>" naming
// convention. This is the Go stand-in for the annotation/attribute
// mechanism the original design treats as an external collaborator.
//
// HandlerOptions is consulted once per candidate method name during
// scanning; ok=false means the method is not a handler at all and is
// skipped, under strict verification as well.
type HandlerOptionsProvider interface {
	HandlerOptions(methodName string) (opts HandlerOptions, ok bool)
}

// HandlerDescriptor is an immutable value object identifying one handler
// method: its target, declared event type, delivery policy, and a
// Signature string identifying it. The scanner deduplicates handlers by
// method name and event type, not by Signature.
type HandlerDescriptor struct {
	methodName string
	eventType  reflect.Type
	threadMode ThreadMode
	priority   int
	sticky     bool
	signature  string
}

// EventType returns the declared parameter type this handler accepts.
func (d *HandlerDescriptor) EventType() reflect.Type { return d.eventType }

// ThreadMode returns the delivery policy for this handler.
func (d *HandlerDescriptor) ThreadMode() ThreadMode { return d.threadMode }

// Priority returns the delivery priority (higher runs first).
func (d *HandlerDescriptor) Priority() int { return d.priority }

// Sticky reports whether this handler should be replayed the latest sticky
// event of its declared type at registration time.
func (d *HandlerDescriptor) Sticky() bool { return d.sticky }

// MethodName returns the target method's name.
func (d *HandlerDescriptor) MethodName() string { return d.methodName }

// Signature returns the canonical identity string
// "declaringType#methodName(eventType)".
func (d *HandlerDescriptor) Signature() string { return d.signature }

// newHandlerDescriptor builds a descriptor for the method named
// methodName, declared (for signature purposes) on declaringType,
// accepting eventType, configured by opts.
//
// Invocation always resolves the method by name against the concrete
// subscriber value at call time (see invoke), never by a cached
// reflect.Method/Index pair: Go already performs method promotion and
// shadow resolution when a value's method set is computed, so looking the
// name up on the subscriber's own type is both simpler and correct
// regardless of which embedded level declaringType names.
func newHandlerDescriptor(declaringType reflect.Type, methodName string, eventType reflect.Type, opts HandlerOptions) *HandlerDescriptor {
	return &HandlerDescriptor{
		methodName: methodName,
		eventType:  eventType,
		threadMode: opts.ThreadMode,
		priority:   opts.Priority,
		sticky:     opts.Sticky,
		signature:  fmt.Sprintf("%s#%s(%s)", declaringType, methodName, eventType),
	}
}

// NewHandlerDescriptor builds a HandlerDescriptor outside of reflection
// scanning, for use by a SubscriberInfoIndex implementation that rebuilds
// descriptors from a generated or persisted source instead of inspecting a
// live subscriber instance.
func NewHandlerDescriptor(declaringType reflect.Type, methodName string, eventType reflect.Type, opts HandlerOptions) *HandlerDescriptor {
	return newHandlerDescriptor(declaringType, methodName, eventType, opts)
}

// invoke calls the target method on subscriber with event as the sole
// argument. Panics from the method are recovered by the caller (see
// dispatcher.go), not here, so that recover() sees the correct stack.
func (d *HandlerDescriptor) invoke(subscriber reflect.Value, event reflect.Value) {
	fn := subscriber.MethodByName(d.methodName)
	fn.Call([]reflect.Value{event})
}
