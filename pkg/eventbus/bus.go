package eventbus

import (
	"context"
	"log/slog"
	"reflect"
	"sync/atomic"

	"github.com/yangjinze/EventBus/pkg/eventbus/observability"
)

// busConfig holds the resolved configuration for one Bus. It is built by
// applying the caller's BusOptions over defaultBusConfig(), following the
// same shape as the teacher repo's own runConfig/RunOption pair.
type busConfig struct {
	eventInheritance             bool
	throwSubscriberException     bool
	sendNoSubscriberEvent        bool
	sendSubscriberExceptionEvent bool
	strictMethodVerification     bool
	ignoreGeneratedIndex         bool
	namingPrefix                 string
	indexes                      []SubscriberInfoIndex
	logger                       *slog.Logger
	mainThreadSupport            MainThreadSupport
	workerPool                   WorkerPool
	metrics                      observability.MetricsRecorder
	spans                        observability.SpanManager
}

func defaultBusConfig() busConfig {
	return busConfig{
		eventInheritance:             true,
		sendNoSubscriberEvent:        true,
		sendSubscriberExceptionEvent: true,
		namingPrefix:                 "On",
		logger:                       slog.Default(),
		mainThreadSupport:            defaultMainThreadSupport{},
		workerPool:                   goroutinePerTaskPool{},
		metrics:                      observability.NoopMetrics{},
		spans:                        observability.NoopSpanManager{},
	}
}

// BusOption configures a Bus at construction time.
type BusOption func(*busConfig)

// WithEventInheritance controls whether Post dispatches to handlers
// registered for an event's supertypes and implemented interfaces (true,
// the default) or only to handlers registered for its exact concrete type.
func WithEventInheritance(enabled bool) BusOption {
	return func(c *busConfig) { c.eventInheritance = enabled }
}

// WithThrowSubscriberException makes Post/PostWithContext return the first
// failure of a handler run inline on the posting goroutine (POSTING, MAIN
// while IsMainThread reports true, BACKGROUND while it reports false)
// instead of only logging it and/or emitting SubscriberExceptionEvent. Intended for tests and development, not
// production use, mirroring the original design's debug-only flag.
func WithThrowSubscriberException(enabled bool) BusOption {
	return func(c *busConfig) { c.throwSubscriberException = enabled }
}

// WithSendNoSubscriberEvent controls whether a NoSubscriberEvent is
// synthesized and posted when an event finds no active subscription.
// Default true.
func WithSendNoSubscriberEvent(enabled bool) BusOption {
	return func(c *busConfig) { c.sendNoSubscriberEvent = enabled }
}

// WithSendSubscriberExceptionEvent controls whether a
// SubscriberExceptionEvent is synthesized and posted when a handler fails.
// Default true.
func WithSendSubscriberExceptionEvent(enabled bool) BusOption {
	return func(c *busConfig) { c.sendSubscriberExceptionEvent = enabled }
}

// WithStrictMethodVerification rejects malformed annotated handler methods
// with ErrIllegalHandler during Register instead of silently skipping
// them.
func WithStrictMethodVerification(enabled bool) BusOption {
	return func(c *busConfig) { c.strictMethodVerification = enabled }
}

// WithNamingPrefix overrides the "On" naming-convention prefix the scanner
// falls back to for subscribers that do not implement
// HandlerOptionsProvider.
func WithNamingPrefix(prefix string) BusOption {
	return func(c *busConfig) {
		if prefix != "" {
			c.namingPrefix = prefix
		}
	}
}

// WithSubscriberInfoIndexes supplies precomputed SubscriberInfoIndex
// sources the scanner consults ahead of reflection. It does not change the
// IgnoreGeneratedIndex setting; with WithIgnoreGeneratedIndex(true) the
// indexes are not consulted.
func WithSubscriberInfoIndexes(indexes ...SubscriberInfoIndex) BusOption {
	return func(c *busConfig) { c.indexes = indexes }
}

// WithIgnoreGeneratedIndex forces the scanner down the pure-reflection
// path even when SubscriberInfoIndexes were supplied.
func WithIgnoreGeneratedIndex(enabled bool) BusOption {
	return func(c *busConfig) { c.ignoreGeneratedIndex = enabled }
}

// WithLogger overrides the structured logger used for handler failures,
// unknown thread modes, and other operational events. Default
// slog.Default().
func WithLogger(logger *slog.Logger) BusOption {
	return func(c *busConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMainThreadSupport wires a host main-goroutine collaborator for MAIN
// and MAIN_ORDERED handlers. Without one, those thread modes run inline.
func WithMainThreadSupport(support MainThreadSupport) BusOption {
	return func(c *busConfig) {
		if support != nil {
			c.mainThreadSupport = support
		}
	}
}

// WithWorkerPool overrides the pool ASYNC handlers submit to. Default
// spawns one goroutine per submission.
func WithWorkerPool(pool WorkerPool) BusOption {
	return func(c *busConfig) {
		if pool != nil {
			c.workerPool = pool
		}
	}
}

// WithMetricsRecorder wires an observability.MetricsRecorder, typically
// observability.NewMetricsRecorder(), to record dispatch counts, latency,
// and no-subscriber/sticky-replay counters. Default is a no-op recorder.
func WithMetricsRecorder(recorder observability.MetricsRecorder) BusOption {
	return func(c *busConfig) {
		if recorder != nil {
			c.metrics = recorder
		}
	}
}

// WithSpanManager wires an observability.SpanManager, typically
// observability.NewSpanManager(), to emit a trace span per post and per
// handler invocation. Default is a no-op manager.
func WithSpanManager(spans observability.SpanManager) BusOption {
	return func(c *busConfig) {
		if spans != nil {
			c.spans = spans
		}
	}
}

// Bus is the facade applications use: register subscribers, post events,
// manage sticky state. It corresponds to the original design's single
// top-level bus object, translated into a struct that owns its
// collaborators explicitly instead of relying on a global singleton (a
// package-level Default Bus is still provided in default.go for callers
// who want the original's convenience-singleton usage).
type Bus struct {
	config     busConfig
	scanner    *Scanner
	hierarchy  *Hierarchy
	registry   *subscriptionRegistry
	sticky     *stickyEvents
	states     *postingStateStore
	background *serialPoster
	mainSupport MainThreadSupport
	workerPool  WorkerPool
	logger      *slog.Logger
	metrics     observability.MetricsRecorder
	spans       observability.SpanManager

	mainGoroutineID int64
	closed          atomic.Bool
}

// NewBus builds a Bus ready to accept Register and Post calls. MAIN and
// BACKGROUND ask the configured MainThreadSupport whether the posting
// goroutine is the main one, and MAIN/MAIN_ORDERED tasks are handed to its
// Post; the default reports every goroutine as the main one and runs posted
// tasks inline. Pass WithMainThreadSupport to integrate with a real host
// loop instead.
func NewBus(opts ...BusOption) *Bus {
	cfg := defaultBusConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	b := &Bus{
		config:          cfg,
		hierarchy:       NewHierarchy(),
		registry:        newSubscriptionRegistry(),
		sticky:          newStickyEvents(),
		states:          newPostingStateStore(),
		background:      newSerialPoster(),
		mainSupport:     cfg.mainThreadSupport,
		workerPool:      cfg.workerPool,
		logger:          cfg.logger,
		metrics:         cfg.metrics,
		spans:           cfg.spans,
		mainGoroutineID: currentGoroutineID(),
	}
	b.scanner = NewScanner(ScannerConfig{
		NamingPrefix:             cfg.namingPrefix,
		StrictMethodVerification: cfg.strictMethodVerification,
		IgnoreGeneratedIndex:     cfg.ignoreGeneratedIndex,
		Indexes:                  cfg.indexes,
		IsSystemPackage:          DefaultIsSystemPackage,
	})
	return b
}

// Register scans subscriber for handler methods and adds a Subscription
// for each one found. Any handler marked Sticky immediately receives the
// most recently posted sticky event of a matching type, delivered
// synchronously on the calling goroutine regardless of the handler's
// configured ThreadMode, mirroring the original design's "replay on
// subscribe" behavior.
func (b *Bus) Register(subscriber any) error {
	if b.closed.Load() {
		return ErrBusClosed
	}
	if subscriber == nil {
		return &RegistrationError{Err: ErrIllegalHandler}
	}

	t := reflect.TypeOf(subscriber)

	if b.registry.isRegistered(subscriber) {
		return &RegistrationError{SubscriberType: t, Err: ErrAlreadyRegistered}
	}

	descriptors, err := b.scanner.Scan(subscriber)
	if err != nil {
		return err
	}

	for _, d := range descriptors {
		sub := &Subscription{Subscriber: subscriber, Descriptor: d}
		b.registry.add(d.eventType, sub)

		if d.sticky {
			var replay []Event
			if b.config.eventInheritance {
				replay = b.sticky.matching(d.eventType)
			} else if event, ok := b.sticky.get(d.eventType); ok {
				replay = []Event{event}
			}
			for _, event := range replay {
				b.metrics.RecordStickyReplay(context.Background(), d.eventType.String())
				b.invokeDetached(sub, event)
			}
		}
	}

	return nil
}

// Unregister removes every Subscription belonging to subscriber. It is a
// no-op, not an error, if subscriber was never registered (or was already
// unregistered), matching the original design's tolerant teardown.
func (b *Bus) Unregister(subscriber any) {
	b.registry.removeAllFor(subscriber)
}

// IsRegistered reports whether subscriber currently has at least one live
// subscription.
func (b *Bus) IsRegistered(subscriber any) bool {
	return b.registry.isRegistered(subscriber)
}

// Post delivers event to every matching registered handler, following
// each handler's declared ThreadMode. It returns an error only for a nil
// event, a closed bus, or (with WithThrowSubscriberException) the first
// failure of a handler run inline on the posting goroutine.
func (b *Bus) Post(event Event) error {
	return b.postEvent(context.Background(), event)
}

// PostWithContext behaves like Post, except that when ctx carries posting
// state the event joins that state's queue instead of the calling
// goroutine's. Handlers receive only the event, never a Context, and no
// exported function attaches posting state to a Context, so a Context built
// with Background or FromContext carries none and the call behaves exactly
// like Post.
func (b *Bus) PostWithContext(ctx Context, event Event) error {
	return b.postEvent(ctx.Context, event)
}

// PostSticky records event as the latest sticky event for its concrete
// type, then posts it normally. A handler registered with Sticky() after
// this call (see Register) will replay it immediately.
func (b *Bus) PostSticky(event Event) error {
	if event == nil {
		return ErrNullEvent
	}
	if b.closed.Load() {
		return ErrBusClosed
	}
	b.sticky.put(event)
	return b.Post(event)
}

// GetSticky returns the current sticky event recorded for t, if any.
func (b *Bus) GetSticky(t reflect.Type) (Event, bool) {
	return b.sticky.get(t)
}

// RemoveSticky deletes and returns the sticky event recorded for t.
func (b *Bus) RemoveSticky(t reflect.Type) (Event, bool) {
	return b.sticky.removeByType(t)
}

// RemoveStickyEvent deletes event from the sticky table only if it is
// still the exact (==) sticky event recorded for its type, reporting
// whether it did so. Use this instead of RemoveSticky to avoid racing a
// concurrent PostSticky of a newer event of the same type.
func (b *Bus) RemoveStickyEvent(event Event) bool {
	return b.sticky.removeIfEqual(event)
}

// RemoveAllSticky discards every recorded sticky event.
func (b *Bus) RemoveAllSticky() {
	b.sticky.clearAll()
}

// HasSubscriberForEvent reports whether eventType currently has at least
// one active subscription, honoring the bus's EventInheritance setting the
// same way Post would.
func (b *Bus) HasSubscriberForEvent(eventType reflect.Type) bool {
	var types EventTypeList
	if b.config.eventInheritance {
		types = b.hierarchy.Expand(eventType)
	} else {
		types = EventTypeList{eventType}
	}
	for _, t := range types {
		if b.registry.hasAnyFor(t) {
			return true
		}
	}
	return false
}

// CancelEventDelivery stops event from reaching any remaining subscriber
// in priority order for the current dispatch. It may only be called from
// within a POSTING-mode handler that is currently receiving event, on the
// goroutine (or Context) draining that delivery; any other caller gets
// ErrNotPosting, ErrWrongEvent, or ErrWrongThreadMode.
func (b *Bus) CancelEventDelivery(ctx Context, event Event) error {
	st, ok := postingStateFromContext(ctx.Context)
	if !ok {
		st, ok = b.states.get()
	}
	if !ok {
		return &CancelError{Event: event, Err: ErrNotPosting}
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if !st.isPosting || st.current == nil {
		return &CancelError{Event: event, Err: ErrNotPosting}
	}
	if st.current.event != event {
		return &CancelError{Event: event, Err: ErrWrongEvent}
	}
	if st.currentSub == nil || st.currentSub.Descriptor.threadMode != Posting {
		return &CancelError{Event: event, Err: ErrWrongThreadMode}
	}

	st.current.canceled = true
	return nil
}

// Close stops the bus's background poster and rejects further Register,
// Post, and PostSticky calls with ErrBusClosed. In-flight deliveries
// already scheduled on the worker pool or a host MainThreadSupport are not
// awaited; callers needing a full drain should quiesce posting themselves
// before calling Close. Close is an ambient addition beyond the original
// design, which has no equivalent teardown step for an in-process,
// GC-managed bus.
func (b *Bus) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.background.Close()
	return nil
}
