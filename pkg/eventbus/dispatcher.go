package eventbus

import (
	"context"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yangjinze/EventBus/pkg/eventbus/observability"
)

// queueBacklogWarnThreshold is the posting-queue depth at which a
// call chain's backlog is worth a log line: ordinary nested Posts from a
// handler rarely queue more than a handful of events at once.
const queueBacklogWarnThreshold = 100

// postEvent drains one goroutine's pending posts in FIFO order,
// including any events queued by a handler invoked inline during this same
// drain (POSTING mode handlers run before the loop advances to the next
// queued record, exactly like the original design's single-threaded
// dispatch loop).
func (b *Bus) postEvent(ctx context.Context, event Event) error {
	if event == nil {
		return ErrNullEvent
	}
	if b.closed.Load() {
		return ErrBusClosed
	}

	st, fromContext := postingStateFromContext(ctx)
	if !fromContext {
		st = b.states.getOrCreate(b.mainGoroutineID)
	}

	st.mu.Lock()
	record := &postingRecord{event: event, id: uuid.New().String()}
	st.queue = append(st.queue, record)
	if st.isPosting {
		st.mu.Unlock()
		return nil
	}
	st.isPosting = true
	st.mu.Unlock()

	defer func() {
		st.mu.Lock()
		st.isPosting = false
		st.current = nil
		st.currentSub = nil
		st.mu.Unlock()
		if !fromContext {
			b.states.clear()
		}
	}()

	childCtx := withPostingState(ctx, st)

	var firstErr error

	for {
		st.mu.Lock()
		if len(st.queue) == 0 {
			st.mu.Unlock()
			break
		}
		next := st.queue[0]
		st.queue = st.queue[1:]
		backlog := len(st.queue)
		st.mu.Unlock()

		if backlog >= queueBacklogWarnThreshold {
			observability.LogQueueBacklog(b.logger, backlog)
		}

		eventType := reflect.TypeOf(next.event).String()
		spanCtx, span := b.spans.StartPostSpan(childCtx, eventType)
		b.spans.AddSpanEvent(spanCtx, "post.dequeued", attribute.String("post_id", next.id))
		observability.LogPostStart(b.logger, eventType)
		start := time.Now()

		delivered, err := b.dispatchRecord(spanCtx, st, next)

		elapsed := time.Since(start)
		b.metrics.RecordPost(spanCtx, eventType, delivered, elapsed)
		observability.LogPostComplete(b.logger, eventType, observability.DurationMs(elapsed), delivered)
		b.spans.EndSpanWithError(span, err)
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if b.config.throwSubscriberException {
		return firstErr
	}
	return nil
}

// dispatchRecord delivers one event to every active subscription whose
// declared type matches, honoring event-type-inheritance configuration and
// mid-delivery cancellation, then synthesizes a NoSubscriberEvent if
// nothing received it.
func (b *Bus) dispatchRecord(ctx context.Context, st *postingState, record *postingRecord) (delivered int, err error) {
	eventType := reflect.TypeOf(record.event)

	var types EventTypeList
	if b.config.eventInheritance {
		types = b.hierarchy.Expand(eventType)
	} else {
		types = EventTypeList{eventType}
	}

	var firstErr error

	for _, t := range types {
		subs := b.registry.snapshot(t)
		for _, sub := range subs {
			if !sub.IsActive() {
				continue
			}
			delivered++

			st.mu.Lock()
			st.current = record
			st.currentSub = sub
			st.mu.Unlock()

			if err := b.deliver(ctx, sub, record.event); err != nil && firstErr == nil {
				firstErr = err
			}

			if record.canceled {
				break
			}
		}
		if record.canceled {
			break
		}
	}

	if delivered == 0 && b.config.sendNoSubscriberEvent {
		_, isNoSub := record.event.(NoSubscriberEvent)
		_, isExcEvent := record.event.(SubscriberExceptionEvent)
		if !isNoSub && !isExcEvent {
			b.metrics.RecordNoSubscriber(ctx, eventType.String())
			observability.LogNoSubscriber(b.logger, eventType.String())
			st.mu.Lock()
			st.queue = append(st.queue, &postingRecord{event: NoSubscriberEvent{OriginalEvent: record.event}, id: uuid.New().String()})
			st.mu.Unlock()
		}
	}

	return delivered, firstErr
}

// deliver applies sub's declared ThreadMode to schedule invocation, either
// inline (sharing this goroutine's postingState) or on another goroutine
// (which starts its own fresh posting call chain via b.Post/b.postEvent).
func (b *Bus) deliver(ctx context.Context, sub *Subscription, event Event) error {
	switch sub.Descriptor.threadMode {
	case Posting:
		return b.invokeSafe(ctx, sub, event)

	case Main:
		if b.mainSupport.IsMainThread() {
			return b.invokeSafe(ctx, sub, event)
		}
		b.mainSupport.Post(func() { b.invokeDetached(sub, event) })

	case MainOrdered:
		b.mainSupport.Post(func() { b.invokeDetached(sub, event) })

	case Background:
		if b.mainSupport.IsMainThread() {
			b.background.Submit(func() { b.invokeDetached(sub, event) })
		} else {
			return b.invokeSafe(ctx, sub, event)
		}

	case Async:
		b.workerPool.Submit(func() { b.invokeDetached(sub, event) })

	default:
		err := &unknownThreadModeError{mode: sub.Descriptor.threadMode}
		b.logger.Error("eventbus: unknown thread mode", "mode", int(sub.Descriptor.threadMode))
		if b.config.throwSubscriberException {
			return err
		}
	}
	return nil
}

// invokeSafe calls sub's handler inline, on the goroutine currently
// draining ctx's posting state, recovering from a panic and routing it
// through the same failure handling as invokeDetached. It serves every
// handler run inline: POSTING, MAIN while IsMainThread reports true, and
// BACKGROUND while it reports false. The returned error is only ever
// non-nil with ThrowSubscriberException enabled; handlers run through
// invokeDetached only log and/or emit SubscriberExceptionEvent, since there
// is no synchronous caller left to hand the error to.
func (b *Bus) invokeSafe(ctx context.Context, sub *Subscription, event Event) (err error) {
	subscriberType := reflect.TypeOf(sub.Subscriber).String()
	start := time.Now()
	spanCtx, span := b.spans.StartHandlerSpan(ctx, subscriberType, sub.Descriptor.methodName, sub.Descriptor.threadMode.String())
	observability.LogHandlerStart(b.logger, subscriberType, sub.Descriptor.methodName)

	defer func() {
		if r := recover(); r != nil {
			handlerErr := panicToError(r)
			b.handleFailure(sub, event, handlerErr)
			if b.config.throwSubscriberException {
				err = &HandlerInvocationError{
					Subscriber:  sub.Subscriber,
					EventType:   sub.Descriptor.eventType,
					HandlerName: sub.Descriptor.methodName,
					Err:         handlerErr,
				}
			}
		}
		elapsed := time.Since(start)
		if err == nil {
			observability.LogHandlerComplete(b.logger, subscriberType, sub.Descriptor.methodName, observability.DurationMs(elapsed))
		}
		b.metrics.RecordDispatch(spanCtx, sub.Descriptor.eventType.String(), sub.Descriptor.threadMode.String(), elapsed, err)
		b.spans.EndSpanWithError(span, err)
	}()
	sub.Descriptor.invoke(reflect.ValueOf(sub.Subscriber), reflect.ValueOf(event))
	return nil
}

// invokeDetached calls sub's handler on a goroutine with no inherited
// posting state (a freshly submitted MAIN/BACKGROUND/ASYNC task), so any
// event it posts in turn starts its own call chain via Bus.Post. A
// subscription unregistered before the task starts is skipped.
func (b *Bus) invokeDetached(sub *Subscription, event Event) {
	if !sub.IsActive() {
		return
	}
	subscriberType := reflect.TypeOf(sub.Subscriber).String()
	start := time.Now()
	ctx := context.Background()
	spanCtx, span := b.spans.StartHandlerSpan(ctx, subscriberType, sub.Descriptor.methodName, sub.Descriptor.threadMode.String())
	observability.LogHandlerStart(b.logger, subscriberType, sub.Descriptor.methodName)

	var handlerErr error
	defer func() {
		if r := recover(); r != nil {
			handlerErr = panicToError(r)
			b.handleFailure(sub, event, handlerErr)
		}
		elapsed := time.Since(start)
		if handlerErr == nil {
			observability.LogHandlerComplete(b.logger, subscriberType, sub.Descriptor.methodName, observability.DurationMs(elapsed))
		}
		b.metrics.RecordDispatch(spanCtx, sub.Descriptor.eventType.String(), sub.Descriptor.threadMode.String(), elapsed, handlerErr)
		b.spans.EndSpanWithError(span, handlerErr)
	}()
	sub.Descriptor.invoke(reflect.ValueOf(sub.Subscriber), reflect.ValueOf(event))
}

func (b *Bus) handleFailure(sub *Subscription, event Event, err error) {
	invErr := &HandlerInvocationError{
		Subscriber:  sub.Subscriber,
		EventType:   sub.Descriptor.eventType,
		HandlerName: sub.Descriptor.methodName,
		Err:         err,
	}

	observability.LogHandlerError(b.logger, fmt.Sprintf("%T", sub.Subscriber), sub.Descriptor.methodName, err)

	if b.config.sendSubscriberExceptionEvent {
		if _, isExcEvent := event.(SubscriberExceptionEvent); !isExcEvent {
			_ = b.Post(SubscriberExceptionEvent{
				OriginalEvent:  event,
				Subscriber:     sub.Subscriber,
				SubscriberType: reflect.TypeOf(sub.Subscriber),
				HandlerName:    sub.Descriptor.methodName,
				Throwable:      invErr,
			})
		}
	}
}

func panicToError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
