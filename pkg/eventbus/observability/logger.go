package observability

import (
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
)

// EnrichLogger adds dispatch context to a logger. Returns a new logger
// with event_type, subscriber_type, and thread_mode fields.
//
// Example:
//
//	enriched := EnrichLogger(logger, "pkg.OrderPlaced", "*pkg.Warehouse", "ASYNC")
//	enriched.Info("dispatching") // includes event_type, subscriber_type, thread_mode
func EnrichLogger(logger *slog.Logger, eventType, subscriberType, threadMode string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(
		slog.String("event_type", eventType),
		slog.String("subscriber_type", subscriberType),
		slog.String("thread_mode", threadMode),
	)
}

// LogPostStart logs the start of event dispatch.
func LogPostStart(logger *slog.Logger, eventType string) {
	if logger == nil {
		return
	}
	logger.Debug("event posted", slog.String("event_type", eventType))
}

// LogPostComplete logs the end of dispatch for one dequeued event, also
// when a handler failed. Events that dispatch caused (NoSubscriberEvent,
// SubscriberExceptionEvent) are dequeued and logged separately.
func LogPostComplete(logger *slog.Logger, eventType string, durationMs float64, subscriberCount int) {
	if logger == nil {
		return
	}
	logger.Debug("event dispatch completed",
		slog.String("event_type", eventType),
		slog.Float64("duration_ms", durationMs),
		slog.Int("subscribers", subscriberCount),
	)
}

// LogQueueBacklog logs the current posting-queue depth for a goroutine's
// call chain, using a human-readable thousands separator since a runaway
// backlog is the kind of number an operator reads at a glance in a log
// line, not a metrics dashboard.
func LogQueueBacklog(logger *slog.Logger, depth int) {
	if logger == nil || depth == 0 {
		return
	}
	logger.Warn("posting queue backlog",
		slog.String("depth", humanize.Comma(int64(depth))),
	)
}

// LogNoSubscriber logs that an event found no active subscription.
func LogNoSubscriber(logger *slog.Logger, eventType string) {
	if logger == nil {
		return
	}
	logger.Info("no subscriber for event", slog.String("event_type", eventType))
}

// LogHandlerStart logs a handler invocation starting.
func LogHandlerStart(logger *slog.Logger, subscriberType, handlerName string) {
	if logger == nil {
		return
	}
	logger.Debug("handler starting",
		slog.String("subscriber_type", subscriberType),
		slog.String("handler", handlerName),
	)
}

// LogHandlerComplete logs a successful handler invocation.
func LogHandlerComplete(logger *slog.Logger, subscriberType, handlerName string, durationMs float64) {
	if logger == nil {
		return
	}
	logger.Debug("handler completed",
		slog.String("subscriber_type", subscriberType),
		slog.String("handler", handlerName),
		slog.Float64("duration_ms", durationMs),
	)
}

// LogHandlerError logs a handler failure.
func LogHandlerError(logger *slog.Logger, subscriberType, handlerName string, err error) {
	if logger == nil {
		return
	}
	logger.Error("handler failed",
		slog.String("subscriber_type", subscriberType),
		slog.String("handler", handlerName),
		slog.String("error", err.Error()),
	)
}

// DurationMs is a small helper so callers don't each repeat the cast.
func DurationMs(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}
