package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records eventbus dispatch metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordDispatch records one handler invocation's outcome.
	RecordDispatch(ctx context.Context, eventType, threadMode string, duration time.Duration, err error)

	// RecordPost records a full Post/PostSticky call, including the
	// number of subscriptions it reached.
	RecordPost(ctx context.Context, eventType string, subscriberCount int, duration time.Duration)

	// RecordNoSubscriber records an event that reached no subscription.
	RecordNoSubscriber(ctx context.Context, eventType string)

	// RecordStickyReplay records a sticky event being replayed into a
	// newly registered handler.
	RecordStickyReplay(ctx context.Context, eventType string)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	dispatches     metric.Int64Counter
	dispatchErrors metric.Int64Counter
	dispatchMs     metric.Float64Histogram
	posts          metric.Int64Counter
	postSubs       metric.Int64Histogram
	postMs         metric.Float64Histogram
	noSubscriber   metric.Int64Counter
	stickyReplays  metric.Int64Counter
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

// getDefaultMetrics returns the default OTel metrics instance, lazily
// initializing it on first call.
func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("eventbus")

	dispatches, err := meter.Int64Counter("eventbus.dispatch.count",
		metric.WithDescription("Number of handler invocations"))
	if err != nil {
		return nil, err
	}

	dispatchErrors, err := meter.Int64Counter("eventbus.dispatch.errors",
		metric.WithDescription("Number of handler invocations that failed"))
	if err != nil {
		return nil, err
	}

	dispatchMs, err := meter.Float64Histogram("eventbus.dispatch.latency_ms",
		metric.WithDescription("Handler invocation latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	posts, err := meter.Int64Counter("eventbus.post.count",
		metric.WithDescription("Number of Post/PostSticky calls"))
	if err != nil {
		return nil, err
	}

	postSubs, err := meter.Int64Histogram("eventbus.post.subscribers",
		metric.WithDescription("Number of subscriptions reached per post"))
	if err != nil {
		return nil, err
	}

	postMs, err := meter.Float64Histogram("eventbus.post.latency_ms",
		metric.WithDescription("Full post dispatch latency in milliseconds"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, err
	}

	noSubscriber, err := meter.Int64Counter("eventbus.no_subscriber.count",
		metric.WithDescription("Number of events that reached no subscription"))
	if err != nil {
		return nil, err
	}

	stickyReplays, err := meter.Int64Counter("eventbus.sticky_replay.count",
		metric.WithDescription("Number of sticky events replayed into new subscribers"))
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		dispatches:     dispatches,
		dispatchErrors: dispatchErrors,
		dispatchMs:     dispatchMs,
		posts:          posts,
		postSubs:       postSubs,
		postMs:         postMs,
		noSubscriber:   noSubscriber,
		stickyReplays:  stickyReplays,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	import "go.opentelemetry.io/otel"
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordDispatch(ctx context.Context, eventType, threadMode string, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("event_type", eventType),
		attribute.String("thread_mode", threadMode),
	}
	m.dispatches.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.dispatchMs.Record(ctx, DurationMs(duration), metric.WithAttributes(attrs...))
	if err != nil {
		m.dispatchErrors.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

func (m *otelMetrics) RecordPost(ctx context.Context, eventType string, subscriberCount int, duration time.Duration) {
	attrs := []attribute.KeyValue{attribute.String("event_type", eventType)}
	m.posts.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.postSubs.Record(ctx, int64(subscriberCount), metric.WithAttributes(attrs...))
	m.postMs.Record(ctx, DurationMs(duration), metric.WithAttributes(attrs...))
}

func (m *otelMetrics) RecordNoSubscriber(ctx context.Context, eventType string) {
	m.noSubscriber.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}

func (m *otelMetrics) RecordStickyReplay(ctx context.Context, eventType string) {
	m.stickyReplays.Add(ctx, 1, metric.WithAttributes(attribute.String("event_type", eventType)))
}
