package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoopMetricsDoesNothing(t *testing.T) {
	var m NoopMetrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.RecordDispatch(ctx, "pkg.Event", "POSTING", time.Millisecond, errors.New("boom"))
		m.RecordPost(ctx, "pkg.Event", 1, time.Millisecond)
		m.RecordNoSubscriber(ctx, "pkg.Event")
		m.RecordStickyReplay(ctx, "pkg.Event")
	})
}

func TestNoopSpanManagerDoesNothing(t *testing.T) {
	var s NoopSpanManager
	ctx := context.Background()

	postCtx, postSpan := s.StartPostSpan(ctx, "pkg.Event")
	assert.Equal(t, ctx, postCtx)
	assert.NotNil(t, postSpan)

	handlerCtx, handlerSpan := s.StartHandlerSpan(ctx, "*pkg.Sub", "OnEvent", "ASYNC")
	assert.Equal(t, ctx, handlerCtx)
	assert.NotNil(t, handlerSpan)

	assert.NotPanics(t, func() {
		s.EndSpanWithError(postSpan, errors.New("boom"))
		s.AddSpanEvent(ctx, "some-event")
	})
}
