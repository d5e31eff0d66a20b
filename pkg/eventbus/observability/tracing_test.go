package observability

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOtelSpanManagerLifecycle(t *testing.T) {
	mgr := NewSpanManager()
	ctx := context.Background()

	postCtx, postSpan := mgr.StartPostSpan(ctx, "pkg.OrderPlaced")
	assert.NotNil(t, postSpan)
	assert.NotNil(t, postCtx)

	handlerCtx, handlerSpan := mgr.StartHandlerSpan(postCtx, "*pkg.Warehouse", "OnOrderPlaced", "ASYNC")
	assert.NotNil(t, handlerSpan)
	assert.NotNil(t, handlerCtx)

	assert.NotPanics(t, func() {
		mgr.EndSpanWithError(handlerSpan, errors.New("boom"))
		mgr.EndSpanWithError(postSpan, nil)
		mgr.AddSpanEvent(handlerCtx, "cancelled")
	})
}

func TestEndSpanWithNilSpanIsNoop(t *testing.T) {
	mgr := NewSpanManager()
	assert.NotPanics(t, func() {
		mgr.EndSpanWithError(nil, nil)
	})
}
