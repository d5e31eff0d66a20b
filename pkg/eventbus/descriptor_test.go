package eventbus

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestThreadModeString(t *testing.T) {
	tests := []struct {
		mode ThreadMode
		want string
	}{
		{Posting, "POSTING"},
		{Main, "MAIN"},
		{MainOrdered, "MAIN_ORDERED"},
		{Background, "BACKGROUND"},
		{Async, "ASYNC"},
		{ThreadMode(99), "ThreadMode(99)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.mode.String())
	}
}

type stubEvent struct{}

func TestNewHandlerDescriptor(t *testing.T) {
	eventType := reflect.TypeOf(stubEvent{})
	declaring := reflect.TypeOf(struct{}{})

	d := newHandlerDescriptor(declaring, "OnStub", eventType, HandlerOptions{
		ThreadMode: Async,
		Priority:   5,
		Sticky:     true,
	})

	assert.Equal(t, "OnStub", d.MethodName())
	assert.Equal(t, eventType, d.EventType())
	assert.Equal(t, Async, d.ThreadMode())
	assert.Equal(t, 5, d.Priority())
	assert.True(t, d.Sticky())
	assert.Contains(t, d.Signature(), "OnStub")
	assert.Contains(t, d.Signature(), "stubEvent")
}

func TestPublicNewHandlerDescriptorMatchesInternal(t *testing.T) {
	eventType := reflect.TypeOf(stubEvent{})
	declaring := reflect.TypeOf(struct{}{})

	a := newHandlerDescriptor(declaring, "OnStub", eventType, DefaultHandlerOptions)
	b := NewHandlerDescriptor(declaring, "OnStub", eventType, DefaultHandlerOptions)

	assert.Equal(t, a.Signature(), b.Signature())
}

type invokeTarget struct {
	got any
}

func (t *invokeTarget) OnStub(e stubEvent) { t.got = e }

func TestHandlerDescriptorInvoke(t *testing.T) {
	target := &invokeTarget{}
	d := newHandlerDescriptor(reflect.TypeOf(target).Elem(), "OnStub", reflect.TypeOf(stubEvent{}), DefaultHandlerOptions)

	d.invoke(reflect.ValueOf(target), reflect.ValueOf(stubEvent{}))

	assert.Equal(t, stubEvent{}, target.got)
}
