package eventbus

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStickyEventsPutGet(t *testing.T) {
	s := newStickyEvents()
	et := reflect.TypeOf(stubEvent{})

	_, ok := s.get(et)
	assert.False(t, ok)

	s.put(stubEvent{})
	got, ok := s.get(et)
	assert.True(t, ok)
	assert.Equal(t, stubEvent{}, got)
}

func TestStickyEventsPutReplacesPrevious(t *testing.T) {
	s := newStickyEvents()
	first := &invokeTarget{got: "first"}
	second := &invokeTarget{got: "second"}

	s.put(first)
	s.put(second)

	got, ok := s.get(reflect.TypeOf(first))
	assert.True(t, ok)
	assert.Same(t, second, got)
}

func TestStickyEventsRemoveByType(t *testing.T) {
	s := newStickyEvents()
	et := reflect.TypeOf(stubEvent{})
	s.put(stubEvent{})

	got, ok := s.removeByType(et)
	assert.True(t, ok)
	assert.Equal(t, stubEvent{}, got)

	_, ok = s.get(et)
	assert.False(t, ok)
}

func TestStickyEventsRemoveIfEqual(t *testing.T) {
	s := newStickyEvents()
	target := &invokeTarget{}
	s.put(target)

	other := &invokeTarget{}
	assert.False(t, s.removeIfEqual(other))

	assert.True(t, s.removeIfEqual(target))
	_, ok := s.get(reflect.TypeOf(target))
	assert.False(t, ok)
}

func TestStickyEventsClearAll(t *testing.T) {
	s := newStickyEvents()
	s.put(stubEvent{})
	s.put(&invokeTarget{})

	s.clearAll()

	_, ok := s.get(reflect.TypeOf(stubEvent{}))
	assert.False(t, ok)
}

func TestStickyEventsMatchingRespectsAssignability(t *testing.T) {
	s := newStickyEvents()
	s.put(withInterface{})

	matches := s.matching(reflect.TypeOf((*stringerIface)(nil)).Elem())
	assert.Len(t, matches, 1)

	noMatches := s.matching(reflect.TypeOf(baseThing{}))
	assert.Empty(t, noMatches)
}
