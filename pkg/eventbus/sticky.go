package eventbus

import (
	"reflect"
	"sync"
)

// stickyEvents holds the latest sticky event posted per concrete event
// type. It is guarded by its own lock, independent of subscriptionRegistry,
// since sticky reads/writes and subscription changes are unrelated
// operations that would otherwise contend for no reason.
type stickyEvents struct {
	mu     sync.RWMutex
	byType map[reflect.Type]Event
}

func newStickyEvents() *stickyEvents {
	return &stickyEvents{byType: make(map[reflect.Type]Event)}
}

// put replaces the sticky event recorded for event's concrete type.
func (s *stickyEvents) put(event Event) {
	t := reflect.TypeOf(event)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType[t] = event
}

// get returns the sticky event currently recorded for t, if any.
func (s *stickyEvents) get(t reflect.Type) (Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	event, ok := s.byType[t]
	return event, ok
}

// removeByType deletes and returns the sticky event recorded for t.
func (s *stickyEvents) removeByType(t reflect.Type) (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	event, ok := s.byType[t]
	if ok {
		delete(s.byType, t)
	}
	return event, ok
}

// removeIfEqual deletes the sticky event recorded for event's type only if
// it is identical (==) to event, and reports whether it did so. This
// mirrors the original's "remove this exact sticky event" operation, which
// exists to avoid a race between reading a sticky event and removing it
// out from under a concurrent PostSticky of a newer one.
func (s *stickyEvents) removeIfEqual(event Event) bool {
	t := reflect.TypeOf(event)
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.byType[t]
	if !ok || current != event {
		return false
	}
	delete(s.byType, t)
	return true
}

// clearAll discards every recorded sticky event.
func (s *stickyEvents) clearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byType = make(map[reflect.Type]Event)
}

// matching returns every recorded sticky event whose type is assignable to
// descriptorType (the same to/from rule dispatch uses), for replay against
// a single handler registered with Sticky()==true.
func (s *stickyEvents) matching(descriptorType reflect.Type) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for t, event := range s.byType {
		if isAssignableFrom(descriptorType, t) {
			out = append(out, event)
		}
	}
	return out
}
