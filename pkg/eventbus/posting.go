package eventbus

import (
	"bytes"
	"runtime"
	"strconv"
	"sync"
)

// postingRecord tracks one event queued for delivery within a posting call
// chain, along with whether dispatch has been cancelled for it.
type postingRecord struct {
	event    Event
	canceled bool

	// id correlates this record's dispatch across log lines and spans; it
	// has no semantic meaning to the bus itself.
	id string
}

// postingState is the Go stand-in for the original design's thread-local
// "PostingThreadState": the FIFO queue of events posted on this call chain,
// whether this goroutine is already draining that queue (so a reentrant
// Post just enqueues instead of recursing into dispatch), and the
// subscription/event currently being invoked (consulted by
// CancelEventDelivery).
type postingState struct {
	mu sync.Mutex

	queue      []*postingRecord
	isPosting  bool
	isMainGo   bool
	current    *postingRecord
	currentSub *Subscription
}

func newPostingState(isMainGoroutine bool) *postingState {
	return &postingState{isMainGo: isMainGoroutine}
}

// postingStateStore resolves the postingState for the calling goroutine
// when no Context carrying one was threaded through, which is the case for
// every Post and for PostWithContext with a caller-built Context. A nested
// Post from a handler on the same goroutine gets correct reentrancy
// behavior, keyed off a goroutine-id probe instead of true thread-local
// storage (which Go does not expose).
type postingStateStore struct {
	states sync.Map // goroutineID int64 -> *postingState
}

func newPostingStateStore() *postingStateStore {
	return &postingStateStore{}
}

func (s *postingStateStore) get() (*postingState, bool) {
	id := currentGoroutineID()
	v, ok := s.states.Load(id)
	if !ok {
		return nil, false
	}
	return v.(*postingState), true
}

func (s *postingStateStore) getOrCreate(mainGoroutineID int64) *postingState {
	id := currentGoroutineID()
	if v, ok := s.states.Load(id); ok {
		return v.(*postingState)
	}
	st := newPostingState(id == mainGoroutineID)
	actual, _ := s.states.LoadOrStore(id, st)
	return actual.(*postingState)
}

func (s *postingStateStore) clear() {
	id := currentGoroutineID()
	s.states.Delete(id)
}

// currentGoroutineID extracts the calling goroutine's numeric id by
// parsing the header line of its own stack trace ("goroutine 123 [running]:
// ..."). This is a well-known, if inelegant, way to get a goroutine-local
// key in Go, which deliberately does not expose goroutine identity.
// Used whenever the Context passed to a post carries no posting state,
// which covers every call made from outside the bus's own dispatch.
func currentGoroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	b := buf[:n]

	const prefix = "goroutine "
	if !bytes.HasPrefix(b, []byte(prefix)) {
		return 0
	}
	b = b[len(prefix):]

	end := bytes.IndexByte(b, ' ')
	if end < 0 {
		return 0
	}

	id, err := strconv.ParseInt(string(b[:end]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
