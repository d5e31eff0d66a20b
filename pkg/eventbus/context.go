package eventbus

import "context"

// Context carries the bus's per-call posting state across a reentrant
// chain of Post calls, the same way the original design relies on
// thread-local storage to find "am I already posting, and what is the
// current event" from deep inside a handler. A handler method only ever
// receives the event itself, never a Context, so the common path (a
// handler calling Post or CancelEventDelivery on the same goroutine that
// is delivering it) instead resolves its posting state through a
// goroutine-id probe (see postingStateStore). PostWithContext and this
// type let a caller pass its own context.Context along with a post.
// Posting state is attached to a Context only inside the bus's own
// dispatch, so a Context built by a caller carries none and the post
// starts or joins the calling goroutine's chain.
//
// Context embeds context.Context so it composes with the rest of the
// ecosystem (deadlines, values, cancellation) exactly like a plain
// context.Context; eventbus only ever reads its own private key out of it.
type Context struct {
	context.Context
}

// Background returns an empty Context with no posting state attached,
// suitable as the root of a call chain that starts outside any handler.
func Background() Context {
	return Context{Context: context.Background()}
}

// FromContext wraps an existing context.Context so it can be passed to
// Bus.PostWithContext. If ctx already carries eventbus posting state, that
// state is preserved; handlers are not given a Context, so a ctx obtained
// outside the bus carries none.
func FromContext(ctx context.Context) Context {
	return Context{Context: ctx}
}

type postingStateKey struct{}

func withPostingState(ctx context.Context, st *postingState) context.Context {
	return context.WithValue(ctx, postingStateKey{}, st)
}

func postingStateFromContext(ctx context.Context) (*postingState, bool) {
	st, ok := ctx.Value(postingStateKey{}).(*postingState)
	return st, ok
}
