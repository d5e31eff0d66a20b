package eventbus

// MainThreadSupport is the Go stand-in for the original design's notion of
// "the UI/main thread": a host environment (a GUI toolkit's event loop, a
// CLI's single control goroutine) that exposes a way to run a task on its
// own goroutine and to ask whether the calling goroutine already is that
// one. A plain Go program has no such concept by default, so the bus
// treats MainThreadSupport as an optional collaborator: when absent, MAIN
// and MAIN_ORDERED handlers fall back to running inline on the posting
// goroutine (see defaultMainThreadSupport).
type MainThreadSupport interface {
	// IsMainThread reports whether the calling goroutine is the host's
	// main goroutine.
	IsMainThread() bool

	// Post schedules task to run on the main goroutine. Implementations
	// must preserve FIFO order across calls; the bus relies on this for
	// MAIN_ORDERED semantics.
	Post(task func())
}

// defaultMainThreadSupport is the degenerate MainThreadSupport used when a
// Bus is not configured with one: every goroutine is treated as "the main
// one" and tasks run inline. This keeps MAIN and MAIN_ORDERED usable
// without a host loop, at the cost of not actually serializing delivery
// onto a single goroutine.
type defaultMainThreadSupport struct{}

func (defaultMainThreadSupport) IsMainThread() bool { return true }
func (defaultMainThreadSupport) Post(task func())   { task() }

// WorkerPool runs ASYNC handlers. The default implementation spawns one
// goroutine per task; a Bus can be configured with a bounded pool (for
// example backed by a semaphore or a third-party pool library) to cap
// concurrency.
type WorkerPool interface {
	Submit(task func())
}

// goroutinePerTaskPool is the default WorkerPool: unbounded, one goroutine
// per Submit. Fine for low/medium ASYNC volume; callers expecting high
// volume should configure a bounded pool via WithWorkerPool.
type goroutinePerTaskPool struct{}

func (goroutinePerTaskPool) Submit(task func()) {
	go task()
}

// serialPoster runs BACKGROUND handlers one at a time, in submission
// order, on a single dedicated goroutine, so that multiple BACKGROUND
// deliveries from different posting goroutines never run concurrently
// with each other — mirroring the original design's single background
// executor thread.
type serialPoster struct {
	tasks chan func()
	done  chan struct{}
}

func newSerialPoster() *serialPoster {
	p := &serialPoster{
		tasks: make(chan func(), 64),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *serialPoster) run() {
	for task := range p.tasks {
		task()
	}
	close(p.done)
}

func (p *serialPoster) Submit(task func()) {
	p.tasks <- task
}

// Close stops accepting new tasks and waits for already-submitted ones to
// finish draining.
func (p *serialPoster) Close() {
	close(p.tasks)
	<-p.done
}
