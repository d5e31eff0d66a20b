package eventbus

import "sync"

var (
	defaultBusOnce sync.Once
	defaultBusInst *Bus
)

// Default returns the process-wide default Bus, constructing it on first
// use with NewBus and no options. This mirrors the original design's
// EventBus.getDefault() convenience singleton; applications with more than
// one bus, or that need non-default configuration, should call NewBus
// directly instead.
func Default() *Bus {
	defaultBusOnce.Do(func() {
		defaultBusInst = NewBus()
	})
	return defaultBusInst
}
