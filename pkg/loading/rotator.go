package loading

import (
	"fmt"
	"sync"
	"time"
)

// DefaultInterval is how long each message stays on screen
const DefaultInterval = 3 * time.Second

var messages = []string{
	"Reading your request...",
	"Thinking about the structure...",
	"Drafting slide content...",
	"Choosing a layout...",
	"Polishing the styling...",
	"Checking the details...",
	"Almost there...",
}

// Message returns the status text for a rotation index. Indexes wrap around.
func Message(index int) string {
	if index < 0 {
		index = -index
	}
	return messages[index%len(messages)]
}

// MessageCount returns the number of distinct rotation messages
func MessageCount() int {
	return len(messages)
}

// ToolStatus is the transient text shown while a tool runs
func ToolStatus(toolName string) string {
	return fmt.Sprintf("Querying %s...", toolName)
}

// Rotator publishes an advancing index on a fixed interval. A Rotator runs
// at most once: Start after Stop does nothing.
type Rotator struct {
	interval time.Duration
	publish  func(index int)

	mu      sync.Mutex
	started bool
	stopped bool
	stop    chan struct{}
}

// NewRotator creates a stopped rotator calling publish with each index
func NewRotator(interval time.Duration, publish func(index int)) *Rotator {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Rotator{
		interval: interval,
		publish:  publish,
		stop:     make(chan struct{}),
	}
}

// Start publishes index 0 on the calling goroutine, then index+1 every
// interval until Stop
func (r *Rotator) Start() {
	r.mu.Lock()
	if r.started || r.stopped {
		r.mu.Unlock()
		return
	}
	r.started = true
	r.mu.Unlock()

	r.publish(0)
	go r.run()
}

// Stop halts the rotation. Safe to call repeatedly and before Start.
func (r *Rotator) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return
	}
	r.stopped = true
	close(r.stop)
}

// Running reports whether the rotator has started and not yet stopped
func (r *Rotator) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.stopped
}

func (r *Rotator) run() {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	index := 0
	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
		}

		// Stop wins over a tick that fired at the same moment
		select {
		case <-r.stop:
			return
		default:
		}

		index++
		r.publish(index)
	}
}
