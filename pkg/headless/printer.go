package headless

import (
	"sync"

	"github.com/killallgit/deckchat/pkg/controllers"
)

// snapshotPrinter prints what changed between controller snapshots
type snapshotPrinter struct {
	mu         sync.Mutex
	output     *Output
	active     bool
	printed    int
	lastStatus string
}

func newSnapshotPrinter(output *Output) *snapshotPrinter {
	return &snapshotPrinter{output: output}
}

// start begins printing, treating the first skip messages as already shown
func (p *snapshotPrinter) start(skip int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.active = true
	p.printed = skip
}

// OnSnapshot is registered as the controller's change callback
func (p *snapshotPrinter) OnSnapshot(s controllers.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.active {
		return
	}

	// Snapshots from different goroutines can arrive out of order; the
	// transcript only grows during a turn so a shorter one is simply older
	if len(s.Messages) > p.printed {
		for _, msg := range s.Messages[p.printed:] {
			p.output.Message(msg)
		}
		p.printed = len(s.Messages)
	}

	if s.LoadingText != "" && s.LoadingText != p.lastStatus {
		p.output.Status(s.LoadingText)
	}
	p.lastStatus = s.LoadingText
}
