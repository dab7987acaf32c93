package headless

import (
	"context"
	"errors"
	"fmt"

	"github.com/killallgit/deckchat/pkg/controllers"
	"github.com/killallgit/deckchat/pkg/deck"
	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/selection"
)

// runner runs one chat turn in headless mode
type runner struct {
	controller *controllers.ChatController
	holder     *deck.Holder
	pins       *selection.Store
	output     *Output
	printer    *snapshotPrinter
	opts       Options
}

func newRunner(opts Options) *runner {
	output := NewOutput(opts.Out)
	printer := newSnapshotPrinter(output)
	holder := deck.NewHolder()
	pins := selection.NewStore(holder)

	controllerOpts := []controllers.Option{
		controllers.WithMetrics(opts.Metrics),
		controllers.WithOnChange(printer.OnSnapshot),
	}
	if opts.LoadingInterval > 0 {
		controllerOpts = append(controllerOpts, controllers.WithLoadingInterval(opts.LoadingInterval))
	}

	return &runner{
		controller: controllers.NewChatController(opts.Transport, opts.Sessions, holder, selection.NewBridge(pins), controllerOpts...),
		holder:     holder,
		pins:       pins,
		output:     output,
		printer:    printer,
		opts:       opts,
	}
}

// run sends prompt and prints the turn as it streams
func (r *runner) run(ctx context.Context, prompt string) error {
	if err := r.controller.LoadSession(ctx, r.opts.SessionID); err != nil {
		return fmt.Errorf("failed to load session: %w", err)
	}

	if len(r.opts.Pins) > 0 {
		r.pins.Pin(r.opts.Pins...)
		resolved := r.pins.Read().Indices
		if len(resolved) != len(r.pins.Indices()) {
			logger.Warn("Some pinned slides are not in the deck (deck has %d slides)", r.holder.Current().Len())
			r.output.Printf("warning: only slides %v of %v could be pinned\n", slideNumbers(resolved), slideNumbers(r.pins.Indices()))
		}
	}

	r.printer.start(len(r.controller.Snapshot().Messages))

	if err := r.controller.Send(prompt); err != nil {
		return err
	}

	if err := r.controller.Wait(ctx); err != nil {
		r.controller.Cancel()
		return fmt.Errorf("turn interrupted: %w", err)
	}

	// Catch anything the change callbacks have not printed yet
	snap := r.controller.Snapshot()
	r.printer.OnSnapshot(snap)

	if snap.State == controllers.StateError {
		r.output.Error(snap.Error)
		return errors.New(snap.Error)
	}

	if snap.Feedback != "" {
		r.output.Feedback(snap.Feedback)
	}
	if r.opts.ShowHTML {
		r.output.HTML(r.holder.RawHTML())
	}

	r.output.Printf("\n[Session: %s, Slides: %d]\n", snap.SessionID, r.holder.Current().Len())
	logger.Debug("Headless turn complete (messages: %d)", len(snap.Messages))

	return nil
}

// slideNumbers converts deck indices to the 1-based numbers users type
func slideNumbers(indices []int) []int {
	out := make([]int, len(indices))
	for i, idx := range indices {
		out[i] = idx + 1
	}
	return out
}

// cleanup releases the controller
func (r *runner) cleanup() {
	r.controller.Dispose()
}
