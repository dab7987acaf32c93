package headless

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/killallgit/deckchat/pkg/controllers"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/transport"
)

// Options configures a headless run
type Options struct {
	Transport       transport.Transport
	Sessions        controllers.SessionLoader
	SessionID       string
	Pins            []int
	ShowHTML        bool
	Out             io.Writer
	Metrics         *metrics.Recorder
	LoadingInterval time.Duration
}

// RunHeadless executes a single prompt in headless mode
// This is the main entry point for headless/CLI execution
func RunHeadless(ctx context.Context, prompt string, opts Options) error {
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("prompt cannot be empty in headless mode")
	}
	if opts.SessionID == "" {
		return fmt.Errorf("a session id is required in headless mode")
	}
	if opts.Out == nil {
		opts.Out = os.Stdout
	}

	r := newRunner(opts)
	defer r.cleanup()

	if err := r.run(ctx, prompt); err != nil {
		return fmt.Errorf("failed to execute prompt: %w", err)
	}
	return nil
}
