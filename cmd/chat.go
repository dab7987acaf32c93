package cmd

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/killallgit/deckchat/pkg/config"
	"github.com/killallgit/deckchat/pkg/headless"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/transport"
	"github.com/spf13/cobra"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Run a single turn without the interactive screen",
	Long: `Send one prompt, stream the reply to stdout and exit.

Example:
  deckchat chat -p "Create 3 slides about solar power"
  deckchat chat -s abc123 --pin 1,3 -p "merge these"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		prompt, _ := cmd.Flags().GetString("prompt")
		sessionID, _ := cmd.Flags().GetString("session")
		profile, _ := cmd.Flags().GetString("profile")
		pins, _ := cmd.Flags().GetIntSlice("pin")
		showHTML, _ := cmd.Flags().GetBool("show-html")
		dumpMetrics, _ := cmd.Flags().GetBool("metrics")

		indices, err := slideNumbersToIndices(pins)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		cfg := config.Get()
		rec := metrics.NewRecorder()
		tr, err := transport.New(cfg, rec)
		if err != nil {
			return err
		}

		client := session.NewFromConfig(cfg)
		sessionID, err = ensureSession(ctx, client, sessionID, profile)
		if err != nil {
			return err
		}

		runErr := headless.RunHeadless(ctx, prompt, headless.Options{
			Transport:       tr,
			Sessions:        client,
			SessionID:       sessionID,
			Pins:            indices,
			ShowHTML:        showHTML,
			Out:             cmd.OutOrStdout(),
			Metrics:         rec,
			LoadingInterval: cfg.Loading.Interval,
		})

		if dumpMetrics {
			if err := rec.WriteText(cmd.ErrOrStderr()); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: failed to write metrics: %v\n", err)
			}
		}
		return runErr
	},
}

// slideNumbersToIndices maps 1-based slide numbers to deck indices
func slideNumbersToIndices(numbers []int) ([]int, error) {
	indices := make([]int, 0, len(numbers))
	for _, n := range numbers {
		if n < 1 {
			return nil, fmt.Errorf("invalid slide number %d (slides are numbered from 1)", n)
		}
		indices = append(indices, n-1)
	}
	return indices, nil
}

func init() {
	chatCmd.Flags().StringP("prompt", "p", "", "prompt to send")
	chatCmd.Flags().StringP("session", "s", "", "session to continue (a new one is created when empty)")
	chatCmd.Flags().String("profile", "", "profile for a new session")
	chatCmd.Flags().IntSlice("pin", nil, "slide numbers to scope the request to, e.g. 1,3")
	chatCmd.Flags().Bool("show-html", false, "print the generated deck HTML")
	chatCmd.Flags().Bool("metrics", false, "write turn metrics to stderr when done")
	chatCmd.MarkFlagRequired("prompt")

	rootCmd.AddCommand(chatCmd)
}
