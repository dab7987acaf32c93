package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"
	"github.com/killallgit/deckchat/pkg/config"
	"github.com/killallgit/deckchat/pkg/logger"
	"github.com/killallgit/deckchat/pkg/metrics"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/killallgit/deckchat/pkg/transport"
	"github.com/killallgit/deckchat/pkg/tui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "deckchat",
	Short: "Chat with the slide deck assistant",
	Long: `deckchat talks to the slide generation backend. Without a subcommand it
opens an interactive chat; pin slides with /pin to scope a request to them.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, _ := cmd.Flags().GetString("session")
		profile, _ := cmd.Flags().GetString("profile")

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()
		return runTUI(ctx, sessionID, profile)
	},
}

func runTUI(ctx context.Context, sessionID, profile string) error {
	log := logger.WithComponent("app")
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

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	log.Info("Starting chat", "session_id", sessionID, "transport", cfg.Transport.Mode)
	app := tui.NewApp(screen, tui.Options{
		Transport:       tr,
		Sessions:        client,
		Metrics:         rec,
		LoadingInterval: cfg.Loading.Interval,
	})
	return app.Run(ctx, sessionID)
}

// ensureSession returns id, or creates a session when id is empty
func ensureSession(ctx context.Context, client *session.Client, id, profile string) (string, error) {
	if id != "" {
		return id, nil
	}
	if profile == "" {
		profile = config.Get().Session.DefaultProfile
	}

	created, err := client.CreateSession(ctx, session.CreateSessionRequest{ProfileID: profile})
	if err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	logger.WithComponent("app").Debug("Created session", "session_id", created.ID, "profile", profile)
	return created.ID, nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default is .deckchat/settings.yaml)")

	rootCmd.PersistentFlags().StringP("log-level", "l", "info", "log level")
	viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.PersistentFlags().String("api-url", "", "backend base URL")
	viper.BindPFlag("api.base_url", rootCmd.PersistentFlags().Lookup("api-url"))

	rootCmd.Flags().StringP("session", "s", "", "resume this session instead of creating one")
	rootCmd.Flags().String("profile", "", "profile for a new session")
}

func initConfig() {
	if _, err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
	}
}
