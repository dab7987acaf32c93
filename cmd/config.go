package cmd

import (
	"fmt"

	"github.com/killallgit/deckchat/pkg/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and initialize settings",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a settings file with every default",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			path = config.BuildSettingsPath("settings.yaml")
		}
		if err := config.WriteDefaults(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Settings at %s\n", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()
		out := cmd.OutOrStdout()

		used := config.GetConfigFileUsed()
		if used == "" {
			used = "(defaults)"
		}
		rows := [][2]string{
			{"config file", used},
			{"api.base_url", cfg.API.BaseURL},
			{"api.timeout", cfg.API.Timeout.String()},
			{"transport.mode", cfg.Transport.Mode},
			{"transport.poll_interval", cfg.Transport.PollInterval.String()},
			{"loading.interval", cfg.Loading.Interval.String()},
			{"logging.level", cfg.Logging.Level},
			{"session.default_profile", cfg.Session.DefaultProfile},
		}
		for _, row := range rows {
			fmt.Fprintf(out, "%-24s %s\n", row[0]+":", row[1])
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}
