package cmd

import (
	"github.com/killallgit/deckchat/pkg/config"
	"github.com/killallgit/deckchat/pkg/controllers"
	"github.com/killallgit/deckchat/pkg/session"
	"github.com/spf13/cobra"
)

func sessionsController() *controllers.SessionsController {
	return controllers.NewSessionsController(session.NewFromConfig(config.Get()))
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage chat sessions",
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		profile, _ := cmd.Flags().GetString("profile")
		if profile == "" {
			profile = config.Get().Session.DefaultProfile
		}

		_, err := sessionsController().Create(cmd.Context(), title, profile, cmd.OutOrStdout())
		return err
	},
}

var sessionShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session and its transcript",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsController().Show(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var sessionRenameCmd = &cobra.Command{
	Use:   "rename <id> <title>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsController().Rename(cmd.Context(), args[0], args[1], cmd.OutOrStdout())
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsController().Delete(cmd.Context(), args[0], cmd.OutOrStdout())
	},
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List generation profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return sessionsController().ListProfiles(cmd.Context(), cmd.OutOrStdout())
	},
}

var uploadCmd = &cobra.Command{
	Use:   "upload <file>",
	Short: "Upload an image for use in slides",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := sessionsController().Upload(cmd.Context(), args[0], cmd.OutOrStdout())
		return err
	},
}

func init() {
	sessionCreateCmd.Flags().String("title", "", "session title")
	sessionCreateCmd.Flags().String("profile", "", "generation profile")

	sessionCmd.AddCommand(sessionCreateCmd, sessionShowCmd, sessionRenameCmd, sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd, profilesCmd, uploadCmd)
}
