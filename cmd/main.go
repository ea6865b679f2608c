package main

import (
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd builds the command tree. Running the binary without a
// subcommand starts the server.
func newRootCmd() *cobra.Command {
	var configDir string

	rootCmd := &cobra.Command{
		Use:   "animation-panel",
		Short: "Animation configuration panel for the dev toolbar.",
		Long: `animation-panel serves the animation configuration plugin to the toolbar host.
It can also validate an animation file or render the prompt block it would send.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configDir)
		},
	}
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "directory containing config.yaml")

	rootCmd.AddCommand(
		newServeCmd(&configDir),
		newValidateCmd(),
		newRenderCmd(),
		newPreviewCmd(&configDir),
	)
	return rootCmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
