package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the reportctl command with all subcommands registered.
func NewRootCommand(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "reportctl",
		Short:   "Offline document rendering and report operations",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRenderCommand())
	rootCmd.AddCommand(newNextRunCommand())
	rootCmd.AddCommand(newRunScheduleCommand())
	rootCmd.AddCommand(newSeedCommand())

	return rootCmd
}
