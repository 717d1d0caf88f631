// filepath: internal/cli/root.go
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// Version info
var Version = "0.1.0"

// RootCmd represents the base command when called without any subcommands.
var RootCmd = &cobra.Command{
	Use:     "gallerybase",
	Short:   "Gallery library maintenance tools",
	Long:    `Maintenance tools for a gallerybase library: schema migrations, library rebuilds and store statistics.`,
	Version: Version,
	// PersistentPreRunE loads the configuration before any command runs.
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig(cmd)
	},
}

func init() {
	registerFlags(RootCmd)
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
