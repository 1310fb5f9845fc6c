// ABOUTME: Version command
// ABOUTME: Prints the product name and version
package cli

import (
	"github.com/spf13/cobra"

	"github.com/Resonate-Protocol/resonate-mixer/internal/version"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// needs no configuration
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Println(version.Short())
		},
	}
}
