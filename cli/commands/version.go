package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/cli/internal/version"
)

// NewVersionCommand creates the version command.
func NewVersionCommand() *cobra.Command {
	var full bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Short())
			if full {
				fmt.Printf("  commit: %s\n  built:  %s\n", version.Commit, version.Date)
			}
		},
	}
	cmd.Flags().BoolVar(&full, "full", false, "include build metadata")

	return cmd
}
