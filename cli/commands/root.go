// Package commands implements the editordb CLI commands.
package commands

import (
	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/internal/debug"
)

var debugFlag bool

// NewRootCommand builds the root command with all subcommands attached.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "editordb",
		Short: "Multi-dialect SQL access layer for table editing UIs",
		Long: "editordb builds, binds and executes SQL for seven database engines\n" +
			"and resolves joined child data onto parent rows.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			debug.Init(debugFlag)
		},
	}

	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "log executed statements to stderr")

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewPingCommand())
	rootCmd.AddCommand(NewExecCommand())
	rootCmd.AddCommand(NewDocsCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}
