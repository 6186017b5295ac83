package commands

import (
	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/cli/internal/ui"
	"github.com/gridkit/editordb/config"
	"github.com/gridkit/editordb/db"
)

// NewPingCommand creates the ping command.
func NewPingCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Verify the configured database is reachable",
		RunE:  runPing,
	}
}

func runPing(cmd *cobra.Command, args []string) error {
	creds, err := config.Load()
	if err != nil {
		return err
	}

	spinner, _ := ui.PrintSpinner("Connecting to " + creds.Type)
	handle, err := db.Connect(cmd.Context(), creds)
	if err != nil {
		if spinner != nil {
			spinner.Fail()
		}
		return err
	}
	defer handle.Close()
	if spinner != nil {
		spinner.Success()
	}

	ui.PrintSuccess("%s at %s is reachable", creds.Type, creds.Host)
	return nil
}
