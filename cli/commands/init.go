package commands

import (
	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/cli/internal/ui"
	"github.com/gridkit/editordb/config"
	"github.com/gridkit/editordb/db"
)

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Set up database credentials interactively",
		Long:  "Prompt for connection details and write .editordb.yaml and .env",
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	questions := []*survey.Question{
		{
			Name: "type",
			Prompt: &survey.Select{
				Message: "Database type:",
				Options: []string{"mysql", "postgres", "sqlite", "sqlserver", "oracle", "db2", "firebird"},
				Default: "mysql",
			},
		},
		{
			Name:   "host",
			Prompt: &survey.Input{Message: "Host:", Default: "localhost"},
		},
		{
			Name:   "port",
			Prompt: &survey.Input{Message: "Port (blank for the dialect default):"},
		},
		{
			Name:   "user",
			Prompt: &survey.Input{Message: "User:"},
		},
		{
			Name:   "pass",
			Prompt: &survey.Password{Message: "Password:"},
		},
		{
			Name:   "database",
			Prompt: &survey.Input{Message: "Database name (or file path for sqlite):"},
		},
	}

	answers := struct {
		Type     string
		Host     string
		Port     string
		User     string
		Pass     string
		Database string
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}

	creds := db.Credentials{
		Type:     answers.Type,
		Host:     answers.Host,
		Port:     answers.Port,
		User:     answers.User,
		Pass:     answers.Pass,
		Database: answers.Database,
	}
	if err := config.Save(creds); err != nil {
		return err
	}

	ui.PrintSuccess("Wrote .editordb.yaml and .env")
	ui.PrintInfo("Next steps:")
	ui.PrintInfo("1. Run `editordb ping` to verify the connection")
	ui.PrintInfo("2. Run `editordb exec --table <name>` to read a table")
	return nil
}
