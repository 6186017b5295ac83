package commands

import (
	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/cli/internal/ui"
)

const usageGuide = `# editordb

Server-side data access for table editing UIs, speaking seven SQL dialects:
MySQL, PostgreSQL, SQLite, SQL Server, Oracle, Db2 and Firebird.

## Configuration

Run ` + "`editordb init`" + ` to create ` + "`.editordb.yaml`" + ` and ` + "`.env`" + `.
Settings can also come from ` + "`EDITORDB_*`" + ` environment variables:

| Variable | Meaning |
|---|---|
| EDITORDB_TYPE | dialect name |
| EDITORDB_HOST / EDITORDB_PORT | server address |
| EDITORDB_USER / EDITORDB_PASS | credentials |
| EDITORDB_DATABASE | database name, or file path for sqlite |

## Reading data

    editordb exec --table users --where "age > 21 and city = 'NYC'" --order "name desc" --limit 10

The ` + "`--where`" + ` expression supports ` + "`=`" + `, ` + "`!=`" + `, ` + "`<`" + `, ` + "`<=`" + `, ` + "`>`" + `, ` + "`>=`" + `,
` + "`like`" + `, ` + "`in (...)`" + `, ` + "`null`" + `, parentheses, ` + "`and`" + ` and ` + "`or`" + `.

## Raw SQL

    editordb exec "SELECT * FROM users WHERE id = 1"
    editordb exec report.sql --watch

With ` + "`--watch`" + ` the statement re-runs whenever the file changes.

## Library use

The ` + "`db`" + ` package builds and executes statements; the ` + "`editor`" + ` package
resolves joined child rows and option lists. Import one dialect package per
engine you target, e.g. ` + "`github.com/gridkit/editordb/db/dialect/mysql`" + `.
`

// NewDocsCommand creates the docs command.
func NewDocsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "docs",
		Short: "Show the usage guide",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ui.PrintMarkdown(usageGuide)
		},
	}
}
