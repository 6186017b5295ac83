// Package main is the entry point for the editordb CLI.
package main

import (
	"os"

	_ "github.com/gridkit/editordb/db/dialect/db2"
	_ "github.com/gridkit/editordb/db/dialect/firebird"
	_ "github.com/gridkit/editordb/db/dialect/mssql"
	_ "github.com/gridkit/editordb/db/dialect/mysql"
	_ "github.com/gridkit/editordb/db/dialect/oracle"
	_ "github.com/gridkit/editordb/db/dialect/postgres"
	_ "github.com/gridkit/editordb/db/dialect/sqlite"

	"github.com/gridkit/editordb/cli/commands"
)

func main() {
	if err := commands.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
