package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gridkit/editordb/cli/internal/filter"
	"github.com/gridkit/editordb/cli/internal/ui"
	"github.com/gridkit/editordb/cli/internal/watch"
	"github.com/gridkit/editordb/config"
	"github.com/gridkit/editordb/db"
)

type execFlags struct {
	table  string
	where  string
	order  string
	limit  int
	offset int
	watch  bool
	echo   bool
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	flags := &execFlags{}

	cmd := &cobra.Command{
		Use:   "exec [file.sql | sql]",
		Short: "Run raw SQL or read a table",
		Long: "Run the SQL given as an argument or in a .sql file, or with --table\n" +
			"build a SELECT with optional --where, --order, --limit and --offset.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, flags)
		},
	}

	cmd.Flags().StringVar(&flags.table, "table", "", "read this table instead of running raw SQL")
	cmd.Flags().StringVar(&flags.where, "where", "", "filter expression, e.g. \"age > 21 and city = 'NYC'\"")
	cmd.Flags().StringVar(&flags.order, "order", "", "order by, e.g. \"name desc\"")
	cmd.Flags().IntVar(&flags.limit, "limit", 0, "maximum rows to return")
	cmd.Flags().IntVar(&flags.offset, "offset", 0, "rows to skip")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "re-run the .sql file whenever it changes")
	cmd.Flags().BoolVar(&flags.echo, "echo", false, "print the rendered SQL before running it")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, flags *execFlags) error {
	if flags.table == "" && len(args) == 0 {
		return fmt.Errorf("provide SQL, a .sql file, or --table")
	}

	creds, err := config.Load()
	if err != nil {
		return err
	}
	handle, err := db.Connect(cmd.Context(), creds)
	if err != nil {
		return err
	}
	defer handle.Close()

	if flags.echo {
		handle.Debug(func(sql string, bindings []db.Binding) {
			ui.PrintSQL(sql)
		})
	}

	run := func() error {
		var (
			res    *db.Result
			runErr error
		)
		if flags.table != "" {
			q := handle.Query("select", flags.table)
			if flags.where != "" {
				if err := filter.Apply(q, flags.where); err != nil {
					return err
				}
			}
			if flags.order != "" {
				q.Order(flags.order)
			}
			if flags.limit > 0 {
				q.Limit(flags.limit)
			}
			if flags.offset > 0 {
				q.Offset(flags.offset)
			}
			res, runErr = q.Exec(cmd.Context())
		} else {
			sqlText, err := readSQLArg(args[0])
			if err != nil {
				return err
			}
			res, runErr = handle.Raw(sqlText).Exec(cmd.Context())
		}
		if runErr != nil {
			return runErr
		}
		rows, err := res.FetchAll()
		if err != nil {
			return err
		}
		ui.PrintRows(rows)
		return nil
	}

	if !flags.watch {
		return run()
	}

	if len(args) == 0 || !strings.HasSuffix(args[0], ".sql") {
		return fmt.Errorf("--watch needs a .sql file argument")
	}

	watcher, err := watch.NewWatcher(args[0], run)
	if err != nil {
		return err
	}
	defer watcher.Stop()
	if err := watcher.Start(); err != nil {
		return err
	}

	ui.PrintInfo("Watching %s, press Ctrl-C to stop", args[0])
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
	return nil
}

// readSQLArg treats the argument as a file path when it names a .sql file,
// and as literal SQL otherwise.
func readSQLArg(arg string) (string, error) {
	if strings.HasSuffix(arg, ".sql") {
		data, err := os.ReadFile(arg)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", arg, err)
		}
		return strings.TrimSpace(string(data)), nil
	}
	return arg, nil
}
