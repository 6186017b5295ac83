// Package mssql implements the SQL Server dialect.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/go-version"
	_ "github.com/microsoft/go-mssqldb"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("sqlserver", func() db.Dialect { return &Dialect{} })
}

// minServerVersion is SQL Server 2012, the first release with
// OFFSET / FETCH paging syntax.
var minServerVersion = version.Must(version.NewVersion("11.0"))

// Dialect renders statements for Microsoft SQL Server.
type Dialect struct{}

var (
	_ db.Dialect         = (*Dialect)(nil)
	_ db.KeyedInserter   = (*Dialect)(nil)
	_ db.ServerValidator = (*Dialect)(nil)
)

func (d *Dialect) Name() string       { return "sqlserver" }
func (d *Dialect) DriverName() string { return "sqlserver" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("sqlserver: host and database are required")
	}
	port := cfg.Port
	if port == "" {
		port = "1433"
	}
	return fmt.Sprintf("sqlserver://%s:%s@%s:%s?database=%s", cfg.User, cfg.Pass, cfg.Host, port, cfg.Database), nil
}

func (d *Dialect) Quotes() (string, string) { return "[", "]" }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindAtNamed }

// LimitOffset uses the OFFSET / FETCH syntax, which needs an ORDER BY and
// an explicit offset even when only a limit was asked for.
func (d *Dialect) LimitOffset(limit, offset *int) string {
	if limit == nil && offset == nil {
		return ""
	}
	skip := 0
	if offset != nil {
		skip = *offset
	}
	clause := "OFFSET " + strconv.Itoa(skip) + " ROWS"
	if limit != nil {
		clause += " FETCH NEXT " + strconv.Itoa(*limit) + " ROWS ONLY"
	}
	return clause
}

func (d *Dialect) InsertSuffix(table string, pkey []string) string { return "" }

// WrapInsertKey appends the identity lookup to the insert batch so both
// statements run on the same session even without a transaction.
func (d *Dialect) WrapInsertKey(insert string, pkey []string) string {
	return insert + "; SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS dt_pkey"
}

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return 0, fmt.Errorf("sqlserver: generated keys are returned by the insert batch")
}

func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + " LIKE " + placeholder
}

// CheckServer rejects servers older than SQL Server 2012, whose paging
// syntax the builder depends on.
func (d *Dialect) CheckServer(ctx context.Context, c db.Conn) error {
	var raw string
	if err := c.QueryRowContext(ctx, "SELECT CAST(SERVERPROPERTY('productversion') AS VARCHAR(128))").Scan(&raw); err != nil {
		return fmt.Errorf("sqlserver: reading server version: %w", err)
	}
	// Keep only major.minor; go-version chokes on four-part builds.
	parts := strings.SplitN(raw, ".", 3)
	if len(parts) > 2 {
		raw = parts[0] + "." + parts[1]
	}
	v, err := version.NewVersion(raw)
	if err != nil {
		return fmt.Errorf("sqlserver: parsing server version %q: %w", raw, err)
	}
	if v.LessThan(minServerVersion) {
		return fmt.Errorf("sqlserver: server version %s is below the minimum supported (SQL Server 2012)", v)
	}
	return nil
}
