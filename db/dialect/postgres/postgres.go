// Package postgres implements the PostgreSQL dialect.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("postgres", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for PostgreSQL.
type Dialect struct{}

var _ db.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string       { return "postgres" }
func (d *Dialect) DriverName() string { return "postgres" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("postgres: host and database are required")
	}
	port := cfg.Port
	if port == "" {
		port = "5432"
	}
	parts := []string{
		"host=" + cfg.Host,
		"port=" + port,
		"dbname=" + cfg.Database,
		"sslmode=disable",
	}
	if cfg.User != "" {
		parts = append(parts, "user="+cfg.User)
	}
	if cfg.Pass != "" {
		parts = append(parts, "password="+cfg.Pass)
	}
	return strings.Join(parts, " "), nil
}

func (d *Dialect) Quotes() (string, string) { return `"`, `"` }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindDollar }

func (d *Dialect) LimitOffset(limit, offset *int) string {
	var parts []string
	if limit != nil {
		parts = append(parts, "LIMIT "+strconv.Itoa(*limit))
	}
	if offset != nil {
		parts = append(parts, "OFFSET "+strconv.Itoa(*offset))
	}
	return strings.Join(parts, " ")
}

// InsertSuffix asks the statement itself for the generated key. The alias
// keeps the returned column name predictable for compound key tables.
func (d *Dialect) InsertSuffix(table string, pkey []string) string {
	return `RETURNING "` + pkey[0] + `" AS dt_pkey`
}

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return 0, fmt.Errorf("postgres: insert id is read from the RETURNING clause")
}

// TextSearch casts the column so non-text types can be searched, and uses
// ILIKE for case-insensitive matching.
func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + "::text ILIKE " + placeholder
}
