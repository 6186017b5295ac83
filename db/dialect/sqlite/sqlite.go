// Package sqlite implements the SQLite dialect.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("sqlite", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for SQLite.
type Dialect struct{}

var _ db.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string       { return "sqlite" }
func (d *Dialect) DriverName() string { return "sqlite3" }

// DSN for SQLite is the database file path.
func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Database == "" {
		return "", fmt.Errorf("sqlite: database file path is required")
	}
	return cfg.Database, nil
}

func (d *Dialect) Quotes() (string, string) { return `"`, `"` }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindQuestion }

func (d *Dialect) LimitOffset(limit, offset *int) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case limit == nil:
		// SQLite accepts a negative limit as unbounded.
		return "LIMIT -1 OFFSET " + strconv.Itoa(*offset)
	case offset == nil:
		return "LIMIT " + strconv.Itoa(*limit)
	default:
		return "LIMIT " + strconv.Itoa(*limit) + " OFFSET " + strconv.Itoa(*offset)
	}
}

func (d *Dialect) InsertSuffix(table string, pkey []string) string { return "" }

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return res.LastInsertId()
}

func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + " LIKE " + placeholder
}
