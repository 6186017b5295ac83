// Package mysql implements the MySQL dialect.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/go-sql-driver/mysql"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("mysql", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for MySQL and MariaDB.
type Dialect struct{}

var _ db.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string       { return "mysql" }
func (d *Dialect) DriverName() string { return "mysql" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("mysql: host and database are required")
	}
	port := cfg.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", cfg.User, cfg.Pass, cfg.Host, port, cfg.Database), nil
}

func (d *Dialect) Quotes() (string, string) { return "`", "`" }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindQuestion }

func (d *Dialect) LimitOffset(limit, offset *int) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case limit == nil:
		// MySQL has no bare OFFSET; an effectively unbounded limit is
		// needed to skip rows.
		return "LIMIT 18446744073709551615 OFFSET " + strconv.Itoa(*offset)
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
