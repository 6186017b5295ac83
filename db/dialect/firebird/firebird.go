// Package firebird implements the Firebird dialect.
package firebird

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/nakagami/firebirdsql"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("firebird", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for Firebird 3 and later.
type Dialect struct{}

var _ db.Dialect = (*Dialect)(nil)

func (d *Dialect) Name() string       { return "firebird" }
func (d *Dialect) DriverName() string { return "firebirdsql" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("firebird: host and database are required")
	}
	port := cfg.Port
	if port == "" {
		port = "3050"
	}
	return fmt.Sprintf("%s:%s@%s:%s/%s", cfg.User, cfg.Pass, cfg.Host, port, cfg.Database), nil
}

func (d *Dialect) Quotes() (string, string) { return `"`, `"` }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindQuestion }

func (d *Dialect) LimitOffset(limit, offset *int) string {
	switch {
	case limit == nil && offset == nil:
		return ""
	case limit == nil:
		return "OFFSET " + strconv.Itoa(*offset) + " ROWS"
	case offset == nil:
		return "FETCH FIRST " + strconv.Itoa(*limit) + " ROWS ONLY"
	default:
		return "OFFSET " + strconv.Itoa(*offset) + " ROWS FETCH NEXT " + strconv.Itoa(*limit) + " ROWS ONLY"
	}
}

// InsertSuffix uses Firebird's RETURNING clause, which the driver delivers
// as a result row.
func (d *Dialect) InsertSuffix(table string, pkey []string) string {
	return `RETURNING "` + pkey[0] + `"`
}

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return 0, fmt.Errorf("firebird: insert id is read from the RETURNING clause")
}

func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + " LIKE " + placeholder
}
