// Package oracle implements the Oracle dialect.
package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("oracle", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for Oracle Database.
type Dialect struct{}

var (
	_ db.Dialect         = (*Dialect)(nil)
	_ db.WrappingLimiter = (*Dialect)(nil)
	_ db.OutBinder       = (*Dialect)(nil)
)

func (d *Dialect) Name() string       { return "oracle" }
func (d *Dialect) DriverName() string { return "oracle" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("oracle: host and service name are required")
	}
	port := 1521
	if cfg.Port != "" {
		p, err := strconv.Atoi(cfg.Port)
		if err != nil {
			return "", fmt.Errorf("oracle: invalid port %q: %w", cfg.Port, err)
		}
		port = p
	}
	return go_ora.BuildUrl(cfg.Host, port, cfg.Database, cfg.User, cfg.Pass, nil), nil
}

func (d *Dialect) Quotes() (string, string) { return `"`, `"` }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindColonNamed }

// LimitOffset is empty; Oracle paging needs the whole statement wrapped.
func (d *Dialect) LimitOffset(limit, offset *int) string { return "" }

// WrapLimit bounds the statement with ROWNUM subqueries. The inner wrap
// caps the absolute row number, the outer one discards the skipped prefix.
func (d *Dialect) WrapLimit(query string, limit, offset *int) string {
	if limit == nil && offset == nil {
		return query
	}
	skip := 0
	if offset != nil {
		skip = *offset
	}
	if limit != nil {
		upper := skip + *limit
		query = fmt.Sprintf(
			"SELECT dt_inner.*, ROWNUM dt_rownum FROM (%s) dt_inner WHERE ROWNUM <= %d",
			query, upper,
		)
	} else {
		query = fmt.Sprintf(
			"SELECT dt_inner.*, ROWNUM dt_rownum FROM (%s) dt_inner",
			query,
		)
	}
	if skip > 0 {
		query = fmt.Sprintf("SELECT * FROM (%s) WHERE dt_rownum > %d", query, skip)
	}
	return query
}

func (d *Dialect) InsertSuffix(table string, pkey []string) string { return "" }

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return 0, fmt.Errorf("oracle: insert id is read through an output binding")
}

// OutBinding returns the generated key through an output parameter, the
// only mechanism Oracle offers on a plain INSERT.
func (d *Dialect) OutBinding(pkey string) (string, string) {
	return `RETURNING "` + pkey + `" INTO :dt_out`, "dt_out"
}

func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + " LIKE " + placeholder
}
