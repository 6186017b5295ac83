// Package db2 implements the IBM Db2 dialect.
package db2

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/ibmdb/go_ibm_db"

	"github.com/gridkit/editordb/db"
)

func init() {
	db.RegisterDialect("db2", func() db.Dialect { return &Dialect{} })
}

// Dialect renders statements for IBM Db2 LUW.
type Dialect struct{}

var (
	_ db.Dialect       = (*Dialect)(nil)
	_ db.KeyedInserter = (*Dialect)(nil)
)

func (d *Dialect) Name() string       { return "db2" }
func (d *Dialect) DriverName() string { return "go_ibm_db" }

func (d *Dialect) DSN(cfg db.Credentials) (string, error) {
	if cfg.Host == "" || cfg.Database == "" {
		return "", fmt.Errorf("db2: host and database are required")
	}
	port := cfg.Port
	if port == "" {
		port = "50000"
	}
	return fmt.Sprintf("HOSTNAME=%s;PORT=%s;DATABASE=%s;UID=%s;PWD=%s", cfg.Host, port, cfg.Database, cfg.User, cfg.Pass), nil
}

func (d *Dialect) Quotes() (string, string) { return `"`, `"` }
func (d *Dialect) FieldQuote() string       { return "`" }
func (d *Dialect) BindStyle() db.BindStyle  { return db.BindQuestion }

func (d *Dialect) LimitOffset(limit, offset *int) string {
	if limit == nil && offset == nil {
		return ""
	}
	clause := ""
	if offset != nil {
		clause = "OFFSET " + strconv.Itoa(*offset) + " ROWS"
	}
	if limit != nil {
		if clause != "" {
			clause += " "
		}
		clause += "FETCH FIRST " + strconv.Itoa(*limit) + " ROWS ONLY"
	}
	return clause
}

func (d *Dialect) InsertSuffix(table string, pkey []string) string { return "" }

// WrapInsertKey selects the generated key from the insert's own data change
// table, avoiding a second round trip that could land on another session.
func (d *Dialect) WrapInsertKey(insert string, pkey []string) string {
	return `SELECT "` + pkey[0] + `" AS dt_pkey FROM FINAL TABLE (` + insert + `)`
}

func (d *Dialect) InsertID(ctx context.Context, c db.Conn, res sql.Result) (int64, error) {
	return 0, fmt.Errorf("db2: generated keys are returned by the insert statement")
}

func (d *Dialect) TextSearch(column, placeholder string) string {
	return column + " LIKE " + placeholder
}
