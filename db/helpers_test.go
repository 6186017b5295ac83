package db

import (
	"context"
	"database/sql"
	"strconv"
)

// testDialect is a minimal MySQL-shaped dialect for rendering tests.
type testDialect struct{}

func (d *testDialect) Name() string                          { return "test" }
func (d *testDialect) DriverName() string                    { return "test" }
func (d *testDialect) DSN(cfg Credentials) (string, error)   { return "", nil }
func (d *testDialect) Quotes() (string, string)              { return "`", "`" }
func (d *testDialect) FieldQuote() string                    { return "`" }
func (d *testDialect) BindStyle() BindStyle                  { return BindQuestion }
func (d *testDialect) InsertSuffix(string, []string) string  { return "" }
func (d *testDialect) TextSearch(col, ph string) string      { return col + " LIKE " + ph }

func (d *testDialect) LimitOffset(limit, offset *int) string {
	out := ""
	if limit != nil {
		out = "LIMIT " + strconv.Itoa(*limit)
	}
	if offset != nil {
		if out != "" {
			out += " "
		}
		out += "OFFSET " + strconv.Itoa(*offset)
	}
	return out
}

func (d *testDialect) InsertID(ctx context.Context, c Conn, res sql.Result) (int64, error) {
	return res.LastInsertId()
}

func newTestQuery(kind string, table ...string) *Query {
	return newQuery(New(&testDialect{}, nil), kind, table...)
}
