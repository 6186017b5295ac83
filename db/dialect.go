// Package db implements the query building and statement composition engine
// used by the editor layer, abstracting over several SQL dialects.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"sync"
)

// BindStyle describes how a dialect's driver expects placeholders.
type BindStyle int

const (
	// BindQuestion uses positional `?` markers (MySQL, SQLite, DB2, Firebird).
	BindQuestion BindStyle = iota
	// BindDollar uses positional `$1..$n` markers (Postgres).
	BindDollar
	// BindAtNamed uses `@name` markers with named arguments (SQL Server).
	BindAtNamed
	// BindColonNamed uses `:name` markers with named arguments (Oracle).
	BindColonNamed
)

// Conn is the minimal execution surface the query layer needs. Both *sql.DB
// and *sql.Tx satisfy it.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Dialect supplies the engine-specific fragments the query builder cannot
// know about: identifier quoting, placeholder style, limit/offset syntax and
// the insert primary-key return mechanism.
type Dialect interface {
	// Name returns the dialect name as used in credentials ("mysql", ...).
	Name() string

	// DriverName returns the database/sql driver to open connections with.
	DriverName() string

	// DSN builds a driver-specific connection string from flat credentials.
	DSN(cfg Credentials) (string, error)

	// Quotes returns the left/right identifier quote pair. Empty strings
	// disable identifier quoting for the dialect.
	Quotes() (left, right string)

	// FieldQuote returns the character used to quote field aliases in
	// select lists.
	FieldQuote() string

	// BindStyle reports the placeholder convention of the driver.
	BindStyle() BindStyle

	// LimitOffset renders an appendable limit/offset fragment. Dialects
	// that must wrap the whole statement instead return "" and implement
	// WrappingLimiter.
	LimitOffset(limit, offset *int) string

	// InsertSuffix renders a clause appended to an INSERT so the statement
	// itself returns the generated primary key (e.g. RETURNING), or ""
	// when the dialect retrieves the key after execution via InsertID.
	InsertSuffix(table string, pkey []string) string

	// InsertID retrieves the generated key after an INSERT for dialects
	// without a returning clause.
	InsertID(ctx context.Context, c Conn, res sql.Result) (int64, error)

	// TextSearch renders a case-insensitive text comparison between a
	// quoted column and a placeholder.
	TextSearch(column, placeholder string) string
}

// WrappingLimiter is implemented by dialects whose limit/offset support
// requires rewrapping the whole rendered SELECT rather than appending a
// fragment (Oracle's ROWNUM bounds).
type WrappingLimiter interface {
	WrapLimit(query string, limit, offset *int) string
}

// OutBinder is implemented by dialects that return the generated primary key
// through an output parameter bound before execution (Oracle's
// RETURNING ... INTO :name).
type OutBinder interface {
	// OutBinding returns the statement suffix and the placeholder name the
	// caller must bind an *int64 destination to.
	OutBinding(pkey string) (suffix, name string)
}

// KeyedInserter is implemented by dialects whose generated-key lookup must
// travel in the insert's own statement to stay on one session (SQL Server's
// SCOPE_IDENTITY batch, Db2's FINAL TABLE). It takes precedence over
// InsertSuffix and InsertID.
type KeyedInserter interface {
	// WrapInsertKey rewrites the rendered INSERT into a statement that
	// also yields the generated key as a single-row result set.
	WrapInsertKey(insert string, pkey []string) string
}

// ServerValidator is implemented by dialects with a minimum server version
// requirement that should be checked once at connect time.
type ServerValidator interface {
	CheckServer(ctx context.Context, c Conn) error
}

var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]func() Dialect)
)

// RegisterDialect makes a dialect constructor available to Connect under the
// given name. It is called from the init function of each dialect package.
func RegisterDialect(name string, fn func() Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	if fn == nil {
		panic("db: RegisterDialect with nil constructor")
	}
	if _, dup := dialects[name]; dup {
		panic(fmt.Sprintf("db: RegisterDialect called twice for %q", name))
	}
	dialects[name] = fn
}

// NewDialect returns a registered dialect by name.
func NewDialect(name string) (Dialect, error) {
	dialectsMu.RLock()
	fn, ok := dialects[name]
	var registered []string
	if !ok {
		registered = dialectNames()
	}
	dialectsMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("db: unknown dialect %q (registered: %v)", name, registered)
	}
	return fn(), nil
}

func dialectNames() []string {
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
