package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/gridkit/editordb/internal/debug"
)

// Database is a handle onto one connection pool plus its dialect. It hands
// out queries and scopes them to an open transaction when one is active.
// A Database is not safe for concurrent use while a transaction is open.
type Database struct {
	sqlDB   *sql.DB
	tx      *sql.Tx
	dialect Dialect
	debugFn func(sql string, bindings []Binding)
}

// Connect opens a pool for the credentials, verifies it with a ping and
// runs any server level checks the dialect declares.
func Connect(ctx context.Context, cfg Credentials) (*Database, error) {
	dialect, err := NewDialect(cfg.Type)
	if err != nil {
		return nil, err
	}

	dsn := cfg.DSN
	if dsn == "" {
		dsn, err = dialect.DSN(cfg)
		if err != nil {
			return nil, err
		}
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		return nil, &ConnectionError{Dialect: dialect.Name(), Cause: err}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, &ConnectionError{Dialect: dialect.Name(), Cause: err}
	}

	db := &Database{sqlDB: sqlDB, dialect: dialect}
	if v, ok := dialect.(ServerValidator); ok {
		if err := v.CheckServer(ctx, db.conn()); err != nil {
			sqlDB.Close()
			return nil, err
		}
	}
	return db, nil
}

// MustConnect is Connect for program entry points: on failure it logs the
// error and exits.
func MustConnect(ctx context.Context, cfg Credentials) *Database {
	db, err := Connect(ctx, cfg)
	if err != nil {
		debug.Error("database connection failed", "type", cfg.Type, "error", err)
		fmt.Fprintf(os.Stderr, "editordb: %v\n", err)
		os.Exit(1)
	}
	return db
}

// New wraps an already open pool. Used by tests and callers that manage
// their own pool configuration.
func New(dialect Dialect, sqlDB *sql.DB) *Database {
	return &Database{sqlDB: sqlDB, dialect: dialect}
}

// Dialect returns the dialect the handle was opened with.
func (db *Database) Dialect() Dialect {
	return db.dialect
}

// Debug installs a sink that receives every rendered statement before it
// runs. Pass nil to remove it.
func (db *Database) Debug(fn func(sql string, bindings []Binding)) {
	db.debugFn = fn
}

func (db *Database) debugEvent(stmt string, bindings []Binding) {
	if db.debugFn != nil {
		db.debugFn(stmt, bindings)
	}
	names := make([]string, len(bindings))
	for i, b := range bindings {
		names[i] = b.Name
	}
	debug.Query(db.dialect.Name(), stmt, names)
}

// conn returns the execution target: the open transaction when there is
// one, the pool otherwise.
func (db *Database) conn() Conn {
	if db.tx != nil {
		return db.tx
	}
	return db.sqlDB
}

// InTransaction reports whether a transaction is open on this handle.
func (db *Database) InTransaction() bool {
	return db.tx != nil
}

// Begin opens a transaction. Queries created from the handle run inside it
// until Commit or Rollback.
func (db *Database) Begin(ctx context.Context) error {
	if db.tx != nil {
		return ErrNestedTransaction
	}
	tx, err := db.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return &ConnectionError{Dialect: db.dialect.Name(), Cause: err}
	}
	db.tx = tx
	return nil
}

// Commit commits the open transaction.
func (db *Database) Commit() error {
	if db.tx == nil {
		return ErrNoTransaction
	}
	err := db.tx.Commit()
	db.tx = nil
	return err
}

// Rollback abandons the open transaction.
func (db *Database) Rollback() error {
	if db.tx == nil {
		return ErrNoTransaction
	}
	err := db.tx.Rollback()
	db.tx = nil
	return err
}

// Close releases the pool.
func (db *Database) Close() error {
	return db.sqlDB.Close()
}

// Query starts a statement of the given kind against table.
func (db *Database) Query(kind string, table ...string) *Query {
	switch kind {
	case kindSelect, kindInsert, kindUpdate, kindDelete, kindCount, kindRaw:
		return newQuery(db, kind, table...)
	default:
		q := newQuery(db, kind, table...)
		q.err = fmt.Errorf("%w: %s", ErrUnsupportedCommand, kind)
		return q
	}
}

// Select runs a select in one call: fields from table filtered by where.
func (db *Database) Select(ctx context.Context, table string, fields []string, where map[string]interface{}) (*Result, error) {
	q := newQuery(db, kindSelect, table).Get(fields...)
	if where != nil {
		q.WhereMap(where)
	}
	return q.Exec(ctx)
}

// Insert runs an insert in one call and reports the generated key via the
// result.
func (db *Database) Insert(ctx context.Context, table string, values map[string]interface{}, pkey ...string) (*Result, error) {
	return newQuery(db, kindInsert, table).SetMap(values).Pkey(pkey...).Exec(ctx)
}

// Update runs an update in one call.
func (db *Database) Update(ctx context.Context, table string, values map[string]interface{}, where map[string]interface{}) (*Result, error) {
	q := newQuery(db, kindUpdate, table).SetMap(values)
	if where != nil {
		q.WhereMap(where)
	}
	return q.Exec(ctx)
}

// Delete runs a delete in one call.
func (db *Database) Delete(ctx context.Context, table string, where map[string]interface{}) (*Result, error) {
	q := newQuery(db, kindDelete, table)
	if where != nil {
		q.WhereMap(where)
	}
	return q.Exec(ctx)
}

// Push inserts or updates depending on whether where matches an existing
// row.
func (db *Database) Push(ctx context.Context, table string, values map[string]interface{}, where map[string]interface{}) (*Result, error) {
	exists, err := db.Any(ctx, table, where)
	if err != nil {
		return nil, err
	}
	if exists {
		return db.Update(ctx, table, values, where)
	}
	// where columns belong in the new row too
	merged := make(map[string]interface{}, len(values)+len(where))
	for k, v := range where {
		merged[k] = v
	}
	for k, v := range values {
		merged[k] = v
	}
	return db.Insert(ctx, table, merged)
}

// Count returns the number of rows in table matching where.
func (db *Database) Count(ctx context.Context, table string, where map[string]interface{}) (int, error) {
	q := newQuery(db, kindCount, table)
	if where != nil {
		q.WhereMap(where)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return 0, err
	}
	defer res.Close()
	row, err := res.Fetch()
	if err != nil {
		return 0, err
	}
	for _, v := range row {
		switch n := v.(type) {
		case int64:
			return int(n), nil
		case int:
			return n, nil
		case string:
			var parsed int
			if _, err := fmt.Sscanf(n, "%d", &parsed); err != nil {
				return 0, err
			}
			return parsed, nil
		}
	}
	return 0, nil
}

// Any reports whether at least one row in table matches where.
func (db *Database) Any(ctx context.Context, table string, where map[string]interface{}) (bool, error) {
	q := newQuery(db, kindSelect, table).Get("*").Limit(1)
	if where != nil {
		q.WhereMap(where)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return false, err
	}
	defer res.Close()
	row, err := res.Fetch()
	if err != nil {
		return false, err
	}
	return row != nil, nil
}

// Raw starts a raw statement. Named bindings use the :name form and are
// attached with Bind.
func (db *Database) Raw(sqlText string) *Query {
	q := newQuery(db, kindRaw)
	q.rawSQL = sqlText
	return q
}
