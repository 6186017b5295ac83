package db

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure classes.
var (
	// ErrUnsupportedCommand is returned when a statement kind is not one of
	// select, insert, update, delete, count or raw.
	ErrUnsupportedCommand = errors.New("unsupported database command")

	// ErrSpentQuery is returned when Exec is called twice on one Query.
	ErrSpentQuery = errors.New("query already executed; build a new one")

	// ErrNestedTransaction is returned when Begin is called while a
	// transaction is already open on the handle.
	ErrNestedTransaction = errors.New("transaction already in progress")

	// ErrNoTransaction is returned by Commit/Rollback with no open
	// transaction.
	ErrNoTransaction = errors.New("no transaction in progress")
)

// ConnectionError is raised at connect time. It is not retried at this
// layer; a dead connection makes the whole request unserviceable.
type ConnectionError struct {
	Dialect string
	Cause   error
}

// Error implements the error interface.
func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s failed: %v", e.Dialect, e.Cause)
}

// Unwrap returns the underlying driver error.
func (e *ConnectionError) Unwrap() error { return e.Cause }

// StatementError wraps a driver rejection of a prepared statement. The
// driver's message is preserved verbatim in Cause and never swallowed.
type StatementError struct {
	SQL   string
	Cause error
}

// Error implements the error interface.
func (e *StatementError) Error() string {
	return fmt.Sprintf("statement failed: %v (sql: %s)", e.Cause, e.SQL)
}

// Unwrap returns the underlying driver error.
func (e *StatementError) Unwrap() error { return e.Cause }

// MalformedKeyError reports a composite key string whose part count does not
// match the configured primary key columns.
type MalformedKeyError struct {
	Pkey  []string
	Value string
}

// Error implements the error interface.
func (e *MalformedKeyError) Error() string {
	return fmt.Sprintf("malformed compound key %q for columns %v", e.Value, e.Pkey)
}

// BindError reports a placeholder in rendered SQL with no matching binding.
type BindError struct {
	Name string
}

// Error implements the error interface.
func (e *BindError) Error() string {
	return fmt.Sprintf("no binding for placeholder :%s", e.Name)
}
