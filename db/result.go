package db

import (
	"database/sql"
	"fmt"
	"strconv"
)

// Result wraps the rows produced by a statement. Write statements return an
// empty result carrying at most the generated key.
type Result struct {
	rows     *sql.Rows
	cols     []string
	insertID interface{}
}

func newResult(rows *sql.Rows) *Result {
	return &Result{rows: rows}
}

// Fetch returns the next row, or nil once the cursor is exhausted. Byte
// slice column values are normalised to strings so drivers that return raw
// bytes for text columns behave like the rest.
func (r *Result) Fetch() (Row, error) {
	if r.rows == nil {
		return nil, nil
	}
	if !r.rows.Next() {
		err := r.rows.Err()
		r.Close()
		return nil, err
	}
	if r.cols == nil {
		cols, err := r.rows.Columns()
		if err != nil {
			return nil, err
		}
		r.cols = cols
	}

	values := make([]interface{}, len(r.cols))
	scan := make([]interface{}, len(r.cols))
	for i := range values {
		scan[i] = &values[i]
	}
	if err := r.rows.Scan(scan...); err != nil {
		return nil, err
	}

	row := make(Row, len(r.cols))
	for i, col := range r.cols {
		if b, ok := values[i].([]byte); ok {
			row[col] = string(b)
		} else {
			row[col] = values[i]
		}
	}
	return row, nil
}

// FetchAll drains the cursor into a slice. An empty result is a non-nil
// empty slice.
func (r *Result) FetchAll() ([]Row, error) {
	out := []Row{}
	for {
		row, err := r.Fetch()
		if err != nil {
			return nil, err
		}
		if row == nil {
			return out, nil
		}
		out = append(out, row)
	}
}

// Count drains the cursor and returns the number of rows it held.
func (r *Result) Count() (int, error) {
	n := 0
	for {
		row, err := r.Fetch()
		if err != nil {
			return 0, err
		}
		if row == nil {
			return n, nil
		}
		n++
	}
}

// InsertID returns the key generated by an insert, as the string form used
// in row identifiers.
func (r *Result) InsertID() string {
	switch v := r.insertID.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case int64:
		return strconv.FormatInt(v, 10)
	default:
		return fmt.Sprint(v)
	}
}

// Close releases the cursor. Safe to call more than once.
func (r *Result) Close() {
	if r.rows != nil {
		r.rows.Close()
		r.rows = nil
	}
}
