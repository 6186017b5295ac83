package editor

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gridkit/editordb/db"
)

// Option is one selectable value/label pair for a list field.
type Option struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
}

// Options builds the list of choices for a select-like field from a
// database table, or from a fully custom function.
type Options struct {
	table  string
	value  string
	labels []string
	render func(db.Row) string
	where  func(*db.Query)
	order  string
	limit  *int
	fn     func(ctx context.Context, h *db.Database) ([]Option, error)
}

// NewOptions builds an empty options descriptor.
func NewOptions() *Options {
	return &Options{}
}

// Table sets the table options are read from.
func (o *Options) Table(table string) *Options {
	o.table = table
	return o
}

// Value sets the column used as the option value.
func (o *Options) Value(column string) *Options {
	o.value = column
	return o
}

// Label sets the column(s) used to build the option label. Multiple columns
// are joined with a space unless a Render function is installed.
func (o *Options) Label(columns ...string) *Options {
	o.labels = columns
	return o
}

// Render installs a custom label renderer receiving the full row.
func (o *Options) Render(fn func(db.Row) string) *Options {
	o.render = fn
	return o
}

// Where adds conditions to the options query.
func (o *Options) Where(fn func(*db.Query)) *Options {
	o.where = fn
	return o
}

// Order sets explicit ordering. Without it options sort by label.
func (o *Options) Order(order string) *Options {
	o.order = order
	return o
}

// Limit caps the number of options returned.
func (o *Options) Limit(n int) *Options {
	o.limit = &n
	return o
}

// Fn bypasses the query builder entirely; the function's result is returned
// as-is.
func (o *Options) Fn(fn func(ctx context.Context, h *db.Database) ([]Option, error)) *Options {
	o.fn = fn
	return o
}

// Exec produces the option list.
func (o *Options) Exec(ctx context.Context, h *db.Database) ([]Option, error) {
	if o.fn != nil {
		return o.fn(ctx, h)
	}
	if o.table == "" || o.value == "" {
		return nil, fmt.Errorf("editor: options need a table and a value column")
	}

	labels := o.labels
	if len(labels) == 0 {
		labels = []string{o.value}
	}

	q := h.Query("select", o.table).Distinct(true).Get(o.value).Get(labels...)
	if o.where != nil {
		o.where(q)
	}
	if o.order != "" {
		q.Order(o.order)
	}
	if o.limit != nil {
		q.Limit(*o.limit)
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := res.FetchAll()
	if err != nil {
		return nil, err
	}

	out := make([]Option, 0, len(rows))
	for _, row := range rows {
		out = append(out, Option{
			Value: row[columnKey(o.value)],
			Label: o.renderLabel(row, labels),
		})
	}
	if o.order == "" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	}
	return out, nil
}

func (o *Options) renderLabel(row db.Row, labels []string) string {
	if o.render != nil {
		return o.render(row)
	}
	parts := make([]string, 0, len(labels))
	for _, l := range labels {
		parts = append(parts, fmt.Sprint(row[columnKey(l)]))
	}
	return strings.Join(parts, " ")
}

// columnKey maps a possibly table-qualified column reference to the key it
// appears under in a result row.
func columnKey(column string) string {
	if idx := strings.LastIndex(column, "."); idx != -1 {
		return column[idx+1:]
	}
	return column
}
