package editor

import (
	"context"
	"fmt"
	"sort"

	"github.com/gridkit/editordb/db"
)

// SearchBuilderOptions builds the distinct value list SearchBuilder shows
// for one column's criteria dropdown.
type SearchBuilderOptions struct {
	table  string
	value  string
	label  string
	render func(db.Row) string
	where  func(*db.Query)
	order  string
	fn     func(ctx context.Context, h *db.Database) ([]Option, error)
}

// NewSearchBuilderOptions builds an empty descriptor.
func NewSearchBuilderOptions() *SearchBuilderOptions {
	return &SearchBuilderOptions{}
}

// Table sets the table values are read from.
func (o *SearchBuilderOptions) Table(table string) *SearchBuilderOptions {
	o.table = table
	return o
}

// Value sets the value column.
func (o *SearchBuilderOptions) Value(column string) *SearchBuilderOptions {
	o.value = column
	return o
}

// Label sets the label column. Defaults to the value column.
func (o *SearchBuilderOptions) Label(column string) *SearchBuilderOptions {
	o.label = column
	return o
}

// Render installs a custom label renderer.
func (o *SearchBuilderOptions) Render(fn func(db.Row) string) *SearchBuilderOptions {
	o.render = fn
	return o
}

// Where adds conditions to the value query.
func (o *SearchBuilderOptions) Where(fn func(*db.Query)) *SearchBuilderOptions {
	o.where = fn
	return o
}

// Order sets explicit ordering. Without it values sort by label.
func (o *SearchBuilderOptions) Order(order string) *SearchBuilderOptions {
	o.order = order
	return o
}

// Fn bypasses the query builder entirely.
func (o *SearchBuilderOptions) Fn(fn func(ctx context.Context, h *db.Database) ([]Option, error)) *SearchBuilderOptions {
	o.fn = fn
	return o
}

// Exec produces the distinct value list.
func (o *SearchBuilderOptions) Exec(ctx context.Context, h *db.Database) ([]Option, error) {
	if o.fn != nil {
		return o.fn(ctx, h)
	}
	if o.table == "" || o.value == "" {
		return nil, fmt.Errorf("editor: search builder options need a table and a value column")
	}
	label := o.label
	if label == "" {
		label = o.value
	}

	q := h.Query("select", o.table).Distinct(true).Get(o.value)
	if label != o.value {
		q.Get(label)
	}
	if o.where != nil {
		o.where(q)
	}
	if o.order != "" {
		q.Order(o.order)
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
		lbl := fmt.Sprint(row[columnKey(label)])
		if o.render != nil {
			lbl = o.render(row)
		}
		out = append(out, Option{Value: row[columnKey(o.value)], Label: lbl})
	}
	if o.order == "" {
		sort.SliceStable(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	}
	return out, nil
}
