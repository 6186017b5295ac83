package editor

import (
	"context"
	"fmt"

	"github.com/gridkit/editordb/db"
)

// PaneOption is one SearchPanes bucket: a distinct value with how many rows
// carry it under the current filter (Count) and without any filter (Total).
type PaneOption struct {
	Value interface{} `json:"value"`
	Label string      `json:"label"`
	Count int         `json:"count"`
	Total int         `json:"total"`
}

// SearchPaneOptions builds the bucket list for one SearchPanes column.
type SearchPaneOptions struct {
	table  string
	value  string
	label  string
	render func(db.Row) string
	where  func(*db.Query)
	order  string
	fn     func(ctx context.Context, h *db.Database) ([]PaneOption, error)
}

// NewSearchPaneOptions builds an empty descriptor.
func NewSearchPaneOptions() *SearchPaneOptions {
	return &SearchPaneOptions{}
}

// Table sets the table buckets are read from.
func (o *SearchPaneOptions) Table(table string) *SearchPaneOptions {
	o.table = table
	return o
}

// Value sets the bucket value column.
func (o *SearchPaneOptions) Value(column string) *SearchPaneOptions {
	o.value = column
	return o
}

// Label sets the bucket label column. Defaults to the value column.
func (o *SearchPaneOptions) Label(column string) *SearchPaneOptions {
	o.label = column
	return o
}

// Render installs a custom label renderer.
func (o *SearchPaneOptions) Render(fn func(db.Row) string) *SearchPaneOptions {
	o.render = fn
	return o
}

// Where adds conditions applied to the filtered count only; the totals stay
// unfiltered so a pane can show "n of m".
func (o *SearchPaneOptions) Where(fn func(*db.Query)) *SearchPaneOptions {
	o.where = fn
	return o
}

// Order sets explicit ordering of the buckets.
func (o *SearchPaneOptions) Order(order string) *SearchPaneOptions {
	o.order = order
	return o
}

// Fn bypasses the query builder entirely.
func (o *SearchPaneOptions) Fn(fn func(ctx context.Context, h *db.Database) ([]PaneOption, error)) *SearchPaneOptions {
	o.fn = fn
	return o
}

// Exec produces the bucket list with its two count columns. Two grouped
// queries are issued: one unfiltered for totals, one filtered for counts.
func (o *SearchPaneOptions) Exec(ctx context.Context, h *db.Database) ([]PaneOption, error) {
	if o.fn != nil {
		return o.fn(ctx, h)
	}
	if o.table == "" || o.value == "" {
		return nil, fmt.Errorf("editor: search pane options need a table and a value column")
	}
	label := o.label
	if label == "" {
		label = o.value
	}

	totals, err := o.groupedCounts(ctx, h, label, nil)
	if err != nil {
		return nil, err
	}
	counts := totals
	if o.where != nil {
		counts, err = o.groupedCounts(ctx, h, label, o.where)
		if err != nil {
			return nil, err
		}
	}

	filtered := make(map[string]int, len(counts))
	for _, row := range counts {
		filtered[fmt.Sprint(row[columnKey(o.value)])] = rowCount(row)
	}

	out := make([]PaneOption, 0, len(totals))
	for _, row := range totals {
		value := row[columnKey(o.value)]
		out = append(out, PaneOption{
			Value: value,
			Label: o.renderLabel(row, label),
			Count: filtered[fmt.Sprint(value)],
			Total: rowCount(row),
		})
	}
	return out, nil
}

func (o *SearchPaneOptions) groupedCounts(ctx context.Context, h *db.Database, label string, where func(*db.Query)) ([]db.Row, error) {
	q := h.Query("select", o.table).
		Get(o.value).
		Get("COUNT(*) as dt_count").
		GroupBy(o.value)
	if label != o.value {
		q.Get(label).GroupBy(label)
	}
	if where != nil {
		where(q)
	}
	if o.order != "" {
		q.Order(o.order)
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.FetchAll()
}

func (o *SearchPaneOptions) renderLabel(row db.Row, label string) string {
	if o.render != nil {
		return o.render(row)
	}
	return fmt.Sprint(row[columnKey(label)])
}

func rowCount(row db.Row) int {
	switch v := row["dt_count"].(type) {
	case int64:
		return int(v)
	case int:
		return v
	case string:
		var n int
		fmt.Sscanf(v, "%d", &n)
		return n
	default:
		return 0
	}
}
