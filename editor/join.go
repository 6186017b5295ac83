package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/gridkit/editordb/db"
)

// batchThreshold is the parent row count above which join resolution stops
// restricting the child query to the visible keys and matches in memory
// instead.
const batchThreshold = 1000

// parentKeyAlias is the synthetic column each join query selects so child
// rows can be matched back to their parents.
const parentKeyAlias = "dt_parent_key"

// JoinField maps a child table column onto the name it is exposed under in
// resolved rows.
type JoinField struct {
	DB   string
	Name string
}

type joinLink struct {
	field1 string
	field2 string
}

// Join describes how rows of a child table relate to a parent row and
// resolves, creates, updates and removes them. A plain Join has `one`
// cardinality; NewMjoin builds the `many` variant.
type Join struct {
	table  string
	name   string
	many   bool
	fields []JoinField
	links  []joinLink
	order  string
	where  func(*db.Query)
	canGet bool
	canSet bool

	validator func(row map[string]interface{}) error
}

// NewJoin builds a one-cardinality join on the given child table. The
// exposed name defaults to the table name.
func NewJoin(table string) *Join {
	return &Join{table: table, name: table, canGet: true, canSet: true}
}

// NewMjoin builds a many-cardinality join on the given child table.
func NewMjoin(table string) *Join {
	j := NewJoin(table)
	j.many = true
	return j
}

// Name sets the property name resolved child data is exposed under.
func (j *Join) Name(name string) *Join {
	j.name = name
	return j
}

// Table returns the child table the join reads from.
func (j *Join) Table() string { return j.table }

// Field adds a child column to the join's field list. With one argument the
// exposed name is the column name.
func (j *Join) Field(dbColumn string, name ...string) *Join {
	exposed := dbColumn
	if len(name) > 0 {
		exposed = name[0]
	}
	j.fields = append(j.fields, JoinField{DB: dbColumn, Name: exposed})
	return j
}

// Link declares one key equality between two `table.column` references.
// Called once it describes a direct foreign key between parent and child;
// called twice the first call ties the parent to a link table and the
// second ties the link table to the child.
func (j *Join) Link(field1, field2 string) *Join {
	j.links = append(j.links, joinLink{field1: field1, field2: field2})
	return j
}

// Order sets the child query ordering.
func (j *Join) Order(order string) *Join {
	j.order = order
	return j
}

// Where adds conditions to every child query the join issues.
func (j *Join) Where(fn func(*db.Query)) *Join {
	j.where = fn
	return j
}

// Get controls whether the join resolves on read. Default true.
func (j *Join) Get(on bool) *Join {
	j.canGet = on
	return j
}

// Set controls whether the join applies on write. Default true.
func (j *Join) Set(on bool) *Join {
	j.canSet = on
	return j
}

// Validator installs a hook run once per submitted child row before any
// write.
func (j *Join) Validator(fn func(row map[string]interface{}) error) *Join {
	j.validator = fn
	return j
}

// Validate runs the validator hook over the child data submitted for one
// parent row.
func (j *Join) Validate(data map[string]interface{}) error {
	if j.validator == nil {
		return nil
	}
	for _, row := range j.submittedRows(data) {
		if err := j.validator(row); err != nil {
			return err
		}
	}
	return nil
}

func splitRef(ref string) (table, column string) {
	if idx := strings.LastIndex(ref, "."); idx != -1 {
		return ref[:idx], ref[idx+1:]
	}
	return "", ref
}

// refOn returns the column of the link side that sits on the given table,
// and the opposite reference, or false when neither side matches.
func (l joinLink) refOn(table string) (column, other string, ok bool) {
	if t, c := splitRef(l.field1); t == table {
		return c, l.field2, true
	}
	if t, c := splitRef(l.field2); t == table {
		return c, l.field1, true
	}
	return "", "", false
}

// resolvedLinks is the join's key topology after orienting the link calls
// against the parent table.
type resolvedLinks struct {
	parentCol    string // key column on the parent table
	childRefCol  string // column on child (direct) or link table referencing the parent key
	linkTable    string // empty for a direct join
	linkChildCol string // link table column referencing the child key
	childCol     string // key column on the child table (link joins only)
}

func (j *Join) resolveLinks(parentTable string) (resolvedLinks, error) {
	var r resolvedLinks
	switch len(j.links) {
	case 1:
		pc, other, ok := j.links[0].refOn(parentTable)
		if !ok {
			return r, fmt.Errorf("editor: join %q: no link side references parent table %q", j.name, parentTable)
		}
		_, r.childRefCol = splitRef(other)
		r.parentCol = pc
		return r, nil
	case 2:
		// One call ties parent to link table, the other link table to child.
		first, second := j.links[0], j.links[1]
		if _, _, ok := first.refOn(parentTable); !ok {
			first, second = second, first
		}
		pc, linkRef, ok := first.refOn(parentTable)
		if !ok {
			return r, fmt.Errorf("editor: join %q: no link side references parent table %q", j.name, parentTable)
		}
		r.parentCol = pc
		r.linkTable, r.childRefCol = splitRef(linkRef)

		cc, linkChildRef, ok := second.refOn(j.table)
		if !ok {
			return r, fmt.Errorf("editor: join %q: no link side references child table %q", j.name, j.table)
		}
		r.childCol = cc
		_, r.linkChildCol = splitRef(linkChildRef)
		return r, nil
	default:
		return r, fmt.Errorf("editor: join %q: expected one or two Link calls, got %d", j.name, len(j.links))
	}
}

// Data resolves the join for a page of already-fetched parent rows, fanning
// child data onto each row under the join's name. One query is issued per
// call regardless of the parent row count.
func (j *Join) Data(ctx context.Context, h *db.Database, parentTable string, rows []db.Row) error {
	if !j.canGet {
		return nil
	}
	links, err := j.resolveLinks(parentTable)
	if err != nil {
		return err
	}

	keys := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		if v, ok := row[links.parentCol]; ok && v != nil {
			keys = append(keys, v)
		}
	}

	q := j.buildDataQuery(h, links)
	if len(rows) > 0 && len(rows) <= batchThreshold {
		if links.linkTable != "" {
			q.WhereIn(links.linkTable+"."+links.childRefCol, keys)
		} else {
			q.WhereIn(j.table+"."+links.childRefCol, keys)
		}
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return err
	}
	children, err := res.FetchAll()
	if err != nil {
		return err
	}

	byParent := make(map[string][]db.Row)
	for _, child := range children {
		key := fmt.Sprint(child[parentKeyAlias])
		delete(child, parentKeyAlias)
		byParent[key] = append(byParent[key], child)
	}

	for _, row := range rows {
		key := fmt.Sprint(row[links.parentCol])
		matched := byParent[key]
		if j.many {
			if matched == nil {
				matched = []db.Row{}
			}
			row[j.name] = matched
		} else {
			if len(matched) == 0 {
				row[j.name] = db.Row{}
			} else {
				// Last wins on duplicates.
				row[j.name] = matched[len(matched)-1]
			}
		}
	}
	return nil
}

func (j *Join) buildDataQuery(h *db.Database, links resolvedLinks) *db.Query {
	var q *db.Query
	if links.linkTable != "" {
		q = h.Query("select", links.linkTable).
			Get(links.linkTable + "." + links.childRefCol + " as " + parentKeyAlias).
			LeftJoin(j.table, links.linkTable+"."+links.linkChildCol, "=", j.table+"."+links.childCol)
	} else {
		q = h.Query("select", j.table).
			Get(j.table + "." + links.childRefCol + " as " + parentKeyAlias)
	}
	for _, f := range j.fields {
		col := f.DB
		if !strings.Contains(col, ".") && !strings.Contains(col, "(") {
			col = j.table + "." + col
		}
		if f.Name != f.DB {
			q.Get(col + " as " + f.Name)
		} else {
			q.Get(col)
		}
	}
	if j.where != nil {
		j.where(q)
	}
	if j.order != "" {
		q.Order(j.order)
	}
	return q
}

// submittedRows normalises the submitted child payload to a list of maps:
// a many join submits a list, a one join submits a single map.
func (j *Join) submittedRows(data map[string]interface{}) []map[string]interface{} {
	v, ok := ReadProp(j.name, data)
	if !ok || v == nil {
		return nil
	}
	if j.many {
		list, ok := v.([]interface{})
		if !ok {
			return nil
		}
		rows := make([]map[string]interface{}, 0, len(list))
		for _, item := range list {
			if m, ok := item.(map[string]interface{}); ok {
				rows = append(rows, m)
			}
		}
		return rows
	}
	if m, ok := v.(map[string]interface{}); ok {
		return []map[string]interface{}{m}
	}
	return nil
}

// Create writes the submitted child data for a freshly inserted parent row.
// The parent must already exist so its key can be referenced.
func (j *Join) Create(ctx context.Context, h *db.Database, parentTable string, parentKey interface{}, data map[string]interface{}) error {
	if !j.canSet {
		return nil
	}
	links, err := j.resolveLinks(parentTable)
	if err != nil {
		return err
	}
	return j.insertChildren(ctx, h, links, parentKey, data)
}

// Update rewrites the submitted child data for an existing parent row. A
// one join updates the child row in place; a many join drops every current
// child or link row and reinserts the submitted set, so anything absent
// from the submission is lost.
func (j *Join) Update(ctx context.Context, h *db.Database, parentTable string, parentKey interface{}, data map[string]interface{}) error {
	if !j.canSet {
		return nil
	}
	if !PropExists(j.name, data) {
		return nil
	}
	links, err := j.resolveLinks(parentTable)
	if err != nil {
		return err
	}

	if !j.many {
		rows := j.submittedRows(data)
		if len(rows) == 0 {
			return nil
		}
		values := j.rowValues(rows[0])
		if len(values) == 0 {
			return nil
		}
		exists, err := h.Any(ctx, j.table, map[string]interface{}{links.childRefCol: parentKey})
		if err != nil {
			return err
		}
		if exists {
			_, err = h.Update(ctx, j.table, values, map[string]interface{}{links.childRefCol: parentKey})
			return err
		}
		values[links.childRefCol] = parentKey
		_, err = h.Insert(ctx, j.table, values)
		return err
	}

	if err := j.deleteChildren(ctx, h, links, []interface{}{parentKey}); err != nil {
		return err
	}
	return j.insertChildren(ctx, h, links, parentKey, data)
}

// Remove deletes child or link rows for the given parent keys. Call before
// deleting the parent rows themselves.
func (j *Join) Remove(ctx context.Context, h *db.Database, parentTable string, parentKeys []interface{}) error {
	if !j.canSet {
		return nil
	}
	links, err := j.resolveLinks(parentTable)
	if err != nil {
		return err
	}
	return j.deleteChildren(ctx, h, links, parentKeys)
}

func (j *Join) insertChildren(ctx context.Context, h *db.Database, links resolvedLinks, parentKey interface{}, data map[string]interface{}) error {
	rows := j.submittedRows(data)
	for _, row := range rows {
		if links.linkTable != "" {
			childKey, ok := j.childKeyValue(row, links.childCol)
			if !ok {
				return fmt.Errorf("editor: join %q: submitted row is missing child key %q", j.name, links.childCol)
			}
			_, err := h.Insert(ctx, links.linkTable, map[string]interface{}{
				links.childRefCol:  parentKey,
				links.linkChildCol: childKey,
			})
			if err != nil {
				return err
			}
			continue
		}
		values := j.rowValues(row)
		values[links.childRefCol] = parentKey
		if _, err := h.Insert(ctx, j.table, values); err != nil {
			return err
		}
	}
	return nil
}

func (j *Join) deleteChildren(ctx context.Context, h *db.Database, links resolvedLinks, parentKeys []interface{}) error {
	table := j.table
	if links.linkTable != "" {
		table = links.linkTable
	}
	_, err := h.Query("delete", table).
		WhereIn(links.childRefCol, parentKeys).
		Exec(ctx)
	return err
}

// childKeyValue pulls the child key out of a submitted row, accepting both
// the column name and any exposed field name mapped onto it.
func (j *Join) childKeyValue(row map[string]interface{}, childCol string) (interface{}, bool) {
	if v, ok := row[childCol]; ok {
		return v, true
	}
	for _, f := range j.fields {
		if f.DB == childCol {
			if v, ok := row[f.Name]; ok {
				return v, true
			}
		}
	}
	return nil, false
}

// rowValues maps a submitted row's exposed names back onto database columns
// for the join's declared fields.
func (j *Join) rowValues(row map[string]interface{}) map[string]interface{} {
	values := make(map[string]interface{})
	for _, f := range j.fields {
		if v, ok := row[f.Name]; ok {
			values[f.DB] = v
		}
	}
	return values
}
