package db

import (
	"fmt"
	"sort"
	"strings"
)

// whereEntry is one node of the flattened condition tree: either a rendered
// condition or a group open/close marker.
type whereEntry struct {
	op       string // AND or OR, relative to the preceding entry
	field    string // quoted identifier; empty for markers and raw fragments
	fragment string // rendered condition, or "(" / ")"
	group    byte   // 0 for conditions, '(' or ')' for markers
}

// addCondition renders one comparison and appends it to the tree. A nil
// value renders IS NULL / IS NOT NULL (by operator polarity) without
// creating a binding; an empty string is a value like any other. With bind
// disabled the value is treated as an identifier for column-to-column
// comparisons.
func (q *Query) addCondition(field string, value interface{}, op, joinOp string, bind bool) {
	quoted := quoteIdentifier(q.dialect, field)

	var fragment string
	switch {
	case value == nil:
		if op == "=" {
			fragment = quoted + " IS NULL"
		} else {
			fragment = quoted + " IS NOT NULL"
		}
	case bind:
		q.whereCount++
		name := q.appendBinding(fmt.Sprintf("where_%d", q.whereCount), value, HintNone)
		if strings.EqualFold(op, "like") {
			fragment = q.dialect.TextSearch(quoted, ":"+name)
		} else {
			fragment = quoted + " " + op + " :" + name
		}
	default:
		fragment = quoted + " " + op + " " + quoteIdentifier(q.dialect, fmt.Sprint(value))
	}

	q.where = append(q.where, whereEntry{op: joinOp, field: quoted, fragment: fragment})
}

// addInCondition renders `field IN (...)` with one binding per value. An
// empty value list is a no-op.
func (q *Query) addInCondition(field string, values []interface{}, joinOp string) {
	if len(values) == 0 {
		return
	}
	quoted := quoteIdentifier(q.dialect, field)
	placeholders := make([]string, len(values))
	for i, v := range values {
		q.whereCount++
		name := q.appendBinding(fmt.Sprintf("where_%d", q.whereCount), v, HintNone)
		placeholders[i] = ":" + name
	}
	q.where = append(q.where, whereEntry{
		op:       joinOp,
		field:    quoted,
		fragment: quoted + " IN (" + strings.Join(placeholders, ", ") + ")",
	})
}

// addGroupMarker pushes a parenthesis marker onto the tree.
func (q *Query) addGroupMarker(open bool, joinOp string) {
	marker := byte(')')
	if open {
		marker = '('
	}
	q.where = append(q.where, whereEntry{op: joinOp, fragment: string(marker), group: marker})
}

// buildWhere renders the accumulated condition tree. The first entry never
// emits its join operator, nor does an entry directly following a group
// open; an empty group renders the tautology 1=1 to stay valid SQL.
func (q *Query) buildWhere() string {
	if len(q.where) == 0 {
		return ""
	}

	var out strings.Builder
	out.WriteString("WHERE ")

	suppressOp := true
	lastWasOpen := false
	for _, e := range q.where {
		switch e.group {
		case '(':
			if !suppressOp {
				out.WriteString(" " + e.op + " ")
			}
			out.WriteByte('(')
			suppressOp = true
			lastWasOpen = true
		case ')':
			if lastWasOpen {
				out.WriteString("1=1")
			}
			out.WriteByte(')')
			suppressOp = false
			lastWasOpen = false
		default:
			if !suppressOp {
				out.WriteString(" " + e.op + " ")
			}
			out.WriteString(e.fragment)
			suppressOp = false
			lastWasOpen = false
		}
	}

	return out.String()
}

// whereAny implements the polymorphic where shapes: a plain value, a list of
// values (one condition per value, all joined with joinOp into the list as
// repeated calls) or nil.
func (q *Query) whereAny(field string, value interface{}, op, joinOp string, bind bool) {
	if values, ok := toSlice(value); ok {
		for _, v := range values {
			q.addCondition(field, v, op, joinOp, bind)
		}
		return
	}
	q.addCondition(field, value, op, joinOp, bind)
}

// whereMap adds one ANDed (or ORed) condition per key. Keys are walked in
// sorted order so a statement renders deterministically.
func (q *Query) whereMap(m map[string]interface{}, op, joinOp string, bind bool) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		q.whereAny(k, m[k], op, joinOp, bind)
	}
}

func toSlice(value interface{}) ([]interface{}, bool) {
	switch v := value.(type) {
	case []interface{}:
		return v, true
	case []string:
		out := make([]interface{}, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out, true
	case []int:
		out := make([]interface{}, len(v))
		for i, n := range v {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}
