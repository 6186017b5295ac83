package db

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Query kinds accepted by Exec.
const (
	kindSelect = "select"
	kindInsert = "insert"
	kindUpdate = "update"
	kindDelete = "delete"
	kindCount  = "count"
	kindRaw    = "raw"
)

type setPair struct {
	field string
	value interface{}
	bind  bool
}

// Query accumulates the parts of a single SQL statement and renders them for
// the dialect it was created with. A query runs at most once; Exec on a
// spent query returns ErrSpentQuery.
type Query struct {
	db      *Database
	dialect Dialect
	kind    string

	tables   []string
	fields   []string
	joins    []string
	where    []whereEntry
	order    []string
	groupBy  []string
	set      []setPair
	pkeys    []string
	distinct bool
	limit    *int
	offset   *int
	rawSQL   string

	bindings   []Binding
	usedNames  map[string]bool
	whereCount int

	executed bool
	err      error
}

func newQuery(db *Database, kind string, table ...string) *Query {
	q := &Query{
		db:        db,
		dialect:   db.dialect,
		kind:      kind,
		usedNames: make(map[string]bool),
	}
	q.Table(table...)
	return q
}

// Table adds one or more tables to the statement. Comma separated lists are
// split so `Table("a, b")` and `Table("a", "b")` are equivalent.
func (q *Query) Table(tables ...string) *Query {
	for _, t := range tables {
		for _, part := range strings.Split(t, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				q.tables = append(q.tables, part)
			}
		}
	}
	return q
}

// Get adds result columns to a select. A comma separated list is split
// unless it contains a parenthesis, so function expressions keep their
// argument commas; `*` and expressions pass through unquoted.
func (q *Query) Get(fields ...string) *Query {
	for _, f := range fields {
		parts := []string{f}
		if !strings.Contains(f, "(") {
			parts = strings.Split(f, ",")
		}
		for _, part := range parts {
			part = strings.TrimSpace(part)
			if part != "" {
				q.fields = append(q.fields, part)
			}
		}
	}
	return q
}

// Distinct toggles SELECT DISTINCT.
func (q *Query) Distinct(on bool) *Query {
	q.distinct = on
	return q
}

// Set assigns a value to a column for insert and update statements.
func (q *Query) Set(field string, value interface{}) *Query {
	q.set = append(q.set, setPair{field: field, value: value, bind: true})
	return q
}

// SetUnbound assigns a raw SQL expression to a column. The expression is
// spliced into the statement verbatim, so it must not carry user input.
func (q *Query) SetUnbound(field, expr string) *Query {
	q.set = append(q.set, setPair{field: field, value: expr, bind: false})
	return q
}

// SetMap assigns every key of values. Keys are applied in sorted order so
// the rendered statement is deterministic.
func (q *Query) SetMap(values map[string]interface{}) *Query {
	for _, k := range sortedKeys(values) {
		q.Set(k, values[k])
	}
	return q
}

// joinTypes are the join qualifiers Join accepts; anything else degrades
// to a plain JOIN.
var joinTypes = map[string]bool{
	"LEFT":        true,
	"RIGHT":       true,
	"INNER":       true,
	"OUTER":       true,
	"LEFT OUTER":  true,
	"RIGHT OUTER": true,
}

var joinCondRe = regexp.MustCompile(`^\s*([\w.]+)\s*(<=|>=|<>|!=|=|<|>)\s*([\w.]+)\s*$`)

// Join appends a join clause. A simple `field op field` condition has both
// identifiers quoted; anything more complex passes through raw, with the
// dialect's field quote marker replaced by real identifier quotes.
func (q *Query) Join(table, condition string, joinType ...string) *Query {
	jt := "JOIN"
	if len(joinType) > 0 {
		if t := strings.ToUpper(strings.TrimSpace(joinType[0])); joinTypes[t] {
			jt = t + " JOIN"
		}
	}
	quoted := quoteIdentifier(q.dialect, table)
	q.joins = append(q.joins, jt+" "+quoted+" ON "+q.joinCondition(condition))
	return q
}

func (q *Query) joinCondition(condition string) string {
	if m := joinCondRe.FindStringSubmatch(condition); m != nil {
		return quoteIdentifier(q.dialect, m[1]) + " " + m[2] + " " + quoteIdentifier(q.dialect, m[3])
	}
	return q.resolveFieldQuotes(condition)
}

// LeftJoin appends a left outer join clause.
func (q *Query) LeftJoin(table, field1, op, field2 string) *Query {
	cond := quoteIdentifier(q.dialect, field1) + " " + op + " " + quoteIdentifier(q.dialect, field2)
	q.joins = append(q.joins, "LEFT JOIN "+quoteIdentifier(q.dialect, table)+" ON "+cond)
	return q
}

// resolveFieldQuotes replaces the dialect's field quote marker in raw join
// conditions with real identifier quotes.
func (q *Query) resolveFieldQuotes(condition string) string {
	marker := q.dialect.FieldQuote()
	if marker == "" || !strings.Contains(condition, marker) {
		return condition
	}
	left, right := q.dialect.Quotes()
	parts := strings.Split(condition, marker)
	for i := 1; i < len(parts); i += 2 {
		parts[i] = left + strings.ReplaceAll(parts[i], ".", right+"."+left) + right
	}
	return strings.Join(parts, "")
}

// Where adds an AND equality condition. A slice value expands into one
// condition per element.
func (q *Query) Where(field string, value interface{}) *Query {
	q.whereAny(field, value, "=", "AND", true)
	return q
}

// WhereOp adds an AND condition with an explicit operator.
func (q *Query) WhereOp(field, op string, value interface{}) *Query {
	q.whereAny(field, value, op, "AND", true)
	return q
}

// OrWhere adds an OR equality condition. A slice value expands into a
// sequence of OR joined conditions.
func (q *Query) OrWhere(field string, value interface{}) *Query {
	q.whereAny(field, value, "=", "OR", true)
	return q
}

// OrWhereOp adds an OR condition with an explicit operator.
func (q *Query) OrWhereOp(field, op string, value interface{}) *Query {
	q.whereAny(field, value, op, "OR", true)
	return q
}

// WhereMap adds an AND condition per key, in sorted key order.
func (q *Query) WhereMap(conditions map[string]interface{}) *Query {
	q.whereMap(conditions, "=", "AND", true)
	return q
}

// WhereUnbound compares a column against a raw identifier or expression
// instead of a bound value.
func (q *Query) WhereUnbound(field, op, expr string) *Query {
	q.addCondition(field, expr, op, "AND", false)
	return q
}

// WhereIn adds `field IN (...)` with one binding per value.
func (q *Query) WhereIn(field string, values []interface{}) *Query {
	q.addInCondition(field, values, "AND")
	return q
}

// OrWhereIn adds `field IN (...)` ORed to what came before.
func (q *Query) OrWhereIn(field string, values []interface{}) *Query {
	q.addInCondition(field, values, "OR")
	return q
}

// WhereGroup wraps the conditions added by fn in parentheses, ANDed to what
// came before.
func (q *Query) WhereGroup(fn func(*Query)) *Query {
	return q.group("AND", fn)
}

// OrWhereGroup wraps the conditions added by fn in parentheses, ORed to
// what came before.
func (q *Query) OrWhereGroup(fn func(*Query)) *Query {
	return q.group("OR", fn)
}

func (q *Query) group(joinOp string, fn func(*Query)) *Query {
	q.addGroupMarker(true, joinOp)
	fn(q)
	q.addGroupMarker(false, joinOp)
	return q
}

// GroupStart opens an explicit parenthesis group. Pair with GroupEnd.
func (q *Query) GroupStart(joinOp ...string) *Query {
	op := "AND"
	if len(joinOp) > 0 && joinOp[0] != "" {
		op = strings.ToUpper(joinOp[0])
	}
	q.addGroupMarker(true, op)
	return q
}

// GroupEnd closes the group opened by GroupStart.
func (q *Query) GroupEnd() *Query {
	q.addGroupMarker(false, "AND")
	return q
}

// Order adds ORDER BY terms. A comma separated list is split outside of
// parentheses; a trailing bare `asc` or `desc` word is kept unquoted.
func (q *Query) Order(terms ...string) *Query {
	for _, t := range terms {
		for _, part := range splitOutsideParens(t) {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			q.order = append(q.order, q.orderTerm(part))
		}
	}
	return q
}

func (q *Query) orderTerm(term string) string {
	direction := ""
	if idx := strings.LastIndex(term, " "); idx != -1 {
		word := strings.ToLower(strings.TrimSpace(term[idx+1:]))
		if word == "asc" || word == "desc" {
			direction = " " + strings.ToUpper(word)
			term = strings.TrimSpace(term[:idx])
		}
	}
	return quoteIdentifier(q.dialect, term) + direction
}

// splitOutsideParens splits on commas that are not inside parentheses, so
// function expressions survive as single terms.
func splitOutsideParens(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, s[start:])
	return parts
}

// GroupBy adds GROUP BY columns.
func (q *Query) GroupBy(fields ...string) *Query {
	for _, f := range fields {
		q.groupBy = append(q.groupBy, quoteIdentifier(q.dialect, f))
	}
	return q
}

// Limit caps the number of rows a select returns.
func (q *Query) Limit(n int) *Query {
	q.limit = &n
	return q
}

// Offset skips the first n rows of a select.
func (q *Query) Offset(n int) *Query {
	q.offset = &n
	return q
}

// Pkey names the primary key columns an insert should report back.
func (q *Query) Pkey(pkey ...string) *Query {
	q.pkeys = pkey
	return q
}

// Bind adds a named binding for a raw statement. The name may include the
// leading colon.
func (q *Query) Bind(name string, value interface{}) *Query {
	name = strings.TrimPrefix(name, ":")
	q.bindings = append(q.bindings, Binding{Name: SafeBindName(name), Value: value})
	return q
}

// Exec renders the statement, rewrites its placeholders for the dialect and
// runs it on the connection or the open transaction.
func (q *Query) Exec(ctx context.Context) (*Result, error) {
	if q.err != nil {
		return nil, q.err
	}
	if q.executed {
		return nil, ErrSpentQuery
	}
	q.executed = true

	switch q.kind {
	case kindSelect, kindCount:
		return q.runQuery(ctx, q.buildSelect())
	case kindInsert:
		return q.runInsert(ctx)
	case kindUpdate:
		return q.runExec(ctx, q.buildUpdate())
	case kindDelete:
		return q.runExec(ctx, q.buildDelete())
	case kindRaw:
		return q.runRaw(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCommand, q.kind)
	}
}

func (q *Query) buildSelect() string {
	var b strings.Builder
	b.WriteString("SELECT ")
	if q.distinct {
		b.WriteString("DISTINCT ")
	}

	if q.kind == kindCount {
		col := "*"
		if len(q.fields) > 0 {
			col = quoteIdentifier(q.dialect, q.fields[0])
		}
		b.WriteString("COUNT(" + col + ") AS " + q.quotePlain("cnt"))
	} else {
		fields := make([]string, len(q.fields))
		for i, f := range q.fields {
			fields[i] = quoteIdentifier(q.dialect, f)
		}
		if len(fields) == 0 {
			fields = []string{"*"}
		}
		b.WriteString(strings.Join(fields, ", "))
	}

	b.WriteString(" FROM " + q.quotedTables())
	for _, j := range q.joins {
		b.WriteString(" " + j)
	}
	if w := q.buildWhere(); w != "" {
		b.WriteString(" " + w)
	}
	if len(q.groupBy) > 0 {
		b.WriteString(" GROUP BY " + strings.Join(q.groupBy, ", "))
	}
	if len(q.order) > 0 && q.kind != kindCount {
		b.WriteString(" ORDER BY " + strings.Join(q.order, ", "))
	}

	sqlText := b.String()
	if q.kind == kindCount {
		return sqlText
	}
	if wrapper, ok := q.dialect.(WrappingLimiter); ok {
		return wrapper.WrapLimit(sqlText, q.limit, q.offset)
	}
	if clause := q.dialect.LimitOffset(q.limit, q.offset); clause != "" {
		sqlText += " " + clause
	}
	return sqlText
}

func (q *Query) buildInsert() string {
	columns := make([]string, len(q.set))
	values := make([]string, len(q.set))
	for i, s := range q.set {
		columns[i] = quoteIdentifier(q.dialect, s.field)
		if s.bind {
			name := q.appendBinding(SafeBindName(s.field), s.value, HintNone)
			values[i] = ":" + name
		} else {
			values[i] = fmt.Sprint(s.value)
		}
	}
	return fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		q.quotedTables(),
		strings.Join(columns, ", "),
		strings.Join(values, ", "),
	)
}

func (q *Query) buildUpdate() string {
	assignments := make([]string, len(q.set))
	for i, s := range q.set {
		col := quoteIdentifier(q.dialect, s.field)
		if s.bind {
			name := q.appendBinding(SafeBindName(s.field), s.value, HintNone)
			assignments[i] = col + " = :" + name
		} else {
			assignments[i] = col + " = " + fmt.Sprint(s.value)
		}
	}
	sqlText := "UPDATE " + q.quotedTables() + " SET " + strings.Join(assignments, ", ")
	if w := q.buildWhere(); w != "" {
		sqlText += " " + w
	}
	return sqlText
}

func (q *Query) buildDelete() string {
	sqlText := "DELETE FROM " + q.quotedTables()
	if w := q.buildWhere(); w != "" {
		sqlText += " " + w
	}
	return sqlText
}

func (q *Query) quotedTables() string {
	tables := make([]string, len(q.tables))
	for i, t := range q.tables {
		tables[i] = quoteIdentifier(q.dialect, t)
	}
	return strings.Join(tables, ", ")
}

func (q *Query) quotePlain(name string) string {
	left, right := q.dialect.Quotes()
	return left + name + right
}

func (q *Query) runQuery(ctx context.Context, sqlText string) (*Result, error) {
	stmt, args, err := rewritePlaceholders(sqlText, q.bindings, q.dialect.BindStyle())
	if err != nil {
		return nil, err
	}
	q.db.debugEvent(stmt, q.bindings)
	rows, err := q.db.conn().QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, &StatementError{SQL: stmt, Cause: err}
	}
	return newResult(rows), nil
}

func (q *Query) runExec(ctx context.Context, sqlText string) (*Result, error) {
	stmt, args, err := rewritePlaceholders(sqlText, q.bindings, q.dialect.BindStyle())
	if err != nil {
		return nil, err
	}
	q.db.debugEvent(stmt, q.bindings)
	if _, err := q.db.conn().ExecContext(ctx, stmt, args...); err != nil {
		return nil, &StatementError{SQL: stmt, Cause: err}
	}
	return &Result{}, nil
}

func (q *Query) runRaw(ctx context.Context) (*Result, error) {
	stmt, args, err := rewritePlaceholders(q.rawSQL, q.bindings, q.dialect.BindStyle())
	if err != nil {
		return nil, err
	}
	q.db.debugEvent(stmt, q.bindings)
	head := strings.ToUpper(firstWord(stmt))
	if head == "SELECT" || head == "WITH" {
		rows, err := q.db.conn().QueryContext(ctx, stmt, args...)
		if err != nil {
			return nil, &StatementError{SQL: stmt, Cause: err}
		}
		return newResult(rows), nil
	}
	if _, err := q.db.conn().ExecContext(ctx, stmt, args...); err != nil {
		return nil, &StatementError{SQL: stmt, Cause: err}
	}
	return &Result{}, nil
}

// runInsert executes the insert and then recovers the generated key the way
// the dialect supports: an OUT bind, a RETURNING suffix that yields a row,
// or a post-statement identity lookup.
func (q *Query) runInsert(ctx context.Context) (*Result, error) {
	sqlText := q.buildInsert()
	pkey := q.pkeys
	if len(pkey) == 0 {
		pkey = []string{"id"}
	}

	if out, ok := q.dialect.(OutBinder); ok {
		suffix, name := out.OutBinding(pkey[0])
		var id int64
		q.bindings = append(q.bindings, Binding{Name: name, Value: &id, Hint: HintOut})
		res, err := q.runExec(ctx, sqlText+" "+suffix)
		if err != nil {
			return nil, err
		}
		res.insertID = id
		return res, nil
	}

	if wrapper, ok := q.dialect.(KeyedInserter); ok {
		return q.keyFromQuery(ctx, wrapper.WrapInsertKey(sqlText, pkey))
	}

	if suffix := q.dialect.InsertSuffix(q.quotedTables(), pkey); suffix != "" {
		return q.keyFromQuery(ctx, sqlText+" "+suffix)
	}

	stmt, args, err := rewritePlaceholders(sqlText, q.bindings, q.dialect.BindStyle())
	if err != nil {
		return nil, err
	}
	q.db.debugEvent(stmt, q.bindings)
	sqlRes, err := q.db.conn().ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, &StatementError{SQL: stmt, Cause: err}
	}
	id, err := q.dialect.InsertID(ctx, q.db.conn(), sqlRes)
	if err != nil {
		return nil, err
	}
	return &Result{insertID: id}, nil
}

// keyFromQuery runs an insert whose statement yields the generated key as a
// single result row, folds the key into the result and releases the cursor.
func (q *Query) keyFromQuery(ctx context.Context, sqlText string) (*Result, error) {
	res, err := q.runQuery(ctx, sqlText)
	if err != nil {
		return nil, err
	}
	row, err := res.Fetch()
	if err != nil {
		return nil, err
	}
	if row != nil {
		for _, v := range row {
			res.insertID = v
			break
		}
	}
	res.Close()
	return res, nil
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if idx := strings.IndexByte(s, ' '); idx != -1 {
		return s[:idx]
	}
	return s
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
