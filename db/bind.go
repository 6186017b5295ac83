package db

import (
	"database/sql"
	"strconv"
	"strings"
)

// BindHint marks a binding that needs special treatment by the driver.
type BindHint int

const (
	// HintNone is a plain input value.
	HintNone BindHint = iota
	// HintOut marks an output parameter; Value must be a pointer the
	// driver writes into after execution (Oracle RETURNING ... INTO).
	HintOut
)

// Binding pairs a placeholder name with the value bound to it at execution
// time. Names are unique within one statement after sanitization, and the
// slice order matches the order placeholders first appear in the SQL text.
type Binding struct {
	Name  string
	Value interface{}
	Hint  BindHint
}

var bindReplacer = strings.NewReplacer(
	".", "_1_",
	"-", "_2_",
	"/", "_3_",
	`\`, "_4_",
	" ", "_5_",
)

// SafeBindName converts a human readable parameter name, typically a dotted
// field path, into one legal for placeholder syntax. The mapping assigns a
// distinct token per forbidden character so two different field paths cannot
// collapse onto the same placeholder.
func SafeBindName(name string) string {
	name = strings.TrimPrefix(name, ":")
	return bindReplacer.Replace(name)
}

// appendBinding adds a binding, de-duplicating the sanitized name with a
// numeric suffix so a statement never carries two bindings with one name.
func (q *Query) appendBinding(name string, value interface{}, hint BindHint) string {
	safe := SafeBindName(name)
	if q.usedNames == nil {
		q.usedNames = make(map[string]bool)
	}
	for n := 2; q.usedNames[safe]; n++ {
		safe = SafeBindName(name) + "_" + strconv.Itoa(n)
	}
	q.usedNames[safe] = true
	q.bindings = append(q.bindings, Binding{Name: safe, Value: value, Hint: hint})
	return safe
}

// rewritePlaceholders converts the internal `:name` placeholder convention
// into whatever the dialect's driver expects and produces the matching
// argument list. Single quoted literals and `::type` casts are left alone.
func rewritePlaceholders(sqlText string, bindings []Binding, style BindStyle) (string, []interface{}, error) {
	byName := make(map[string]Binding, len(bindings))
	for _, b := range bindings {
		byName[b.Name] = b
	}

	var (
		out      strings.Builder
		args     []interface{}
		seen     = make(map[string]bool)
		inString bool
	)
	out.Grow(len(sqlText))

	for i := 0; i < len(sqlText); i++ {
		c := sqlText[i]
		switch {
		case c == '\'':
			inString = !inString
			out.WriteByte(c)
		case inString || c != ':':
			out.WriteByte(c)
		case i+1 < len(sqlText) && sqlText[i+1] == ':':
			// Postgres-style cast, not a placeholder.
			out.WriteString("::")
			i++
		default:
			j := i + 1
			for j < len(sqlText) && isBindChar(sqlText[j]) {
				j++
			}
			if j == i+1 {
				out.WriteByte(c)
				continue
			}
			name := sqlText[i+1 : j]
			b, ok := byName[name]
			if !ok {
				return "", nil, &BindError{Name: name}
			}
			switch style {
			case BindQuestion:
				out.WriteByte('?')
				args = append(args, bindValue(b))
			case BindDollar:
				args = append(args, bindValue(b))
				out.WriteString("$" + strconv.Itoa(len(args)))
			case BindAtNamed:
				out.WriteString("@" + name)
				if !seen[name] {
					args = append(args, sql.Named(name, bindValue(b)))
				}
			case BindColonNamed:
				out.WriteString(":" + name)
				if !seen[name] {
					args = append(args, sql.Named(name, bindValue(b)))
				}
			}
			seen[name] = true
			i = j - 1
		}
	}

	return out.String(), args, nil
}

func bindValue(b Binding) interface{} {
	if b.Hint == HintOut {
		return sql.Out{Dest: b.Value}
	}
	return b.Value
}

func isBindChar(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9'
}
