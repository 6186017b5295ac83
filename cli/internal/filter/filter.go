// Package filter parses the --where expression language into query builder
// calls.
//
// Grammar, loosely:
//
//	expr      = and { "or" and }
//	and       = condition { "and" condition }
//	condition = "(" expr ")" | field op value | field "in" "(" value { "," value } ")"
//	op        = "=" | "!=" | "<" | "<=" | ">" | ">=" | "like"
//	value     = string | number | "null"
package filter

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/gridkit/editordb/db"
)

// filterLexer defines the token types for the where expression language.
var filterLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "And", Pattern: `(?i)\band\b`},
	{Name: "Or", Pattern: `(?i)\bor\b`},
	{Name: "Like", Pattern: `(?i)\blike\b`},
	{Name: "In", Pattern: `(?i)\bin\b`},
	{Name: "Null", Pattern: `(?i)\bnull\b`},
	{Name: "Operator", Pattern: `!=|<=|>=|=|<|>`},
	{Name: "LParen", Pattern: `\(`},
	{Name: "RParen", Pattern: `\)`},
	{Name: "Comma", Pattern: `,`},
	{Name: "String", Pattern: `'(?:\\.|[^'\\])*'|"(?:\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(?:\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// Expression is a disjunction of AND groups.
type Expression struct {
	First *AndGroup   `parser:"@@"`
	Rest  []*AndGroup `parser:"( Or @@ )*"`
}

// AndGroup is a conjunction of conditions.
type AndGroup struct {
	First *Condition   `parser:"@@"`
	Rest  []*Condition `parser:"( And @@ )*"`
}

// Condition is either a parenthesised sub-expression or one comparison.
type Condition struct {
	Sub *Expression `parser:"  LParen @@ RParen"`
	Cmp *Comparison `parser:"| @@"`
}

// Comparison is `field op value` or `field in (values)`.
type Comparison struct {
	Field string   `parser:"@Ident"`
	In    []*Value `parser:"( In LParen @@ ( Comma @@ )* RParen"`
	Op    string   `parser:"| @( Operator | Like )"`
	Value *Value   `parser:"  @@ )"`
}

// Value is a literal operand.
type Value struct {
	Str  *string  `parser:"  @String"`
	Num  *float64 `parser:"| @Number"`
	Null bool     `parser:"| @Null"`
}

func (v *Value) native() interface{} {
	switch {
	case v == nil || v.Null:
		return nil
	case v.Str != nil:
		return *v.Str
	case v.Num != nil:
		return *v.Num
	default:
		return nil
	}
}

var parser = participle.MustBuild[Expression](
	participle.Lexer(filterLexer),
	participle.Elide("Whitespace"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// Parse parses a where expression.
func Parse(input string) (*Expression, error) {
	expr, err := parser.ParseString("", input)
	if err != nil {
		return nil, fmt.Errorf("parsing where expression: %w", err)
	}
	return expr, nil
}

// Apply parses the expression and translates it into condition calls on the
// query.
func Apply(q *db.Query, input string) error {
	expr, err := Parse(input)
	if err != nil {
		return err
	}
	applyExpression(q, expr)
	return nil
}

func applyExpression(q *db.Query, e *Expression) {
	applyAnd(q, e.First, "AND")
	for _, g := range e.Rest {
		applyAnd(q, g, "OR")
	}
}

func applyAnd(q *db.Query, g *AndGroup, joinOp string) {
	q.GroupStart(joinOp)
	applyCondition(q, g.First)
	for _, c := range g.Rest {
		applyCondition(q, c)
	}
	q.GroupEnd()
}

func applyCondition(q *db.Query, c *Condition) {
	if c.Sub != nil {
		q.GroupStart("AND")
		applyExpression(q, c.Sub)
		q.GroupEnd()
		return
	}
	cmp := c.Cmp
	if len(cmp.In) > 0 {
		values := make([]interface{}, len(cmp.In))
		for i, v := range cmp.In {
			values[i] = v.native()
		}
		q.WhereIn(cmp.Field, values)
		return
	}
	op := cmp.Op
	if strings.EqualFold(op, "like") {
		op = "LIKE"
	}
	q.WhereOp(cmp.Field, op, cmp.Value.native())
}
