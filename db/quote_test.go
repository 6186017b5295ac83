package db

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuoteIdentifier(t *testing.T) {
	d := &testDialect{}

	tests := []struct {
		name       string
		identifier string
		want       string
	}{
		{"simple column", "name", "`name`"},
		{"table dot column", "users.name", "`users`.`name`"},
		{"three segments", "db.users.name", "`db`.`users`.`name`"},
		{"wildcard passthrough", "*", "*"},
		{"function passthrough", "COUNT(x)", "COUNT(x)"},
		{"as alias", "users.name as n", "`users`.`name` as `n`"},
		{"uppercase AS alias", "users.name AS n", "`users`.`name` as `n`"},
		{"space alias", "users u", "`users` as `u`"},
		{"dotted alias", "sites.name as site.name", "`sites`.`name` as `site.name`"},
		{"too many spaces", "a b c", "a b c"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, quoteIdentifier(d, tt.identifier))
		})
	}
}

func TestQuoteIdentifierRoundTrip(t *testing.T) {
	d := &testDialect{}
	left, right := d.Quotes()

	for _, identifier := range []string{"users.name", "a.b.c", "plain"} {
		quoted := quoteIdentifier(d, identifier)
		stripped := strings.ReplaceAll(strings.ReplaceAll(quoted, left, ""), right, "")
		assert.Equal(t, identifier, stripped)
	}
}

func TestQuoteIdentifierNoQuoteDialect(t *testing.T) {
	d := &noQuoteDialect{}
	assert.Equal(t, "users.name", quoteIdentifier(d, "users.name"))
}

type noQuoteDialect struct{ testDialect }

func (d *noQuoteDialect) Quotes() (string, string) { return "", "" }
