package db

import (
	"regexp"
	"strings"
)

var whitespaceRe = regexp.MustCompile(`\s+`)

// quoteIdentifier wraps a table or column identifier in the dialect's quote
// characters. Function calls, wildcards and ambiguous expressions pass
// through unchanged; an embedded " as " (or single-space) alias is appended
// after the quoted identifier.
func quoteIdentifier(d Dialect, identifier string) string {
	left, right := d.Quotes()
	if left == "" && right == "" {
		return identifier
	}
	if strings.ContainsAny(identifier, "()*") {
		return identifier
	}

	original := identifier
	identifier = whitespaceRe.ReplaceAllString(strings.TrimSpace(identifier), " ")

	alias := ""
	if idx := strings.Index(strings.ToLower(identifier), " as "); idx != -1 {
		alias = identifier[idx+4:]
		identifier = identifier[:idx]
	}

	switch strings.Count(identifier, " ") {
	case 0:
		// Simple identifier, or table.column.
	case 1:
		if alias != "" {
			return original
		}
		// Space-separated alias form: "users u".
		parts := strings.SplitN(identifier, " ", 2)
		identifier, alias = parts[0], parts[1]
	default:
		return original
	}

	segments := strings.Split(identifier, ".")
	quoted := left + strings.Join(segments, right+"."+left) + right
	if alias != "" {
		// The alias is quoted whole so dotted exposed names stay one
		// result column.
		quoted += " as " + left + alias + right
	}
	return quoted
}
