package db

import (
	"fmt"
	"hash/crc32"
	"strings"
)

// Row is one record as returned by a cursor, keyed by column name.
type Row map[string]interface{}

// PkeySeparator derives the join token used between the parts of a compound
// key value. The token is a checksum of the column list itself, so it stays
// stable for a table while remaining unlikely to occur inside real data.
func PkeySeparator(pkey []string) string {
	sum := crc32.ChecksumIEEE([]byte(strings.Join(pkey, ",")))
	return fmt.Sprintf("%x", sum)
}

// PkeyToValue packs the key columns of row into a single string value. A
// single-column key is the column's value verbatim.
func PkeyToValue(pkey []string, row Row) (string, error) {
	parts := make([]string, len(pkey))
	for i, col := range pkey {
		v, ok := row[col]
		if !ok {
			return "", fmt.Errorf("primary key column %q missing from row", col)
		}
		if v == nil {
			return "", fmt.Errorf("primary key column %q is null", col)
		}
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, PkeySeparator(pkey)), nil
}

// PkeyToMap unpacks a packed key value back into its column parts.
func PkeyToMap(value string, pkey []string) (Row, error) {
	parts := strings.Split(value, PkeySeparator(pkey))
	if len(parts) != len(pkey) {
		return nil, &MalformedKeyError{Pkey: pkey, Value: value}
	}
	row := make(Row, len(pkey))
	for i, col := range pkey {
		row[col] = parts[i]
	}
	return row, nil
}
