package db

// Credentials is the flat connection record consumed once at connect time.
type Credentials struct {
	// Type selects the dialect: mysql, postgres, sqlite, sqlserver,
	// oracle, db2 or firebird.
	Type string

	User string
	Pass string
	Host string
	Port string

	// Database is the database/schema name, or the file path for SQLite.
	Database string

	// DSN, when set, is used verbatim instead of building a source string
	// from the fields above.
	DSN string
}
