package db_test

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridkit/editordb/db"
	"github.com/gridkit/editordb/db/dialect/db2"
	"github.com/gridkit/editordb/db/dialect/mssql"
	"github.com/gridkit/editordb/db/dialect/mysql"
	"github.com/gridkit/editordb/db/dialect/oracle"
	"github.com/gridkit/editordb/db/dialect/postgres"
)

func newMockDB(t *testing.T, dialect db.Dialect) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db.New(dialect, sqlDB), mock
}

func TestSelectFetch(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT `id`, `name` FROM `users` WHERE `active` = ?")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), []byte("Allan")).
			AddRow(int64(2), []byte("Bea")))

	res, err := h.Query("select", "users").
		Get("id", "name").
		Where("active", 1).
		Exec(context.Background())
	require.NoError(t, err)

	rows, err := res.FetchAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	// Byte slices come back as strings.
	assert.Equal(t, "Allan", rows[0]["name"])
	assert.Equal(t, int64(2), rows[1]["id"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertLastInsertID(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`name`) VALUES (?)")).
		WithArgs("Allan").
		WillReturnResult(sqlmock.NewResult(7, 1))

	res, err := h.Insert(context.Background(), "users", map[string]interface{}{"name": "Allan"})
	require.NoError(t, err)
	assert.Equal(t, "7", res.InsertID())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertReturning(t *testing.T) {
	h, mock := newMockDB(t, &postgres.Dialect{})

	mock.ExpectQuery(regexp.QuoteMeta(
		`INSERT INTO "users" ("name") VALUES ($1) RETURNING "id" AS dt_pkey`)).
		WithArgs("Allan").
		WillReturnRows(sqlmock.NewRows([]string{"dt_pkey"}).AddRow(int64(9))).
		RowsWillBeClosed()

	res, err := h.Insert(context.Background(), "users", map[string]interface{}{"name": "Allan"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "9", res.InsertID())

	require.NoError(t, mock.ExpectationsWereMet())
}

// The identity lookup rides in the insert's own batch so it cannot land on
// another pooled session.
func TestInsertBatchedIdentity(t *testing.T) {
	h, mock := newMockDB(t, &mssql.Dialect{})

	mock.ExpectQuery(regexp.QuoteMeta(
		"INSERT INTO [users] ([name]) VALUES (@name); "+
			"SELECT CAST(SCOPE_IDENTITY() AS BIGINT) AS dt_pkey")).
		WithArgs(sql.Named("name", "Allan")).
		WillReturnRows(sqlmock.NewRows([]string{"dt_pkey"}).AddRow(int64(11))).
		RowsWillBeClosed()

	res, err := h.Insert(context.Background(), "users", map[string]interface{}{"name": "Allan"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "11", res.InsertID())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertFinalTable(t *testing.T) {
	h, mock := newMockDB(t, &db2.Dialect{})

	mock.ExpectQuery(regexp.QuoteMeta(
		`SELECT "id" AS dt_pkey FROM FINAL TABLE (INSERT INTO "users" ("name") VALUES (?))`)).
		WithArgs("Allan").
		WillReturnRows(sqlmock.NewRows([]string{"dt_pkey"}).AddRow(int64(5))).
		RowsWillBeClosed()

	res, err := h.Insert(context.Background(), "users", map[string]interface{}{"name": "Allan"}, "id")
	require.NoError(t, err)
	assert.Equal(t, "5", res.InsertID())

	require.NoError(t, mock.ExpectationsWereMet())
}

// Insert-then-read round trip on the LastInsertId path.
func TestInsertThenRead(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `users` (`city`, `name`) VALUES (?, ?)")).
		WithArgs("NYC", "Allan").
		WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM `users` WHERE `id` = ?")).
		WithArgs("3").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "city"}).
			AddRow(int64(3), "Allan", "NYC"))

	values := map[string]interface{}{"name": "Allan", "city": "NYC"}
	res, err := h.Insert(context.Background(), "users", values)
	require.NoError(t, err)

	read, err := h.Select(context.Background(), "users", []string{"*"},
		map[string]interface{}{"id": res.InsertID()})
	require.NoError(t, err)
	row, err := read.Fetch()
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, "Allan", row["name"])
	assert.Equal(t, "NYC", row["city"])

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSpentQuery(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))

	q := h.Query("select", "t")
	_, err := q.Exec(context.Background())
	require.NoError(t, err)

	_, err = q.Exec(context.Background())
	assert.ErrorIs(t, err, db.ErrSpentQuery)
}

func TestUnsupportedCommand(t *testing.T) {
	h, _ := newMockDB(t, &mysql.Dialect{})

	_, err := h.Query("truncate", "t").Exec(context.Background())
	assert.ErrorIs(t, err, db.ErrUnsupportedCommand)
}

func TestStatementErrorPreservesDriverMessage(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	driverErr := assert.AnError
	mock.ExpectQuery("SELECT").WillReturnError(driverErr)

	_, err := h.Query("select", "t").Exec(context.Background())
	require.Error(t, err)

	var stmtErr *db.StatementError
	require.ErrorAs(t, err, &stmtErr)
	assert.ErrorIs(t, err, driverErr)
	assert.Contains(t, err.Error(), driverErr.Error())
}

func TestTransactionLifecycle(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})
	ctx := context.Background()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE `users` SET `name` = ? WHERE `id` = ?")).
		WithArgs("Bea", 1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, h.Begin(ctx))
	assert.True(t, h.InTransaction())

	// A second Begin on the same handle is refused.
	assert.ErrorIs(t, h.Begin(ctx), db.ErrNestedTransaction)

	_, err := h.Update(ctx, "users",
		map[string]interface{}{"name": "Bea"},
		map[string]interface{}{"id": 1})
	require.NoError(t, err)

	require.NoError(t, h.Commit())
	assert.False(t, h.InTransaction())
	assert.ErrorIs(t, h.Commit(), db.ErrNoTransaction)
	assert.ErrorIs(t, h.Rollback(), db.ErrNoTransaction)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCountHelper(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) AS `cnt` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"cnt"}).AddRow(int64(12))).
		RowsWillBeClosed()

	n, err := h.Count(context.Background(), "users", nil)
	require.NoError(t, err)
	assert.Equal(t, 12, n)

	// The count cursor does not pin its connection.
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDebugSink(t *testing.T) {
	h, mock := newMockDB(t, &mysql.Dialect{})

	var captured string
	h.Debug(func(sql string, bindings []db.Binding) {
		captured = sql
	})

	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows([]string{"id"}))
	_, err := h.Query("select", "t").Where("a", 1).Exec(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "SELECT * FROM `t` WHERE `a` = ?", captured)
}

// The same builder state renders three different but equivalent paging
// fragments across engines.
func TestLimitOffsetDialectDivergence(t *testing.T) {
	limit, offset := 10, 20

	my := &mysql.Dialect{}
	assert.Equal(t, "LIMIT 10 OFFSET 20", my.LimitOffset(&limit, &offset))

	ms := &mssql.Dialect{}
	assert.Equal(t, "OFFSET 20 ROWS FETCH NEXT 10 ROWS ONLY", ms.LimitOffset(&limit, &offset))

	or := &oracle.Dialect{}
	assert.Equal(t, "", or.LimitOffset(&limit, &offset))
	wrapped := or.WrapLimit(`SELECT * FROM "users"`, &limit, &offset)
	assert.Contains(t, wrapped, "ROWNUM <= 30")
	assert.Contains(t, wrapped, "dt_rownum > 20")
	assert.Contains(t, wrapped, `SELECT * FROM "users"`)
}

func TestOracleOutBinding(t *testing.T) {
	or := &oracle.Dialect{}

	suffix, name := or.OutBinding("id")
	assert.Equal(t, `RETURNING "id" INTO :dt_out`, suffix)
	assert.Equal(t, "dt_out", name)
}
