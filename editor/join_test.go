package editor_test

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridkit/editordb/db"
	"github.com/gridkit/editordb/db/dialect/mysql"
	"github.com/gridkit/editordb/editor"
)

func newMockDB(t *testing.T) (*db.Database, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	return db.New(&mysql.Dialect{}, sqlDB), mock
}

func parentRows() []db.Row {
	return []db.Row{
		{"id": int64(1), "name": "Allan"},
		{"id": int64(2), "name": "Bea"},
		{"id": int64(3), "name": "Cho"},
	}
}

const visitsQuery = "SELECT `visits`.`user_id` as `dt_parent_key`, `visits`.`day` " +
	"FROM `visits` WHERE `visits`.`user_id` IN (?, ?, ?)"

func visitRows() *sqlmock.Rows {
	// 5 child rows in a 2/2/1 distribution over the three parents.
	return sqlmock.NewRows([]string{"dt_parent_key", "day"}).
		AddRow(int64(1), "mon").
		AddRow(int64(1), "tue").
		AddRow(int64(2), "wed").
		AddRow(int64(2), "thu").
		AddRow(int64(3), "fri")
}

// Resolving a many join issues exactly one additional query and gives
// every parent a list, never nil.
func TestMjoinDataFanOut(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(visitsQuery)).
		WithArgs(int64(1), int64(2), int64(3)).
		WillReturnRows(visitRows())

	join := editor.NewMjoin("visits").
		Name("visits").
		Field("day").
		Link("users.id", "visits.user_id")

	rows := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", rows))

	// Any extra statement would fail the mock; exactly 2 queries total
	// (parent fetch is the caller's, this pass adds one).
	require.NoError(t, mock.ExpectationsWereMet())

	assert.Equal(t, []db.Row{{"day": "mon"}, {"day": "tue"}}, rows[0]["visits"])
	assert.Equal(t, []db.Row{{"day": "wed"}, {"day": "thu"}}, rows[1]["visits"])
	assert.Equal(t, []db.Row{{"day": "fri"}}, rows[2]["visits"])
}

func TestMjoinDataEmptyFanOut(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(visitsQuery)).
		WillReturnRows(sqlmock.NewRows([]string{"dt_parent_key", "day"}).
			AddRow(int64(1), "mon"))

	join := editor.NewMjoin("visits").
		Field("day").
		Link("users.id", "visits.user_id")

	rows := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", rows))

	// Parents without children get an empty list, never nil.
	assert.Equal(t, []db.Row{{"day": "mon"}}, rows[0]["visits"])
	assert.Equal(t, []db.Row{}, rows[1]["visits"])
	assert.Equal(t, []db.Row{}, rows[2]["visits"])
}

// Running the same resolution twice over the same parent set yields
// identical output.
func TestMjoinDataIdempotent(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(visitsQuery)).WillReturnRows(visitRows())
	mock.ExpectQuery(regexp.QuoteMeta(visitsQuery)).WillReturnRows(visitRows())

	join := editor.NewMjoin("visits").
		Field("day").
		Link("users.id", "visits.user_id")

	first := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", first))

	second := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", second))

	assert.Equal(t, fmt.Sprint(first), fmt.Sprint(second))
}

func TestJoinOneCardinality(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `profiles`.`user_id` as `dt_parent_key`, `profiles`.`bio` "+
			"FROM `profiles` WHERE `profiles`.`user_id` IN (?, ?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"dt_parent_key", "bio"}).
			AddRow(int64(1), "hello"))

	join := editor.NewJoin("profiles").
		Field("bio").
		Link("users.id", "profiles.user_id")

	rows := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", rows))

	assert.Equal(t, db.Row{"bio": "hello"}, rows[0]["profiles"])
	// One-cardinality joins get an empty object, never nil.
	assert.Equal(t, db.Row{}, rows[1]["profiles"])
	assert.Equal(t, db.Row{}, rows[2]["profiles"])
}

func TestMjoinLinkTable(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `user_sites`.`user_id` as `dt_parent_key`, `sites`.`name` "+
			"FROM `user_sites` "+
			"LEFT JOIN `sites` ON `user_sites`.`site_id` = `sites`.`id` "+
			"WHERE `user_sites`.`user_id` IN (?, ?, ?)")).
		WillReturnRows(sqlmock.NewRows([]string{"dt_parent_key", "name"}).
			AddRow(int64(1), "HQ").
			AddRow(int64(2), "Lab"))

	join := editor.NewMjoin("sites").
		Field("sites.name", "name").
		Link("users.id", "user_sites.user_id").
		Link("user_sites.site_id", "sites.id")

	rows := parentRows()
	require.NoError(t, join.Data(context.Background(), h, "users", rows))

	assert.Equal(t, []db.Row{{"name": "HQ"}}, rows[0]["sites"])
	assert.Equal(t, []db.Row{{"name": "Lab"}}, rows[1]["sites"])
	assert.Equal(t, []db.Row{}, rows[2]["sites"])
}

func TestMjoinCreateLinkRows(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `user_sites` (`site_id`, `user_id`) VALUES (?, ?)")).
		WithArgs(4, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `user_sites` (`site_id`, `user_id`) VALUES (?, ?)")).
		WithArgs(5, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	join := editor.NewMjoin("sites").
		Field("sites.id", "id").
		Link("users.id", "user_sites.user_id").
		Link("user_sites.site_id", "sites.id")

	data := map[string]interface{}{
		"sites": []interface{}{
			map[string]interface{}{"id": 4},
			map[string]interface{}{"id": 5},
		},
	}
	require.NoError(t, join.Create(context.Background(), h, "users", int64(10), data))
	require.NoError(t, mock.ExpectationsWereMet())
}

// Updating a many join drops the current set and reinserts the submission.
func TestMjoinUpdateDeleteReinsert(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM `user_sites` WHERE `user_id` IN (?)")).
		WithArgs(int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(
		"INSERT INTO `user_sites` (`site_id`, `user_id`) VALUES (?, ?)")).
		WithArgs(4, int64(10)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	join := editor.NewMjoin("sites").
		Field("sites.id", "id").
		Link("users.id", "user_sites.user_id").
		Link("user_sites.site_id", "sites.id")

	data := map[string]interface{}{
		"sites": []interface{}{
			map[string]interface{}{"id": 4},
		},
	}
	require.NoError(t, join.Update(context.Background(), h, "users", int64(10), data))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMjoinRemove(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectExec(regexp.QuoteMeta(
		"DELETE FROM `user_sites` WHERE `user_id` IN (?, ?)")).
		WithArgs(int64(10), int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	join := editor.NewMjoin("sites").
		Link("users.id", "user_sites.user_id").
		Link("user_sites.site_id", "sites.id")

	err := join.Remove(context.Background(), h, "users", []interface{}{int64(10), int64(11)})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestJoinValidator(t *testing.T) {
	join := editor.NewMjoin("sites").
		Validator(func(row map[string]interface{}) error {
			if row["id"] == nil {
				return fmt.Errorf("site id is required")
			}
			return nil
		})

	ok := map[string]interface{}{
		"sites": []interface{}{map[string]interface{}{"id": 4}},
	}
	require.NoError(t, join.Validate(ok))

	bad := map[string]interface{}{
		"sites": []interface{}{map[string]interface{}{"name": "HQ"}},
	}
	assert.EqualError(t, join.Validate(bad), "site id is required")
}

func TestJoinSetDisabledSkipsWrites(t *testing.T) {
	h, mock := newMockDB(t)

	join := editor.NewMjoin("sites").
		Set(false).
		Link("users.id", "user_sites.user_id").
		Link("user_sites.site_id", "sites.id")

	err := join.Remove(context.Background(), h, "users", []interface{}{int64(1)})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
