package editor_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridkit/editordb/db"
	"github.com/gridkit/editordb/editor"
)

func TestOptionsExec(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT `id`, `name` FROM `sites`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(2), "Lab").
			AddRow(int64(1), "HQ"))

	opts, err := editor.NewOptions().
		Table("sites").
		Value("id").
		Label("name").
		Exec(context.Background(), h)
	require.NoError(t, err)

	// Without an explicit order, options sort by label.
	require.Len(t, opts, 2)
	assert.Equal(t, editor.Option{Value: int64(1), Label: "HQ"}, opts[0])
	assert.Equal(t, editor.Option{Value: int64(2), Label: "Lab"}, opts[1])
}

func TestOptionsMultiColumnLabel(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT `id`, `first`, `last` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "first", "last"}).
			AddRow(int64(1), "Allan", "Jardine"))

	opts, err := editor.NewOptions().
		Table("users").
		Value("id").
		Label("first", "last").
		Exec(context.Background(), h)
	require.NoError(t, err)

	require.Len(t, opts, 1)
	assert.Equal(t, "Allan Jardine", opts[0].Label)
}

func TestOptionsRenderAndLimit(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT `id`, `name` FROM `sites` ORDER BY `name` LIMIT 2")).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
			AddRow(int64(1), "HQ").
			AddRow(int64(2), "Lab"))

	opts, err := editor.NewOptions().
		Table("sites").
		Value("id").
		Label("name").
		Order("name").
		Limit(2).
		Render(func(row db.Row) string { return "site: " + row["name"].(string) }).
		Exec(context.Background(), h)
	require.NoError(t, err)

	assert.Equal(t, "site: HQ", opts[0].Label)
}

func TestOptionsCustomFn(t *testing.T) {
	h, _ := newMockDB(t)

	want := []editor.Option{{Value: 1, Label: "one"}}
	opts, err := editor.NewOptions().
		Fn(func(ctx context.Context, h *db.Database) ([]editor.Option, error) {
			return want, nil
		}).
		Exec(context.Background(), h)
	require.NoError(t, err)
	assert.Equal(t, want, opts)
}

func TestOptionsMissingConfig(t *testing.T) {
	h, _ := newMockDB(t)

	_, err := editor.NewOptions().Table("sites").Exec(context.Background(), h)
	assert.Error(t, err)
}

func TestSearchPaneOptionsExec(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `city`, COUNT(*) as dt_count FROM `users` GROUP BY `city`")).
		WillReturnRows(sqlmock.NewRows([]string{"city", "dt_count"}).
			AddRow("NYC", int64(5)).
			AddRow("SF", int64(3)))
	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT `city`, COUNT(*) as dt_count FROM `users` WHERE `active` = ? GROUP BY `city`")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"city", "dt_count"}).
			AddRow("NYC", int64(2)))

	opts, err := editor.NewSearchPaneOptions().
		Table("users").
		Value("city").
		Where(func(q *db.Query) { q.Where("active", 1) }).
		Exec(context.Background(), h)
	require.NoError(t, err)

	require.Len(t, opts, 2)
	assert.Equal(t, editor.PaneOption{Value: "NYC", Label: "NYC", Count: 2, Total: 5}, opts[0])
	assert.Equal(t, editor.PaneOption{Value: "SF", Label: "SF", Count: 0, Total: 3}, opts[1])
}

func TestSearchBuilderOptionsExec(t *testing.T) {
	h, mock := newMockDB(t)

	mock.ExpectQuery(regexp.QuoteMeta(
		"SELECT DISTINCT `city` FROM `users`")).
		WillReturnRows(sqlmock.NewRows([]string{"city"}).
			AddRow("SF").
			AddRow("NYC"))

	opts, err := editor.NewSearchBuilderOptions().
		Table("users").
		Value("city").
		Exec(context.Background(), h)
	require.NoError(t, err)

	require.Len(t, opts, 2)
	assert.Equal(t, editor.Option{Value: "NYC", Label: "NYC"}, opts[0])
	assert.Equal(t, editor.Option{Value: "SF", Label: "SF"}, opts[1])
}
