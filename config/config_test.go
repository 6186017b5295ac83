package config

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromEnv(t *testing.T) {
	viper.Reset()
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = afero.NewOsFs() })

	t.Setenv("EDITORDB_TYPE", "postgres")
	t.Setenv("EDITORDB_HOST", "db.internal")
	t.Setenv("EDITORDB_PORT", "5433")
	t.Setenv("EDITORDB_USER", "editor")
	t.Setenv("EDITORDB_PASS", "secret")
	t.Setenv("EDITORDB_DATABASE", "app")

	creds, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", creds.Type)
	assert.Equal(t, "db.internal", creds.Host)
	assert.Equal(t, "5433", creds.Port)
	assert.Equal(t, "editor", creds.User)
	assert.Equal(t, "secret", creds.Pass)
	assert.Equal(t, "app", creds.Database)
}

func TestLoadDefaultsAndDatabaseURL(t *testing.T) {
	viper.Reset()
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = afero.NewOsFs() })

	t.Setenv("DATABASE_URL", "postgres://u:p@h/db")

	creds, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mysql", creds.Type)
	assert.Equal(t, "postgres://u:p@h/db", creds.DSN)
}
