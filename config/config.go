// Package config loads database credentials from config files and the
// environment.
package config

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/viper"

	"github.com/gridkit/editordb/db"
)

var AppFs = afero.NewOsFs()

// Load reads credentials from, in increasing priority: .editordb.yaml in
// the current directory, home directory or ~/.config/editordb; EDITORDB_*
// environment variables; a .env file; a .env.local file.
func Load() (db.Credentials, error) {
	var creds db.Credentials

	home, err := homedir.Dir()
	if err != nil {
		return creds, err
	}

	viper.SetConfigName(".editordb")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath(home)
	viper.AddConfigPath(filepath.Join(home, ".config", "editordb"))

	viper.SetEnvPrefix("EDITORDB")
	viper.AutomaticEnv()

	viper.SetDefault("type", "mysql")

	// Ignore a missing config file; env vars may carry everything.
	_ = viper.ReadInConfig()

	if _, err := AppFs.Stat(".env"); err == nil {
		_ = godotenv.Load()
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		_ = godotenv.Overload(".env.local")
	}

	creds = db.Credentials{
		Type:     viper.GetString("type"),
		User:     viper.GetString("user"),
		Pass:     viper.GetString("pass"),
		Host:     viper.GetString("host"),
		Port:     viper.GetString("port"),
		Database: viper.GetString("database"),
		DSN:      viper.GetString("dsn"),
	}
	if url := os.Getenv("DATABASE_URL"); url != "" && creds.DSN == "" {
		creds.DSN = url
	}
	return creds, nil
}

// Save writes the credentials to .editordb.yaml in the current directory.
// The password goes to .env instead so the yaml file can be committed.
func Save(creds db.Credentials) error {
	viper.Set("type", creds.Type)
	viper.Set("user", creds.User)
	viper.Set("host", creds.Host)
	viper.Set("port", creds.Port)
	viper.Set("database", creds.Database)

	if err := viper.WriteConfigAs(".editordb.yaml"); err != nil {
		return err
	}

	env := "EDITORDB_PASS=" + creds.Pass + "\n"
	return afero.WriteFile(AppFs, ".env", []byte(env), 0600)
}
