package helper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setConfigEnvs(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("DB_DATABASE", "linker")
	t.Setenv("DB_USERNAME", "postgres")
	t.Setenv("DB_PASSWORD", "postgres")
	t.Setenv("DB_SCHEMA", "")
	t.Setenv("DB_SSL_MODE", "")
}

func TestNewDatabaseConfiguration(t *testing.T) {
	t.Run("Reads all variables", func(t *testing.T) {
		setConfigEnvs(t)

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err, "Expected configuration to be read from the environment")
		assert.Equal(t, "localhost", config.Host)
		assert.Equal(t, "5432", config.Port)
		assert.Equal(t, "linker", config.Database)
		assert.Equal(t, "postgres", config.Username)
		assert.Equal(t, "postgres", config.Password)
	})

	t.Run("Schema defaults to public", func(t *testing.T) {
		setConfigEnvs(t)

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err)
		assert.Equal(t, "public", config.Schema, "Expected the schema to default to public")
	})

	t.Run("SSL mode defaults to disable", func(t *testing.T) {
		setConfigEnvs(t)

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err)
		assert.Equal(t, "disable", config.SSLMode, "Expected the ssl mode to default to disable")
	})

	t.Run("SSL mode can be overridden", func(t *testing.T) {
		setConfigEnvs(t)
		t.Setenv("DB_SSL_MODE", "require")

		config, err := NewDatabaseConfiguration()
		require.NoError(t, err)
		assert.Equal(t, "require", config.SSLMode)
	})

	t.Run("Missing required variable returns an error", func(t *testing.T) {
		setConfigEnvs(t)
		t.Setenv("DB_PASSWORD", "")

		_, err := NewDatabaseConfiguration()
		assert.Error(t, err, "Expected an error for a missing required variable")
	})
}

func TestDatabaseClose(t *testing.T) {
	t.Run("Close on a nil database is a no-op", func(t *testing.T) {
		var db *Database

		err := db.Close()
		assert.NoError(t, err, "Expected Close to handle a nil database")
	})

	t.Run("Close without an open connection is a no-op", func(t *testing.T) {
		db := &Database{Name: "unopened"}

		err := db.Close()
		assert.NoError(t, err, "Expected Close to handle a missing connection")
	})
}
