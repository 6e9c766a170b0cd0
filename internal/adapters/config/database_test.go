package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDatabaseConfig_Defaults(t *testing.T) {
	for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
		os.Unsetenv(key)
	}

	cfg := LoadDatabaseConfig()

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "flow", cfg.User)
	assert.Equal(t, "flow123", cfg.Password)
	assert.Equal(t, "flow", cfg.DBName)
}

func TestLoadDatabaseConfig_EnvOverride(t *testing.T) {
	os.Setenv("DB_HOST", "db.internal")
	os.Setenv("DB_PORT", "6543")
	os.Setenv("DB_USER", "runner")
	os.Setenv("DB_PASSWORD", "secret")
	os.Setenv("DB_NAME", "flow_prod")
	defer func() {
		for _, key := range []string{"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME"} {
			os.Unsetenv(key)
		}
	}()

	cfg := LoadDatabaseConfig()

	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, "6543", cfg.Port)
	assert.Equal(t, "runner", cfg.User)
	assert.Equal(t, "secret", cfg.Password)
	assert.Equal(t, "flow_prod", cfg.DBName)
}

func TestDatabaseConfig_SQLDataSourceName(t *testing.T) {
	cfg := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d"}

	assert.Equal(t, "host=h port=5432 user=u password=p dbname=d sslmode=disable", cfg.SQLDataSourceName())
}

func TestDatabaseConfig_PgxConnString(t *testing.T) {
	cfg := DatabaseConfig{Host: "h", Port: "5432", User: "u", Password: "p", DBName: "d"}

	assert.Equal(t, "postgres://u:p@h:5432/d?sslmode=disable", cfg.PgxConnString())
}
