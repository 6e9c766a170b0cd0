package config

import (
	"fmt"
	"os"
)

// DatabaseConfig holds the connection parameters shared by every
// Postgres-backed adapter (object store, event log, health check), so
// none of them re-derive a connection string from raw environment reads
// the way the teacher's cmd/api-server did inline.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
}

// LoadDatabaseConfig reads DB_HOST/DB_PORT/DB_USER/DB_PASSWORD/DB_NAME
// from the environment, falling back to this module's local-dev
// defaults when unset.
func LoadDatabaseConfig() DatabaseConfig {
	return DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "flow"),
		Password: getEnv("DB_PASSWORD", "flow123"),
		DBName:   getEnv("DB_NAME", "flow"),
	}
}

// SQLDataSourceName returns the space-separated key=value DSN the
// database/sql "postgres" driver (lib/pq) expects.
func (c DatabaseConfig) SQLDataSourceName() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Host, c.Port, c.User, c.Password, c.DBName)
}

// PgxConnString returns the postgres:// URI pgxpool.New expects.
func (c DatabaseConfig) PgxConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
