package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/FichesVente-api/pkg/config"
)

func TestLoad_ValoresPorDefecto(t *testing.T) {
	t.Setenv("STORE_DRIVER", "")
	t.Setenv("APP_ENV", "development")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "fiches-vente", cfg.App.Name)
	assert.Equal(t, 8080, cfg.HTTP.Port)
	assert.Equal(t, 5*time.Minute, cfg.SMS.CodeTTL)
	assert.Equal(t, 3, cfg.SMS.MaxAttempts)
}

func TestLoad_DriverDesdeEnv(t *testing.T) {
	t.Setenv("STORE_DRIVER", "SQLite")
	t.Setenv("SQLITE_PATH", "/tmp/ventas.db")
	t.Setenv("STORE_FALLBACK", "false")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, config.StoreDriverSQLite, cfg.Store.Driver)
	assert.Equal(t, "/tmp/ventas.db", cfg.Store.SQLitePath)
	assert.False(t, cfg.Store.Fallback)
}

func TestLoad_DriverInvalido(t *testing.T) {
	t.Setenv("STORE_DRIVER", "mongo")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestLoad_ProduccionSinSecretoFalla(t *testing.T) {
	t.Setenv("STORE_DRIVER", "memory")
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "")

	_, err := config.Load()
	assert.Error(t, err)
}

func TestDBConfig_DSNEscapaPassword(t *testing.T) {
	c := config.DBConfig{Host: "db", Port: 5432, User: "ventas", Password: "p@ss:word", DBName: "fiches", SSLMode: "disable"}
	assert.Equal(t, "postgres://ventas:p%40ss%3Aword@db:5432/fiches?sslmode=disable", c.ConnectionString())

	c.DatabaseURL = "postgres://otro"
	assert.Equal(t, "postgres://otro", c.ConnectionString())
}
