package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("database.url", "user:pass@tcp(localhost:3306)/sao_db")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	require.Equal(t, "mysql", cfg.DatabaseDriver)
	require.True(t, cfg.StoredProcedures)
	require.Equal(t, 24*time.Hour, cfg.JWTExpiry)
	require.Equal(t, 5, cfg.ConnectRetries)
	require.Equal(t, 5*time.Second, cfg.ConnectDelay)
	require.Equal(t, "http://localhost:5173", cfg.FrontendURL)
	require.Equal(t, ":5000", cfg.HTTPAddress())
}

func TestFromViperSqliteDisablesProcedures(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("database.driver", "SQLite")
	v.Set("database.url", "file::memory:")

	cfg, err := fromViper(v)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DatabaseDriver)
	require.False(t, cfg.StoredProcedures)
}

func TestFromViperRequiresSecrets(t *testing.T) {
	v := viper.New()
	v.Set("database.url", "file::memory:")

	_, err := fromViper(v)
	require.Error(t, err)
}

func TestFromViperRejectsBadDuration(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("database.url", "file::memory:")
	v.Set("jwt.expiry", "forever")

	_, err := fromViper(v)
	require.ErrorContains(t, err, "jwt.expiry")
}

func TestFromViperRejectsUnknownDriver(t *testing.T) {
	v := viper.New()
	v.Set("jwt.secret", "secret")
	v.Set("database.url", "x")
	v.Set("database.driver", "oracle")

	_, err := fromViper(v)
	require.Error(t, err)
}
