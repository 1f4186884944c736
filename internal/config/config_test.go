package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, "mysql", cfg.Database.Driver)
	assert.Contains(t, cfg.Database.DSN, "@tcp(localhost:3306)/cpap_admin")
	assert.Contains(t, cfg.Database.DSN, "loc=Africa%2FTunis")
	assert.Equal(t, 15, cfg.JWTExpirationMinutes)
	assert.Equal(t, 168, cfg.JWTRefreshExpirationHours)
	assert.Equal(t, "Africa/Tunis", cfg.Location.String())
	assert.True(t, cfg.IsDevelopment())
}

func TestLoadConfigMySQLFollowsTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Europe/Paris")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Contains(t, cfg.Database.DSN, "parseTime=True&loc=Europe%2FParis")
	assert.NotContains(t, cfg.Database.DSN, "loc=Local")
}

func TestLoadConfigSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "/tmp/test.db")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test.db", cfg.Database.DSN)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"DB_DRIVER":              "postgres",
		"JWT_EXPIRATION_MINUTES": "soon",
		"TIMEZONE":               "Mars/Olympus",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
