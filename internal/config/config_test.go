package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3200", cfg.ServerPort)
	assert.Equal(t, 256, cfg.ClientSendBuffer)
	assert.Equal(t, 256, cfg.BroadcastQueueSize)
	assert.Equal(t, "*", cfg.AllowedOrigin)
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("WS_CLIENT_SEND_BUFFER", "64")
	t.Setenv("WS_ALLOWED_ORIGIN", "https://app.example.com")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, 64, cfg.ClientSendBuffer)
	assert.Equal(t, "https://app.example.com", cfg.AllowedOrigin)
}

func TestLoadRejectsNonPositiveSendBuffer(t *testing.T) {
	t.Setenv("WS_CLIENT_SEND_BUFFER", "-1")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadIgnoresMalformedInt(t *testing.T) {
	t.Setenv("WS_BROADCAST_QUEUE", "not a number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 256, cfg.BroadcastQueueSize)
}

func TestDatabaseURL(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_NAME", "taskpulse_test")

	cfg, err := Load()
	require.NoError(t, err)

	url := cfg.DatabaseURL()
	assert.Contains(t, url, "host=db.internal")
	assert.Contains(t, url, "dbname=taskpulse_test")
	assert.Contains(t, url, "sslmode=disable")
}
