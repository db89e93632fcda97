package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	t.Run("Reads values from the file", func(t *testing.T) {
		// Given: a config file overriding a few values
		path := writeConfig(t, `
log-level: debug
server:
  socket-port: "4001"
relay:
  upstream-url: ws://game:4001/ws
  reconnect-attempts: 3
  dial-timeout: 5s
  passthrough: true
redis:
  enabled: true
  host: cache
`)

		// When: loading it
		conf, err := Load(path)

		// Then: file values win and the rest fall back to defaults
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, "4001", conf.Server.SocketPort)
		assert.Equal(t, "9090", conf.Server.HTTPPort)
		assert.Equal(t, "ws://game:4001/ws", conf.Relay.UpstreamURL)
		assert.Equal(t, 3, conf.Relay.ReconnectAttempts)
		assert.Equal(t, 5*time.Second, conf.Relay.DialTimeout)
		assert.Equal(t, 2*time.Second, conf.Relay.ReconnectInterval)
		assert.False(t, conf.Relay.RegistersUpstream())
		assert.True(t, conf.Redis.Enabled)
		assert.Equal(t, "cache:6379", conf.Redis.GetRedisAddr())
	})

	t.Run("Missing file is an error", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "absent.yml"))

		require.Error(t, err)
	})

	t.Run("MustLoad panics on a missing file", func(t *testing.T) {
		assert.Panics(t, func() {
			MustLoad(filepath.Join(t.TempDir(), "absent.yml"))
		})
	})
}

func TestFromEnv(t *testing.T) {
	t.Run("Defaults", func(t *testing.T) {
		conf, err := FromEnv()

		require.NoError(t, err)
		assert.Equal(t, "info", conf.LogLevel)
		assert.Equal(t, "0.0.0.0:3001", conf.Server.SocketAddr())
		assert.Equal(t, "0.0.0.0:3002", conf.Relay.SocketAddr())
		assert.Equal(t, "0.0.0.0:9091", conf.Relay.HTTPAddr())
		assert.Equal(t, "ws://localhost:3001/ws", conf.Relay.UpstreamURL)
		assert.Equal(t, 5, conf.Relay.ReconnectAttempts)
		assert.Equal(t, 10*time.Second, conf.Relay.DialTimeout)
		assert.True(t, conf.Relay.RegistersUpstream())
		assert.False(t, conf.Redis.Enabled)
		assert.Equal(t, 5, conf.Client.ReconnectAttempts)
	})

	t.Run("Environment overrides defaults", func(t *testing.T) {
		t.Setenv("RELAY_UPSTREAM_URL", "ws://primary:3001/ws")
		t.Setenv("SERVER_SOCKET_PORT", "5001")
		t.Setenv("REDIS_ENABLED", "true")

		conf, err := FromEnv()

		require.NoError(t, err)
		assert.Equal(t, "ws://primary:3001/ws", conf.Relay.UpstreamURL)
		assert.Equal(t, "5001", conf.Server.SocketPort)
		assert.True(t, conf.Redis.Enabled)
	})
}

func TestLoadOrEnv(t *testing.T) {
	t.Run("Missing file falls back to env", func(t *testing.T) {
		t.Setenv("RELAY_SOCKET_PORT", "4002")

		conf, err := LoadOrEnv(filepath.Join(t.TempDir(), "absent.yml"))

		require.NoError(t, err)
		assert.Equal(t, "4002", conf.Relay.SocketPort)
		assert.Equal(t, "3001", conf.Server.SocketPort)
	})

	t.Run("Existing file is read", func(t *testing.T) {
		path := writeConfig(t, `
log-level: warn
`)

		conf, err := LoadOrEnv(path)

		require.NoError(t, err)
		assert.Equal(t, "warn", conf.LogLevel)
	})

	t.Run("Broken file is an error", func(t *testing.T) {
		path := writeConfig(t, "server: [")

		_, err := LoadOrEnv(path)

		assert.Error(t, err)
	})
}
