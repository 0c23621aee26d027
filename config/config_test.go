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
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
environment: production
node:
  endpoint: https://api.shasta.trongrid.io
  timeout: 10s
  api_key: secret
provider:
  mode: bridge
  bridge_url: ws://localhost:9000/bridge
waiter:
  interval: 500ms
  max_attempts: 4
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "https://api.shasta.trongrid.io", cfg.Node.Endpoint)
	assert.Equal(t, 10*time.Second, cfg.Node.Timeout)
	assert.Equal(t, ProviderModeBridge, cfg.Provider.Mode)
	assert.Equal(t, "ws://localhost:9000/bridge", cfg.Provider.BridgeURL)
	assert.Equal(t, 500*time.Millisecond, cfg.Waiter.Interval)
	assert.Equal(t, 4, cfg.Waiter.MaxAttempts)
	assert.Equal(t, defaultKeystoreDir, cfg.Keystore.Dir)

	cc := cfg.ClientConfig(nil)
	assert.Equal(t, 10, cc.Timeout)
	assert.Equal(t, "secret", cc.APIKey)
	assert.Equal(t, defaultNodeMaxRetries, cc.Retry.MaxRetries)
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "node:\n  endpoint: https://example.invalid\n")
	t.Setenv("TRON_MULTISIG_NODE_ENDPOINT", "http://127.0.0.1:8090")
	t.Setenv("TRON_MULTISIG_WAITER_MAX_ATTEMPTS", "2")
	t.Setenv("TRON_MULTISIG_KEYSTORE_PASSWORD", "pw")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8090", cfg.Node.Endpoint)
	assert.Equal(t, 2, cfg.Waiter.MaxAttempts)
	assert.Equal(t, "pw", cfg.Keystore.Password)
}

func TestLoad_Defaults(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Development, cfg.Environment)
	assert.Equal(t, defaultEndpoint, cfg.Node.Endpoint)
	assert.Equal(t, ProviderModeLocal, cfg.Provider.Mode)
	assert.Equal(t, time.Second, cfg.Waiter.Interval)
	assert.Equal(t, 10, cfg.Waiter.MaxAttempts)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"environment", "environment: staging\n", "invalid environment"},
		{"mode", "provider:\n  mode: ledger\n", "invalid provider mode"},
		{"bridge url", "provider:\n  mode: bridge\n  bridge_url: \"\"\n", "bridge_url is required"},
		{"attempts", "waiter:\n  max_attempts: -1\n", "max_attempts"},
		{"sub-second timeout", "node:\n  timeout: 500ms\n", "node.timeout must be at least 1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
