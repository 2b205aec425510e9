package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
execution_api: "http://localhost:8545"
database_url: "postgres://localhost/pevm"
server_addr: ":8080"
chain_id: 1
start_block: 100
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, defaultTraceConcurrency, cfg.TraceConcurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvOverlay(t *testing.T) {
	path := writeConfig(t, `
execution_api: "http://localhost:8545"
database_url: "postgres://localhost/pevm"
server_addr: ":8080"
chain_id: 1
`)

	t.Setenv("PEVM_SERVER_ADDR", ":9090")
	t.Setenv("PEVM_CHAIN_ID", "10")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.ServerAddr)
	assert.Equal(t, int64(10), cfg.ChainID)
}

func TestLoad_MissingRequiredField(t *testing.T) {
	path := writeConfig(t, `
execution_api: "http://localhost:8545"
`)

	_, err := Load(path)
	assert.Error(t, err)
}
