package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/nub/internal/core/observability/log"
	"github.com/zeusync/nub/internal/server"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConfigCommandPrintsDefaults(t *testing.T) {
	out, err := runCommand(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "log_level: info")
	assert.Contains(t, out, "shutdown_timeout: 10s")

	cfg, err := server.LoadConfig(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, server.DefaultConfig().Listen, cfg.Listen)
}

func TestConfigFileAndOverrides(t *testing.T) {
	file := filepath.Join(t.TempDir(), "nub.yaml")
	require.NoError(t, os.WriteFile(file, []byte("listen: \":7000\"\nlog_level: warn\n"), 0o600))

	out, err := runCommand(t, "config", "--config", file)
	require.NoError(t, err)
	cfg, err := server.LoadConfig(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Listen)
	assert.Equal(t, log.LevelWarn, cfg.LogLevel)

	out, err = runCommand(t, "config", "-c", file, "--listen", ":7001", "--log-level", "debug")
	require.NoError(t, err)
	cfg, err = server.LoadConfig(strings.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Listen)
	assert.Equal(t, log.LevelDebug, cfg.LogLevel)
}

func TestConfigErrors(t *testing.T) {
	_, err := runCommand(t, "config", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "open config")

	_, err = runCommand(t, "config", "--log-level", "loud")
	assert.Error(t, err)

	_, err = runCommand(t, "serve", "extra")
	assert.Error(t, err)
}
