package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "graphbind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadMergesDefaults(t *testing.T) {
	path := writeConfig(t, `
logPayload: true
errors:
  hide: ["*errors.errorString"]
execution:
  maxConcurrency: 2
server:
  timeout: 3s
log:
  format: console
`)
	got, err := Load(path)
	require.NoError(t, err)

	want := Default()
	want.LogPayload = true
	want.Errors.Hide = []string{"*errors.errorString"}
	want.Execution.MaxConcurrency = 2
	want.Server.Timeout = 3 * time.Second
	want.Log.Format = "console"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadEmptyPath(t *testing.T) {
	got, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), got)
	require.Equal(t, "Server Error", got.Errors.DefaultMessage)
	require.Equal(t, int64(1<<20), got.Server.MaxBodyBytes)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = Load(writeConfig(t, "execution: [1, 2"))
	require.ErrorContains(t, err, "parse config")

	_, err = Load(writeConfig(t, "log:\n  format: xml\n"))
	require.ErrorContains(t, err, `log.format must be json or console, got "xml"`)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Execution.MaxConcurrency = -1
	cfg.Log.Format = "text"
	err := cfg.Validate()
	require.ErrorContains(t, err, "execution.maxConcurrency must not be negative")
	require.ErrorContains(t, err, "log.format")
}
