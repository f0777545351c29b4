package commands

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/garagon/skillaudit/internal/config"
	"github.com/garagon/skillaudit/internal/ioc"
)

func TestInitCreatesFiles(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, runInit(nil, []string{dir}))

	cfg, err := config.LoadFile(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
	require.Equal(t, "human", cfg.Format)

	data, err := os.ReadFile(filepath.Join(dir, "ioc-database.json"))
	require.NoError(t, err)
	var f ioc.File
	require.NoError(t, json.Unmarshal(data, &f))
}

func TestInitSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	existing := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(existing, []byte("format: json\n"), 0o600))

	require.NoError(t, runInit(nil, []string{dir}))

	data, err := os.ReadFile(existing)
	require.NoError(t, err)
	require.Equal(t, "format: json\n", string(data))

	_, err = os.Stat(filepath.Join(dir, "ioc-database.json"))
	require.NoError(t, err)
}

func TestInitCreatesSubdirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "sub", "project")

	require.NoError(t, runInit(nil, []string{dir}))
	_, err := os.Stat(filepath.Join(dir, "config.yml"))
	require.NoError(t, err)
}

func TestInitDefaultDir(t *testing.T) {
	home := isolate(t)

	require.NoError(t, runInit(nil, nil))
	_, err := os.Stat(filepath.Join(home, ".skillaudit", "config.yml"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(home, ".skillaudit", "ioc-database.json"))
	require.NoError(t, err)
}
