package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// resetFlags restores package flag variables between rootCmd executions.
func resetFlags() {
	flagConfig, flagFormat, flagOutput = "", "", ""
	flagRules, flagCatalog, flagLogLevel = "", "", ""
	flagNoColor = false
	flagDisableCategories = nil
	flagSlug, flagStatePath = "", ""
	flagHuman, flagJSON, flagRecord, flagMonitor = false, false, false, false
	flagScope = ""
	flagLimit = 20
	flagCheck = false
	exitCode = 0
}

// isolate points HOME and TMPDIR at fresh directories so no user
// configuration, history, or state leaks into a test.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("TMPDIR", t.TempDir())
	for _, name := range []string{
		"SKILLAUDIT_CATALOG", "SKILLAUDIT_FORMAT", "SKILLAUDIT_FETCH_BINARY",
		"SKILLAUDIT_HISTORY_DB", "SKILLAUDIT_STATE_PATH", "SKILLAUDIT_LOG_LEVEL",
		"SKILLAUDIT_NO_COLOR", "SKILLAUDIT_RULES", "SKILLAUDIT_DISABLED_CATEGORIES",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
	return home
}

func runCLI(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	resetFlags()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)
	defer rootCmd.SetOut(nil)
	defer rootCmd.SetErr(nil)

	err = rootCmd.Execute()
	return out.String(), errOut.String(), err
}

func writeSkill(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

const cleanSkill = "# Notes helper\n\nA short helper that formats meeting notes as bullet lists.\n"
