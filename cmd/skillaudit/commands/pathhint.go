package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"go.uber.org/zap"

	"github.com/garagon/skillaudit/internal/config"
)

// pathHintMarker is created in the config directory once the hint was shown.
const pathHintMarker = ".path-hint-shown"

// installEnv is the part of the environment the PATH hint depends on.
type installEnv struct {
	exe    string // resolved executable path
	path   string // $PATH
	shell  string // $SHELL
	gobin  string // $GOBIN
	gopath string // $GOPATH
	goos   string
}

func currentInstallEnv() (installEnv, error) {
	exe, err := os.Executable()
	if err != nil {
		return installEnv{}, err
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return installEnv{
		exe:    exe,
		path:   os.Getenv("PATH"),
		shell:  os.Getenv("SHELL"),
		gobin:  os.Getenv("GOBIN"),
		gopath: os.Getenv("GOPATH"),
		goos:   runtime.GOOS,
	}, nil
}

// checkPathHint writes a one-time hint to w when skillaudit was installed
// with `go install` into a directory missing from PATH.
func checkPathHint(w io.Writer) {
	env, err := currentInstallEnv()
	if err != nil {
		logger.Debug("path hint skipped", zap.Error(err))
		return
	}
	hint, ok := pathHint(env)
	if !ok {
		return
	}
	dir, err := config.Dir()
	if err != nil {
		return
	}
	marker := filepath.Join(dir, pathHintMarker)
	if _, err := os.Stat(marker); err == nil {
		return
	}
	fmt.Fprint(w, hint)
	if err := os.MkdirAll(dir, 0o700); err == nil {
		if err := os.WriteFile(marker, nil, 0o600); err != nil {
			logger.Debug("recording path hint", zap.Error(err))
		}
	}
}

// pathHint returns the hint text for env, or false when the binary is not
// in a Go install directory or that directory is already on PATH.
func pathHint(env installEnv) (string, bool) {
	dir := filepath.Dir(env.exe)
	if !isGoInstallDir(dir, env) || dirInPATH(dir, env.path) {
		return "", false
	}
	rc, line := shellPathLine(env.shell, env.goos, dir)
	return fmt.Sprintf("\nTip: %s is not on your PATH. To run skillaudit from anywhere:\n\n  echo '%s' >> %s\n\n", dir, line, rc), true
}

// isGoInstallDir reports whether dir is where `go install` puts binaries:
// $GOBIN, $GOPATH/bin, or any directory ending in go/bin.
func isGoInstallDir(dir string, env installEnv) bool {
	dir = filepath.Clean(dir)
	if env.gobin != "" && filepath.Clean(env.gobin) == dir {
		return true
	}
	for _, p := range filepath.SplitList(env.gopath) {
		if p != "" && filepath.Join(p, "bin") == dir {
			return true
		}
	}
	return strings.HasSuffix(filepath.ToSlash(dir), "/go/bin")
}

func dirInPATH(dir, pathEnv string) bool {
	for _, p := range filepath.SplitList(pathEnv) {
		if p != "" && filepath.Clean(p) == dir {
			return true
		}
	}
	return false
}

// shellPathLine returns the rc file for shell and the line that adds dir
// to PATH there. An unknown shell falls back to zsh on macOS, bash elsewhere.
func shellPathLine(shell, goos, dir string) (rc, line string) {
	switch base := filepath.Base(shell); {
	case base == "fish":
		return "~/.config/fish/config.fish", "fish_add_path " + dir
	case base == "zsh":
		return "~/.zshrc", fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	case base == "bash":
		return "~/.bashrc", fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	case goos == "darwin":
		return "~/.zshrc", fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	default:
		return "~/.bashrc", fmt.Sprintf(`export PATH="%s:$PATH"`, dir)
	}
}
