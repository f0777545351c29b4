package whitelist_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garagon/skillaudit/internal/engine/whitelist"
	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	r := whitelist.New(ioc.Default())
	tests := []struct {
		name   string
		corpus string
		want   int
	}{
		{"empty", "", 0},
		{"one binary floors to zero", "run curl to fetch", 0},
		{"two binaries", "use git and docker", 1},
		{"binary as substring only", "legit dockerfile", 0},
		{"domain", "see https://github.com/org/repo", 1},
		{"domain counted once", "github.com github.com github.com", 1},
		{"domains and binaries", "pypi.org npmjs.org with npm and pip", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Score(tt.corpus))
		})
	}
}

func TestScoreCapped(t *testing.T) {
	c := ioc.Default()
	corpus := ""
	for _, d := range c.SafeDomains {
		corpus += d + " "
	}
	for _, b := range c.SafeBinaries {
		corpus += b + " "
	}
	assert.Equal(t, 15, whitelist.New(c).Score(corpus))
}

func TestReductionReadsTextFilesOnly(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte("Install from GitHub.com"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "run.sh"), []byte("kubectl apply\nhelm"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blob.bin"), []byte("pypi.org crates.io clawhub.ai"), 0644))

	r := whitelist.New(ioc.Default())
	assert.Equal(t, 1, r.Reduction(scanner.OpenTree(dir, nil)))
}

func TestReductionMissingRoot(t *testing.T) {
	r := whitelist.New(ioc.Default())
	assert.Equal(t, 0, r.Reduction(scanner.OpenTree(filepath.Join(t.TempDir(), "nope"), nil)))
}
