package ioc_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := ioc.Default()
	assert.Equal(t, []string{"91.92.242.30"}, c.MaliciousIPs)
	assert.Contains(t, c.MaliciousDomains, "webhook.site")
	assert.Contains(t, c.SafeDomains, "github.com")
	assert.Contains(t, c.SafeBinaries, "kubectl")
	assert.Contains(t, c.LegitPackages, "requests")
	assert.True(t, sort.StringsAreSorted(c.LegitPackages))
	assert.True(t, c.IsMaliciousPackage("event-stream"))
	assert.False(t, c.IsMaliciousPackage("requests"))
}

func TestDefaultReturnsIndependentCopies(t *testing.T) {
	a := ioc.Default()
	a.MaliciousIPs[0] = "10.0.0.1"
	b := ioc.Default()
	assert.Equal(t, "91.92.242.30", b.MaliciousIPs[0])
}

func TestMergeExtendsWithoutMutating(t *testing.T) {
	base := ioc.Default()
	merged := base.Merge(&ioc.File{
		MaliciousIPs:      []string{" 203.0.113.9 ", "91.92.242.30", ""},
		MaliciousDomains:  []string{"Evil.Example"},
		LegitPackages:     []string{"rich", "Flask"},
		MaliciousPackages: []string{" Evil-Pkg "},
	})

	assert.Equal(t, []string{"203.0.113.9", "91.92.242.30"}, merged.MaliciousIPs)
	assert.Contains(t, merged.MaliciousDomains, "evil.example")
	assert.Contains(t, merged.LegitPackages, "rich")
	assert.NotContains(t, merged.LegitPackages, "Flask")
	assert.Equal(t, 1, countOf(merged.LegitPackages, "flask"))
	assert.Contains(t, merged.MaliciousPackages, "evil-pkg")
	assert.Len(t, base.MaliciousIPs, 1)
	assert.NotContains(t, base.MaliciousDomains, "evil.example")
}

func TestParseFileJSON(t *testing.T) {
	f, err := ioc.ParseFile("ioc-database.json", []byte(`{"malicious_ips":["198.51.100.7"],"malicious_domains":["bad.example"]}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"198.51.100.7"}, f.MaliciousIPs)
	assert.Equal(t, []string{"bad.example"}, f.MaliciousDomains)
}

func TestParseFileYAML(t *testing.T) {
	f, err := ioc.ParseFile("catalog.yml", []byte("malicious_domains:\n  - bad.example\nsafe_binaries:\n  - terraform\n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"bad.example"}, f.MaliciousDomains)
	assert.Equal(t, []string{"terraform"}, f.SafeBinaries)
}

func TestParseFileMalformed(t *testing.T) {
	_, err := ioc.ParseFile("ioc-database.json", []byte(`{"malicious_ips": [`))
	require.Error(t, err)
}

func TestLoadMissingFileKeepsBuiltins(t *testing.T) {
	c, err := ioc.Load(filepath.Join(t.TempDir(), "absent.json"))
	require.Error(t, err)
	require.NotNil(t, c)
	assert.Equal(t, ioc.Default(), c)
}

func TestLoadMalformedFileKeepsBuiltins(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ioc-database.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0644))

	c, err := ioc.Load(path)
	require.Error(t, err)
	assert.Equal(t, ioc.Default(), c)
}

func TestLoadMergesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ioc-database.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"malicious_ips":["198.51.100.7"]}`), 0644))

	c, err := ioc.Load(path)
	require.NoError(t, err)
	assert.Contains(t, c.MaliciousIPs, "198.51.100.7")
	assert.Contains(t, c.MaliciousIPs, "91.92.242.30")
}

func TestLoadEmptyPath(t *testing.T) {
	c, err := ioc.Load("")
	require.NoError(t, err)
	assert.Equal(t, ioc.Default(), c)
}

func countOf(list []string, s string) int {
	n := 0
	for _, v := range list {
		if v == s {
			n++
		}
	}
	return n
}
