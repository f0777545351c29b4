package state

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	s := New(path)
	s.Put("/skills/a", Snapshot{AuditedAt: "2026-01-01T00:00:00Z", NumericScore: 12, Files: map[string]string{"SKILL.md": "abc"}})
	s.Put("slug:weather", Snapshot{Files: map[string]string{"run.sh": ""}})
	require.NoError(t, s.Save())

	s2 := New(path)
	require.NoError(t, s2.Load())

	a, ok := s2.Get("/skills/a")
	require.True(t, ok)
	assert.Equal(t, 12, a.NumericScore)
	assert.Equal(t, "abc", a.Files["SKILL.md"])

	assert.Equal(t, []string{"/skills/a", "slug:weather"}, s2.Keys())

	_, ok = s2.Get("nonexistent")
	assert.False(t, ok)
}

func TestStoreLoadNonexistent(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "missing.json"))
	assert.NoError(t, s.Load())
	assert.Empty(t, s.Skills)
}

func TestStoreLoadEmptyObject(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0o600))

	s := New(path)
	require.NoError(t, s.Load())
	s.Put("k", Snapshot{})
	_, ok := s.Get("k")
	assert.True(t, ok)
}

func TestStoreLoadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	assert.Error(t, New(path).Load())
}

func TestStoreCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "deep", "state.json")

	s := New(path)
	s.Put("key", Snapshot{})
	require.NoError(t, s.Save())

	info, err := os.Stat(path)
	require.NoError(t, err)
	if runtime.GOOS != "windows" {
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestStoreRejectsSymlink(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	dir := t.TempDir()
	target := filepath.Join(dir, "real.json")
	require.NoError(t, os.WriteFile(target, []byte("{}"), 0o600))
	link := filepath.Join(dir, "state.json")
	require.NoError(t, os.Symlink(target, link))

	s := New(link)
	assert.Error(t, s.Load())
	assert.Error(t, s.Save())
}
