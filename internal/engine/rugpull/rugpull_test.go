package rugpull

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/garagon/skillaudit/internal/state"
	"github.com/garagon/skillaudit/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMonitor(t *testing.T) (*Monitor, *state.Store) {
	t.Helper()
	store := state.New(filepath.Join(t.TempDir(), "state.json"))
	m := New(store)
	m.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return m, store
}

func report(score int, files map[string]string, findings ...types.Finding) *types.Report {
	r := &types.Report{NumericScore: score, Findings: findings}
	for path, digest := range files {
		r.FileInventory = append(r.FileInventory, types.FileEntry{Path: path, SHA256: digest})
	}
	return r
}

func TestFirstAuditRecordsSnapshot(t *testing.T) {
	m, store := newMonitor(t)

	d := m.Observe("/skills/a", report(5, map[string]string{"SKILL.md": "aaa"}))
	assert.True(t, d.FirstAudit)
	assert.Empty(t, d.Changes)
	assert.False(t, d.Suspicious())

	snap, ok := store.Get("/skills/a")
	require.True(t, ok)
	assert.Equal(t, "2026-03-01T12:00:00Z", snap.AuditedAt)
	assert.Equal(t, map[string]string{"SKILL.md": "aaa"}, snap.Files)
}

func TestUnchangedInventoryNoDrift(t *testing.T) {
	m, _ := newMonitor(t)
	files := map[string]string{"SKILL.md": "aaa", "run.sh": "bbb"}

	m.Observe("k", report(5, files))
	d := m.Observe("k", report(5, files))
	assert.False(t, d.FirstAudit)
	assert.Empty(t, d.Changes)
	assert.Equal(t, 5, d.PreviousScore)
}

func TestDriftDetected(t *testing.T) {
	m, _ := newMonitor(t)
	m.Observe("k", report(3, map[string]string{"SKILL.md": "aaa", "old.py": "ccc"}))

	d := m.Observe("k", report(40,
		map[string]string{"SKILL.md": "zzz", "payload.sh": "ddd"},
		types.Finding{File: "payload.sh", Severity: types.SeverityCritical},
		types.Finding{File: "payload.sh", Severity: types.SeverityHigh},
		types.Finding{File: "SKILL.md", Severity: types.SeverityMedium},
	))

	require.Len(t, d.Changes, 3)
	assert.Equal(t, Change{Path: "SKILL.md", Kind: Changed, Before: "aaa", After: "zzz"}, d.Changes[0])
	assert.Equal(t, Change{Path: "old.py", Kind: Removed, Before: "ccc"}, d.Changes[1])
	assert.Equal(t, Change{Path: "payload.sh", Kind: Added, After: "ddd", Severe: 2}, d.Changes[2])
	assert.True(t, d.Suspicious())
	assert.Equal(t, 3, d.PreviousScore)
	assert.Equal(t, 40, d.CurrentScore)
}

func TestKeysAreIndependent(t *testing.T) {
	m, _ := newMonitor(t)
	m.Observe("a", report(0, map[string]string{"x": "1"}))
	d := m.Observe("b", report(0, map[string]string{"y": "2"}))
	assert.True(t, d.FirstAudit)
}

func TestCompareEmpty(t *testing.T) {
	assert.Empty(t, Compare(nil, nil))
	assert.Equal(t, []Change{{Path: "a", Kind: Added, After: "1"}}, Compare(nil, map[string]string{"a": "1"}))
}

func TestUndigestedFilesCompareBySizeAndModTime(t *testing.T) {
	m, _ := newMonitor(t)
	before := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	entries := func(size int64, mod time.Time) *types.Report {
		return &types.Report{FileInventory: []types.FileEntry{
			{Path: "empty.txt", Size: 0, ModTime: before},
			{Path: "model.bin", Size: size, ModTime: mod},
		}}
	}

	m.Observe("k", entries(12_000_000, before))
	d := m.Observe("k", entries(12_000_000, before))
	assert.Empty(t, d.Changes)

	d = m.Observe("k", entries(12_000_000, before.Add(time.Hour)))
	require.Len(t, d.Changes, 1)
	assert.Equal(t, "model.bin", d.Changes[0].Path)
	assert.Equal(t, Changed, d.Changes[0].Kind)

	d = m.Observe("k", entries(13_000_000, before.Add(time.Hour)))
	require.Len(t, d.Changes, 1)
	assert.Contains(t, d.Changes[0].After, "size:13000000")
}
