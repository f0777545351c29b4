package scanner_test

import (
	"path/filepath"
	"testing"

	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
	"github.com/stretchr/testify/require"
)

// mockPhase emits its findings once per text file.
type mockPhase struct {
	name     string
	findings []types.Finding
}

func (m *mockPhase) Name() string { return m.name }

func (m *mockPhase) Run(tree *scanner.Tree) []types.Finding {
	var out []types.Finding
	for _, f := range tree.TextFiles() {
		for _, fd := range m.findings {
			fd.File = f.RelPath
			out = append(out, fd)
		}
	}
	return out
}

type fixedReducer int

func (r fixedReducer) Reduction(*scanner.Tree) int { return int(r) }

type fixedInventory struct{}

func (fixedInventory) Inventory(tree *scanner.Tree) ([]types.FileEntry, []types.Finding) {
	var entries []types.FileEntry
	for _, f := range tree.Files() {
		entries = append(entries, types.FileEntry{Path: f.RelPath, Size: f.Size, Extension: f.Ext})
	}
	return entries, nil
}

func TestScannerRunsPhasesInOrder(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "print(1)")

	var seen []string
	s := scanner.New(nil)
	s.SetInventory(fixedInventory{})
	s.RegisterPhase(&mockPhase{name: "first"})
	s.RegisterPhase(&mockPhase{name: "second"})
	s.SetProgress(func(p string) { seen = append(seen, p) })

	report := s.Audit(dir)
	require.Equal(t, []string{"inventory", "first", "second"}, seen)
	require.Equal(t, []string{"first", "second"}, s.Phases())
	require.Len(t, report.FileInventory, 1)
	require.Equal(t, 0, report.NumericScore)
	require.Equal(t, types.RiskSafe, report.RiskLevel)
	require.Equal(t, types.SeverityClean, report.RiskScore)
	require.NotNil(t, report.PermissionsRequested)
}

func TestScannerDeduplicatesBeforeScoring(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "x")

	dup := types.Finding{Category: "c", Severity: types.SeverityCritical, Line: 1, Description: "same"}
	s := scanner.New(nil)
	s.RegisterPhase(&mockPhase{name: "a", findings: []types.Finding{dup}})
	s.RegisterPhase(&mockPhase{name: "b", findings: []types.Finding{dup}})

	report := s.Audit(dir)
	require.Equal(t, 1, report.TotalFindings)
	require.Equal(t, 15, report.NumericScore)
	require.Equal(t, map[string]int{"CRITICAL": 1}, report.SeverityCounts)
	require.Equal(t, map[string]int{"c": 1}, report.CategoryCounts)
}

func TestScannerAppliesBoundedReduction(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.py", "x")

	high := types.Finding{Category: "c", Severity: types.SeverityHigh, Line: 1, Description: "d"}
	s := scanner.New(nil)
	s.RegisterPhase(&mockPhase{name: "a", findings: []types.Finding{high}})
	s.SetReducer(fixedReducer(40))

	report := s.Audit(dir)
	require.Equal(t, 15, report.WhitelistReduction)
	require.Equal(t, 0, report.NumericScore)
}

func TestScannerClampsScore(t *testing.T) {
	dir := t.TempDir()
	for i := 0; i < 8; i++ {
		writeFile(t, dir, filepath.Join("src", string(rune('a'+i))+".py"), "x")
	}
	crit := types.Finding{Category: "c", Severity: types.SeverityCritical, Line: 1, Description: "d"}
	s := scanner.New(nil)
	s.RegisterPhase(&mockPhase{name: "a", findings: []types.Finding{crit}})

	report := s.Audit(dir)
	require.Equal(t, 8, report.TotalFindings)
	require.Equal(t, 100, report.NumericScore)
	require.Equal(t, types.RiskCritical, report.RiskLevel)
	require.Equal(t, 2, report.ExitCode())
}

func TestScannerIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.py", "x")
	writeFile(t, dir, "b.py", "x")

	s := scanner.New(nil)
	s.SetInventory(fixedInventory{})
	s.RegisterPhase(&mockPhase{name: "a", findings: []types.Finding{{Category: "c", Severity: types.SeverityMedium, Line: 2, Description: "d"}}})

	require.Equal(t, s.Audit(dir), s.Audit(dir))
}
