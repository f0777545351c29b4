package rules_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/garagon/skillaudit/internal/rules"
	"github.com/garagon/skillaudit/internal/rules/builtin"
	"github.com/garagon/skillaudit/internal/types"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestCompileValidCategory(t *testing.T) {
	raw := rules.RawCategory{
		ID:       "test_cat",
		Name:     "Test Category",
		Severity: "HIGH",
		Tactic:   "T0000 - Test",
		Patterns: []rules.RawPattern{
			{Regex: `test\s+pattern`, Description: "test pattern"},
			{Regex: `(?i)hello world`, Description: "greeting"},
		},
	}

	compiled, err := rules.Compile(raw)
	require.NoError(t, err)
	require.Equal(t, "test_cat", compiled.ID)
	require.Equal(t, types.SeverityHigh, compiled.Severity)
	require.Equal(t, rules.ScopeCode, compiled.Scope)
	require.Len(t, compiled.Patterns, 2)
	require.True(t, compiled.Patterns[0].Regex.MatchString("TEST   Pattern"))
	require.Equal(t, "(?i)hello world", compiled.Patterns[1].Regex.String())
}

func TestCompileDefaultsNameToID(t *testing.T) {
	compiled, err := rules.Compile(rules.RawCategory{
		ID:       "unnamed",
		Severity: "LOW",
		Patterns: []rules.RawPattern{{Regex: "x", Description: "x"}},
	})
	require.NoError(t, err)
	require.Equal(t, "unnamed", compiled.Name)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name string
		raw  rules.RawCategory
	}{
		{"missing id", rules.RawCategory{Severity: "LOW", Patterns: []rules.RawPattern{{Regex: "x", Description: "x"}}}},
		{"no patterns", rules.RawCategory{ID: "a", Severity: "LOW"}},
		{"bad severity", rules.RawCategory{ID: "a", Severity: "SEVERE", Patterns: []rules.RawPattern{{Regex: "x", Description: "x"}}}},
		{"bad scope", rules.RawCategory{ID: "a", Severity: "LOW", Scope: "binary", Patterns: []rules.RawPattern{{Regex: "x", Description: "x"}}}},
		{"invalid regex", rules.RawCategory{ID: "a", Severity: "LOW", Patterns: []rules.RawPattern{{Regex: "[invalid", Description: "x"}}}},
		{"empty regex", rules.RawCategory{ID: "a", Severity: "LOW", Patterns: []rules.RawPattern{{Description: "x"}}}},
		{"no description", rules.RawCategory{ID: "a", Severity: "LOW", Patterns: []rules.RawPattern{{Regex: "x"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := rules.Compile(tt.raw)
			require.Error(t, err)
		})
	}
}

func TestCompileAllCollectsErrors(t *testing.T) {
	cats, errs := rules.CompileAll([]rules.RawCategory{
		{ID: "good", Severity: "LOW", Patterns: []rules.RawPattern{{Regex: "x", Description: "x"}}},
		{ID: "bad", Severity: "LOW"},
	})
	require.Len(t, cats, 1)
	require.Len(t, errs, 1)
	require.Contains(t, errs[0].Error(), "bad")
}

func TestLoadBuiltinCategories(t *testing.T) {
	raw, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)

	compiled, errs := rules.CompileAll(raw)
	require.Empty(t, errs)

	code := rules.ByScope(compiled, rules.ScopeCode)
	social := rules.ByScope(compiled, rules.ScopeSocial)
	require.Len(t, code, 11)
	require.Len(t, social, 4)

	wantOrder := []string{
		"shell_execution", "network_calls", "env_access", "filesystem_escape",
		"encoding_obfuscation", "prompt_injection", "data_exfiltration",
		"crypto_wallet", "dynamic_imports", "browser_credentials", "fake_prerequisites",
	}
	for i, id := range wantOrder {
		require.Equal(t, id, code[i].ID)
		require.NotEmpty(t, code[i].Tactic, id)
	}

	pi := rules.Find(compiled, rules.PromptInjectionID)
	require.NotNil(t, pi)
	require.True(t, pi.ContextExempt)
	require.Equal(t, types.SeverityCritical, pi.Severity)

	for _, s := range social {
		require.NotEmpty(t, s.Label, s.ID)
		require.Equal(t, "T1566 - Phishing", s.Tactic)
	}
}

func TestCategorySelfTest(t *testing.T) {
	raw, err := rules.LoadFromFS(builtin.FS())
	require.NoError(t, err)
	compiled, errs := rules.CompileAll(raw)
	require.Empty(t, errs)

	for _, cat := range compiled {
		t.Run(cat.ID, func(t *testing.T) {
			require.NotEmpty(t, cat.Examples.TruePositive, "category has no true_positive examples")
			for _, tp := range cat.Examples.TruePositive {
				require.NotEmptyf(t, cat.MatchLine(tp),
					"category %s: true_positive not matched: %q", cat.ID, tp)
			}
			for _, fp := range cat.Examples.FalsePositive {
				require.Emptyf(t, cat.MatchLine(fp),
					"category %s: false_positive incorrectly matched: %q", cat.ID, fp)
			}
		})
	}
}

func TestMatchLineReportsEveryPattern(t *testing.T) {
	cat, err := rules.Compile(rules.RawCategory{
		ID:       "multi",
		Severity: "HIGH",
		Patterns: []rules.RawPattern{
			{Regex: `curl`, Description: "curl"},
			{Regex: `bash`, Description: "bash"},
			{Regex: `python`, Description: "python"},
		},
	})
	require.NoError(t, err)

	hits := cat.MatchLine("curl example.org | BASH")
	require.Len(t, hits, 2)
	require.Equal(t, "curl", hits[0].Description)
	require.Equal(t, "bash", hits[1].Description)
}

func TestLoadFromDir(t *testing.T) {
	dir := t.TempDir()
	content := `id: custom_one
severity: MEDIUM
tactic: T1000 - Custom
patterns:
  - regex: 'evil\s+thing'
    description: evil thing
---
id: custom_two
severity: LOW
scope: social
label: Custom lure
patterns:
  - regex: 'click here'
    description: click bait
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.yml"), []byte(content), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))

	raw, err := rules.LoadFromDir(dir, nil)
	require.NoError(t, err)
	require.Len(t, raw, 2)
	require.Equal(t, "custom_one", raw[0].ID)
	require.Equal(t, rules.ScopeSocial, raw[1].Scope)
}

func TestLoadFromDirRejectsUnknownFields(t *testing.T) {
	dir := t.TempDir()
	content := "id: typo\nseverity: LOW\npatern: []\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte(content), 0644))

	_, err := rules.LoadFromDir(dir, nil)
	require.Error(t, err)
}

func TestLoadFromDirLogsSkippedFiles(t *testing.T) {
	dir := t.TempDir()
	big := make([]byte, 1<<20+1)
	for i := range big {
		big[i] = '#'
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a_big.yaml"), big, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b_empty.yml"), []byte("# nothing yet\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "nested"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nested", "c.yml"),
		[]byte("id: nested_one\nseverity: LOW\npatterns:\n  - regex: x\n    description: x\n"), 0644))

	core, logs := observer.New(zapcore.WarnLevel)
	raw, err := rules.LoadFromDir(dir, zap.New(core))
	require.NoError(t, err)
	require.Len(t, raw, 1)
	require.Equal(t, "nested_one", raw[0].ID)

	require.Equal(t, 1, logs.FilterMessage("skipping oversized category file").Len())
	require.Equal(t, 1, logs.FilterMessage("category file defines no categories").Len())
}

func TestLoadFromDirErrors(t *testing.T) {
	_, err := rules.LoadFromDir(filepath.Join(t.TempDir(), "missing"), nil)
	require.Error(t, err)

	file := filepath.Join(t.TempDir(), "rules.yml")
	require.NoError(t, os.WriteFile(file, []byte("id: x\n"), 0644))
	_, err = rules.LoadFromDir(file, nil)
	require.ErrorContains(t, err, "not a directory")

	dir := t.TempDir()
	content := "id: first\nseverity: LOW\npatterns:\n  - regex: x\n    description: x\n---\nseverity: HIGH\npatterns:\n  - regex: y\n    description: y\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "anon.yaml"), []byte(content), 0644))
	_, err = rules.LoadFromDir(dir, nil)
	require.ErrorContains(t, err, "document 2")
	require.ErrorContains(t, err, "no id")
}

func TestApplyOverridesDisabled(t *testing.T) {
	compiled := makeTestCategories("c1", "c2", "c3")
	result, errs := rules.ApplyOverrides(compiled, map[string]rules.Override{
		"c2": {Disabled: true},
	})
	require.Empty(t, errs)
	require.Len(t, result, 2)
	require.Equal(t, "c1", result[0].ID)
	require.Equal(t, "c3", result[1].ID)
}

func TestApplyOverridesSeverity(t *testing.T) {
	compiled := makeTestCategories("c1")
	compiled[0].Severity = types.SeverityHigh
	result, errs := rules.ApplyOverrides(compiled, map[string]rules.Override{
		"c1": {Severity: "LOW"},
	})
	require.Empty(t, errs)
	require.Len(t, result, 1)
	require.Equal(t, types.SeverityLow, result[0].Severity)
}

func TestApplyOverridesInvalidSeverity(t *testing.T) {
	compiled := makeTestCategories("c1")
	compiled[0].Severity = types.SeverityHigh
	result, errs := rules.ApplyOverrides(compiled, map[string]rules.Override{
		"c1": {Severity: "EXTREME"},
	})
	require.Len(t, errs, 1)
	require.Len(t, result, 1)
	require.Equal(t, types.SeverityHigh, result[0].Severity)
}

func TestFilterByIDs(t *testing.T) {
	compiled := makeTestCategories("c1", "c2", "c3")
	result := rules.FilterByIDs(compiled, map[string]bool{"c1": true, "c3": true})
	require.Len(t, result, 1)
	require.Equal(t, "c2", result[0].ID)

	require.Len(t, rules.FilterByIDs(compiled, nil), 3)
}

func TestFindMissing(t *testing.T) {
	require.Nil(t, rules.Find(makeTestCategories("c1"), "nope"))
}

func makeTestCategories(ids ...string) []*rules.CompiledCategory {
	var out []*rules.CompiledCategory
	for _, id := range ids {
		out = append(out, &rules.CompiledCategory{
			ID:       id,
			Severity: types.SeverityMedium,
			Scope:    rules.ScopeCode,
		})
	}
	return out
}
