// Package deps checks the skill's dependency manifests: a flat
// requirements.txt list and an npm-style package.json.
package deps

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
	"go.uber.org/zap"
)

// Category is the finding category of this layer.
const Category = "dependencies"

// Manifest file names, relative to the audit root.
const (
	RequirementsFile = "requirements.txt"
	PackageJSONFile  = "package.json"
)

const (
	tacticSupplyChain   = "T1195.001 - Supply Chain Compromise"
	tacticInstallHook   = "T1195.002 - Compromise Software Supply Chain"
	maxHookCommandRunes = 100
	maxTypoDistance     = 2
)

// versionSplitRe cuts a requirement line at its first version or extras marker.
var versionSplitRe = regexp.MustCompile(`[>=<!~\[]`)

// installHooks run automatically during npm install.
var installHooks = map[string]bool{
	"preinstall":  true,
	"install":     true,
	"postinstall": true,
}

// Scanner is the dependency phase.
type Scanner struct {
	catalog *ioc.Catalog
	log     *zap.Logger
}

// New creates a dependency scanner.
func New(catalog *ioc.Catalog, log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{catalog: catalog, log: log}
}

func (s *Scanner) Name() string { return "dependencies" }

func (s *Scanner) Run(tree *scanner.Tree) []types.Finding {
	var findings []types.Finding
	if f, ok := tree.Lookup(RequirementsFile); ok {
		if lines, ok := tree.ReadLines(f); ok {
			findings = append(findings, s.ScanRequirements(lines)...)
		}
	}
	if f, ok := tree.Lookup(PackageJSONFile); ok {
		if content, ok := tree.ReadText(f); ok {
			got, err := s.ScanPackageJSON([]byte(content))
			if err != nil {
				s.log.Debug("skipping malformed package.json", zap.Error(err))
			}
			findings = append(findings, got...)
		}
	}
	return findings
}

// ScanRequirements checks each requirement line. Known-malicious names are
// CRITICAL; names within two character differences of a legitimate package
// are HIGH typosquat candidates; every non-malicious dependency is also
// recorded as LOW.
func (s *Scanner) ScanRequirements(lines []string) []types.Finding {
	var findings []types.Finding
	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		num := i + 1
		pkg := PackageName(line)
		excerpt := types.Excerpt(line)

		if s.catalog.IsMaliciousPackage(pkg) {
			findings = append(findings, types.Finding{
				Category:    Category,
				Severity:    types.SeverityCritical,
				File:        RequirementsFile,
				Line:        num,
				Description: fmt.Sprintf("Known malicious package: %s", pkg),
				Content:     excerpt,
				Tactic:      tacticSupplyChain,
			})
			continue
		}

		for _, legit := range s.catalog.LegitPackages {
			if pkg != legit && CloseName(pkg, legit) {
				findings = append(findings, types.Finding{
					Category:    Category,
					Severity:    types.SeverityHigh,
					File:        RequirementsFile,
					Line:        num,
					Description: fmt.Sprintf("Possible typosquat of '%s': %s", legit, pkg),
					Content:     excerpt,
					Tactic:      tacticSupplyChain,
				})
			}
		}
		findings = append(findings, types.Finding{
			Category:    Category,
			Severity:    types.SeverityLow,
			File:        RequirementsFile,
			Line:        num,
			Description: fmt.Sprintf("External dependency: %s", pkg),
			Content:     excerpt,
		})
	}
	return findings
}

// packageJSON holds the sections of package.json this layer reads. Each
// section is decoded on its own so one malformed section does not hide
// the others.
type packageJSON struct {
	Dependencies    json.RawMessage `json:"dependencies"`
	DevDependencies json.RawMessage `json:"devDependencies"`
	Scripts         json.RawMessage `json:"scripts"`
}

// ScanPackageJSON flags known-malicious declared dependencies and every
// install lifecycle hook. Keys are visited in sorted order.
func (s *Scanner) ScanPackageJSON(data []byte) ([]types.Finding, error) {
	var pkg packageJSON
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("parsing package.json: %w", err)
	}

	var findings []types.Finding
	for _, section := range []json.RawMessage{pkg.Dependencies, pkg.DevDependencies} {
		for _, name := range sortedKeys(section) {
			if s.catalog.IsMaliciousPackage(name) {
				findings = append(findings, types.Finding{
					Category:    Category,
					Severity:    types.SeverityCritical,
					File:        PackageJSONFile,
					Description: fmt.Sprintf("Known malicious package: %s", name),
					Tactic:      tacticSupplyChain,
				})
			}
		}
	}

	var scripts map[string]json.RawMessage
	if len(pkg.Scripts) > 0 && json.Unmarshal(pkg.Scripts, &scripts) == nil {
		names := make([]string, 0, len(scripts))
		for name := range scripts {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if !installHooks[name] {
				continue
			}
			findings = append(findings, types.Finding{
				Category:    Category,
				Severity:    types.SeverityHigh,
				File:        PackageJSONFile,
				Description: fmt.Sprintf("Install hook '%s': %s", name, types.TruncateRunes(scriptText(scripts[name]), maxHookCommandRunes)),
				Tactic:      tacticInstallHook,
			})
		}
	}
	return findings, nil
}

// PackageName strips version specifiers and extras from a requirement line
// and lower-cases the result.
func PackageName(line string) string {
	name := line
	if loc := versionSplitRe.FindStringIndex(line); loc != nil {
		name = line[:loc[0]]
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// CloseName reports whether a and b differ by one or two characters,
// counting positional mismatches plus the length difference. Names whose
// lengths differ by more than two are never close.
func CloseName(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	gap := len(ra) - len(rb)
	if gap < 0 {
		gap = -gap
	}
	if gap > maxTypoDistance {
		return false
	}
	diffs := gap
	for i := 0; i < len(ra) && i < len(rb); i++ {
		if ra[i] != rb[i] {
			diffs++
			if diffs > maxTypoDistance {
				return false
			}
		}
	}
	return diffs > 0
}

func sortedKeys(section json.RawMessage) []string {
	if len(section) == 0 {
		return nil
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(section, &m); err != nil {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func scriptText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
