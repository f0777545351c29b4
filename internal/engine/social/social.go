// Package social matches persuasion phrasing (urgency, false authority,
// fear, fake-driver lures) in the prose documents of a skill.
package social

import (
	"fmt"

	"github.com/garagon/skillaudit/internal/rules"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
)

// Category is the finding category shared by every phrase group.
const Category = "social_engineering"

// Scanner is the social-engineering phase.
type Scanner struct {
	groups []*rules.CompiledCategory
}

// New creates a scanner over the social-scope categories of compiled.
func New(compiled []*rules.CompiledCategory) *Scanner {
	return &Scanner{groups: rules.ByScope(compiled, rules.ScopeSocial)}
}

func (s *Scanner) Name() string { return "social_engineering" }

func (s *Scanner) Run(tree *scanner.Tree) []types.Finding {
	var findings []types.Finding
	for _, f := range tree.Files() {
		if !f.Readable() || !scanner.IsSocialDoc(f.Ext) {
			continue
		}
		lines, ok := tree.ReadLines(f)
		if !ok {
			continue
		}
		findings = append(findings, s.ScanLines(f.RelPath, lines)...)
	}
	return findings
}

// ScanLines matches every phrase group against each line. Group severity
// is applied as is; documents are the expected home of this text.
func (s *Scanner) ScanLines(rel string, lines []string) []types.Finding {
	var findings []types.Finding
	for i, line := range lines {
		for _, g := range s.groups {
			label := g.Label
			if label == "" {
				label = g.Name
			}
			for _, hit := range g.MatchLine(line) {
				findings = append(findings, types.Finding{
					Category:    Category,
					Severity:    g.Severity,
					File:        rel,
					Line:        i + 1,
					Description: fmt.Sprintf("%s: %s", label, hit.Description),
					Content:     types.Excerpt(line),
					Tactic:      g.Tactic,
				})
			}
		}
	}
	return findings
}
