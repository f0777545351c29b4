// Package pattern implements the line-oriented detection layers: catalog
// and indicator matching over text-like files, and the decode-and-rescan
// pass over base64 and hex-escaped blobs.
package pattern

import (
	"fmt"
	"strings"

	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/rules"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
)

// Finding categories emitted outside the catalog.
const (
	CategoryIOC           = "ioc"
	CategoryDeobfuscation = "deobfuscation"
)

// Tactic ids for indicator and decode findings.
const (
	TacticC2          = "T1071 - Application Layer Protocol"
	TacticObfuscation = "T1027 - Obfuscated Files or Information"
)

// Context de-escalation steps.
const (
	docNotches     = 2
	commentNotches = 1
)

// Matcher is the code pattern phase. It checks every line of every
// text-like file against the malicious indicator lists and the code-scope
// categories.
type Matcher struct {
	categories []*rules.CompiledCategory
	catalog    *ioc.Catalog
}

// NewMatcher creates a matcher over the code-scope categories of compiled.
func NewMatcher(compiled []*rules.CompiledCategory, catalog *ioc.Catalog) *Matcher {
	return &Matcher{
		categories: rules.ByScope(compiled, rules.ScopeCode),
		catalog:    catalog,
	}
}

func (m *Matcher) Name() string { return "code_patterns" }

func (m *Matcher) Run(tree *scanner.Tree) []types.Finding {
	var findings []types.Finding
	for _, f := range tree.TextFiles() {
		lines, ok := tree.ReadLines(f)
		if !ok {
			continue
		}
		findings = append(findings, m.ScanLines(f.RelPath, lines)...)
	}
	return findings
}

// ScanLines matches the lines of one file. rel decides the doc context and
// the comment syntax.
func (m *Matcher) ScanLines(rel string, lines []string) []types.Finding {
	var findings []types.Finding
	inDoc := scanner.IsDocPath(rel)
	ext := scanner.ExtOf(rel[strings.LastIndexByte(rel, '/')+1:])

	for i, line := range lines {
		num := i + 1
		excerpt := types.Excerpt(line)

		for _, ip := range m.catalog.MaliciousIPs {
			if strings.Contains(line, ip) {
				findings = append(findings, types.Finding{
					Category:    CategoryIOC,
					Severity:    types.SeverityCritical,
					File:        rel,
					Line:        num,
					Description: fmt.Sprintf("Known C2 server IP: %s", ip),
					Content:     excerpt,
					Tactic:      TacticC2,
				})
			}
		}

		lower := strings.ToLower(line)
		for _, domain := range m.catalog.MaliciousDomains {
			if !strings.Contains(lower, domain) {
				continue
			}
			sev := types.SeverityHigh
			if inDoc {
				sev = types.SeverityMedium
			}
			findings = append(findings, types.Finding{
				Category:    CategoryIOC,
				Severity:    sev,
				File:        rel,
				Line:        num,
				Description: fmt.Sprintf("Suspicious domain: %s", domain),
				Content:     excerpt,
				Tactic:      TacticC2,
			})
		}

		var inComment, commentChecked bool
		for _, cat := range m.categories {
			hits := cat.MatchLine(line)
			if len(hits) == 0 {
				continue
			}
			if !commentChecked {
				inComment = scanner.IsCommentLine(line, ext)
				commentChecked = true
			}
			sev := ContextSeverity(cat.Severity, cat.ContextExempt, inDoc, inComment)
			for _, hit := range hits {
				findings = append(findings, types.Finding{
					Category:    cat.ID,
					Severity:    sev,
					File:        rel,
					Line:        num,
					Description: hit.Description,
					Content:     excerpt,
					Tactic:      cat.Tactic,
				})
			}
		}
	}
	return findings
}

// ContextSeverity de-escalates base two notches inside documentation and
// one further notch on a comment line, saturating at SeverityClean.
// Exempt categories keep base.
func ContextSeverity(base types.Severity, exempt, inDoc, inComment bool) types.Severity {
	if exempt {
		return base
	}
	sev := base
	if inDoc {
		sev = sev.Downgrade(docNotches)
	}
	if inComment {
		sev = sev.Downgrade(commentNotches)
	}
	return sev
}
