// Package manifest inspects the skill's entry document (SKILL.md): prompt
// injection phrasing, hidden Unicode, long encoded blobs, requested
// capabilities and declared metadata.
package manifest

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/skillaudit/internal/rules"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
)

// EntryDocument is the canonical entry document name, relative to the root.
const EntryDocument = "SKILL.md"

// Finding categories.
const (
	CategoryMissing   = "skill_md"
	CategoryInjection = "skill_md_injection"
)

const (
	tacticPromptInjection = "T1059.006 - Prompt Injection"
	tacticObfuscation     = "T1027 - Obfuscated Files or Information"
)

var longBase64Re = regexp.MustCompile(`[A-Za-z0-9+/]{60,}={0,2}`)

// hiddenRunes are zero-width, invisible and bidi-control code points.
var hiddenRunes = map[rune]string{
	'\u200B': "zero-width space",
	'\u200C': "zero-width non-joiner",
	'\u200D': "zero-width joiner",
	'\u2060': "word joiner",
	'\uFEFF': "zero-width no-break space",
	'\u00AD': "soft hyphen",
	'\u180E': "Mongolian vowel separator",
	'\u200E': "left-to-right mark",
	'\u200F': "right-to-left mark",
	'\u2061': "function application",
	'\u2062': "invisible times",
	'\u2063': "invisible separator",
	'\u2064': "invisible plus",
	'\u202A': "left-to-right embedding",
	'\u202B': "right-to-left embedding",
	'\u202C': "pop directional formatting",
	'\u202D': "left-to-right override",
	'\u202E': "right-to-left override",
	'\u2066': "left-to-right isolate",
	'\u2067': "right-to-left isolate",
	'\u2068': "first strong isolate",
	'\u2069': "pop directional isolate",
}

// capabilityKeywords are checked in this order against the lower-cased
// entry document.
var capabilityKeywords = []types.Permission{
	{Tool: "exec", Description: "shell execution"},
	{Tool: "browser", Description: "browser control"},
	{Tool: "web_fetch", Description: "web fetching"},
	{Tool: "web_search", Description: "web search"},
	{Tool: "message", Description: "messaging"},
	{Tool: "nodes", Description: "node control"},
	{Tool: "camera", Description: "camera access"},
	{Tool: "ssh", Description: "SSH access"},
	{Tool: "docker", Description: "Docker access"},
	{Tool: "sudo", Description: "sudo/root"},
	{Tool: "cron", Description: "scheduled tasks"},
}

// Scanner is the manifest phase. It also serves as the permission and
// metadata extractor for the same document.
type Scanner struct {
	injection *rules.CompiledCategory
}

// New creates a manifest scanner using the prompt-injection category of
// compiled. When that category is absent or disabled only the structural
// checks run.
func New(compiled []*rules.CompiledCategory) *Scanner {
	return &Scanner{injection: rules.Find(compiled, rules.PromptInjectionID)}
}

func (s *Scanner) Name() string { return "manifest" }

func (s *Scanner) Run(tree *scanner.Tree) []types.Finding {
	f, ok := tree.Lookup(EntryDocument)
	if !ok {
		return []types.Finding{{
			Category:    CategoryMissing,
			Severity:    types.SeverityMedium,
			File:        EntryDocument,
			Description: "No SKILL.md found",
		}}
	}
	content, ok := tree.ReadText(f)
	if !ok {
		return nil
	}
	return s.Scan(content)
}

// Scan checks the content of the entry document. Matches are never
// de-escalated: this document is instructions to the agent, not reference
// material.
func (s *Scanner) Scan(content string) []types.Finding {
	var findings []types.Finding

	if s.injection != nil {
		for i, line := range strings.Split(content, "\n") {
			for _, hit := range s.injection.MatchLine(line) {
				findings = append(findings, types.Finding{
					Category:    CategoryInjection,
					Severity:    types.SeverityCritical,
					File:        EntryDocument,
					Line:        i + 1,
					Description: fmt.Sprintf("SKILL.md prompt injection: %s", hit.Description),
					Content:     types.Excerpt(line),
					Tactic:      tacticPromptInjection,
				})
			}
		}
	}

	if r, name, found := firstHiddenRune(content); found {
		findings = append(findings, types.Finding{
			Category:    CategoryInjection,
			Severity:    types.SeverityCritical,
			File:        EntryDocument,
			Description: "Zero-width characters detected (hidden text injection)",
			Content:     fmt.Sprintf("first occurrence: U+%04X %s", r, name),
			Tactic:      tacticObfuscation,
		})
	}

	if longBase64Re.MatchString(content) {
		findings = append(findings, types.Finding{
			Category:    CategoryInjection,
			Severity:    types.SeverityHigh,
			File:        EntryDocument,
			Description: "Long base64-like string in SKILL.md",
			Tactic:      tacticObfuscation,
		})
	}
	return findings
}

// Permissions lists the capability keywords present in the entry document.
func (s *Scanner) Permissions(tree *scanner.Tree) []types.Permission {
	perms := []types.Permission{}
	f, ok := tree.Lookup(EntryDocument)
	if !ok {
		return perms
	}
	content, ok := tree.ReadText(f)
	if !ok {
		return perms
	}
	return ExtractPermissions(content)
}

// ExtractPermissions returns the capability keywords found in content, in
// keyword order.
func ExtractPermissions(content string) []types.Permission {
	perms := []types.Permission{}
	lower := strings.ToLower(content)
	for _, kw := range capabilityKeywords {
		if strings.Contains(lower, kw.Tool) {
			perms = append(perms, kw)
		}
	}
	return perms
}

func firstHiddenRune(content string) (rune, string, bool) {
	for _, r := range content {
		if name, ok := hiddenRunes[r]; ok {
			return r, name, true
		}
	}
	return 0, "", false
}
