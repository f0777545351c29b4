package rules

import (
	"regexp"

	"github.com/garagon/skillaudit/internal/types"
)

// Scope selects which scanner consumes a category.
type Scope string

const (
	ScopeCode   Scope = "code"   // line patterns over every text-like file
	ScopeSocial Scope = "social" // phrase groups over documentation-like files
)

// PromptInjectionID is the category re-applied to the entry document.
const PromptInjectionID = "prompt_injection"

// RawPattern is a single pattern as defined in YAML.
type RawPattern struct {
	Regex       string `yaml:"regex"`
	Description string `yaml:"description"`
}

// RawExamples contains test examples for category self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawCategory is the YAML representation of a detection category.
type RawCategory struct {
	ID            string       `yaml:"id"`
	Name          string       `yaml:"name"`
	Description   string       `yaml:"description"`
	Severity      string       `yaml:"severity"`
	Tactic        string       `yaml:"tactic"`
	Scope         Scope        `yaml:"scope"`
	Label         string       `yaml:"label"`
	ContextExempt bool         `yaml:"context_exempt"`
	Patterns      []RawPattern `yaml:"patterns"`
	Examples      RawExamples  `yaml:"examples"`
}

// CompiledPattern is a case-insensitive pattern ready for matching.
type CompiledPattern struct {
	Regex       *regexp.Regexp
	Description string
}

// CompiledCategory is a category compiled and ready for execution.
type CompiledCategory struct {
	ID          string
	Name        string
	Description string
	Severity    types.Severity
	Tactic      string
	Scope       Scope
	Label       string
	// ContextExempt categories keep their base severity inside
	// documentation paths and comment lines.
	ContextExempt bool
	Patterns      []CompiledPattern
	Examples      RawExamples
}

// MatchLine returns the patterns of c that match line, in catalog order.
func (c *CompiledCategory) MatchLine(line string) []CompiledPattern {
	var hits []CompiledPattern
	for _, p := range c.Patterns {
		if p.Regex.MatchString(line) {
			hits = append(hits, p)
		}
	}
	return hits
}
