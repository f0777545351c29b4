package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/skillaudit/internal/types"
)

// Compile converts a RawCategory into a CompiledCategory ready for execution.
// Every pattern is compiled case-insensitively.
func Compile(raw RawCategory) (*CompiledCategory, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("category missing ID")
	}
	if len(raw.Patterns) == 0 {
		return nil, fmt.Errorf("category %s: no patterns defined", raw.ID)
	}

	sev, err := types.ParseSeverity(raw.Severity)
	if err != nil {
		return nil, fmt.Errorf("category %s: %w", raw.ID, err)
	}

	scope := raw.Scope
	switch scope {
	case "":
		scope = ScopeCode
	case ScopeCode, ScopeSocial:
	default:
		return nil, fmt.Errorf("category %s: unknown scope %q", raw.ID, raw.Scope)
	}

	name := raw.Name
	if name == "" {
		name = raw.ID
	}

	compiled := &CompiledCategory{
		ID:            raw.ID,
		Name:          name,
		Description:   raw.Description,
		Severity:      sev,
		Tactic:        raw.Tactic,
		Scope:         scope,
		Label:         raw.Label,
		ContextExempt: raw.ContextExempt,
		Examples:      raw.Examples,
	}

	for i, p := range raw.Patterns {
		cp, err := compilePattern(p)
		if err != nil {
			return nil, fmt.Errorf("category %s pattern %d: %w", raw.ID, i, err)
		}
		compiled.Patterns = append(compiled.Patterns, cp)
	}

	return compiled, nil
}

func compilePattern(p RawPattern) (CompiledPattern, error) {
	cp := CompiledPattern{Description: p.Description}
	if p.Regex == "" {
		return cp, fmt.Errorf("empty regex")
	}
	if p.Description == "" {
		return cp, fmt.Errorf("pattern %q has no description", p.Regex)
	}
	expr := p.Regex
	if !strings.HasPrefix(expr, "(?i)") {
		expr = "(?i)" + expr
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return cp, fmt.Errorf("invalid regex: %w", err)
	}
	cp.Regex = re
	return cp, nil
}

// CompileAll compiles a slice of raw categories, returning compiled categories and any errors.
func CompileAll(raws []RawCategory) ([]*CompiledCategory, []error) {
	var cats []*CompiledCategory
	var errs []error
	for _, raw := range raws {
		cc, err := Compile(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		cats = append(cats, cc)
	}
	return cats, errs
}

// Override allows per-category severity change or disable from config.
type Override struct {
	Severity string
	Disabled bool
}

// ApplyOverrides applies config-based category overrides to compiled categories.
// Disabled categories are removed. Severity overrides update the base severity.
// Invalid severity values produce an error but keep the original category.
func ApplyOverrides(compiled []*CompiledCategory, overrides map[string]Override) ([]*CompiledCategory, []error) {
	var result []*CompiledCategory
	var errs []error
	for _, cat := range compiled {
		ovr, ok := overrides[cat.ID]
		if !ok {
			result = append(result, cat)
			continue
		}
		if ovr.Disabled {
			continue
		}
		if ovr.Severity != "" {
			sev, err := types.ParseSeverity(ovr.Severity)
			if err != nil {
				errs = append(errs, fmt.Errorf("category %s override: %w", cat.ID, err))
				result = append(result, cat)
				continue
			}
			cat.Severity = sev
		}
		result = append(result, cat)
	}
	return result, errs
}

// FilterByIDs removes categories whose IDs are in the disabled set.
func FilterByIDs(compiled []*CompiledCategory, disabled map[string]bool) []*CompiledCategory {
	var result []*CompiledCategory
	for _, cat := range compiled {
		if !disabled[cat.ID] {
			result = append(result, cat)
		}
	}
	return result
}

// ByScope returns the categories of the given scope, preserving order.
func ByScope(compiled []*CompiledCategory, scope Scope) []*CompiledCategory {
	var result []*CompiledCategory
	for _, cat := range compiled {
		if cat.Scope == scope {
			result = append(result, cat)
		}
	}
	return result
}

// Find returns the category with the given ID, or nil.
func Find(compiled []*CompiledCategory, id string) *CompiledCategory {
	for _, cat := range compiled {
		if cat.ID == id {
			return cat
		}
	}
	return nil
}
