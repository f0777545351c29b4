// Package skillaudit is a static security auditor for agent skill bundles.
// It walks a skill directory, runs a fixed sequence of detection layers
// (inventory, code patterns, social engineering, deobfuscation,
// dependencies, entry document), and reduces the findings to a 0-100 risk
// score with a five-band risk level.
//
// This is the library entry point. For the CLI tool, see cmd/skillaudit/.
package skillaudit

import (
	"fmt"
	"sort"
	"strings"

	"github.com/garagon/skillaudit/internal/engine/deps"
	"github.com/garagon/skillaudit/internal/engine/inventory"
	"github.com/garagon/skillaudit/internal/engine/manifest"
	"github.com/garagon/skillaudit/internal/engine/pattern"
	"github.com/garagon/skillaudit/internal/engine/social"
	"github.com/garagon/skillaudit/internal/engine/whitelist"
	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/rules"
	"github.com/garagon/skillaudit/internal/rules/builtin"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
	"go.uber.org/zap"
)

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	Severity   = types.Severity
	Finding    = types.Finding
	FileEntry  = types.FileEntry
	Permission = types.Permission
	RiskLevel  = types.RiskLevel
	Report     = types.Report
)

const (
	SeverityClean    = types.SeverityClean
	SeverityLow      = types.SeverityLow
	SeverityMedium   = types.SeverityMedium
	SeverityHigh     = types.SeverityHigh
	SeverityCritical = types.SeverityCritical
)

const (
	RiskSafe     = types.RiskSafe
	RiskLow      = types.RiskLow
	RiskMedium   = types.RiskMedium
	RiskHigh     = types.RiskHigh
	RiskCritical = types.RiskCritical
)

// CategoryOverride changes the base severity of a category or disables it.
type CategoryOverride struct {
	Severity string
	Disabled bool
}

// CategoryInfo is summary metadata about a pattern category.
type CategoryInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Severity string `json:"severity"`
	Tactic   string `json:"mitre,omitempty"`
	Scope    string `json:"scope"`
	Patterns int    `json:"patterns"`
}

// CategoryDetail is the full definition of a category.
type CategoryDetail struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	Severity       string   `json:"severity"`
	Tactic         string   `json:"mitre,omitempty"`
	Scope          string   `json:"scope"`
	Label          string   `json:"label,omitempty"`
	ContextExempt  bool     `json:"context_exempt"`
	Patterns       []string `json:"patterns"`
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

// Auditor holds the compiled catalogs and can audit any number of roots,
// concurrently if needed.
type Auditor struct {
	scanner *scanner.Scanner
}

// New loads and compiles the catalogs once. It fails only when a
// requested custom rules directory cannot be read; malformed categories,
// invalid overrides, and an unusable indicator catalog are logged and
// skipped.
func New(opts ...Option) (*Auditor, error) {
	cfg := applyOpts(opts)
	compiled, err := loadAndCompile(cfg)
	if err != nil {
		return nil, err
	}
	return &Auditor{scanner: buildScanner(cfg, compiled, loadCatalog(cfg))}, nil
}

// Audit runs every detection layer against root and returns the report.
// It never fails: a missing root is itself reported as a finding.
func (a *Auditor) Audit(root string) *Report {
	return a.scanner.Audit(root)
}

// Phases lists the detection layers in run order.
func (a *Auditor) Phases() []string {
	return append([]string{"inventory"}, a.scanner.Phases()...)
}

// Audit is a convenience wrapper around New and Auditor.Audit.
func Audit(root string, opts ...Option) (*Report, error) {
	a, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return a.Audit(root), nil
}

// ListCategories returns the active categories, code scope first in run
// order, then social groups. Use WithScope to keep only one scope. A load
// failure is logged and yields an empty list.
func ListCategories(opts ...Option) []CategoryInfo {
	cfg := applyOpts(opts)
	compiled, err := loadAndCompile(cfg)
	if err != nil {
		cfg.logger.Warn("cannot list categories", zap.Error(err))
	}

	infos := []CategoryInfo{}
	for _, scope := range []rules.Scope{rules.ScopeCode, rules.ScopeSocial} {
		if cfg.scope != "" && !strings.EqualFold(cfg.scope, string(scope)) {
			continue
		}
		for _, c := range rules.ByScope(compiled, scope) {
			infos = append(infos, CategoryInfo{
				ID:       c.ID,
				Name:     c.Name,
				Severity: c.Severity.String(),
				Tactic:   c.Tactic,
				Scope:    string(c.Scope),
				Patterns: len(c.Patterns),
			})
		}
	}
	return infos
}

// ExplainCategory returns the full definition of the category id.
func ExplainCategory(id string, opts ...Option) (*CategoryDetail, error) {
	id = strings.ToLower(strings.TrimSpace(id))
	cfg := applyOpts(opts)
	compiled, err := loadAndCompile(cfg)
	if err != nil {
		return nil, err
	}

	found := rules.Find(compiled, id)
	if found == nil {
		return nil, fmt.Errorf("category %q not found", id)
	}

	patterns := make([]string, len(found.Patterns))
	for i, p := range found.Patterns {
		patterns[i] = fmt.Sprintf("%s  (%s)", p.Regex.String(), p.Description)
	}
	return &CategoryDetail{
		ID:             found.ID,
		Name:           found.Name,
		Description:    found.Description,
		Severity:       found.Severity.String(),
		Tactic:         found.Tactic,
		Scope:          string(found.Scope),
		Label:          found.Label,
		ContextExempt:  found.ContextExempt,
		Patterns:       patterns,
		TruePositives:  nonNil(found.Examples.TruePositive),
		FalsePositives: nonNil(found.Examples.FalsePositive),
	}, nil
}

// CategoryIDs returns every active category id, sorted.
func CategoryIDs(opts ...Option) []string {
	infos := ListCategories(opts...)
	ids := make([]string, len(infos))
	for i, c := range infos {
		ids[i] = c.ID
	}
	sort.Strings(ids)
	return ids
}

func applyOpts(opts []Option) *auditConfig {
	cfg := &auditConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	return cfg
}

// loadAndCompile loads the built-in (and optionally custom) categories,
// compiles them, and applies overrides and disables.
func loadAndCompile(cfg *auditConfig) ([]*rules.CompiledCategory, error) {
	raw, err := rules.LoadFromFS(builtin.FS())
	if err != nil {
		return nil, fmt.Errorf("loading built-in categories: %w", err)
	}

	if cfg.customRulesDir != "" {
		custom, err := rules.LoadFromDir(cfg.customRulesDir, cfg.logger)
		if err != nil {
			return nil, fmt.Errorf("loading custom categories from %s: %w", cfg.customRulesDir, err)
		}
		raw = append(raw, custom...)
	}

	compiled, compileErrs := rules.CompileAll(raw)
	for _, e := range compileErrs {
		cfg.logger.Warn("skipping category", zap.Error(e))
	}

	if len(cfg.overrides) > 0 {
		overrides := make(map[string]rules.Override, len(cfg.overrides))
		for id, o := range cfg.overrides {
			overrides[id] = rules.Override{Severity: o.Severity, Disabled: o.Disabled}
		}
		var overrideErrs []error
		compiled, overrideErrs = rules.ApplyOverrides(compiled, overrides)
		for _, e := range overrideErrs {
			cfg.logger.Warn("ignoring category override", zap.Error(e))
		}
	}

	if len(cfg.disabled) > 0 {
		disabled := make(map[string]bool, len(cfg.disabled))
		for _, id := range cfg.disabled {
			disabled[strings.TrimSpace(id)] = true
		}
		compiled = rules.FilterByIDs(compiled, disabled)
	}
	return compiled, nil
}

func loadCatalog(cfg *auditConfig) *ioc.Catalog {
	catalog, err := ioc.Load(cfg.catalogFile)
	if err != nil {
		cfg.logger.Warn("using built-in indicator lists only",
			zap.String("catalog", cfg.catalogFile), zap.Error(err))
	}
	if len(cfg.indicators.MaliciousIPs) > 0 || len(cfg.indicators.MaliciousDomains) > 0 {
		catalog = catalog.Merge(&cfg.indicators)
	}
	return catalog
}

// buildScanner wires the detection layers in their fixed order.
func buildScanner(cfg *auditConfig, compiled []*rules.CompiledCategory, catalog *ioc.Catalog) *scanner.Scanner {
	s := scanner.New(cfg.logger)
	s.SetProgress(cfg.progress)

	doc := manifest.New(compiled)
	s.SetInventory(inventory.New(cfg.logger))
	s.RegisterPhase(pattern.NewMatcher(rules.ByScope(compiled, rules.ScopeCode), catalog))
	s.RegisterPhase(social.New(rules.ByScope(compiled, rules.ScopeSocial)))
	s.RegisterPhase(pattern.NewDecoder(catalog))
	s.RegisterPhase(deps.New(catalog, cfg.logger))
	s.RegisterPhase(doc)
	s.SetPermissionExtractor(doc)
	s.SetMetadataExtractor(doc)
	s.SetReducer(whitelist.New(catalog))
	return s
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
