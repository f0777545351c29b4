package skillaudit

import (
	"github.com/garagon/skillaudit/internal/ioc"
	"go.uber.org/zap"
)

// auditConfig holds the resolved configuration for an Auditor.
type auditConfig struct {
	logger         *zap.Logger
	catalogFile    string
	indicators     ioc.File
	customRulesDir string
	disabled       []string
	overrides      map[string]CategoryOverride
	progress       func(phase string)
	scope          string // only for ListCategories
}

// Option configures an Auditor.
type Option func(*auditConfig)

// WithLogger sets the logger used for warnings and debug tracing. The
// default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *auditConfig) {
		c.logger = l
	}
}

// WithCatalogFile extends the built-in indicator lists from a JSON or YAML
// file. A missing or malformed file is logged and ignored.
func WithCatalogFile(path string) Option {
	return func(c *auditConfig) {
		c.catalogFile = path
	}
}

// WithIndicators extends the built-in malicious IP and domain lists.
func WithIndicators(ips, domains []string) Option {
	return func(c *auditConfig) {
		c.indicators.MaliciousIPs = append(c.indicators.MaliciousIPs, ips...)
		c.indicators.MaliciousDomains = append(c.indicators.MaliciousDomains, domains...)
	}
}

// WithCustomRules loads additional category files from a directory.
func WithCustomRules(dir string) Option {
	return func(c *auditConfig) {
		c.customRulesDir = dir
	}
}

// WithDisabledCategories removes categories by id.
func WithDisabledCategories(ids ...string) Option {
	return func(c *auditConfig) {
		c.disabled = append(c.disabled, ids...)
	}
}

// WithCategoryOverrides changes category severities or disables them.
func WithCategoryOverrides(overrides map[string]CategoryOverride) Option {
	return func(c *auditConfig) {
		c.overrides = overrides
	}
}

// WithProgress registers a callback invoked with each phase name as it
// starts.
func WithProgress(fn func(phase string)) Option {
	return func(c *auditConfig) {
		c.progress = fn
	}
}

// WithScope filters ListCategories to "code" or "social" categories.
func WithScope(scope string) Option {
	return func(c *auditConfig) {
		c.scope = scope
	}
}
