// Package output renders audit reports for the terminal, JSON, SARIF, and
// Markdown consumers.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/skillaudit/internal/types"
)

// Formatter renders one audit report.
type Formatter interface {
	Format(w io.Writer, report *types.Report) error
}

// Format names accepted by New.
const (
	FormatHuman    = "human"
	FormatJSON     = "json"
	FormatSARIF    = "sarif"
	FormatMarkdown = "markdown"
)

// Formats lists the accepted format names.
var Formats = []string{FormatHuman, FormatJSON, FormatSARIF, FormatMarkdown}

// New returns the formatter registered under name. "terminal" is accepted
// as an alias of "human".
func New(name string, noColor bool) (Formatter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatHuman, "terminal", "":
		return &HumanFormatter{NoColor: noColor}, nil
	case FormatJSON:
		return &JSONFormatter{}, nil
	case FormatSARIF:
		return &SARIFFormatter{}, nil
	case FormatMarkdown, "md":
		return &MarkdownFormatter{}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Formats, ", "))
	}
}

// severityOrder is the display order for severity groups.
var severityOrder = []types.Severity{
	types.SeverityCritical,
	types.SeverityHigh,
	types.SeverityMedium,
	types.SeverityLow,
}

func filterBySeverity(findings []types.Finding, keep func(types.Severity) bool) []types.Finding {
	var out []types.Finding
	for _, f := range findings {
		if keep(f.Severity) {
			out = append(out, f)
		}
	}
	return out
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\t", " ")
}
