package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/garagon/skillaudit/internal/types"
)

const (
	borderWidth      = 60
	ruleWidth        = 56
	contentRunes     = 120
	maxMediumListed  = 10
	unknownLevelIcon = "❓"
)

var levelIcons = map[types.RiskLevel]string{
	types.RiskSafe:     "✅",
	types.RiskLow:      "\U0001F7E2",
	types.RiskMedium:   "\U0001F7E1",
	types.RiskHigh:     "\U0001F7E0",
	types.RiskCritical: "\U0001F534",
}

// HumanFormatter prints the bordered terminal report with a verdict line.
type HumanFormatter struct {
	NoColor bool
}

func (f *HumanFormatter) paint(attrs []color.Attribute, text string) string {
	if f.NoColor {
		return text
	}
	return color.New(attrs...).Sprint(text)
}

func (f *HumanFormatter) levelAttrs(level types.RiskLevel) []color.Attribute {
	switch level {
	case types.RiskSafe, types.RiskLow:
		return []color.Attribute{color.FgGreen, color.Bold}
	case types.RiskMedium:
		return []color.Attribute{color.FgYellow, color.Bold}
	default:
		return []color.Attribute{color.FgRed, color.Bold}
	}
}

func (f *HumanFormatter) severityAttrs(sev types.Severity) []color.Attribute {
	switch sev {
	case types.SeverityCritical:
		return []color.Attribute{color.FgRed, color.Bold}
	case types.SeverityHigh:
		return []color.Attribute{color.FgRed}
	case types.SeverityMedium:
		return []color.Attribute{color.FgYellow}
	default:
		return []color.Attribute{color.FgBlue}
	}
}

func (f *HumanFormatter) Format(w io.Writer, r *types.Report) error {
	border := strings.Repeat("=", borderWidth)
	icon, ok := levelIcons[r.RiskLevel]
	if !ok {
		icon = unknownLevelIcon
	}

	fmt.Fprintf(w, "\n%s\n", border)
	fmt.Fprintf(w, "  %s  %s %s  (Score: %d/100)\n",
		f.paint([]color.Attribute{color.Bold}, "SKILL AUDIT REPORT"),
		icon, f.paint(f.levelAttrs(r.RiskLevel), string(r.RiskLevel)), r.NumericScore)
	fmt.Fprintf(w, "%s\n", border)
	fmt.Fprintf(w, "  Path: %s\n", r.SkillPath)
	if r.SkillName != "" {
		fmt.Fprintf(w, "  Skill: %s\n", r.SkillName)
	}
	fmt.Fprintf(w, "  Files: %d\n", len(r.FileInventory))
	fmt.Fprintf(w, "  Findings: %d\n", r.TotalFindings)
	if r.WhitelistReduction != 0 {
		fmt.Fprintf(w, "  Whitelist reduction: -%d points\n", r.WhitelistReduction)
	}
	fmt.Fprintf(w, "%s\n\n", border)

	if len(r.SeverityCounts) > 0 {
		fmt.Fprintln(w, "  Severity Breakdown:")
		for _, sev := range severityOrder {
			if c := r.SeverityCounts[sev.String()]; c > 0 {
				fmt.Fprintf(w, "    %s: %d\n", f.paint(f.severityAttrs(sev), sev.String()), c)
			}
		}
		fmt.Fprintln(w)
	}

	if len(r.PermissionsRequested) > 0 {
		fmt.Fprintln(w, "  Permissions Requested:")
		for _, p := range r.PermissionsRequested {
			fmt.Fprintf(w, "    • %s — %s\n", p.Tool, p.Description)
		}
		fmt.Fprintln(w)
	}

	severe := filterBySeverity(r.Findings, func(s types.Severity) bool { return s >= types.SeverityHigh })
	if len(severe) > 0 {
		fmt.Fprintf(w, "  %s\n", f.paint([]color.Attribute{color.FgRed, color.Bold}, "⚠️  HIGH/CRITICAL FINDINGS:"))
		fmt.Fprintf(w, "  %s\n", strings.Repeat("-", ruleWidth))
		for _, finding := range severe {
			tactic := ""
			if finding.Tactic != "" {
				tactic = " [" + finding.Tactic + "]"
			}
			fmt.Fprintf(w, "  %s %s%s\n",
				f.paint(f.severityAttrs(finding.Severity), "["+finding.Severity.String()+"]"),
				finding.Category, tactic)
			fmt.Fprintf(w, "    File: %s:%d\n", finding.File, finding.Line)
			fmt.Fprintf(w, "    %s\n", finding.Description)
			if finding.Content != "" {
				fmt.Fprintf(w, "    > %s\n", oneLine(types.TruncateRunes(finding.Content, contentRunes)))
			}
			fmt.Fprintln(w)
		}
	}

	medium := filterBySeverity(r.Findings, func(s types.Severity) bool { return s == types.SeverityMedium })
	if len(medium) > 0 {
		fmt.Fprintf(w, "  ⚡ MEDIUM findings: %d\n", len(medium))
		for i, finding := range medium {
			if i == maxMediumListed {
				break
			}
			fmt.Fprintf(w, "    • %s:%d — %s\n", finding.File, finding.Line, finding.Description)
		}
		if len(medium) > maxMediumListed {
			fmt.Fprintf(w, "    ... and %d more\n", len(medium)-maxMediumListed)
		}
		fmt.Fprintln(w)
	}

	low := filterBySeverity(r.Findings, func(s types.Severity) bool { return s == types.SeverityLow })
	if len(low) > 0 {
		fmt.Fprintf(w, "  ℹ️  LOW findings: %d (informational)\n\n", len(low))
	}

	fmt.Fprintf(w, "%s\n", border)
	fmt.Fprintf(w, "  %s\n", f.verdict(r))
	fmt.Fprintf(w, "%s\n\n", border)
	return nil
}

// Verdict returns the plain verdict line for a report.
func Verdict(r *types.Report) string {
	switch r.ExitCode() {
	case 0:
		return "✅ VERDICT: Safe to install"
	case 1:
		return "⚠️  VERDICT: Manual review recommended"
	default:
		return "\U0001F6AB VERDICT: BLOCKED — Do not install"
	}
}

func (f *HumanFormatter) verdict(r *types.Report) string {
	var attrs []color.Attribute
	switch r.ExitCode() {
	case 0:
		attrs = []color.Attribute{color.FgGreen, color.Bold}
	case 1:
		attrs = []color.Attribute{color.FgYellow, color.Bold}
	default:
		attrs = []color.Attribute{color.FgRed, color.Bold}
	}
	return f.paint(attrs, Verdict(r))
}
