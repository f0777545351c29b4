package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/skillaudit/internal/types"
)

// MarkdownFormatter writes GitHub-flavored markdown for job summaries and
// PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, r *types.Report) error {
	fmt.Fprintf(w, "### %s Skill Audit: %s (score %d/100)\n\n", levelEmoji(r.RiskLevel), r.RiskLevel, r.NumericScore)
	fmt.Fprintf(w, "> **Path:** `%s` · %d files · %d findings", r.SkillPath, len(r.FileInventory), r.TotalFindings)
	if r.WhitelistReduction > 0 {
		fmt.Fprintf(w, " · whitelist -%d", r.WhitelistReduction)
	}
	fmt.Fprintf(w, "\n\n**%s**\n\n", strings.TrimSpace(Verdict(r)))

	if len(r.Findings) == 0 {
		fmt.Fprintf(w, "No findings.\n\n")
		f.printFooter(w)
		return nil
	}

	var badges []string
	for _, sev := range severityOrder {
		if c := r.SeverityCounts[sev.String()]; c > 0 {
			badges = append(badges, fmt.Sprintf("%s **%d %s**", severityEmoji(sev), c, sev))
		}
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))

	if len(r.PermissionsRequested) > 0 {
		fmt.Fprintf(w, "**Permissions requested:** ")
		tools := make([]string, 0, len(r.PermissionsRequested))
		for _, p := range r.PermissionsRequested {
			tools = append(tools, "`"+p.Tool+"`")
		}
		fmt.Fprintf(w, "%s\n\n", strings.Join(tools, ", "))
	}

	for _, sev := range severityOrder {
		filtered := filterBySeverity(r.Findings, func(s types.Severity) bool { return s == sev })
		if len(filtered) == 0 {
			continue
		}
		fmt.Fprintf(w, "<details%s>\n", openByDefault(sev))
		fmt.Fprintf(w, "<summary>%s <strong>%s (%d)</strong></summary>\n\n", severityEmoji(sev), sev, len(filtered))
		fmt.Fprintf(w, "| Category | Description | File | Line |\n")
		fmt.Fprintf(w, "|----------|-------------|------|------|\n")
		for _, finding := range filtered {
			desc := escapeMarkdown(finding.Description)
			if finding.Content != "" {
				desc += fmt.Sprintf("<br><code>%s</code>", escapeMarkdown(truncateMarkdown(finding.Content, 60)))
			}
			fmt.Fprintf(w, "| `%s` | %s | `%s` | L%d |\n", finding.Category, desc, finding.File, finding.Line)
		}
		fmt.Fprintf(w, "\n</details>\n\n")
	}

	f.printFooter(w)
	return nil
}

func (f *MarkdownFormatter) printFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Audited by [skillaudit](https://github.com/garagon/skillaudit) %s*\n", ToolVersion)
}

func levelEmoji(level types.RiskLevel) string {
	switch level {
	case types.RiskSafe:
		return ":white_check_mark:"
	case types.RiskLow:
		return ":green_circle:"
	case types.RiskMedium:
		return ":yellow_circle:"
	case types.RiskHigh:
		return ":orange_circle:"
	default:
		return ":red_circle:"
	}
}

func severityEmoji(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return ":red_circle:"
	case types.SeverityHigh:
		return ":orange_circle:"
	case types.SeverityMedium:
		return ":yellow_circle:"
	default:
		return ":blue_circle:"
	}
}

func openByDefault(sev types.Severity) string {
	if sev >= types.SeverityHigh {
		return " open"
	}
	return ""
}

func truncateMarkdown(s string, maxRunes int) string {
	s = oneLine(s)
	if len([]rune(s)) <= maxRunes {
		return s
	}
	return types.TruncateRunes(s, maxRunes-3) + "..."
}

func escapeMarkdown(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	s = strings.ReplaceAll(s, "<", "&lt;")
	return strings.ReplaceAll(s, ">", "&gt;")
}
