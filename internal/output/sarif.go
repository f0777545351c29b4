package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/skillaudit/internal/types"
)

// ToolVersion is the skillaudit version reported in SARIF and Markdown output.
var ToolVersion = "dev"

// SARIFFormatter writes SARIF 2.1.0 for GitHub Code Scanning. Each finding
// category becomes one rule.
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	RuleIndex  int             `json:"ruleIndex"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func (f *SARIFFormatter) Format(w io.Writer, report *types.Report) error {
	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	results := []sarifResult{}

	for _, finding := range report.Findings {
		idx, ok := ruleIndex[finding.Category]
		if !ok {
			idx = len(rules)
			ruleIndex[finding.Category] = idx
			var tags []string
			if finding.Tactic != "" {
				tags = []string{finding.Tactic}
			}
			rules = append(rules, sarifRule{
				ID:               finding.Category,
				ShortDescription: sarifMessage{Text: finding.Category},
				DefaultConfig:    sarifDefaultConfig{Level: severityToLevel(finding.Severity)},
				Properties:       sarifRuleProperties{Tags: tags},
			})
		}

		msg := finding.Description
		if finding.Content != "" {
			msg += ": " + oneLine(finding.Content)
		}
		r := sarifResult{
			RuleID:    finding.Category,
			RuleIndex: idx,
			Level:     severityToLevel(finding.Severity),
			Message:   sarifMessage{Text: msg},
			Locations: []sarifLocation{{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{URI: finding.File},
					Region:           sarifRegion{StartLine: max(finding.Line, 1)},
				},
			}},
			Properties: map[string]any{"severity": finding.Severity.String()},
		}
		if finding.Tactic != "" {
			r.Properties["mitre"] = finding.Tactic
		}
		results = append(results, r)
	}

	log := sarifLog{
		Schema:  "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{{
			Tool: sarifTool{Driver: sarifDriver{
				Name:           "skillaudit",
				Version:        ToolVersion,
				InformationURI: "https://github.com/garagon/skillaudit",
				Rules:          rules,
			}},
			Results: results,
			Properties: map[string]any{
				"numeric_score":       report.NumericScore,
				"risk_level":          report.RiskLevel,
				"whitelist_reduction": report.WhitelistReduction,
			},
		}},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func severityToLevel(sev types.Severity) string {
	switch sev {
	case types.SeverityCritical:
		return "error"
	case types.SeverityHigh:
		return "warning"
	case types.SeverityMedium, types.SeverityLow:
		return "note"
	default:
		return "none"
	}
}
