// Package types defines shared data structures (Finding, Severity, Report)
// used across scanner, meta, and engine packages to prevent import cycles.
package types

import (
	"fmt"
	"strings"
	"time"
)

// Severity represents the severity level of a finding. The zero value is
// SeverityClean, the bottom of the ladder used for context de-escalation.
type Severity int

const (
	SeverityClean Severity = iota
	SeverityLow
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "CRITICAL"
	case SeverityHigh:
		return "HIGH"
	case SeverityMedium:
		return "MEDIUM"
	case SeverityLow:
		return "LOW"
	case SeverityClean:
		return "CLEAN"
	default:
		return "UNKNOWN"
	}
}

// ParseSeverity converts a string to a Severity level.
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "CRITICAL":
		return SeverityCritical, nil
	case "HIGH":
		return SeverityHigh, nil
	case "MEDIUM":
		return SeverityMedium, nil
	case "LOW":
		return SeverityLow, nil
	case "CLEAN":
		return SeverityClean, nil
	default:
		return SeverityClean, fmt.Errorf("unknown severity: %q", s)
	}
}

// MarshalText renders the severity label so JSON and YAML carry "HIGH", not 3.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a severity label.
func (s *Severity) UnmarshalText(text []byte) error {
	sev, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = sev
	return nil
}

// Downgrade lowers the severity by n notches, saturating at SeverityClean.
func (s Severity) Downgrade(n int) Severity {
	if n <= 0 {
		return s
	}
	if int(s)-n < int(SeverityClean) {
		return SeverityClean
	}
	return s - Severity(n)
}

// Weight is the number of score points a finding of this severity adds.
func (s Severity) Weight() int {
	switch s {
	case SeverityCritical:
		return 15
	case SeverityHigh:
		return 8
	case SeverityMedium:
		return 3
	case SeverityLow:
		return 1
	default:
		return 0
	}
}

// Finding represents a single detection event.
type Finding struct {
	Category    string   `json:"category"`
	Severity    Severity `json:"severity"`
	File        string   `json:"file"`
	Line        int      `json:"line"`
	Description string   `json:"description"`
	Content     string   `json:"content"`
	Tactic      string   `json:"mitre"`
}

// MaxExcerptRunes bounds the stored excerpt of the offending line.
const MaxExcerptRunes = 200

// Excerpt trims line and truncates it to MaxExcerptRunes runes.
func Excerpt(line string) string {
	return TruncateRunes(strings.TrimSpace(line), MaxExcerptRunes)
}

// TruncateRunes cuts s after n runes.
func TruncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FileEntry is one row of the file inventory. SHA256 is empty for files
// that were not digested (empty, oversized, or unreadable).
type FileEntry struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	Extension string `json:"extension"`
	SHA256    string `json:"sha256"`

	// ModTime is kept for drift comparison of undigested files.
	ModTime time.Time `json:"-"`
}

// Permission is a capability keyword found in the entry document.
type Permission struct {
	Tool        string `json:"tool"`
	Description string `json:"description"`
}

// RiskLevel is the five-band classification of a numeric score.
type RiskLevel string

const (
	RiskSafe     RiskLevel = "SAFE"
	RiskLow      RiskLevel = "LOW_RISK"
	RiskMedium   RiskLevel = "MEDIUM_RISK"
	RiskHigh     RiskLevel = "HIGH_RISK"
	RiskCritical RiskLevel = "CRITICAL"
)

// Report is the terminal aggregate of one audit.
type Report struct {
	SkillPath            string         `json:"skill_path"`
	SkillName            string         `json:"skill_name,omitempty"`
	SkillDescription     string         `json:"skill_description,omitempty"`
	NumericScore         int            `json:"numeric_score"`
	RiskLevel            RiskLevel      `json:"risk_level"`
	RiskScore            Severity       `json:"risk_score"`
	WhitelistReduction   int            `json:"whitelist_reduction"`
	TotalFindings        int            `json:"total_findings"`
	SeverityCounts       map[string]int `json:"severity_counts"`
	CategoryCounts       map[string]int `json:"category_counts"`
	FileInventory        []FileEntry    `json:"file_inventory"`
	PermissionsRequested []Permission   `json:"permissions_requested"`
	Findings             []Finding      `json:"findings"`
}

// Verdict thresholds shared by the exit code and the human verdict line.
const (
	SafeScoreMax   = 20
	ReviewScoreMax = 60
)

// ExitCode maps the final score to the process exit code:
// 0 safe, 1 manual review, 2 dangerous.
func (r *Report) ExitCode() int {
	switch {
	case r.NumericScore <= SafeScoreMax:
		return 0
	case r.NumericScore <= ReviewScoreMax:
		return 1
	default:
		return 2
	}
}
