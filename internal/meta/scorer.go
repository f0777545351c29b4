package meta

import "github.com/garagon/skillaudit/internal/types"

// Score bounds.
const (
	MaxScore     = 100
	MaxReduction = 15
)

// Risk level upper bounds, inclusive.
var riskBands = []struct {
	max   int
	level types.RiskLevel
}{
	{20, types.RiskSafe},
	{40, types.RiskLow},
	{60, types.RiskMedium},
	{80, types.RiskHigh},
}

// RawScore sums the severity weights of findings.
func RawScore(findings []types.Finding) int {
	total := 0
	for _, f := range findings {
		total += f.Severity.Weight()
	}
	return total
}

// ClampReduction bounds a whitelist reduction to [0, MaxReduction].
func ClampReduction(reduction int) int {
	if reduction < 0 {
		return 0
	}
	if reduction > MaxReduction {
		return MaxReduction
	}
	return reduction
}

// FinalScore subtracts the reduction from raw (floor 0) and caps the
// result at MaxScore.
func FinalScore(raw, reduction int) int {
	score := raw - ClampReduction(reduction)
	if score < 0 {
		score = 0
	}
	if score > MaxScore {
		score = MaxScore
	}
	return score
}

// Classify maps a score to its risk level.
func Classify(score int) types.RiskLevel {
	for _, b := range riskBands {
		if score <= b.max {
			return b.level
		}
	}
	return types.RiskCritical
}

// HighestSeverity returns the most severe level present, or SeverityClean.
func HighestSeverity(findings []types.Finding) types.Severity {
	highest := types.SeverityClean
	for _, f := range findings {
		if f.Severity > highest {
			highest = f.Severity
		}
	}
	return highest
}

// Histograms counts findings per severity label and per category.
func Histograms(findings []types.Finding) (bySeverity, byCategory map[string]int) {
	bySeverity = make(map[string]int)
	byCategory = make(map[string]int)
	for _, f := range findings {
		bySeverity[f.Severity.String()]++
		byCategory[f.Category]++
	}
	return bySeverity, byCategory
}
