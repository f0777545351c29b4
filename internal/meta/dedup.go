package meta

import "github.com/garagon/skillaudit/internal/types"

type findingKey struct {
	file        string
	line        int
	description string
}

// Deduplicate removes duplicate findings by (File, Line, Description),
// keeping the first occurrence and preserving order.
func Deduplicate(findings []types.Finding) []types.Finding {
	seen := make(map[findingKey]bool, len(findings))
	result := make([]types.Finding, 0, len(findings))
	for _, f := range findings {
		k := findingKey{f.File, f.Line, f.Description}
		if seen[k] {
			continue
		}
		seen[k] = true
		result = append(result, f)
	}
	return result
}
