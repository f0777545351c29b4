package types_test

import (
	"encoding/json"
	"testing"

	"github.com/garagon/skillaudit/internal/types"
	"github.com/stretchr/testify/require"
)

func TestSeverityString(t *testing.T) {
	tests := []struct {
		sev  types.Severity
		want string
	}{
		{types.SeverityCritical, "CRITICAL"},
		{types.SeverityHigh, "HIGH"},
		{types.SeverityMedium, "MEDIUM"},
		{types.SeverityLow, "LOW"},
		{types.SeverityClean, "CLEAN"},
	}
	for _, tt := range tests {
		require.Equal(t, tt.want, tt.sev.String())
	}
}

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		input string
		want  types.Severity
		err   bool
	}{
		{"CRITICAL", types.SeverityCritical, false},
		{"high", types.SeverityHigh, false},
		{"Medium", types.SeverityMedium, false},
		{"  low  ", types.SeverityLow, false},
		{"CLEAN", types.SeverityClean, false},
		{"info", types.SeverityClean, true},
	}
	for _, tt := range tests {
		got, err := types.ParseSeverity(tt.input)
		if tt.err {
			require.Error(t, err)
		} else {
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		}
	}
}

func TestDowngrade(t *testing.T) {
	tests := []struct {
		input types.Severity
		n     int
		want  types.Severity
	}{
		{types.SeverityCritical, 1, types.SeverityHigh},
		{types.SeverityCritical, 2, types.SeverityMedium},
		{types.SeverityHigh, 2, types.SeverityLow},
		{types.SeverityHigh, 3, types.SeverityClean},
		{types.SeverityMedium, 2, types.SeverityClean},
		{types.SeverityLow, 1, types.SeverityClean},
		{types.SeverityClean, 1, types.SeverityClean},
		{types.SeverityHigh, 0, types.SeverityHigh},
	}
	for _, tt := range tests {
		got := tt.input.Downgrade(tt.n)
		require.Equal(t, tt.want, got, "%s.Downgrade(%d)", tt.input, tt.n)
	}
}

func TestSeverityWeight(t *testing.T) {
	require.Equal(t, 15, types.SeverityCritical.Weight())
	require.Equal(t, 8, types.SeverityHigh.Weight())
	require.Equal(t, 3, types.SeverityMedium.Weight())
	require.Equal(t, 1, types.SeverityLow.Weight())
	require.Equal(t, 0, types.SeverityClean.Weight())
}

func TestFindingJSONUsesSeverityLabel(t *testing.T) {
	data, err := json.Marshal(types.Finding{Category: "ioc", Severity: types.SeverityCritical, File: "a.py", Line: 3})
	require.NoError(t, err)
	require.Contains(t, string(data), `"severity":"CRITICAL"`)
	require.Contains(t, string(data), `"mitre":""`)

	var back types.Finding
	require.NoError(t, json.Unmarshal(data, &back))
	require.Equal(t, types.SeverityCritical, back.Severity)
}

func TestExcerpt(t *testing.T) {
	long := make([]rune, 0, 300)
	for range 300 {
		long = append(long, 'é')
	}
	require.Equal(t, "x = 1", types.Excerpt("   x = 1  \t"))
	require.Len(t, []rune(types.Excerpt(string(long))), types.MaxExcerptRunes)
}

func TestReportExitCode(t *testing.T) {
	tests := []struct {
		score int
		want  int
	}{
		{0, 0}, {20, 0}, {21, 1}, {60, 1}, {61, 2}, {100, 2},
	}
	for _, tt := range tests {
		r := &types.Report{NumericScore: tt.score}
		require.Equal(t, tt.want, r.ExitCode(), "score %d", tt.score)
	}
}
