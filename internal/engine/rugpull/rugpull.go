// Package rugpull compares a skill's file inventory against the snapshot
// stored by its previous audit. A skill that was clean when first
// installed and later gains or rewrites files is the classic rug-pull;
// the comparison is advisory and never changes the score.
package rugpull

import (
	"fmt"
	"sort"
	"time"

	"github.com/garagon/skillaudit/internal/state"
	"github.com/garagon/skillaudit/internal/types"
)

// ChangeKind classifies one inventory difference.
type ChangeKind string

const (
	Added   ChangeKind = "added"
	Removed ChangeKind = "removed"
	Changed ChangeKind = "changed"
)

// Change is one file that differs from the previous snapshot. Severe
// counts the HIGH and CRITICAL findings the current audit raised in the
// file.
type Change struct {
	Path   string     `json:"path"`
	Kind   ChangeKind `json:"kind"`
	Before string     `json:"before,omitempty"`
	After  string     `json:"after,omitempty"`
	Severe int        `json:"severe_findings,omitempty"`
}

// Drift is the result of one observation.
type Drift struct {
	Key           string   `json:"key"`
	FirstAudit    bool     `json:"first_audit"`
	PreviousAudit string   `json:"previous_audit,omitempty"`
	PreviousScore int      `json:"previous_score"`
	CurrentScore  int      `json:"current_score"`
	Changes       []Change `json:"changes"`
}

// Suspicious reports whether any added or changed file carries a HIGH or
// CRITICAL finding.
func (d Drift) Suspicious() bool {
	for _, c := range d.Changes {
		if c.Severe > 0 {
			return true
		}
	}
	return false
}

// Monitor records inventories in a state store and reports drift.
type Monitor struct {
	store *state.Store
	now   func() time.Time
}

// New creates a monitor backed by store. The caller loads and saves it.
func New(store *state.Store) *Monitor {
	return &Monitor{store: store, now: time.Now}
}

// Observe compares report against the snapshot stored under key, then
// replaces that snapshot with the current inventory.
func (m *Monitor) Observe(key string, report *types.Report) Drift {
	current := Digests(report.FileInventory)
	d := Drift{Key: key, CurrentScore: report.NumericScore, Changes: []Change{}}

	prev, ok := m.store.Get(key)
	if !ok {
		d.FirstAudit = true
	} else {
		d.PreviousAudit = prev.AuditedAt
		d.PreviousScore = prev.NumericScore
		d.Changes = Compare(prev.Files, current)
		severe := severeByFile(report.Findings)
		for i := range d.Changes {
			if d.Changes[i].Kind != Removed {
				d.Changes[i].Severe = severe[d.Changes[i].Path]
			}
		}
	}

	m.store.Put(key, state.Snapshot{
		AuditedAt:    m.now().UTC().Format(time.RFC3339),
		NumericScore: report.NumericScore,
		Files:        current,
	})
	return d
}

// Digests maps each inventory path to its digest. Files without one (empty,
// too large to hash, escaping symlinks) get a size and mtime marker instead.
func Digests(inventory []types.FileEntry) map[string]string {
	out := make(map[string]string, len(inventory))
	for _, e := range inventory {
		out[e.Path] = fingerprint(e)
	}
	return out
}

func fingerprint(e types.FileEntry) string {
	if e.SHA256 != "" {
		return e.SHA256
	}
	return fmt.Sprintf("size:%d mtime:%d", e.Size, e.ModTime.UnixNano())
}

// Compare lists the differences between two digest maps, sorted by path.
func Compare(before, after map[string]string) []Change {
	changes := []Change{}
	for path, old := range before {
		cur, ok := after[path]
		switch {
		case !ok:
			changes = append(changes, Change{Path: path, Kind: Removed, Before: old})
		case cur != old:
			changes = append(changes, Change{Path: path, Kind: Changed, Before: old, After: cur})
		}
	}
	for path, cur := range after {
		if _, ok := before[path]; !ok {
			changes = append(changes, Change{Path: path, Kind: Added, After: cur})
		}
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes
}

func severeByFile(findings []types.Finding) map[string]int {
	out := map[string]int{}
	for _, f := range findings {
		if f.Severity >= types.SeverityHigh {
			out[f.File]++
		}
	}
	return out
}
