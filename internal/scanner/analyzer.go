// Package scanner gives detection layers read-only access to an audit root
// and runs them in a fixed sequence to produce one Audit Report.
package scanner

import "github.com/garagon/skillaudit/internal/types"

// Phase is a finding-producing detection layer. A phase walks the tree
// itself and returns its own findings; it never fails the audit.
type Phase interface {
	Name() string
	Run(tree *Tree) []types.Finding
}

// Inventorier records the file inventory and flags risky files.
type Inventorier interface {
	Inventory(tree *Tree) ([]types.FileEntry, []types.Finding)
}

// PermissionExtractor lists capability keywords found in the entry
// document. The result is advisory and never scored.
type PermissionExtractor interface {
	Permissions(tree *Tree) []types.Permission
}

// MetadataExtractor reads the skill's declared name and description.
type MetadataExtractor interface {
	Metadata(tree *Tree) (name, description string)
}

// Reducer computes the whitelist reduction, in points, for a tree.
type Reducer interface {
	Reduction(tree *Tree) int
}
