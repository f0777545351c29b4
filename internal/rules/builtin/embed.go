// Package builtin embeds the YAML detection category files via go:embed.
package builtin

import "embed"

//go:embed *.yaml
var builtinCategories embed.FS

// FS returns the embedded filesystem containing built-in categories.
func FS() embed.FS {
	return builtinCategories
}
