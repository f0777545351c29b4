// Package inventory records every file under the audit root with its size,
// extension and content digest, and flags file types that have no business
// in a skill bundle.
package inventory

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
	"go.uber.org/zap"
)

// Category is the finding category of this layer.
const Category = "inventory"

const (
	tacticMaliciousFile = "T1204.002 - User Execution: Malicious File"
	tacticLinkEscape    = "T1005 - Data from Local System"
)

// Size limits in bytes.
const (
	MaxDigestSize = 10_000_000 // files at or above this are listed but not digested
	LargeFileSize = 5_000_000  // files above this are flagged
)

var suspiciousExtensions = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".com": true, ".bat": true, ".cmd": true, ".ps1": true, ".vbs": true,
	".wsf": true, ".scr": true, ".pif": true, ".msi": true, ".jar": true,
	".war": true, ".elf": true, ".deb": true, ".rpm": true, ".apk": true,
}

var shellExtensions = map[string]bool{
	".sh": true, ".bash": true, ".zsh": true, ".fish": true,
}

// Scanner implements scanner.Inventorier.
type Scanner struct {
	log *zap.Logger
}

// New creates an inventory scanner.
func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log}
}

// Inventory lists every non-directory file under the root. A missing root
// yields a single CRITICAL finding and an empty inventory.
func (s *Scanner) Inventory(tree *scanner.Tree) ([]types.FileEntry, []types.Finding) {
	if !tree.Exists() {
		return []types.FileEntry{}, []types.Finding{{
			Category:    Category,
			Severity:    types.SeverityCritical,
			File:        tree.Root(),
			Description: "Skill directory does not exist",
		}}
	}

	entries := []types.FileEntry{}
	var findings []types.Finding
	for _, f := range tree.Files() {
		entry := types.FileEntry{
			Path:      f.RelPath,
			Size:      f.Size,
			Extension: f.Ext,
			ModTime:   f.ModTime,
		}
		if f.Readable() && f.Size > 0 && f.Size < MaxDigestSize {
			digest, err := fileDigest(f.ContentPath())
			if err != nil {
				s.log.Debug("digest failed", zap.String("file", f.RelPath), zap.Error(err))
			}
			entry.SHA256 = digest
		}
		entries = append(entries, entry)
		findings = append(findings, Classify(f)...)
	}
	return entries, findings
}

// Classify returns the findings for a single file's type and size.
func Classify(f scanner.File) []types.Finding {
	var findings []types.Finding
	if f.Escapes {
		findings = append(findings, types.Finding{
			Category:    Category,
			Severity:    types.SeverityHigh,
			File:        f.RelPath,
			Description: fmt.Sprintf("Symlink escapes skill directory: %s", f.Name),
			Tactic:      tacticLinkEscape,
		})
	}
	switch {
	case suspiciousExtensions[f.Ext]:
		findings = append(findings, types.Finding{
			Category:    Category,
			Severity:    types.SeverityCritical,
			File:        f.RelPath,
			Description: fmt.Sprintf("Suspicious binary/executable: %s", f.Name[len(f.Name)-len(f.Ext):]),
			Tactic:      tacticMaliciousFile,
		})
	case shellExtensions[f.Ext]:
		findings = append(findings, types.Finding{
			Category:    Category,
			Severity:    types.SeverityMedium,
			File:        f.RelPath,
			Description: fmt.Sprintf("Shell script: %s — review contents", f.Name),
		})
	}
	if f.Size > LargeFileSize {
		findings = append(findings, types.Finding{
			Category:    Category,
			Severity:    types.SeverityMedium,
			File:        f.RelPath,
			Description: fmt.Sprintf("Large file (%.1f MB)", float64(f.Size)/1_000_000),
		})
	}
	return findings
}

func fileDigest(path string) (string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer fh.Close()
	h := sha256.New()
	if _, err := io.Copy(h, fh); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
