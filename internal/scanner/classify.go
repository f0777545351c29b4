package scanner

import "strings"

var textExtensions = map[string]bool{
	".py": true, ".js": true, ".ts": true, ".jsx": true, ".tsx": true,
	".sh": true, ".bash": true, ".zsh": true, ".rb": true, ".pl": true,
	".php": true, ".go": true, ".rs": true, ".java": true, ".c": true,
	".cpp": true, ".h": true, ".md": true, ".txt": true, ".yaml": true,
	".yml": true, ".json": true, ".toml": true, ".cfg": true, ".ini": true,
	".html": true, ".css": true, ".xml": true, ".sql": true, ".r": true,
	".lua": true, ".swift": true, ".kt": true, "": true,
}

var socialExtensions = map[string]bool{
	".md": true, ".txt": true, ".html": true, "": true,
}

// docPathMarkers are matched as substrings of the lower-cased relative path.
var docPathMarkers = []string{"reference", "docs/", "doc/", "readme", "changelog", "license", ".md"}

// ExtOf returns the lower-cased suffix of a file name. A leading dot
// (".env") or a trailing dot ("name.") does not start a suffix.
func ExtOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i:])
}

// IsText reports whether files with extension ext are scanned line by line.
// Extensionless files count as text.
func IsText(ext string) bool {
	return textExtensions[ext]
}

// IsSocialDoc reports whether files with extension ext are prose documents
// scanned for persuasion phrasing.
func IsSocialDoc(ext string) bool {
	return socialExtensions[ext]
}

// IsDocPath reports whether a relative path looks like reference material
// or documentation. ".md" anywhere in the path counts, so "guide.mdx" and
// "notes.md.bak" are docs too.
func IsDocPath(rel string) bool {
	lower := strings.ToLower(rel)
	for _, m := range docPathMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

// IsCommentLine reports whether line is a whole-line comment in a file of
// the given extension. Only languages with an unambiguous line-comment
// prefix are recognized.
func IsCommentLine(line, ext string) bool {
	stripped := strings.TrimSpace(line)
	switch ext {
	case ".py", ".sh", ".bash", ".zsh":
		return strings.HasPrefix(stripped, "#")
	case ".js", ".ts", ".java", ".c", ".cpp", ".go", ".rs":
		return strings.HasPrefix(stripped, "//")
	}
	return false
}
