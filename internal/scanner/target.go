package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
)

// File is one non-directory entry found under the audit root.
type File struct {
	Path    string // OS path
	RelPath string // slash-separated, relative to the root
	Name    string
	Ext     string // lower-cased suffix, "" when the name has none
	Size    int64  // -1 when the file could not be stat'ed
	Symlink bool
	ModTime time.Time

	// Target is the resolved path of a symlink that points at a regular
	// file inside the root. Reads go through it.
	Target string
	// Escapes marks a symlink that resolves outside the root or does not
	// resolve at all.
	Escapes bool
}

// Readable reports whether the content of f may be read.
func (f File) Readable() bool {
	return !f.Symlink || f.Target != ""
}

// Tree is read-only access to one audit root. Each call to Files walks the
// directory again; phases never share a traversal.
type Tree struct {
	root   string
	exists bool
	log    *zap.Logger
}

// OpenTree resolves root and records whether it is an existing directory.
func OpenTree(root string, log *zap.Logger) *Tree {
	if log == nil {
		log = zap.NewNop()
	}
	resolved := root
	if abs, err := filepath.Abs(root); err == nil {
		resolved = abs
	}
	if evaluated, err := filepath.EvalSymlinks(resolved); err == nil {
		resolved = evaluated
	}
	info, err := os.Stat(resolved)
	return &Tree{
		root:   resolved,
		exists: err == nil && info.IsDir(),
		log:    log,
	}
}

// Root returns the resolved audit root.
func (t *Tree) Root() string { return t.root }

// Exists reports whether the root is an existing directory.
func (t *Tree) Exists() bool { return t.exists }

// Files returns every non-directory entry under the root in lexical walk
// order. Symlinks are listed under their own path; a link to a regular file
// inside the root is read through its target, anything else is marked as
// escaping. Links to directories inside the root are skipped since the walk
// already covers their contents.
func (t *Tree) Files() []File {
	if !t.exists {
		return nil
	}
	var files []File
	err := godirwalk.Walk(t.root, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				return nil
			}
			f := t.newFile(path, de.Name(), de.IsSymlink())
			if f.Symlink && !f.Escapes && f.Target == "" {
				return nil
			}
			files = append(files, f)
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			t.log.Debug("skipping unreadable path", zap.String("path", path), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		t.log.Debug("walk aborted", zap.String("root", t.root), zap.Error(err))
	}
	return files
}

// TextFiles returns the text-like regular files under the root.
func (t *Tree) TextFiles() []File {
	var out []File
	for _, f := range t.Files() {
		if f.Readable() && IsText(f.Ext) {
			out = append(out, f)
		}
	}
	return out
}

// Lookup returns the regular file at rel (slash-separated) when it exists.
func (t *Tree) Lookup(rel string) (File, bool) {
	if !t.exists {
		return File{}, false
	}
	path := filepath.Join(t.root, filepath.FromSlash(rel))
	info, err := os.Lstat(path)
	if err != nil || info.IsDir() {
		return File{}, false
	}
	f := t.newFile(path, filepath.Base(path), info.Mode()&os.ModeSymlink != 0)
	if f.Symlink && !f.Escapes && f.Target == "" {
		return File{}, false
	}
	return f, true
}

// ReadText returns the file content as valid UTF-8 with normalized line
// endings. Invalid byte sequences become U+FFFD. Escaping symlinks and
// unreadable files report false.
func (t *Tree) ReadText(f File) (string, bool) {
	if !f.Readable() {
		return "", false
	}
	data, err := os.ReadFile(f.ContentPath())
	if err != nil {
		t.log.Debug("skipping unreadable file", zap.String("file", f.RelPath), zap.Error(err))
		return "", false
	}
	return normalizeText(data), true
}

// ReadLines splits the text of f on "\n". The result always has at least
// one element for a readable file, matching 1-based line numbering.
func (t *Tree) ReadLines(f File) ([]string, bool) {
	text, ok := t.ReadText(f)
	if !ok {
		return nil, false
	}
	return strings.Split(text, "\n"), true
}

// ContentPath is the path whose bytes f stands for.
func (f File) ContentPath() string {
	if f.Target != "" {
		return f.Target
	}
	return f.Path
}

func (t *Tree) newFile(path, name string, symlink bool) File {
	rel, err := filepath.Rel(t.root, path)
	if err != nil {
		rel = path
	}
	f := File{
		Path:    path,
		RelPath: filepath.ToSlash(rel),
		Name:    name,
		Ext:     ExtOf(name),
		Size:    -1,
		Symlink: symlink,
	}
	if info, err := os.Lstat(path); err == nil {
		f.Size = info.Size()
		f.ModTime = info.ModTime()
	}
	if symlink {
		t.resolveLink(&f)
	}
	return f
}

// resolveLink fills Target for links to regular files inside the root and
// Escapes for links that leave it. Links to directories inside the root
// get neither.
func (t *Tree) resolveLink(f *File) {
	resolved, err := filepath.EvalSymlinks(f.Path)
	if err != nil || !t.contains(resolved) {
		t.log.Debug("symlink leaves root", zap.String("file", f.RelPath), zap.String("target", resolved))
		f.Escapes = true
		return
	}
	info, err := os.Stat(resolved)
	if err != nil {
		f.Escapes = true
		return
	}
	if info.Mode().IsRegular() {
		f.Target = resolved
		f.Size = info.Size()
		f.ModTime = info.ModTime()
	}
}

func (t *Tree) contains(path string) bool {
	rel, err := filepath.Rel(t.root, path)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func normalizeText(data []byte) string {
	s := string(data)
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "\uFFFD")
	}
	if strings.Contains(s, "\r") {
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	return s
}
