package rules

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// maxCategoryFileSize caps a single category file (1 MB).
const maxCategoryFileSize = 1 << 20

// LoadFromFS loads the categories of every YAML file in fsys. Files are
// visited in lexical order, documents in file order.
func LoadFromFS(fsys fs.FS) ([]RawCategory, error) {
	var all []RawCategory
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isYAML(path) {
			return nil
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		cats, err := decodeCategories(path, data)
		if err != nil {
			return err
		}
		all = append(all, cats...)
		return nil
	})
	return all, err
}

// LoadFromDir loads user categories from every .yaml or .yml file under
// dir in lexical order. Oversized or unreadable files are skipped with a
// warning; a malformed document fails the whole load.
func LoadFromDir(dir string, log *zap.Logger) ([]RawCategory, error) {
	if log == nil {
		log = zap.NewNop()
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("reading category directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("reading category directory: %s is not a directory", dir)
	}

	var paths []string
	err = godirwalk.Walk(dir, &godirwalk.Options{
		Callback: func(path string, de *godirwalk.Dirent) error {
			if (de.IsRegular() || de.IsSymlink()) && isYAML(path) {
				paths = append(paths, path)
			}
			return nil
		},
		ErrorCallback: func(path string, err error) godirwalk.ErrorAction {
			log.Warn("skipping unreadable category path", zap.String("path", path), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	var all []RawCategory
	for _, path := range paths {
		data, ok := readCategoryFile(path, log)
		if !ok {
			continue
		}
		cats, err := decodeCategories(path, data)
		if err != nil {
			return nil, err
		}
		if len(cats) == 0 {
			log.Warn("category file defines no categories", zap.String("file", path))
		}
		all = append(all, cats...)
	}
	log.Debug("loaded custom categories",
		zap.String("dir", dir),
		zap.Int("files", len(paths)),
		zap.Int("categories", len(all)))
	return all, nil
}

func readCategoryFile(path string, log *zap.Logger) ([]byte, bool) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		log.Warn("skipping category file", zap.String("file", path), zap.Error(err))
		return nil, false
	}
	if info.Size() > maxCategoryFileSize {
		log.Warn("skipping oversized category file",
			zap.String("file", path),
			zap.Int64("size", info.Size()),
			zap.Int64("max", maxCategoryFileSize))
		return nil, false
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Warn("skipping category file", zap.String("file", path), zap.Error(err))
		return nil, false
	}
	return data, true
}

// decodeCategories strictly decodes each "---" document of a category
// file. Blank documents are ignored; a document with content but no id is
// an error.
func decodeCategories(name string, data []byte) ([]RawCategory, error) {
	var cats []RawCategory
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	for doc := 1; ; doc++ {
		var raw RawCategory
		if err := dec.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return cats, nil
			}
			return nil, fmt.Errorf("parsing %s (document %d): %w", name, doc, err)
		}
		if raw.ID != "" {
			cats = append(cats, raw)
			continue
		}
		if raw.Name != "" || raw.Severity != "" || len(raw.Patterns) > 0 {
			return nil, fmt.Errorf("parsing %s (document %d): category has no id", name, doc)
		}
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
