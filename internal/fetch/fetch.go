// Package fetch resolves a published skill name to a local directory by
// delegating to the clawhub CLI.
package fetch

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultBinary is the fetch tool looked up on PATH.
const DefaultBinary = "clawhub"

// DefaultTimeout bounds one fetch.
const DefaultTimeout = 2 * time.Minute

var (
	// ErrToolNotFound means the fetch binary is not installed.
	ErrToolNotFound = errors.New("fetch tool not found")
	// ErrFetchFailed means the fetch binary ran and reported failure.
	ErrFetchFailed = errors.New("fetch failed")
	// ErrInvalidSlug rejects names that could escape the workspace or be
	// read as flags by the fetch tool.
	ErrInvalidSlug = errors.New("invalid skill slug")
)

// Fetcher runs `<binary> inspect <slug> --dir <tmp>`.
type Fetcher struct {
	Binary  string
	Timeout time.Duration
	log     *zap.Logger
}

// New creates a fetcher for binary (DefaultBinary when empty).
func New(binary string, log *zap.Logger) *Fetcher {
	if binary == "" {
		binary = DefaultBinary
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Fetcher{Binary: binary, Timeout: DefaultTimeout, log: log}
}

// Workspace is a fetched skill. Dir is the directory to audit; Cleanup
// removes the whole temporary tree that contains it.
type Workspace struct {
	Dir  string
	root string
}

// Cleanup removes the temporary directory. It is safe to call twice.
func (w *Workspace) Cleanup() error {
	if w == nil || w.root == "" {
		return nil
	}
	err := os.RemoveAll(w.root)
	w.root = ""
	return err
}

// Fetch downloads slug into a fresh temporary directory. On any error the
// directory has already been removed.
func (f *Fetcher) Fetch(ctx context.Context, slug string) (*Workspace, error) {
	if err := ValidateSlug(slug); err != nil {
		return nil, err
	}
	bin, err := exec.LookPath(f.Binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (install it or audit a local path)", ErrToolNotFound, f.Binary)
	}

	tmp, err := os.MkdirTemp("", "skill-audit-"+slug+"-")
	if err != nil {
		return nil, fmt.Errorf("creating temporary directory: %w", err)
	}

	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "inspect", slug, "--dir", tmp)
	cmd.Stderr = &stderr
	f.log.Debug("fetching skill", zap.String("slug", slug), zap.String("binary", bin), zap.String("dir", tmp))
	if err := cmd.Run(); err != nil {
		_ = os.RemoveAll(tmp)
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return nil, fmt.Errorf("%w: %q: %s", ErrFetchFailed, slug, detail)
	}

	dir := tmp
	if info, err := os.Stat(filepath.Join(tmp, slug)); err == nil && info.IsDir() {
		dir = filepath.Join(tmp, slug)
	}
	return &Workspace{Dir: dir, root: tmp}, nil
}

// ValidateSlug accepts a single path element that does not start with "-".
func ValidateSlug(slug string) error {
	switch {
	case strings.TrimSpace(slug) == "":
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	case strings.HasPrefix(slug, "-"):
		return fmt.Errorf("%w: %q starts with '-'", ErrInvalidSlug, slug)
	case slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) || strings.ContainsRune(slug, 0):
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}
