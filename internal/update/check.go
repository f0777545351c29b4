// Package update asks the GitHub releases API whether a newer skillaudit
// release exists. Only the version command calls it; audits never touch
// the network.
package update

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Repo is the GitHub repository releases are published from.
const Repo = "garagon/skillaudit"

// Result is the outcome of a successful check.
type Result struct {
	Latest    string
	Current   string
	UpdateURL string
}

// NeedsUpdate reports whether Latest is a newer release than Current.
// Development builds never need an update.
func (r *Result) NeedsUpdate() bool {
	if r.Current == "dev" || r.Current == "" {
		return false
	}
	return compareVersions(r.Latest, r.Current) > 0
}

// Checker queries one releases endpoint.
type Checker struct {
	BaseURL string
	Repo    string
	Client  *http.Client
}

// NewChecker returns a checker for the public GitHub API with a short
// timeout.
func NewChecker() *Checker {
	return &Checker{
		BaseURL: "https://api.github.com",
		Repo:    Repo,
		Client:  &http.Client{Timeout: 2 * time.Second},
	}
}

type githubRelease struct {
	TagName string `json:"tag_name"`
}

// Latest returns the latest release for current. Development builds,
// network failures, and malformed responses all yield nil: a version check
// must never fail the command that asked for it.
func (c *Checker) Latest(ctx context.Context, current string) *Result {
	if current == "dev" {
		return nil
	}
	url := fmt.Sprintf("%s/repos/%s/releases/latest", strings.TrimRight(c.BaseURL, "/"), c.Repo)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var release githubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil || release.TagName == "" {
		return nil
	}
	return &Result{
		Latest:    release.TagName,
		Current:   current,
		UpdateURL: fmt.Sprintf("go install github.com/%s/cmd/skillaudit@latest", c.Repo),
	}
}

// compareVersions orders dotted numeric versions with an optional "v"
// prefix. Pre-release suffixes are ignored. Unparseable components
// compare as zero.
func compareVersions(a, b string) int {
	pa, pb := versionParts(a), versionParts(b)
	for i := 0; i < len(pa) || i < len(pb); i++ {
		var x, y int
		if i < len(pa) {
			x = pa[i]
		}
		if i < len(pb) {
			y = pb[i]
		}
		switch {
		case x > y:
			return 1
		case x < y:
			return -1
		}
	}
	return 0
}

func versionParts(v string) []int {
	v = strings.TrimPrefix(strings.TrimSpace(v), "v")
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		v = v[:i]
	}
	var parts []int
	for _, p := range strings.Split(v, ".") {
		n, _ := strconv.Atoi(p)
		parts = append(parts, n)
	}
	return parts
}
