// Package ioc holds the lexical indicator lists consulted by the detection
// layers: malicious infrastructure, known-safe references, and dependency
// name sets. A Catalog is built once per process and treated as read-only.
package ioc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Catalog is the set of indicator lists used by one or more audits.
// All slices are sorted and free of duplicates.
type Catalog struct {
	MaliciousIPs      []string
	MaliciousDomains  []string
	SafeDomains       []string
	SafeBinaries      []string
	MaliciousPackages []string
	LegitPackages     []string
}

// File is the on-disk shape of an external indicator catalog. Both JSON
// and YAML use the same keys.
type File struct {
	MaliciousIPs      []string `json:"malicious_ips" yaml:"malicious_ips"`
	MaliciousDomains  []string `json:"malicious_domains" yaml:"malicious_domains"`
	SafeDomains       []string `json:"safe_domains,omitempty" yaml:"safe_domains,omitempty"`
	SafeBinaries      []string `json:"safe_binaries,omitempty" yaml:"safe_binaries,omitempty"`
	MaliciousPackages []string `json:"malicious_packages,omitempty" yaml:"malicious_packages,omitempty"`
	LegitPackages     []string `json:"legit_packages,omitempty" yaml:"legit_packages,omitempty"`
}

// maxCatalogFileSize caps external catalog files (1 MB).
const maxCatalogFileSize = 1 << 20

// Default returns a fresh copy of the built-in catalog.
func Default() *Catalog {
	c := &Catalog{
		MaliciousIPs: []string{"91.92.242.30"},
		MaliciousDomains: []string{
			"glot.io", "webhook.site", "pastebin.com", "hastebin.com", "ghostbin.com",
			"ngrok.io", "pipedream.net", "requestbin.com", "burpcollaborator.net",
		},
		SafeDomains: []string{
			"github.com", "npmjs.org", "pypi.org", "crates.io", "anthropic.com",
			"openclaw.ai", "clawhub.ai", "hub.docker.com", "stackoverflow.com",
		},
		SafeBinaries: []string{
			"git", "gh", "docker", "kubectl", "npm", "node", "python", "python3",
			"pip", "pip3", "cargo", "go", "curl", "wget", "jq", "sed", "awk",
			"grep", "find", "cat", "echo", "ls", "mkdir", "cp", "mv",
		},
		MaliciousPackages: []string{
			"event-stream", "flatmap-stream", "ua-parser-js-malicious",
			"colors-malicious", "faker-malicious", "node-ipc-malicious",
			"python3-dateutil", "jeIlyfish", "python-sqlite", "colourfull",
			"requestss", "beautifulsoup", "nmap-python", "openai-python",
			"python-openai",
		},
		LegitPackages: []string{
			"requests", "flask", "django", "numpy", "pandas", "beautifulsoup4",
			"openai", "anthropic", "langchain", "httpx", "aiohttp", "fastapi",
			"pydantic", "sqlalchemy", "boto3", "pillow", "pytorch", "tensorflow",
		},
	}
	c.normalize()
	return c
}

// Clone returns a deep copy of c.
func (c *Catalog) Clone() *Catalog {
	return &Catalog{
		MaliciousIPs:      append([]string(nil), c.MaliciousIPs...),
		MaliciousDomains:  append([]string(nil), c.MaliciousDomains...),
		SafeDomains:       append([]string(nil), c.SafeDomains...),
		SafeBinaries:      append([]string(nil), c.SafeBinaries...),
		MaliciousPackages: append([]string(nil), c.MaliciousPackages...),
		LegitPackages:     append([]string(nil), c.LegitPackages...),
	}
}

// Merge returns a copy of c extended with the entries of f.
// Domains and package names are lower-cased to match how requirements are
// normalized; IPs and binaries are kept verbatim.
func (c *Catalog) Merge(f *File) *Catalog {
	out := c.Clone()
	if f == nil {
		return out
	}
	out.MaliciousIPs = append(out.MaliciousIPs, trimAll(f.MaliciousIPs, false)...)
	out.MaliciousDomains = append(out.MaliciousDomains, trimAll(f.MaliciousDomains, true)...)
	out.SafeDomains = append(out.SafeDomains, trimAll(f.SafeDomains, true)...)
	out.SafeBinaries = append(out.SafeBinaries, trimAll(f.SafeBinaries, false)...)
	out.MaliciousPackages = append(out.MaliciousPackages, trimAll(f.MaliciousPackages, true)...)
	out.LegitPackages = append(out.LegitPackages, trimAll(f.LegitPackages, true)...)
	out.normalize()
	return out
}

// IsMaliciousPackage reports whether name is a known-malicious dependency.
// Names compare case-insensitively.
func (c *Catalog) IsMaliciousPackage(name string) bool {
	for _, p := range c.MaliciousPackages {
		if strings.EqualFold(p, name) {
			return true
		}
	}
	return false
}

// ParseFile decodes an external catalog. Files ending in .json are decoded
// as strict JSON; anything else goes through the YAML decoder, which also
// accepts JSON documents.
func ParseFile(path string, data []byte) (*File, error) {
	var f File
	if strings.EqualFold(filepath.Ext(path), ".json") {
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
		}
		return &f, nil
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog %s: %w", path, err)
	}
	return &f, nil
}

// LoadFile reads an external catalog from disk.
func LoadFile(path string) (*File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading catalog: %s is a directory", path)
	}
	if info.Size() > maxCatalogFileSize {
		return nil, fmt.Errorf("catalog %s too large (%d bytes, max %d)", path, info.Size(), maxCatalogFileSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog: %w", err)
	}
	return ParseFile(path, data)
}

// Load returns the built-in catalog extended from path. An empty path, a
// missing file, or a malformed file yields the built-ins alone together
// with the error that prevented the merge.
func Load(path string) (*Catalog, error) {
	base := Default()
	if path == "" {
		return base, nil
	}
	f, err := LoadFile(path)
	if err != nil {
		return base, err
	}
	return base.Merge(f), nil
}

func (c *Catalog) normalize() {
	c.MaliciousIPs = dedupSorted(c.MaliciousIPs)
	c.MaliciousDomains = dedupSorted(c.MaliciousDomains)
	c.SafeDomains = dedupSorted(c.SafeDomains)
	c.SafeBinaries = dedupSorted(c.SafeBinaries)
	c.MaliciousPackages = dedupSorted(c.MaliciousPackages)
	c.LegitPackages = dedupSorted(c.LegitPackages)
}

func trimAll(in []string, lower bool) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if lower {
			s = strings.ToLower(s)
		}
		out = append(out, s)
	}
	return out
}

func dedupSorted(in []string) []string {
	sort.Strings(in)
	out := in[:0]
	for _, s := range in {
		if len(out) > 0 && out[len(out)-1] == s {
			continue
		}
		out = append(out, s)
	}
	return out
}
