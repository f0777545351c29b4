package pattern

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/scanner"
	"github.com/garagon/skillaudit/internal/types"
)

var (
	base64Re    = regexp.MustCompile(`[A-Za-z0-9+/]{20,}={0,2}`)
	hexRe       = regexp.MustCompile(`(?:\\x[0-9a-fA-F]{2}){4,}`)
	indicatorRe = regexp.MustCompile(`(?i)(curl|wget|bash|sh\b|eval|exec|/bin/|https?://)`)
)

// maxDecodedRunes bounds the decoded text quoted in a description.
const maxDecodedRunes = 100

// Decoder is the deobfuscation phase. It extracts base64 runs and chains
// of \xNN escapes from each line, decodes them, and re-checks the decoded
// text for command indicators and malicious IPs.
type Decoder struct {
	catalog *ioc.Catalog
}

// NewDecoder creates a deobfuscation phase using catalog for IP checks.
func NewDecoder(catalog *ioc.Catalog) *Decoder {
	return &Decoder{catalog: catalog}
}

func (d *Decoder) Name() string { return "deobfuscation" }

func (d *Decoder) Run(tree *scanner.Tree) []types.Finding {
	var findings []types.Finding
	for _, f := range tree.TextFiles() {
		lines, ok := tree.ReadLines(f)
		if !ok {
			continue
		}
		findings = append(findings, d.ScanLines(f.RelPath, lines)...)
	}
	return findings
}

// ScanLines decodes candidate blobs on every line of one file.
func (d *Decoder) ScanLines(rel string, lines []string) []types.Finding {
	var findings []types.Finding
	for i, line := range lines {
		num := i + 1
		excerpt := types.Excerpt(line)
		add := func(desc, tactic string) {
			findings = append(findings, types.Finding{
				Category:    CategoryDeobfuscation,
				Severity:    types.SeverityCritical,
				File:        rel,
				Line:        num,
				Description: desc,
				Content:     excerpt,
				Tactic:      tactic,
			})
		}

		for _, candidate := range base64Re.FindAllString(line, -1) {
			decoded, ok := DecodeBase64(candidate)
			if !ok {
				continue
			}
			if indicatorRe.MatchString(decoded) {
				add(fmt.Sprintf("Base64-decoded hidden command: %s", types.TruncateRunes(decoded, maxDecodedRunes)), TacticObfuscation)
			}
			for _, ip := range d.catalog.MaliciousIPs {
				if strings.Contains(decoded, ip) {
					add(fmt.Sprintf("Base64-decoded C2 IP: %s", ip), TacticC2)
				}
			}
		}

		for _, candidate := range hexRe.FindAllString(line, -1) {
			decoded, ok := DecodeHexEscapes(candidate)
			if !ok {
				continue
			}
			if indicatorRe.MatchString(decoded) {
				add(fmt.Sprintf("Hex-decoded hidden command: %s", types.TruncateRunes(decoded, maxDecodedRunes)), TacticObfuscation)
			}
		}
	}
	return findings
}

// DecodeBase64 decodes a padded standard-alphabet blob. Invalid UTF-8 in
// the result is replaced with U+FFFD. ok is false when s is not valid
// base64, which is the common case for long identifiers.
func DecodeBase64(s string) (string, bool) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", false
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), true
}

// DecodeHexEscapes decodes a run of \xNN escapes.
func DecodeHexEscapes(s string) (string, bool) {
	digits := strings.ReplaceAll(s, `\x`, "")
	raw, err := hex.DecodeString(digits)
	if err != nil || len(raw) == 0 {
		return "", false
	}
	return strings.ToValidUTF8(string(raw), "\uFFFD"), true
}
