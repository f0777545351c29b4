// Package whitelist computes the score reduction granted to skills whose
// text references well-known, legitimate infrastructure.
package whitelist

import (
	"regexp"
	"strings"

	"github.com/garagon/skillaudit/internal/ioc"
	"github.com/garagon/skillaudit/internal/meta"
	"github.com/garagon/skillaudit/internal/scanner"
)

// Reducer awards one point per safe domain mentioned anywhere in the
// corpus and half a point per safe binary mentioned as a whole word.
// Fractions are floored and the total is capped at meta.MaxReduction.
type Reducer struct {
	domains  []string
	binaries []*regexp.Regexp
}

// New builds a reducer from the catalog's safe lists.
func New(catalog *ioc.Catalog) *Reducer {
	r := &Reducer{domains: append([]string(nil), catalog.SafeDomains...)}
	for _, b := range catalog.SafeBinaries {
		r.binaries = append(r.binaries, regexp.MustCompile(`\b`+regexp.QuoteMeta(strings.ToLower(b))+`\b`))
	}
	return r
}

// Reduction concatenates the lower-cased text of every text file in the
// tree and scores it.
func (r *Reducer) Reduction(tree *scanner.Tree) int {
	var b strings.Builder
	for _, f := range tree.TextFiles() {
		text, ok := tree.ReadText(f)
		if !ok {
			continue
		}
		b.WriteString(strings.ToLower(text))
		b.WriteByte('\n')
	}
	return r.Score(b.String())
}

// Score returns the reduction for an already lower-cased corpus.
func (r *Reducer) Score(corpus string) int {
	halves := 0
	for _, d := range r.domains {
		if strings.Contains(corpus, d) {
			halves += 2
		}
	}
	for _, re := range r.binaries {
		if re.MatchString(corpus) {
			halves++
		}
	}
	return meta.ClampReduction(halves / 2)
}
