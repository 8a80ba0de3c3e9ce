package match

import (
	"strings"

	"github.com/reelmap/locations-cli/internal/model"
)

// Index narrows the registry to the rows worth fuzzy-ranking for a query.
// It is a pure view over the registry: the same text always yields the same
// candidates in the same order.
type Index struct {
	reg *model.Registry
}

// NewIndex creates a candidate index over the registry.
func NewIndex(reg *model.Registry) *Index {
	return &Index{reg: reg}
}

// StreetsIn returns the street names that occur as literal substrings of the
// text, in the registry's first-seen street order.
func (ix *Index) StreetsIn(text string) []string {
	var out []string
	for _, street := range ix.reg.StreetNames() {
		if strings.Contains(text, street) {
			out = append(out, street)
		}
	}
	return out
}

// Candidates returns the registry rows whose street name occurs inside the
// text, in registry order. A nil result means the fuzzy step short-circuits.
func (ix *Index) Candidates(text string) []model.AddressRecord {
	streets := ix.StreetsIn(text)
	if len(streets) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(streets))
	for _, s := range streets {
		wanted[s] = true
	}

	var out []model.AddressRecord
	for _, rec := range ix.reg.Records {
		if wanted[rec.StreetName] {
			out = append(out, rec)
		}
	}
	return out
}
