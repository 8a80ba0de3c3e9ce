// Package match resolves free-text film-location mentions to registry
// addresses: a substring pre-filter narrows the registry to candidate rows,
// fuzzy ranking picks the best street address, and a landmark table catches
// named places that carry no street name at all.
package match

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/agext/levenshtein"
)

var simParams = levenshtein.NewParams()

// Ratio scores edit-distance similarity of two strings as an integer 0..100.
// Identical strings score 100.
func Ratio(a, b string) int {
	if a == b {
		return 100
	}
	return int(math.Round(levenshtein.Similarity(a, b, simParams) * 100))
}

// foldTokens lowercases and splits on every non-alphanumeric rune, so
// "Painted Ladies, Alamo Square" and "painted ladies alamo square" tokenize
// identically.
func foldTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

// tokenSet returns the sorted distinct tokens of s.
func tokenSet(s string) []string {
	toks := foldTokens(s)
	sort.Strings(toks)
	var out []string
	for i, t := range toks {
		if i == 0 || t != toks[i-1] {
			out = append(out, t)
		}
	}
	return out
}

// TokenSortRatio compares the two strings with their tokens sorted, making
// the score insensitive to word order. Either side folding to no tokens
// scores 0.
func TokenSortRatio(a, b string) int {
	ta, tb := foldTokens(a), foldTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	sort.Strings(ta)
	sort.Strings(tb)
	return Ratio(strings.Join(ta, " "), strings.Join(tb, " "))
}

// TokenSetRatio scores the best pairwise similarity among the token
// intersection and each side's intersection-plus-remainder. A string whose
// tokens are a subset of the other's scores 100.
func TokenSetRatio(a, b string) int {
	ta, tb := tokenSet(a), tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inA := make(map[string]bool, len(ta))
	for _, t := range ta {
		inA[t] = true
	}
	inB := make(map[string]bool, len(tb))
	for _, t := range tb {
		inB[t] = true
	}

	var inter, restA, restB []string
	for _, t := range ta {
		if inB[t] {
			inter = append(inter, t)
		} else {
			restA = append(restA, t)
		}
	}
	for _, t := range tb {
		if !inA[t] {
			restB = append(restB, t)
		}
	}

	s0 := strings.Join(inter, " ")
	s1 := strings.TrimSpace(s0 + " " + strings.Join(restA, " "))
	s2 := strings.TrimSpace(s0 + " " + strings.Join(restB, " "))

	best := Ratio(s0, s1)
	if r := Ratio(s0, s2); r > best {
		best = r
	}
	if r := Ratio(s1, s2); r > best {
		best = r
	}
	return best
}
