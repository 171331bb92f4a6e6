// Package match resolves free-text names against a canonical dictionary by
// string similarity. Matching is a full cross-product scan; the inputs are
// in the low hundreds, so no index is needed, and the full scan keeps match
// outcomes exactly reproducible.
package match

import (
	"math"
	"sort"
	"strings"

	"github.com/texttheater/golang-levenshtein/levenshtein"
)

// NoMatch marks a query that could not be resolved. Callers leave the
// attribute unresolved instead of failing.
const NoMatch = ""

// Entry is one canonical dictionary element.
type Entry struct {
	Key   string
	Label string
}

// Dictionary is an ordered list of canonical entries. Order matters: ties
// between equal-scoring labels break toward the earliest entry, which keeps
// repeated invocations deterministic.
type Dictionary []Entry

// Resolve maps every query string to the key of its best-matching canonical
// label. Every query appears in the result; when the dictionary is empty
// the value is NoMatch.
func Resolve(queries []string, dict Dictionary) map[string]string {
	out := make(map[string]string, len(queries))
	for _, q := range queries {
		out[q] = bestKey(q, dict)
	}
	return out
}

func bestKey(query string, dict Dictionary) string {
	best := NoMatch
	bestScore := -1
	for _, e := range dict {
		if score := TokenSortRatio(query, e.Label); score > bestScore {
			best = e.Key
			bestScore = score
		}
	}
	return best
}

// TokenSortRatio scores two strings on a 0-100 scale, insensitive to token
// order: both sides are lowercased, whitespace-tokenized, sorted and
// rejoined before the edit-distance ratio is taken.
func TokenSortRatio(a, b string) int {
	na, nb := tokenSort(a), tokenSort(b)
	ra, rb := []rune(na), []rune(nb)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 100
	}
	dist := levenshtein.DistanceForStrings(ra, rb, levenshtein.DefaultOptions)
	return int(math.Round(100 * (1 - float64(dist)/float64(longest))))
}

func tokenSort(s string) string {
	tokens := strings.Fields(strings.ToLower(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}
