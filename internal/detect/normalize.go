package detect

import (
	"regexp"
	"strings"

	"github.com/samber/lo"
)

// romanToDecimal maps the Roman numerals this corpus's titles actually use
// (i..xx) to their decimal form, applied as whole-word replacements.
var romanToDecimal = map[string]string{
	"xx": "20", "xix": "19", "xviii": "18", "xvii": "17", "xvi": "16",
	"xv": "15", "xiv": "14", "xiii": "13", "xii": "12", "xi": "11",
	"x": "10", "ix": "9", "viii": "8", "vii": "7", "vi": "6",
	"v": "5", "iv": "4", "iii": "3", "ii": "2", "i": "1",
}

// romanOrder lists romanToDecimal's keys longest-first so "xviii" is
// matched before "x" or "i" inside it.
var romanOrder = []string{
	"xx", "xix", "xviii", "xvii", "xvi", "xv", "xiv", "xiii", "xii", "xi",
	"x", "ix", "viii", "vii", "vi", "v", "iv", "iii", "ii", "i",
}

// knownPhraseReplacements collapses common edition suffixes to a short
// canonical form so "Definitive Edition" and "DE" score identically.
var knownPhraseReplacements = []struct {
	phrase      string
	replacement string
}{
	{"definitive edition", "de"},
	{"game of the year edition", "goty"},
	{"game of the year", "goty"},
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)
var wordBoundarySplit = regexp.MustCompile(`\s+`)

// NormalizeTitle lowercases s, maps Roman numerals to decimal, replaces
// known edition phrases, and collapses non-alphanumeric runs to single
// spaces.
func NormalizeTitle(s string) string {
	out := strings.ToLower(s)

	for _, rep := range knownPhraseReplacements {
		out = strings.ReplaceAll(out, rep.phrase, rep.replacement)
	}

	tokens := wordBoundarySplit.Split(nonAlphanumeric.ReplaceAllString(out, " "), -1)
	for i, tok := range tokens {
		for _, numeral := range romanOrder {
			if tok == numeral {
				tokens[i] = romanToDecimal[numeral]
				break
			}
		}
	}
	out = strings.Join(tokens, " ")

	out = nonAlphanumeric.ReplaceAllString(out, " ")
	out = strings.TrimSpace(out)
	for strings.Contains(out, "  ") {
		out = strings.ReplaceAll(out, "  ", " ")
	}
	return out
}

// tokenSet returns the distinct space-separated tokens of a normalized
// title.
func tokenSet(normalized string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range strings.Fields(normalized) {
		set[tok] = struct{}{}
	}
	return set
}

// jaccard computes the Jaccard index of two token sets.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// TitleScore computes the similarity score in [0,1] between a query string
// and a catalog title: Jaccard over normalized token sets, plus a +0.15
// containment bonus, capped at 1.
func TitleScore(query, title string) float64 {
	nq := NormalizeTitle(query)
	nt := NormalizeTitle(title)

	score := jaccard(tokenSet(nq), tokenSet(nt))

	if nq != "" && nt != "" && (strings.Contains(nt, nq) || strings.Contains(nq, nt)) {
		score += 0.15
	}

	if score > 1 {
		score = 1
	}
	return score
}

// BuildQuerySet assembles the de-duplicated, order-preserving query list:
// product name, file description, user-supplied game name, install folder
// basename, executable basename — in that order.
func BuildQuerySet(productName, fileDescription, gameName, installBase, exeBase string) []string {
	ordered := []string{productName, fileDescription, gameName, installBase, exeBase}
	nonEmpty := lo.Filter(ordered, func(s string, _ int) bool { return strings.TrimSpace(s) != "" })
	seen := make(map[string]struct{}, len(nonEmpty))
	out := make([]string, 0, len(nonEmpty))
	for _, s := range nonEmpty {
		key := NormalizeTitle(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
