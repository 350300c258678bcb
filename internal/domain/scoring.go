package domain

import "strings"

const (
	// Scoring ladder. Tiers never overlap so the match kind alone fixes the
	// coarse ordering and the bonuses only reorder within a tier.
	ScoreExactMatch     = 100.0
	ScorePrefixMatch    = 75.0
	ScoreSubstringMatch = 50.0
	ScoreFuzzyMatch     = 50.0 // scaled down by similarity, always < substring

	// PrefixCoverageBonus rewards prefix matches that cover more of the
	// shortcut (shorter shortcut = more specific match).
	PrefixCoverageBonus = 20.0

	// SubstringPositionBonus rewards substring matches closer to the front.
	SubstringPositionBonus = 10.0

	// FuzzySimilarityFloor is the minimum Levenshtein similarity before a
	// fuzzy match counts at all.
	FuzzySimilarityFloor = 0.5

	// DescriptionMatchScore is the flat score for a query found in an
	// entry's description. Weakest signal, fuzzy tier.
	DescriptionMatchScore = 35.0
)

// MatchKind classifies how a query matched an entry. Higher kinds always
// outrank lower ones regardless of score bonuses.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchFuzzy
	MatchPrefix
	MatchExact
)

func (k MatchKind) String() string {
	switch k {
	case MatchExact:
		return "exact"
	case MatchPrefix:
		return "prefix"
	case MatchFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Score rates one entry against a normalized query. The query must already
// be normalized with NormalizeShortcut. Returns MatchNone with score 0 when
// the entry is not a candidate.
func Score(query string, entry LinkEntry) (MatchKind, float64) {
	if query == "" {
		return MatchNone, 0
	}

	shortcut := NormalizeShortcut(entry.Shortcut)
	if shortcut == "" {
		return MatchNone, 0
	}

	if query == shortcut {
		return MatchExact, ScoreExactMatch
	}

	if strings.HasPrefix(shortcut, query) {
		coverage := float64(len(query)) / float64(len(shortcut))
		return MatchPrefix, ScorePrefixMatch + PrefixCoverageBonus*coverage
	}

	if idx := strings.Index(shortcut, query); idx >= 0 {
		positionBonus := SubstringPositionBonus * (1.0 - float64(idx)/float64(len(shortcut)))
		return MatchFuzzy, ScoreSubstringMatch + positionBonus
	}

	if similarity := Similarity(query, shortcut); similarity >= FuzzySimilarityFloor {
		return MatchFuzzy, ScoreFuzzyMatch * similarity
	}

	if descriptionMatches(query, entry.Description) {
		return MatchFuzzy, DescriptionMatchScore
	}

	return MatchNone, 0
}

// descriptionMatches reports whether every query word appears in the
// description. Display metadata only, so it lands in the weakest tier.
func descriptionMatches(query, description string) bool {
	if description == "" {
		return false
	}
	description = strings.ToLower(description)
	words := strings.Fields(query)
	if len(words) == 0 {
		return false
	}
	for _, word := range words {
		if !strings.Contains(description, word) {
			return false
		}
	}
	return true
}

// Similarity is normalized Levenshtein similarity in [0, 1]:
// 1 - distance/max(len(a), len(b)). Identical strings score 1.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return 1.0 - float64(levenshtein(a, b))/float64(longest)
}

// levenshtein computes edit distance with a two-row table.
func levenshtein(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func minInt(values ...int) int {
	m := values[0]
	for _, v := range values[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
