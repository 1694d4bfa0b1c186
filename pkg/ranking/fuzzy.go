package ranking

import (
	"strings"
	"unicode/utf8"
)

// FuzzySearchName is the registry name of FuzzySearch.
const FuzzySearchName = "fuzzy_search"

const (
	fuzzyTitleWeight    = 0.7
	fuzzyDescWeight     = 0.3
	fuzzyMinScore       = 0.2
	fuzzySubstringScore = 0.9
	fuzzyExcerptRunes   = 50
)

// FuzzySearch scores candidates by character containment, which tolerates
// typos and reordered letters at the cost of precision.
type FuzzySearch struct{}

// NewFuzzySearch returns a FuzzySearch strategy.
func NewFuzzySearch() Strategy { return FuzzySearch{} }

func (FuzzySearch) Name() string { return FuzzySearchName }

func (FuzzySearch) Search(query string, candidates []Candidate) []Result {
	results := make([]Result, 0)
	if query == "" || len(candidates) == 0 {
		return results
	}

	for _, c := range candidates {
		titleSim := similarity(query, c.Title)
		descSim := similarity(query, c.Description)

		score := titleSim * fuzzyTitleWeight
		if d := descSim * fuzzyDescWeight; d > score {
			score = d
		}
		if score <= fuzzyMinScore {
			continue
		}

		matchedText := c.Title
		if titleSim < descSim {
			matchedText = excerpt(c.Description, fuzzyExcerptRunes)
		}
		results = append(results, Result{
			CandidateID:    c.ID,
			Title:          c.Title,
			RelevanceScore: clamp(score),
			MatchedText:    matchedText,
		})
	}

	sortByScore(results)
	return results
}

// similarity is a position-insensitive containment ratio: the share of runes
// of a that occur anywhere in b, over the longer length. Substrings score 0.9.
func similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	a, b = strings.ToLower(a), strings.ToLower(b)
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return fuzzySubstringScore
	}

	matches := 0
	for _, r := range a {
		if strings.ContainsRune(b, r) {
			matches++
		}
	}

	longest := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > longest {
		longest = n
	}
	return float64(matches) / float64(longest)
}

func excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
