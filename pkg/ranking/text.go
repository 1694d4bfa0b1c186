package ranking

import (
	"strings"
	"unicode/utf8"
)

// TextSearchName is the registry name of TextSearch and the fallback strategy.
const TextSearchName = "text_search"

const (
	titleExactWeight = 0.7
	titleWordWeight  = 0.3
	descExactWeight  = 0.3
	descWordWeight   = 0.1
	snippetRadius    = 30
)

// TextSearch scores candidates by case-insensitive substring matching of the
// whole query and of its individual words against title and description.
type TextSearch struct{}

// NewTextSearch returns a TextSearch strategy.
func NewTextSearch() Strategy { return TextSearch{} }

func (TextSearch) Name() string { return TextSearchName }

func (TextSearch) Search(query string, candidates []Candidate) []Result {
	results := make([]Result, 0)
	if query == "" || len(candidates) == 0 {
		return results
	}

	queryLower := strings.ToLower(query)
	words := strings.Fields(queryLower)
	queryLen := utf8.RuneCountInString(query)

	for _, c := range candidates {
		titleLower := strings.ToLower(c.Title)
		descLower := strings.ToLower(c.Description)

		var score float64
		// 第一个命中部分作为 matched_text：标题优先于描述片段
		var matched []string

		if strings.Contains(titleLower, queryLower) {
			score += titleExactWeight
			matched = append(matched, c.Title)
		} else {
			titleHit := false
			for _, w := range words {
				if strings.Contains(titleLower, w) {
					score += titleWordWeight / float64(len(words))
					titleHit = true
				}
			}
			if titleHit {
				matched = append(matched, c.Title)
			}
		}

		if idx := strings.Index(descLower, queryLower); idx >= 0 {
			score += descExactWeight
			matched = append(matched, "..."+snippet(c.Description, descLower, idx, queryLen)+"...")
		} else {
			for _, w := range words {
				if strings.Contains(descLower, w) {
					score += descWordWeight / float64(len(words))
				}
			}
		}

		if score <= 0 {
			continue
		}

		matchedText := c.Title
		if len(matched) > 0 {
			matchedText = matched[0]
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

// snippet returns up to snippetRadius runes either side of the match found at
// byte offset idx of lower, cut from the original description.
func snippet(desc, lower string, idx, queryLen int) string {
	runes := []rune(desc)
	start := utf8.RuneCountInString(lower[:idx]) - snippetRadius
	if start < 0 {
		start = 0
	}
	end := utf8.RuneCountInString(lower[:idx]) + queryLen + snippetRadius
	if end > len(runes) {
		end = len(runes)
	}
	if start > end {
		start = end
	}
	return string(runes[start:end])
}
