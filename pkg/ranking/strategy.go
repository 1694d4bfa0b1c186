// Package ranking scores search candidates against a query.
//
// Strategies are pure: no I/O, no shared state, deterministic for the same
// input. New behaviours are added by registering a constructor on a Registry,
// never by branching on the algorithm name elsewhere.
package ranking

import (
	"sort"
)

// Candidate is a single searchable item supplied by the caller.
type Candidate struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Result is a scored candidate. RelevanceScore is always within [0, 1].
type Result struct {
	CandidateID    int64   `json:"video_id"`
	Title          string  `json:"title"`
	RelevanceScore float64 `json:"relevance_score"`
	MatchedText    string  `json:"matched_text"`
}

// Strategy ranks candidates for a query.
type Strategy interface {
	Name() string
	// Search returns matching candidates ordered by descending score.
	// An empty query or candidate set yields an empty, non-nil slice.
	Search(query string, candidates []Candidate) []Result
}

// sortByScore orders results by descending score, keeping input order on ties.
func sortByScore(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})
}

func clamp(score float64) float64 {
	if score > 1.0 {
		return 1.0
	}
	if score < 0 {
		return 0
	}
	return score
}
