// Package matching scores and ranks exercise names against each other
package matching

import (
	"cmp"
	"slices"
)

// Candidate is an item annotated with its similarity to a target name
type Candidate[T any] struct {
	Item  T
	Score float64
}

// RankOptions controls how candidates are scored and ordered
type RankOptions[T any] struct {
	// Name returns the normalized name compared against the target
	Name func(T) string
	// TieBreak orders candidates with equal scores
	TieBreak func(a, b T) int
	// Threshold drops candidates scoring below it
	Threshold float64
}

// Rank scores every item against target, keeps those at or above the threshold and
// orders them by descending score, breaking ties with opts.TieBreak.
func Rank[T any](target string, items []T, opts RankOptions[T]) []Candidate[T] {
	candidates := make([]Candidate[T], 0, len(items))
	for _, item := range items {
		score := Similarity(target, opts.Name(item))
		if score < opts.Threshold {
			continue
		}
		candidates = append(candidates, Candidate[T]{Item: item, Score: score})
	}

	slices.SortStableFunc(candidates, func(a, b Candidate[T]) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		if opts.TieBreak == nil {
			return 0
		}
		return opts.TieBreak(a.Item, b.Item)
	})

	return candidates
}
