package matching

import (
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Weights applied to the two halves of the similarity score
const (
	tokenWeight = 0.5
	editWeight  = 0.5
)

// Scorer provides the string comparison algorithms used to rank exercise names
type Scorer struct{}

// NewScorer creates a new Scorer
func NewScorer() *Scorer {
	return &Scorer{}
}

var defaultScorer = NewScorer()

// Similarity scores two normalized exercise names with the default scorer
func Similarity(a, b string) float64 {
	return defaultScorer.Similarity(a, b)
}

// Similarity returns a score between 0.0 (unrelated) and 1.0 (identical) for two
// pre-normalized names. It blends token overlap with a length-normalized edit distance,
// so "bench press" ranks closer to "incline bench press" than to "squat".
func (s *Scorer) Similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	score := tokenWeight*s.TokenSet(a, b) + editWeight*s.Levenshtein(a, b)
	return clamp(score)
}

// TokenSet averages token containment and Jaccard overlap of the word sets
func (s *Scorer) TokenSet(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}

	shared := 0
	for token := range setA {
		if _, ok := setB[token]; ok {
			shared++
		}
	}
	if shared == 0 {
		return 0.0
	}

	union := len(setA) + len(setB) - shared
	containment := float64(shared) / float64(min(len(setA), len(setB)))
	jaccard := float64(shared) / float64(union)

	return (containment + jaccard) / 2
}

// Levenshtein calculates the edit distance between two strings
// Returns a similarity score between 0.0 and 1.0
func (s *Scorer) Levenshtein(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)
	maxLen := max(len(ra), len(rb))
	if maxLen == 0 {
		return 1.0
	}
	distance := levenshteinDistance(ra, rb)
	return 1.0 - float64(distance)/float64(maxLen)
}

// LevenshteinDistance calculates the edit distance between two strings in runes
func (s *Scorer) LevenshteinDistance(a, b string) int {
	return levenshteinDistance([]rune(a), []rune(b))
}

func levenshteinDistance(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	// Create two rows for dynamic programming
	row := make([]int, len(b)+1)
	prevRow := make([]int, len(b)+1)

	for j := 0; j <= len(b); j++ {
		prevRow[j] = j
	}

	for i := 1; i <= len(a); i++ {
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}
			row[j] = min(row[j-1]+1, prevRow[j]+1, prevRow[j-1]+cost)
		}
		row, prevRow = prevRow, row
	}

	return prevRow[len(b)]
}

func tokenSet(s string) map[string]struct{} {
	tokens := normalizers.Tokens(s)
	set := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		set[token] = struct{}{}
	}
	return set
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
