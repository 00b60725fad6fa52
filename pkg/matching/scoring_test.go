package matching

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/fern/pkg/normalizers"
)

var names = []string{
	"bench press",
	"incline bench press",
	"db bench press",
	"squat",
	"front squat",
	"row",
	"bent over row",
	"curl",
	"",
}

func TestSimilarity_Symmetric(t *testing.T) {
	for _, a := range names {
		for _, b := range names {
			assert.Equal(t, Similarity(a, b), Similarity(b, a), "similarity(%q, %q) is not symmetric", a, b)
		}
	}
}

func TestSimilarity_Identity(t *testing.T) {
	for _, a := range names {
		assert.Equal(t, 1.0, Similarity(a, a), "similarity(%q, %q) should be 1", a, a)
	}
}

func TestSimilarity_Bounds(t *testing.T) {
	for _, a := range names {
		for _, b := range names {
			score := Similarity(a, b)
			assert.GreaterOrEqual(t, score, 0.0)
			assert.LessOrEqual(t, score, 1.0)
		}
	}
}

func TestSimilarity_EmptyInputs(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 0.0, Similarity("", "squat"))
	assert.Equal(t, 0.0, Similarity("squat", ""))
}

func TestSimilarity_Ranking(t *testing.T) {
	bench := normalizers.ExerciseName("bench press")
	incline := normalizers.ExerciseName("incline bench press")
	squat := normalizers.ExerciseName("squat")

	assert.Greater(t, Similarity(bench, incline), Similarity(bench, squat))
	assert.Greater(t, Similarity("row", "bent over row"), Similarity("row", "curl"))
	assert.Less(t, Similarity("row", "curl"), 0.5)
}

func TestScorer_Levenshtein(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 0, s.LevenshteinDistance("row", "row"))
	assert.Equal(t, 3, s.LevenshteinDistance("kitten", "sitting"))
	assert.Equal(t, 1, s.LevenshteinDistance("café", "cafe"))
	assert.Equal(t, 1.0, s.Levenshtein("", ""))
	assert.InDelta(t, 1.0-3.0/7.0, s.Levenshtein("kitten", "sitting"), 1e-9)
}

func TestScorer_TokenSet(t *testing.T) {
	s := NewScorer()

	assert.Equal(t, 1.0, s.TokenSet("bench press", "press bench"))
	assert.Equal(t, 0.0, s.TokenSet("bench press", "squat"))
	// containment 1, jaccard 2/3
	assert.InDelta(t, (1.0+2.0/3.0)/2, s.TokenSet("bench press", "incline bench press"), 1e-9)
}

func TestRank(t *testing.T) {
	candidates := Rank("bench press", names, RankOptions[string]{
		Name:      func(s string) string { return s },
		TieBreak:  strings.Compare,
		Threshold: 0.5,
	})

	if assert.NotEmpty(t, candidates) {
		assert.Equal(t, "bench press", candidates[0].Item)
		assert.Equal(t, 1.0, candidates[0].Score)
	}
	for i := 1; i < len(candidates); i++ {
		assert.GreaterOrEqual(t, candidates[i-1].Score, candidates[i].Score)
	}
	for _, c := range candidates {
		assert.NotEqual(t, "squat", c.Item)
		assert.GreaterOrEqual(t, c.Score, 0.5)
	}
}

func TestRank_TieBreak(t *testing.T) {
	items := []string{"b", "c", "a"}
	candidates := Rank("zzz", items, RankOptions[string]{
		Name:     func(string) string { return "yyy" },
		TieBreak: strings.Compare,
	})

	assert.Equal(t, []string{"a", "b", "c"}, []string{candidates[0].Item, candidates[1].Item, candidates[2].Item})
}
