package normalizers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExerciseName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Bench Press", "bench press"},
		{"  bench   press  ", "bench press"},
		{"BENCH\tPRESS\n", "bench press"},
		{"DB Bench Press", "db bench press"},
		{"", ""},
		{"   ", ""},
		{"Squat", "squat"},
		{"Café Curl", "café curl"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExerciseName(tt.input))
		})
	}
}

func TestExerciseName_Idempotent(t *testing.T) {
	inputs := []string{
		"Bench Press",
		"  Incline   DB  Press ",
		"ÉLÉVATION latérale",
		"Café",
		" Row ",
		"",
		"pull-up (weighted)",
	}

	for _, input := range inputs {
		once := ExerciseName(input)
		assert.Equal(t, once, ExerciseName(once), "normalizing %q twice changed the result", input)
	}
}

func TestCollapseWhitespace(t *testing.T) {
	assert.Equal(t, "a b c", CollapseWhitespace(" a  b\t\tc "))
	assert.Equal(t, "", CollapseWhitespace("\n\t "))
	assert.Equal(t, "abc", CollapseWhitespace("abc"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"bent", "over", "row"}, Tokens("bent over row"))
	assert.Empty(t, Tokens(""))
}
