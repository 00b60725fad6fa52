// Package normalizers reduces raw exercise names to comparison keys
package normalizers

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Normalizer is a function that normalizes a string value
type Normalizer func(string) string

// ExerciseName is the canonical lookup key for an exercise name.
// Every comparison and every stored normalized_name must go through it.
var ExerciseName = Chain(ComposeUnicode, Lowercase, CollapseWhitespace)

// Chain applies normalizers in sequence
func Chain(fns ...Normalizer) Normalizer {
	return func(s string) string {
		for _, fn := range fns {
			s = fn(s)
		}
		return s
	}
}

// ComposeUnicode puts the string in NFC so visually identical names compare equal
func ComposeUnicode(s string) string {
	return norm.NFC.String(s)
}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// CollapseWhitespace trims the string and replaces every interior whitespace run with one space
func CollapseWhitespace(s string) string {
	var result strings.Builder
	result.Grow(len(s))

	pendingSpace := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			pendingSpace = result.Len() > 0
			continue
		}
		if pendingSpace {
			result.WriteByte(' ')
			pendingSpace = false
		}
		result.WriteRune(r)
	}

	return result.String()
}

// Tokens splits a normalized name into its words
func Tokens(s string) []string {
	return strings.Fields(s)
}
