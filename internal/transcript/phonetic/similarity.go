package phonetic

import (
	"unicode/utf8"

	"github.com/antzucaro/matchr"
)

// Distance returns the Levenshtein edit distance between a and b, counted in
// runes. Substitution, insertion and deletion each cost 1.
func Distance(a, b string) int {
	return matchr.Levenshtein(a, b)
}

// Similarity returns how close a and b are as a percentage in [0, 100]:
// (maxLen - distance) / maxLen * 100, where maxLen is the rune length of the
// longer string. Two empty strings are a full match (100).
func Similarity(a, b string) float64 {
	maxLen := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if maxLen == 0 {
		return 100
	}
	d := Distance(a, b)
	return float64(maxLen-d) / float64(maxLen) * 100
}
