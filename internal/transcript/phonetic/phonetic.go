// Package phonetic folds French text into an approximate pronunciation key and
// scores the closeness of two keys.
//
// [Key] runs a fixed, ordered pipeline of string rewrites. Spelling variants that
// sound alike in French ("château" / "chato", "parler" / "parlé") collapse to
// the same or nearly the same key, so that a noisy speech-to-text transcript can
// be compared against the expected text with a plain edit distance
// ([Similarity]).
//
// Keys are built over lowercase Latin letters plus a few uppercase marker
// characters standing for sound classes:
//
//	S  ch, sh
//	A  an, en, am, em
//	I  in, ain, ein, im, aim
//	O  on, om
//	U  un, um
//	N  gn
//
// Word boundaries are discarded: matching happens on the concatenated stream.
//
// All functions are pure and safe for concurrent use.
package phonetic

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Marker characters emitted by the nasal, digraph and gn folding steps.
const (
	MarkerCh = 'S'
	MarkerAn = 'A'
	MarkerIn = 'I'
	MarkerOn = 'O'
	MarkerUn = 'U'
	MarkerGn = 'N'
)

// step is one named rewrite of the pipeline.
type step struct {
	name  string
	apply func(string) string
}

var (
	nonLetter = regexp.MustCompile(`[^a-z]+`)

	vowelO  = regexp.MustCompile(`eau|au`)
	vowelE  = regexp.MustCompile(`ai|ei|eu`)
	nasalAn = regexp.MustCompile(`an|en|am|em`)
	nasalIn = regexp.MustCompile(`in|ain|ein|im|aim`)
	nasalOn = regexp.MustCompile(`on|om`)
	nasalUn = regexp.MustCompile(`un|um`)
)

// pipeline is the ordered list of rewrites applied by [Key]. The order is
// significant: the soft/hard c and g rules must see the output of the vowel and
// nasal folding.
var pipeline = []step{
	{"lowercase", strings.ToLower},
	{"cedilla", func(s string) string { return strings.ReplaceAll(s, "ç", "s") }},
	{"strip-accents", stripAccents},
	{"letters-only", func(s string) string { return nonLetter.ReplaceAllString(s, "") }},
	{"digraphs", foldDigraphs},
	{"vowels", foldVowels},
	{"nasals", foldNasals},
	{"gn", func(s string) string { return strings.ReplaceAll(s, "gn", string(MarkerGn)) }},
	{"soft-c", func(s string) string { return replaceBeforeFront(s, 'c', 's') }},
	{"hard-c", func(s string) string { return strings.ReplaceAll(s, "c", "k") }},
	{"soft-g", func(s string) string { return replaceBeforeFront(s, 'g', 'j') }},
	{"gu", foldGu},
	{"x", func(s string) string { return strings.ReplaceAll(s, "x", "ks") }},
	{"silent-h", func(s string) string { return strings.ReplaceAll(s, "h", "") }},
	{"doubles", collapseRuns},
	{"final-er", dropFinalR},
	{"final-e", dropFinalE},
}

// Key returns the phonetic key of text. It never fails; empty input, or input
// without any Latin letter, yields "".
func Key(text string) string {
	if text == "" {
		return ""
	}
	s := text
	for _, st := range pipeline {
		s = st.apply(s)
		if s == "" {
			return ""
		}
	}
	return s
}

// accentStripper decomposes to NFD and removes combining marks.
var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)))

func stripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

func foldDigraphs(s string) string {
	s = strings.ReplaceAll(s, "ph", "f")
	s = strings.ReplaceAll(s, "ch", string(MarkerCh))
	s = strings.ReplaceAll(s, "sh", string(MarkerCh))
	return strings.ReplaceAll(s, "qu", "k")
}

func foldVowels(s string) string {
	s = vowelO.ReplaceAllString(s, "o")
	s = strings.ReplaceAll(s, "ou", "u")
	return vowelE.ReplaceAllString(s, "e")
}

func foldNasals(s string) string {
	s = nasalAn.ReplaceAllString(s, string(MarkerAn))
	s = nasalIn.ReplaceAllString(s, string(MarkerIn))
	s = nasalOn.ReplaceAllString(s, string(MarkerOn))
	return nasalUn.ReplaceAllString(s, string(MarkerUn))
}

func isFrontVowel(b byte) bool {
	return b == 'e' || b == 'i' || b == 'y'
}

// replaceBeforeFront replaces every from byte that is followed by e, i or y.
// The input is ASCII once the letters-only step has run.
func replaceBeforeFront(s string, from, to byte) string {
	if strings.IndexByte(s, from) < 0 {
		return s
	}
	b := []byte(s)
	for i := 0; i+1 < len(b); i++ {
		if s[i] == from && isFrontVowel(s[i+1]) {
			b[i] = to
		}
	}
	return string(b)
}

// foldGu turns "gu" into "g" when a front vowel follows ("guerre" → "gerre").
func foldGu(s string) string {
	if !strings.Contains(s, "gu") {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == 'g' && i+2 < len(s) && s[i+1] == 'u' && isFrontVowel(s[i+2]) {
			sb.WriteByte('g')
			i++
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

func collapseRuns(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if i > 0 && s[i] == s[i-1] {
			continue
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}

// dropFinalR approximates the silent r of infinitives ("parler" → "parle").
func dropFinalR(s string) string {
	if len(s) > 3 && (strings.HasSuffix(s, "er") || strings.HasSuffix(s, "ez")) {
		return s[:len(s)-1]
	}
	return s
}

func dropFinalE(s string) string {
	if len(s) > 1 && s[len(s)-1] == 'e' {
		return s[:len(s)-1]
	}
	return s
}
