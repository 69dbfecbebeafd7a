package numword

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	leadingInt = regexp.MustCompile(`^[+-]?[0-9]+`)
	fillerHead = regexp.MustCompile(`(?i)^(le nombre|la réponse est|c['’]est|ça fait)\s*`)
	fillerTail = regexp.MustCompile(`(?i)\s*(c['’]est ça|voilà|merci)$`)
	separators = regexp.MustCompile(`[\s\-]+`)
)

// minContainedLen is the rune length a number word must exceed before it is
// accepted as a substring of a longer transcript. It keeps "un" from matching
// inside unrelated words.
const minContainedLen = 2

// entry is one precomputed number word variation, separator-normalized.
type entry struct {
	value int
	text  string
	runes int
}

// table holds every variation for 0..100 in ascending numeric order.
var table = buildTable()

func buildTable() []entry {
	var out []entry
	for n := Min; n <= Max; n++ {
		seen := make(map[string]struct{}, 5)
		for _, v := range Variations(MustWords(n)) {
			norm := normalizeSeparators(v)
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			out = append(out, entry{value: n, text: norm, runes: utf8.RuneCountInString(norm)})
		}
	}
	return out
}

// compound recovers seventies and eighties/nineties said with irregular
// spacing ("quatrevingt deux"). Longer suffix alternatives come first so that
// "dix-sept" is not cut short at "dix".
type compound struct {
	pattern *regexp.Regexp
	base    int
	value   int // fixed value when the pattern has no suffix group
}

const teenSuffixes = `dix[\s\-]*sept|dix[\s\-]*huit|dix[\s\-]*neuf|onze|douze|treize|quatorze|quinze|seize|dix`

var compounds = []compound{
	{pattern: regexp.MustCompile(`(?i)soixante[\s\-]*(et[\s\-]*onze|` + teenSuffixes + `)`), base: 60},
	{pattern: regexp.MustCompile(`(?i)quatre[\s\-]*vingt[\s\-]*(` + teenSuffixes + `)`), base: 80},
	{pattern: regexp.MustCompile(`(?i)quatre[\s\-]*vingts?$`), value: 80},
	{pattern: regexp.MustCompile(`(?i)quatre[\s\-]*vingt[\s\-]*(un|deux|trois|quatre|cinq|six|sept|huit|neuf)`), base: 80},
}

// suffixOffsets maps a separator-free suffix to its offset from the base. The
// order matters: compound teens are tested before the bare "dix".
var suffixOffsets = []struct {
	token  string
	offset int
}{
	{"onze", 11}, {"douze", 12}, {"treize", 13}, {"quatorze", 14}, {"quinze", 15},
	{"seize", 16}, {"dixsept", 17}, {"dixhuit", 18}, {"dixneuf", 19}, {"dix", 10},
	{"un", 1}, {"deux", 2}, {"trois", 3}, {"quatre", 4}, {"cinq", 5},
	{"six", 6}, {"sept", 7}, {"huit", 8}, {"neuf", 9},
}

// Parse extracts an integer in [Min, Max] from a spoken transcript. It reports
// false when text is empty or holds no recognisable number; an unparseable
// transcript is an ordinary outcome, not an error.
//
// Resolution order: leading digits; exact match of the whole (filler-stripped)
// transcript against a number word; the compound seventies/eighties patterns;
// finally the longest number word contained in the transcript.
func Parse(text string) (int, bool) {
	s := strings.ToLower(strings.TrimSpace(text))
	if s == "" {
		return 0, false
	}

	if m := leadingInt.FindString(s); m != "" {
		if n, err := strconv.Atoi(m); err == nil && n >= Min && n <= Max {
			return n, true
		}
	}

	cleaned := Clean(s)
	normalized := normalizeSeparators(cleaned)
	if normalized == "" {
		return 0, false
	}

	for _, e := range table {
		if e.text == normalized {
			return e.value, true
		}
	}

	if n, ok := parseCompound(cleaned); ok {
		return n, true
	}

	best, bestLen := 0, 0
	for _, e := range table {
		if e.runes > minContainedLen && e.runes > bestLen && strings.Contains(normalized, e.text) {
			best, bestLen = e.value, e.runes
		}
	}
	if bestLen > 0 {
		return best, true
	}
	return 0, false
}

// Clean lowercases text and strips the filler phrases children tend to wrap
// an answer in ("le nombre …", "c'est …", "… merci").
func Clean(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = fillerHead.ReplaceAllString(s, "")
	s = fillerTail.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

func parseCompound(s string) (int, bool) {
	for _, c := range compounds {
		m := c.pattern.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		if len(m) < 2 {
			return c.value, true
		}
		suffix := separators.ReplaceAllString(m[1], "")
		for _, so := range suffixOffsets {
			if strings.Contains(suffix, so.token) {
				return c.base + so.offset, true
			}
		}
	}
	return 0, false
}

func normalizeSeparators(s string) string {
	return strings.TrimSpace(separators.ReplaceAllString(s, " "))
}
