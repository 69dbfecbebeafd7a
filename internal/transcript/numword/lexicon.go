// Package numword converts integers 0–100 to their French spoken form and
// parses noisy French transcripts back into integers.
//
// The lexicon ([ToWords]) is a total function over [Min, Max] and encodes the
// irregular French forms ("vingt et un", "soixante et onze", "quatre-vingts",
// "quatre-vingt-un"). The parser ([Parse]) is best-effort: it accepts digits,
// spaced or hyphenated number words, common filler phrases around the answer,
// and a few irregular spellings of the seventies and eighties/nineties.
package numword

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Bounds of the supported domain.
const (
	Min = 0
	Max = 100
)

// ErrOutOfRange is returned by [ToWords] for integers outside [Min, Max].
var ErrOutOfRange = errors.New("numword: number out of range")

var (
	units = [...]string{"zéro", "un", "deux", "trois", "quatre", "cinq", "six", "sept", "huit", "neuf"}
	teens = [...]string{"dix", "onze", "douze", "treize", "quatorze", "quinze", "seize", "dix-sept", "dix-huit", "dix-neuf"}
	tens  = [...]string{"", "", "vingt", "trente", "quarante", "cinquante", "soixante"}
)

// ToWords returns the canonical French phrase for n. It fails with an error
// wrapping [ErrOutOfRange] when n is outside [Min, Max]; it never clamps.
func ToWords(n int) (string, error) {
	switch {
	case n < Min || n > Max:
		return "", fmt.Errorf("%w: %d not in [%d, %d]", ErrOutOfRange, n, Min, Max)
	case n < 10:
		return units[n], nil
	case n < 20:
		return teens[n-10], nil
	case n < 70:
		t, u := n/10, n%10
		switch u {
		case 0:
			return tens[t], nil
		case 1:
			return tens[t] + " et un", nil
		}
		return tens[t] + "-" + units[u], nil
	case n < 80:
		switch n {
		case 70:
			return "soixante-dix", nil
		case 71:
			return "soixante et onze", nil
		}
		return "soixante-" + teens[n-70], nil
	case n == 80:
		return "quatre-vingts", nil
	case n < 90:
		return "quatre-vingt-" + units[n-80], nil
	case n < 100:
		return "quatre-vingt-" + teens[n-90], nil
	}
	return "cent", nil
}

// MustWords is like [ToWords] but panics on out-of-range input. It is meant
// for values already known to be in range, such as generated math operands.
func MustWords(n int) string {
	w, err := ToWords(n)
	if err != nil {
		panic(err)
	}
	return w
}

// Variations returns the five spelling variations of word that the parser
// compares against: as-is, hyphens as spaces, spaces removed, hyphens removed,
// and spaces as hyphens.
func Variations(word string) []string {
	return []string{
		word,
		strings.ReplaceAll(word, "-", " "),
		strings.Join(strings.Fields(word), ""),
		strings.ReplaceAll(word, "-", ""),
		strings.Join(strings.Fields(word), "-"),
	}
}

// SpokenForms lists the distinct ways a child may say n when answering: the
// digits, the canonical words with hyphens or spaces, and the usual
// "le nombre …" style phrases.
func SpokenForms(n int) ([]string, error) {
	base, err := ToWords(n)
	if err != nil {
		return nil, err
	}
	forms := []string{
		strconv.Itoa(n),
		base,
		strings.ReplaceAll(base, "-", " "),
		strings.Join(strings.Fields(base), "-"),
		"le nombre " + base,
		"c'est " + base,
		"la réponse est " + base,
	}
	out := forms[:0]
	seen := make(map[string]struct{}, len(forms))
	for _, f := range forms {
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out, nil
}
