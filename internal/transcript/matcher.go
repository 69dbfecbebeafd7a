package transcript

import (
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/MrWong99/histoires/internal/transcript/numword"
	"github.com/MrWong99/histoires/internal/transcript/phonetic"
)

// minContainedKey is the key length a sentence target must exceed before its
// containment in the spoken key counts as a match.
const minContainedKey = 3

// Option is a functional option for configuring a [Matcher].
type Option func(*Matcher)

// WithThreshold sets the minimum similarity percentage a transcript must
// reach. Values outside [0, 100] are clamped. Default: [DefaultThreshold].
func WithThreshold(threshold int) Option {
	return func(m *Matcher) {
		m.threshold = min(max(threshold, 0), 100)
	}
}

// WithTraceLogger attaches a logger that receives one debug record per match
// decision. When nil (the default), tracing is disabled.
func WithTraceLogger(l *slog.Logger) Option {
	return func(m *Matcher) {
		m.trace = l
	}
}

// WithObserver registers a callback invoked synchronously with every
// [Decision]. It is typically used to feed metrics. The callback must be safe
// for concurrent use when the Matcher is shared.
func WithObserver(fn func(Decision)) Option {
	return func(m *Matcher) {
		m.observer = fn
	}
}

// Matcher evaluates transcripts against expected sentences, keywords and
// numbers. It is read-only after construction and safe for concurrent use.
type Matcher struct {
	threshold int
	trace     *slog.Logger
	observer  func(Decision)
}

// New returns a [Matcher] configured with the supplied options.
func New(opts ...Option) *Matcher {
	m := &Matcher{threshold: DefaultThreshold}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Threshold returns the configured similarity threshold.
func (m *Matcher) Threshold() int {
	return m.threshold
}

// With returns a copy of m with opts applied on top of its configuration.
func (m *Matcher) With(opts ...Option) *Matcher {
	c := *m
	for _, o := range opts {
		o(&c)
	}
	return &c
}

// IsMatch reports whether spoken satisfies a story choice. In simplified mode
// with a non-empty keyword only the keyword has to be recognised; otherwise
// the whole target sentence is compared.
func (m *Matcher) IsMatch(spoken, target, keyword string, simplified bool) bool {
	return m.Evaluate(spoken, target, keyword, simplified).Matched
}

// Evaluate is [Matcher.IsMatch] returning the full [Decision].
func (m *Matcher) Evaluate(spoken, target, keyword string, simplified bool) Decision {
	d := m.evaluate(spoken, target, keyword, simplified)
	m.report(d)
	return d
}

func (m *Matcher) evaluate(spoken, target, keyword string, simplified bool) Decision {
	d := Decision{Kind: KindSentence, Spoken: spoken, Expected: target, Threshold: m.threshold}
	if simplified && keyword != "" {
		d.Kind = KindKeyword
		d.Expected = keyword
	}
	if spoken == "" {
		d.Rule = RuleEmpty
		return d
	}

	d.SpokenKey = phonetic.Key(spoken)
	d.ExpectedKey = phonetic.Key(d.Expected)
	d.Similarity = phonetic.Similarity(d.SpokenKey, d.ExpectedKey)

	switch d.Kind {
	case KindKeyword:
		if strings.Contains(d.SpokenKey, d.ExpectedKey) {
			d.Rule, d.Matched = RuleContains, true
		} else if d.Similarity >= float64(m.threshold) {
			d.Rule, d.Matched = RuleSimilarity, true
		}
	default:
		if d.Similarity >= float64(m.threshold) {
			d.Rule, d.Matched = RuleSimilarity, true
		} else if len(d.ExpectedKey) > minContainedKey && strings.Contains(d.SpokenKey, d.ExpectedKey) {
			d.Rule, d.Matched = RuleContains, true
		}
	}
	return d
}

// MatchChoice tests candidates in order and returns the first one spoken
// satisfies. Prerequisite gating is the caller's job: pass only the choices
// that are currently available.
func (m *Matcher) MatchChoice(spoken string, candidates []Candidate, simplified bool) MatchResult {
	res := MatchResult{Index: -1}
	for i, c := range candidates {
		d := m.Evaluate(spoken, c.Target, c.Keyword, simplified)
		if d.Matched {
			return MatchResult{Matched: true, Index: i, Decision: d}
		}
		if i == 0 || d.Similarity > res.Decision.Similarity {
			res.Decision = d
		}
	}
	return res
}

// IsNumberMatch reports whether spoken names expected.
func (m *Matcher) IsNumberMatch(spoken string, expected int) bool {
	return m.EvaluateNumber(spoken, expected).Matched
}

// IsNumberMatchPtr is [Matcher.IsNumberMatch] for an optional expected value;
// a nil expected never matches.
func (m *Matcher) IsNumberMatchPtr(spoken string, expected *int) bool {
	if expected == nil {
		m.report(Decision{Kind: KindNumber, Spoken: spoken, Threshold: m.threshold, Rule: RuleEmpty})
		return false
	}
	return m.IsNumberMatch(spoken, *expected)
}

// EvaluateNumber is [Matcher.IsNumberMatch] returning the full [Decision].
func (m *Matcher) EvaluateNumber(spoken string, expected int) Decision {
	d := m.evaluateNumber(spoken, expected)
	m.report(d)
	return d
}

func (m *Matcher) evaluateNumber(spoken string, expected int) Decision {
	digits := strconv.Itoa(expected)
	d := Decision{Kind: KindNumber, Spoken: spoken, Expected: digits, Threshold: m.threshold}
	if spoken == "" {
		d.Rule = RuleEmpty
		return d
	}

	d.Parsed, d.ParsedOK = numword.Parse(spoken)
	if d.ParsedOK && d.Parsed == expected {
		d.Similarity = 100
		d.Rule, d.Matched = RuleExactNumber, true
		return d
	}

	d.SpokenKey = phonetic.Key(spoken)
	if word, err := numword.ToWords(expected); err == nil {
		for _, v := range []string{word, strings.ReplaceAll(word, "-", " "), strings.ReplaceAll(word, " ", "-")} {
			vk := phonetic.Key(v)
			if vk == "" {
				continue
			}
			sim := phonetic.Similarity(d.SpokenKey, vk)
			if d.ExpectedKey == "" || sim > d.Similarity {
				d.Similarity, d.Expected, d.ExpectedKey = sim, v, vk
			}
			switch {
			case sim >= float64(m.threshold):
				d.Rule, d.Matched = RuleSimilarity, true
			case strings.Contains(d.SpokenKey, vk):
				d.Similarity, d.Expected, d.ExpectedKey = sim, v, vk
				d.Rule, d.Matched = RuleContains, true
			}
			if d.Matched {
				return d
			}
		}
	}

	// The phonetic key drops digits, so the digit form is looked up as a
	// whole token of the raw transcript instead.
	for _, tok := range strings.FieldsFunc(spoken, func(r rune) bool { return !unicode.IsDigit(r) }) {
		if tok == digits {
			d.Expected = digits
			d.Rule, d.Matched = RuleDigits, true
			return d
		}
	}
	return d
}

func (m *Matcher) report(d Decision) {
	if m.trace != nil {
		m.trace.Debug("transcript: match decision",
			"kind", d.Kind,
			"spoken", d.Spoken,
			"spoken_key", d.SpokenKey,
			"expected", d.Expected,
			"expected_key", d.ExpectedKey,
			"similarity", d.Similarity,
			"threshold", d.Threshold,
			"parsed", d.Parsed,
			"parsed_ok", d.ParsedOK,
			"rule", d.Rule,
			"matched", d.Matched,
		)
	}
	if m.observer != nil {
		m.observer(d)
	}
}

// IsMatch is [Matcher.IsMatch] with an explicit threshold and no tracing.
func IsMatch(spoken, target, keyword string, simplified bool, threshold int) bool {
	return New(WithThreshold(threshold)).IsMatch(spoken, target, keyword, simplified)
}

// IsNumberMatch is [Matcher.IsNumberMatch] with an explicit threshold and no
// tracing.
func IsNumberMatch(spoken string, expected int, threshold int) bool {
	return New(WithThreshold(threshold)).IsNumberMatch(spoken, expected)
}
