// Package transcript decides whether a noisy French speech-to-text transcript
// satisfies what the game expects the child to say.
//
// Two predicates drive the game:
//
//  1. Choice matching ([Matcher.IsMatch]): the transcript is compared with a
//     story choice, either the full sentence or, in simplified mode, a single
//     keyword. Both sides are folded with [phonetic.Key] and compared with
//     [phonetic.Similarity] against a threshold; containment of the expected
//     key in the spoken key is accepted as well.
//
//  2. Number matching ([Matcher.IsNumberMatch]): the transcript is parsed with
//     [numword.Parse]. An exact hit succeeds at once; otherwise the expected
//     number's spoken forms are compared phonetically.
//
// Negative outcomes are ordinary values: an empty or unintelligible transcript
// yields false, never an error. A [Matcher] is immutable after construction
// and safe for concurrent use.
package transcript

// DefaultThreshold is the similarity percentage a transcript must reach when
// no threshold is configured.
const DefaultThreshold = 75

// Kind tells which predicate produced a [Decision].
type Kind string

const (
	KindSentence Kind = "sentence"
	KindKeyword  Kind = "keyword"
	KindNumber   Kind = "number"
)

// Rule names the test that settled a [Decision].
type Rule string

const (
	// RuleNone means no test succeeded.
	RuleNone Rule = ""

	// RuleEmpty means the transcript (or expected value) was missing.
	RuleEmpty Rule = "empty"

	// RuleSimilarity means the key similarity reached the threshold.
	RuleSimilarity Rule = "similarity"

	// RuleContains means the expected key appears inside the spoken key.
	RuleContains Rule = "contains"

	// RuleExactNumber means the parsed number equals the expected one.
	RuleExactNumber Rule = "exact-number"

	// RuleDigits means the expected number appears as digits in the transcript.
	RuleDigits Rule = "digits"
)

// Decision is the detailed outcome of one match test. It is handed to the
// trace logger and to the observer configured on the [Matcher].
type Decision struct {
	Kind Kind

	// Spoken is the raw transcript; SpokenKey its phonetic key.
	Spoken    string
	SpokenKey string

	// Expected is the sentence, keyword or number word that settled the
	// decision (the best candidate when nothing matched); ExpectedKey its key.
	Expected    string
	ExpectedKey string

	// Similarity is the best key similarity observed, in [0, 100].
	Similarity float64

	// Threshold is the percentage the similarity had to reach.
	Threshold int

	// Parsed holds the number read from the transcript, when ParsedOK.
	Parsed   int
	ParsedOK bool

	Rule    Rule
	Matched bool
}

// Candidate is one choice offered to the speaker.
type Candidate struct {
	// Target is the full expected sentence.
	Target string

	// Keyword is the single word accepted in simplified mode. May be empty.
	Keyword string
}

// MatchResult is the outcome of [Matcher.MatchChoice].
type MatchResult struct {
	// Matched reports whether any candidate was satisfied.
	Matched bool

	// Index is the position of the first satisfied candidate, or -1.
	Index int

	// Decision is the decision for the matched candidate, or for the
	// candidate with the highest similarity when nothing matched.
	Decision Decision
}
