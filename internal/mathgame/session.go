package mathgame

import (
	"fmt"
	"math"
	"slices"

	"github.com/google/uuid"

	"github.com/MrWong99/histoires/internal/transcript"
	"github.com/MrWong99/histoires/internal/transcript/numword"
)

const feedbackCorrect = "Bravo !"

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithMatcher sets the matcher that judges spoken answers. Default:
// transcript.New().
func WithMatcher(m *transcript.Matcher) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.matcher = m
		}
	}
}

// Session is a run of problems answered one after the other. Every heard
// answer, right or wrong, moves on to the next problem.
//
// A Session is not safe for concurrent use.
type Session struct {
	id        string
	operation Operation
	level     Level
	problems  []Problem
	matcher   *transcript.Matcher

	index    int
	score    int
	attempts int
}

// NewSession draws n problems from g (n <= 0 means [DefaultProblems]).
func NewSession(g *Generator, op Operation, level Level, n int, opts ...SessionOption) (*Session, error) {
	if n <= 0 {
		n = DefaultProblems
	}
	problems, err := g.Problems(op, level, n)
	if err != nil {
		return nil, err
	}
	s := &Session{
		id:        uuid.NewString(),
		operation: op,
		level:     level,
		problems:  problems,
		matcher:   transcript.New(),
	}
	for _, o := range opts {
		o(s)
	}
	return s, nil
}

// Result is the verdict on one spoken answer.
type Result struct {
	// Heard reports whether the transcript contained a usable answer. When
	// false nothing else changed and the child should simply try again.
	Heard bool `json:"heard"`

	Correct bool    `json:"correct"`
	Problem Problem `json:"problem"`

	// Parsed is the number read from the transcript, when one was found.
	Parsed *int `json:"parsed,omitempty"`

	Feedback string `json:"feedback,omitempty"`

	// Complete reports whether this answer finished the session.
	Complete bool `json:"complete"`

	Decision transcript.Decision `json:"-"`
}

// Summary is the end-of-session report.
type Summary struct {
	Score    int    `json:"score"`
	Total    int    `json:"total"`
	Attempts int    `json:"attempts"`
	Percent  int    `json:"percent"`
	Emoji    string `json:"emoji"`
	Message  string `json:"message"`
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Operation() Operation { return s.operation }
func (s *Session) Level() Level         { return s.level }
func (s *Session) Len() int             { return len(s.problems) }
func (s *Session) Index() int           { return s.index }
func (s *Session) Score() int           { return s.score }
func (s *Session) Attempts() int        { return s.attempts }
func (s *Session) Complete() bool       { return s.index >= len(s.problems) }

// Problems returns a copy of the session's problems.
func (s *Session) Problems() []Problem {
	return slices.Clone(s.problems)
}

// Current returns the problem awaiting an answer.
func (s *Session) Current() (Problem, bool) {
	if s.Complete() {
		return Problem{}, false
	}
	return s.problems[s.index], true
}

// Answer judges a spoken answer to the current problem. A transcript that
// names another number is a wrong answer, even when it sounds like the
// expected one ("vingt-deux" for 20). The phonetic fallback only applies when
// no number was read. Right and wrong answers advance the session; a
// transcript holding no number leaves it untouched.
func (s *Session) Answer(spoken string) (Result, error) {
	p, ok := s.Current()
	if !ok {
		return Result{}, ErrSessionComplete
	}

	d := s.matcher.EvaluateNumber(spoken, p.Answer)
	res := Result{Problem: p, Decision: d}
	if d.ParsedOK {
		n := d.Parsed
		res.Parsed = &n
	}

	switch {
	case d.ParsedOK && d.Parsed != p.Answer:
		res.Heard = true
		res.Feedback = WrongAnswerFeedback(p.Answer)
	case d.Matched:
		res.Heard, res.Correct = true, true
		res.Feedback = feedbackCorrect
		s.score++
	default:
		return res, nil
	}

	s.attempts++
	s.index++
	res.Complete = s.Complete()
	return res, nil
}

// Summary reports the score so far.
func (s *Session) Summary() Summary {
	sum := Summary{Score: s.score, Total: len(s.problems), Attempts: s.attempts}
	if sum.Total > 0 {
		sum.Percent = int(math.Round(float64(s.score) / float64(sum.Total) * 100))
	}
	switch {
	case sum.Percent >= 80:
		sum.Emoji, sum.Message = "🏆", "Incroyable ! Tu es un champion des maths !"
	case sum.Percent >= 60:
		sum.Emoji, sum.Message = "🎉", "Bravo ! Continue comme ça !"
	default:
		sum.Emoji, sum.Message = "💪", "Continue à t'entraîner, tu vas y arriver !"
	}
	return sum
}

// WrongAnswerFeedback is the sentence spoken after a wrong answer; it spells
// the expected number in words.
func WrongAnswerFeedback(answer int) string {
	w, err := numword.ToWords(answer)
	if err != nil {
		w = fmt.Sprint(answer)
	}
	return fmt.Sprintf("C'est pas bon. La réponse est %s.", w)
}
