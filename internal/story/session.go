package story

import (
	"fmt"
	"slices"

	"github.com/google/uuid"

	"github.com/MrWong99/histoires/internal/transcript"
)

// Feedback phrases shown to the reader after a spoken attempt.
const (
	FeedbackMatched           = "Bravo ! ✨"
	FeedbackNoMatch           = "Je n'ai pas bien compris..."
	FeedbackNoMatchSimplified = "Dis juste le mot en gras !"
)

// SessionOption configures a [Session].
type SessionOption func(*Session)

// WithMatcher sets the matcher used by [Session.Respond]. Default:
// transcript.New().
func WithMatcher(m *transcript.Matcher) SessionOption {
	return func(s *Session) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithSimplified starts the session in simplified (keyword) mode.
func WithSimplified(on bool) SessionOption {
	return func(s *Session) {
		s.simplified = on
	}
}

// Session is one reader's walk through a story: current scene, history,
// backpack and experience. It lives in memory only.
//
// A Session is not safe for concurrent use; each connection owns its own.
type Session struct {
	id         string
	story      *Story
	matcher    *transcript.Matcher
	simplified bool

	current   string
	history   []string
	inventory []string
	xp        int
}

// NewSession starts a session at the story's start scene. The story must have
// passed [Validate].
func NewSession(st *Story, opts ...SessionOption) *Session {
	s := &Session{
		id:      uuid.NewString(),
		story:   st,
		matcher: transcript.New(),
	}
	for _, o := range opts {
		o(s)
	}
	s.restart()
	return s
}

// AvailableChoice is a choice the reader can take right now. Index is its
// position in the scene's choice list.
type AvailableChoice struct {
	Index  int    `json:"index"`
	Choice Choice `json:"choice"`
}

// Outcome describes the effect of a spoken answer or a pressed choice.
type Outcome struct {
	// Matched reports whether a choice was taken.
	Matched bool

	// ChoiceIndex is the taken choice's position in the previous scene, or -1.
	ChoiceIndex int

	Choice Choice

	// SceneID is the scene the reader is on after the outcome.
	SceneID string

	// Reset reports whether the choice restarted the story.
	Reset bool

	// Gained is the item granted by entering the new scene, if any.
	Gained string

	// Decision is the matcher's verdict for spoken answers.
	Decision transcript.Decision

	// Feedback is the phrase to show or speak to the reader.
	Feedback string
}

func (s *Session) ID() string           { return s.id }
func (s *Session) Story() *Story        { return s.story }
func (s *Session) SceneID() string      { return s.current }
func (s *Session) Scene() Scene         { return s.story.Scenes[s.current] }
func (s *Session) XP() int              { return s.xp }
func (s *Session) Simplified() bool     { return s.simplified }
func (s *Session) SetSimplified(b bool) { s.simplified = b }

// History returns the visited scene IDs, oldest first.
func (s *Session) History() []string {
	return slices.Clone(s.history)
}

// Inventory returns the items collected so far, in the order found.
func (s *Session) Inventory() []string {
	return slices.Clone(s.inventory)
}

// Has reports whether item is in the inventory.
func (s *Session) Has(item string) bool {
	return slices.Contains(s.inventory, item)
}

// Available lists the current scene's choices whose requirement is met.
func (s *Session) Available() []AvailableChoice {
	var out []AvailableChoice
	for i, c := range s.Scene().Choices {
		if c.Requirement != "" && !s.Has(c.Requirement) {
			continue
		}
		out = append(out, AvailableChoice{Index: i, Choice: c})
	}
	return out
}

// Respond matches a transcript against the available choices and takes the
// first one it satisfies. An unmatched transcript is not an error: the
// outcome carries Matched false and the feedback to give.
func (s *Session) Respond(spoken string) (Outcome, error) {
	avail := s.Available()
	candidates := make([]transcript.Candidate, len(avail))
	for i, a := range avail {
		candidates[i] = transcript.Candidate{Target: a.Choice.Text, Keyword: a.Choice.Keyword}
	}

	res := s.matcher.MatchChoice(spoken, candidates, s.simplified)
	if !res.Matched {
		fb := FeedbackNoMatch
		if s.simplified {
			fb = FeedbackNoMatchSimplified
		}
		return Outcome{ChoiceIndex: -1, SceneID: s.current, Decision: res.Decision, Feedback: fb}, nil
	}

	out, err := s.take(avail[res.Index].Index, true)
	if err != nil {
		return Outcome{}, err
	}
	out.Decision = res.Decision
	return out, nil
}

// Choose takes choice i of the current scene directly, as when the reader
// presses it. It fails with [ErrChoiceUnavailable] when i is out of range or
// its requirement is not met.
func (s *Session) Choose(i int) (Outcome, error) {
	choices := s.Scene().Choices
	if i < 0 || i >= len(choices) {
		return Outcome{}, fmt.Errorf("story: choice %d of scene %q: %w", i, s.current, ErrChoiceUnavailable)
	}
	if r := choices[i].Requirement; r != "" && !s.Has(r) {
		return Outcome{}, fmt.Errorf("story: choice %d needs %q: %w", i, r, ErrChoiceUnavailable)
	}
	return s.take(i, true)
}

// Preview follows choice i without granting items or experience and without
// checking its requirement. It is meant for authors testing a story.
func (s *Session) Preview(i int) (Outcome, error) {
	choices := s.Scene().Choices
	if i < 0 || i >= len(choices) {
		return Outcome{}, fmt.Errorf("story: choice %d of scene %q: %w", i, s.current, ErrChoiceUnavailable)
	}
	return s.take(i, false)
}

// Back returns to the previous scene. It reports false when already at the
// first scene of the history. Items and experience are kept.
func (s *Session) Back() bool {
	if len(s.history) <= 1 {
		return false
	}
	s.history = s.history[:len(s.history)-1]
	s.current = s.history[len(s.history)-1]
	return true
}

// take applies choice i of the current scene. When reward is false no item
// or experience is granted.
func (s *Session) take(i int, reward bool) (Outcome, error) {
	c := s.Scene().Choices[i]
	out := Outcome{Matched: true, ChoiceIndex: i, Choice: c, Feedback: FeedbackMatched}

	if c.Reset {
		s.restart()
		out.Reset = true
		out.SceneID = s.current
		return out, nil
	}

	next, ok := s.story.Scenes[c.NextScene]
	if !ok {
		return Outcome{}, fmt.Errorf("story: %q from scene %q: %w", c.NextScene, s.current, ErrUnknownScene)
	}
	if reward {
		if next.Item != "" && !s.Has(next.Item) {
			s.inventory = append(s.inventory, next.Item)
			out.Gained = next.Item
		}
		s.xp += next.Reward()
	}
	s.history = append(s.history, c.NextScene)
	s.current = c.NextScene
	out.SceneID = s.current
	return out, nil
}

func (s *Session) restart() {
	s.current = s.story.StartScene
	s.history = []string{s.current}
	s.inventory = nil
	s.xp = 0
}
