package story

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
)

// Summary is the catalogue view of a [Story], without its scenes.
type Summary struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Difficulty      Difficulty `json:"difficulty"`
	DifficultyLabel string     `json:"difficulty_label"`
	EstimatedTime   string     `json:"estimated_time,omitempty"`
	CoverImage      string     `json:"cover_image,omitempty"`
	Scenes          int        `json:"scenes"`
}

// Library is a read-only collection of stories keyed by ID. It is safe for
// concurrent use.
type Library struct {
	stories map[string]*Story
	order   []string
}

// NewLibrary builds a [Library] from stories. Listing order is by difficulty,
// then title. When two stories share an ID the first one is kept and an error
// naming the duplicate is returned together with the library.
func NewLibrary(stories ...*Story) (*Library, error) {
	l := &Library{stories: make(map[string]*Story, len(stories))}
	var errs []error
	for _, s := range stories {
		if _, dup := l.stories[s.ID]; dup {
			errs = append(errs, fmt.Errorf("story: duplicate id %q", s.ID))
			continue
		}
		l.stories[s.ID] = s
		l.order = append(l.order, s.ID)
	}
	slices.SortFunc(l.order, func(a, b string) int {
		sa, sb := l.stories[a], l.stories[b]
		return cmp.Or(
			cmp.Compare(sa.Difficulty.rank(), sb.Difficulty.rank()),
			cmp.Compare(sa.Title, sb.Title),
			cmp.Compare(a, b),
		)
	})
	return l, errors.Join(errs...)
}

// Get returns the story with the given id.
func (l *Library) Get(id string) (*Story, bool) {
	s, ok := l.stories[id]
	return s, ok
}

// Len returns the number of stories.
func (l *Library) Len() int {
	return len(l.order)
}

// List returns a summary of every story in listing order.
func (l *Library) List() []Summary {
	out := make([]Summary, 0, len(l.order))
	for _, id := range l.order {
		s := l.stories[id]
		out = append(out, Summary{
			ID:              s.ID,
			Title:           s.Title,
			Description:     s.Description,
			Difficulty:      s.Difficulty,
			DifficultyLabel: s.Difficulty.Label(),
			EstimatedTime:   s.EstimatedTime,
			CoverImage:      s.CoverImage,
			Scenes:          len(s.Scenes),
		})
	}
	return out
}
