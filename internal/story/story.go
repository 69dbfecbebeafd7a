// Package story holds the branching reading adventures: the content model,
// its YAML/JSON loader and validation, the read-only [Library] of loaded
// stories, and the in-memory [Session] that walks a reader through one story.
//
// A story is a graph of scenes keyed by ID. Each scene shows a text and offers
// choices; the reader picks one by reading it aloud (see [Session.Respond]) or
// by pressing it (see [Session.Choose]). A choice may require an item that an
// earlier scene grants, and a reset choice sends the reader back to the start
// with an empty backpack.
package story

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

// DefaultStartScene is used when a story does not name its first scene.
const DefaultStartScene = "start"

// DefaultXP is the experience awarded on entering a scene that does not set
// its own reward.
const DefaultXP = 10

// Sentinel errors returned by [Session] operations.
var (
	// ErrUnknownScene is returned when a choice leads to a scene the story
	// does not define.
	ErrUnknownScene = errors.New("story: unknown scene")

	// ErrChoiceUnavailable is returned when a choice index is out of range or
	// its requirement is not in the inventory.
	ErrChoiceUnavailable = errors.New("story: choice unavailable")
)

// Difficulty groups stories for the reader.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "facile"
	DifficultyMedium Difficulty = "moyen"
	DifficultyHard   Difficulty = "difficile"
)

// IsValid reports whether d is a recognised difficulty.
func (d Difficulty) IsValid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// rank orders difficulties from easiest to hardest.
func (d Difficulty) rank() int {
	switch d {
	case DifficultyMedium:
		return 2
	case DifficultyHard:
		return 3
	}
	return 1
}

// Label returns the star label shown next to a story.
func (d Difficulty) Label() string {
	switch d {
	case DifficultyMedium:
		return "⭐⭐ Moyen"
	case DifficultyHard:
		return "⭐⭐⭐ Difficile"
	}
	return "⭐ Facile"
}

// Story is one branching adventure.
//
// Example:
//
//	id: la-foret
//	title: "La forêt"
//	difficulty: facile
//	start_scene: start
//	scenes:
//	  start:
//	    text: "Tu es à l'orée de la forêt."
//	    choices:
//	      - text: "Entrer dans la forêt"
//	        keyword: "forêt"
//	        next_scene: clairiere
type Story struct {
	// ID identifies the story. [LoadFile] defaults it to the file name.
	ID string `yaml:"id" json:"id"`

	Title       string     `yaml:"title" json:"title"`
	Description string     `yaml:"description" json:"description"`
	Difficulty  Difficulty `yaml:"difficulty" json:"difficulty"`

	// EstimatedTime is a free-text reading time ("10 min").
	EstimatedTime string `yaml:"estimated_time" json:"estimated_time,omitempty"`

	CoverImage string `yaml:"cover_image" json:"cover_image,omitempty"`

	// StartScene is the ID of the first scene. Default: [DefaultStartScene].
	StartScene string `yaml:"start_scene" json:"start_scene"`

	Scenes map[string]Scene `yaml:"scenes" json:"scenes"`
}

// Scene is one page of a story.
type Scene struct {
	Title string `yaml:"title" json:"title,omitempty"`
	Text  string `yaml:"text" json:"text"`
	Image string `yaml:"image" json:"image,omitempty"`

	// Item is granted the first time the reader enters the scene.
	Item string `yaml:"item" json:"item,omitempty"`

	// ItemLabel is the display name of Item.
	ItemLabel string `yaml:"item_label" json:"item_label,omitempty"`

	// XP is the reward for entering the scene. Zero means [DefaultXP].
	XP int `yaml:"xp" json:"xp,omitempty"`

	Choices []Choice `yaml:"choices" json:"choices"`
}

// Reward returns the experience granted on entering s.
func (s Scene) Reward() int {
	if s.XP == 0 {
		return DefaultXP
	}
	return s.XP
}

// Choice is one option offered by a scene.
type Choice struct {
	// Text is the sentence the reader says in normal mode.
	Text string `yaml:"text" json:"text"`

	// Keyword is the single word accepted in simplified mode.
	Keyword string `yaml:"keyword" json:"keyword,omitempty"`

	// FallbackText is shown instead of Text while the choice is locked.
	FallbackText string `yaml:"fallback_text" json:"fallback_text,omitempty"`

	NextScene string `yaml:"next_scene" json:"next_scene,omitempty"`

	// Requirement names an item the reader must hold to take this choice.
	Requirement string `yaml:"requirement" json:"requirement,omitempty"`

	// Reset sends the reader back to the start scene and clears progress.
	Reset bool `yaml:"reset" json:"reset,omitempty"`
}

// applyDefaults fills in optional fields left empty by the author.
func applyDefaults(s *Story) {
	if s.StartScene == "" {
		s.StartScene = DefaultStartScene
	}
	if s.Difficulty == "" {
		s.Difficulty = DifficultyEasy
	}
}

// Validate checks that s is a coherent, playable story. It returns a joined
// error listing every problem found. Choices without a keyword only produce a
// warning: in simplified mode they fall back to sentence matching.
//
// Rules:
//   - ID and Title must be non-empty.
//   - Difficulty, when set, must be recognised.
//   - StartScene must name a defined scene.
//   - Every scene needs a text, every choice a text.
//   - A non-reset choice must lead to a defined scene.
//   - A requirement must name an item some scene grants.
func Validate(s *Story) error {
	var errs []error

	if s.ID == "" {
		errs = append(errs, errors.New("id is required"))
	}
	if s.Title == "" {
		errs = append(errs, errors.New("title is required"))
	}
	if s.Difficulty != "" && !s.Difficulty.IsValid() {
		errs = append(errs, fmt.Errorf("difficulty %q is invalid; valid values: facile, moyen, difficile", s.Difficulty))
	}
	if len(s.Scenes) == 0 {
		errs = append(errs, errors.New("scenes must not be empty"))
	} else if _, ok := s.Scenes[s.StartScene]; !ok {
		errs = append(errs, fmt.Errorf("start_scene %q is not defined", s.StartScene))
	}

	items := make(map[string]bool)
	for _, sc := range s.Scenes {
		if sc.Item != "" {
			items[sc.Item] = true
		}
	}

	ids := make([]string, 0, len(s.Scenes))
	for id := range s.Scenes {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	for _, id := range ids {
		sc := s.Scenes[id]
		if sc.Text == "" {
			errs = append(errs, fmt.Errorf("scenes.%s.text is required", id))
		}
		for i, c := range sc.Choices {
			prefix := fmt.Sprintf("scenes.%s.choices[%d]", id, i)
			if c.Text == "" {
				errs = append(errs, fmt.Errorf("%s.text is required", prefix))
			}
			if !c.Reset {
				if c.NextScene == "" {
					errs = append(errs, fmt.Errorf("%s.next_scene is required unless reset is set", prefix))
				} else if _, ok := s.Scenes[c.NextScene]; !ok {
					errs = append(errs, fmt.Errorf("%s.next_scene %q is not defined", prefix, c.NextScene))
				}
			}
			if c.Requirement != "" && !items[c.Requirement] {
				errs = append(errs, fmt.Errorf("%s.requirement %q is never granted by any scene", prefix, c.Requirement))
			}
			if c.Keyword == "" {
				slog.Warn("story: choice has no keyword; simplified mode will compare the full sentence",
					"story", s.ID,
					"choice", prefix,
				)
			}
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("story: validate %q: %w", s.ID, errors.Join(errs...))
}
