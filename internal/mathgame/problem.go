// Package mathgame generates spoken arithmetic practice for young children and
// scores their spoken answers.
//
// Problems are additions or subtractions whose operands are drawn from the
// range of a difficulty [Level]. Subtractions never go below zero, so every
// answer stays inside the 0..100 range the number lexicon can speak.
package mathgame

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/MrWong99/histoires/internal/transcript/numword"
)

// DefaultProblems is the session length used when none is given.
const DefaultProblems = 10

var (
	ErrInvalidOperation = errors.New("mathgame: invalid operation")
	ErrInvalidLevel     = errors.New("mathgame: invalid level")
	ErrSessionComplete  = errors.New("mathgame: session complete")
)

// Operation is the arithmetic operation practised.
type Operation string

const (
	Addition    Operation = "addition"
	Subtraction Operation = "soustraction"
)

// IsValid reports whether o is a supported operation.
func (o Operation) IsValid() bool {
	return o == Addition || o == Subtraction
}

// DisplayName returns the French name of o.
func (o Operation) DisplayName() string {
	switch o {
	case Addition:
		return "Addition"
	case Subtraction:
		return "Soustraction"
	}
	return string(o)
}

// Emoji returns the pictogram shown for o.
func (o Operation) Emoji() string {
	switch o {
	case Addition:
		return "➕"
	case Subtraction:
		return "➖"
	}
	return "🔢"
}

func (o Operation) symbol() string {
	if o == Subtraction {
		return "-"
	}
	return "+"
}

func (o Operation) word() string {
	if o == Subtraction {
		return "moins"
	}
	return "plus"
}

// Level is a difficulty level.
type Level string

const (
	Easy   Level = "facile"
	Medium Level = "moyen"
	Hard   Level = "difficile"
)

// Range is an inclusive operand range.
type Range struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

var ranges = map[Level]Range{
	Easy:   {Min: 1, Max: 10},
	Medium: {Min: 5, Max: 20},
	Hard:   {Min: 10, Max: 50},
}

// IsValid reports whether l is a known level.
func (l Level) IsValid() bool {
	_, ok := ranges[l]
	return ok
}

// Range returns the operand range of l.
func (l Level) Range() (Range, bool) {
	r, ok := ranges[l]
	return r, ok
}

// DisplayName returns the French name of l.
func (l Level) DisplayName() string {
	switch l {
	case Easy:
		return "Facile"
	case Medium:
		return "Moyen"
	case Hard:
		return "Difficile"
	}
	return string(l)
}

// Problem is one question of a session.
type Problem struct {
	// ID is the 1-based position in the session; zero for a lone problem.
	ID int `json:"id"`

	Operand1  int       `json:"operand1"`
	Operand2  int       `json:"operand2"`
	Operation Operation `json:"operation"`
	Answer    int       `json:"answer"`

	// Question is the written form, e.g. "7 + 5".
	Question string `json:"question"`

	// Spoken is the question read aloud, e.g. "Combien font sept plus cinq ?".
	Spoken string `json:"spoken"`
}

// Generator draws random problems. It is safe for concurrent use.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewGenerator returns a generator drawing from rng. A nil rng uses a
// randomly seeded PCG source.
func NewGenerator(rng *rand.Rand) *Generator {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{rng: rng}
}

// Problem draws one problem for op at level.
func (g *Generator) Problem(op Operation, level Level) (Problem, error) {
	if !op.IsValid() {
		return Problem{}, fmt.Errorf("%w: %q", ErrInvalidOperation, op)
	}
	r, ok := level.Range()
	if !ok {
		return Problem{}, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	g.mu.Lock()
	a, b := g.between(r), g.between(r)
	g.mu.Unlock()

	if op == Subtraction && a < b {
		a, b = b, a
	}
	return newProblem(op, a, b), nil
}

// Problems draws n problems numbered from 1.
func (g *Generator) Problems(op Operation, level Level, n int) ([]Problem, error) {
	out := make([]Problem, 0, n)
	for i := range n {
		p, err := g.Problem(op, level)
		if err != nil {
			return nil, err
		}
		p.ID = i + 1
		out = append(out, p)
	}
	return out, nil
}

func (g *Generator) between(r Range) int {
	return r.Min + g.rng.IntN(r.Max-r.Min+1)
}

func newProblem(op Operation, a, b int) Problem {
	answer := a + b
	if op == Subtraction {
		answer = a - b
	}
	return Problem{
		Operand1:  a,
		Operand2:  b,
		Operation: op,
		Answer:    answer,
		Question:  fmt.Sprintf("%d %s %d", a, op.symbol(), b),
		Spoken:    fmt.Sprintf("Combien font %s %s %s ?", numword.MustWords(a), op.word(), numword.MustWords(b)),
	}
}
