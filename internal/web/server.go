// Package web is the HTTP surface of histoires consumed by the browser UI.
//
// The browser runs speech recognition itself and only ever sends text. The
// server exposes:
//
//   - a small JSON API over the story library, the number lexicon, the
//     phonetic key and the two match predicates;
//   - one WebSocket per story reading or math session, carrying transcripts
//     in and game events out;
//   - /healthz, /readyz and /metrics.
//
// Every route is wrapped in [observe.Middleware].
package web

import (
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MrWong99/histoires/internal/health"
	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/observe"
	"github.com/MrWong99/histoires/internal/story"
	"github.com/MrWong99/histoires/internal/transcript"
)

// Option is a functional option for configuring a [Server].
type Option func(*Server)

// WithMetrics sets the metrics sink. Default: [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithMatcher sets the initial matcher. Default: [transcript.New].
func WithMatcher(m *transcript.Matcher) Option {
	return func(s *Server) {
		s.baseMatcher = m
	}
}

// WithGenerator sets the math problem generator. Default: a randomly seeded
// [mathgame.NewGenerator].
func WithGenerator(g *mathgame.Generator) Option {
	return func(s *Server) {
		s.generator = g
	}
}

// WithMathDefaults sets the operation, level and length used when a math
// session request leaves them out.
func WithMathDefaults(op mathgame.Operation, level mathgame.Level, problems int) Option {
	return func(s *Server) {
		s.SetMathDefaults(op, level, problems)
	}
}

// WithSimplified starts new story sessions in simplified (keyword) mode.
func WithSimplified(on bool) Option {
	return func(s *Server) {
		s.simplified.Store(on)
	}
}

// WithMetricsHandler replaces the handler served on /metrics. A nil handler
// disables the route. Default: [promhttp.Handler].
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metricsHandler = h
	}
}

// mathDefaults groups the math settings that can be hot reloaded together.
type mathDefaults struct {
	operation mathgame.Operation
	level     mathgame.Level
	problems  int
}

// Server holds the shared state behind the HTTP handlers. The story library,
// the matcher and the session defaults can be swapped at runtime; sessions
// already running keep the values they started with.
type Server struct {
	metrics        *observe.Metrics
	generator      *mathgame.Generator
	metricsHandler http.Handler
	baseMatcher    *transcript.Matcher

	library    atomic.Pointer[story.Library]
	matcher    atomic.Pointer[transcript.Matcher]
	math       atomic.Pointer[mathDefaults]
	simplified atomic.Bool
}

// New creates a [Server] serving lib.
func New(lib *story.Library, opts ...Option) *Server {
	s := &Server{metricsHandler: promhttp.Handler()}
	s.SetMathDefaults(mathgame.Addition, mathgame.Easy, mathgame.DefaultProblems)
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	if s.generator == nil {
		s.generator = mathgame.NewGenerator(nil)
	}
	if s.baseMatcher == nil {
		s.baseMatcher = transcript.New()
	}
	if lib == nil {
		lib, _ = story.NewLibrary()
	}
	s.SetLibrary(lib)
	s.SetMatcher(s.baseMatcher)
	return s
}

// Library returns the story library currently served.
func (s *Server) Library() *story.Library { return s.library.Load() }

// SetLibrary replaces the story library.
func (s *Server) SetLibrary(lib *story.Library) { s.library.Store(lib) }

// Matcher returns the matcher given to new sessions and API calls.
func (s *Server) Matcher() *transcript.Matcher { return s.matcher.Load() }

// SetMatcher replaces the matcher. Every decision it takes is recorded in the
// server's metrics.
func (s *Server) SetMatcher(m *transcript.Matcher) {
	s.matcher.Store(m.With(transcript.WithObserver(s.metrics.MatchObserver())))
}

// Simplified reports whether new story sessions start in keyword mode.
func (s *Server) Simplified() bool { return s.simplified.Load() }

// SetSimplified changes the mode of future story sessions.
func (s *Server) SetSimplified(on bool) { s.simplified.Store(on) }

// SetMathDefaults changes the defaults of future math sessions. Invalid or
// empty values keep the built-in defaults.
func (s *Server) SetMathDefaults(op mathgame.Operation, level mathgame.Level, problems int) {
	d := mathDefaults{operation: mathgame.Addition, level: mathgame.Easy, problems: mathgame.DefaultProblems}
	if op.IsValid() {
		d.operation = op
	}
	if level.IsValid() {
		d.level = level
	}
	if problems > 0 {
		d.problems = problems
	}
	s.math.Store(&d)
}

// Handler returns the full route tree wrapped in the observability
// middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/stories", s.handleListStories)
	mux.HandleFunc("GET /api/stories/{id}", s.handleGetStory)
	mux.HandleFunc("GET /api/numbers/{n}", s.handleNumber)
	mux.HandleFunc("POST /api/match/choice", s.handleMatchChoice)
	mux.HandleFunc("POST /api/match/number", s.handleMatchNumber)
	mux.HandleFunc("POST /api/phonetic", s.handlePhonetic)
	mux.HandleFunc("GET /api/math/problem", s.handleMathProblem)

	mux.HandleFunc("GET /ws/story/{id}", s.handleStorySocket)
	mux.HandleFunc("GET /ws/math", s.handleMathSocket)

	health.New(health.Stories(func() int { return s.Library().Len() })).Register(mux)
	if s.metricsHandler != nil {
		mux.Handle("GET /metrics", s.metricsHandler)
	}

	return observe.Middleware(s.metrics)(mux)
}
