package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/observe"
	"github.com/MrWong99/histoires/internal/transcript"
	"github.com/MrWong99/histoires/internal/transcript/numword"
	"github.com/MrWong99/histoires/internal/transcript/phonetic"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 64 << 10

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleListStories(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Library().List())
}

func (s *Server) handleGetStory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	st, ok := s.Library().Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("story %q not found", id))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

type numberResponse struct {
	N           int      `json:"n"`
	Words       string   `json:"words"`
	SpokenForms []string `json:"spoken_forms"`
}

func (s *Server) handleNumber(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "n must be an integer")
		return
	}
	words, err := numword.ToWords(n)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	forms, _ := numword.SpokenForms(n)
	writeJSON(w, http.StatusOK, numberResponse{N: n, Words: words, SpokenForms: forms})
}

type matchChoiceRequest struct {
	Spoken     string `json:"spoken"`
	Target     string `json:"target"`
	Keyword    string `json:"keyword"`
	Simplified bool   `json:"simplified"`
	Threshold  *int   `json:"threshold"`
}

type matchResponse struct {
	Matched     bool    `json:"matched"`
	Similarity  float64 `json:"similarity"`
	Rule        string  `json:"rule,omitempty"`
	SpokenKey   string  `json:"spoken_key"`
	ExpectedKey string  `json:"expected_key"`
	Threshold   int     `json:"threshold"`
	Parsed      *int    `json:"parsed,omitempty"`
}

func newMatchResponse(d transcript.Decision) matchResponse {
	resp := matchResponse{
		Matched:     d.Matched,
		Similarity:  d.Similarity,
		Rule:        string(d.Rule),
		SpokenKey:   d.SpokenKey,
		ExpectedKey: d.ExpectedKey,
		Threshold:   d.Threshold,
	}
	if d.ParsedOK {
		n := d.Parsed
		resp.Parsed = &n
	}
	return resp
}

func (s *Server) handleMatchChoice(w http.ResponseWriter, r *http.Request) {
	var req matchChoiceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, ok := s.requestMatcher(w, req.Threshold)
	if !ok {
		return
	}

	ctx, span := observe.StartSpan(r.Context(), "match.choice")
	defer span.End()

	d := m.Evaluate(req.Spoken, req.Target, req.Keyword, req.Simplified)
	observe.AnnotateDecision(span, d)
	observe.Logger(ctx).Debug("web: choice evaluated",
		"matched", d.Matched, "similarity", d.Similarity, "rule", d.Rule)
	writeJSON(w, http.StatusOK, newMatchResponse(d))
}

type matchNumberRequest struct {
	Spoken    string `json:"spoken"`
	Expected  *int   `json:"expected"`
	Threshold *int   `json:"threshold"`
}

func (s *Server) handleMatchNumber(w http.ResponseWriter, r *http.Request) {
	var req matchNumberRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, ok := s.requestMatcher(w, req.Threshold)
	if !ok {
		return
	}

	_, span := observe.StartSpan(r.Context(), "match.number")
	defer span.End()

	// A missing expected value never matches.
	if req.Expected == nil {
		m.IsNumberMatchPtr(req.Spoken, nil)
		resp := matchResponse{Threshold: m.Threshold(), Rule: string(transcript.RuleEmpty)}
		if n, ok := numword.Parse(req.Spoken); ok {
			resp.Parsed = &n
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	d := m.EvaluateNumber(req.Spoken, *req.Expected)
	observe.AnnotateDecision(span, d)
	writeJSON(w, http.StatusOK, newMatchResponse(d))
}

type phoneticRequest struct {
	Text string `json:"text"`
}

type phoneticResponse struct {
	Text string `json:"text"`
	Key  string `json:"key"`
}

func (s *Server) handlePhonetic(w http.ResponseWriter, r *http.Request) {
	var req phoneticRequest
	if !decodeBody(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, phoneticResponse{Text: req.Text, Key: phonetic.Key(req.Text)})
}

// handleMathProblem draws a single problem, for the practice card of the UI.
func (s *Server) handleMathProblem(w http.ResponseWriter, r *http.Request) {
	op, level, err := s.mathParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := s.generator.Problem(op, level)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// mathParams reads the operation and level query parameters, falling back to
// the configured defaults.
func (s *Server) mathParams(r *http.Request) (mathgame.Operation, mathgame.Level, error) {
	d := s.math.Load()
	op, level := d.operation, d.level
	if v := r.URL.Query().Get("operation"); v != "" {
		op = mathgame.Operation(v)
	}
	if v := r.URL.Query().Get("level"); v != "" {
		level = mathgame.Level(v)
	}
	var errs []error
	if !op.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", mathgame.ErrInvalidOperation, op))
	}
	if !level.IsValid() {
		errs = append(errs, fmt.Errorf("%w: %q", mathgame.ErrInvalidLevel, level))
	}
	return op, level, errors.Join(errs...)
}

// requestMatcher returns the server matcher, or a copy using threshold when
// the request overrides it.
func (s *Server) requestMatcher(w http.ResponseWriter, threshold *int) (*transcript.Matcher, bool) {
	m := s.Matcher()
	if threshold == nil {
		return m, true
	}
	if *threshold < 0 || *threshold > 100 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("threshold %d must be between 0 and 100", *threshold))
		return nil, false
	}
	return m.With(transcript.WithThreshold(*threshold)), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
