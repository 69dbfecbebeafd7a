package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"go.opentelemetry.io/otel/metric"

	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/observe"
	"github.com/MrWong99/histoires/internal/story"
)

// Client message types.
const (
	msgTranscript = "transcript"
	msgChoose     = "choose"
	msgBack       = "back"
)

// Server event types.
const (
	EventScene    = "scene"
	EventMatch    = "match"
	EventNoMatch  = "no_match"
	EventProblem  = "problem"
	EventResult   = "result"
	EventComplete = "complete"
	EventError    = "error"
)

// clientMessage is what the browser sends over a session socket.
type clientMessage struct {
	Type string `json:"type"`

	// Text and Final carry a speech recognition result. Interim results
	// have Final false.
	Text  string `json:"text"`
	Final bool   `json:"final"`

	// Index is the choice pressed, for "choose".
	Index int `json:"index"`
}

// SceneView is the state of a story session as shown to the reader.
type SceneView struct {
	ID         string                  `json:"id"`
	Scene      story.Scene             `json:"scene"`
	Available  []story.AvailableChoice `json:"available"`
	XP         int                     `json:"xp"`
	Inventory  []string                `json:"inventory"`
	CanGoBack  bool                    `json:"can_go_back"`
	Simplified bool                    `json:"simplified"`
}

// Event is what the server sends over a session socket. Only the fields
// relevant to Type are set.
type Event struct {
	Type    string `json:"type"`
	Session string `json:"session,omitempty"`

	Scene *SceneView `json:"scene,omitempty"`

	// Choice is the index of the choice taken, for "match".
	Choice *int `json:"choice,omitempty"`

	Heard      string  `json:"heard,omitempty"`
	Similarity float64 `json:"similarity,omitempty"`
	Gained     string  `json:"gained,omitempty"`
	Feedback   string  `json:"feedback,omitempty"`

	Problem *mathgame.Problem `json:"problem,omitempty"`
	Result  *mathgame.Result  `json:"result,omitempty"`
	Summary *mathgame.Summary `json:"summary,omitempty"`

	Error string `json:"error,omitempty"`
}

func (s *Server) handleStorySocket(w http.ResponseWriter, r *http.Request) {
	st, ok := s.Library().Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("story %q not found", r.PathValue("id")))
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("web: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	sess := story.NewSession(st,
		story.WithMatcher(s.Matcher()),
		story.WithSimplified(s.Simplified()),
	)
	s.metrics.StorySessions.Add(ctx, 1, metric.WithAttributes(observe.Attr("story", st.ID)))
	done := s.metrics.SessionStarted(ctx, "story")
	defer done()

	log := observe.Logger(ctx).With("session", sess.ID(), "story", st.ID)
	log.Info("web: story session started")

	err = s.runStory(ctx, conn, sess)
	closeSession(conn, log, err)
}

func (s *Server) runStory(ctx context.Context, conn *websocket.Conn, sess *story.Session) error {
	if err := wsjson.Write(ctx, conn, sceneEvent(sess)); err != nil {
		return err
	}

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}

		var events []Event
		switch msg.Type {
		case msgTranscript:
			events = s.storyTranscript(ctx, sess, msg)
		case msgChoose:
			out, err := sess.Choose(msg.Index)
			if err != nil {
				events = []Event{{Type: EventError, Error: err.Error()}}
				break
			}
			s.metrics.RecordStoryChoice(ctx, sess.Story().ID, "button")
			events = matchEvents(sess, out)
		case msgBack:
			sess.Back()
			events = []Event{sceneEvent(sess)}
		default:
			events = []Event{{Type: EventError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}}
		}

		for _, ev := range events {
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return err
			}
		}
	}
}

// storyTranscript matches one transcript. An interim transcript that matches
// nothing produces no event.
func (s *Server) storyTranscript(ctx context.Context, sess *story.Session, msg clientMessage) []Event {
	ctx, span := observe.StartSpan(ctx, "story.respond")
	defer span.End()

	out, err := sess.Respond(msg.Text)
	if err != nil {
		span.RecordError(err)
		return []Event{{Type: EventError, Error: err.Error()}}
	}
	observe.AnnotateDecision(span, out.Decision)

	if !out.Matched {
		if !msg.Final {
			return nil
		}
		return []Event{{
			Type:       EventNoMatch,
			Heard:      msg.Text,
			Similarity: out.Decision.Similarity,
			Feedback:   out.Feedback,
		}}
	}
	s.metrics.RecordStoryChoice(ctx, sess.Story().ID, "voice")
	events := matchEvents(sess, out)
	events[0].Heard = msg.Text
	events[0].Similarity = out.Decision.Similarity
	return events
}

func matchEvents(sess *story.Session, out story.Outcome) []Event {
	idx := out.ChoiceIndex
	return []Event{
		{Type: EventMatch, Choice: &idx, Gained: out.Gained, Feedback: out.Feedback},
		sceneEvent(sess),
	}
}

func sceneEvent(sess *story.Session) Event {
	return Event{
		Type:    EventScene,
		Session: sess.ID(),
		Scene: &SceneView{
			ID:         sess.SceneID(),
			Scene:      sess.Scene(),
			Available:  sess.Available(),
			XP:         sess.XP(),
			Inventory:  sess.Inventory(),
			CanGoBack:  len(sess.History()) > 1,
			Simplified: sess.Simplified(),
		},
	}
}

func (s *Server) handleMathSocket(w http.ResponseWriter, r *http.Request) {
	op, level, err := s.mathParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sess, err := mathgame.NewSession(s.generator, op, level, s.math.Load().problems,
		mathgame.WithMatcher(s.Matcher()),
	)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("web: websocket accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := r.Context()
	done := s.metrics.SessionStarted(ctx, "math")
	defer done()

	log := observe.Logger(ctx).With("session", sess.ID(), "operation", op, "level", level)
	log.Info("web: math session started")

	err = s.runMath(ctx, conn, sess)
	closeSession(conn, log, err)
}

// runMath judges final transcripts only: an interim result may hold the first
// half of a compound number.
func (s *Server) runMath(ctx context.Context, conn *websocket.Conn, sess *mathgame.Session) error {
	if err := wsjson.Write(ctx, conn, problemEvent(sess)); err != nil {
		return err
	}

	for {
		var msg clientMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			return err
		}
		if msg.Type != msgTranscript {
			ev := Event{Type: EventError, Error: fmt.Sprintf("unknown message type %q", msg.Type)}
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return err
			}
			continue
		}
		if !msg.Final {
			continue
		}

		events, finished := s.mathAnswer(ctx, sess, msg.Text)
		for _, ev := range events {
			if err := wsjson.Write(ctx, conn, ev); err != nil {
				return err
			}
		}
		if finished {
			return nil
		}
	}
}

func (s *Server) mathAnswer(ctx context.Context, sess *mathgame.Session, text string) (events []Event, finished bool) {
	ctx, span := observe.StartSpan(ctx, "math.answer")
	defer span.End()

	op, level := string(sess.Operation()), string(sess.Level())
	res, err := sess.Answer(text)
	if err != nil {
		return []Event{{Type: EventError, Error: err.Error()}}, errors.Is(err, mathgame.ErrSessionComplete)
	}
	observe.AnnotateDecision(span, res.Decision)

	if !res.Heard {
		s.metrics.RecordMathAnswer(ctx, op, level, "unheard")
		return []Event{{Type: EventNoMatch, Heard: text, Feedback: story.FeedbackNoMatch}}, false
	}

	result := "wrong"
	if res.Correct {
		result = "correct"
	}
	s.metrics.RecordMathAnswer(ctx, op, level, result)

	events = []Event{{Type: EventResult, Heard: text, Result: &res}}
	if res.Complete {
		sum := sess.Summary()
		return append(events, Event{Type: EventComplete, Session: sess.ID(), Summary: &sum}), true
	}
	return append(events, problemEvent(sess)), false
}

func problemEvent(sess *mathgame.Session) Event {
	p, _ := sess.Current()
	return Event{Type: EventProblem, Session: sess.ID(), Problem: &p}
}

// closeSession ends a session socket according to how its loop returned.
func closeSession(conn *websocket.Conn, log *slog.Logger, err error) {
	switch status := websocket.CloseStatus(err); {
	case err == nil:
		log.Info("web: session finished")
		conn.Close(websocket.StatusNormalClosure, "session complete")
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		log.Info("web: session closed by client")
	case errors.Is(err, context.Canceled):
		log.Info("web: session cancelled")
	default:
		log.Warn("web: session ended", "err", err)
		conn.Close(websocket.StatusInternalError, "session error")
	}
}
