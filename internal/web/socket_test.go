package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/story"
)

func dial(t *testing.T, baseURL, path string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(baseURL, "http")+path, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msg clientMessage) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func receive(t *testing.T, conn *websocket.Conn, wantType string) Event {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ev Event
	if err := wsjson.Read(ctx, conn, &ev); err != nil {
		t.Fatalf("read %s event: %v", wantType, err)
	}
	if ev.Type != wantType {
		t.Fatalf("event type = %q, want %q (%+v)", ev.Type, wantType, ev)
	}
	return ev
}

func TestStorySocket(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))
	conn := dial(t, srv.URL, "/ws/story/foret")

	ev := receive(t, conn, EventScene)
	if ev.Session == "" || ev.Scene.ID != "start" || ev.Scene.CanGoBack {
		t.Fatalf("first scene = %+v", ev.Scene)
	}
	if len(ev.Scene.Available) != 1 || ev.Scene.Available[0].Index != 0 {
		t.Errorf("available at start = %+v", ev.Scene.Available)
	}

	// The interim miss is silent; the final one answers no_match.
	send(t, conn, clientMessage{Type: msgTranscript, Text: "bonjour"})
	send(t, conn, clientMessage{Type: msgTranscript, Text: "bonjour", Final: true})
	ev = receive(t, conn, EventNoMatch)
	if ev.Feedback != story.FeedbackNoMatch || ev.Heard != "bonjour" {
		t.Errorf("no_match = %+v", ev)
	}

	send(t, conn, clientMessage{Type: msgTranscript, Text: "je veux entrer dans la grotte"})
	ev = receive(t, conn, EventMatch)
	if ev.Choice == nil || *ev.Choice != 0 || ev.Gained != "cle" || ev.Feedback != story.FeedbackMatched {
		t.Errorf("match = %+v", ev)
	}
	ev = receive(t, conn, EventScene)
	if ev.Scene.ID != "grotte" || ev.Scene.XP != 20 || !ev.Scene.CanGoBack {
		t.Errorf("grotte scene = %+v", ev.Scene)
	}

	send(t, conn, clientMessage{Type: msgChoose, Index: 5})
	ev = receive(t, conn, EventError)
	if !strings.Contains(ev.Error, story.ErrChoiceUnavailable.Error()) {
		t.Errorf("error = %q", ev.Error)
	}

	send(t, conn, clientMessage{Type: msgBack})
	ev = receive(t, conn, EventScene)
	if ev.Scene.ID != "start" || len(ev.Scene.Inventory) != 1 {
		t.Errorf("after back = %+v", ev.Scene)
	}
	if len(ev.Scene.Available) != 2 {
		t.Errorf("available with key = %+v", ev.Scene.Available)
	}

	send(t, conn, clientMessage{Type: msgChoose, Index: 1})
	receive(t, conn, EventMatch)
	ev = receive(t, conn, EventScene)
	if ev.Scene.ID != "tresor" {
		t.Errorf("after choose = %+v", ev.Scene)
	}

	send(t, conn, clientMessage{Type: "danse"})
	receive(t, conn, EventError)

	conn.Close(websocket.StatusNormalClosure, "")
}

func TestStorySocket_Simplified(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t), WithSimplified(true))
	conn := dial(t, srv.URL, "/ws/story/foret")

	if ev := receive(t, conn, EventScene); !ev.Scene.Simplified {
		t.Fatal("session not simplified")
	}
	send(t, conn, clientMessage{Type: msgTranscript, Text: "bonjour", Final: true})
	if ev := receive(t, conn, EventNoMatch); ev.Feedback != story.FeedbackNoMatchSimplified {
		t.Errorf("feedback = %q", ev.Feedback)
	}
	send(t, conn, clientMessage{Type: msgTranscript, Text: "la grotte", Final: true})
	receive(t, conn, EventMatch)
}

func TestStorySocket_UnknownStory(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/story/absente", nil)
	if err == nil {
		t.Fatal("dial succeeded for a missing story")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Errorf("response = %v, want 404", resp)
	}
}

func TestMathSocket(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t),
		WithMathDefaults(mathgame.Addition, mathgame.Easy, 2),
	)
	conn := dial(t, srv.URL, "/ws/math?level=moyen")

	ev := receive(t, conn, EventProblem)
	first := *ev.Problem
	if first.ID != 1 || first.Operation != mathgame.Addition || first.Operand1 < 5 {
		t.Fatalf("first problem = %+v", first)
	}

	// Interim results are not judged.
	send(t, conn, clientMessage{Type: msgTranscript, Text: "vingt"})
	send(t, conn, clientMessage{Type: msgTranscript, Text: "euh", Final: true})
	receive(t, conn, EventNoMatch)

	send(t, conn, clientMessage{Type: msgTranscript, Text: strconv.Itoa(first.Answer), Final: true})
	ev = receive(t, conn, EventResult)
	if !ev.Result.Correct || ev.Result.Complete {
		t.Errorf("first result = %+v", ev.Result)
	}
	second := *receive(t, conn, EventProblem).Problem
	if second.ID != 2 {
		t.Errorf("second problem = %+v", second)
	}

	send(t, conn, clientMessage{Type: msgTranscript, Text: strconv.Itoa(second.Answer + 1), Final: true})
	ev = receive(t, conn, EventResult)
	if ev.Result.Correct || !ev.Result.Complete {
		t.Errorf("second result = %+v", ev.Result)
	}
	if want := mathgame.WrongAnswerFeedback(second.Answer); ev.Result.Feedback != want {
		t.Errorf("feedback = %q, want %q", ev.Result.Feedback, want)
	}

	ev = receive(t, conn, EventComplete)
	if ev.Summary.Score != 1 || ev.Summary.Total != 2 || ev.Summary.Percent != 50 {
		t.Errorf("summary = %+v", ev.Summary)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	var ce websocket.CloseError
	if !errors.As(err, &ce) || ce.Code != websocket.StatusNormalClosure {
		t.Errorf("after complete: err = %v, want normal closure", err)
	}
}

func TestMathSocket_InvalidParams(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	for _, q := range []string{"?operation=division", "?level=expert"} {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_, resp, err := websocket.Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/math"+q, nil)
		cancel()
		if err == nil {
			t.Errorf("%s: dial succeeded", q)
			continue
		}
		if resp == nil || resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: response = %v, want 400", q, resp)
		}
	}
}
