package web

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/MrWong99/histoires/internal/mathgame"
	"github.com/MrWong99/histoires/internal/observe"
	"github.com/MrWong99/histoires/internal/story"
	"github.com/MrWong99/histoires/internal/transcript"
	"github.com/MrWong99/histoires/internal/transcript/phonetic"
)

const forestYAML = `
id: foret
title: "La forêt"
scenes:
  start:
    text: "Tu es devant une grotte et une rivière."
    choices:
      - text: "Entrer dans la grotte"
        keyword: "grotte"
        next_scene: grotte
      - text: "Ouvrir le coffre"
        keyword: "coffre"
        requirement: cle
        next_scene: tresor
  grotte:
    text: "Dans la grotte, tu trouves une clé."
    item: cle
    xp: 20
    choices:
      - text: "Revenir au début"
        keyword: "début"
        next_scene: start
  tresor:
    text: "Tu as trouvé le trésor !"
    choices:
      - text: "Recommencer"
        keyword: "recommencer"
        reset: true
`

func newTestLibrary(t *testing.T) *story.Library {
	t.Helper()
	st, err := story.LoadFromReader(strings.NewReader(forestYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	lib, err := story.NewLibrary(st)
	if err != nil {
		t.Fatalf("NewLibrary: %v", err)
	}
	return lib
}

func newTestServer(t *testing.T, lib *story.Library, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	m, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	opts = append([]Option{
		WithMetrics(m),
		WithGenerator(mathgame.NewGenerator(rand.New(rand.NewPCG(1, 2)))),
		WithMetricsHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("# metrics\n"))
		})),
	}, opts...)
	s := New(lib, opts...)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func do(t *testing.T, method, url, body string) (int, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(resp.Body)
	return resp.StatusCode, buf.Bytes()
}

func decode[T any](t *testing.T, data []byte) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return v
}

func TestStoriesAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	code, body := do(t, "GET", srv.URL+"/api/stories", "")
	if code != http.StatusOK {
		t.Fatalf("list status = %d", code)
	}
	list := decode[[]story.Summary](t, body)
	if len(list) != 1 || list[0].ID != "foret" || list[0].Scenes != 3 {
		t.Errorf("list = %+v", list)
	}

	code, body = do(t, "GET", srv.URL+"/api/stories/foret", "")
	if code != http.StatusOK {
		t.Fatalf("get status = %d", code)
	}
	st := decode[story.Story](t, body)
	if st.StartScene != "start" || len(st.Scenes["start"].Choices) != 2 {
		t.Errorf("story = %+v", st)
	}

	if code, _ := do(t, "GET", srv.URL+"/api/stories/absente", ""); code != http.StatusNotFound {
		t.Errorf("missing story status = %d, want 404", code)
	}
}

func TestNumbersAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	code, body := do(t, "GET", srv.URL+"/api/numbers/23", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	got := decode[numberResponse](t, body)
	if got.N != 23 || got.Words != "vingt-trois" {
		t.Errorf("got %+v", got)
	}
	if len(got.SpokenForms) == 0 || got.SpokenForms[0] != "23" {
		t.Errorf("spoken forms = %v", got.SpokenForms)
	}

	for _, path := range []string{"/api/numbers/101", "/api/numbers/-1", "/api/numbers/douze"} {
		if code, _ := do(t, "GET", srv.URL+path, ""); code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, code)
		}
	}
}

func TestMatchChoiceAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	tests := []struct {
		name        string
		body        string
		wantStatus  int
		wantMatched bool
	}{
		{"identical", `{"spoken":"le chat dort","target":"le chat dort"}`, http.StatusOK, true},
		{"unrelated", `{"spoken":"bonjour","target":"le chat dort"}`, http.StatusOK, false},
		{"keyword", `{"spoken":"la grotte","target":"Entrer dans la grotte","keyword":"grotte","simplified":true}`, http.StatusOK, true},
		{"empty", `{"spoken":"","target":"le chat dort"}`, http.StatusOK, false},
		{"threshold zero", `{"spoken":"bonjour","target":"le chat dort","threshold":0}`, http.StatusOK, true},
		{"threshold too high", `{"spoken":"a","target":"a","threshold":101}`, http.StatusBadRequest, false},
		{"unknown field", `{"spoken":"a","cible":"a"}`, http.StatusBadRequest, false},
		{"not json", `chat`, http.StatusBadRequest, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code, body := do(t, "POST", srv.URL+"/api/match/choice", tc.body)
			if code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", code, tc.wantStatus, body)
			}
			if code != http.StatusOK {
				return
			}
			if got := decode[matchResponse](t, body); got.Matched != tc.wantMatched {
				t.Errorf("matched = %v, want %v (%+v)", got.Matched, tc.wantMatched, got)
			}
		})
	}
}

func TestMatchNumberAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	tests := []struct {
		name        string
		body        string
		wantMatched bool
		wantParsed  *int
	}{
		{"words", `{"spoken":"douze","expected":12}`, true, ptr(12)},
		{"digits", `{"spoken":"12","expected":12}`, true, ptr(12)},
		{"digits in a sentence", `{"spoken":"c'est 12 merci","expected":12}`, true, nil},
		{"wrong", `{"spoken":"treize","expected":12}`, false, ptr(13)},
		{"no expected", `{"spoken":"douze"}`, false, ptr(12)},
		{"nothing heard", `{"spoken":"euh","expected":12}`, false, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			code, body := do(t, "POST", srv.URL+"/api/match/number", tc.body)
			if code != http.StatusOK {
				t.Fatalf("status = %d (%s)", code, body)
			}
			got := decode[matchResponse](t, body)
			if got.Matched != tc.wantMatched {
				t.Errorf("matched = %v, want %v", got.Matched, tc.wantMatched)
			}
			switch {
			case tc.wantParsed == nil && got.Parsed != nil:
				t.Errorf("parsed = %d, want none", *got.Parsed)
			case tc.wantParsed != nil && (got.Parsed == nil || *got.Parsed != *tc.wantParsed):
				t.Errorf("parsed = %v, want %d", got.Parsed, *tc.wantParsed)
			}
		})
	}
}

func TestPhoneticAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	code, body := do(t, "POST", srv.URL+"/api/phonetic", `{"text":"Le chat dort"}`)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	got := decode[phoneticResponse](t, body)
	if want := phonetic.Key("Le chat dort"); got.Key != want {
		t.Errorf("key = %q, want %q", got.Key, want)
	}
}

func TestMathProblemAPI(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, newTestLibrary(t))

	code, body := do(t, "GET", srv.URL+"/api/math/problem?operation=soustraction&level=moyen", "")
	if code != http.StatusOK {
		t.Fatalf("status = %d (%s)", code, body)
	}
	p := decode[mathgame.Problem](t, body)
	if p.Operation != mathgame.Subtraction || p.Answer < 0 || p.Operand1 < 5 || p.Operand1 > 20 {
		t.Errorf("problem = %+v", p)
	}

	if code, _ := do(t, "GET", srv.URL+"/api/math/problem?operation=division", ""); code != http.StatusBadRequest {
		t.Errorf("invalid operation status = %d, want 400", code)
	}
}

func TestProbesAndMetrics(t *testing.T) {
	t.Parallel()

	s, srv := newTestServer(t, nil)

	if code, _ := do(t, "GET", srv.URL+"/healthz", ""); code != http.StatusOK {
		t.Errorf("healthz = %d", code)
	}
	if code, _ := do(t, "GET", srv.URL+"/readyz", ""); code != http.StatusServiceUnavailable {
		t.Errorf("readyz without stories = %d, want 503", code)
	}
	s.SetLibrary(newTestLibrary(t))
	if code, _ := do(t, "GET", srv.URL+"/readyz", ""); code != http.StatusOK {
		t.Errorf("readyz with stories = %d, want 200", code)
	}

	code, body := do(t, "GET", srv.URL+"/metrics", "")
	if code != http.StatusOK || !strings.HasPrefix(string(body), "# metrics") {
		t.Errorf("metrics = %d %q", code, body)
	}
}

func TestMetricsHandlerDisabled(t *testing.T) {
	t.Parallel()
	_, srv := newTestServer(t, nil, WithMetricsHandler(nil))

	if code, _ := do(t, "GET", srv.URL+"/metrics", ""); code != http.StatusNotFound {
		t.Errorf("metrics = %d, want 404", code)
	}
}

func TestSetMatcher_HotReload(t *testing.T) {
	t.Parallel()
	s, srv := newTestServer(t, newTestLibrary(t))

	const body = `{"spoken":"bonjour","target":"le chat dort"}`
	if _, b := do(t, "POST", srv.URL+"/api/match/choice", body); decode[matchResponse](t, b).Matched {
		t.Fatal("matched at the default threshold")
	}

	s.SetMatcher(transcript.New(transcript.WithThreshold(0)))
	_, b := do(t, "POST", srv.URL+"/api/match/choice", body)
	got := decode[matchResponse](t, b)
	if !got.Matched || got.Threshold != 0 {
		t.Errorf("after reload: %+v", got)
	}
}

func TestSetMathDefaults(t *testing.T) {
	t.Parallel()
	s := New(nil, WithMetricsHandler(nil))

	s.SetMathDefaults(mathgame.Subtraction, mathgame.Hard, 3)
	d := s.math.Load()
	if d.operation != mathgame.Subtraction || d.level != mathgame.Hard || d.problems != 3 {
		t.Errorf("defaults = %+v", *d)
	}

	s.SetMathDefaults("division", "", 0)
	d = s.math.Load()
	if d.operation != mathgame.Addition || d.level != mathgame.Easy || d.problems != mathgame.DefaultProblems {
		t.Errorf("fallback defaults = %+v", *d)
	}
}

func ptr(n int) *int { return &n }
