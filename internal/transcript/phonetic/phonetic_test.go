package phonetic_test

import (
	"math"
	"testing"

	"github.com/MrWong99/histoires/internal/transcript/phonetic"
)

func TestKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"123 !?", ""},
		{"le chat dort", "leSatdort"},
		{"Le chat dort !", "leSatdort"},
		{"chat", "Sat"},
		{"Château", "Sato"},
		{"parler", "parl"},
		{"parlé", "parl"},
		{"guerre", "ger"},
		{"girafe", "jiraf"},
		{"maison", "mesO"},
		{"pain", "pA"},
		{"photo", "foto"},
		{"taxi", "taksi"},
		{"ville", "vil"},
		{"montagne", "mOtaN"},
		{"ça", "sa"},
		{"ceci", "sesi"},
		{"cube", "kub"},
		{"gare", "gar"},
		{"hibou", "ibu"},
		{"Éléphant", "elefAt"},
		{"lapin", "lapI"},
		{"mer", "mer"},
		{"e", "e"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := phonetic.Key(tt.in); got != tt.want {
				t.Errorf("Key(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestKey_SpellingVariantsCollapse(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{
		{"château", "chato"},
		{"parler", "parlé"},
		{"photo", "foto"},
		{"Le Château", "le chateau"},
		{"ça", "sa"},
	}
	for _, p := range pairs {
		if a, b := phonetic.Key(p[0]), phonetic.Key(p[1]); a != b {
			t.Errorf("Key(%q) = %q, Key(%q) = %q; want equal keys", p[0], a, p[1], b)
		}
	}
}

func TestKey_Deterministic(t *testing.T) {
	t.Parallel()

	inputs := []string{"", "le chameau des neiges", "Quatre-vingt-dix-neuf", "ÇA FAIT DOUZE"}
	for _, in := range inputs {
		first := phonetic.Key(in)
		for range 5 {
			if got := phonetic.Key(in); got != first {
				t.Fatalf("Key(%q) not deterministic: %q then %q", in, first, got)
			}
		}
	}
}

func TestSimilarity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"", "", 100},
		{"abc", "abc", 100},
		{"abc", "", 0},
		{"", "abc", 0},
		{"kitten", "sitting", 400.0 / 7},
		{"Sat", "Sa", 200.0 / 3},
	}
	for _, tt := range tests {
		got := phonetic.Similarity(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestSimilarity_Properties(t *testing.T) {
	t.Parallel()

	words := []string{"", "a", "Sat", "leSatdort", "mesO", "kAtrvAdis", "élan"}
	for _, a := range words {
		if got := phonetic.Similarity(a, a); got != 100 {
			t.Errorf("Similarity(%q, %q) = %f, want 100", a, a, got)
		}
		for _, b := range words {
			ab, ba := phonetic.Similarity(a, b), phonetic.Similarity(b, a)
			if ab != ba {
				t.Errorf("Similarity not symmetric for %q/%q: %f vs %f", a, b, ab, ba)
			}
			if ab < 0 || ab > 100 {
				t.Errorf("Similarity(%q, %q) = %f out of [0, 100]", a, b, ab)
			}
		}
	}
}

func TestDistance(t *testing.T) {
	t.Parallel()

	if d := phonetic.Distance("kitten", "sitting"); d != 3 {
		t.Errorf("Distance(kitten, sitting) = %d, want 3", d)
	}
	// Counted in runes, not bytes.
	if d := phonetic.Distance("é", "e"); d != 1 {
		t.Errorf("Distance(é, e) = %d, want 1", d)
	}
}

func TestSimilarity_OfKeys(t *testing.T) {
	t.Parallel()

	if got := phonetic.Similarity(phonetic.Key("Le château"), phonetic.Key("le chato")); got != 100 {
		t.Errorf("similarity of keys = %f, want 100", got)
	}
}
