package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MrWong99/histoires/internal/config"
	"github.com/MrWong99/histoires/internal/mathgame"
)

// ── helpers ──────────────────────────────────────────────────────────────────

const sampleYAML = `
server:
  listen_addr: ":9090"
  log_level: debug
  tls:
    cert_file: cert.pem
    key_file: key.pem

matching:
  threshold: 80
  simplified: true
  trace: true

stories:
  dir: ./contes

math:
  problems_per_session: 5
  default_operation: soustraction
  default_level: moyen

telemetry:
  service_name: histoires-test
  disable_metrics: true
`

// ── Load / LoadFromReader ────────────────────────────────────────────────────

func TestLoadFromReader_Full(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(sampleYAML))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Server.LogLevel != config.LogDebug {
		t.Errorf("log_level = %q", cfg.Server.LogLevel)
	}
	if cfg.Server.TLS == nil || cfg.Server.TLS.CertFile != "cert.pem" {
		t.Errorf("tls = %+v", cfg.Server.TLS)
	}
	want := config.MatchingConfig{Threshold: 80, Simplified: true, Trace: true}
	if cfg.Matching != want {
		t.Errorf("matching = %+v, want %+v", cfg.Matching, want)
	}
	if cfg.Stories.Dir != "./contes" {
		t.Errorf("stories.dir = %q", cfg.Stories.Dir)
	}
	if cfg.Math.ProblemsPerSession != 5 || cfg.Math.DefaultOperation != mathgame.Subtraction || cfg.Math.DefaultLevel != mathgame.Medium {
		t.Errorf("math = %+v", cfg.Math)
	}
	if cfg.Telemetry.ServiceName != "histoires-test" || !cfg.Telemetry.DisableMetrics {
		t.Errorf("telemetry = %+v", cfg.Telemetry)
	}
}

func TestLoadFromReader_EmptyUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader(empty): %v", err)
	}
	if *cfg != *config.Default() {
		t.Errorf("empty config = %+v, want defaults %+v", cfg, config.Default())
	}
}

func TestApplyDefaults(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"listen_addr", cfg.Server.ListenAddr, config.DefaultListenAddr},
		{"log_level", cfg.Server.LogLevel, config.LogInfo},
		{"threshold", cfg.Matching.Threshold, config.DefaultThreshold},
		{"stories.dir", cfg.Stories.Dir, config.DefaultStoriesDir},
		{"problems_per_session", cfg.Math.ProblemsPerSession, config.DefaultProblemsPerSession},
		{"default_operation", cfg.Math.DefaultOperation, mathgame.Addition},
		{"default_level", cfg.Math.DefaultLevel, mathgame.Easy},
		{"service_name", cfg.Telemetry.ServiceName, config.DefaultServiceName},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}

	// Explicit values survive.
	cfg = &config.Config{Matching: config.MatchingConfig{Threshold: 90}}
	config.ApplyDefaults(cfg)
	if cfg.Matching.Threshold != 90 {
		t.Errorf("threshold overwritten: %d", cfg.Matching.Threshold)
	}
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "histoires.yaml")
	writeFile(t, path, sampleYAML)

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Matching.Threshold != 80 {
		t.Errorf("threshold = %d, want 80", cfg.Matching.Threshold)
	}

	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load(absent) err = %v, want not-exist", err)
	}
}
