package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxProblemsPerSession bounds math.problems_per_session.
const MaxProblemsPerSession = 100

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. An empty document yields the default configuration.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	// Server
	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if tls := cfg.Server.TLS; tls != nil {
		if tls.CertFile == "" {
			errs = append(errs, errors.New("server.tls.cert_file is required when tls is set"))
		}
		if tls.KeyFile == "" {
			errs = append(errs, errors.New("server.tls.key_file is required when tls is set"))
		}
	}

	// Matching
	if t := cfg.Matching.Threshold; t < 0 || t > 100 {
		errs = append(errs, fmt.Errorf("matching.threshold %d is out of range [0, 100]", t))
	} else if t > 0 && t < 50 {
		slog.Warn("config: matching.threshold is very low; unrelated answers may be accepted", "threshold", t)
	}

	// Math
	if n := cfg.Math.ProblemsPerSession; n < 0 || n > MaxProblemsPerSession {
		errs = append(errs, fmt.Errorf("math.problems_per_session %d is out of range [1, %d]", n, MaxProblemsPerSession))
	}
	if op := cfg.Math.DefaultOperation; op != "" && !op.IsValid() {
		errs = append(errs, fmt.Errorf("math.default_operation %q is invalid; valid values: addition, soustraction", op))
	}
	if lvl := cfg.Math.DefaultLevel; lvl != "" && !lvl.IsValid() {
		errs = append(errs, fmt.Errorf("math.default_level %q is invalid; valid values: facile, moyen, difficile", lvl))
	}

	// Stories
	if cfg.Stories.Dir != "" {
		if info, err := os.Stat(cfg.Stories.Dir); err != nil || !info.IsDir() {
			slog.Warn("config: stories.dir is not a readable directory; no story will be offered", "dir", cfg.Stories.Dir)
		}
	}

	return errors.Join(errs...)
}
