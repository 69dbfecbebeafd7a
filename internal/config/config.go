// Package config provides the configuration schema, loader, validation and
// hot-reload watcher for the histoires server.
package config

import "github.com/MrWong99/histoires/internal/mathgame"

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Defaults applied by [ApplyDefaults].
const (
	DefaultListenAddr         = ":8080"
	DefaultThreshold          = 75
	DefaultStoriesDir         = "stories"
	DefaultProblemsPerSession = mathgame.DefaultProblems
	DefaultServiceName        = "histoires"
)

// Config is the root configuration structure.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
//
// Example:
//
//	server:
//	  listen_addr: ":8080"
//	  log_level: info
//	matching:
//	  threshold: 75
//	  simplified: false
//	stories:
//	  dir: ./stories
//	math:
//	  problems_per_session: 10
//	  default_level: facile
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Matching  MatchingConfig  `yaml:"matching"`
	Stories   StoriesConfig   `yaml:"stories"`
	Math      MathConfig      `yaml:"math"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// ServerConfig holds network and logging settings.
type ServerConfig struct {
	// ListenAddr is the TCP address the server listens on (e.g., ":8080").
	ListenAddr string `yaml:"listen_addr"`

	LogLevel LogLevel `yaml:"log_level"`

	// TLS configures TLS for the server. When nil, the server runs plain HTTP.
	TLS *TLSConfig `yaml:"tls"`
}

// TLSConfig holds TLS certificate paths for enabling HTTPS. Browsers only
// grant microphone access to secure origins, so any deployment reached other
// than through localhost needs it.
type TLSConfig struct {
	CertFile string `yaml:"cert_file"`
	KeyFile  string `yaml:"key_file"`
}

// MatchingConfig tunes how transcripts are judged.
type MatchingConfig struct {
	// Threshold is the minimum phonetic similarity percentage (1-100) a
	// transcript must reach. Zero means [DefaultThreshold].
	Threshold int `yaml:"threshold"`

	// Simplified starts story sessions in keyword mode.
	Simplified bool `yaml:"simplified"`

	// Trace logs every match decision at debug level.
	Trace bool `yaml:"trace"`
}

// StoriesConfig locates the story files.
type StoriesConfig struct {
	// Dir is the directory scanned for *.yaml, *.yml and *.json stories.
	Dir string `yaml:"dir"`
}

// MathConfig holds the arithmetic practice defaults.
type MathConfig struct {
	ProblemsPerSession int                `yaml:"problems_per_session"`
	DefaultOperation   mathgame.Operation `yaml:"default_operation"`
	DefaultLevel       mathgame.Level     `yaml:"default_level"`
}

// TelemetryConfig controls OpenTelemetry.
type TelemetryConfig struct {
	// ServiceName is reported on every metric and span.
	ServiceName string `yaml:"service_name"`

	// DisableMetrics turns off the /metrics endpoint.
	DisableMetrics bool `yaml:"disable_metrics"`
}

// ApplyDefaults fills every unset field of cfg with its default value.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.ListenAddr == "" {
		cfg.Server.ListenAddr = DefaultListenAddr
	}
	if cfg.Server.LogLevel == "" {
		cfg.Server.LogLevel = LogInfo
	}
	if cfg.Matching.Threshold == 0 {
		cfg.Matching.Threshold = DefaultThreshold
	}
	if cfg.Stories.Dir == "" {
		cfg.Stories.Dir = DefaultStoriesDir
	}
	if cfg.Math.ProblemsPerSession == 0 {
		cfg.Math.ProblemsPerSession = DefaultProblemsPerSession
	}
	if cfg.Math.DefaultOperation == "" {
		cfg.Math.DefaultOperation = mathgame.Addition
	}
	if cfg.Math.DefaultLevel == "" {
		cfg.Math.DefaultLevel = mathgame.Easy
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = DefaultServiceName
	}
}

// Default returns a configuration holding only default values.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}
