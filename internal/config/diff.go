package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked; changes to the
// rest are listed in RestartRequired.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// MatchingChanged is true if the threshold, simplified mode or tracing
	// changed. NewMatching holds the new values.
	MatchingChanged bool
	NewMatching     MatchingConfig

	// StoriesChanged is true if the story directory moved.
	StoriesChanged bool

	// MathChanged is true if any math default changed.
	MathChanged bool

	// RestartRequired names the changed settings that only take effect after
	// a restart (e.g. "server.listen_addr").
	RestartRequired []string
}

// Changed reports whether d holds any change at all.
func (d ConfigDiff) Changed() bool {
	return d.LogLevelChanged || d.MatchingChanged || d.StoriesChanged || d.MathChanged || len(d.RestartRequired) > 0
}

// Diff compares old and new configs and returns what changed.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}
	if old.Matching != new.Matching {
		d.MatchingChanged = true
		d.NewMatching = new.Matching
	}
	if old.Stories != new.Stories {
		d.StoriesChanged = true
	}
	if old.Math != new.Math {
		d.MathChanged = true
	}

	if old.Server.ListenAddr != new.Server.ListenAddr {
		d.RestartRequired = append(d.RestartRequired, "server.listen_addr")
	}
	if !sameTLS(old.Server.TLS, new.Server.TLS) {
		d.RestartRequired = append(d.RestartRequired, "server.tls")
	}
	if old.Telemetry != new.Telemetry {
		d.RestartRequired = append(d.RestartRequired, "telemetry")
	}
	return d
}

func sameTLS(a, b *TLSConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
