// Command histoires serves the French reading and arithmetic game and offers
// text-mode tools to try the matching engine from a terminal.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrWong99/histoires/internal/config"
	"github.com/MrWong99/histoires/internal/transcript"
)

// version is overridden at build time with -ldflags "-X main.version=…".
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := newRootCmd()
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "histoires: %v\n", err)
		return 1
	}
	return 0
}

// globals holds the persistent flags and the process-wide log level.
type globals struct {
	configPath string
	level      slog.LevelVar
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "histoires",
		Short:         "Interactive French stories and math practice driven by speech transcripts",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "config.yaml", "path to the YAML configuration file")

	root.AddCommand(
		newServeCmd(g),
		newPlayCmd(g),
		newMathCmd(g),
		newKeyCmd(),
		newNumberCmd(),
	)
	return root
}

// ── Configuration ─────────────────────────────────────────────────────────────

// loadConfig loads the file named by --config. A missing file is only fatal
// when the flag was given explicitly; otherwise the defaults are used.
func (g *globals) loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(g.configPath)
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist) && !cmd.Flags().Changed("config"):
		cfg = config.Default()
	default:
		return nil, err
	}

	g.level.Set(slogLevel(cfg.Server.LogLevel))
	slog.SetDefault(newLogger(&g.level))
	return cfg, nil
}

// matcherFor builds the transcript matcher described by cfg.
func matcherFor(cfg config.MatchingConfig) *transcript.Matcher {
	opts := []transcript.Option{transcript.WithThreshold(cfg.Threshold)}
	if cfg.Trace {
		opts = append(opts, transcript.WithTraceLogger(slog.Default()))
	}
	return transcript.New(opts...)
}

// ── Logger ────────────────────────────────────────────────────────────────────

func newLogger(level slog.Leveler) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func slogLevel(level config.LogLevel) slog.Level {
	switch level {
	case config.LogDebug:
		return slog.LevelDebug
	case config.LogWarn:
		return slog.LevelWarn
	case config.LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
