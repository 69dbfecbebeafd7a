package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/histoires/internal/config"
	"github.com/MrWong99/histoires/internal/observe"
	"github.com/MrWong99/histoires/internal/story"
	"github.com/MrWong99/histoires/internal/web"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and WebSocket server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := g.loadConfig(cmd)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, g, cfg)
		},
	}
}

func serve(ctx context.Context, g *globals, cfg *config.Config) error {
	slog.Info("histoires starting",
		"version", version,
		"config", g.configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"stories_dir", cfg.Stories.Dir,
		"threshold", cfg.Matching.Threshold,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
	})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(sctx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Stories ───────────────────────────────────────────────────────────────
	lib, err := loadLibrary(cfg.Stories.Dir)
	if err != nil {
		return err
	}

	// ── Web server ────────────────────────────────────────────────────────────
	opts := []web.Option{
		web.WithMatcher(matcherFor(cfg.Matching)),
		web.WithSimplified(cfg.Matching.Simplified),
		web.WithMathDefaults(cfg.Math.DefaultOperation, cfg.Math.DefaultLevel, cfg.Math.ProblemsPerSession),
	}
	if cfg.Telemetry.DisableMetrics {
		opts = append(opts, web.WithMetricsHandler(nil))
	}
	srv := web.New(lib, opts...)

	httpSrv := &http.Server{
		Addr:              cfg.Server.ListenAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// ── Config hot reload ─────────────────────────────────────────────────────
	if _, err := os.Stat(g.configPath); err == nil {
		w, err := config.NewWatcher(g.configPath, func(old, new *config.Config) {
			applyReload(g, srv, config.Diff(old, new), new)
		})
		if err != nil {
			return err
		}
		defer w.Stop()
	}

	grp, gctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		slog.Info("server ready, press Ctrl+C to shut down", "addr", httpSrv.Addr)
		var err error
		if tls := cfg.Server.TLS; tls != nil {
			err = httpSrv.ListenAndServeTLS(tls.CertFile, tls.KeyFile)
		} else {
			err = httpSrv.ListenAndServe()
		}
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})
	grp.Go(func() error {
		<-gctx.Done()
		slog.Info("shutdown signal received, stopping…")
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpSrv.Shutdown(sctx)
	})

	if err := grp.Wait(); err != nil {
		return err
	}
	slog.Info("goodbye")
	return nil
}

// loadLibrary loads the story directory. Stories that fail to load are
// logged and skipped; only an unreadable directory is fatal.
func loadLibrary(dir string) (*story.Library, error) {
	lib, err := story.LoadDir(dir)
	if lib == nil {
		return nil, err
	}
	if err != nil {
		slog.Warn("some stories failed to load", "dir", dir, "err", err)
	}
	slog.Info("stories loaded", "dir", dir, "count", lib.Len())
	return lib, nil
}

// applyReload pushes the hot-reloadable parts of a changed config into the
// running server.
func applyReload(g *globals, srv *web.Server, d config.ConfigDiff, cfg *config.Config) {
	if d.LogLevelChanged {
		g.level.Set(slogLevel(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.MatchingChanged {
		srv.SetMatcher(matcherFor(d.NewMatching))
		srv.SetSimplified(d.NewMatching.Simplified)
		slog.Info("matching settings changed",
			"threshold", d.NewMatching.Threshold,
			"simplified", d.NewMatching.Simplified,
			"trace", d.NewMatching.Trace,
		)
	}
	if d.MathChanged {
		srv.SetMathDefaults(cfg.Math.DefaultOperation, cfg.Math.DefaultLevel, cfg.Math.ProblemsPerSession)
		slog.Info("math defaults changed")
	}
	if d.StoriesChanged {
		if lib, err := loadLibrary(cfg.Stories.Dir); err != nil {
			slog.Error("story reload failed, keeping previous library", "err", err)
		} else {
			srv.SetLibrary(lib)
		}
	}
	if len(d.RestartRequired) > 0 {
		slog.Warn("some changes need a restart to take effect", "settings", d.RestartRequired)
	}
}
