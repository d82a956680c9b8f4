package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/recera/kgcanvas/cmd/kgcanvas/internal/config"
	"github.com/recera/kgcanvas/cmd/kgcanvas/internal/watch"
	"github.com/recera/kgcanvas/pkg/debug"
	"github.com/recera/kgcanvas/pkg/interact"
	"github.com/recera/kgcanvas/pkg/live"
)

type serveFlags struct {
	port  int
	host  string
	seed  string
	watch bool
	level string
}

func newServeCommand() *cobra.Command {
	var flags serveFlags

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve live canvases over WebSocket",
		Long: `Starts the live canvas server. Each client connects to /live/<session>,
sends pointer events as binary frames and receives JSON frame snapshots.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			flags.apply(cmd, cfg)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().IntVarP(&flags.port, "port", "p", 0, "Port to listen on (overrides kgcanvas.yaml)")
	cmd.Flags().StringVarP(&flags.host, "host", "H", "", "Host to bind to (overrides kgcanvas.yaml)")
	cmd.Flags().StringVar(&flags.seed, "seed", "", "Seed graph file (defaults to the demo graph)")
	cmd.Flags().BoolVar(&flags.watch, "watch", false, "Reload canvases when the seed file changes")
	cmd.Flags().StringVar(&flags.level, "log-level", "", "Log level: debug, info, warn or error")

	return cmd
}

// apply copies explicitly set flags over the file values. CLI takes precedence.
func (f serveFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	if f.port != 0 {
		cfg.Serve.Port = f.port
	}
	if f.host != "" {
		cfg.Serve.Host = f.host
	}
	if f.seed != "" {
		cfg.Seed = f.seed
	}
	if cmd.Flags().Changed("watch") {
		cfg.Serve.Watch = f.watch
	}
	if f.level != "" {
		cfg.Log.Level = f.level
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger, err := debug.NewLogger(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	// Fail fast on a broken seed rather than on the first connection.
	if _, err := cfg.LoadScene(); err != nil {
		return err
	}

	liveServer := live.NewServer(live.Options{
		Factory:     engineFactory(cfg, logger),
		Logger:      logger,
		IdleTimeout: cfg.Serve.IdleTimeout,
	})
	defer liveServer.Close()

	if cfg.Serve.Watch && cfg.Seed != "" {
		w, err := watch.NewSeedWatcher(cfg.Seed, watch.DefaultDebounce, logger, func() {
			if _, err := cfg.LoadScene(); err != nil {
				logger.Warn("seed file invalid, keeping current graph", zap.Error(err))
				return
			}
			liveServer.Reload(cfg.LoadScene)
		})
		if err != nil {
			return err
		}
		defer w.Close()
	}

	addr := fmt.Sprintf("%s:%d", cfg.Serve.Host, cfg.Serve.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           newRouter(cfg, liveServer, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down live server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()

	logger.Info("live server running",
		zap.String("addr", "http://"+addr),
		zap.String("live", cfg.Serve.LivePath),
		zap.String("metrics", cfg.Serve.MetricsPath),
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// engineFactory builds session engines from the configured seed and starts
// them in the configured layout mode.
func engineFactory(cfg *config.Config, logger *zap.Logger) live.Factory {
	base := live.NewEngineFactory(cfg.LoadScene, cfg.Interact(), interact.WithLogger(logger.Named("engine")))
	mode := cfg.LayoutMode()
	return func(sessionID string, hooks interact.Hooks) (*interact.Engine, error) {
		e, err := base(sessionID, hooks)
		if err != nil {
			return nil, err
		}
		if e.LayoutMode() != mode {
			if err := e.SelectLayoutMode(mode); err != nil {
				return nil, fmt.Errorf("failed to apply layout %s: %w", mode, err)
			}
		}
		return e, nil
	}
}

func newRouter(cfg *config.Config, liveServer *live.Server, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(requestLogger(logger.Named("http")))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		fmt.Fprintf(w, "ok %d\n", liveServer.Sessions())
	})
	r.Handle(cfg.Serve.MetricsPath, promhttp.HandlerFor(liveServer.Metrics().Registry(), promhttp.HandlerOpts{}))
	r.Mount(cfg.Serve.LivePath, liveServer.Routes())
	return r
}

func requestLogger(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("requestID", chimiddleware.GetReqID(r.Context())),
			)
		})
	}
}
