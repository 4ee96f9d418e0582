package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"snapcapsule/internal/display"
	"snapcapsule/internal/handlers"
	"snapcapsule/internal/library"
	"snapcapsule/internal/logging"
	"snapcapsule/internal/memlimit"
	"snapcapsule/internal/metrics"
	"snapcapsule/internal/startup"
	"snapcapsule/internal/transcoder"
)

const (
	statsInterval   = time.Minute
	shutdownTimeout = 30 * time.Second
)

func newServeCmd(o *options) *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if port != "" {
				o.cfg.Port = port
			}
			return serve(cmd.Context(), o.cfg)
		},
	}
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (default $PORT or 8080)")
	return cmd
}

func serve(ctx context.Context, cfg *startup.Config) error {
	startTime := time.Now()
	startup.PrintBanner()
	memlimit.Configure()
	startup.LogConfig(cfg)

	if cfg.MetricsEnabled {
		metrics.InitializeMetrics()
	}
	if cfg.VipsEnabled {
		display.InitVips()
		defer display.ShutdownVips()
	}

	startup.LogTranscoderInit(cfg)
	tool := newMediaTool(cfg.TranscoderConfig())

	lib := library.New(cfg.LibraryConfig(), tool, display.NewResolver(display.Options{UseVips: cfg.VipsEnabled}))
	loadStart := time.Now()
	if err := lib.Reload(); err != nil {
		logging.Error("Initial load failed: %v", err)
	}
	startup.LogLibraryInit(lib.GetHealthStatus(), time.Since(loadStart))

	var collector *metrics.Collector
	if cfg.MetricsEnabled {
		collector = metrics.NewCollector(lib, statsInterval)
		collector.Start()
	}

	router := handlers.NewRouter(handlers.New(lib), handlers.RouterConfig{
		MetricsEnabled:  cfg.MetricsEnabled,
		LogHealthChecks: cfg.LogHealthChecks,
	})
	startup.LogHTTPRoutes(router, cfg.LogHealthChecks)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            cfg.Port,
		MetricsEnabled:  cfg.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		startup.LogShutdownInitiated(sig.String())
	case <-ctx.Done():
		startup.LogShutdownInitiated("context cancellation")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.Error("HTTP server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	lib.Close()
	startup.LogShutdownStepComplete("Background job stopped")

	if collector != nil {
		collector.Stop()
		startup.LogShutdownStepComplete("Metrics collector stopped")
	}

	if t, ok := tool.(*transcoder.Tool); ok {
		t.Cleanup()
		startup.LogShutdownStepComplete("Transcoder processes cleaned up")
	}

	startup.LogShutdownComplete()
	return nil
}
