// Command calorielens-web serves the upload form and the JSON estimate API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bububa/calorielens/config"
	"github.com/bububa/calorielens/internal/bootstrap"
	"github.com/bububa/calorielens/presenter"
	"github.com/bububa/calorielens/server"
)

const shutdownTimeout = 10 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "YAML configuration file")
		envFile    = flag.String("env", ".env", "dotenv file preloaded into the environment")
		provider   = flag.String("provider", "", "vision provider: gemini, openai or anthropic")
		model      = flag.String("model", "", "model name, provider default when empty")
		mode       = flag.String("mode", "", "structured or lookup")
		listen     = flag.String("listen", "", "listen address, overrides the configuration")
	)
	flag.Parse()

	if err := config.LoadEnvFile(*envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	cfg, err := config.Load(*configPath,
		config.WithProvider(*provider),
		config.WithModel(*model),
		config.WithMode(*mode),
	)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *listen != "" {
		cfg.Listen = *listen
	}
	logger := cfg.Logger(os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()
	app, err := bootstrap.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("startup failed", slog.String("error", err.Error()))
		os.Exit(2)
	}
	defer app.Close()

	if err := serve(ctx, app, logger); err != nil {
		logger.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func serve(ctx context.Context, app *bootstrap.App, logger *slog.Logger) error {
	cfg := app.Config
	page := presenter.NewPage(cfg.Provider, cfg.Model, cfg.Mode)
	handler := server.NewHandler(app, page, cfg.MaxUploadBytes, logger)
	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, groupCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("http server started",
			slog.String("listen", cfg.Listen),
			slog.String("provider", cfg.Provider),
			slog.String("model", cfg.Model),
			slog.String("mode", cfg.Mode),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
