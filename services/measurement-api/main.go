package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/m4reQ/skyva/internal/api"
	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/repository"
)

var (
	verbose bool
	envFile string
)

var rootCmd = &cobra.Command{
	Use:          "measurement-api",
	Short:        "Serve stored air-quality measurements over HTTP",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serve(parent context.Context) error {
	// 1. Environment and logger
	if err := config.LoadDotEnv(envFile); err != nil {
		slog.Error("Cannot load env file", "error", err)
		return err
	}
	cfg, err := LoadConfig()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}
	if verbose && cfg.LogLevel > slog.LevelDebug {
		cfg.LogLevel = slog.LevelDebug
	}
	logger := config.NewLogger(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	logger.Info("Starting measurement API", "config", cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Postgres
	pool, err := repository.OpenPostgres(ctx, cfg.Postgres.ConnString(), int32(cfg.Postgres.MaxConns))
	if err != nil {
		logger.Error("Cannot connect to Postgres", "postgres", cfg.Postgres.String(), "error", err)
		return err
	}
	defer pool.Close()

	// The API may come up before the bridge; make sure the table exists.
	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("Schema migration failed", "error", err)
		return err
	}

	// 3. Optional latest-value cache
	repoOpts := []repository.Option{repository.WithTimeout(cfg.StoreTimeout)}
	if cfg.ValkeyAddr != "" {
		rdb, err := repository.OpenValkey(ctx, cfg.ValkeyAddr)
		if err != nil {
			// Reads fall back to Postgres, so a missing cache is not fatal here.
			logger.Warn("Valkey unavailable, serving from Postgres only", "addr", cfg.ValkeyAddr, "error", err)
		} else {
			defer rdb.Close()
			repoOpts = append(repoOpts, repository.WithCache(repository.NewCache(rdb, repository.DefaultCacheTTL)))
		}
	}
	repo := repository.New(pool, logger, repoOpts...)

	// 4. HTTP server until a signal, then drain for up to 5s
	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           api.NewRouter(api.NewHandler(repo, logger), cfg.AllowedOrigins),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Measurement API listening", "addr", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.Error("HTTP server failed", "error", err)
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down measurement API")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
