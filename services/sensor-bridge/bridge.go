package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/m4reQ/skyva/internal/bridge"
	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/health"
	"github.com/m4reQ/skyva/internal/repository"
)

// setup loads the environment and builds the stdout logger.
func setup() (Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(envFile); err != nil {
		return Config{}, nil, err
	}
	cfg, err := LoadConfig()
	if err != nil {
		return cfg, nil, err
	}
	if verbose && cfg.LogLevel > slog.LevelDebug {
		cfg.LogLevel = slog.LevelDebug
	}
	return cfg, config.NewLogger(os.Stdout, cfg.LogLevel), nil
}

func runBridge(parent context.Context) error {
	// 1. Environment and stdout logger
	cfg, logger, err := setup()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}

	// 2. Log shipping. Log lines are teed to the broker through the transport created below.
	var transport *bridge.MQTTTransport
	if cfg.LogMQTTTopic != "" {
		if cfg.LogMQTTTopic == cfg.Topics.Logs {
			logger.Warn("LOG_MQTT_TOPIC equals the device logs topic, log shipping disabled", "topic", cfg.LogMQTTTopic)
			cfg.LogMQTTTopic = ""
		} else {
			shipper := bridge.NewMQTTLogWriter(bridge.AsyncPublishFunc(func(topic string, payload []byte) {
				transport.PublishAsync(topic, payload)
			}), cfg.LogMQTTTopic)
			logger = config.NewLogger(io.MultiWriter(os.Stdout, shipper), cfg.LogLevel)
		}
	}
	slog.SetDefault(logger)
	transport = bridge.NewMQTTTransport(cfg.MQTT, logger)

	logger.Info("Starting sensor bridge", "config", cfg)

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Postgres. Ping happens inside OpenPostgres; Migrate takes an
	// advisory lock so the API can migrate at the same time.
	pool, err := repository.OpenPostgres(ctx, cfg.Postgres.ConnString(), int32(cfg.Postgres.MaxConns))
	if err != nil {
		logger.Error("Cannot connect to Postgres", "postgres", cfg.Postgres.String(), "error", err)
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("Schema migration failed", "error", err)
		return err
	}

	// 4. Latest-value cache. Optional: without it inserts still land in Postgres.
	cacheOpts, closeCache := openCache(ctx, cfg.ValkeyAddr, logger)
	defer closeCache()
	repo := repository.New(pool, logger, append([]repository.Option{repository.WithTimeout(cfg.StoreTimeout)}, cacheOpts...)...)

	// 5. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bridge.NewMetrics(reg)

	// 6. Runtime. paho's own logger goes through the runtime too; debug
	// output stays off while shipping to MQTT so it cannot feed itself.
	rt := bridge.NewRuntime(cfg.Topics, transport, repo, logger, bridge.WithMetrics(metrics))
	bridge.RoutePahoLogs(func(l bridge.LogLine) {
		rt.Handle(context.Background(), l)
	}, cfg.LogMQTTTopic == "")

	// 7. Health endpoint
	stats, err := health.NewStatsCollector()
	if err != nil {
		logger.Warn("Process stats unavailable", "error", err)
	}
	healthHandler := health.NewHandler(health.Options{
		BrokerState: func() string { return rt.State().String() },
		Gatherer:    reg,
		Stats:       stats,
		Logger:      logger,
	})
	go func() {
		if err := health.Serve(ctx, ":"+cfg.HTTPPort, healthHandler, logger); err != nil {
			logger.Error("Health server stopped", "error", err)
		}
	}()

	// 8. Connect and run until a signal. Connect returns at once; paho keeps
	// retrying in the background and reports through transport.Events().
	transport.Connect()
	// 250ms lets in-flight publishes finish.
	defer transport.Disconnect(250)

	err = rt.Run(ctx, transport.Events())
	logger.Info("Shutting down sensor bridge")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// openCache connects to Valkey when addr is set. A failure is logged and the
// bridge runs without the cache, like the API does.
func openCache(ctx context.Context, addr string, logger *slog.Logger) ([]repository.Option, func()) {
	if addr == "" {
		return nil, func() {}
	}
	rdb, err := repository.OpenValkey(ctx, addr)
	if err != nil {
		logger.Warn("Valkey unavailable, running without latest-value cache", "addr", addr, "error", err)
		return nil, func() {}
	}
	return []repository.Option{repository.WithCache(repository.NewCache(rdb, repository.DefaultCacheTTL))}, func() { rdb.Close() }
}

func runMigrate(parent context.Context) error {
	cfg, logger, err := setup()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := repository.OpenPostgres(ctx, cfg.Postgres.ConnString(), 1)
	if err != nil {
		logger.Error("Cannot connect to Postgres", "postgres", cfg.Postgres.String(), "error", err)
		return err
	}
	defer pool.Close()

	if err := repository.Migrate(ctx, pool, logger); err != nil {
		logger.Error("Schema migration failed", "error", err)
		return err
	}

	version, err := repository.CurrentSchemaVersion(ctx, pool)
	if err != nil {
		return err
	}
	logger.Info("Schema is up to date", "version", version)
	return nil
}
