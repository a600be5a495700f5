package main

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/m4reQ/skyva/internal/bridge"
	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/repository"
)

// Config holds everything the bridge reads from the environment.
type Config struct {
	MQTT   bridge.MQTTOptions
	Topics bridge.Topics

	Postgres     config.Postgres
	ValkeyAddr   string // empty disables the latest-value cache
	StoreTimeout time.Duration

	HTTPPort     string
	LogLevel     slog.Level
	LogMQTTTopic string // empty disables log shipping
}

// LoadConfig reads the environment. Anything missing gets a default that
// matches the compose setup.
func LoadConfig() (Config, error) {
	var cfg Config
	var err error

	cfg.MQTT.Broker = config.GetEnv("MQTT_BROKER", "")
	if cfg.MQTT.Broker == "" {
		cfg.MQTT.Broker = fmt.Sprintf("tcp://%s:%s",
			config.GetEnv("MQTT_HOST", "mosquitto"),
			config.GetEnv("MQTT_PORT", "1883"),
		)
	}
	cfg.MQTT.ClientID = config.GetEnv("MQTT_CLIENT_ID", "SkyvaBridgeMQTTClient")
	if cfg.MQTT.ClientIDSuffix, err = config.GetEnvBool("MQTT_CLIENT_ID_SUFFIX", false); err != nil {
		return cfg, err
	}

	qos, err := config.GetEnvInt("MQTT_QOS", 0)
	if err != nil {
		return cfg, err
	}
	if qos < 0 || qos > 2 {
		return cfg, errors.Errorf("MQTT_QOS must be 0, 1 or 2, got %d", qos)
	}
	cfg.MQTT.QoS = byte(qos)

	if cfg.MQTT.ReconnectInterval, err = config.GetEnvDuration("MQTT_RECONNECT_INTERVAL", 5*time.Second); err != nil {
		return cfg, err
	}
	if cfg.MQTT.OperationTimeout, err = config.GetEnvDuration("MQTT_PUBLISH_TIMEOUT", 5*time.Second); err != nil {
		return cfg, err
	}

	cfg.Topics = bridge.Topics{
		Measurements: config.GetEnv("MQTT_MEASUREMENTS_TOPIC_NAME", "measurements"),
		Logs:         config.GetEnv("MQTT_LOGS_TOPIC_NAME", "logs"),
		Public:       config.GetEnv("MQTT_MEASUREMENTS_PUBLIC_TOPIC_NAME", "measurements/public"),
	}
	if cfg.Topics.Public == cfg.Topics.Measurements {
		return cfg, errors.New("public topic must differ from the measurements topic")
	}

	if cfg.Postgres, err = config.LoadPostgres(); err != nil {
		return cfg, err
	}
	cfg.ValkeyAddr = config.GetEnv("VALKEY_ADDR", "")
	if cfg.StoreTimeout, err = config.GetEnvDuration("STORE_TIMEOUT", repository.DefaultTimeout); err != nil {
		return cfg, err
	}

	cfg.HTTPPort = config.GetEnv("HTTP_PORT", "8080")
	if cfg.LogLevel, err = config.ParseLevel(config.GetEnv("LOG_LEVEL", "info")); err != nil {
		return cfg, err
	}
	cfg.LogMQTTTopic = strings.TrimSpace(config.GetEnv("LOG_MQTT_TOPIC", ""))

	return cfg, nil
}

// LogValue keeps the password out of the startup log.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("broker", c.MQTT.Broker),
		slog.String("client_id", c.MQTT.ClientID),
		slog.String("measurements_topic", c.Topics.Measurements),
		slog.String("logs_topic", c.Topics.Logs),
		slog.String("public_topic", c.Topics.Public),
		slog.String("postgres", c.Postgres.String()),
		slog.String("valkey", c.ValkeyAddr),
		slog.Duration("store_timeout", c.StoreTimeout),
		slog.String("http_port", c.HTTPPort),
	)
}
