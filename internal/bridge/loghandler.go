package bridge

import (
	"log/slog"

	"github.com/m4reQ/skyva/internal/measurement"
)

// LogHandler forwards device log lines to the process log. Nothing is stored.
type LogHandler struct {
	logger  *slog.Logger
	metrics *Metrics
}

func NewLogHandler(logger *slog.Logger, metrics *Metrics) *LogHandler {
	return &LogHandler{logger: logger, metrics: metrics}
}

func (h *LogHandler) Handle(topic string, payload []byte) {
	entry, err := measurement.DecodeLogEntry(payload)
	if err != nil {
		h.metrics.messageRejected(channelLogs, err)
		h.logger.Error("Received device message but the payload was malformed",
			"topic", topic,
			"reason", measurement.Reason(err),
			"error", err,
		)
		return
	}

	h.logger.Info("Sensor message",
		"device_timestamp", entry.DeviceTimestamp,
		"message", entry.Message,
	)
}
