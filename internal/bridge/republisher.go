package bridge

import (
	"encoding/json"
	"log/slog"

	"github.com/m4reQ/skyva/internal/measurement"
)

// Publisher sends a payload to a broker topic.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Republisher forwards enriched measurements to the public topic for
// downstream subscribers. Delivery is fire-and-forget.
type Republisher struct {
	publisher Publisher
	topic     string
	logger    *slog.Logger
	metrics   *Metrics
}

func NewRepublisher(publisher Publisher, topic string, logger *slog.Logger, metrics *Metrics) *Republisher {
	return &Republisher{
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		metrics:   metrics,
	}
}

// Publish serialises m (RFC 3339 timestamp) and hands it to the broker.
// Failures are already logged by the transport and are not retried.
func (p *Republisher) Publish(m measurement.Enriched) {
	payload, err := json.Marshal(m)
	if err != nil {
		p.logger.Error("Failed to encode measurement data", "error", err)
		p.metrics.publishResult(err)
		return
	}

	err = p.publisher.Publish(p.topic, payload)
	p.metrics.publishResult(err)
	if err == nil {
		p.logger.Debug("Published measurement data", "topic", p.topic)
	}
}
