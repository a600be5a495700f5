package bridge

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/m4reQ/skyva/internal/measurement"
)

const namespace = "skyva_bridge"

// Metrics counts what happens to inbound messages. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	received        *prometheus.CounterVec
	rejected        *prometheus.CounterVec
	published       prometheus.Counter
	publishFailures prometheus.Counter
	persisted       prometheus.Counter
	persistFailures prometheus.Counter
	lastAQI         prometheus.Gauge
	connected       prometheus.Gauge
}

// NewMetrics creates the bridge collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_received_total",
			Help:      "Inbound MQTT messages by channel (measurements, logs, ignored).",
		}, []string{"channel"}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rejected_total",
			Help:      "Inbound MQTT messages dropped at decoding, by channel and reason.",
		}, []string{"channel", "reason"}),
		published: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_published_total",
			Help:      "Enriched measurements republished on the public topic.",
		}),
		publishFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurement_publish_failures_total",
			Help:      "Enriched measurements that could not be republished.",
		}),
		persisted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurements_persisted_total",
			Help:      "Enriched measurements inserted into the store.",
		}),
		persistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "measurement_persist_failures_total",
			Help:      "Enriched measurements dropped because the insert failed.",
		}),
		lastAQI: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_aqi_score",
			Help:      "Composite AQI score of the last enriched measurement.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "broker_connected",
			Help:      "1 while the bridge is connected to the broker.",
		}),
	}

	reg.MustRegister(
		m.received,
		m.rejected,
		m.published,
		m.publishFailures,
		m.persisted,
		m.persistFailures,
		m.lastAQI,
		m.connected,
	)

	return m
}

func (m *Metrics) messageReceived(channel string) {
	if m == nil {
		return
	}
	m.received.WithLabelValues(channel).Inc()
}

func (m *Metrics) messageRejected(channel string, err error) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(channel, measurement.Reason(err)).Inc()
}

func (m *Metrics) publishResult(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.publishFailures.Inc()
		return
	}
	m.published.Inc()
}

func (m *Metrics) persistResult(err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.persistFailures.Inc()
		return
	}
	m.persisted.Inc()
}

func (m *Metrics) observeAQI(score float64) {
	if m == nil {
		return
	}
	m.lastAQI.Set(score)
}

func (m *Metrics) setState(s State) {
	if m == nil {
		return
	}
	if s == StateConnected {
		m.connected.Set(1)
		return
	}
	m.connected.Set(0)
}
