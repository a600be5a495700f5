package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/measurement"
)

// Channel labels used in logs and metrics.
const (
	channelMeasurements = "measurements"
	channelLogs         = "logs"
	channelIgnored      = "ignored"
)

// Topics are the broker topic names the bridge works with.
type Topics struct {
	Measurements string
	Logs         string
	Public       string
}

// Transport is the broker connection as seen by the runtime.
type Transport interface {
	Publisher
	Subscribe(topic string) error
	// IsConnected is the live connection status. Connection events can be
	// delivered out of order, so it is the tie breaker for state changes.
	IsConnected() bool
}

// Sink persists enriched measurements.
type Sink interface {
	SaveMeasurement(ctx context.Context, m measurement.Enriched) error
}

// Runtime is the bridge state machine. Handle is its only entry point and
// is called from a single goroutine (see Run), so messages are processed one
// at a time, in the order they reach the event channel. That is not always
// the order the broker delivered them: paho hands each message to its own
// goroutine. Within one message, publish always happens before persist.
type Runtime struct {
	topics      Topics
	transport   Transport
	sink        Sink
	republisher *Republisher
	logs        *LogHandler
	metrics     *Metrics
	logger      *slog.Logger
	now         func() time.Time

	mu    sync.RWMutex
	state State
}

// RuntimeOption configures a Runtime.
type RuntimeOption func(*Runtime)

// WithMetrics records pipeline outcomes in m.
func WithMetrics(m *Metrics) RuntimeOption {
	return func(r *Runtime) { r.metrics = m }
}

// WithClock replaces time.Now as the source of ingestion timestamps.
func WithClock(now func() time.Time) RuntimeOption {
	return func(r *Runtime) { r.now = now }
}

func NewRuntime(topics Topics, transport Transport, sink Sink, logger *slog.Logger, opts ...RuntimeOption) *Runtime {
	r := &Runtime{
		topics:    topics,
		transport: transport,
		sink:      sink,
		logger:    logger,
		now:       time.Now,
		state:     StateDisconnected,
	}
	for _, opt := range opts {
		opt(r)
	}

	r.republisher = NewRepublisher(transport, topics.Public, logger, r.metrics)
	r.logs = NewLogHandler(logger, r.metrics)

	return r
}

// State returns the current connection state. Safe for concurrent use.
func (r *Runtime) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Runtime) setState(s State) {
	r.mu.Lock()
	r.state = s
	r.mu.Unlock()
	r.metrics.setState(s)
}

// Run handles events until ctx is cancelled or events is closed. A message
// that is already being handled runs to completion.
func (r *Runtime) Run(ctx context.Context, events <-chan Event) error {
	// Handlers keep running through shutdown so an insert is not cut in half.
	handleCtx := context.WithoutCancel(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			r.Handle(handleCtx, ev)
		}
	}
}

// Handle applies one event. Nothing in here is fatal: bad messages and
// failing sinks are logged and the next event is processed normally.
func (r *Runtime) Handle(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case Connecting:
		if r.stale(ev, true) {
			return
		}
		r.setState(StateConnecting)
		r.logger.Info("Connecting to MQTT broker")

	case Connected:
		if r.stale(ev, false) {
			return
		}
		r.setState(StateConnected)
		r.logger.Info("Connected to MQTT server")
		r.subscribe()

	case ConnectionLost:
		if r.stale(ev, true) {
			return
		}
		r.setState(StateDisconnected)
		r.logger.Warn("Lost connection to MQTT server", "error", e.Err)

	case MessageReceived:
		r.dispatch(ctx, e)

	case LogLine:
		r.logger.Log(ctx, e.Level, e.Message, "component", "mqtt")
	}
}

// stale reports whether a connection event has been overtaken by a later
// change: a drop or reconnect notice while the link is open, or a connect
// notice after the link went down again. The event that reflects the current
// link is still queued or already applied.
func (r *Runtime) stale(ev Event, whenConnected bool) bool {
	if r.transport.IsConnected() != whenConnected {
		return false
	}
	r.logger.Debug("Ignoring outdated MQTT connection event", "event", fmt.Sprintf("%T", ev), "state", r.State())
	return true
}

func (r *Runtime) subscribe() {
	for _, topic := range []string{r.topics.Measurements, r.topics.Logs} {
		// The transport logs the failure; the next reconnect subscribes again.
		if err := r.transport.Subscribe(topic); err != nil {
			continue
		}
		r.logger.Info("Subscribed to topic", "topic", topic)
	}
}

func (r *Runtime) dispatch(ctx context.Context, msg MessageReceived) {
	switch msg.Topic {
	case r.topics.Measurements:
		r.metrics.messageReceived(channelMeasurements)
		r.logger.Debug("MQTT message received", "topic", msg.Topic, "size", len(msg.Payload))
		r.handleMeasurement(ctx, msg)

	case r.topics.Logs:
		r.metrics.messageReceived(channelLogs)
		r.logs.Handle(msg.Topic, msg.Payload)

	default:
		r.metrics.messageReceived(channelIgnored)
		r.logger.Log(ctx, config.LevelTrace, "Ignoring MQTT message", "topic", msg.Topic)
	}
}

// handleMeasurement runs decode, enrich, publish and persist. Publish and
// persist are independent: a failure of one neither prevents nor undoes the
// other.
func (r *Runtime) handleMeasurement(ctx context.Context, msg MessageReceived) {
	// 1. Decode. Anything that is not a complete measurement is dropped here.
	raw, err := measurement.Decode(msg.Payload)
	if err != nil {
		r.metrics.messageRejected(channelMeasurements, err)
		r.logger.Error("Ignoring MQTT message with malformed measurement data",
			"topic", msg.Topic,
			"reason", measurement.Reason(err),
			"error", err,
		)
		return
	}

	// 2. Stamp ingestion time and score
	enriched := measurement.Enrich(raw, r.now())
	r.metrics.observeAQI(enriched.AQI)

	// 3. Republish for live consumers. Failures are counted and logged inside.
	r.republisher.Publish(enriched)

	// 4. Persist. The sink logs its own failures.
	err = r.sink.SaveMeasurement(ctx, enriched)
	r.metrics.persistResult(err)

	r.logger.Info("Finished processing measurement data",
		"aqi", enriched.AQI,
		"aqi_classification", enriched.AQIClassification,
		"persisted", err == nil,
	)
}
