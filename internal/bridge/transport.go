package bridge

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker            string // tcp://host:port
	ClientID          string
	ClientIDSuffix    bool // append a random suffix so replicas do not kick each other off
	QoS               byte
	ReconnectInterval time.Duration
	OperationTimeout  time.Duration // bounds publish and subscribe
	EventBuffer       int
}

func (o MQTTOptions) withDefaults() MQTTOptions {
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = 5 * time.Second
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = 5 * time.Second
	}
	if o.EventBuffer <= 0 {
		o.EventBuffer = 64
	}
	return o
}

// MQTTTransport owns the paho client. Paho callbacks only enqueue events;
// all decisions are taken by the Runtime reading Events().
type MQTTTransport struct {
	client mqtt.Client
	opts   MQTTOptions
	events chan Event
	logger *slog.Logger
}

// NewMQTTTransport prepares the client. Nothing is dialled until Connect.
func NewMQTTTransport(opts MQTTOptions, logger *slog.Logger) *MQTTTransport {
	opts = opts.withDefaults()
	t := &MQTTTransport{
		opts:   opts,
		events: make(chan Event, opts.EventBuffer),
		logger: logger,
	}

	clientID := opts.ClientID
	if opts.ClientIDSuffix {
		clientID += "-" + uuid.New().String()[:8]
	}

	t.client = mqtt.NewClient(t.clientOptions(clientID))
	return t
}

// clientOptions builds the paho options. Every callback only enqueues an
// event for the runtime.
func (t *MQTTTransport) clientOptions(clientID string) *mqtt.ClientOptions {
	return mqtt.NewClientOptions().
		AddBroker(t.opts.Broker).
		SetClientID(clientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(t.opts.ReconnectInterval).
		SetMaxReconnectInterval(time.Minute).
		SetKeepAlive(30 * time.Second).
		SetWriteTimeout(t.opts.OperationTimeout).
		// Handlers run in their own goroutines so a full event buffer never
		// stalls acknowledgement processing inside paho. The price is that
		// events may reach the channel in a different order than paho saw them.
		SetOrderMatters(false).
		SetOnConnectHandler(func(mqtt.Client) {
			t.events <- Connected{}
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			t.events <- ConnectionLost{Err: err}
		}).
		SetReconnectingHandler(func(mqtt.Client, *mqtt.ClientOptions) {
			t.events <- Connecting{}
		}).
		SetDefaultPublishHandler(func(_ mqtt.Client, msg mqtt.Message) {
			t.events <- MessageReceived{Topic: msg.Topic(), Payload: msg.Payload()}
		})
}

// Events is the stream consumed by Runtime.Run.
func (t *MQTTTransport) Events() <-chan Event {
	return t.events
}

// Connect starts connecting in the background. The first connection is
// retried forever, like every later reconnect.
func (t *MQTTTransport) Connect() {
	t.events <- Connecting{}
	token := t.client.Connect()

	go func() {
		token.Wait()
		if err := token.Error(); err != nil {
			t.logger.Error("MQTT connect gave up", "broker", t.opts.Broker, "error", err)
		}
	}()
	t.logger.Info("Created MQTT client", "broker", t.opts.Broker)
}

// IsConnected reports whether the broker connection is open right now.
// Callback events can arrive late; the runtime checks this before trusting them.
func (t *MQTTTransport) IsConnected() bool {
	return t.client.IsConnectionOpen()
}

// Disconnect waits up to quiesce milliseconds for in-flight work.
func (t *MQTTTransport) Disconnect(quiesce uint) {
	t.client.Disconnect(quiesce)
}

// Subscribe subscribes with the default handler, so matching messages end up
// in Events().
func (t *MQTTTransport) Subscribe(topic string) error {
	token := t.client.Subscribe(topic, t.opts.QoS, nil)
	return t.wait(token, "subscribe", topic)
}

// Publish sends payload and waits for the client to accept it. Failures are
// logged here and returned as *TransportError.
func (t *MQTTTransport) Publish(topic string, payload []byte) error {
	token := t.client.Publish(topic, t.opts.QoS, false, payload)
	return t.wait(token, "publish", topic)
}

// PublishAsync publishes without waiting or logging. Used by the log writer,
// where logging a failure would recurse.
func (t *MQTTTransport) PublishAsync(topic string, payload []byte) {
	t.client.Publish(topic, 0, false, payload)
}

func (t *MQTTTransport) wait(token mqtt.Token, op, topic string) error {
	var err error
	if !token.WaitTimeout(t.opts.OperationTimeout) {
		err = &TransportError{Op: op, Topic: topic, Err: errors.Errorf("timed out after %s", t.opts.OperationTimeout)}
	} else if token.Error() != nil {
		err = &TransportError{Op: op, Topic: topic, Err: token.Error()}
	}

	if err != nil {
		t.logger.Error("MQTT operation failed", "op", op, "topic", topic, "error", err)
	}
	return err
}

// pahoLogger routes paho's internal log lines into the runtime as LogLine events.
type pahoLogger struct {
	level  slog.Level
	handle func(LogLine)
}

func (l pahoLogger) Println(v ...interface{}) {
	l.handle(LogLine{Level: l.level, Message: strings.TrimSpace(fmt.Sprintln(v...))})
}

func (l pahoLogger) Printf(format string, v ...interface{}) {
	l.handle(LogLine{Level: l.level, Message: fmt.Sprintf(format, v...)})
}

// RoutePahoLogs installs handle as the sink of paho's package-level loggers.
// LogLine handling is stateless, so handle may be called from any goroutine.
// Debug lines must stay off while logs are shipped over MQTT: every shipped
// line would produce new paho debug output.
func RoutePahoLogs(handle func(LogLine), debug bool) {
	mqtt.CRITICAL = pahoLogger{level: slog.LevelError, handle: handle}
	mqtt.ERROR = pahoLogger{level: slog.LevelError, handle: handle}
	mqtt.WARN = pahoLogger{level: slog.LevelWarn, handle: handle}
	if debug {
		mqtt.DEBUG = pahoLogger{level: slog.LevelDebug, handle: handle}
	}
}
