package bridge

// AsyncPublisher publishes without waiting for the broker.
type AsyncPublisher interface {
	PublishAsync(topic string, payload []byte)
}

// AsyncPublishFunc adapts a function to AsyncPublisher. It lets the log
// writer exist before the transport that will carry its lines.
type AsyncPublishFunc func(topic string, payload []byte)

func (f AsyncPublishFunc) PublishAsync(topic string, payload []byte) {
	f(topic, payload)
}

// MQTTLogWriter is an io.Writer that ships every log line it receives to an
// MQTT topic. Combine it with os.Stdout through io.MultiWriter.
type MQTTLogWriter struct {
	publisher AsyncPublisher
	topic     string
}

func NewMQTTLogWriter(publisher AsyncPublisher, topic string) *MQTTLogWriter {
	return &MQTTLogWriter{publisher: publisher, topic: topic}
}

// Write never blocks on the broker and never fails, so logging keeps working
// while the connection is down.
func (w *MQTTLogWriter) Write(p []byte) (int, error) {
	// slog reuses p after Write returns.
	payload := make([]byte, len(p))
	copy(payload, p)

	w.publisher.PublishAsync(w.topic, payload)

	return len(p), nil
}
