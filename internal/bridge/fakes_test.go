package bridge

import (
	"bytes"
	"context"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/m4reQ/skyva/internal/config"
	"github.com/m4reQ/skyva/internal/measurement"
)

type published struct {
	topic   string
	payload []byte
}

type fakeTransport struct {
	mu            sync.Mutex
	published     []published
	subscribed    []string
	publishErr    error
	subscribeErrs map[string]error
	connected     bool
}

func (t *fakeTransport) IsConnected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.connected
}

func (t *fakeTransport) setConnected(c bool) {
	t.mu.Lock()
	t.connected = c
	t.mu.Unlock()
}

func (t *fakeTransport) Publish(topic string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.published = append(t.published, published{topic: topic, payload: payload})
	return t.publishErr
}

func (t *fakeTransport) PublishAsync(topic string, payload []byte) {
	_ = t.Publish(topic, payload)
}

func (t *fakeTransport) Subscribe(topic string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribed = append(t.subscribed, topic)
	return t.subscribeErrs[topic]
}

func (t *fakeTransport) publishes() []published {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]published(nil), t.published...)
}

type mockSink struct {
	mock.Mock
}

func (s *mockSink) SaveMeasurement(ctx context.Context, m measurement.Enriched) error {
	return s.Called(ctx, m).Error(0)
}

func newTestLogger() (*slog.Logger, *bytes.Buffer) {
	var buf bytes.Buffer
	return config.NewLogger(&buf, config.LevelTrace), &buf
}
