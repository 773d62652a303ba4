package mqtt

import "sync"

// MockSubscriber records subscriptions and lets tests inject payloads.
type MockSubscriber struct {
	mu       sync.Mutex
	handlers map[string][]MessageHandler
	closed   bool
}

// NewMockSubscriber creates an empty mock.
func NewMockSubscriber() *MockSubscriber {
	return &MockSubscriber{handlers: make(map[string][]MessageHandler)}
}

// Subscribe implements Subscriber.
func (m *MockSubscriber) Subscribe(topic string, h MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[topic] = append(m.handlers[topic], h)
	return nil
}

// Inject delivers a payload to every handler registered on the topic.
func (m *MockSubscriber) Inject(topic string, payload []byte) {
	m.mu.Lock()
	handlers := append([]MessageHandler(nil), m.handlers[topic]...)
	m.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}

// Closed reports whether Close was called.
func (m *MockSubscriber) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Close implements Subscriber.
func (m *MockSubscriber) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}
