package mqtt

import (
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
)

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t *fakeToken) Error() error { return t.err }

type fakeClient struct {
	connectErr   error
	subscribed   []string
	subQoS       []byte
	callback     paho.MessageHandler
	disconnected bool
}

func (c *fakeClient) Connect() paho.Token { return &fakeToken{err: c.connectErr} }
func (c *fakeClient) Disconnect(uint)     { c.disconnected = true }
func (c *fakeClient) Subscribe(topic string, qos byte, cb paho.MessageHandler) paho.Token {
	c.subscribed = append(c.subscribed, topic)
	c.subQoS = append(c.subQoS, qos)
	c.callback = cb
	return &fakeToken{}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 0 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 0 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

func withFakeClient(t *testing.T, fc *fakeClient) {
	t.Helper()
	orig := newMQTTClient
	newMQTTClient = func(*paho.ClientOptions) pahoClient { return fc }
	t.Cleanup(func() { newMQTTClient = orig })
}

func TestPahoSubscriberDeliversPayload(t *testing.T) {
	fc := &fakeClient{}
	withFakeClient(t, fc)

	cfg := Config{Enabled: true, Broker: "tcp://localhost:1883", QoS: 1}
	cfg.SetDefaults()
	sub, err := NewPahoSubscriber(cfg, nil)
	if err != nil {
		t.Fatalf("new subscriber: %v", err)
	}

	var got []byte
	if err := sub.Subscribe("berths/ingest/rows", func(p []byte) { got = p }); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if len(fc.subscribed) != 1 || fc.subscribed[0] != "berths/ingest/rows" {
		t.Fatalf("subscriptions: %v", fc.subscribed)
	}
	if fc.subQoS[0] != 1 {
		t.Fatalf("qos = %d, want 1", fc.subQoS[0])
	}

	fc.callback(nil, fakeMessage{topic: "berths/ingest/rows", payload: []byte(`{"rows":[]}`)})
	if string(got) != `{"rows":[]}` {
		t.Fatalf("payload = %q", got)
	}

	if err := sub.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !fc.disconnected {
		t.Fatal("close did not disconnect")
	}
}

func TestNewPahoSubscriberConnectError(t *testing.T) {
	fc := &fakeClient{connectErr: paho.ErrNotConnected}
	withFakeClient(t, fc)
	if _, err := NewPahoSubscriber(Config{Broker: "tcp://localhost:1883"}, nil); err == nil {
		t.Fatal("connect error swallowed")
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := Config{Enabled: true}
	if err := cfg.Validate(); err == nil {
		t.Fatal("enabled feed without broker accepted")
	}
	cfg.Broker = "tcp://broker:1883"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	disabled := Config{}
	if err := disabled.Validate(); err != nil {
		t.Fatalf("disabled feed rejected: %v", err)
	}
}

func TestConfigSetDefaults(t *testing.T) {
	cfg := Config{}
	cfg.SetDefaults()
	if cfg.ClientID != "berths-ingest" || cfg.Topic != "berths/ingest/rows" || cfg.ConnectTimeout != 10 {
		t.Fatalf("defaults: %+v", cfg)
	}
}
