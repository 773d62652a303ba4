package mqtt

import (
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/SonJH7/status-allocation-berths/core/logger"
)

// Config defines the connection parameters for the scraper feed subscriber.
type Config struct {
	Enabled  bool   `json:"enabled"`
	Broker   string `json:"broker"`
	ClientID string `json:"client_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	// Topic carries JSON row batches published by the scrape job.
	Topic          string `json:"topic"`
	QoS            byte   `json:"qos"`
	ConnectTimeout int    `json:"connect_timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "berths-ingest"
	}
	if c.Topic == "" {
		c.Topic = "berths/ingest/rows"
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 10
	}
}

// Validate checks mandatory fields when the feed is enabled.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("broker is required")
	}
	return nil
}

// MessageHandler receives one raw payload from the feed.
type MessageHandler func(payload []byte)

// Subscriber delivers raw scraper payloads to a handler.
type Subscriber interface {
	Subscribe(topic string, h MessageHandler) error
	Close() error
}

type pahoClient interface {
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// PahoSubscriber implements Subscriber using Eclipse Paho.
type PahoSubscriber struct {
	cli pahoClient
	qos byte
	log logger.Logger
}

// NewPahoSubscriber connects to the broker.
func NewPahoSubscriber(cfg Config, log logger.Logger) (*PahoSubscriber, error) {
	if log == nil {
		log = logger.Nop{}
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(time.Duration(cfg.ConnectTimeout) * time.Second).
		SetAutoReconnect(true)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}
	cli := newMQTTClient(opts)
	token := cli.Connect()
	if !token.WaitTimeout(time.Duration(cfg.ConnectTimeout) * time.Second) {
		return nil, fmt.Errorf("mqtt connect timeout to %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	return &PahoSubscriber{cli: cli, qos: cfg.QoS, log: log}, nil
}

// Subscribe registers the handler on the topic.
func (s *PahoSubscriber) Subscribe(topic string, h MessageHandler) error {
	token := s.cli.Subscribe(topic, s.qos, func(_ paho.Client, m paho.Message) {
		s.log.Debugf("feed message on %s (%d bytes)", m.Topic(), len(m.Payload()))
		h(m.Payload())
	})
	token.Wait()
	if err := token.Error(); err != nil {
		return fmt.Errorf("subscribe %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker.
func (s *PahoSubscriber) Close() error {
	s.cli.Disconnect(250)
	return nil
}
