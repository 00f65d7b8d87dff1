package mqtt

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	coremqtt "github.com/kilianp07/oncall/core/mqtt"
	"github.com/kilianp07/oncall/infra/logger"
)

// Config defines the connection parameters for the Paho MQTT client.
type Config struct {
	Broker     string `json:"broker"`
	ClientID   string `json:"client_id"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	ClientCert string `json:"client_cert"`
	ClientKey  string `json:"client_key"`
	CABundle   string `json:"ca_bundle"`
	AuthMethod string `json:"auth_method"`
	// QoS per purpose: "request" for subscriptions, "result" for publishes.
	QoS map[string]byte `json:"qos"`
	// RequestTopic is subscribed to; the last level is the request ID.
	RequestTopic string `json:"request_topic"`
	// ResultTopic prefixes result topics: <ResultTopic>/<request id>.
	ResultTopic string      `json:"result_topic"`
	LWTTopic    string      `json:"lwt_topic"`
	LWTPayload  string      `json:"lwt_payload"`
	LWTQoS      byte        `json:"lwt_qos"`
	LWTRetain   bool        `json:"lwt_retain"`
	MaxRetries  int         `json:"max_retries"`
	BackoffMS   int         `json:"backoff_ms"`
	TLSConfig   *tls.Config `json:"-"`
}

// Enabled reports whether a broker is configured.
func (c Config) Enabled() bool { return c.Broker != "" }

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "oncall"
	}
	if c.RequestTopic == "" {
		c.RequestTopic = "oncall/requests/+"
	}
	if c.ResultTopic == "" {
		c.ResultTopic = "oncall/results"
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.BackoffMS <= 0 {
		c.BackoffMS = 100
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("mqtt: broker is required")
	}
	switch c.AuthMethod {
	case "", "username_password", "certificate", "both":
	default:
		return fmt.Errorf("mqtt: unknown auth_method %q", c.AuthMethod)
	}
	return nil
}

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

// PahoClient implements core mqtt.Client using Eclipse Paho.
type PahoClient struct {
	cli    pahoClient
	qos    map[string]byte
	logger logger.Logger

	mu   sync.Mutex
	subs map[string]coremqtt.Handler

	maxRetries int
	backoff    time.Duration
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

// NewPahoClient connects to the MQTT broker. Subscriptions registered later
// are restored on every reconnect.
func NewPahoClient(cfg Config) (*PahoClient, error) {
	cfg.SetDefaults()
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}

	log := logger.New("mqtt_client")
	pc := &PahoClient{
		qos:        cfg.QoS,
		logger:     log,
		subs:       make(map[string]coremqtt.Handler),
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
	}

	opts.OnConnect = func(c paho.Client) {
		log.Infof("MQTT connected")
		pc.mu.Lock()
		defer pc.mu.Unlock()
		for topic, h := range pc.subs {
			if token := c.Subscribe(topic, pc.qosFor("request"), wrap(h)); token.Wait() && token.Error() != nil {
				log.Errorf("resubscribe %s: %v", topic, token.Error())
			}
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(_ paho.Client, _ *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, token.Error()
	}
	pc.cli = c
	return pc, nil
}

// NewClientOptions builds mqtt client options from Config.
func NewClientOptions(cfg Config) (*paho.ClientOptions, error) {
	opts := paho.NewClientOptions().AddBroker(cfg.Broker).SetClientID(cfg.ClientID)
	opts.AutoReconnect = true
	if cfg.AuthMethod == "username_password" || cfg.AuthMethod == "both" || cfg.AuthMethod == "" {
		if cfg.Username != "" {
			opts.SetUsername(cfg.Username)
		}
		if cfg.Password != "" {
			opts.SetPassword(cfg.Password)
		}
	}
	if cfg.UseTLS {
		tlsCfg, err := cfg.LoadTLSConfig()
		if err != nil {
			return nil, err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	if cfg.LWTTopic != "" {
		opts.SetWill(cfg.LWTTopic, cfg.LWTPayload, cfg.LWTQoS, cfg.LWTRetain)
	}
	return opts, nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.TLSConfig != nil {
		return c.TLSConfig, nil
	}
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}

func (p *PahoClient) qosFor(purpose string) byte {
	if q, ok := p.qos[purpose]; ok {
		return q
	}
	return 0
}

func wrap(h coremqtt.Handler) paho.MessageHandler {
	return func(_ paho.Client, msg paho.Message) {
		h(msg.Topic(), msg.Payload())
	}
}

// Subscribe registers h for topic and subscribes immediately when connected.
func (p *PahoClient) Subscribe(topic string, h coremqtt.Handler) error {
	p.mu.Lock()
	p.subs[topic] = h
	p.mu.Unlock()
	if p.cli == nil || !p.cli.IsConnected() {
		return nil
	}
	token := p.cli.Subscribe(topic, p.qosFor("request"), wrap(h))
	token.Wait()
	return token.Error()
}

// Publish sends payload with retries and exponential backoff.
func (p *PahoClient) Publish(ctx context.Context, topic string, payload []byte) error {
	if p.cli == nil {
		return coremqtt.ErrNotConnected
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(topic, p.qosFor("result"), false, payload)
		token.Wait()
		if publishErr = token.Error(); publishErr == nil {
			p.logger.Debugf("published %d bytes to %s", len(payload), topic)
			return nil
		}
		p.logger.Errorf("publish attempt %d to %s failed: %v", attempt+1, topic, publishErr)
		if attempt == p.maxRetries {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("publish %s: %w", topic, ctx.Err())
		case <-time.After(p.backoff * time.Duration(1<<attempt)):
		}
	}
	return fmt.Errorf("publish %s: %w", topic, publishErr)
}

// Disconnect gracefully closes the MQTT connection.
func (p *PahoClient) Disconnect() {
	if p.cli != nil && p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
}
