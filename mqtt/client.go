// Package mqtt wraps paho.mqtt.golang behind the narrow transport
// surface the bridge drives: connect, subscribe, publish, connected.
// Reconnect policy lives in the bridge's connection supervisor, so
// paho's own retry machinery stays disabled.
package mqtt

import (
	"fmt"
	"strings"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second
	defaultKeepAlive      = 60 * time.Second

	// disconnectQuiesce is how long Close waits for in-flight
	// operations, in milliseconds as paho wants it.
	disconnectQuiesce = 1000
)

// Options configure the broker session. The Will fields set up the
// broker-side last-will so subscribers see the availability topic flip
// on an unclean disconnect.
type Options struct {
	// Broker is the address, with or without a scheme; a bare
	// host:port gets tcp://.
	Broker   string
	ClientID string
	Username string
	Password string

	WillTopic   string
	WillPayload string
	WillQoS     byte
	WillRetain  bool

	KeepAlive      time.Duration
	ConnectTimeout time.Duration
	PublishTimeout time.Duration
}

type Client struct {
	opts Options
	cli  pahomqtt.Client
}

func New(opts Options) *Client {
	if opts.KeepAlive <= 0 {
		opts.KeepAlive = defaultKeepAlive
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = defaultPublishTimeout
	}
	return &Client{
		opts: opts,
		cli:  pahomqtt.NewClient(buildOptions(opts)),
	}
}

func buildOptions(opts Options) *pahomqtt.ClientOptions {
	po := pahomqtt.NewClientOptions()
	po.AddBroker(brokerURL(opts.Broker))
	po.SetClientID(opts.ClientID)
	if opts.Username != "" {
		po.SetUsername(opts.Username)
		po.SetPassword(opts.Password)
	}
	po.SetCleanSession(true)
	po.SetKeepAlive(opts.KeepAlive)
	po.SetConnectTimeout(opts.ConnectTimeout)

	// the connection supervisor owns retries
	po.SetAutoReconnect(false)
	po.SetConnectRetry(false)

	if opts.WillTopic != "" {
		po.SetWill(opts.WillTopic, opts.WillPayload, opts.WillQoS, opts.WillRetain)
	}
	return po
}

func brokerURL(addr string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	return "tcp://" + addr
}

func (c *Client) Connect() error {
	token := c.cli.Connect()
	if !token.WaitTimeout(c.opts.ConnectTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrConnect, c.opts.ConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrConnect, err)
	}
	return nil
}

func (c *Client) Connected() bool {
	return c.cli.IsConnected()
}

// Publish sends one message at QoS 0 and reports whether the transport
// accepted it. Callers treat an error as "retry on a later scan".
func (c *Client) Publish(topic, payload string, retain bool) error {
	if !c.cli.IsConnected() {
		return ErrNotConnected
	}
	token := c.cli.Publish(topic, 0, retain, payload)
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrPublish, c.opts.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}
	return nil
}

func (c *Client) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	token := c.cli.Subscribe(topic, 0, func(_ pahomqtt.Client, msg pahomqtt.Message) {
		handler(msg.Topic(), msg.Payload())
	})
	if !token.WaitTimeout(c.opts.PublishTimeout) {
		return fmt.Errorf("%w: timeout after %v", ErrSubscribe, c.opts.PublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrSubscribe, err)
	}
	return nil
}

// Close publishes nothing on its own; the caller decides whether a
// graceful offline message goes out first.
func (c *Client) Close() {
	c.cli.Disconnect(disconnectQuiesce)
}
