// Package mqtt is the broker.Client transport for MQTT 3.1.1 brokers,
// including WebSocket endpoints (ws://, wss://).
package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/connections/broker"
)

type Config struct {
	URL               string
	ClientPrefix      string
	Username          string
	Password          string
	ReconnectInterval time.Duration
	ConnectTimeout    time.Duration
}

type Client struct {
	cli paho.Client
	id  string
	log *logger.Logger

	mu   sync.Mutex
	subs map[string]subscription
}

type subscription struct {
	qos byte
	h   broker.Handler
}

// Dial starts connecting and waits up to cfg.ConnectTimeout for the first
// session. If the broker is not reachable yet the client keeps retrying in
// the background and Dial still returns it; IsConnected reports the state.
func Dial(ctx context.Context, cfg Config, lg *logger.Logger) (*Client, error) {
	if cfg.ReconnectInterval <= 0 {
		cfg.ReconnectInterval = time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	c := &Client{
		id:   broker.ClientID(cfg.ClientPrefix),
		log:  lg,
		subs: make(map[string]subscription),
	}

	opts := paho.NewClientOptions().
		AddBroker(cfg.URL).
		SetClientID(c.id).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(cfg.ReconnectInterval).
		SetMaxReconnectInterval(cfg.ReconnectInterval).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetOrderMatters(true).
		SetOnConnectHandler(c.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			lg.Error("mqtt_connection_lost", err, map[string]any{"client_id": c.id})
		}).
		SetReconnectingHandler(func(paho.Client, *paho.ClientOptions) {
			lg.Warn("mqtt_reconnecting", map[string]any{"client_id": c.id})
		})
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	c.cli = paho.NewClient(opts)

	tok := c.cli.Connect()
	wctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()
	if err := wait(wctx, tok); err != nil {
		if ctx.Err() != nil {
			c.cli.Disconnect(0)
			return nil, fmt.Errorf("mqtt connect %s: %w", cfg.URL, ctx.Err())
		}
		lg.Warn("mqtt_connect_pending", map[string]any{"client_id": c.id, "broker": cfg.URL, "reason": err.Error()})
	}
	return c, nil
}

func (c *Client) ID() string { return c.id }

// onConnect re-issues every subscription; sessions are clean, so the broker
// forgets them on each reconnect.
func (c *Client) onConnect(cli paho.Client) {
	c.log.Info("mqtt_connected", map[string]any{"client_id": c.id})
	c.mu.Lock()
	subs := make(map[string]subscription, len(c.subs))
	for f, s := range c.subs {
		subs[f] = s
	}
	c.mu.Unlock()

	for filter, s := range subs {
		tok := cli.Subscribe(filter, s.qos, c.callback(s.h))
		if tok.Wait() && tok.Error() != nil {
			c.log.Error("mqtt_subscribe_failed", tok.Error(), map[string]any{"filter": filter})
			continue
		}
		c.log.Info("mqtt_subscribed", map[string]any{"filter": filter, "qos": s.qos})
	}
}

func (c *Client) callback(h broker.Handler) paho.MessageHandler {
	return func(_ paho.Client, m paho.Message) {
		h(context.Background(), broker.Message{Topic: m.Topic(), Payload: m.Payload()})
	}
}

func (c *Client) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	if !c.IsConnected() {
		return broker.ErrNotConnected
	}
	return wait(ctx, c.cli.Publish(topic, qos, false, payload))
}

func (c *Client) Subscribe(ctx context.Context, filter string, qos byte, h broker.Handler) error {
	c.mu.Lock()
	c.subs[filter] = subscription{qos: qos, h: h}
	c.mu.Unlock()

	if !c.IsConnected() {
		return nil // issued by onConnect
	}
	return wait(ctx, c.cli.Subscribe(filter, qos, c.callback(h)))
}

func (c *Client) IsConnected() bool { return c.cli.IsConnectionOpen() }

func (c *Client) Close() { c.cli.Disconnect(250) }

func wait(ctx context.Context, tok paho.Token) error {
	select {
	case <-tok.Done():
		return tok.Error()
	case <-ctx.Done():
		return ctx.Err()
	}
}

var _ broker.Client = (*Client)(nil)
