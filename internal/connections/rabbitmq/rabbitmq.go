// Package rabbitmq is the broker.Client transport for RabbitMQ. It publishes
// to a topic exchange (amq.topic by default, the exchange the RabbitMQ MQTT
// plugin uses) so AMQP and MQTT agents can share one broker.
//
// The transport does not reconnect. Once the connection closes, IsConnected
// reports false, publishes fail with broker.ErrNotConnected and consumers
// stop; the agent has to be restarted.
package rabbitmq

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/connections/broker"
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	VHost    string // default "/"
	UseTLS   bool
	Exchange string // default "amq.topic"
	Prefetch int
	ClientID string
}

type Client struct {
	conn     *amqp.Connection
	ch       *amqp.Channel // publish channel, confirm mode
	exchange string
	prefetch int
	log      *logger.Logger

	id       string
}

func Dial(cfg Config, lg *logger.Logger) (*Client, error) {
	if cfg.VHost == "" {
		cfg.VHost = "/"
	}
	if cfg.Exchange == "" {
		cfg.Exchange = "amq.topic"
	}
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 10
	}
	scheme := "amqp"
	if cfg.UseTLS {
		scheme = "amqps"
	}
	vhost := strings.TrimPrefix(cfg.VHost, "/")
	url := fmt.Sprintf("%s://%s:%s@%s:%d/%s",
		scheme, cfg.User, cfg.Password, cfg.Host, cfg.Port, vhost)

	props := amqp.NewConnectionProperties()
	if cfg.ClientID != "" {
		props.SetClientConnectionName(cfg.ClientID)
	}
	amqpCfg := amqp.Config{Properties: props, Heartbeat: 10 * time.Second}
	if cfg.UseTLS {
		amqpCfg.TLSClientConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	conn, err := amqp.DialConfig(url, amqpCfg)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	// amq.* exchanges are predeclared and may not be redeclared.
	if !strings.HasPrefix(cfg.Exchange, "amq.") {
		if err := ch.ExchangeDeclare(cfg.Exchange, "topic", true, false, false, false, nil); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("declare %s: %w", cfg.Exchange, err)
		}
	}
	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	c := &Client{conn: conn, ch: ch, exchange: cfg.Exchange, prefetch: cfg.Prefetch, log: lg, id: cfg.ClientID}
	closeCh := conn.NotifyClose(make(chan *amqp.Error, 1))
	go func() {
		if e := <-closeCh; e != nil {
			lg.Error("amqp_connection_closed", e, map[string]any{"code": e.Code, "reason": e.Reason})
		}
	}()
	return c, nil
}

func (c *Client) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *Client) ID() string { return c.id }

func (c *Client) IsConnected() bool { return c.conn != nil && !c.conn.IsClosed() }

// Publish sends body and waits for the broker's ack/nack of this very
// message. QoS 1 messages are persistent.
func (c *Client) Publish(ctx context.Context, topic string, qos byte, body []byte) error {
	if !c.IsConnected() {
		return broker.ErrNotConnected
	}

	mode := amqp.Transient
	if qos > 0 {
		mode = amqp.Persistent
	}
	dc, err := c.ch.PublishWithDeferredConfirmWithContext(
		ctx,
		c.exchange,
		RoutingKey(topic),
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: mode,
			ContentType:  "application/json",
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return err
	}
	if dc == nil {
		return errors.New("publish channel is not in confirm mode")
	}
	return awaitConfirm(ctx, dc)
}

type confirmation interface {
	WaitContext(ctx context.Context) (bool, error)
}

// awaitConfirm waits for the confirmation tied to one delivery tag, so a
// confirm that arrives after its publisher gave up is never read by the next
// publish.
func awaitConfirm(ctx context.Context, dc confirmation) error {
	ack, err := dc.WaitContext(ctx)
	if err != nil {
		return err
	}
	if !ack {
		return errors.New("publish NACK from broker")
	}
	return nil
}

// Subscribe binds an exclusive, auto-deleted queue to the exchange and
// consumes it on its own channel. QoS 0 uses auto-ack; QoS 1 acks after the
// handler returns.
func (c *Client) Subscribe(_ context.Context, filter string, qos byte, h broker.Handler) error {
	if !c.IsConnected() {
		return broker.ErrNotConnected
	}
	ch, err := c.conn.Channel()
	if err != nil {
		return err
	}
	q, err := ch.QueueDeclare("", false, true, true, false, nil)
	if err != nil {
		_ = ch.Close()
		return fmt.Errorf("queue declare: %w", err)
	}
	key := RoutingKey(filter)
	if err := ch.QueueBind(q.Name, key, c.exchange, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("queue bind %s -> %s: %w", key, c.exchange, err)
	}
	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		_ = ch.Close()
		return err
	}
	autoAck := qos == 0
	msgs, err := ch.Consume(q.Name, "", autoAck, true, false, false, nil)
	if err != nil {
		_ = ch.Close()
		return err
	}

	go func() {
		for d := range msgs {
			h(context.Background(), broker.Message{Topic: TopicFromKey(d.RoutingKey), Payload: d.Body})
			if !autoAck {
				_ = d.Ack(false)
			}
		}
		c.log.Warn("amqp_consumer_stopped", map[string]any{"filter": filter, "queue": q.Name})
	}()
	return nil
}

// RoutingKey translates an MQTT topic or filter into an AMQP topic key the
// way the RabbitMQ MQTT plugin does.
func RoutingKey(topic string) string {
	parts := strings.Split(topic, "/")
	for i, p := range parts {
		switch p {
		case "+":
			parts[i] = "*"
		default:
			parts[i] = strings.ReplaceAll(p, ".", "/")
		}
	}
	return strings.Join(parts, ".")
}

func TopicFromKey(key string) string {
	parts := strings.Split(key, ".")
	for i, p := range parts {
		parts[i] = strings.ReplaceAll(p, "/", ".")
	}
	return strings.Join(parts, "/")
}

var _ broker.Client = (*Client)(nil)
