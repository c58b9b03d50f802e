// Package memory is an in-process broker used by the single-process mode and
// by tests. Delivery is synchronous: Publish returns after every matching
// subscriber's handler has run.
package memory

import (
	"context"
	"sync"

	"restaurant-pubsub/internal/connections/broker"
)

type Broker struct {
	mu   sync.RWMutex
	subs []*subscription
}

type subscription struct {
	client *Client
	filter string
	h      broker.Handler
}

func New() *Broker { return &Broker{} }

// Connect returns a connected client.
func (b *Broker) Connect(clientID string) *Client {
	return &Client{id: clientID, b: b, connected: true}
}

func (b *Broker) deliver(ctx context.Context, topic string, payload []byte) {
	b.mu.RLock()
	var targets []*subscription
	for _, s := range b.subs {
		if broker.Match(s.filter, topic) {
			targets = append(targets, s)
		}
	}
	b.mu.RUnlock()

	for _, s := range targets {
		if !s.client.IsConnected() {
			continue // clean sessions: offline clients miss messages
		}
		body := make([]byte, len(payload))
		copy(body, payload)
		s.client.dispatch(ctx, s.h, broker.Message{Topic: topic, Payload: body})
	}
}

func (b *Broker) drop(c *Client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	kept := b.subs[:0]
	for _, s := range b.subs {
		if s.client != c {
			kept = append(kept, s)
		}
	}
	b.subs = kept
}

type Client struct {
	id string
	b  *Broker

	mu         sync.Mutex
	connected  bool
	publishErr error
	published  []broker.Message

	handlerMu sync.Mutex // one inbound handler at a time per client
}

func (c *Client) ID() string { return c.id }

func (c *Client) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	c.mu.Lock()
	if !c.connected {
		c.mu.Unlock()
		return broker.ErrNotConnected
	}
	if err := c.publishErr; err != nil {
		c.mu.Unlock()
		return err
	}
	if err := ctx.Err(); err != nil {
		c.mu.Unlock()
		return err
	}
	body := make([]byte, len(payload))
	copy(body, payload)
	c.published = append(c.published, broker.Message{Topic: topic, Payload: body})
	c.mu.Unlock()

	c.b.deliver(ctx, topic, payload)
	return nil
}

func (c *Client) Subscribe(_ context.Context, filter string, _ byte, h broker.Handler) error {
	if !c.IsConnected() {
		return broker.ErrNotConnected
	}
	c.b.mu.Lock()
	c.b.subs = append(c.b.subs, &subscription{client: c, filter: filter, h: h})
	c.b.mu.Unlock()
	return nil
}

func (c *Client) dispatch(ctx context.Context, h broker.Handler, msg broker.Message) {
	c.handlerMu.Lock()
	defer c.handlerMu.Unlock()
	h(ctx, msg)
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// SetConnected simulates a connection drop or recovery. Subscriptions are
// kept, matching a client library that re-subscribes on reconnect.
func (c *Client) SetConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

// FailPublishes makes every Publish return err until called with nil.
func (c *Client) FailPublishes(err error) {
	c.mu.Lock()
	c.publishErr = err
	c.mu.Unlock()
}

// Published returns what this client has successfully published.
func (c *Client) Published() []broker.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]broker.Message, len(c.published))
	copy(out, c.published)
	return out
}

func (c *Client) Close() {
	c.SetConnected(false)
	c.b.drop(c)
}

var _ broker.Client = (*Client)(nil)
