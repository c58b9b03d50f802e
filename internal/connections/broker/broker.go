// Package broker defines the publish/subscribe contract the agents are
// written against. Concrete transports live in sibling packages.
package broker

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
)

var ErrNotConnected = errors.New("broker not connected")

// Message is one delivery on a concrete topic.
type Message struct {
	Topic   string
	Payload []byte
}

// Handler consumes deliveries. Transports call a client's handlers one at a
// time per subscription and never retry a handler.
type Handler func(ctx context.Context, msg Message)

type Client interface {
	// Publish blocks until the broker acknowledges the message (QoS 1) or
	// the transport has written it (QoS 0), or ctx expires.
	Publish(ctx context.Context, topic string, qos byte, payload []byte) error
	// Subscribe registers h for an MQTT-style filter. The mqtt transport
	// re-issues subscriptions after every reconnect; the amqp transport never
	// reconnects, so its subscriptions end with the connection.
	Subscribe(ctx context.Context, filter string, qos byte, h Handler) error
	IsConnected() bool
	// ID is the client id announced to the broker.
	ID() string
	Close()
}

// Match reports whether topic matches an MQTT filter with "+" and "#"
// wildcards. "a/#" also matches "a".
func Match(filter, topic string) bool {
	fs := strings.Split(filter, "/")
	ts := strings.Split(topic, "/")
	for i, f := range fs {
		if f == "#" {
			return true
		}
		if i >= len(ts) {
			return false
		}
		if f != "+" && f != ts[i] {
			return false
		}
	}
	return len(fs) == len(ts)
}

// ClientID returns prefix plus an 8-character random suffix so several
// instances of one agent can share a broker.
func ClientID(prefix string) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return suffix
	}
	return prefix + "_" + suffix
}
