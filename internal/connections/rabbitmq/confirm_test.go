package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	"restaurant-pubsub/internal/connections/broker"
)

type fakeConfirm struct {
	ack   bool
	delay time.Duration
}

func (f fakeConfirm) WaitContext(ctx context.Context) (bool, error) {
	select {
	case <-time.After(f.delay):
		return f.ack, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func TestAwaitConfirmPairsEachPublishWithItsOwnConfirm(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if err := awaitConfirm(ctx, fakeConfirm{ack: true, delay: time.Second}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("late ack: err = %v", err)
	}

	// The next publish is nacked; the first publish's late ack must not
	// turn it into a success.
	if err := awaitConfirm(context.Background(), fakeConfirm{ack: false}); err == nil {
		t.Fatal("nack reported as success")
	}
	if err := awaitConfirm(context.Background(), fakeConfirm{ack: true}); err != nil {
		t.Fatalf("ack: %v", err)
	}
}

func TestClosedClientRefusesWork(t *testing.T) {
	c := &Client{}
	if c.IsConnected() {
		t.Fatal("client without a connection reports connected")
	}
	if err := c.Publish(context.Background(), "senai/iot/pedidos", 1, []byte(`{}`)); !errors.Is(err, broker.ErrNotConnected) {
		t.Fatalf("publish: err = %v", err)
	}
	if err := c.Subscribe(context.Background(), "senai/iot/#", 0, func(context.Context, broker.Message) {}); !errors.Is(err, broker.ErrNotConnected) {
		t.Fatalf("subscribe: err = %v", err)
	}
}
