package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/connections/memory"
	"restaurant-pubsub/internal/domain"
)

func newKitchen(t *testing.T) (*KitchenService, *memory.Client, *memory.Client) {
	t.Helper()
	b := memory.New()
	kc := b.Connect("cozinha")
	ks := NewKitchenService(kc, Options{Logger: logger.Discard(Agent)})
	if err := ks.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	return ks, kc, b.Connect("atendente")
}

func publishOrder(t *testing.T, c *memory.Client, id, table int) {
	t.Helper()
	order := domain.NewOrder(id, time.Now(), table, "", []domain.OrderItem{
		{ID: 101, Name: "Hamburguer", Quantity: 2, Price: decimal.RequireFromString("35.00")},
	})
	body, err := json.Marshal(order)
	if err != nil {
		t.Fatal(err)
	}
	if err := c.Publish(context.Background(), domain.TopicOrders, domain.QoSAtLeastOnce, body); err != nil {
		t.Fatalf("publish: %v", err)
	}
}

func TestDuplicateOrdersAreIgnored(t *testing.T) {
	ks, _, producer := newKitchen(t)
	publishOrder(t, producer, 7, 3)
	publishOrder(t, producer, 7, 3)
	publishOrder(t, producer, 8, 4)

	got := ks.ActiveOrders()
	if len(got) != 2 || got[0].ID != 7 || got[1].ID != 8 {
		t.Fatalf("active orders = %+v", got)
	}
}

func TestMalformedOrdersAreDropped(t *testing.T) {
	ks, _, producer := newKitchen(t)
	for _, p := range []string{`{`, `{"pedido_id":0,"mesa":1,"itens":[{"id":1}]}`, `{"pedido_id":3,"mesa":1,"itens":[]}`} {
		if err := producer.Publish(context.Background(), domain.TopicOrders, 1, []byte(p)); err != nil {
			t.Fatal(err)
		}
	}
	if n := len(ks.ActiveOrders()); n != 0 {
		t.Fatalf("tracked %d invalid orders", n)
	}
}

func TestMarkReadyPublishesAndRemoves(t *testing.T) {
	ks, kc, producer := newKitchen(t)
	publishOrder(t, producer, 1, 5)

	status, err := ks.MarkReady(context.Background(), 1, 0)
	if err != nil {
		t.Fatalf("mark ready: %v", err)
	}
	if status.Table != 5 || status.Status != domain.StatusReady || status.Total == nil || !status.Total.Equal(decimal.NewFromInt(70)) {
		t.Fatalf("status = %+v", status)
	}
	pub := kc.Published()
	if len(pub) != 1 || pub[0].Topic != domain.TopicStatusReady {
		t.Fatalf("published = %+v", pub)
	}
	if len(ks.ActiveOrders()) != 0 {
		t.Fatal("order still tracked after ack")
	}
}

func TestMarkReadyKeepsOrderOnFailure(t *testing.T) {
	ks, kc, producer := newKitchen(t)
	publishOrder(t, producer, 1, 5)

	kc.FailPublishes(errors.New("no puback"))
	if _, err := ks.MarkReady(context.Background(), 1, 5); !errors.Is(err, domain.ErrPublishFailed) {
		t.Fatalf("err = %v", err)
	}
	if len(ks.ActiveOrders()) != 1 {
		t.Fatal("order removed without ack")
	}

	kc.FailPublishes(nil)
	kc.SetConnected(false)
	if _, err := ks.MarkReady(context.Background(), 1, 5); !errors.Is(err, broker.ErrNotConnected) {
		t.Fatalf("err = %v", err)
	}
	if len(ks.ActiveOrders()) != 1 {
		t.Fatal("order removed while offline")
	}
}

func TestMarkReadyUnknownOrder(t *testing.T) {
	ks, kc, _ := newKitchen(t)
	if _, err := ks.MarkReady(context.Background(), 42, 1); !errors.Is(err, domain.ErrUnknownOrder) {
		t.Fatalf("err = %v", err)
	}
	if len(kc.Published()) != 0 {
		t.Fatal("published for an unknown order")
	}
}

// gatedClient holds every publish until release is closed.
type gatedClient struct {
	*memory.Client
	entered chan struct{}
	release chan struct{}
}

func (g *gatedClient) Publish(ctx context.Context, topic string, qos byte, payload []byte) error {
	g.entered <- struct{}{}
	<-g.release
	return g.Client.Publish(ctx, topic, qos, payload)
}

func TestConcurrentMarkReadyPublishesOnce(t *testing.T) {
	b := memory.New()
	gc := &gatedClient{Client: b.Connect("cozinha"), entered: make(chan struct{}, 1), release: make(chan struct{})}
	ks := NewKitchenService(gc, Options{Logger: logger.Discard(Agent)})
	if err := ks.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	publishOrder(t, b.Connect("atendente"), 1, 5)

	done := make(chan error, 1)
	go func() {
		_, err := ks.MarkReady(context.Background(), 1, 0)
		done <- err
	}()
	<-gc.entered

	if _, err := ks.MarkReady(context.Background(), 1, 0); !errors.Is(err, domain.ErrInProgress) {
		t.Fatalf("second call: err = %v, want ErrInProgress", err)
	}
	if len(ks.ActiveOrders()) != 1 {
		t.Fatal("order left the view before the ack")
	}

	close(gc.release)
	if err := <-done; err != nil {
		t.Fatalf("first call: %v", err)
	}
	if n := len(gc.Published()); n != 1 {
		t.Fatalf("published %d ready statuses", n)
	}
	if _, err := ks.MarkReady(context.Background(), 1, 0); !errors.Is(err, domain.ErrUnknownOrder) {
		t.Fatalf("after ack: err = %v", err)
	}
}

func TestFailedMarkReadyReleasesOrder(t *testing.T) {
	ks, kc, producer := newKitchen(t)
	publishOrder(t, producer, 2, 1)

	kc.FailPublishes(errors.New("no puback"))
	if _, err := ks.MarkReady(context.Background(), 2, 0); !errors.Is(err, domain.ErrPublishFailed) {
		t.Fatalf("err = %v", err)
	}
	kc.FailPublishes(nil)
	if _, err := ks.MarkReady(context.Background(), 2, 0); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}
