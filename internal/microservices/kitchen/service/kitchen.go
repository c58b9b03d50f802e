package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/common/metrics"
	"restaurant-pubsub/internal/common/viewtable"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
)

const Agent = "kitchen"

type KitchenServiceInterface interface {
	HandleMessage(ctx context.Context, msg broker.Message)
	MarkReady(ctx context.Context, orderID, table int) (domain.StatusMessage, error)
	ActiveOrders() []domain.Order
	Connected() bool
}

type Options struct {
	PublishTimeout time.Duration
	Now            func() time.Time
	Logger         *logger.Logger
}

// KitchenService tracks orders waiting to be cooked. The table is locked
// internally so the service never holds a lock while it publishes.
type KitchenService struct {
	orders  *viewtable.Table[int, domain.Order]
	client  broker.Client
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
}

func NewKitchenService(client broker.Client, opts Options) *KitchenService {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(Agent)
	}
	return &KitchenService{
		orders:  viewtable.New[int, domain.Order](),
		client:  client,
		timeout: opts.PublishTimeout,
		now:     opts.Now,
		log:     opts.Logger,
	}
}

// Run subscribes to new orders. Subscriptions survive reconnects in every
// transport, so Run returns once the subscription is registered.
func (ks *KitchenService) Run(ctx context.Context) error {
	if err := ks.client.Subscribe(ctx, domain.TopicOrders, domain.QoSAtLeastOnce, ks.HandleMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicOrders, err)
	}
	ks.log.Info("kitchen_subscribed", map[string]any{"topic": domain.TopicOrders})
	return nil
}

func (ks *KitchenService) HandleMessage(_ context.Context, msg broker.Message) {
	metrics.MessagesReceived.WithLabelValues(Agent, msg.Topic).Inc()

	order, err := domain.DecodeOrder(msg.Payload)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues(Agent, "malformed").Inc()
		ks.log.Warn("message_dropped", map[string]any{"topic": msg.Topic, "reason": err.Error()})
		return
	}
	if !ks.orders.Insert(order.ID, order) {
		metrics.MessagesDropped.WithLabelValues(Agent, "duplicate").Inc()
		ks.log.Debug("order_duplicate", map[string]any{"pedido_id": order.ID})
		return
	}
	metrics.ViewEntries.WithLabelValues(Agent).Set(float64(ks.orders.Len()))
	ks.log.Info("order_received", map[string]any{
		"pedido_id": order.ID,
		"mesa":      order.Table,
		"cliente":   order.CustomerName,
		"itens":     len(order.Items),
	})
}

// MarkReady publishes the ready status for a tracked order. A table <= 0
// falls back to the table on the order. The order leaves the view only
// after the broker acknowledges the publish.
func (ks *KitchenService) MarkReady(ctx context.Context, orderID, table int) (domain.StatusMessage, error) {
	if !ks.client.IsConnected() {
		return domain.StatusMessage{}, broker.ErrNotConnected
	}
	order, err := claim(ks.orders, orderID)
	if err != nil {
		return domain.StatusMessage{}, err
	}
	if table <= 0 {
		table = order.Table
	}

	status := domain.ReadyStatus(order, table, ks.now())
	body, err := json.Marshal(status)
	if err != nil {
		ks.orders.Release(orderID)
		return domain.StatusMessage{}, fmt.Errorf("marshal status %d: %w", orderID, err)
	}

	pctx, cancel := context.WithTimeout(ctx, ks.timeout)
	defer cancel()
	err = ks.client.Publish(pctx, domain.TopicStatusReady, domain.QoSAtLeastOnce, body)
	metrics.Publishes.WithLabelValues(Agent, domain.TopicStatusReady, metrics.PublishResult(err)).Inc()
	if err != nil {
		ks.orders.Release(orderID)
		ks.log.Error("ready_publish_failed", err, map[string]any{"pedido_id": orderID})
		return domain.StatusMessage{}, fmt.Errorf("%w: pedido %d: %w", domain.ErrPublishFailed, orderID, err)
	}

	ks.orders.Remove(orderID)
	metrics.ViewEntries.WithLabelValues(Agent).Set(float64(ks.orders.Len()))
	ks.log.Info("order_ready", map[string]any{"pedido_id": orderID, "mesa": table})
	return status, nil
}

// ActiveOrders lists tracked orders in arrival order.
func (ks *KitchenService) ActiveOrders() []domain.Order { return ks.orders.Snapshot() }

func (ks *KitchenService) Connected() bool { return ks.client.IsConnected() }

var _ KitchenServiceInterface = (*KitchenService)(nil)

// claim reserves a tracked order for one MarkReady at a time.
func claim(t *viewtable.Table[int, domain.Order], orderID int) (domain.Order, error) {
	order, err := t.Claim(orderID)
	switch {
	case errors.Is(err, viewtable.ErrAbsent):
		return order, fmt.Errorf("%w: pedido %d", domain.ErrUnknownOrder, orderID)
	case errors.Is(err, viewtable.ErrClaimed):
		return order, fmt.Errorf("%w: pedido %d is being marked ready", domain.ErrInProgress, orderID)
	}
	return order, err
}
