package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/common/metrics"
	"restaurant-pubsub/internal/common/viewtable"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
)

const Agent = "cashier"

type CashierServiceInterface interface {
	HandleMessage(ctx context.Context, msg broker.Message)
	MarkFinalized(ctx context.Context, orderID int) (domain.StatusMessage, error)
	PendingPayments() []Payment
	Connected() bool
}

// Payment is a ready order waiting to be charged. Total is nil when the
// kitchen that sent the status did not echo it.
type Payment struct {
	OrderID       int              `json:"pedido_id"`
	Table         int              `json:"mesa,omitempty"`
	CustomerName  string           `json:"cliente,omitempty"`
	Total         *decimal.Decimal `json:"total"`
	AwaitingTotal bool             `json:"aguardando_total"`
	ReadyAt       time.Time        `json:"pronto_em"`
}

func paymentFrom(s domain.StatusMessage) Payment {
	return Payment{
		OrderID:       s.OrderID,
		Table:         s.Table,
		CustomerName:  s.CustomerName,
		Total:         s.Total,
		AwaitingTotal: s.Total == nil,
		ReadyAt:       s.Timestamp,
	}
}

type Options struct {
	PublishTimeout time.Duration
	Now            func() time.Time
	Logger         *logger.Logger
}

type CashierService struct {
	payments *viewtable.Table[int, Payment]
	client   broker.Client
	timeout  time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewCashierService(client broker.Client, opts Options) *CashierService {
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(Agent)
	}
	return &CashierService{
		payments: viewtable.New[int, Payment](),
		client:   client,
		timeout:  opts.PublishTimeout,
		now:      opts.Now,
		log:      opts.Logger,
	}
}

func (cs *CashierService) Run(ctx context.Context) error {
	if err := cs.client.Subscribe(ctx, domain.TopicStatusReady, domain.QoSAtLeastOnce, cs.HandleMessage); err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicStatusReady, err)
	}
	cs.log.Info("cashier_subscribed", map[string]any{"topic": domain.TopicStatusReady})
	return nil
}

func (cs *CashierService) HandleMessage(_ context.Context, msg broker.Message) {
	metrics.MessagesReceived.WithLabelValues(Agent, msg.Topic).Inc()

	status, err := domain.DecodeStatus(msg.Payload)
	if err == nil && status.Status != domain.StatusReady {
		err = fmt.Errorf("%w: status %q on %s", domain.ErrMalformed, status.Status, msg.Topic)
	}
	if err != nil {
		metrics.MessagesDropped.WithLabelValues(Agent, "malformed").Inc()
		cs.log.Warn("message_dropped", map[string]any{"topic": msg.Topic, "reason": err.Error()})
		return
	}

	p := paymentFrom(status)
	if !cs.payments.Insert(p.OrderID, p) {
		metrics.MessagesDropped.WithLabelValues(Agent, "duplicate").Inc()
		cs.log.Debug("payment_duplicate", map[string]any{"pedido_id": p.OrderID})
		return
	}
	metrics.ViewEntries.WithLabelValues(Agent).Set(float64(cs.payments.Len()))

	fields := map[string]any{"pedido_id": p.OrderID, "mesa": p.Table, "cliente": p.CustomerName}
	if p.AwaitingTotal {
		fields["total"] = "awaiting"
	} else {
		fields["total"] = p.Total.StringFixed(2)
	}
	cs.log.Info("payment_pending", fields)
}

// MarkFinalized closes a pending payment. It publishes first and drops the
// entry only once the broker has acknowledged.
func (cs *CashierService) MarkFinalized(ctx context.Context, orderID int) (domain.StatusMessage, error) {
	if !cs.client.IsConnected() {
		return domain.StatusMessage{}, broker.ErrNotConnected
	}
	switch _, err := cs.payments.Claim(orderID); {
	case errors.Is(err, viewtable.ErrAbsent):
		return domain.StatusMessage{}, fmt.Errorf("%w: pedido %d", domain.ErrUnknownOrder, orderID)
	case errors.Is(err, viewtable.ErrClaimed):
		return domain.StatusMessage{}, fmt.Errorf("%w: pedido %d is being finalized", domain.ErrInProgress, orderID)
	}

	status := domain.FinalizedStatus(orderID, cs.now())
	body, err := json.Marshal(status)
	if err != nil {
		cs.payments.Release(orderID)
		return domain.StatusMessage{}, fmt.Errorf("marshal status %d: %w", orderID, err)
	}

	pctx, cancel := context.WithTimeout(ctx, cs.timeout)
	defer cancel()
	err = cs.client.Publish(pctx, domain.TopicStatusFinalized, domain.QoSAtLeastOnce, body)
	metrics.Publishes.WithLabelValues(Agent, domain.TopicStatusFinalized, metrics.PublishResult(err)).Inc()
	if err != nil {
		cs.payments.Release(orderID)
		cs.log.Error("finalize_publish_failed", err, map[string]any{"pedido_id": orderID})
		return domain.StatusMessage{}, fmt.Errorf("%w: pedido %d: %w", domain.ErrPublishFailed, orderID, err)
	}

	cs.payments.Remove(orderID)
	metrics.ViewEntries.WithLabelValues(Agent).Set(float64(cs.payments.Len()))
	cs.log.Info("order_finalized", map[string]any{"pedido_id": orderID})
	return status, nil
}

func (cs *CashierService) PendingPayments() []Payment { return cs.payments.Snapshot() }

func (cs *CashierService) Connected() bool { return cs.client.IsConnected() }

var _ CashierServiceInterface = (*CashierService)(nil)
