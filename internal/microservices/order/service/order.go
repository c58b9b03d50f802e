package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/common/metrics"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
	"restaurant-pubsub/internal/microservices/order/cart"
	"restaurant-pubsub/internal/microservices/order/repository"
)

const Agent = "order-taking"

type OrderServiceInterface interface {
	Menu() []domain.MenuItem
	AddItem(id int) bool
	AdjustQuantity(id, delta int) bool
	ClearCart()
	Cart() CartView
	SubmitOrder(ctx context.Context, table int, customerName string) (domain.Order, error)
}

// CartView is the read-only snapshot handed to the UI.
type CartView struct {
	Lines       []cart.Line     `json:"itens"`
	Total       decimal.Decimal `json:"total"`
	NextOrderID int             `json:"proximo_pedido_id"`
	Connected   bool            `json:"conectado"`
}

type Options struct {
	Catalog        domain.Catalog
	PublishTimeout time.Duration
	Now            func() time.Time
	Logger         *logger.Logger
}

type OrderService struct {
	mu      sync.Mutex // held across submit so two submits never share an id
	catalog domain.Catalog
	cart    *cart.Cart
	nextID  int

	counter repository.CounterStore
	client  broker.Client
	timeout time.Duration
	now     func() time.Time
	log     *logger.Logger
}

// NewOrderService seeds the next id from the persisted counter: last + 1,
// or 1 when nothing was persisted yet.
func NewOrderService(ctx context.Context, client broker.Client, counter repository.CounterStore, opts Options) (*OrderService, error) {
	last, ok, err := counter.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load order counter: %w", err)
	}
	next := 1
	if ok {
		next = last + 1
	}
	if opts.PublishTimeout <= 0 {
		opts.PublishTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(Agent)
	}
	if len(opts.Catalog.Items()) == 0 {
		opts.Catalog = domain.DefaultCatalog()
	}
	return &OrderService{
		catalog: opts.Catalog,
		cart:    cart.New(),
		nextID:  next,
		counter: counter,
		client:  client,
		timeout: opts.PublishTimeout,
		now:     opts.Now,
		log:     opts.Logger,
	}, nil
}

func (s *OrderService) Menu() []domain.MenuItem { return s.catalog.Items() }

// AddItem is a no-op for ids missing from the catalog.
func (s *OrderService) AddItem(id int) bool {
	item, ok := s.catalog.Lookup(id)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Add(item)
	return true
}

func (s *OrderService) AdjustQuantity(id, delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Adjust(id, delta)
}

func (s *OrderService) ClearCart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
}

func (s *OrderService) Cart() CartView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return CartView{
		Lines:       s.cart.Lines(),
		Total:       s.cart.Total(),
		NextOrderID: s.nextID,
		Connected:   s.client.IsConnected(),
	}
}

// Connected does not take the service lock, so it stays responsive while a
// submit waits on the broker.
func (s *OrderService) Connected() bool { return s.client.IsConnected() }

func (s *OrderService) NextOrderID() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

// SubmitOrder publishes the cart as the next order and waits for the broker
// acknowledgment. Only an acknowledged publish advances the counter and
// empties the cart.
func (s *OrderService) SubmitOrder(ctx context.Context, table int, customerName string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if table <= 0 {
		return domain.Order{}, fmt.Errorf("%w: table number is required", domain.ErrValidation)
	}
	if s.cart.Len() == 0 {
		return domain.Order{}, fmt.Errorf("%w: cart is empty", domain.ErrValidation)
	}
	if !s.client.IsConnected() {
		return domain.Order{}, broker.ErrNotConnected
	}

	order := domain.NewOrder(s.nextID, s.now(), table, customerName, s.cart.OrderItems())
	body, err := json.Marshal(order)
	if err != nil {
		return domain.Order{}, fmt.Errorf("marshal order %d: %w", order.ID, err)
	}

	pctx, cancel := context.WithTimeout(ctx, s.timeout)
	err = s.client.Publish(pctx, domain.TopicOrders, domain.QoSAtLeastOnce, body)
	cancel()
	metrics.Publishes.WithLabelValues(Agent, domain.TopicOrders, metrics.PublishResult(err)).Inc()
	if err != nil {
		s.log.Error("order_publish_failed", err, map[string]any{"pedido_id": order.ID, "mesa": order.Table})
		return domain.Order{}, fmt.Errorf("%w: order %d: %w", domain.ErrPublishFailed, order.ID, err)
	}

	// The order is out; the in-memory counter must move on even if the
	// persisted copy lags behind.
	s.nextID = order.ID + 1
	s.cart.Clear()

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()
	if err := s.counter.Save(sctx, order.ID); err != nil {
		s.log.Error("order_counter_save_failed", err, map[string]any{"pedido_id": order.ID})
	}

	s.log.Info("order_published", map[string]any{
		"pedido_id": order.ID,
		"mesa":      order.Table,
		"cliente":   order.CustomerName,
		"total":     order.Total.StringFixed(2),
		"itens":     len(order.Items),
	})
	return order, nil
}

var _ OrderServiceInterface = (*OrderService)(nil)
