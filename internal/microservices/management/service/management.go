package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/common/logger"
	"restaurant-pubsub/internal/common/metrics"
	"restaurant-pubsub/internal/connections/broker"
	"restaurant-pubsub/internal/domain"
	"restaurant-pubsub/internal/microservices/management/models"
	"restaurant-pubsub/internal/microservices/management/repository"
)

const Agent = "management"

type ManagementServiceInterface interface {
	Apply(ctx context.Context, msg broker.Message)
	Entries() []models.AuditEntry
	OrderStatus(orderID int) (models.OrderView, bool)
	Timeline(ctx context.Context, orderID int) ([]models.AuditEntry, error)
	Connected() bool
}

// TimelineReader serves durable per-order history when a mirror keeps one.
type TimelineReader interface {
	Timeline(ctx context.Context, orderID, limit, offset int) ([]models.AuditEntry, error)
}

type Options struct {
	Mirror        repository.Mirror
	MirrorTimeout time.Duration
	Now           func() time.Time
	Logger        *logger.Logger
}

// ManagementService watches the whole namespace. It is read-only towards the
// broker and never publishes.
type ManagementService struct {
	mu     sync.Mutex
	states map[int]models.OrderView

	audit         *repository.AuditLog
	mirror        repository.Mirror
	mirrorTimeout time.Duration
	client        broker.Client
	now           func() time.Time
	log           *logger.Logger
}

func NewManagementService(client broker.Client, opts Options) *ManagementService {
	if opts.MirrorTimeout <= 0 {
		opts.MirrorTimeout = 3 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(Agent)
	}
	return &ManagementService{
		states:        make(map[int]models.OrderView),
		audit:         repository.NewAuditLog(),
		mirror:        opts.Mirror,
		mirrorTimeout: opts.MirrorTimeout,
		client:        client,
		now:           opts.Now,
		log:           opts.Logger,
	}
}

func (s *ManagementService) Run(ctx context.Context) error {
	if err := s.client.Subscribe(ctx, domain.TopicAll, domain.QoSAtMostOnce, s.Apply); err != nil {
		return err
	}
	s.log.Info("management_subscribed", map[string]any{"topic": domain.TopicAll})
	return nil
}

func (s *ManagementService) Apply(ctx context.Context, msg broker.Message) {
	metrics.MessagesReceived.WithLabelValues(Agent, msg.Topic).Inc()

	env, err := domain.DecodeEnvelope(msg.Payload)
	if err != nil {
		metrics.MessagesDropped.WithLabelValues(Agent, "malformed").Inc()
		s.log.Warn("message_dropped", map[string]any{"topic": msg.Topic, "reason": err.Error()})
		return
	}

	now := s.now().UTC()
	entry := models.AuditEntry{
		ReceivedAt: now,
		Topic:      msg.Topic,
		OrderID:    positive(env.OrderID),
		Table:      positive(env.Table),
	}
	entry.Kind, entry.Action = classify(msg.Topic, env)
	s.audit.Prepend(entry)
	metrics.ViewEntries.WithLabelValues(Agent).Set(float64(s.audit.Len()))

	if entry.OrderID != nil {
		s.track(*entry.OrderID, msg.Topic, domain.StatusTag(env.Status), now)
	}
	s.log.Debug("transaction_logged", map[string]any{"topic": msg.Topic, "kind": string(entry.Kind), "action": entry.Action})

	if s.mirror != nil {
		mctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.mirrorTimeout)
		defer cancel()
		if err := s.mirror.Append(mctx, entry); err != nil {
			s.log.Error("audit_mirror_failed", err, map[string]any{"topic": msg.Topic})
		}
	}
}

func (s *ManagementService) track(orderID int, topic string, status domain.StatusTag, at time.Time) {
	next, ok := domain.StateFor(topic, status)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v, seen := s.states[orderID]
	advanced := v.State.Advance(next)
	if seen && advanced == v.State {
		return
	}
	s.states[orderID] = models.OrderView{OrderID: orderID, State: advanced, UpdatedAt: at}
}

func classify(topic string, env domain.Envelope) (models.EntryKind, string) {
	switch {
	case topic == domain.TopicOrders:
		total := "N/A"
		if env.Total != nil {
			if d, err := decimal.NewFromString(env.Total.String()); err == nil {
				total = d.StringFixed(2)
			}
		}
		return models.KindOrderCreated, "Pedido Criado (Total: R$ " + total + ")"
	case strings.HasPrefix(topic, domain.TopicStatusPrefix):
		status := strings.ToUpper(env.Status)
		if status == "" {
			status = "N/A"
		}
		return models.KindStatusUpdated, "Status Atualizado: " + status
	default:
		return models.KindControl, "Mensagem de Controle"
	}
}

func positive(p *int) *int {
	if p == nil || *p <= 0 {
		return nil
	}
	v := *p
	return &v
}

// Entries returns the transaction log, newest first.
func (s *ManagementService) Entries() []models.AuditEntry { return s.audit.Entries() }

func (s *ManagementService) OrderStatus(orderID int) (models.OrderView, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.states[orderID]
	return v, ok
}

// Timeline prefers the durable mirror and falls back to the in-memory log.
func (s *ManagementService) Timeline(ctx context.Context, orderID int) ([]models.AuditEntry, error) {
	if r, ok := s.mirror.(TimelineReader); ok {
		return r.Timeline(ctx, orderID, repository.MaxEntries, 0)
	}
	rows := s.audit.ForOrder(orderID)
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

func (s *ManagementService) Connected() bool { return s.client.IsConnected() }

var _ ManagementServiceInterface = (*ManagementService)(nil)
