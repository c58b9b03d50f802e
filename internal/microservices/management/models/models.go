package models

import (
	"time"

	"restaurant-pubsub/internal/domain"
)

type EntryKind string

const (
	KindOrderCreated  EntryKind = "order_created"
	KindStatusUpdated EntryKind = "status_updated"
	KindControl       EntryKind = "control"
)

// AuditEntry is one row of the transaction log. OrderID and Table are nil
// when the message did not carry them.
type AuditEntry struct {
	ReceivedAt time.Time `json:"recebido_em"`
	Topic      string    `json:"topico"`
	OrderID    *int      `json:"pedido_id"`
	Table      *int      `json:"mesa"`
	Kind       EntryKind `json:"tipo"`
	Action     string    `json:"acao"`
}

type OrderView struct {
	OrderID   int               `json:"pedido_id"`
	State     domain.OrderState `json:"status"`
	UpdatedAt time.Time         `json:"atualizado_em"`
}
