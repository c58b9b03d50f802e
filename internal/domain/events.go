package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

func init() {
	// Prices and totals travel as JSON numbers.
	decimal.MarshalJSONWithoutQuotes = true
}

const (
	TopicNamespace       = "senai/iot"
	TopicOrders          = "senai/iot/pedidos"
	TopicStatusPrefix    = "senai/iot/status/"
	TopicStatusReady     = "senai/iot/status/pronto"
	TopicStatusFinalized = "senai/iot/status/finalizado"
	TopicAll             = "senai/iot/#"
)

const (
	QoSAtMostOnce  byte = 0
	QoSAtLeastOnce byte = 1
)

type StatusTag string

const (
	StatusReady     StatusTag = "pronto"
	StatusFinalized StatusTag = "finalizado"
)

type OrderItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"nome"`
	Quantity int             `json:"quantidade"`
	Price    decimal.Decimal `json:"preco"`
}

// Order is published once by the order-taking agent and never changes
// afterwards; its progress is carried by separate StatusMessages.
type Order struct {
	ID           int             `json:"pedido_id"`
	Timestamp    time.Time       `json:"timestamp"`
	Table        int             `json:"mesa"`
	CustomerName string          `json:"cliente"`
	Total        decimal.Decimal `json:"total"`
	Items        []OrderItem     `json:"itens"`
}

// NewOrder snapshots items and computes the total. A blank customer name
// becomes "Mesa {table}".
func NewOrder(id int, at time.Time, table int, customerName string, items []OrderItem) Order {
	name := strings.TrimSpace(customerName)
	if name == "" {
		name = fmt.Sprintf("Mesa %d", table)
	}
	snapshot := make([]OrderItem, len(items))
	copy(snapshot, items)
	return Order{
		ID:           id,
		Timestamp:    at.UTC(),
		Table:        table,
		CustomerName: name,
		Total:        SumItems(snapshot),
		Items:        snapshot,
	}
}

func SumItems(items []OrderItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// StatusMessage reports a lifecycle step for an order. Total and
// CustomerName are echoed by the kitchen so the cashier can charge without
// ever seeing the original order.
type StatusMessage struct {
	OrderID      int              `json:"pedido_id"`
	Timestamp    time.Time        `json:"timestamp"`
	Status       StatusTag        `json:"status"`
	Table        int              `json:"mesa,omitempty"`
	CustomerName string           `json:"cliente,omitempty"`
	Total        *decimal.Decimal `json:"total,omitempty"`
}

func ReadyStatus(order Order, table int, at time.Time) StatusMessage {
	total := order.Total
	return StatusMessage{
		OrderID:      order.ID,
		Timestamp:    at.UTC(),
		Status:       StatusReady,
		Table:        table,
		CustomerName: order.CustomerName,
		Total:        &total,
	}
}

func FinalizedStatus(orderID int, at time.Time) StatusMessage {
	return StatusMessage{
		OrderID:   orderID,
		Timestamp: at.UTC(),
		Status:    StatusFinalized,
	}
}
