package domain

import (
	"sort"

	"github.com/shopspring/decimal"
)

// MenuItem is a static catalog entry.
type MenuItem struct {
	ID       int             `json:"id"`
	Name     string          `json:"nome"`
	Price    decimal.Decimal `json:"preco"`
	Category string          `json:"categoria"`
}

// Catalog is the immutable menu loaded at startup.
type Catalog struct {
	items []MenuItem
	byID  map[int]MenuItem
}

func NewCatalog(items []MenuItem) Catalog {
	c := Catalog{
		items: make([]MenuItem, 0, len(items)),
		byID:  make(map[int]MenuItem, len(items)),
	}
	for _, it := range items {
		if _, dup := c.byID[it.ID]; dup {
			continue
		}
		c.items = append(c.items, it)
		c.byID[it.ID] = it
	}
	sort.Slice(c.items, func(i, j int) bool { return c.items[i].ID < c.items[j].ID })
	return c
}

// DefaultCatalog is the house menu.
func DefaultCatalog() Catalog {
	return NewCatalog([]MenuItem{
		{ID: 101, Name: "Hamburguer Clássico", Price: decimal.RequireFromString("35.00"), Category: "Lanches"},
		{ID: 102, Name: "Batata Frita (M)", Price: decimal.RequireFromString("12.50"), Category: "Acompanhamentos"},
		{ID: 103, Name: "Refrigerante Lata", Price: decimal.RequireFromString("6.00"), Category: "Bebidas"},
		{ID: 104, Name: "Cerveja Artesanal", Price: decimal.RequireFromString("22.00"), Category: "Bebidas"},
		{ID: 105, Name: "Açaí na Tigela", Price: decimal.RequireFromString("18.00"), Category: "Sobremesas"},
		{ID: 106, Name: "Torta de Limão", Price: decimal.RequireFromString("14.50"), Category: "Sobremesas"},
		{ID: 107, Name: "Salada Caesar", Price: decimal.RequireFromString("30.00"), Category: "Pratos Leves"},
		{ID: 108, Name: "Água Mineral", Price: decimal.RequireFromString("4.00"), Category: "Bebidas"},
	})
}

func (c Catalog) Lookup(id int) (MenuItem, bool) {
	it, ok := c.byID[id]
	return it, ok
}

// Items returns the catalog ordered by id.
func (c Catalog) Items() []MenuItem {
	out := make([]MenuItem, len(c.items))
	copy(out, c.items)
	return out
}

// OrderState is the cross-agent lifecycle of one order.
type OrderState string

const (
	StateCreated   OrderState = "CREATED"
	StateReady     OrderState = "READY"
	StateFinalized OrderState = "FINALIZED"
)

func (s OrderState) rank() int {
	switch s {
	case StateCreated:
		return 1
	case StateReady:
		return 2
	case StateFinalized:
		return 3
	default:
		return 0
	}
}

// Advance returns the later of s and next. States never move backwards, so a
// late order message after its "pronto" status leaves the order READY.
func (s OrderState) Advance(next OrderState) OrderState {
	if next.rank() > s.rank() {
		return next
	}
	return s
}

func (s OrderState) Terminal() bool { return s == StateFinalized }

// StateFor maps an observed message to the state its publisher established.
func StateFor(topic string, status StatusTag) (OrderState, bool) {
	switch {
	case topic == TopicOrders:
		return StateCreated, true
	case status == StatusReady:
		return StateReady, true
	case status == StatusFinalized:
		return StateFinalized, true
	default:
		return "", false
	}
}
