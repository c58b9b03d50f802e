// Package cart is the order-taking agent's working basket.
package cart

import (
	"sort"

	"github.com/shopspring/decimal"

	"restaurant-pubsub/internal/domain"
)

// Line snapshots a menu item's name and price at the time it was added.
type Line struct {
	MenuID   int             `json:"id"`
	Name     string          `json:"nome"`
	Price    decimal.Decimal `json:"preco"`
	Quantity int             `json:"quantidade"`
}

func (l Line) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart never holds a line with quantity <= 0. It is not safe for concurrent
// use; the owning service serializes access.
type Cart struct {
	lines map[int]*Line
}

func New() *Cart { return &Cart{lines: make(map[int]*Line)} }

// Add inserts item at quantity 1 or increments its line.
func (c *Cart) Add(item domain.MenuItem) {
	if l, ok := c.lines[item.ID]; ok {
		l.Quantity++
		return
	}
	c.lines[item.ID] = &Line{MenuID: item.ID, Name: item.Name, Price: item.Price, Quantity: 1}
}

// Adjust changes a line's quantity by delta and drops the line when the
// result is <= 0. It reports whether the id was in the cart.
func (c *Cart) Adjust(id, delta int) bool {
	l, ok := c.lines[id]
	if !ok {
		return false
	}
	l.Quantity += delta
	if l.Quantity <= 0 {
		delete(c.lines, id)
	}
	return true
}

func (c *Cart) Clear() { c.lines = make(map[int]*Line) }

func (c *Cart) Len() int { return len(c.lines) }

// Lines returns a copy ordered by menu id.
func (c *Cart) Lines() []Line {
	out := make([]Line, 0, len(c.lines))
	for _, l := range c.lines {
		out = append(out, *l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MenuID < out[j].MenuID })
	return out
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (c *Cart) OrderItems() []domain.OrderItem {
	lines := c.Lines()
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		items = append(items, domain.OrderItem{ID: l.MenuID, Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	return items
}
