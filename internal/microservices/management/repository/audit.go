package repository

import (
	"context"
	"sync"

	"restaurant-pubsub/internal/microservices/management/models"
)

// MaxEntries bounds the in-memory transaction log.
const MaxEntries = 50

// Mirror receives every audit row for durable storage.
type Mirror interface {
	Append(ctx context.Context, e models.AuditEntry) error
}

// AuditLog keeps the newest MaxEntries rows, newest first.
type AuditLog struct {
	mu      sync.RWMutex
	entries []models.AuditEntry
}

func NewAuditLog() *AuditLog {
	return &AuditLog{entries: make([]models.AuditEntry, 0, MaxEntries)}
}

func (l *AuditLog) Prepend(e models.AuditEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.entries) < MaxEntries {
		l.entries = append(l.entries, models.AuditEntry{})
	}
	copy(l.entries[1:], l.entries[:len(l.entries)-1])
	l.entries[0] = e
}

func (l *AuditLog) Entries() []models.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.AuditEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// ForOrder returns the rows carrying orderID, newest first.
func (l *AuditLog) ForOrder(orderID int) []models.AuditEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []models.AuditEntry
	for _, e := range l.entries {
		if e.OrderID != nil && *e.OrderID == orderID {
			out = append(out, e)
		}
	}
	return out
}

func (l *AuditLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
