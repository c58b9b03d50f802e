package repository

import (
	"testing"
	"time"

	"restaurant-pubsub/internal/microservices/management/models"
)

func TestAuditLogCapsAtMaxEntries(t *testing.T) {
	l := NewAuditLog()
	for i := 1; i <= MaxEntries+25; i++ {
		id := i
		l.Prepend(models.AuditEntry{ReceivedAt: time.Unix(int64(i), 0), OrderID: &id})
		if l.Len() > MaxEntries {
			t.Fatalf("log grew to %d rows", l.Len())
		}
	}

	got := l.Entries()
	if len(got) != MaxEntries {
		t.Fatalf("len = %d", len(got))
	}
	if *got[0].OrderID != MaxEntries+25 || *got[len(got)-1].OrderID != 26 {
		t.Fatalf("newest %d oldest %d", *got[0].OrderID, *got[len(got)-1].OrderID)
	}
}

func TestForOrder(t *testing.T) {
	l := NewAuditLog()
	one, two := 1, 2
	l.Prepend(models.AuditEntry{OrderID: &one, Action: "a"})
	l.Prepend(models.AuditEntry{OrderID: &two, Action: "b"})
	l.Prepend(models.AuditEntry{Action: "control"})
	l.Prepend(models.AuditEntry{OrderID: &one, Action: "c"})

	got := l.ForOrder(1)
	if len(got) != 2 || got[0].Action != "c" || got[1].Action != "a" {
		t.Fatalf("rows = %+v", got)
	}
}
