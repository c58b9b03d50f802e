package viewtable

import (
	"errors"
	"testing"
)

func TestInsertIsIdempotent(t *testing.T) {
	tb := New[int, string]()
	if !tb.Insert(1, "first") {
		t.Fatal("first insert rejected")
	}
	if tb.Insert(1, "second") {
		t.Fatal("duplicate insert accepted")
	}
	if v, _ := tb.Get(1); v != "first" {
		t.Fatalf("row overwritten: %q", v)
	}
	if tb.Len() != 1 {
		t.Fatalf("len = %d", tb.Len())
	}
}

func TestSnapshotKeepsArrivalOrder(t *testing.T) {
	tb := New[int, int]()
	for _, k := range []int{3, 1, 2} {
		tb.Insert(k, k*10)
	}
	tb.Remove(1)
	tb.Insert(4, 40)

	got := tb.Snapshot()
	want := []int{30, 20, 40}
	if len(got) != len(want) {
		t.Fatalf("snapshot = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("snapshot = %v, want %v", got, want)
		}
	}
	if tb.Remove(1) {
		t.Fatal("removing an absent key reported success")
	}
}

func TestClaimIsExclusiveUntilReleased(t *testing.T) {
	tb := New[int, string]()
	if _, err := tb.Claim(1); !errors.Is(err, ErrAbsent) {
		t.Fatalf("absent: err = %v", err)
	}

	tb.Insert(1, "order")
	v, err := tb.Claim(1)
	if err != nil || v != "order" {
		t.Fatalf("claim = %q, %v", v, err)
	}
	if _, err := tb.Claim(1); !errors.Is(err, ErrClaimed) {
		t.Fatalf("second claim: err = %v", err)
	}
	if got := tb.Snapshot(); len(got) != 1 {
		t.Fatalf("claimed row hidden from snapshot: %v", got)
	}

	tb.Release(1)
	if _, err := tb.Claim(1); err != nil {
		t.Fatalf("claim after release: %v", err)
	}

	tb.Remove(1)
	tb.Insert(1, "again")
	if _, err := tb.Claim(1); err != nil {
		t.Fatalf("claim survived remove: %v", err)
	}
}
