package cache

import (
	"testing"
	"time"
)

func TestLRUEviction(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3) // evicts a

	if _, ok := c.Get("a"); ok {
		t.Error("oldest entry not evicted")
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d %v, want 3 true", v, ok)
	}
	if c.Size() != 2 {
		t.Errorf("Size = %d, want 2", c.Size())
	}
}

func TestLRUTTL(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Error("expired entry returned")
	}
	c.Set("k", "v")
	time.Sleep(20 * time.Millisecond)
	if removed := c.CleanExpired(); removed != 1 {
		t.Errorf("CleanExpired = %d, want 1", removed)
	}
}

func TestSnapshotKeyDeterministic(t *testing.T) {
	type in struct {
		A string
		B map[string]int
	}
	one := in{A: "x", B: map[string]int{"k1": 1, "k2": 2}}
	two := in{A: "x", B: map[string]int{"k2": 2, "k1": 1}}

	k1, err := SnapshotKey(one)
	if err != nil {
		t.Fatalf("SnapshotKey: %v", err)
	}
	k2, err := SnapshotKey(two)
	if err != nil {
		t.Fatalf("SnapshotKey: %v", err)
	}
	if k1 != k2 {
		t.Error("equal inputs hashed differently")
	}

	k3, _ := SnapshotKey(in{A: "y"})
	if k3 == k1 {
		t.Error("different inputs hashed identically")
	}
}
