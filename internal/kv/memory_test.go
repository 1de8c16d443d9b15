package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetMissing(t *testing.T) {
	m := NewMemory()

	val, ok, err := m.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if ok || val != "" {
		t.Errorf("Get() = (%q, %v), want (\"\", false)", val, ok)
	}
}

func TestMemoryPutGetDelete(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Put(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	val, ok, err := m.Get(ctx, "k")
	if err != nil || !ok || val != "v" {
		t.Errorf("Get() = (%q, %v, %v), want (\"v\", true, nil)", val, ok, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("Get() after Delete() should report missing")
	}

	// Deleting again must not error
	if err := m.Delete(ctx, "k"); err != nil {
		t.Errorf("Delete() on absent key error = %v", err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Now()
	m.SetClock(func() time.Time { return now })

	if err := m.Put(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	if _, ok, _ := m.Get(ctx, "k"); !ok {
		t.Fatal("Get() before expiry should hit")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := m.Get(ctx, "k"); ok {
		t.Error("Get() after expiry should miss")
	}
}

func TestMemoryKeysPrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Put(ctx, "session:a", "1", 0)
	_ = m.Put(ctx, "session:b", "2", 0)
	_ = m.Put(ctx, "bookmarks:x", "3", 0)

	keys, err := m.Keys(ctx, KeyPrefixSession)
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}
	if len(keys) != 2 {
		t.Errorf("Keys(session:) returned %d keys, want 2", len(keys))
	}
	for _, k := range keys {
		if k != "session:a" && k != "session:b" {
			t.Errorf("unexpected key %q", k)
		}
	}
}
