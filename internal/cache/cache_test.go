package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("want miss, got %v", err)
	}
	if err := SetObject(ctx, m, "k", map[string]int{"a": 1}, time.Minute); err != nil {
		t.Fatal(err)
	}
	var got map[string]int
	found, err := GetObject(ctx, m, "k", &got)
	if err != nil || !found || got["a"] != 1 {
		t.Fatalf("GetObject = %v %v %v", got, found, err)
	}

	// re-setting under another ttl must not leave the old value behind
	_ = m.Set(ctx, "k", []byte(`{"a":2}`), time.Hour)
	_, _ = GetObject(ctx, m, "k", &got)
	if got["a"] != 2 {
		t.Fatalf("want updated value, got %v", got)
	}

	_ = m.Delete(ctx, "k")
	if found, _ := GetObject(ctx, m, "k", &got); found {
		t.Fatal("value survived Delete")
	}
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	_ = m.Set(ctx, "k", []byte("v"), 20*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("want expiry, got %v", err)
	}
}

func TestLocalLocker(t *testing.T) {
	ctx := context.Background()
	l := NewLocalLocker()
	unlock, err := l.Lock(ctx, "cat", time.Second)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := l.Lock(ctx, "cat", time.Second); !errors.Is(err, ErrLocked) {
		t.Fatalf("want ErrLocked, got %v", err)
	}
	unlock()
	if _, err := l.Lock(ctx, "cat", time.Second); err != nil {
		t.Fatalf("lock after release: %v", err)
	}
}
