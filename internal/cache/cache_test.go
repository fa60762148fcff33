package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemoryExpiry(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewMemory()
	m.now = func() time.Time { return now }
	ctx := context.Background()

	if err := m.Set(ctx, "summary:b1:2024-03", "v", time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if v, ok := m.Get(ctx, "summary:b1:2024-03"); !ok || v != "v" {
		t.Fatalf("Get = %q, %v", v, ok)
	}

	now = now.Add(time.Minute)
	if _, ok := m.Get(ctx, "summary:b1:2024-03"); ok {
		t.Error("expected entry to expire")
	}
}

func TestMemoryDeletePrefix(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	m.Set(ctx, "summary:b1:2024-03", "a", 0)
	m.Set(ctx, "summary:b1:2024-04", "b", 0)
	m.Set(ctx, "summary:b2:2024-03", "c", 0)

	if err := m.DeletePrefix(ctx, "summary:b1:"); err != nil {
		t.Fatalf("DeletePrefix failed: %v", err)
	}
	if _, ok := m.Get(ctx, "summary:b1:2024-04"); ok {
		t.Error("b1 entries should be gone")
	}
	if _, ok := m.Get(ctx, "summary:b2:2024-03"); !ok {
		t.Error("b2 entry should remain")
	}
}

func TestJSONHelpers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	type summary struct {
		Paid int `json:"paid"`
	}

	if err := SetJSON(ctx, m, "k", summary{Paid: 3}, time.Minute); err != nil {
		t.Fatalf("SetJSON failed: %v", err)
	}
	var got summary
	if !GetJSON(ctx, m, "k", &got) || got.Paid != 3 {
		t.Errorf("GetJSON = %+v", got)
	}

	m.Set(ctx, "bad", "{not json", 0)
	if GetJSON(ctx, m, "bad", &got) {
		t.Error("expected undecodable entry to miss")
	}
}
