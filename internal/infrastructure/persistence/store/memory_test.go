package store

import (
	"context"
	"testing"
)

func TestMemoryStoreRoundTrip(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, found, err := s.Get(ctx, "sess-1", KeyNavigationSnapshot); err != nil || found {
		t.Fatalf("expected miss on empty store, got found=%v err=%v", found, err)
	}

	if err := s.Set(ctx, "sess-1", KeyNavigationSnapshot, []byte(`{"originPage":"/capabilities"}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	value, found, err := s.Get(ctx, "sess-1", KeyNavigationSnapshot)
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if string(value) != `{"originPage":"/capabilities"}` {
		t.Errorf("unexpected value: %s", value)
	}
}

func TestMemoryStoreSessionIsolation(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Set(ctx, "sess-a", SettingsKey("capabilities-settings"), []byte(`{"viewMode":"grid"}`)); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	if _, found, _ := s.Get(ctx, "sess-b", SettingsKey("capabilities-settings")); found {
		t.Error("value leaked across sessions")
	}
}

func TestMemoryStoreRemove(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if err := s.Remove(ctx, "sess-1", "missing"); err != nil {
		t.Fatalf("removing a missing key should not error: %v", err)
	}

	s.Set(ctx, "sess-1", KeyNavigationSnapshot, []byte(`{}`))
	s.Set(ctx, "sess-1", SettingsKey("vendors-settings"), []byte(`{}`))

	if err := s.Remove(ctx, "sess-1", KeyNavigationSnapshot); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if _, found, _ := s.Get(ctx, "sess-1", KeyNavigationSnapshot); found {
		t.Error("removed key still present")
	}
	if _, found, _ := s.Get(ctx, "sess-1", SettingsKey("vendors-settings")); !found {
		t.Error("unrelated key removed")
	}

	if err := s.RemoveSession(ctx, "sess-1"); err != nil {
		t.Fatalf("remove session failed: %v", err)
	}
	if _, found, _ := s.Get(ctx, "sess-1", SettingsKey("vendors-settings")); found {
		t.Error("session keys survived RemoveSession")
	}
}

func TestMemoryStoreGetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	s.Set(ctx, "sess-1", "k", []byte("abc"))
	value, _, _ := s.Get(ctx, "sess-1", "k")
	value[0] = 'z'

	again, _, _ := s.Get(ctx, "sess-1", "k")
	if string(again) != "abc" {
		t.Errorf("stored value mutated through returned slice: %s", again)
	}
}
