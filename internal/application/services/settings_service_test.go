package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

const testSessionID = "01J8TESTSESSION0000000000A"

func newTestCache(sessionID string) *manager.Manager {
	cache := manager.NewManager(nil)
	now := time.Now().UTC()
	cache.InitializeSession(&session.Session{
		SessionID:    sessionID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(24 * time.Hour),
	})
	return cache
}

func TestSettingsLoadDefaultsWhenAbsent(t *testing.T) {
	cache := newTestCache(testSessionID)
	svc := NewSettingsService(cache, store.NewMemoryStore(), nil, nil)

	rec := svc.Load(context.Background(), testSessionID, "capabilities-settings")

	want := uistate.DefaultSettings("capabilities-settings")
	if rec != want {
		t.Errorf("expected defaults %+v, got %+v", want, rec)
	}
}

func TestSettingsLoadCorruptBlobReturnsDefaults(t *testing.T) {
	cache := newTestCache(testSessionID)
	st := store.NewMemoryStore()
	ctx := context.Background()

	st.Set(ctx, testSessionID, store.SettingsKey("capabilities-settings"), []byte(`{not json`))

	svc := NewSettingsService(cache, st, nil, nil)
	rec := svc.Load(ctx, testSessionID, "capabilities-settings")

	if rec != uistate.DefaultSettings("capabilities-settings") {
		t.Errorf("corrupt blob should yield defaults, got %+v", rec)
	}
}

func TestSettingsLoadPartialBlobMergesFieldwise(t *testing.T) {
	cache := newTestCache(testSessionID)
	st := store.NewMemoryStore()
	ctx := context.Background()

	// sortKey has the wrong type and must fall back individually.
	st.Set(ctx, testSessionID, store.SettingsKey("vendors-settings"),
		[]byte(`{"searchTerm":"acme","sortKey":123,"showFilterPanel":true}`))

	svc := NewSettingsService(cache, st, nil, nil)
	rec := svc.Load(ctx, testSessionID, "vendors-settings")

	defaults := uistate.DefaultSettings("vendors-settings")
	if rec.SearchTerm != "acme" {
		t.Errorf("searchTerm not applied: %q", rec.SearchTerm)
	}
	if !rec.ShowFilterPanel {
		t.Error("showFilterPanel not applied")
	}
	if rec.SortKey != defaults.SortKey {
		t.Errorf("malformed sortKey should keep default %q, got %q", defaults.SortKey, rec.SortKey)
	}
	if rec.ViewMode != defaults.ViewMode {
		t.Errorf("absent viewMode should keep default %q, got %q", defaults.ViewMode, rec.ViewMode)
	}
}

func TestSettingsSaveThenLoad(t *testing.T) {
	cache := newTestCache(testSessionID)
	st := store.NewMemoryStore()
	ctx := context.Background()
	svc := NewSettingsService(cache, st, nil, nil)

	svc.Save(ctx, testSessionID, "capabilities-settings", map[string]json.RawMessage{
		"viewMode": json.RawMessage(`"list"`),
	})

	rec := svc.Load(ctx, testSessionID, "capabilities-settings")
	defaults := uistate.DefaultSettings("capabilities-settings")

	if rec.ViewMode != "list" {
		t.Errorf("viewMode not saved: %q", rec.ViewMode)
	}
	if rec.SearchTerm != defaults.SearchTerm || rec.SortKey != defaults.SortKey {
		t.Errorf("untouched fields drifted from defaults: %+v", rec)
	}

	// Persisted blob should reflect the merge too.
	raw, found, err := st.Get(ctx, testSessionID, store.SettingsKey("capabilities-settings"))
	if err != nil || !found {
		t.Fatalf("merged settings not persisted: found=%v err=%v", found, err)
	}
	persisted, _ := uistate.DecodeSettings(raw, defaults)
	if persisted.ViewMode != "list" {
		t.Errorf("persisted viewMode %q", persisted.ViewMode)
	}
}

func TestSettingsClearResetsAndRemoves(t *testing.T) {
	cache := newTestCache(testSessionID)
	st := store.NewMemoryStore()
	ctx := context.Background()
	svc := NewSettingsService(cache, st, nil, nil)

	svc.Save(ctx, testSessionID, "reports-settings", map[string]json.RawMessage{
		"searchTerm": json.RawMessage(`"q3 spend"`),
	})
	svc.Clear(ctx, testSessionID, "reports-settings")

	rec := svc.Load(ctx, testSessionID, "reports-settings")
	if rec != uistate.DefaultSettings("reports-settings") {
		t.Errorf("clear did not reset to defaults: %+v", rec)
	}
	if _, found, _ := st.Get(ctx, testSessionID, store.SettingsKey("reports-settings")); found {
		t.Error("persisted blob survived clear")
	}
}

// failingStore errors on every persistence call but serves nothing.
type failingStore struct{}

var errStoreDown = errors.New("store down")

func (failingStore) Get(context.Context, string, string) ([]byte, bool, error) {
	return nil, false, errStoreDown
}
func (failingStore) Set(context.Context, string, string, []byte) error { return errStoreDown }
func (failingStore) Remove(context.Context, string, string) error      { return errStoreDown }
func (failingStore) RemoveSession(context.Context, string) error       { return errStoreDown }
func (failingStore) Ping(context.Context) error                        { return errStoreDown }
func (failingStore) Close() error                                      { return nil }

func TestSettingsSurviveStoreFailure(t *testing.T) {
	cache := newTestCache(testSessionID)
	ctx := context.Background()
	svc := NewSettingsService(cache, failingStore{}, nil, nil)

	rec := svc.Load(ctx, testSessionID, "capabilities-settings")
	if rec != uistate.DefaultSettings("capabilities-settings") {
		t.Errorf("load should serve defaults when the store errors, got %+v", rec)
	}

	merged := svc.Save(ctx, testSessionID, "capabilities-settings", map[string]json.RawMessage{
		"viewMode": json.RawMessage(`"list"`),
	})
	if merged.ViewMode != "list" {
		t.Errorf("save should still merge in memory, got %+v", merged)
	}

	// The in-memory record stays authoritative across the failed write.
	rec = svc.Load(ctx, testSessionID, "capabilities-settings")
	if rec.ViewMode != "list" {
		t.Errorf("in-memory record lost after failed persist: %+v", rec)
	}
}
