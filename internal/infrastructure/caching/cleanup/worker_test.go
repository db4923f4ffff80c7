package cleanup

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

const (
	cleanupSessionA = "01J8CLEANUPSESSION00000000A"
	cleanupSessionB = "01J8CLEANUPSESSION00000000B"
)

func newWorkerConfig() *Config {
	return &Config{
		CleanupInterval: time.Minute,
		StalenessWindow: time.Hour,
		MountStateTTL:   time.Minute,
		MaxSessions:     0,
	}
}

func registerSession(mgr *manager.Manager, sessionID string, expiresAt time.Time) {
	now := time.Now().UTC()
	mgr.InitializeSession(&session.Session{
		SessionID:    sessionID,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    expiresAt,
	})
}

func persistSnapshot(t *testing.T, st store.Store, sessionID string, snap *uistate.NavigationSnapshot) {
	t.Helper()
	raw, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("marshal snapshot: %v", err)
	}
	if err := st.Set(context.Background(), sessionID, store.KeyNavigationSnapshot, raw); err != nil {
		t.Fatalf("persist snapshot: %v", err)
	}
}

func TestCleanupPurgesExpiredSessionEverywhere(t *testing.T) {
	mgr := manager.NewManager(nil)
	st := store.NewMemoryStore()
	ctx := context.Background()

	registerSession(mgr, cleanupSessionA, time.Now().UTC().Add(-time.Minute))
	persistSnapshot(t, st, cleanupSessionA, &uistate.NavigationSnapshot{
		OriginPage: "/reports", CapturedAt: time.Now().UTC(), Generation: 1,
	})
	st.Set(ctx, cleanupSessionA, store.SettingsKey("reports"), []byte(`{"params":{}}`))

	w := NewWorker(mgr, st, newWorkerConfig())
	w.performCleanup(ctx)

	if _, found := mgr.GetSession(cleanupSessionA); found {
		t.Error("expired session survived cleanup")
	}
	if _, found, _ := st.Get(ctx, cleanupSessionA, store.KeyNavigationSnapshot); found {
		t.Error("expired session's persisted snapshot survived cleanup")
	}
	if _, found, _ := st.Get(ctx, cleanupSessionA, store.SettingsKey("reports")); found {
		t.Error("expired session's persisted settings survived cleanup")
	}
}

func TestCleanupPurgesStaleSnapshotFromMirrorAndStore(t *testing.T) {
	mgr := manager.NewManager(nil)
	st := store.NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	registerSession(mgr, cleanupSessionA, now.Add(24*time.Hour))

	stale := &uistate.NavigationSnapshot{
		OriginPage: "/reports", CapturedAt: now.Add(-2 * time.Hour), Generation: 3,
	}
	mgr.SetSnapshot(cleanupSessionA, stale)
	persistSnapshot(t, st, cleanupSessionA, stale)
	st.Set(ctx, cleanupSessionA, store.SettingsKey("reports"), []byte(`{"params":{}}`))

	w := NewWorker(mgr, st, newWorkerConfig())
	w.performCleanup(ctx)

	if _, found, _ := st.Get(ctx, cleanupSessionA, store.KeyNavigationSnapshot); found {
		t.Error("stale persisted snapshot survived the sweep")
	}
	if snap, _ := mgr.GetSnapshot(cleanupSessionA); snap != nil {
		t.Errorf("stale resident snapshot survived the sweep: %+v", snap)
	}
	// Settings age independently of the snapshot window.
	if _, found, _ := st.Get(ctx, cleanupSessionA, store.SettingsKey("reports")); !found {
		t.Error("settings purged by the snapshot sweep")
	}
}

func TestCleanupKeepsFreshSnapshot(t *testing.T) {
	mgr := manager.NewManager(nil)
	st := store.NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	registerSession(mgr, cleanupSessionA, now.Add(24*time.Hour))

	fresh := &uistate.NavigationSnapshot{
		OriginPage: "/vendors", CapturedAt: now.Add(-5 * time.Minute), Generation: 1,
	}
	mgr.SetSnapshot(cleanupSessionA, fresh)
	persistSnapshot(t, st, cleanupSessionA, fresh)

	w := NewWorker(mgr, st, newWorkerConfig())
	w.performCleanup(ctx)

	if _, found, _ := st.Get(ctx, cleanupSessionA, store.KeyNavigationSnapshot); !found {
		t.Error("fresh persisted snapshot purged")
	}
	if snap, _ := mgr.GetSnapshot(cleanupSessionA); snap == nil || snap.OriginPage != "/vendors" {
		t.Errorf("fresh resident snapshot lost: %+v", snap)
	}
}

func TestCleanupDropsUndecodablePersistedSnapshot(t *testing.T) {
	mgr := manager.NewManager(nil)
	st := store.NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	registerSession(mgr, cleanupSessionA, now.Add(24*time.Hour))
	st.Set(ctx, cleanupSessionA, store.KeyNavigationSnapshot, []byte(`{not json`))

	w := NewWorker(mgr, st, newWorkerConfig())
	w.performCleanup(ctx)

	if _, found, _ := st.Get(ctx, cleanupSessionA, store.KeyNavigationSnapshot); found {
		t.Error("undecodable persisted snapshot survived the sweep")
	}
}

func TestEvictionLeavesPersistedState(t *testing.T) {
	mgr := manager.NewManager(nil)
	st := store.NewMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	registerSession(mgr, cleanupSessionA, now.Add(24*time.Hour))
	registerSession(mgr, cleanupSessionB, now.Add(24*time.Hour))
	persistSnapshot(t, st, cleanupSessionA, &uistate.NavigationSnapshot{
		OriginPage: "/reports", CapturedAt: now, Generation: 1,
	})

	// Pin the access order so the older session is the one evicted.
	mgr.Mu.Lock()
	mgr.LastAccessed[cleanupSessionA] = now.Add(-time.Hour)
	mgr.LastAccessed[cleanupSessionB] = now
	mgr.Mu.Unlock()

	cfg := newWorkerConfig()
	cfg.MaxSessions = 1
	w := NewWorker(mgr, st, cfg)

	if evicted := w.enforceSessionLimit(); evicted != 1 {
		t.Fatalf("expected one eviction, got %d", evicted)
	}

	if _, found := mgr.GetSession(cleanupSessionA); found {
		t.Error("least recently accessed session survived eviction")
	}
	if _, found := mgr.GetSession(cleanupSessionB); !found {
		t.Error("most recently accessed session was evicted")
	}
	// Eviction sheds memory only; the persisted rows hydrate back on the
	// session's next request.
	if _, found, _ := st.Get(ctx, cleanupSessionA, store.KeyNavigationSnapshot); !found {
		t.Error("eviction purged persisted state")
	}
}
