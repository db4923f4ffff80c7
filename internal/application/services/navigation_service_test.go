package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

func newNavService(st store.Store, at time.Time) *NavigationService {
	cache := newTestCache(testSessionID)
	svc := NewNavigationService(cache, st, nil, nil)
	svc.stalenessWindow = time.Hour
	svc.now = func() time.Time { return at }
	return svc
}

func bag(pairs map[string]string) uistate.ParamsBag {
	out := make(uistate.ParamsBag, len(pairs))
	for k, v := range pairs {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestSaveOverwritesPriorSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newNavService(st, time.Now().UTC())
	ctx := context.Background()

	svc.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{"selectedCapability": `7`}), 100, nil)
	svc.SaveCurrentState(ctx, testSessionID, "/vendors", bag(map[string]string{"selectedVendor": `"acme"`}), 250, nil)

	snap := svc.GetPreviousPage(ctx, testSessionID)
	if snap == nil {
		t.Fatal("expected a snapshot")
	}
	if snap.OriginPage != "/vendors" || snap.ScrollOffset != 250 {
		t.Errorf("first capture leaked through: %+v", snap)
	}
	if _, ok := snap.Params["selectedCapability"]; ok {
		t.Error("params from the overwritten capture survived")
	}
}

func TestGenerationIncrementsPerCapture(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newNavService(st, time.Now().UTC())
	ctx := context.Background()

	first := svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)
	second := svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)

	if second.Generation <= first.Generation {
		t.Errorf("generation did not advance: %d then %d", first.Generation, second.Generation)
	}
}

func TestStaleSnapshotDiscardedAtHydration(t *testing.T) {
	st := store.NewMemoryStore()
	t0 := time.Now().UTC()
	ctx := context.Background()

	svc := newNavService(st, t0)
	svc.SaveCurrentState(ctx, testSessionID, "/reports", bag(map[string]string{"selectedCapability": `7`}), 0, nil)

	// Fresh process 61 minutes later.
	later := newNavService(st, t0.Add(61*time.Minute))
	if snap := later.GetPreviousPage(ctx, testSessionID); snap != nil {
		t.Fatalf("stale snapshot served after hydration: %+v", snap)
	}

	// The stale copy is removed from storage, not merely skipped.
	if _, found, _ := st.Get(ctx, testSessionID, store.KeyNavigationSnapshot); found {
		t.Error("stale snapshot still in storage")
	}
}

func TestFreshSnapshotSurvivesRestart(t *testing.T) {
	st := store.NewMemoryStore()
	t0 := time.Now().UTC()
	ctx := context.Background()

	svc := newNavService(st, t0)
	svc.SaveCurrentState(ctx, testSessionID, "/reports", bag(map[string]string{
		"selectedCapability": `7`,
		"selectedVendors":    `["a","b"]`,
	}), 0, &uistate.DialogDescriptor{Kind: "attributeDetail", Payload: json.RawMessage(`{"id":42}`)})

	later := newNavService(st, t0.Add(5*time.Minute))
	snap := later.GetPreviousPage(ctx, testSessionID)
	if snap == nil {
		t.Fatal("fresh snapshot lost across restart")
	}
	if snap.OriginPage != "/reports" {
		t.Errorf("originPage %q", snap.OriginPage)
	}
	if snap.OpenDialog == nil || snap.OpenDialog.Kind != "attributeDetail" {
		t.Errorf("dialog descriptor lost: %+v", snap.OpenDialog)
	}
}

func TestSnapshotRecoveredWithoutWarmSessionCache(t *testing.T) {
	st := store.NewMemoryStore()
	t0 := time.Now().UTC()
	ctx := context.Background()

	svc := newNavService(st, t0)
	svc.SaveCurrentState(ctx, testSessionID, "/reports", bag(map[string]string{"selectedVendor": `"acme"`}), 120, nil)

	// A restart with a stable signing secret leaves tokens valid while the
	// in-memory session cache starts empty. The persisted snapshot must still
	// come back for such a session without an explicit re-registration.
	coldCache := manager.NewManager(nil)
	later := NewNavigationService(coldCache, st, nil, nil)
	later.stalenessWindow = time.Hour
	later.now = func() time.Time { return t0.Add(5 * time.Minute) }

	snap := later.GetPreviousPage(ctx, testSessionID)
	if snap == nil {
		t.Fatal("persisted snapshot unreachable without a warm session cache")
	}
	if snap.OriginPage != "/reports" || snap.ScrollOffset != 120 {
		t.Errorf("recovered snapshot mismatch: %+v", snap)
	}
}

func TestNoStalenessRecheckAfterHydration(t *testing.T) {
	st := store.NewMemoryStore()
	t0 := time.Now().UTC()
	ctx := context.Background()

	svc := newNavService(st, t0)
	svc.SaveCurrentState(ctx, testSessionID, "/reports", nil, 0, nil)

	// Time passes well beyond the window, same process.
	svc.now = func() time.Time { return t0.Add(3 * time.Hour) }

	if snap := svc.GetPreviousPage(ctx, testSessionID); snap == nil {
		t.Error("hydrated snapshot must stay readable for its in-memory lifetime")
	}
}

func TestClearNavigationState(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newNavService(st, time.Now().UTC())
	ctx := context.Background()

	svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)
	svc.ClearNavigationState(ctx, testSessionID)

	if snap := svc.GetPreviousPage(ctx, testSessionID); snap != nil {
		t.Errorf("snapshot survived clear: %+v", snap)
	}
	if _, found, _ := st.Get(ctx, testSessionID, store.KeyNavigationSnapshot); found {
		t.Error("persisted snapshot survived clear")
	}
}

func TestGenerationCheckedClear(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newNavService(st, time.Now().UTC())
	ctx := context.Background()

	first := svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)

	// A newer capture lands during the grace interval.
	second := svc.SaveCurrentState(ctx, testSessionID, "/vendors", nil, 0, nil)

	if cleared := svc.ClearIfGeneration(ctx, testSessionID, first.Generation); cleared {
		t.Error("deferred clear fired against a recaptured slot")
	}

	snap := svc.GetPreviousPage(ctx, testSessionID)
	if snap == nil || snap.Generation != second.Generation {
		t.Fatalf("newer capture lost: %+v", snap)
	}

	// With no intervening capture the clear goes through.
	if cleared := svc.ClearIfGeneration(ctx, testSessionID, second.Generation); !cleared {
		t.Error("deferred clear should fire for the resident generation")
	}
	if snap := svc.GetPreviousPage(ctx, testSessionID); snap != nil {
		t.Errorf("snapshot survived its own deferred clear: %+v", snap)
	}
	if _, found, _ := st.Get(ctx, testSessionID, store.KeyNavigationSnapshot); found {
		t.Error("persisted copy survived deferred clear")
	}
}

func TestGenerationSeededFromPersistedSnapshot(t *testing.T) {
	st := store.NewMemoryStore()
	t0 := time.Now().UTC()
	ctx := context.Background()

	svc := newNavService(st, t0)
	svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)
	persisted := svc.SaveCurrentState(ctx, testSessionID, "/capabilities", nil, 0, nil)

	later := newNavService(st, t0.Add(time.Minute))
	next := later.SaveCurrentState(ctx, testSessionID, "/vendors", nil, 0, nil)

	if next.Generation <= persisted.Generation {
		t.Errorf("generation regressed across restart: %d then %d", persisted.Generation, next.Generation)
	}
}
