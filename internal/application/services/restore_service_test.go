package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/types"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

type restoreFixture struct {
	cache   *manager.Manager
	store   *store.MemoryStore
	nav     *NavigationService
	restore *RestoreService
}

func newRestoreFixture(t *testing.T) *restoreFixture {
	t.Helper()
	cache := newTestCache(testSessionID)
	st := store.NewMemoryStore()
	nav := NewNavigationService(cache, st, nil, nil)
	nav.stalenessWindow = time.Hour
	// Keep timers out of tests; generation-checked clears are invoked directly.
	nav.graceDelay = time.Hour
	return &restoreFixture{
		cache:   cache,
		store:   st,
		nav:     nav,
		restore: NewRestoreService(cache, nav, nil, nil),
	}
}

func TestResolveRequiresIdentifiers(t *testing.T) {
	f := newRestoreFixture(t)

	if _, err := f.restore.Resolve(context.Background(), testSessionID, ResolveRequest{Page: "/vendors"}); err == nil {
		t.Error("missing mountId should be rejected")
	}
	if _, err := f.restore.Resolve(context.Background(), testSessionID, ResolveRequest{MountID: "m1"}); err == nil {
		t.Error("missing page should be rejected")
	}
}

func TestResolveWaitsForPrerequisiteData(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{"selectedCapability": `7`}), 0, nil)

	result, err := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: false,
	})
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if result.Phase != types.PhaseInit || result.Apply != nil {
		t.Errorf("not-ready mount must stay INIT with nothing applied: %+v", result)
	}

	// The mount is not consumed; a later poll with data ready restores.
	result, _ = f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: true,
	})
	if result.Phase != types.PhaseRestoredFromFallback {
		t.Errorf("expected fallback restore after data loads, got %v", result.Phase)
	}
}

func TestResolveIdempotentPerMount(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{"selectedCapability": `7`}), 0, nil)

	req := ResolveRequest{Page: "/capabilities", MountID: "m1", DataReady: true}

	first, _ := f.restore.Resolve(ctx, testSessionID, req)
	if first.Phase != types.PhaseRestoredFromFallback {
		t.Fatalf("first resolve: %v", first.Phase)
	}

	second, _ := f.restore.Resolve(ctx, testSessionID, req)
	if second.Phase != types.PhaseIdle || second.Apply != nil || second.OpenDialog != nil {
		t.Errorf("second resolve must be a no-op IDLE: %+v", second)
	}
}

func TestRouterStateWinsOverFallback(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{"searchTerm": `"from-fallback"`}), 0, nil)

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: true,
		RouterState: &RouterState{Params: bag(map[string]string{"searchTerm": `"from-router"`})},
	})

	if result.Phase != types.PhaseRestoredFromRouter || result.Source != "router" {
		t.Fatalf("router channel should win: %+v", result)
	}
	if string(result.Apply["searchTerm"]) != `"from-router"` {
		t.Errorf("applied %s", result.Apply["searchTerm"])
	}
	if !result.StripRouterState {
		t.Error("router path must direct the client to strip its history state")
	}
	if result.ClearScheduled {
		t.Error("router path must not schedule a fallback clear")
	}

	// The fallback snapshot is untouched; the channels never merge.
	if snap := f.nav.GetPreviousPage(ctx, testSessionID); snap == nil {
		t.Error("fallback snapshot consumed by router-path restore")
	}
}

func TestFallbackRestoreWithDialogAndScroll(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/reports", bag(map[string]string{
		"selectedCapability": `7`,
		"selectedVendors":    `["a","b"]`,
	}), 480, &uistate.DialogDescriptor{Kind: "attributeDetail", Payload: json.RawMessage(`{"id":42}`)})

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/reports", MountID: "m1", DataReady: true,
	})

	if result.Phase != types.PhaseRestoredFromFallback || result.Source != "fallback" {
		t.Fatalf("expected fallback restore: %+v", result)
	}
	if string(result.Apply["selectedCapability"]) != `7` {
		t.Errorf("selectedCapability: %s", result.Apply["selectedCapability"])
	}
	if result.OpenDialog == nil || result.OpenDialog.Kind != "attributeDetail" {
		t.Errorf("dialog directive missing: %+v", result.OpenDialog)
	}
	if result.ScrollTo == nil || *result.ScrollTo != 480 {
		t.Errorf("scroll directive missing: %+v", result.ScrollTo)
	}
	if !result.ClearScheduled {
		t.Error("fallback restore must schedule the grace-delayed clear")
	}
}

func TestPartialRestoreAppliesOnlyPresentKeys(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities",
		bag(map[string]string{"selectedVendors": `["acme"]`}), 0, nil)

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: true,
	})

	if len(result.Apply) != 1 {
		t.Fatalf("expected exactly one applied field, got %v", result.Apply)
	}
	if _, ok := result.Apply["selectedVendors"]; !ok {
		t.Error("selectedVendors missing from apply set")
	}
}

func TestDialogDescriptorBeatsLegacyParam(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{
		"selectedCapability":      `7`,
		"selectedAttributeDetail": `{"id":99}`,
	}), 0, &uistate.DialogDescriptor{Kind: "attributeDetail", Payload: json.RawMessage(`{"id":42}`)})

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: true,
	})

	if result.OpenDialog == nil || string(result.OpenDialog.Payload) != `{"id":42}` {
		t.Fatalf("descriptor must drive the dialog: %+v", result.OpenDialog)
	}
	if _, ok := result.Apply["selectedAttributeDetail"]; ok {
		t.Error("legacy dialog param applied alongside the descriptor")
	}
}

func TestLegacyParamDrivesDialogWhenNoDescriptor(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities", bag(map[string]string{
		"selectedAttributeDetail": `{"id":99}`,
	}), 0, nil)

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/capabilities", MountID: "m1", DataReady: true,
	})

	if _, ok := result.Apply["selectedAttributeDetail"]; !ok {
		t.Error("legacy dialog param should apply when no descriptor exists")
	}
}

func TestRouteMismatchLeavesSnapshotIntact(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/capabilities",
		bag(map[string]string{"selectedCapability": `7`}), 0, nil)

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/vendors", MountID: "m1", DataReady: true,
	})

	if result.Phase != types.PhaseIdle || result.Apply != nil {
		t.Errorf("mismatched route must apply nothing: %+v", result)
	}
	if result.ClearScheduled {
		t.Error("mismatched route must not schedule a clear")
	}

	// Snapshot still present in memory and at rest.
	if snap := f.nav.GetPreviousPage(ctx, testSessionID); snap == nil {
		t.Error("snapshot cleared on route mismatch")
	}
	if _, found, _ := f.store.Get(ctx, testSessionID, store.KeyNavigationSnapshot); !found {
		t.Error("persisted snapshot removed on route mismatch")
	}
}

func TestUnknownPageAppliesNothing(t *testing.T) {
	f := newRestoreFixture(t)
	ctx := context.Background()

	f.nav.SaveCurrentState(ctx, testSessionID, "/surprise",
		bag(map[string]string{"anything": `1`}), 0, nil)

	result, _ := f.restore.Resolve(ctx, testSessionID, ResolveRequest{
		Page: "/surprise", MountID: "m1", DataReady: true,
	})

	if result.Phase != types.PhaseRestoredFromFallback {
		t.Fatalf("origin matches, restore should proceed: %v", result.Phase)
	}
	if len(result.Apply) != 0 {
		t.Errorf("undeclared keys must never be applied: %v", result.Apply)
	}
}
