package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
	"github.com/VendorLens/vendorlens-go/pkg/config"
)

// NavigationService owns the single-slot return-address snapshot per session.
// Captures overwrite unconditionally; staleness is judged exactly once, when
// the slot is first hydrated from the persistent store.
type NavigationService struct {
	cache       interfaces.Cache
	store       store.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	// Monotonic generation counters per session. Survives across captures
	// within a process; seeded from the persisted snapshot on hydration.
	genMu       sync.Mutex
	generations map[string]uint64

	// Overridable in tests.
	stalenessWindow time.Duration
	graceDelay      time.Duration
	now             func() time.Time
}

// NewNavigationService creates the navigation state service
func NewNavigationService(cache interfaces.Cache, st store.Store, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *NavigationService {
	return &NavigationService{
		cache:           cache,
		store:           st,
		logger:          logger,
		perfTracker:     perfTracker,
		generations:     make(map[string]uint64),
		stalenessWindow: config.SnapshotStalenessWindow,
		graceDelay:      config.ClearGraceDelay,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// SaveCurrentState captures a new return-address snapshot, replacing any
// prior one. It never fails visibly: a persistence error is logged and the
// in-memory mirror stays authoritative.
func (n *NavigationService) SaveCurrentState(ctx context.Context, sessionID, originPage string, params uistate.ParamsBag, scrollOffset int, dialog *uistate.DialogDescriptor) *uistate.NavigationSnapshot {
	start := n.now()
	var marker *performance.Marker
	if n.perfTracker != nil {
		marker = n.perfTracker.StartOperation("state:capture", sessionID)
		defer n.perfTracker.CompleteOperation(marker)
	}

	n.ensureHydrated(ctx, sessionID)

	snapshot := &uistate.NavigationSnapshot{
		OriginPage:   originPage,
		Params:       params.Clone(),
		ScrollOffset: scrollOffset,
		OpenDialog:   dialog,
		CapturedAt:   start,
		Generation:   n.nextGeneration(sessionID),
	}

	n.cache.SetSnapshot(sessionID, snapshot)
	n.persistSnapshot(ctx, sessionID, snapshot)

	if n.logger != nil {
		n.logger.LogStateOperation("capture", originPage, sessionID, snapshot.Generation, time.Since(start))
	}
	return snapshot
}

// GetPreviousPage returns the resident snapshot, or nil when the slot is
// empty. Deliberately no staleness re-check here: a hydrated snapshot stays
// valid for its in-memory lifetime.
func (n *NavigationService) GetPreviousPage(ctx context.Context, sessionID string) *uistate.NavigationSnapshot {
	start := n.now()
	var marker *performance.Marker
	if n.perfTracker != nil {
		marker = n.perfTracker.StartOperation("state:read", sessionID)
		defer n.perfTracker.CompleteOperation(marker)
	}

	n.ensureHydrated(ctx, sessionID)

	snapshot, _ := n.cache.GetSnapshot(sessionID)
	if snapshot == nil || snapshot.OriginPage == "" {
		return nil
	}

	if n.logger != nil {
		n.logger.LogStateOperation("read", snapshot.OriginPage, sessionID, snapshot.Generation, time.Since(start))
	}
	return snapshot
}

// ClearNavigationState empties the slot immediately, in memory and at rest.
func (n *NavigationService) ClearNavigationState(ctx context.Context, sessionID string) {
	start := n.now()
	var marker *performance.Marker
	if n.perfTracker != nil {
		marker = n.perfTracker.StartOperation("state:clear", sessionID)
		defer n.perfTracker.CompleteOperation(marker)
	}

	n.cache.ClearSnapshot(sessionID)
	if err := n.store.Remove(ctx, sessionID, store.KeyNavigationSnapshot); err != nil && n.logger != nil {
		n.logger.LogError(logging.ChannelStorage, "state:clear", err, sessionID, nil)
	}

	if n.logger != nil {
		n.logger.LogStateOperation("clear", "", sessionID, 0, time.Since(start))
	}
}

// ScheduleClear arms the grace-delayed clear for a consumed snapshot. The
// clear only fires if the slot still holds the consumed generation; a newer
// capture during the grace interval survives.
func (n *NavigationService) ScheduleClear(sessionID string, generation uint64) {
	time.AfterFunc(n.graceDelay, func() {
		n.ClearIfGeneration(context.Background(), sessionID, generation)
	})
}

// ClearIfGeneration performs the generation-checked clear. Exposed separately
// so the race semantics are directly testable without timers.
func (n *NavigationService) ClearIfGeneration(ctx context.Context, sessionID string, generation uint64) bool {
	if !n.cache.ClearSnapshotIfGeneration(sessionID, generation) {
		if n.logger != nil {
			n.logger.State().Debug("Deferred clear skipped, slot was recaptured",
				"sessionId", logging.SanitizeSessionID(sessionID),
				"generation", generation,
			)
		}
		return false
	}

	if err := n.store.Remove(ctx, sessionID, store.KeyNavigationSnapshot); err != nil && n.logger != nil {
		n.logger.LogError(logging.ChannelStorage, "state:deferred_clear", err, sessionID, nil)
	}

	if n.logger != nil {
		n.logger.LogStateOperation("deferred_clear", "", sessionID, generation, 0)
	}
	return true
}

// ensureHydrated loads the persisted snapshot into the slot on first touch.
// A snapshot past the staleness window is discarded here, and only here.
func (n *NavigationService) ensureHydrated(ctx context.Context, sessionID string) {
	if _, hydrated := n.cache.GetSnapshot(sessionID); hydrated {
		return
	}

	var marker *performance.Marker
	if n.perfTracker != nil {
		marker = n.perfTracker.StartOperation("state:hydrate", sessionID)
		defer n.perfTracker.CompleteOperation(marker)
	}

	raw, found, err := n.store.Get(ctx, sessionID, store.KeyNavigationSnapshot)
	if err != nil {
		if n.logger != nil {
			n.logger.LogError(logging.ChannelStorage, "state:hydrate", err, sessionID, nil)
		}
		n.cache.HydrateSnapshot(sessionID, nil)
		return
	}
	if !found {
		n.cache.HydrateSnapshot(sessionID, nil)
		return
	}

	var snapshot uistate.NavigationSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		if n.logger != nil {
			n.logger.State().Warn("Persisted snapshot unreadable, discarding",
				"sessionId", logging.SanitizeSessionID(sessionID),
				"error", err.Error(),
			)
		}
		n.removePersisted(ctx, sessionID)
		n.cache.HydrateSnapshot(sessionID, nil)
		return
	}

	if snapshot.IsStale(n.now(), n.stalenessWindow) {
		if n.logger != nil {
			n.logger.State().Debug("Persisted snapshot stale at hydration, discarding",
				"sessionId", logging.SanitizeSessionID(sessionID),
				"capturedAt", snapshot.CapturedAt,
				"window", n.stalenessWindow,
			)
		}
		n.removePersisted(ctx, sessionID)
		n.cache.HydrateSnapshot(sessionID, nil)
		return
	}

	n.seedGeneration(sessionID, snapshot.Generation)
	n.cache.HydrateSnapshot(sessionID, &snapshot)
}

func (n *NavigationService) persistSnapshot(ctx context.Context, sessionID string, snapshot *uistate.NavigationSnapshot) {
	blob, err := json.Marshal(snapshot)
	if err != nil {
		if n.logger != nil {
			n.logger.LogError(logging.ChannelState, "state:persist", err, sessionID, nil)
		}
		return
	}
	if err := n.store.Set(ctx, sessionID, store.KeyNavigationSnapshot, blob); err != nil && n.logger != nil {
		n.logger.LogError(logging.ChannelStorage, "state:persist", err, sessionID, nil)
	}
}

func (n *NavigationService) removePersisted(ctx context.Context, sessionID string) {
	if err := n.store.Remove(ctx, sessionID, store.KeyNavigationSnapshot); err != nil && n.logger != nil {
		n.logger.LogError(logging.ChannelStorage, "state:remove", err, sessionID, nil)
	}
}

func (n *NavigationService) nextGeneration(sessionID string) uint64 {
	n.genMu.Lock()
	defer n.genMu.Unlock()
	n.generations[sessionID]++
	return n.generations[sessionID]
}

func (n *NavigationService) seedGeneration(sessionID string, generation uint64) {
	n.genMu.Lock()
	defer n.genMu.Unlock()
	if n.generations[sessionID] < generation {
		n.generations[sessionID] = generation
	}
}
