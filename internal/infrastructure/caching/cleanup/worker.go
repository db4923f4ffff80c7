// Package cleanup provides background worker
package cleanup

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

// Worker handles background cache cleanup operations
type Worker struct {
	cache  interfaces.Cache
	store  store.Store
	config *Config
}

// NewWorker creates a new cleanup worker with injected configuration
func NewWorker(cache interfaces.Cache, st store.Store, config *Config) *Worker {
	return &Worker{
		cache:  cache,
		store:  st,
		config: config,
	}
}

// Start begins the cleanup worker routine, using the configured interval
func (w *Worker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.config.CleanupInterval)
	defer ticker.Stop()

	log.Printf("Cache cleanup worker started (interval: %v, verbose: %v)",
		w.config.CleanupInterval, w.config.VerboseReporting)

	for {
		select {
		case <-ctx.Done():
			log.Println("Cache cleanup worker stopping...")
			return
		case <-ticker.C:
			w.performCleanup(ctx)
		}
	}
}

// performCleanup executes cleanup across all cached sessions
func (w *Worker) performCleanup(ctx context.Context) {
	start := time.Now()
	reporter := NewReporter(w.cache)

	sessionIDs := w.cache.GetAllSessionIDs()

	if w.config.VerboseReporting {
		reporter.LogStage("PERIODIC CACHE CLEANUP")
		for _, sessionID := range sessionIDs {
			fmt.Print(reporter.GenerateSessionReport(sessionID))
		}
	}

	now := time.Now().UTC()
	var expiredSessions, purgedMounts, staleSnapshots int

	for _, sessionID := range sessionIDs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if sess, found := w.cache.GetSession(sessionID); found && sess.IsExpired(now) {
			w.cache.RemoveSession(sessionID)
			// Expired sessions take their persisted state with them.
			if w.store != nil {
				if err := w.store.RemoveSession(ctx, sessionID); err != nil {
					reporter.LogWarning("Failed to purge persisted state for expired session: %v", err)
				}
			}
			expiredSessions++
			continue
		}

		staleSnapshots += w.purgeStaleSnapshot(ctx, sessionID, now, reporter)
		purgedMounts += w.cache.PurgeMountStates(sessionID, now, w.config.MountStateTTL)
	}

	evicted := w.enforceSessionLimit()

	duration := time.Since(start)
	totalCleaned := expiredSessions + purgedMounts + staleSnapshots + evicted
	if totalCleaned > 0 {
		reporter.LogSuccess("Cache cleanup finished: %d sessions expired, %d mount states purged, %d stale snapshots purged, %d sessions evicted in %v",
			expiredSessions, purgedMounts, staleSnapshots, evicted, duration)
	} else if w.config.VerboseReporting {
		reporter.LogInfo("Cache cleanup completed - no expired items found (%v)", duration)
	}
}

// purgeStaleSnapshot drops a session's navigation snapshot from the cache and
// the persistent store once it ages past the staleness window. Hydration only
// checks staleness when a snapshot is first loaded, so long-lived sessions rely
// on this sweep to shed snapshots that went stale while resident in memory.
// Saves write the mirror and the store together, so the persisted row's
// capturedAt covers both copies. Returns 1 if anything was purged.
func (w *Worker) purgeStaleSnapshot(ctx context.Context, sessionID string, now time.Time, reporter *Reporter) int {
	if w.config.StalenessWindow <= 0 || w.store == nil {
		return 0
	}

	raw, found, err := w.store.Get(ctx, sessionID, store.KeyNavigationSnapshot)
	if err != nil {
		reporter.LogWarning("Failed to read persisted snapshot during cleanup: %v", err)
		return 0
	}
	if !found {
		return 0
	}

	var persisted uistate.NavigationSnapshot
	if err := json.Unmarshal(raw, &persisted); err != nil {
		// Undecodable rows can never hydrate; drop the row but leave the
		// resident snapshot alone.
		if err := w.store.Remove(ctx, sessionID, store.KeyNavigationSnapshot); err != nil {
			reporter.LogWarning("Failed to purge undecodable persisted snapshot: %v", err)
			return 0
		}
		return 1
	}

	if !persisted.IsStale(now, w.config.StalenessWindow) {
		return 0
	}

	if err := w.store.Remove(ctx, sessionID, store.KeyNavigationSnapshot); err != nil {
		reporter.LogWarning("Failed to purge stale persisted snapshot: %v", err)
		return 0
	}
	w.cache.ClearSnapshot(sessionID)
	return 1
}

// enforceSessionLimit evicts least recently accessed sessions beyond
// MaxSessions. Eviction is a memory-pressure measure and touches only the
// in-memory mirror: the persisted rows stay, and the next request for an
// evicted session hydrates them back. Persisted state is removed only when a
// session expires or its snapshot goes stale, never on eviction.
func (w *Worker) enforceSessionLimit() int {
	if w.config.MaxSessions <= 0 {
		return 0
	}

	mgr, ok := w.cache.(*manager.Manager)
	if !ok {
		return 0
	}

	excess := mgr.SessionCount() - w.config.MaxSessions
	if excess <= 0 {
		return 0
	}

	type access struct {
		sessionID string
		at        time.Time
	}

	mgr.Mu.RLock()
	accesses := make([]access, 0, len(mgr.LastAccessed))
	for sessionID, at := range mgr.LastAccessed {
		accesses = append(accesses, access{sessionID, at})
	}
	mgr.Mu.RUnlock()

	sort.Slice(accesses, func(i, j int) bool {
		return accesses[i].at.Before(accesses[j].at)
	})

	evicted := 0
	for _, a := range accesses {
		if evicted >= excess {
			break
		}
		w.cache.RemoveSession(a.sessionID)
		evicted++
	}
	return evicted
}
