// Package stores provides concrete cache store implementations
package stores

import (
	"sync"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/types"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/pkg/config"
)

// UIStateStore implements UI state caching operations with session isolation
type UIStateStore struct {
	sessionCaches map[string]*types.SessionUIStateCache
	mu            sync.RWMutex
	logger        *logging.ChanneledLogger
}

// NewUIStateStore creates a new UI state cache store
func NewUIStateStore(logger *logging.ChanneledLogger) *UIStateStore {
	if logger != nil {
		logger.Cache().Info("Initializing UI state cache store")
	}
	return &UIStateStore{
		sessionCaches: make(map[string]*types.SessionUIStateCache),
		logger:        logger,
	}
}

// InitializeSession creates cache structures for a session
func (us *UIStateStore) InitializeSession(sess *session.Session) {
	start := time.Now()
	us.mu.Lock()
	defer us.mu.Unlock()

	if us.sessionCaches[sess.SessionID] == nil {
		us.sessionCaches[sess.SessionID] = &types.SessionUIStateCache{
			Session:        sess,
			Settings:       make(map[string]uistate.SettingsRecord),
			SettingsLoaded: make(map[string]bool),
			MountStates:    make(map[string]*types.MountState),
			LastLoaded:     time.Now().UTC(),
		}

		if us.logger != nil {
			us.logger.Cache().Info("Session UI state cache initialized", "sessionId", logging.SanitizeSessionID(sess.SessionID), "duration", time.Since(start))
		}
	}
}

// GetSessionCache safely retrieves a session's UI state cache
func (us *UIStateStore) GetSessionCache(sessionID string) (*types.SessionUIStateCache, bool) {
	us.mu.RLock()
	defer us.mu.RUnlock()
	cache, exists := us.sessionCaches[sessionID]
	return cache, exists
}

// getOrCreateSessionCache returns the session's cache, rebuilding the entry
// when a validated session reappears without one: after a process restart
// (tokens outlive the mirror) or after LRU eviction. The persisted store is
// the durable copy; the mirror must never be a prerequisite for reaching it.
func (us *UIStateStore) getOrCreateSessionCache(sessionID string) *types.SessionUIStateCache {
	us.mu.Lock()
	defer us.mu.Unlock()

	if cache, exists := us.sessionCaches[sessionID]; exists {
		return cache
	}

	now := time.Now().UTC()
	us.sessionCaches[sessionID] = &types.SessionUIStateCache{
		Session: &session.Session{
			SessionID:    sessionID,
			CreatedAt:    now,
			LastActivity: now,
			ExpiresAt:    now.Add(config.SessionIdleTTL),
		},
		Settings:       make(map[string]uistate.SettingsRecord),
		SettingsLoaded: make(map[string]bool),
		MountStates:    make(map[string]*types.MountState),
		LastLoaded:     now,
	}

	if us.logger != nil {
		us.logger.Cache().Info("Session UI state cache rebuilt", "sessionId", logging.SanitizeSessionID(sessionID))
	}
	return us.sessionCaches[sessionID]
}

// =============================================================================
// Session Operations
// =============================================================================

// GetSession retrieves the session entity for a session ID
func (us *UIStateStore) GetSession(sessionID string) (*session.Session, bool) {
	start := time.Now()
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		if us.logger != nil {
			us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "sessionId", logging.SanitizeSessionID(sessionID), "hit", false, "reason", "session_not_initialized", "duration", time.Since(start))
		}
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "session", "sessionId", logging.SanitizeSessionID(sessionID), "hit", true, "duration", time.Since(start))
	}
	return cache.Session, true
}

// TouchSession extends a session's activity window
func (us *UIStateStore) TouchSession(sessionID string, now time.Time, idleTTL time.Duration) bool {
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		return false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Session.Touch(now, idleTTL)
	return true
}

// RemoveSession removes a session's cache entirely
func (us *UIStateStore) RemoveSession(sessionID string) {
	start := time.Now()
	us.mu.Lock()
	defer us.mu.Unlock()

	delete(us.sessionCaches, sessionID)

	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "remove", "type", "session", "sessionId", logging.SanitizeSessionID(sessionID), "duration", time.Since(start))
	}
}

// GetAllSessionIDs returns all cached session IDs
func (us *UIStateStore) GetAllSessionIDs() []string {
	us.mu.RLock()
	defer us.mu.RUnlock()

	ids := make([]string, 0, len(us.sessionCaches))
	for id := range us.sessionCaches {
		ids = append(ids, id)
	}
	return ids
}

// SessionCount returns the number of cached sessions
func (us *UIStateStore) SessionCount() int {
	us.mu.RLock()
	defer us.mu.RUnlock()
	return len(us.sessionCaches)
}

// =============================================================================
// Navigation Snapshot Operations
// =============================================================================

// GetSnapshot retrieves the cached navigation snapshot for a session. The
// second return distinguishes "slot hydrated but empty" from "never loaded".
func (us *UIStateStore) GetSnapshot(sessionID string) (*uistate.NavigationSnapshot, bool) {
	start := time.Now()
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		if us.logger != nil {
			us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "sessionId", logging.SanitizeSessionID(sessionID), "hit", false, "reason", "session_not_initialized", "duration", time.Since(start))
		}
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	hit := cache.SnapshotHydrated && cache.Snapshot != nil
	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "snapshot", "sessionId", logging.SanitizeSessionID(sessionID), "hit", hit, "hydrated", cache.SnapshotHydrated, "duration", time.Since(start))
	}
	return cache.Snapshot.Clone(), cache.SnapshotHydrated
}

// SetSnapshot stores a navigation snapshot, replacing any prior one. Writing
/// marks the slot hydrated: the new snapshot is fresher than anything on disk.
func (us *UIStateStore) SetSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot) {
	start := time.Now()
	cache := us.getOrCreateSessionCache(sessionID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Snapshot = snapshot
	cache.SnapshotHydrated = true
	cache.LastLoaded = time.Now().UTC()

	if us.logger != nil {
		page := ""
		var generation uint64
		if snapshot != nil {
			page = snapshot.OriginPage
			generation = snapshot.Generation
		}
		us.logger.Cache().Debug("Cache operation", "operation", "set", "type", "snapshot", "sessionId", logging.SanitizeSessionID(sessionID), "page", page, "generation", generation, "duration", time.Since(start))
	}
}

// ClearSnapshot empties the snapshot slot. The slot stays hydrated: an empty
// slot is a known state, not an unloaded one.
func (us *UIStateStore) ClearSnapshot(sessionID string) {
	us.SetSnapshot(sessionID, nil)
}

// ClearSnapshotIfGeneration empties the slot only if the resident snapshot
// still carries the given generation. Returns whether the clear happened.
func (us *UIStateStore) ClearSnapshotIfGeneration(sessionID string, generation uint64) bool {
	start := time.Now()
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		return false
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if cache.Snapshot == nil || cache.Snapshot.Generation != generation {
		if us.logger != nil {
			us.logger.Cache().Debug("Cache operation", "operation", "clear_skipped", "type", "snapshot", "sessionId", logging.SanitizeSessionID(sessionID), "generation", generation, "duration", time.Since(start))
		}
		return false
	}

	cache.Snapshot = nil
	cache.SnapshotHydrated = true
	cache.LastLoaded = time.Now().UTC()

	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "clear", "type", "snapshot", "sessionId", logging.SanitizeSessionID(sessionID), "generation", generation, "duration", time.Since(start))
	}
	return true
}

// HydrateSnapshot installs a snapshot loaded from the persistent store,
// unless a fresher one was written in the meantime. Creates the session
// cache entry when absent: hydration is exactly the moment a returning
// session's state comes back from disk.
func (us *UIStateStore) HydrateSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot) {
	cache := us.getOrCreateSessionCache(sessionID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	if cache.SnapshotHydrated {
		return
	}
	cache.Snapshot = snapshot
	cache.SnapshotHydrated = true
	cache.LastLoaded = time.Now().UTC()
}

// =============================================================================
// Settings Operations
// =============================================================================

// GetSettings retrieves a cached settings record by settings key
func (us *UIStateStore) GetSettings(sessionID, key string) (uistate.SettingsRecord, bool) {
	start := time.Now()
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		if us.logger != nil {
			us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "settings", "sessionId", logging.SanitizeSessionID(sessionID), "key", key, "hit", false, "reason", "session_not_initialized", "duration", time.Since(start))
		}
		return uistate.SettingsRecord{}, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	rec, found := cache.Settings[key]
	loaded := cache.SettingsLoaded[key]
	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "get", "type", "settings", "sessionId", logging.SanitizeSessionID(sessionID), "key", key, "hit", found && loaded, "duration", time.Since(start))
	}
	return rec, found && loaded
}

// SetSettings stores a settings record by settings key
func (us *UIStateStore) SetSettings(sessionID, key string, rec uistate.SettingsRecord) {
	start := time.Now()
	cache := us.getOrCreateSessionCache(sessionID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.Settings[key] = rec
	cache.SettingsLoaded[key] = true
	cache.LastLoaded = time.Now().UTC()

	if us.logger != nil {
		us.logger.Cache().Debug("Cache operation", "operation", "set", "type", "settings", "sessionId", logging.SanitizeSessionID(sessionID), "key", key, "duration", time.Since(start))
	}
}

// =============================================================================
// Mount State Operations
// =============================================================================

// GetMountState retrieves a mount's restore progress
func (us *UIStateStore) GetMountState(sessionID, mountID string) (*types.MountState, bool) {
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		return nil, false
	}

	cache.Mu.RLock()
	defer cache.Mu.RUnlock()

	ms, found := cache.MountStates[mountID]
	return ms, found
}

// SetMountState records a mount's restore progress
func (us *UIStateStore) SetMountState(sessionID string, ms *types.MountState) {
	cache := us.getOrCreateSessionCache(sessionID)

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	cache.MountStates[ms.MountID] = ms
	cache.LastLoaded = time.Now().UTC()
}

// PurgeMountStates drops mount states older than the TTL and returns the count
func (us *UIStateStore) PurgeMountStates(sessionID string, now time.Time, ttl time.Duration) int {
	cache, exists := us.GetSessionCache(sessionID)
	if !exists {
		return 0
	}

	cache.Mu.Lock()
	defer cache.Mu.Unlock()

	purged := 0
	for id, ms := range cache.MountStates {
		if now.Sub(ms.CreatedAt) > ttl {
			delete(cache.MountStates, id)
			purged++
		}
	}
	return purged
}
