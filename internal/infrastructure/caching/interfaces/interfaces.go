// Package interfaces defines the cache contracts used by the application layer.
package interfaces

import (
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/types"
)

// SessionCache manages browser session entities and their lifecycle.
type SessionCache interface {
	InitializeSession(sess *session.Session)
	GetSession(sessionID string) (*session.Session, bool)
	TouchSession(sessionID string, now time.Time, idleTTL time.Duration) bool
	RemoveSession(sessionID string)
	GetAllSessionIDs() []string
	SessionCount() int
}

// SnapshotCache manages the single-slot navigation snapshot per session.
type SnapshotCache interface {
	GetSnapshot(sessionID string) (*uistate.NavigationSnapshot, bool)
	SetSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot)
	ClearSnapshot(sessionID string)
	ClearSnapshotIfGeneration(sessionID string, generation uint64) bool
	HydrateSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot)
}

// SettingsCache manages sticky per-page settings records.
type SettingsCache interface {
	GetSettings(sessionID, key string) (uistate.SettingsRecord, bool)
	SetSettings(sessionID, key string, rec uistate.SettingsRecord)
}

// MountCache tracks restore consumption per page mount.
type MountCache interface {
	GetMountState(sessionID, mountID string) (*types.MountState, bool)
	SetMountState(sessionID string, ms *types.MountState)
	PurgeMountStates(sessionID string, now time.Time, ttl time.Duration) int
}

// Cache is the full cache contract the application layer depends on.
type Cache interface {
	SessionCache
	SnapshotCache
	SettingsCache
	MountCache
}
