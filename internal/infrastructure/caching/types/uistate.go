// Package types defines the in-memory cache structures for session UI state.
package types

import (
	"sync"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
)

// SessionUIStateCache holds the cached UI state for a single browser session.
// It mirrors the persistent store; the store remains the source of truth
// across restarts.
type SessionUIStateCache struct {
	Session *session.Session

	// Single return-address slot. Capturing replaces unconditionally.
	Snapshot *uistate.NavigationSnapshot

	// Sticky per-page preferences by settings key.
	Settings map[string]uistate.SettingsRecord

	// Which settings keys have been loaded from the store this process.
	SettingsLoaded map[string]bool

	// Restore consumption tracking by mount ID.
	MountStates map[string]*MountState

	// SnapshotHydrated is set once the snapshot slot has been loaded from the
	// persistent store. Staleness is judged exactly once, at that load.
	SnapshotHydrated bool

	// Cache metadata
	LastLoaded time.Time
	Mu         sync.RWMutex // Exported for access
}

// MountPhase tracks where a page mount is in the restore protocol.
type MountPhase string

const (
	PhaseInit                 MountPhase = "INIT"
	PhaseCheckingRouterState  MountPhase = "CHECKING_ROUTER_STATE"
	PhaseRestoredFromRouter   MountPhase = "RESTORED_FROM_ROUTER"
	PhaseCheckingFallback     MountPhase = "CHECKING_FALLBACK"
	PhaseRestoredFromFallback MountPhase = "RESTORED_FROM_FALLBACK"
	PhaseIdle                 MountPhase = "IDLE"
)

// MountState records one page mount's progress through restoration, keyed by
// the mount ID the client generates. A mount consumes a restore at most once;
// repeat resolutions for a consumed mount settle to IDLE with nothing applied.
type MountState struct {
	MountID    string     `json:"mountId"`
	Page       string     `json:"page"`
	Phase      MountPhase `json:"phase"`
	Consumed   bool       `json:"consumed"`
	Generation uint64     `json:"generation"`
	CreatedAt  time.Time  `json:"createdAt"`
}
