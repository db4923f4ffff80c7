// Package manager provides centralized cache operations with proper session isolation
package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/stores"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/types"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
)

// Interface assertion to ensure Manager implements the full cache contract.
var _ interfaces.Cache = (*Manager)(nil)

// Manager provides centralized cache operations with proper session isolation
// by delegating to the UI state store.
type Manager struct {
	Mu           sync.RWMutex
	LastAccessed map[string]time.Time
	uiStateStore *stores.UIStateStore
	logger       *logging.ChanneledLogger
}

func NewManager(logger *logging.ChanneledLogger) *Manager {
	if logger != nil {
		logger.Cache().Info("Initializing cache manager", "stores", []string{"uistate"})
	}

	return &Manager{
		LastAccessed: make(map[string]time.Time),
		uiStateStore: stores.NewUIStateStore(logger),
		logger:       logger,
	}
}

// GetSessionUIStateCache exposes the raw per-session cache for cleanup and diagnostics.
func (m *Manager) GetSessionUIStateCache(sessionID string) (*types.SessionUIStateCache, error) {
	cache, exists := m.uiStateStore.GetSessionCache(sessionID)
	if !exists {
		return nil, fmt.Errorf("session %s UI state cache not initialized", logging.SanitizeSessionID(sessionID))
	}
	return cache, nil
}

func (m *Manager) updateSessionAccessTime(sessionID string) {
	m.Mu.Lock()
	defer m.Mu.Unlock()
	m.LastAccessed[sessionID] = time.Now().UTC()
}

// Session operations

func (m *Manager) InitializeSession(sess *session.Session) {
	m.uiStateStore.InitializeSession(sess)
	m.updateSessionAccessTime(sess.SessionID)
}

func (m *Manager) GetSession(sessionID string) (*session.Session, bool) {
	sess, found := m.uiStateStore.GetSession(sessionID)
	if found {
		m.updateSessionAccessTime(sessionID)
	}
	return sess, found
}

func (m *Manager) TouchSession(sessionID string, now time.Time, idleTTL time.Duration) bool {
	m.updateSessionAccessTime(sessionID)
	return m.uiStateStore.TouchSession(sessionID, now, idleTTL)
}

func (m *Manager) RemoveSession(sessionID string) {
	m.uiStateStore.RemoveSession(sessionID)
	m.Mu.Lock()
	delete(m.LastAccessed, sessionID)
	m.Mu.Unlock()
}

func (m *Manager) GetAllSessionIDs() []string {
	return m.uiStateStore.GetAllSessionIDs()
}

func (m *Manager) SessionCount() int {
	return m.uiStateStore.SessionCount()
}

// Snapshot operations

func (m *Manager) GetSnapshot(sessionID string) (*uistate.NavigationSnapshot, bool) {
	m.updateSessionAccessTime(sessionID)
	return m.uiStateStore.GetSnapshot(sessionID)
}

func (m *Manager) SetSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot) {
	m.updateSessionAccessTime(sessionID)
	m.uiStateStore.SetSnapshot(sessionID, snapshot)
}

func (m *Manager) ClearSnapshot(sessionID string) {
	m.uiStateStore.ClearSnapshot(sessionID)
}

func (m *Manager) ClearSnapshotIfGeneration(sessionID string, generation uint64) bool {
	return m.uiStateStore.ClearSnapshotIfGeneration(sessionID, generation)
}

func (m *Manager) HydrateSnapshot(sessionID string, snapshot *uistate.NavigationSnapshot) {
	m.uiStateStore.HydrateSnapshot(sessionID, snapshot)
}

// Settings operations

func (m *Manager) GetSettings(sessionID, key string) (uistate.SettingsRecord, bool) {
	m.updateSessionAccessTime(sessionID)
	return m.uiStateStore.GetSettings(sessionID, key)
}

func (m *Manager) SetSettings(sessionID, key string, rec uistate.SettingsRecord) {
	m.updateSessionAccessTime(sessionID)
	m.uiStateStore.SetSettings(sessionID, key, rec)
}

// Mount state operations

func (m *Manager) GetMountState(sessionID, mountID string) (*types.MountState, bool) {
	return m.uiStateStore.GetMountState(sessionID, mountID)
}

func (m *Manager) SetMountState(sessionID string, ms *types.MountState) {
	m.uiStateStore.SetMountState(sessionID, ms)
}

func (m *Manager) PurgeMountStates(sessionID string, now time.Time, ttl time.Duration) int {
	return m.uiStateStore.PurgeMountStates(sessionID, now, ttl)
}
