// Package messaging provides the websocket broadcaster feeding the ops console.
package messaging

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/pkg/config"
	"github.com/gorilla/websocket"
)

// OpsClient represents a single connected ops console client.
type OpsClient struct {
	Conn *websocket.Conn
	Send chan []byte
}

// SessionActivity summarizes one browser session's cached UI state for the
// ops console tick.
type SessionActivity struct {
	HasSnapshot  bool      `json:"hasSnapshot"`
	SnapshotPage string    `json:"snapshotPage,omitempty"`
	Generation   uint64    `json:"generation,omitempty"`
	SettingsKeys int       `json:"settingsKeys"`
	LastActivity time.Time `json:"lastActivity"`
}

// ActivityPayload is the complete data structure sent to the ops console on each tick.
type ActivityPayload struct {
	Sessions          []SessionActivity `json:"sessions"`
	TotalCount        int               `json:"totalCount"`
	WithSnapshotCount int               `json:"withSnapshotCount"`
	ActiveCount       int               `json:"activeCount"`
	DormantCount      int               `json:"dormantCount"`
}

// OpsBroadcaster manages all connected ops clients and broadcasts activity data.
type OpsBroadcaster struct {
	clients      map[*OpsClient]bool
	register     chan *OpsClient
	unregister   chan *OpsClient
	cacheManager *manager.Manager
	mu           sync.RWMutex
}

// NewOpsBroadcaster creates a new broadcaster instance.
func NewOpsBroadcaster(cm *manager.Manager) *OpsBroadcaster {
	return &OpsBroadcaster{
		clients:      make(map[*OpsClient]bool),
		register:     make(chan *OpsClient),
		unregister:   make(chan *OpsClient),
		cacheManager: cm,
	}
}

// Run starts the broadcaster's main loop. This should be run as a goroutine.
func (b *OpsBroadcaster) Run() {
	ticker := time.NewTicker(config.OpsBroadcastInterval)
	defer ticker.Stop()

	for {
		select {
		case client := <-b.register:
			b.mu.Lock()
			b.clients[client] = true
			log.Printf("Ops client registered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case client := <-b.unregister:
			b.mu.Lock()
			if _, ok := b.clients[client]; ok {
				delete(b.clients, client)
				close(client.Send)
			}
			log.Printf("Ops client unregistered (%d connected)", len(b.clients))
			b.mu.Unlock()

		case <-ticker.C:
			b.broadcastActivity()
		}
	}
}

// Register queues a client for registration.
func (b *OpsBroadcaster) Register(client *OpsClient) {
	b.register <- client
}

// Unregister queues a client for unregistration.
func (b *OpsBroadcaster) Unregister(client *OpsClient) {
	b.unregister <- client
}

// broadcastActivity gathers and sends session activity to all connected clients.
func (b *OpsBroadcaster) broadcastActivity() {
	b.mu.RLock()
	hasClients := len(b.clients) > 0
	b.mu.RUnlock()
	if !hasClients {
		return
	}

	payload := b.BuildActivityPayload()

	message, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshaling ops activity payload: %v", err)
		return
	}

	b.mu.RLock()
	for client := range b.clients {
		select {
		case client.Send <- message:
		default:
			// Slow consumer; skip this tick for it.
		}
	}
	b.mu.RUnlock()
}

// BuildActivityPayload computes the current activity snapshot. Also used by
// the ops sessions endpoint for an on-demand view.
func (b *OpsBroadcaster) BuildActivityPayload() ActivityPayload {
	now := time.Now().UTC()
	sessionIDs := b.cacheManager.GetAllSessionIDs()

	payload := ActivityPayload{
		Sessions: make([]SessionActivity, 0, len(sessionIDs)),
	}

	for _, sessionID := range sessionIDs {
		cache, err := b.cacheManager.GetSessionUIStateCache(sessionID)
		if err != nil {
			continue
		}

		cache.Mu.RLock()
		activity := SessionActivity{
			SettingsKeys: len(cache.Settings),
			LastActivity: cache.Session.LastActivity,
		}
		if cache.Snapshot != nil {
			activity.HasSnapshot = true
			activity.SnapshotPage = cache.Snapshot.OriginPage
			activity.Generation = cache.Snapshot.Generation
		}
		cache.Mu.RUnlock()

		payload.Sessions = append(payload.Sessions, activity)
		payload.TotalCount++
		if activity.HasSnapshot {
			payload.WithSnapshotCount++
		}
		if now.Sub(activity.LastActivity).Minutes() <= 45 {
			payload.ActiveCount++
		} else {
			payload.DormantCount++
		}
	}

	return payload
}
