// Package store provides the session-scoped key-value persistence layer that
// backs settings records and navigation snapshots across server restarts.
package store

import "context"

// Well-known keys within a session's key space.
const (
	KeyNavigationSnapshot = "nav:snapshot"
	SettingsKeyPrefix     = "settings:"
)

// SettingsKey builds the store key for a page's settings record.
func SettingsKey(pageKey string) string {
	return SettingsKeyPrefix + pageKey
}

// Store is the persistence contract for session-scoped UI state. Values are
// opaque JSON blobs; callers own the shape. Get reports found=false for a
// missing key without error.
type Store interface {
	Get(ctx context.Context, sessionID, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, sessionID, key string, value []byte) error
	Remove(ctx context.Context, sessionID, key string) error
	RemoveSession(ctx context.Context, sessionID string) error
	Ping(ctx context.Context) error
	Close() error
}
