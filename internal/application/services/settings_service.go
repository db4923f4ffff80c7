// Package services contains the application service layer orchestrating
// cache, persistence, and domain logic for UI-state operations.
package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

// SettingsService owns sticky per-page display preferences. Its operations
// never fail visibly: a read always produces a usable record, and a failed
// write leaves the in-memory record authoritative.
type SettingsService struct {
	cache       interfaces.Cache
	store       store.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewSettingsService creates the settings service
func NewSettingsService(cache interfaces.Cache, st store.Store, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SettingsService {
	return &SettingsService{
		cache:       cache,
		store:       st,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Load returns the settings record for a page key, falling back field by
// field onto the compile-time defaults for anything absent or malformed.
func (s *SettingsService) Load(ctx context.Context, sessionID, pageKey string) uistate.SettingsRecord {
	start := time.Now()
	var marker *performance.Marker
	if s.perfTracker != nil {
		marker = s.perfTracker.StartOperation("settings:read", sessionID)
		defer s.perfTracker.CompleteOperation(marker)
	}

	if rec, found := s.cache.GetSettings(sessionID, pageKey); found {
		if marker != nil {
			marker.AddCacheHit()
		}
		return rec
	}
	if marker != nil {
		marker.AddCacheMiss()
	}

	defaults := uistate.DefaultSettings(pageKey)

	raw, found, err := s.store.Get(ctx, sessionID, store.SettingsKey(pageKey))
	if err != nil {
		if s.logger != nil {
			s.logger.LogError(logging.ChannelCache, "settings:read", err, sessionID, map[string]any{"pageKey": pageKey})
		}
		s.cache.SetSettings(sessionID, pageKey, defaults)
		return defaults
	}
	if !found {
		s.cache.SetSettings(sessionID, pageKey, defaults)
		return defaults
	}

	rec, decodeErr := uistate.DecodeSettings(raw, defaults)
	if decodeErr != nil && s.logger != nil {
		s.logger.Cache().Warn("Settings blob unreadable, serving defaults",
			"pageKey", pageKey,
			"sessionId", logging.SanitizeSessionID(sessionID),
			"error", decodeErr.Error(),
			"duration", time.Since(start),
		)
	}

	s.cache.SetSettings(sessionID, pageKey, rec)
	return rec
}

// Save merges a partial update over the current record and persists the
// result. Persistence failure is swallowed and logged; memory stays current.
func (s *SettingsService) Save(ctx context.Context, sessionID, pageKey string, partial map[string]json.RawMessage) uistate.SettingsRecord {
	var marker *performance.Marker
	if s.perfTracker != nil {
		marker = s.perfTracker.StartOperation("settings:write", sessionID)
		defer s.perfTracker.CompleteOperation(marker)
	}

	current := s.Load(ctx, sessionID, pageKey)
	merged := uistate.ApplyPartial(current, partial)

	s.cache.SetSettings(sessionID, pageKey, merged)

	blob, err := json.Marshal(merged)
	if err != nil {
		if marker != nil {
			marker.SetError(err)
		}
		if s.logger != nil {
			s.logger.LogError(logging.ChannelCache, "settings:write", err, sessionID, map[string]any{"pageKey": pageKey})
		}
		return merged
	}

	if err := s.store.Set(ctx, sessionID, store.SettingsKey(pageKey), blob); err != nil {
		if marker != nil {
			marker.SetError(err)
		}
		if s.logger != nil {
			s.logger.LogError(logging.ChannelStorage, "settings:write", err, sessionID, map[string]any{"pageKey": pageKey})
		}
	}

	return merged
}

// Clear resets a page's settings to defaults and removes the persisted blob.
func (s *SettingsService) Clear(ctx context.Context, sessionID, pageKey string) uistate.SettingsRecord {
	defaults := uistate.DefaultSettings(pageKey)
	s.cache.SetSettings(sessionID, pageKey, defaults)

	if err := s.store.Remove(ctx, sessionID, store.SettingsKey(pageKey)); err != nil && s.logger != nil {
		s.logger.LogError(logging.ChannelStorage, "settings:clear", err, sessionID, map[string]any{"pageKey": pageKey})
	}

	return defaults
}
