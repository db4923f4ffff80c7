package services

import (
	"context"
	"errors"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/session"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/security"
	"github.com/VendorLens/vendorlens-go/pkg/config"
)

// ErrSessionNotFound is returned when an operation names an unknown session.
var ErrSessionNotFound = errors.New("session not found")

// SessionService manages browser session registration and validation. Every
// piece of persisted UI state is scoped to a session; state never crosses
// devices or users.
type SessionService struct {
	cache       interfaces.Cache
	store       store.Store
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker

	jwtSecret string
	idleTTL   time.Duration
	tokenTTL  time.Duration
}

// NewSessionService creates the session service
func NewSessionService(cache interfaces.Cache, st store.Store, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *SessionService {
	return &SessionService{
		cache:       cache,
		store:       st,
		logger:      logger,
		perfTracker: perfTracker,
		jwtSecret:   config.JWTSecret,
		idleTTL:     config.SessionIdleTTL,
		tokenTTL:    config.SessionTokenTTL,
	}
}

// Register creates a new session, or refreshes an existing one when the
// client presents a known session ID. Returns the session and a signed token.
func (s *SessionService) Register(ctx context.Context, existingSessionID, userAgent string) (*session.Session, string, error) {
	var marker *performance.Marker
	if s.perfTracker != nil {
		marker = s.perfTracker.StartOperation("session:create", existingSessionID)
		defer s.perfTracker.CompleteOperation(marker)
	}

	now := time.Now().UTC()

	if existingSessionID != "" {
		if sess, found := s.cache.GetSession(existingSessionID); found && !sess.IsExpired(now) {
			s.cache.TouchSession(existingSessionID, now, s.idleTTL)
			token, err := security.GenerateSessionToken(existingSessionID, s.jwtSecret, s.tokenTTL)
			if err != nil {
				if marker != nil {
					marker.SetError(err)
				}
				return nil, "", err
			}
			if s.logger != nil {
				s.logger.Session().Debug("Session refreshed", "sessionId", logging.SanitizeSessionID(existingSessionID))
			}
			return sess, token, nil
		}
	}

	sess := &session.Session{
		SessionID:    security.GenerateULID(),
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(s.idleTTL),
	}

	s.cache.InitializeSession(sess)

	token, err := security.GenerateSessionToken(sess.SessionID, s.jwtSecret, s.tokenTTL)
	if err != nil {
		if marker != nil {
			marker.SetError(err)
		}
		return nil, "", err
	}

	if s.logger != nil {
		s.logger.Session().Info("Session created", "sessionId", logging.SanitizeSessionID(sess.SessionID))
	}
	return sess, token, nil
}

// Validate checks a session token against the session ID the request claims.
func (s *SessionService) Validate(sessionID, token string) bool {
	claims, err := security.ValidateJWT(token, s.jwtSecret)
	if err != nil {
		return false
	}
	return security.GetSessionIDFromClaims(claims) == sessionID
}

// Touch extends a known session's activity window.
func (s *SessionService) Touch(sessionID string) bool {
	return s.cache.TouchSession(sessionID, time.Now().UTC(), s.idleTTL)
}

// Get returns a session by ID.
func (s *SessionService) Get(sessionID string) (*session.Session, error) {
	sess, found := s.cache.GetSession(sessionID)
	if !found {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// End removes a session and every piece of state scoped to it, from both the
// mirror cache and the persistent store.
func (s *SessionService) End(ctx context.Context, sessionID string) error {
	s.cache.RemoveSession(sessionID)
	if err := s.store.RemoveSession(ctx, sessionID); err != nil {
		if s.logger != nil {
			s.logger.LogError(logging.ChannelStorage, "session:end", err, sessionID, nil)
		}
		return err
	}
	if s.logger != nil {
		s.logger.Session().Info("Session ended", "sessionId", logging.SanitizeSessionID(sessionID))
	}
	return nil
}
