// Package session defines the browser session that scopes all persisted UI state.
package session

import "time"

// Session represents one browser's session with the dashboard. Every persisted
// settings record and navigation snapshot is scoped to exactly one session;
// state never crosses devices or users.
type Session struct {
	SessionID    string    `json:"sessionId"`
	UserAgent    string    `json:"userAgent,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	ExpiresAt    time.Time `json:"expiresAt"`
}

// IsExpired reports whether the session has idled out.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// Touch extends the session's activity window.
func (s *Session) Touch(now time.Time, idleTTL time.Duration) {
	s.LastActivity = now
	s.ExpiresAt = now.Add(idleTTL)
}
