package services

import (
	"context"
	"testing"

	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/manager"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/persistence/store"
)

func newSessionService() (*SessionService, *manager.Manager, *store.MemoryStore) {
	cache := manager.NewManager(nil)
	st := store.NewMemoryStore()
	svc := NewSessionService(cache, st, nil, nil)
	svc.jwtSecret = "test-secret"
	return svc, cache, st
}

func TestSessionRegisterIssuesToken(t *testing.T) {
	svc, _, _ := newSessionService()

	sess, token, err := svc.Register(context.Background(), "", "test-agent")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if sess.SessionID == "" || token == "" {
		t.Fatalf("incomplete registration: id=%q token=%q", sess.SessionID, token)
	}
	if !svc.Validate(sess.SessionID, token) {
		t.Error("freshly issued token failed validation")
	}
	if svc.Validate("someone-else", token) {
		t.Error("token validated against a different session ID")
	}
}

func TestSessionRegisterRefreshesExisting(t *testing.T) {
	svc, _, _ := newSessionService()
	ctx := context.Background()

	first, _, err := svc.Register(ctx, "", "test-agent")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	second, token, err := svc.Register(ctx, first.SessionID, "test-agent")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Errorf("known session re-registered as %q", second.SessionID)
	}
	if !svc.Validate(first.SessionID, token) {
		t.Error("refreshed token failed validation")
	}
}

func TestSessionEndRemovesAllState(t *testing.T) {
	svc, cache, st := newSessionService()
	ctx := context.Background()

	sess, _, _ := svc.Register(ctx, "", "test-agent")
	st.Set(ctx, sess.SessionID, store.KeyNavigationSnapshot, []byte(`{}`))

	if err := svc.End(ctx, sess.SessionID); err != nil {
		t.Fatalf("end failed: %v", err)
	}
	if _, found := cache.GetSession(sess.SessionID); found {
		t.Error("session still cached after End")
	}
	if _, found, _ := st.Get(ctx, sess.SessionID, store.KeyNavigationSnapshot); found {
		t.Error("persisted state survived End")
	}
}
