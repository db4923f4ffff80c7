package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/VendorLens/vendorlens-go/internal/domain/entities/uistate"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/interfaces"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/caching/types"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/logging"
	"github.com/VendorLens/vendorlens-go/internal/infrastructure/observability/performance"
)

// ErrInvalidResolveRequest is returned when a resolve request is missing
// required identifiers.
var ErrInvalidResolveRequest = errors.New("resolve request requires page and mountId")

// RouterState is the transient state the client forwards from its history
// entry. It is the priority channel: when present, the persisted fallback is
// not consulted.
type RouterState struct {
	Params     uistate.ParamsBag         `json:"params,omitempty"`
	OpenDialog *uistate.DialogDescriptor `json:"openDialog,omitempty"`
}

// isEmpty reports whether the router delivered nothing restorable.
func (rs *RouterState) isEmpty() bool {
	return rs == nil || (len(rs.Params) == 0 && rs.OpenDialog == nil)
}

// ResolveRequest is one page mount asking what, if anything, to restore.
type ResolveRequest struct {
	Page        string       `json:"page"`
	MountID     string       `json:"mountId"`
	RouterState *RouterState `json:"routerState,omitempty"`
	DataReady   bool         `json:"dataReady"`
}

// RestoreResult tells the client what to apply and which deferred directives
// to run. Apply carries only schema-declared fields; OpenDialog and ScrollTo
// are deferred so the client runs them after its detail data settles.
type RestoreResult struct {
	Phase            types.MountPhase          `json:"phase"`
	Source           string                    `json:"source,omitempty"` // "router" or "fallback"
	Apply            uistate.ParamsBag         `json:"apply,omitempty"`
	OpenDialog       *uistate.DialogDescriptor `json:"openDialog,omitempty"`
	ScrollTo         *int                      `json:"scrollTo,omitempty"`
	StripRouterState bool                      `json:"stripRouterState,omitempty"`
	ClearScheduled   bool                      `json:"clearScheduled,omitempty"`
}

// RestoreService drives the per-mount restore state machine over the two
// channels: router-delivered transient state first, persisted fallback second.
type RestoreService struct {
	cache       interfaces.Cache
	navigation  *NavigationService
	logger      *logging.ChanneledLogger
	perfTracker *performance.Tracker
}

// NewRestoreService creates the restore resolution service
func NewRestoreService(cache interfaces.Cache, navigation *NavigationService, logger *logging.ChanneledLogger, perfTracker *performance.Tracker) *RestoreService {
	return &RestoreService{
		cache:       cache,
		navigation:  navigation,
		logger:      logger,
		perfTracker: perfTracker,
	}
}

// Resolve runs one step of the restore state machine for a mount.
//
// Guards, in order: a mount that already consumed its restore resolves IDLE
// with nothing applied; a mount whose prerequisite data has not loaded stays
// INIT. Then the priority lookup: router state wins outright, else the
// persisted fallback if its origin matches the current page, else IDLE.
func (r *RestoreService) Resolve(ctx context.Context, sessionID string, req ResolveRequest) (*RestoreResult, error) {
	start := time.Now()
	var marker *performance.Marker
	if r.perfTracker != nil {
		marker = r.perfTracker.StartOperation("restore:resolve", sessionID)
		defer r.perfTracker.CompleteOperation(marker)
	}

	if req.Page == "" || req.MountID == "" {
		if marker != nil {
			marker.SetError(ErrInvalidResolveRequest)
		}
		return nil, ErrInvalidResolveRequest
	}

	// Guard 1: idempotency. One restore per mount, ever.
	if ms, found := r.cache.GetMountState(sessionID, req.MountID); found && ms.Consumed {
		r.logOutcome(sessionID, req, "already_consumed", time.Since(start))
		return &RestoreResult{Phase: types.PhaseIdle}, nil
	}

	// Guard 2: ordering. Restoration waits for prerequisite data.
	if !req.DataReady {
		r.setMountState(sessionID, req, types.PhaseInit, false, 0)
		r.logOutcome(sessionID, req, "data_not_ready", time.Since(start))
		return &RestoreResult{Phase: types.PhaseInit}, nil
	}

	schema, _ := uistate.SchemaForPage(req.Page)

	// Priority channel: router-delivered transient state.
	if !req.RouterState.isEmpty() {
		result := &RestoreResult{
			Phase:            types.PhaseRestoredFromRouter,
			Source:           "router",
			Apply:            schema.FilterParams(req.RouterState.Params, req.RouterState.OpenDialog != nil),
			OpenDialog:       req.RouterState.OpenDialog,
			StripRouterState: true,
		}
		r.setMountState(sessionID, req, types.PhaseRestoredFromRouter, true, 0)
		r.logOutcome(sessionID, req, "restored_from_router", time.Since(start))
		return result, nil
	}

	// Fallback channel: the persisted snapshot, only for its own origin page.
	snapshot := r.navigation.GetPreviousPage(ctx, sessionID)
	if snapshot != nil && pagesMatch(snapshot.OriginPage, req.Page) {
		scroll := snapshot.ScrollOffset
		result := &RestoreResult{
			Phase:          types.PhaseRestoredFromFallback,
			Source:         "fallback",
			Apply:          schema.FilterParams(snapshot.Params, snapshot.OpenDialog != nil),
			OpenDialog:     snapshot.OpenDialog,
			ScrollTo:       &scroll,
			ClearScheduled: true,
		}
		r.setMountState(sessionID, req, types.PhaseRestoredFromFallback, true, snapshot.Generation)
		r.navigation.ScheduleClear(sessionID, snapshot.Generation)
		r.logOutcome(sessionID, req, "restored_from_fallback", time.Since(start))
		return result, nil
	}

	// Nothing restorable. A mismatched snapshot stays in place untouched.
	r.setMountState(sessionID, req, types.PhaseIdle, true, 0)
	r.logOutcome(sessionID, req, "idle", time.Since(start))
	return &RestoreResult{Phase: types.PhaseIdle}, nil
}

func (r *RestoreService) setMountState(sessionID string, req ResolveRequest, phase types.MountPhase, consumed bool, generation uint64) {
	r.cache.SetMountState(sessionID, &types.MountState{
		MountID:    req.MountID,
		Page:       req.Page,
		Phase:      phase,
		Consumed:   consumed,
		Generation: generation,
		CreatedAt:  time.Now().UTC(),
	})
}

func (r *RestoreService) logOutcome(sessionID string, req ResolveRequest, outcome string, duration time.Duration) {
	if r.logger == nil {
		return
	}
	r.logger.State().Debug("Restore resolution",
		"page", req.Page,
		"mountId", req.MountID,
		"sessionId", logging.SanitizeSessionID(sessionID),
		"outcome", outcome,
		"duration", duration,
	)
}

func pagesMatch(origin, current string) bool {
	return normalizePath(origin) == normalizePath(current)
}

func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return p
}
