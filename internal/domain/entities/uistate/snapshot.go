// Package uistate defines the restorable UI state entities for dashboard pages.
package uistate

import (
	"encoding/json"
	"time"
)

// ParamsBag is the free-form key/value record describing a page's restorable
// UI state (selected entity, active filters, sort, expanded rows). Producers
// own the shape; the store never validates it.
type ParamsBag map[string]json.RawMessage

// Clone returns an independent copy of the bag.
func (p ParamsBag) Clone() ParamsBag {
	if p == nil {
		return nil
	}
	out := make(ParamsBag, len(p))
	for k, v := range p {
		cp := make(json.RawMessage, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

// DialogDescriptor identifies a modal that was open at capture time, so it
// can be reopened after restoration rather than merely having its backing
// data restored.
type DialogDescriptor struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NavigationSnapshot is the captured return address for a page the user left
// to edit a record on another route. At most one exists per session at any
// time; capturing a new one unconditionally replaces any prior one.
type NavigationSnapshot struct {
	OriginPage   string            `json:"originPage"`
	Params       ParamsBag         `json:"params"`
	ScrollOffset int               `json:"scrollOffset"`
	OpenDialog   *DialogDescriptor `json:"openDialog,omitempty"`
	CapturedAt   time.Time         `json:"capturedAt"`
	Generation   uint64            `json:"generation"`
}

// IsStale reports whether the snapshot is older than the staleness window.
func (s *NavigationSnapshot) IsStale(now time.Time, window time.Duration) bool {
	return now.Sub(s.CapturedAt) > window
}

// Clone returns a deep copy of the snapshot.
func (s *NavigationSnapshot) Clone() *NavigationSnapshot {
	if s == nil {
		return nil
	}
	out := *s
	out.Params = s.Params.Clone()
	if s.OpenDialog != nil {
		dlg := *s.OpenDialog
		dlg.Payload = append(json.RawMessage(nil), s.OpenDialog.Payload...)
		out.OpenDialog = &dlg
	}
	return &out
}
