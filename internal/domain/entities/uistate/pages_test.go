package uistate

import (
	"encoding/json"
	"testing"
)

func rawBag(pairs map[string]string) ParamsBag {
	out := make(ParamsBag, len(pairs))
	for k, v := range pairs {
		out[k] = json.RawMessage(v)
	}
	return out
}

func TestSchemaForPageNormalizesTrailingSlash(t *testing.T) {
	a, okA := SchemaForPage("/capabilities")
	b, okB := SchemaForPage("/capabilities/")
	if !okA || !okB || a.Page != b.Page {
		t.Errorf("trailing slash changed resolution: %v/%v", okA, okB)
	}
	if _, ok := SchemaForPage("/nope"); ok {
		t.Error("unregistered page resolved a schema")
	}
}

func TestFilterParams(t *testing.T) {
	schema, _ := SchemaForPage("/capabilities")

	tests := []struct {
		name          string
		params        ParamsBag
		hasDescriptor bool
		wantKeys      []string
		dropKeys      []string
	}{
		{
			name:     "declared keys pass",
			params:   rawBag(map[string]string{"selectedCapability": `7`, "searchTerm": `"x"`}),
			wantKeys: []string{"selectedCapability", "searchTerm"},
		},
		{
			name:     "undeclared keys dropped",
			params:   rawBag(map[string]string{"selectedCapability": `7`, "injected": `true`}),
			wantKeys: []string{"selectedCapability"},
			dropKeys: []string{"injected"},
		},
		{
			name:     "legacy dialog key passes without descriptor",
			params:   rawBag(map[string]string{"selectedAttributeDetail": `{"id":1}`}),
			wantKeys: []string{"selectedAttributeDetail"},
		},
		{
			name:          "legacy dialog key dropped with descriptor",
			params:        rawBag(map[string]string{"selectedAttributeDetail": `{"id":1}`, "searchTerm": `"x"`}),
			hasDescriptor: true,
			wantKeys:      []string{"searchTerm"},
			dropKeys:      []string{"selectedAttributeDetail"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := schema.FilterParams(tt.params, tt.hasDescriptor)
			for _, k := range tt.wantKeys {
				if _, ok := got[k]; !ok {
					t.Errorf("missing key %q: %v", k, got)
				}
			}
			for _, k := range tt.dropKeys {
				if _, ok := got[k]; ok {
					t.Errorf("key %q should be dropped: %v", k, got)
				}
			}
			if len(got) != len(tt.wantKeys) {
				t.Errorf("extra keys in result: %v", got)
			}
		})
	}
}

func TestDefaultSettingsUnknownKey(t *testing.T) {
	rec := DefaultSettings("never-registered")
	if rec.StatusFilter == "" || rec.ViewMode == "" {
		t.Errorf("unknown key must still get a usable default: %+v", rec)
	}
}

func TestDecodeSettingsNeverFailsHard(t *testing.T) {
	defaults := DefaultSettings("capabilities-settings")

	rec, err := DecodeSettings([]byte(`"just a string"`), defaults)
	if err == nil {
		t.Error("expected an advisory error for a non-object blob")
	}
	if rec != defaults {
		t.Errorf("non-object blob must yield defaults: %+v", rec)
	}

	rec, err = DecodeSettings(nil, defaults)
	if err != nil || rec != defaults {
		t.Errorf("empty blob: rec=%+v err=%v", rec, err)
	}
}
