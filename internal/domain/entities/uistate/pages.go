package uistate

import (
	"encoding/json"
	"strings"
)

// PageSchema declares which param keys a page's restoration logic accepts.
// Restoration only ever applies declared keys; anything else in a persisted
// bag is ignored rather than handed to the page.
type PageSchema struct {
	Page             string
	ParamKeys        []string
	LegacyDialogKeys []string
}

// pageSchemas registers the restorable pages of the dashboard. LegacyDialogKeys
// are older bag fields that describe an open modal; they are superseded by a
// dedicated DialogDescriptor whenever one is present on the snapshot.
var pageSchemas = map[string]PageSchema{
	"/capabilities": {
		Page: "/capabilities",
		ParamKeys: []string{
			"selectedCapability", "selectedVendors", "searchTerm",
			"sortKey", "sortDirection", "expandedAttributes", "showFilterPanel",
		},
		LegacyDialogKeys: []string{"selectedAttributeDetail"},
	},
	"/vendors": {
		Page: "/vendors",
		ParamKeys: []string{
			"selectedVendor", "selectedCapabilities", "searchTerm",
			"statusFilter", "sortKey", "sortDirection", "showFilterPanel",
		},
		LegacyDialogKeys: []string{"selectedVendorDetail"},
	},
	"/reports": {
		Page: "/reports",
		ParamKeys: []string{
			"selectedCapability", "selectedVendors", "reportType",
			"dateRange", "groupBy", "expandedSections",
		},
		LegacyDialogKeys: []string{"selectedAttributeDetail"},
	},
	"/research": {
		Page: "/research",
		ParamKeys: []string{
			"conversationId", "queryDraft", "selectedSources", "showSourcePanel",
		},
	},
}

// SchemaForPage resolves the schema for a page path. Unregistered paths get
// an empty schema, which applies nothing.
func SchemaForPage(page string) (PageSchema, bool) {
	schema, ok := pageSchemas[normalizePage(page)]
	return schema, ok
}

// FilterParams returns only the keys of the bag that the schema declares.
// When the snapshot carries a dedicated dialog descriptor, legacy dialog keys
// are dropped as well so the descriptor wins.
func (ps PageSchema) FilterParams(params ParamsBag, hasDialogDescriptor bool) ParamsBag {
	if len(params) == 0 {
		return ParamsBag{}
	}

	legacy := make(map[string]bool, len(ps.LegacyDialogKeys))
	for _, k := range ps.LegacyDialogKeys {
		legacy[k] = true
	}

	out := make(ParamsBag)
	for _, key := range ps.ParamKeys {
		if hasDialogDescriptor && legacy[key] {
			continue
		}
		if v, ok := params[key]; ok {
			out[key] = append(json.RawMessage(nil), v...)
		}
	}
	for _, key := range ps.LegacyDialogKeys {
		if hasDialogDescriptor {
			break
		}
		if v, ok := params[key]; ok {
			out[key] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

func normalizePage(page string) string {
	if page == "" {
		return page
	}
	if len(page) > 1 {
		page = strings.TrimSuffix(page, "/")
	}
	return page
}
