package uistate

import "encoding/json"

// SettingsRecord is a page's sticky, non-expiring display preferences. It is
// a preference, not a one-shot handoff: no timestamp, no expiry.
type SettingsRecord struct {
	SearchTerm      string `json:"searchTerm"`
	StatusFilter    string `json:"statusFilter"`
	ViewMode        string `json:"viewMode"`
	SortKey         string `json:"sortKey"`
	SortDirection   string `json:"sortDirection"`
	ShowFilterPanel bool   `json:"showFilterPanel"`
}

// settingsDefaults holds the compile-time defaults per settings key.
var settingsDefaults = map[string]SettingsRecord{
	"capabilities-settings": {
		StatusFilter:  "all",
		ViewMode:      "grid",
		SortKey:       "name",
		SortDirection: "asc",
	},
	"vendors-settings": {
		StatusFilter:  "active",
		ViewMode:      "table",
		SortKey:       "name",
		SortDirection: "asc",
	},
	"reports-settings": {
		StatusFilter:  "all",
		ViewMode:      "list",
		SortKey:       "updatedAt",
		SortDirection: "desc",
	},
	"research-settings": {
		StatusFilter:  "all",
		ViewMode:      "list",
		SortKey:       "createdAt",
		SortDirection: "desc",
	},
}

// DefaultSettings returns the hard-coded defaults for a settings key. Unknown
// keys get the zero-ish generic default rather than an error: settings reads
// never fail.
func DefaultSettings(key string) SettingsRecord {
	if rec, ok := settingsDefaults[key]; ok {
		return rec
	}
	return SettingsRecord{
		StatusFilter:  "all",
		ViewMode:      "list",
		SortKey:       "name",
		SortDirection: "asc",
	}
}

// DecodeSettings parses a persisted settings blob over the given defaults.
// Fields that are missing or fail to parse fall back individually; a blob
// that is not JSON at all yields the defaults unchanged. The error return is
// advisory (for logging) - the record is always usable.
func DecodeSettings(raw []byte, defaults SettingsRecord) (SettingsRecord, error) {
	rec := defaults
	if len(raw) == 0 {
		return rec, nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return defaults, err
	}

	decodeString(fields, "searchTerm", &rec.SearchTerm)
	decodeString(fields, "statusFilter", &rec.StatusFilter)
	decodeString(fields, "viewMode", &rec.ViewMode)
	decodeString(fields, "sortKey", &rec.SortKey)
	decodeString(fields, "sortDirection", &rec.SortDirection)
	decodeBool(fields, "showFilterPanel", &rec.ShowFilterPanel)

	return rec, nil
}

// ApplyPartial merges a partial update into a record, touching only the keys
// present in the update. Unknown keys are ignored.
func ApplyPartial(current SettingsRecord, partial map[string]json.RawMessage) SettingsRecord {
	rec := current
	decodeString(partial, "searchTerm", &rec.SearchTerm)
	decodeString(partial, "statusFilter", &rec.StatusFilter)
	decodeString(partial, "viewMode", &rec.ViewMode)
	decodeString(partial, "sortKey", &rec.SortKey)
	decodeString(partial, "sortDirection", &rec.SortDirection)
	decodeBool(partial, "showFilterPanel", &rec.ShowFilterPanel)
	return rec
}

func decodeString(fields map[string]json.RawMessage, key string, dst *string) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v string
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}

func decodeBool(fields map[string]json.RawMessage, key string, dst *bool) {
	raw, ok := fields[key]
	if !ok {
		return
	}
	var v bool
	if err := json.Unmarshal(raw, &v); err == nil {
		*dst = v
	}
}
