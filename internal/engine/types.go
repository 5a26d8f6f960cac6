// Package engine converts a Shopify-style product export CSV into a target
// CMS import CSV according to a template schema and a user field mapping.
// This package has no HTTP dependencies; all entities are built fresh per
// transform call and discarded afterwards.
package engine

import (
	"encoding/json"
	"strings"
)

// noneMapping is the UI's placeholder for "field intentionally unmapped".
const noneMapping = "(none)"

// Mapping associates template field keys with source CSV column names.
// An absent key means the field is unmapped. Empty and "(none)" values are
// normalized to absent when parsed.
type Mapping map[string]string

// ParseMapping decodes a JSON mapping payload and normalizes placeholder
// values. An empty payload yields an empty mapping. Keys are not validated
// here; Transform and SaveDefaultMapping check them against the template.
func ParseMapping(raw string) (Mapping, error) {
	if strings.TrimSpace(raw) == "" {
		return Mapping{}, nil
	}

	var m Mapping
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, &ValidationError{Reason: "invalid mapping payload: " + err.Error()}
	}

	return m.normalized(), nil
}

// normalized returns a copy with empty and "(none)" values removed.
func (m Mapping) normalized() Mapping {
	out := make(Mapping, len(m))
	for key, col := range m {
		col = strings.TrimSpace(col)
		if col == "" || col == noneMapping {
			continue
		}
		out[key] = col
	}
	return out
}

// Clone returns an independent copy so concurrent transforms never share
// mutable state.
func (m Mapping) Clone() Mapping {
	out := make(Mapping, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// CleanupConfig names the output columns (by template field key) the text
// cleanup pipeline runs over. Columns not listed pass through unchanged.
type CleanupConfig struct {
	Columns []string `json:"columns"`
}

// ParseCleanupConfig decodes a JSON cleanup payload. An empty payload yields
// an empty config.
func ParseCleanupConfig(raw string) (CleanupConfig, error) {
	if strings.TrimSpace(raw) == "" {
		return CleanupConfig{}, nil
	}

	var c CleanupConfig
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return CleanupConfig{}, &ValidationError{Reason: "invalid textCleanup payload: " + err.Error()}
	}

	cols := make([]string, 0, len(c.Columns))
	for _, col := range c.Columns {
		col = strings.TrimSpace(col)
		if col != "" {
			cols = append(cols, col)
		}
	}
	return CleanupConfig{Columns: cols}, nil
}

// Has reports whether the config targets the given field key.
func (c CleanupConfig) Has(key string) bool {
	for _, col := range c.Columns {
		if col == key {
			return true
		}
	}
	return false
}

// Clone returns an independent copy.
func (c CleanupConfig) Clone() CleanupConfig {
	return CleanupConfig{Columns: append([]string(nil), c.Columns...)}
}

// Defaults is the per-template saved state: the last mapping a user saved
// plus the cleanup columns that go with it.
type Defaults struct {
	Mapping Mapping       `json:"mapping"`
	Cleanup CleanupConfig `json:"textCleanup"`
}

// EmptyDefaults returns a usable zero value (non-nil mapping, no columns).
func EmptyDefaults() Defaults {
	return Defaults{Mapping: Mapping{}, Cleanup: CleanupConfig{Columns: []string{}}}
}

// RawRow is one parsed source CSV line, keyed by cleaned header name.
type RawRow map[string]string

// ProductGroup is the set of source rows belonging to one logical product,
// in original row order. Key is empty for singleton fallback groups.
type ProductGroup struct {
	Key  string
	Rows []RawRow
}

// OutputRecord maps template field keys to final output values.
type OutputRecord map[string]string

// TransformRequest carries everything one transform call needs. Each request
// operates on its own copies; the engine holds no state across calls.
type TransformRequest struct {
	TemplateKey string
	File        []byte
	Mapping     Mapping
	Cleanup     CleanupConfig
	Filename    string
}

// TransformResult is the outcome of a successful transform.
type TransformResult struct {
	CSV         []byte
	Filename    string
	Records     int
	DroppedRows int

	// Unmapped lists the labels of non-auto fields the mapping did not
	// cover. A soft warning: the transform still succeeded, those columns
	// are simply empty.
	Unmapped []string
}

// PreviewResult reports what a transform would do, without producing output.
// The caller uses Unmapped to decide whether to proceed or abort.
type PreviewResult struct {
	TemplateKey   string   `json:"templateKey"`
	SourceColumns []string `json:"sourceColumns"`
	Rows          int      `json:"rows"`
	Groups        int      `json:"groups"`
	Unmapped      []string `json:"unmappedFields"`
}

// TemplateInfo is the listing shape for available templates.
type TemplateInfo struct {
	TemplateKey  string `json:"templateKey"`
	TemplateName string `json:"templateName"`
}
