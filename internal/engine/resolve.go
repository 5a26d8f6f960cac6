package engine

// resolve.go merges a template schema with a user mapping and classifies
// every field as mapped, auto-mapped, or unmapped. Resolution is a pure
// function of its inputs: it reports, it never blocks the run.

import "github.com/zilohq/catalog-transform/internal/schema"

// FieldBinding pairs a template field with its resolved source column.
// Source is the actual uploaded header name, or "" when the field is
// unmapped or auto-mapped.
type FieldBinding struct {
	Field  schema.Field
	Source string
}

// Resolution is the outcome of merging a template with a user mapping.
type Resolution struct {
	// Bindings follow schema field order and cover every field.
	Bindings []FieldBinding

	// Unmapped lists the labels of non-auto fields with no usable source
	// column, in schema order. Auto-image fields never appear here.
	Unmapped []string
}

// ResolveMapping classifies each template field against the mapping and the
// uploaded file's headers. A mapping entry pointing at a column absent from
// the file is ignored, which leaves the field unmapped rather than failing
// the run.
func ResolveMapping(t *schema.Template, m Mapping, headers []string) Resolution {
	hl := newHeaderLookup(headers)

	res := Resolution{Bindings: make([]FieldBinding, 0, len(t.Fields))}
	for _, f := range t.Fields {
		if f.IsAutoImage() {
			res.Bindings = append(res.Bindings, FieldBinding{Field: f})
			continue
		}

		source := ""
		if col, ok := m[f.Key]; ok {
			source = hl.resolve(col)
		}

		res.Bindings = append(res.Bindings, FieldBinding{Field: f, Source: source})
		if source == "" {
			res.Unmapped = append(res.Unmapped, f.Label)
		}
	}

	return res
}

// validateMappingKeys rejects mapping entries whose key is not a template
// field. Unknown keys are a payload problem, not a data problem, so they are
// an error rather than being silently dropped.
func validateMappingKeys(t *schema.Template, m Mapping) error {
	for key := range m {
		if !t.HasFieldKey(key) {
			return Validationf("unknown template field %q in mapping for template %q", key, t.Key)
		}
	}
	return nil
}

// validateCleanupColumns rejects cleanup entries that are not template field
// keys.
func validateCleanupColumns(t *schema.Template, c CleanupConfig) error {
	for _, col := range c.Columns {
		if !t.HasFieldKey(col) {
			return Validationf("unknown cleanup column %q for template %q", col, t.Key)
		}
	}
	return nil
}
