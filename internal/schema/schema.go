// Package schema defines the target CMS template schemas consumed by the
// transform engine. A template names the output columns, which of them are
// required, and which image columns are derived from positional source data
// instead of a direct column mapping.
package schema

import "fmt"

// FieldType is the declared data type of a template field.
type FieldType string

const (
	FieldText  FieldType = "text"
	FieldImage FieldType = "image"
)

// MaxImagePosition is the highest image slot a template may auto-map.
const MaxImagePosition = 5

// AutoImageRule derives an image field's value from an image-URL column and
// a 1-based position column in the source file. Rules are resolved once at
// schema load time; a field either carries a rule or it does not.
type AutoImageRule struct {
	SourceColumn   string `json:"sourceColumn"`
	PositionColumn string `json:"positionColumn"`
	Position       int    `json:"position"`
}

// Field is a single target column in a template.
type Field struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`

	// Auto is non-nil only for auto-mapped image fields.
	Auto *AutoImageRule `json:"autoMap,omitempty"`
}

// IsAutoImage reports whether the field is filled by the image auto-mapper
// rather than by a user mapping.
func (f Field) IsAutoImage() bool {
	return f.Type == FieldImage && f.Auto != nil
}

// Template is an ordered, immutable target schema. Field keys are unique and
// stable; they are the keys used by user mappings and cleanup configs.
type Template struct {
	Key              string  `json:"templateKey"`
	Name             string  `json:"templateName"`
	GroupColumn      string  `json:"groupBy"`
	RequiredFieldKey string  `json:"requiredFieldKey"`
	Fields           []Field `json:"fields"`
}

// FieldByKey returns the field with the given key.
func (t *Template) FieldByKey(key string) (Field, bool) {
	for _, f := range t.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return Field{}, false
}

// HasFieldKey reports whether key names a field in the template.
func (t *Template) HasFieldKey(key string) bool {
	_, ok := t.FieldByKey(key)
	return ok
}

// Labels returns the field labels in schema order. This is the output CSV
// header.
func (t *Template) Labels() []string {
	labels := make([]string, len(t.Fields))
	for i, f := range t.Fields {
		labels[i] = f.Label
	}
	return labels
}

// Validate checks structural invariants. Templates that fail validation are
// rejected at load time so the engine never sees a malformed schema.
func (t *Template) Validate() error {
	if t.Key == "" {
		return fmt.Errorf("template is missing templateKey")
	}
	if t.Name == "" {
		return fmt.Errorf("template %q is missing templateName", t.Key)
	}
	if len(t.Fields) == 0 {
		return fmt.Errorf("template %q has no fields", t.Key)
	}

	seen := make(map[string]bool, len(t.Fields))
	for _, f := range t.Fields {
		if f.Key == "" {
			return fmt.Errorf("template %q has a field with an empty key", t.Key)
		}
		if seen[f.Key] {
			return fmt.Errorf("template %q has duplicate field key %q", t.Key, f.Key)
		}
		seen[f.Key] = true

		if f.Label == "" {
			return fmt.Errorf("template %q field %q is missing a label", t.Key, f.Key)
		}
		switch f.Type {
		case FieldText, FieldImage:
		default:
			return fmt.Errorf("template %q field %q has unknown type %q", t.Key, f.Key, f.Type)
		}

		if f.Auto != nil {
			if f.Type != FieldImage {
				return fmt.Errorf("template %q field %q: autoMap is only valid on image fields", t.Key, f.Key)
			}
			if f.Auto.SourceColumn == "" || f.Auto.PositionColumn == "" {
				return fmt.Errorf("template %q field %q: autoMap needs sourceColumn and positionColumn", t.Key, f.Key)
			}
			if f.Auto.Position < 1 || f.Auto.Position > MaxImagePosition {
				return fmt.Errorf("template %q field %q: autoMap position %d out of range 1-%d",
					t.Key, f.Key, f.Auto.Position, MaxImagePosition)
			}
		}
	}

	if t.RequiredFieldKey != "" && !seen[t.RequiredFieldKey] {
		return fmt.Errorf("template %q: requiredFieldKey %q does not match any field", t.Key, t.RequiredFieldKey)
	}

	return nil
}
