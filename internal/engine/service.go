package engine

import (
	"context"
	"strings"

	"github.com/zilohq/catalog-transform/internal/schema"
)

// DefaultOutputFilename is used when the caller supplies no filename.
const DefaultOutputFilename = "zilo_export.csv"

// MappingStore is the externally-owned persistence for per-template default
// mappings. Implementations must serialize concurrent writes to the same
// template key; the engine only reads and writes the value object.
type MappingStore interface {
	GetDefaults(ctx context.Context, templateKey string) (Defaults, bool, error)
	PutDefaults(ctx context.Context, templateKey string, d Defaults) error
}

// Service exposes the engine's operations to the calling layer. It holds the
// loaded template registry and the mapping store; everything else is built
// fresh per call.
type Service struct {
	templates *schema.Registry
	store     MappingStore
}

// NewService creates a Service over a loaded template registry and a
// mapping store.
func NewService(templates *schema.Registry, store MappingStore) *Service {
	return &Service{templates: templates, store: store}
}

// ListTemplates returns the available templates in load order.
func (s *Service) ListTemplates() []TemplateInfo {
	all := s.templates.All()
	infos := make([]TemplateInfo, len(all))
	for i, t := range all {
		infos[i] = TemplateInfo{TemplateKey: t.Key, TemplateName: t.Name}
	}
	return infos
}

// GetTemplate returns a template schema by key.
func (s *Service) GetTemplate(key string) (*schema.Template, error) {
	t, ok := s.templates.Get(key)
	if !ok {
		return nil, &NotFoundError{Kind: "template", Key: key}
	}
	return t, nil
}

// GetDefaultMapping returns the saved defaults for a template, or empty
// defaults when none were saved yet.
func (s *Service) GetDefaultMapping(ctx context.Context, templateKey string) (Defaults, error) {
	if _, ok := s.templates.Get(templateKey); !ok {
		return Defaults{}, &NotFoundError{Kind: "template", Key: templateKey}
	}

	d, ok, err := s.store.GetDefaults(ctx, templateKey)
	if err != nil {
		return Defaults{}, err
	}
	if !ok {
		return EmptyDefaults(), nil
	}

	// Hand out copies so callers never share store-owned state.
	return Defaults{Mapping: d.Mapping.Clone(), Cleanup: d.Cleanup.Clone()}, nil
}

// SaveDefaultMapping validates the payload against the template and stores
// it. The store write is atomic per key; a validation failure never touches
// the store.
func (s *Service) SaveDefaultMapping(ctx context.Context, templateKey string, d Defaults) error {
	t, ok := s.templates.Get(templateKey)
	if !ok {
		return &NotFoundError{Kind: "template", Key: templateKey}
	}

	d.Mapping = d.Mapping.normalized()
	if err := validateMappingKeys(t, d.Mapping); err != nil {
		return err
	}
	if err := validateCleanupColumns(t, d.Cleanup); err != nil {
		return err
	}

	return s.store.PutDefaults(ctx, templateKey, d)
}

// Preview parses the upload and reports what a transform would do: the
// source columns found, row and group counts, and the unmapped field
// labels. This is the caller's decision point before running Transform.
func (s *Service) Preview(ctx context.Context, req TransformRequest) (*PreviewResult, error) {
	t, ok := s.templates.Get(req.TemplateKey)
	if !ok {
		return nil, Validationf("unknown templateKey %q", req.TemplateKey)
	}

	mapping := req.Mapping.normalized()
	if err := validateMappingKeys(t, mapping); err != nil {
		return nil, err
	}

	headers, rows, err := ParseCSV(req.File)
	if err != nil {
		return nil, err
	}

	res := ResolveMapping(t, mapping, headers)
	groups := GroupRows(rows, headers, t.GroupColumn)

	return &PreviewResult{
		TemplateKey:   t.Key,
		SourceColumns: headers,
		Rows:          len(rows),
		Groups:        len(groups),
		Unmapped:      res.Unmapped,
	}, nil
}

// Transform runs the full pipeline in one linear pass:
// Parse -> Resolve -> Group -> Auto-map images -> Flatten -> Cleanup ->
// Filter -> Emit. There is no partial output: either the whole pipeline
// succeeds and the CSV bytes are returned, or a typed error is.
func (s *Service) Transform(ctx context.Context, req TransformRequest) (*TransformResult, error) {
	t, ok := s.templates.Get(req.TemplateKey)
	if !ok {
		return nil, Validationf("unknown templateKey %q", req.TemplateKey)
	}

	mapping := req.Mapping.normalized()
	if err := validateMappingKeys(t, mapping); err != nil {
		return nil, err
	}
	if err := validateCleanupColumns(t, req.Cleanup); err != nil {
		return nil, err
	}

	headers, rows, err := ParseCSV(req.File)
	if err != nil {
		return nil, err
	}

	res := ResolveMapping(t, mapping, headers)
	hl := newHeaderLookup(headers)
	groups := GroupRows(rows, headers, t.GroupColumn)

	records := make([]OutputRecord, 0, len(groups))
	for _, g := range groups {
		rec := flattenGroup(res, g)
		for key, url := range autoMapImages(g, t.Fields, hl) {
			rec[key] = url
		}
		applyCleanup(rec, req.Cleanup)
		records = append(records, rec)
	}

	kept, dropped := filterRequired(records, t.RequiredFieldKey)

	out, err := EmitCSV(t, kept)
	if err != nil {
		return nil, err
	}

	filename := strings.TrimSpace(req.Filename)
	if filename == "" {
		filename = DefaultOutputFilename
	}

	return &TransformResult{
		CSV:         out,
		Filename:    filename,
		Records:     len(kept),
		DroppedRows: dropped,
		Unmapped:    res.Unmapped,
	}, nil
}

// flattenGroup builds one output record from a product group. For each
// mapped field the first non-empty value in row order wins, collapsing the
// product's image rows into product-level values. Unmapped and auto-image
// fields start empty; the auto-mapper fills the latter afterwards.
func flattenGroup(res Resolution, g ProductGroup) OutputRecord {
	rec := make(OutputRecord, len(res.Bindings))
	for _, b := range res.Bindings {
		rec[b.Field.Key] = ""
		if b.Source == "" {
			continue
		}
		for _, row := range g.Rows {
			if v := strings.TrimSpace(row[b.Source]); v != "" {
				rec[b.Field.Key] = v
				break
			}
		}
	}
	return rec
}
