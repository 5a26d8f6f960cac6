package engine

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/zilohq/catalog-transform/internal/schema"
)

// fakeStore is an in-test MappingStore.
type fakeStore struct {
	m map[string]Defaults
}

func newFakeStore() *fakeStore { return &fakeStore{m: make(map[string]Defaults)} }

func (s *fakeStore) GetDefaults(_ context.Context, key string) (Defaults, bool, error) {
	d, ok := s.m[key]
	return d, ok, nil
}

func (s *fakeStore) PutDefaults(_ context.Context, key string, d Defaults) error {
	s.m[key] = d
	return nil
}

func testService(t *testing.T) *Service {
	t.Helper()
	reg := schema.NewRegistry()
	if err := reg.Register(testTemplate()); err != nil {
		t.Fatalf("register template: %v", err)
	}
	return NewService(reg, newFakeStore())
}

// parseOutput re-reads emitted CSV (minus BOM) for assertions.
func parseOutput(t *testing.T, out []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(out, []byte{0xEF, 0xBB, 0xBF})))
	all, err := r.ReadAll()
	if err != nil {
		t.Fatalf("re-parse output: %v", err)
	}
	return all
}

var testMapping = Mapping{"sku": "Variant SKU", "title": "Title"}

func TestTransformMultiImageProduct(t *testing.T) {
	// Two rows for one handle collapse to a single record with both image
	// slots filled from the positional columns.
	src := strings.Join([]string{
		"Handle,Variant SKU,Title,Image Src,Image Position",
		"shirt-1,S1,Blue Shirt,u1,1",
		"shirt-1,S1,Blue Shirt,u2,2",
	}, "\n")

	result, err := testService(t).Transform(context.Background(), TransformRequest{
		TemplateKey: "test-catalog",
		File:        []byte(src),
		Mapping:     testMapping,
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if result.DroppedRows != 0 {
		t.Errorf("DroppedRows = %d, want 0", result.DroppedRows)
	}
	if len(result.Unmapped) != 0 {
		t.Errorf("Unmapped = %v, want none", result.Unmapped)
	}

	all := parseOutput(t, result.CSV)
	if len(all) != 2 {
		t.Fatalf("got %d output lines, want header + 1 record", len(all))
	}

	want := []string{"S1", "Blue Shirt", "u1", "u2"}
	for i, v := range want {
		if all[1][i] != v {
			t.Errorf("record[%d] = %q, want %q", i, all[1][i], v)
		}
	}
}

func TestTransformDropsBlankSKU(t *testing.T) {
	src := strings.Join([]string{
		"Handle,Variant SKU,Title,Image Src,Image Position",
		"a,S1,One,,",
		"b,,No SKU,,",
		"c,S3,Three,,",
	}, "\n")

	result, err := testService(t).Transform(context.Background(), TransformRequest{
		TemplateKey: "test-catalog",
		File:        []byte(src),
		Mapping:     testMapping,
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if result.DroppedRows != 1 {
		t.Errorf("DroppedRows = %d, want 1", result.DroppedRows)
	}
	if result.Records != 2 {
		t.Errorf("Records = %d, want 2", result.Records)
	}

	all := parseOutput(t, result.CSV)
	if len(all) != 3 {
		t.Fatalf("got %d lines, want header + 2 records", len(all))
	}
	if all[1][0] != "S1" || all[2][0] != "S3" {
		t.Errorf("kept records wrong or reordered: %v", all[1:])
	}
}

func TestTransformProceedsWithUnmappedField(t *testing.T) {
	// Title is not mapped: it is reported as unmapped, the transform still
	// succeeds, and the Title column is empty in every record.
	src := strings.Join([]string{
		"Handle,Variant SKU,Title",
		"a,S1,One",
		"b,S2,Two",
	}, "\n")

	result, err := testService(t).Transform(context.Background(), TransformRequest{
		TemplateKey: "test-catalog",
		File:        []byte(src),
		Mapping:     Mapping{"sku": "Variant SKU"},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	if len(result.Unmapped) != 1 || result.Unmapped[0] != "Title" {
		t.Errorf("Unmapped = %v, want [Title]", result.Unmapped)
	}

	all := parseOutput(t, result.CSV)
	for i, rec := range all[1:] {
		if rec[1] != "" {
			t.Errorf("record %d Title = %q, want empty", i, rec[1])
		}
		if rec[0] == "" {
			t.Errorf("record %d lost its SKU", i)
		}
	}
}

func TestTransformCleanupColumns(t *testing.T) {
	src := strings.Join([]string{
		"Handle,Variant SKU,Title",
		`a,S1,"<p>Blue&amp;nbsp;Shirt</p>"`,
	}, "\n")

	result, err := testService(t).Transform(context.Background(), TransformRequest{
		TemplateKey: "test-catalog",
		File:        []byte(src),
		Mapping:     testMapping,
		Cleanup:     CleanupConfig{Columns: []string{"title"}},
	})
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}

	all := parseOutput(t, result.CSV)
	if got := all[1][1]; got != "Blue Shirt" {
		t.Errorf("cleaned title = %q, want %q", got, "Blue Shirt")
	}
}

func TestTransformValidationErrors(t *testing.T) {
	svc := testService(t)
	goodFile := []byte("Handle,Variant SKU,Title\na,S1,One\n")

	tests := []struct {
		name string
		req  TransformRequest
	}{
		{
			name: "unknown template key",
			req:  TransformRequest{TemplateKey: "nope", File: goodFile, Mapping: testMapping},
		},
		{
			name: "mapping with unknown field key",
			req: TransformRequest{TemplateKey: "test-catalog", File: goodFile,
				Mapping: Mapping{"bogus": "Title"}},
		},
		{
			name: "cleanup with unknown column",
			req: TransformRequest{TemplateKey: "test-catalog", File: goodFile,
				Mapping: testMapping, Cleanup: CleanupConfig{Columns: []string{"bogus"}}},
		},
		{
			name: "empty file",
			req:  TransformRequest{TemplateKey: "test-catalog", File: nil, Mapping: testMapping},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Transform(context.Background(), tt.req)
			if err == nil {
				t.Fatal("expected error")
			}
			if !IsValidation(err) {
				t.Errorf("want ValidationError, got %T: %v", err, err)
			}
		})
	}
}

func TestPreview(t *testing.T) {
	src := strings.Join([]string{
		"Handle,Variant SKU,Title",
		"a,S1,One",
		"a,S1,One",
		"b,S2,Two",
	}, "\n")

	result, err := testService(t).Preview(context.Background(), TransformRequest{
		TemplateKey: "test-catalog",
		File:        []byte(src),
		Mapping:     Mapping{"sku": "Variant SKU"},
	})
	if err != nil {
		t.Fatalf("Preview: %v", err)
	}

	if result.Rows != 3 {
		t.Errorf("Rows = %d, want 3", result.Rows)
	}
	if result.Groups != 2 {
		t.Errorf("Groups = %d, want 2", result.Groups)
	}
	if len(result.Unmapped) != 1 || result.Unmapped[0] != "Title" {
		t.Errorf("Unmapped = %v, want [Title]", result.Unmapped)
	}
}

func TestDefaultMappingRoundTrip(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	// Empty defaults before any save.
	d, err := svc.GetDefaultMapping(ctx, "test-catalog")
	if err != nil {
		t.Fatalf("GetDefaultMapping: %v", err)
	}
	if len(d.Mapping) != 0 || len(d.Cleanup.Columns) != 0 {
		t.Errorf("expected empty defaults, got %+v", d)
	}

	saved := Defaults{
		Mapping: Mapping{"sku": "Variant SKU", "title": "(none)"},
		Cleanup: CleanupConfig{Columns: []string{"title"}},
	}
	if err := svc.SaveDefaultMapping(ctx, "test-catalog", saved); err != nil {
		t.Fatalf("SaveDefaultMapping: %v", err)
	}

	got, err := svc.GetDefaultMapping(ctx, "test-catalog")
	if err != nil {
		t.Fatalf("GetDefaultMapping: %v", err)
	}

	// "(none)" was normalized away on save.
	if _, ok := got.Mapping["title"]; ok {
		t.Error(`"(none)" mapping survived normalization`)
	}
	if got.Mapping["sku"] != "Variant SKU" {
		t.Errorf("Mapping = %v", got.Mapping)
	}
	if len(got.Cleanup.Columns) != 1 || got.Cleanup.Columns[0] != "title" {
		t.Errorf("Cleanup = %v", got.Cleanup)
	}
}

func TestSaveDefaultMappingValidates(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if err := svc.SaveDefaultMapping(ctx, "missing", Defaults{}); !IsNotFound(err) {
		t.Errorf("want NotFoundError for unknown template, got %v", err)
	}

	err := svc.SaveDefaultMapping(ctx, "test-catalog", Defaults{
		Mapping: Mapping{"bogus": "X"},
	})
	if !IsValidation(err) {
		t.Errorf("want ValidationError for unknown field key, got %v", err)
	}
}

func TestListAndGetTemplate(t *testing.T) {
	svc := testService(t)

	infos := svc.ListTemplates()
	if len(infos) != 1 || infos[0].TemplateKey != "test-catalog" {
		t.Errorf("ListTemplates = %v", infos)
	}

	if _, err := svc.GetTemplate("test-catalog"); err != nil {
		t.Errorf("GetTemplate: %v", err)
	}
	if _, err := svc.GetTemplate("missing"); !IsNotFound(err) {
		t.Errorf("want NotFoundError, got %v", err)
	}
}
