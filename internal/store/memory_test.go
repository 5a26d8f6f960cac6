package store

import (
	"context"
	"testing"

	"github.com/zilohq/catalog-transform/internal/engine"
)

func TestMemoryPutGet(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	if _, ok, err := s.GetDefaults(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetDefaults(missing) = ok=%v err=%v, want absent", ok, err)
	}

	d := engine.Defaults{
		Mapping: engine.Mapping{"sku": "Variant SKU"},
		Cleanup: engine.CleanupConfig{Columns: []string{"title"}},
	}
	if err := s.PutDefaults(ctx, "t1", d); err != nil {
		t.Fatalf("PutDefaults: %v", err)
	}

	got, ok, err := s.GetDefaults(ctx, "t1")
	if err != nil || !ok {
		t.Fatalf("GetDefaults = ok=%v err=%v", ok, err)
	}
	if got.Mapping["sku"] != "Variant SKU" {
		t.Errorf("Mapping = %v", got.Mapping)
	}
	if len(got.Cleanup.Columns) != 1 || got.Cleanup.Columns[0] != "title" {
		t.Errorf("Cleanup = %v", got.Cleanup)
	}
}

func TestMemoryLastWriteWins(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	first := engine.Defaults{Mapping: engine.Mapping{"sku": "A"}}
	second := engine.Defaults{Mapping: engine.Mapping{"sku": "B"}}
	if err := s.PutDefaults(ctx, "t1", first); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDefaults(ctx, "t1", second); err != nil {
		t.Fatal(err)
	}

	got, _, _ := s.GetDefaults(ctx, "t1")
	if got.Mapping["sku"] != "B" {
		t.Errorf("Mapping = %v, want the second write", got.Mapping)
	}
}

func TestMemoryCopiesValues(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	d := engine.Defaults{Mapping: engine.Mapping{"sku": "A"}}
	if err := s.PutDefaults(ctx, "t1", d); err != nil {
		t.Fatal(err)
	}

	// Mutating the caller's value after Put must not leak into the store.
	d.Mapping["sku"] = "mutated"
	got, _, _ := s.GetDefaults(ctx, "t1")
	if got.Mapping["sku"] != "A" {
		t.Error("store shares state with the writer")
	}

	// Mutating a returned value must not leak either.
	got.Mapping["sku"] = "mutated"
	again, _, _ := s.GetDefaults(ctx, "t1")
	if again.Mapping["sku"] != "A" {
		t.Error("store shares state with the reader")
	}
}
