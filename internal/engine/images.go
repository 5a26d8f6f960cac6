package engine

// images.go derives positional image fields for one product group. Shopify
// exports carry one image per row with a 1-based "Image Position"; the
// template's auto-image rules assign position N to a named output field.

import (
	"math"
	"strconv"
	"strings"

	"github.com/zilohq/catalog-transform/internal/schema"
)

// autoMapImages walks the group's rows in order and assigns image URLs to
// the template's auto-image fields. A later row with the same position
// overwrites an earlier one: last seen wins, row order is authoritative.
// Rows with an absent, non-numeric, or out-of-range position contribute
// nothing. Returns field key -> URL (possibly empty).
func autoMapImages(g ProductGroup, fields []schema.Field, hl headerLookup) map[string]string {
	images := make(map[string]string)

	for _, row := range g.Rows {
		for _, f := range fields {
			if !f.IsAutoImage() {
				continue
			}

			posCol := hl.resolve(f.Auto.PositionColumn)
			srcCol := hl.resolve(f.Auto.SourceColumn)
			if posCol == "" || srcCol == "" {
				continue
			}

			pos, ok := parseImagePosition(row[posCol])
			if !ok || pos != f.Auto.Position {
				continue
			}

			url := strings.TrimSpace(row[srcCol])
			if url == "" {
				continue
			}

			images[f.Key] = url
		}
	}

	return images
}

// parseImagePosition parses a position cell to an integer in
// 1..schema.MaxImagePosition. Integer-valued floats ("2.0") are accepted
// since spreadsheet round-trips produce them; anything else is rejected.
func parseImagePosition(raw string) (int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}

	pos, err := strconv.Atoi(raw)
	if err != nil {
		f, ferr := strconv.ParseFloat(raw, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, false
		}
		pos = int(f)
	}

	if pos < 1 || pos > schema.MaxImagePosition {
		return 0, false
	}
	return pos, true
}
