package engine

// group.go partitions source rows into logical products. Shopify exports
// emit one row per image, all sharing the product's handle; grouping
// reassembles them so one output record is produced per product.

import "strings"

// GroupRows partitions rows into ProductGroups using the template's grouping
// column (the handle).
//
// When the column exists in the upload, rows sharing the same non-empty
// handle form one group even when they are not adjacent; groups keep
// first-seen order and rows keep original order within a group. Rows with an
// empty handle each form their own singleton group.
//
// When the column is absent, every row becomes its own singleton group.
// Multi-image broadcasting is unavailable in that mode, but the transform
// still runs. Grouping never fails.
func GroupRows(rows []RawRow, headers []string, groupColumn string) []ProductGroup {
	col := newHeaderLookup(headers).resolve(groupColumn)
	if col == "" {
		groups := make([]ProductGroup, len(rows))
		for i, row := range rows {
			groups[i] = ProductGroup{Rows: []RawRow{row}}
		}
		return groups
	}

	var groups []ProductGroup
	index := make(map[string]int)

	for _, row := range rows {
		key := strings.TrimSpace(row[col])
		if key == "" {
			// Never merged with each other or with any named group.
			groups = append(groups, ProductGroup{Rows: []RawRow{row}})
			continue
		}

		if i, ok := index[key]; ok {
			groups[i].Rows = append(groups[i].Rows, row)
			continue
		}

		index[key] = len(groups)
		groups = append(groups, ProductGroup{Key: key, Rows: []RawRow{row}})
	}

	return groups
}
