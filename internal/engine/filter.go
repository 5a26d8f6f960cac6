package engine

// filter.go drops output records that lack the mandatory identifier.

import "strings"

// filterRequired returns the records whose value for requiredKey is
// non-blank, preserving order, plus the count of dropped records. Records
// are never mutated; a dropped row is a soft outcome reported to the
// caller, not an error. An empty requiredKey disables filtering.
func filterRequired(records []OutputRecord, requiredKey string) ([]OutputRecord, int) {
	if requiredKey == "" {
		return records, 0
	}

	kept := make([]OutputRecord, 0, len(records))
	dropped := 0
	for _, rec := range records {
		if strings.TrimSpace(rec[requiredKey]) == "" {
			dropped++
			continue
		}
		kept = append(kept, rec)
	}
	return kept, dropped
}
