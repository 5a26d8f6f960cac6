package engine

// parse.go turns an uploaded file into headers and rows. It absorbs the
// common artifacts of spreadsheet exports before encoding/csv sees the data:
// a UTF-8 byte-order mark, invalid UTF-8 sequences, Excel formula prefixes
// on cells, and ragged rows.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"strings"
	"unicode/utf8"
)

// utf8BOM is the UTF-8 byte-order mark Windows spreadsheet tools prepend.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV parses an uploaded CSV into cleaned headers and one RawRow per
// data line. Rows shorter than the header are padded with empty strings;
// longer rows are truncated. Returns a ValidationError when the upload is
// empty or structurally unusable.
func ParseCSV(data []byte) ([]string, []RawRow, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, &ValidationError{Reason: "empty file: upload has no content"}
	}
	if !utf8.Valid(data) {
		data = bytes.ToValidUTF8(data, []byte("?"))
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	headerRow, err := r.Read()
	if err != nil {
		return nil, nil, Validationf("invalid csv: could not read header: %v", err)
	}

	headers := make([]string, len(headerRow))
	for i, h := range headerRow {
		headers[i] = CleanCell(h)
	}

	var rows []RawRow
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, Validationf("invalid csv: %v", err)
		}

		if isEmptyRecord(record) {
			continue
		}

		row := make(RawRow, len(headers))
		for i, h := range headers {
			if h == "" {
				continue
			}
			if _, dup := row[h]; dup {
				// Duplicate header: first column wins.
				continue
			}
			if i < len(record) {
				row[h] = record[i]
			} else {
				row[h] = ""
			}
		}
		rows = append(rows, row)
	}

	return headers, rows, nil
}

// isEmptyRecord reports whether every cell is blank.
func isEmptyRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// CleanCell removes common CSV artifacts from a cell value:
//   - Trims whitespace
//   - Removes Excel formula prefix (="...")
//   - Removes surrounding quotes
func CleanCell(s string) string {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "=\"") && strings.HasSuffix(s, "\"") {
		s = s[2 : len(s)-1]
	} else if strings.HasPrefix(s, "=") {
		s = s[1:]
	}

	return strings.Trim(s, `"'`)
}

// headerLookup resolves source column names against the uploaded file's
// headers: exact match first, then case-insensitive fallback. The resolved
// name is the actual header key in RawRow.
type headerLookup struct {
	exact map[string]string
	lower map[string]string
}

func newHeaderLookup(headers []string) headerLookup {
	hl := headerLookup{
		exact: make(map[string]string, len(headers)),
		lower: make(map[string]string, len(headers)),
	}
	for _, h := range headers {
		if h == "" {
			continue
		}
		if _, ok := hl.exact[h]; !ok {
			hl.exact[h] = h
		}
		key := strings.ToLower(h)
		if _, ok := hl.lower[key]; !ok {
			hl.lower[key] = h
		}
	}
	return hl
}

// resolve returns the actual header matching name, or "" when absent.
func (hl headerLookup) resolve(name string) string {
	if h, ok := hl.exact[name]; ok {
		return h
	}
	if h, ok := hl.lower[strings.ToLower(name)]; ok {
		return h
	}
	return ""
}
