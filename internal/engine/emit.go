package engine

// emit.go serializes final records to the output CSV. The file is prefixed
// with a UTF-8 byte-order mark and uses CRLF line endings so Excel opens it
// correctly. Emission is deterministic: identical inputs produce
// byte-identical output.

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/zilohq/catalog-transform/internal/schema"
)

// EmitCSV writes the header (field labels in schema order) and one data row
// per record, values in the same order. Standard CSV quoting applies to
// values containing separators, quotes, or newlines.
func EmitCSV(t *schema.Template, records []OutputRecord) ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	w := csv.NewWriter(&buf)
	w.UseCRLF = true

	if err := w.Write(t.Labels()); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(t.Fields))
	for _, rec := range records {
		for i, f := range t.Fields {
			row[i] = rec[f.Key]
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write record: %w", err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush output: %w", err)
	}

	return buf.Bytes(), nil
}
