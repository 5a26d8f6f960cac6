package engine

import "testing"

func row(handle, sku string) RawRow {
	return RawRow{"Handle": handle, "Variant SKU": sku}
}

func TestGroupRows(t *testing.T) {
	headers := []string{"Handle", "Variant SKU"}

	tests := []struct {
		name       string
		rows       []RawRow
		wantGroups int
		wantKeys   []string
	}{
		{
			name:       "consecutive rows merge",
			rows:       []RawRow{row("shirt-1", "S1"), row("shirt-1", ""), row("pants-1", "P1")},
			wantGroups: 2,
			wantKeys:   []string{"shirt-1", "pants-1"},
		},
		{
			name:       "non-consecutive rows merge into first-seen group",
			rows:       []RawRow{row("shirt-1", "S1"), row("pants-1", "P1"), row("shirt-1", "")},
			wantGroups: 2,
			wantKeys:   []string{"shirt-1", "pants-1"},
		},
		{
			name:       "empty handles stay singletons",
			rows:       []RawRow{row("", "A"), row("", "B"), row("shirt-1", "S1")},
			wantGroups: 3,
			wantKeys:   []string{"", "", "shirt-1"},
		},
		{
			name:       "no rows",
			rows:       nil,
			wantGroups: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups := GroupRows(tt.rows, headers, "Handle")

			if len(groups) != tt.wantGroups {
				t.Fatalf("got %d groups, want %d", len(groups), tt.wantGroups)
			}
			for i, want := range tt.wantKeys {
				if groups[i].Key != want {
					t.Errorf("group %d key = %q, want %q", i, groups[i].Key, want)
				}
			}
		})
	}
}

func TestGroupRowsCountProperty(t *testing.T) {
	// M distinct non-empty handles plus Z empty handles yield M+Z groups.
	rows := []RawRow{
		row("a", "1"), row("b", "2"), row("a", "3"),
		row("", "4"), row("c", "5"), row("", "6"),
	}
	groups := GroupRows(rows, []string{"Handle", "Variant SKU"}, "Handle")

	if got, want := len(groups), 3+2; got != want {
		t.Errorf("got %d groups, want %d", got, want)
	}
}

func TestGroupRowsMissingColumnFallback(t *testing.T) {
	rows := []RawRow{row("shirt-1", "S1"), row("shirt-1", "S2")}
	groups := GroupRows(rows, []string{"SKU"}, "Handle")

	if len(groups) != 2 {
		t.Fatalf("got %d groups, want one singleton per row", len(groups))
	}
	for i, g := range groups {
		if g.Key != "" {
			t.Errorf("group %d key = %q, want empty in fallback mode", i, g.Key)
		}
		if len(g.Rows) != 1 {
			t.Errorf("group %d has %d rows, want 1", i, len(g.Rows))
		}
	}
}

func TestGroupRowsPreservesRowOrderWithinGroup(t *testing.T) {
	rows := []RawRow{
		row("shirt-1", "first"), row("pants-1", "x"), row("shirt-1", "second"), row("shirt-1", "third"),
	}
	groups := GroupRows(rows, []string{"Handle", "Variant SKU"}, "Handle")

	got := groups[0]
	want := []string{"first", "second", "third"}
	if len(got.Rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(got.Rows), len(want))
	}
	for i, w := range want {
		if got.Rows[i]["Variant SKU"] != w {
			t.Errorf("row %d = %q, want %q", i, got.Rows[i]["Variant SKU"], w)
		}
	}
}
