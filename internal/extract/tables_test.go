package extract

import (
	"reflect"
	"testing"
)

func row(y float64, cells ...[2]interface{}) []span {
	out := make([]span, 0, len(cells))
	for _, c := range cells {
		out = append(out, span{
			x:    c[0].(float64),
			y:    y,
			w:    float64(len(c[1].(string))) * 5,
			text: c[1].(string),
		})
	}
	return out
}

func TestClusterRows(t *testing.T) {
	spans := []span{
		{x: 10, y: 700, text: "b"},
		{x: 5, y: 701, text: "a"},
		{x: 5, y: 650, text: "c"},
	}
	rows := clusterRows(spans)
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0][0].text != "a" || rows[0][1].text != "b" {
		t.Errorf("first row not sorted left to right: %+v", rows[0])
	}
	if rows[1][0].text != "c" {
		t.Errorf("second row wrong: %+v", rows[1])
	}
}

func TestSplitCells(t *testing.T) {
	tests := []struct {
		name string
		row  []span
		want []string
	}{
		{
			name: "single cell from adjacent spans",
			row: []span{
				{x: 10, w: 20, text: "hello"},
				{x: 31, w: 20, text: "world"},
			},
			want: []string{"hello world"},
		},
		{
			name: "wide gap starts new cell",
			row: []span{
				{x: 10, w: 20, text: "name"},
				{x: 200, w: 20, text: "price"},
			},
			want: []string{"name", "price"},
		},
		{
			name: "glyph runs with no gap merge without space",
			row: []span{
				{x: 10, w: 5, text: "ab"},
				{x: 15, w: 5, text: "cd"},
			},
			want: []string{"abcd"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitCells(tt.row)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("splitCells() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDetectTables(t *testing.T) {
	var spans []span
	// two-column table spanning three rows
	spans = append(spans, row(700, [2]interface{}{10.0, "name"}, [2]interface{}{300.0, "price"})...)
	spans = append(spans, row(680, [2]interface{}{10.0, "apple"}, [2]interface{}{300.0, "1.50"})...)
	spans = append(spans, row(660, [2]interface{}{10.0, "pear"}, [2]interface{}{300.0, "2.00"})...)
	// prose line, single cell
	spans = append(spans, row(640, [2]interface{}{10.0, "totals computed daily"})...)

	tables := detectTables(spans)
	if len(tables) != 1 {
		t.Fatalf("expected 1 table, got %d", len(tables))
	}
	want := [][]string{
		{"name", "price"},
		{"apple", "1.50"},
		{"pear", "2.00"},
	}
	if !reflect.DeepEqual(tables[0].Rows, want) {
		t.Errorf("rows = %v, want %v", tables[0].Rows, want)
	}
	if tables[0].Number != 1 {
		t.Errorf("table number = %d, want 1", tables[0].Number)
	}
	if tables[0].HTML != TableToHTML(want) {
		t.Errorf("html = %q, want rendering of rows", tables[0].HTML)
	}
}

func TestDetectTablesIgnoresShortRuns(t *testing.T) {
	// a single multi-cell row is columned prose, not a table
	spans := row(700, [2]interface{}{10.0, "left"}, [2]interface{}{300.0, "right"})
	if tables := detectTables(spans); len(tables) != 0 {
		t.Fatalf("expected no tables, got %d", len(tables))
	}
	if tables := detectTables(nil); len(tables) != 0 {
		t.Fatalf("expected no tables for empty page, got %d", len(tables))
	}
}
