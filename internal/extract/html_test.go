package extract

import (
	"reflect"
	"testing"
)

func TestTableHTMLRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		rows [][]string
	}{
		{
			name: "header and data rows",
			rows: [][]string{
				{"name", "price"},
				{"apple", "1.50"},
				{"pear", "2.00"},
			},
		},
		{
			name: "cells needing escaping",
			rows: [][]string{
				{"expr", "meaning"},
				{"a < b", "\"less than\" & ordering"},
			},
		},
		{
			name: "ragged rows",
			rows: [][]string{
				{"a", "b", "c"},
				{"only one"},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fragment := TableToHTML(tt.rows)
			got, err := ParseTableHTML(fragment)
			if err != nil {
				t.Fatalf("ParseTableHTML: %v", err)
			}
			if !reflect.DeepEqual(got, tt.rows) {
				t.Errorf("round trip = %v, want %v", got, tt.rows)
			}
		})
	}
}

func TestTableToHTMLHeader(t *testing.T) {
	fragment := TableToHTML([][]string{{"h1", "h2"}, {"d1", "d2"}})
	want := "<table><tr><th>h1</th><th>h2</th></tr><tr><td>d1</td><td>d2</td></tr></table>"
	if fragment != want {
		t.Errorf("fragment = %s, want %s", fragment, want)
	}
}

func TestParseTableHTMLRejectsGarbage(t *testing.T) {
	if _, err := ParseTableHTML("<div>nope</div>"); err == nil {
		t.Error("expected error for non-table fragment")
	}
	if _, err := ParseTableHTML("<table><tr><td>open"); err == nil {
		t.Error("expected error for unterminated cell")
	}
	got, err := ParseTableHTML("")
	if err != nil || got != nil {
		t.Errorf("empty input should parse to nil, got %v, %v", got, err)
	}
}
