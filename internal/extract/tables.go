package extract

import (
	"math"
	"sort"
	"strings"
)

// span is one positioned text run from a page content stream. Coordinates
// follow PDF conventions, y grows upward.
type span struct {
	x        float64
	y        float64
	w        float64
	fontSize float64
	text     string
}

const (
	// rowTolerance groups spans whose baselines differ by less than this
	// many points into one visual row.
	rowTolerance = 2.0
	// cellGap is the minimum horizontal whitespace, in points, that starts
	// a new cell inside a row.
	cellGap = 10.0
	// minTableRows is the shortest run of multi-cell rows treated as a
	// table rather than columned prose.
	minTableRows = 2
)

// detectTables finds grid-shaped regions on a page. Rows are spans clustered
// by baseline, cells are runs separated by wide horizontal gaps, and a table
// is a run of at least minTableRows consecutive rows that each split into
// two or more cells.
func detectTables(spans []span) []Table {
	rows := clusterRows(spans)
	var tables []Table
	var block [][]string
	flush := func() {
		if len(block) >= minTableRows {
			tables = append(tables, Table{
				Number: len(tables) + 1,
				Rows:   block,
				HTML:   TableToHTML(block),
			})
		}
		block = nil
	}
	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) >= 2 {
			block = append(block, cells)
			continue
		}
		flush()
	}
	flush()
	return tables
}

// clusterRows sorts spans top to bottom and buckets them by baseline.
// Each returned row is ordered left to right.
func clusterRows(spans []span) [][]span {
	if len(spans) == 0 {
		return nil
	}
	sorted := make([]span, len(spans))
	copy(sorted, spans)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].y != sorted[j].y {
			return sorted[i].y > sorted[j].y
		}
		return sorted[i].x < sorted[j].x
	})
	var rows [][]span
	current := []span{sorted[0]}
	for _, s := range sorted[1:] {
		if math.Abs(current[len(current)-1].y-s.y) <= rowTolerance {
			current = append(current, s)
			continue
		}
		rows = append(rows, sortRow(current))
		current = []span{s}
	}
	rows = append(rows, sortRow(current))
	return rows
}

func sortRow(row []span) []span {
	sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })
	return row
}

// splitCells merges adjacent spans of a row into cells, starting a new cell
// whenever the horizontal gap exceeds cellGap.
func splitCells(row []span) []string {
	if len(row) == 0 {
		return nil
	}
	var cells []string
	var cell strings.Builder
	cell.WriteString(row[0].text)
	end := row[0].x + row[0].w
	for _, s := range row[1:] {
		if s.x-end > cellGap {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		} else if s.x > end {
			cell.WriteString(" ")
		}
		cell.WriteString(s.text)
		if right := s.x + s.w; right > end {
			end = right
		}
	}
	cells = append(cells, strings.TrimSpace(cell.String()))
	return cells
}

// joinSpans rebuilds readable text from positioned spans. Used as fallback
// when the plain text decoder fails on a page.
func joinSpans(spans []span) string {
	rows := clusterRows(spans)
	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		lines = append(lines, strings.Join(splitCells(row), " "))
	}
	return strings.Join(lines, "\n")
}
