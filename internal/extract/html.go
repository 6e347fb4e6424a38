package extract

import (
	"fmt"
	"html"
	"strings"

	appErr "github.com/docuchat/docuchat/internal/pkg/errors"
)

// TableToHTML renders a table as a minimal HTML fragment. The first row
// becomes the header row.
func TableToHTML(rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("<table>")
	for i, row := range rows {
		tag := "td"
		if i == 0 {
			tag = "th"
		}
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<" + tag + ">")
			b.WriteString(html.EscapeString(cell))
			b.WriteString("</" + tag + ">")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</table>")
	return b.String()
}

// ParseTableHTML inverts TableToHTML. It only understands the fragment shape
// TableToHTML emits, which is all the database ever stores.
func ParseTableHTML(fragment string) ([][]string, error) {
	fragment = strings.TrimSpace(fragment)
	if fragment == "" {
		return nil, nil
	}
	inner, ok := cutTag(fragment, "table")
	if !ok {
		return nil, fmt.Errorf("%w: not a table fragment", appErr.ErrInvalid)
	}
	var rows [][]string
	for inner != "" {
		var rowHTML string
		rowHTML, inner, ok = nextTag(inner, "tr")
		if !ok {
			return nil, fmt.Errorf("%w: malformed table row", appErr.ErrInvalid)
		}
		var row []string
		for rowHTML != "" {
			cell, rest, ok := nextTag(rowHTML, "th")
			if !ok {
				cell, rest, ok = nextTag(rowHTML, "td")
			}
			if !ok {
				return nil, fmt.Errorf("%w: malformed table cell", appErr.ErrInvalid)
			}
			row = append(row, html.UnescapeString(cell))
			rowHTML = rest
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// cutTag strips a single enclosing <tag>...</tag> pair.
func cutTag(s, tag string) (string, bool) {
	open, close := "<"+tag+">", "</"+tag+">"
	if !strings.HasPrefix(s, open) || !strings.HasSuffix(s, close) {
		return "", false
	}
	return s[len(open) : len(s)-len(close)], true
}

// nextTag consumes the leading <tag>...</tag> element and returns its body
// and the remainder of the input.
func nextTag(s, tag string) (body string, rest string, ok bool) {
	open, close := "<"+tag+">", "</"+tag+">"
	if !strings.HasPrefix(s, open) {
		return "", "", false
	}
	s = s[len(open):]
	idx := strings.Index(s, close)
	if idx < 0 {
		return "", "", false
	}
	return s[:idx], s[idx+len(close):], true
}
