package parse

import (
	"fmt"
	"sort"
	"strings"

	"rsc.io/pdf"
)

// pdfToLines extracts text lines from a PDF copy document. PDFs carry
// positioned fragments, not lines; fragments sharing a baseline are
// rebuilt into one line, pages read top to bottom.
func pdfToLines(path string) (lines []string, err error) {
	// The pdf package panics on malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse pdf: %v", r)
		}
	}()

	r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w", err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, groupTextRows(page.Content().Text)...)
	}
	return lines, nil
}

// groupTextRows joins fragments on the same baseline, top of the page
// first, left to right within a line. A horizontal gap wider than a
// fraction of the font size becomes a space.
func groupTextRows(texts []pdf.Text) []string {
	rows := make(map[int][]pdf.Text)
	var baselines []int
	for _, t := range texts {
		y := int(t.Y + 0.5)
		if _, ok := rows[y]; !ok {
			baselines = append(baselines, y)
		}
		rows[y] = append(rows[y], t)
	}
	// PDF Y grows upward.
	sort.Sort(sort.Reverse(sort.IntSlice(baselines)))

	var lines []string
	for _, y := range baselines {
		row := rows[y]
		sort.Slice(row, func(i, j int) bool { return row[i].X < row[j].X })
		var b strings.Builder
		for i, t := range row {
			if i > 0 {
				prev := row[i-1]
				if t.X-(prev.X+prev.W) > prev.FontSize*0.2 {
					b.WriteByte(' ')
				}
			}
			b.WriteString(t.S)
		}
		if s := strings.TrimSpace(b.String()); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
