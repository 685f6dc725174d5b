package fetch

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ExtractPDFText returns the plain text of every page followed by its rows,
// with cells joined by " | ". Parse failures, including panics inside the
// reader, are written into the result instead of being returned.
func ExtractPDFText(data []byte) (text string) {
	var sb strings.Builder
	defer func() {
		if r := recover(); r != nil {
			sb.WriteString(fmt.Sprintf("\n[Error reading PDF: %v]", r))
			text = sb.String()
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return fmt.Sprintf("\n[Error reading PDF: %v]", err)
	}

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		plain, err := p.GetPlainText(nil)
		if err != nil {
			sb.WriteString(fmt.Sprintf("\n[Error reading PDF: %v]", err))
			return sb.String()
		}
		sb.WriteString(plain)
		sb.WriteString("\n")

		rows, err := p.GetTextByRow()
		if err != nil {
			sb.WriteString(fmt.Sprintf("\n[Error reading PDF: %v]", err))
			return sb.String()
		}
		for _, row := range rows {
			if cells := rowCells(row.Content); len(cells) > 0 {
				sb.WriteString(strings.Join(cells, " | "))
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}

// rowCells merges the text runs of one row into cells. A horizontal gap
// wider than the font size starts a new cell.
func rowCells(runs pdf.TextHorizontal) []string {
	sorted := make([]pdf.Text, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	var (
		cells   []string
		cur     strings.Builder
		lastEnd float64
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			cells = append(cells, s)
		}
		cur.Reset()
	}

	for i, t := range sorted {
		if i > 0 {
			gap := t.X - lastEnd
			size := t.FontSize
			if size <= 0 {
				size = 10
			}
			switch {
			case gap > size:
				flush()
			case gap > size*0.2:
				cur.WriteByte(' ')
			}
		}
		cur.WriteString(t.S)
		lastEnd = t.X + t.W
	}
	flush()
	return cells
}
