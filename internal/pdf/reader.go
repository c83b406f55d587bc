// Package pdf recovers tabular data from PDF files.
//
// PDFs carry no table structure, only positioned text fragments. The
// reader reconstructs tables geometrically: fragments sharing a
// baseline form a row, gaps between fragments split a row into cells,
// and consecutive multi-cell rows form a table with the first row as
// its header.
package pdf

import (
	"fmt"
	"sort"
	"strings"

	pdfreader "github.com/ledongthuc/pdf"

	"github.com/serolab/serolab/internal/core"
)

// Geometry thresholds, in PDF points. Fragments within lineTolerance of
// a baseline belong to the same row; a horizontal gap of cellGap or
// more starts a new cell.
const (
	lineTolerance = 2.0
	cellGap       = 6.0
)

// minTableRows is the smallest run of multi-cell rows accepted as a
// table: a header plus at least one data row.
const minTableRows = 2

// Reader extracts tables from PDF files on disk. It implements
// core.TableReader. The zero value is ready to use.
type Reader struct{}

// NewReader returns a table reader for PDF files.
func NewReader() *Reader {
	return &Reader{}
}

// ExtractTables locates every table on every page, in page order.
// Pages without tabular content contribute nothing; a PDF with no
// recoverable tables yields an empty slice, not an error.
func (r *Reader) ExtractTables(path string) ([]core.Dataset, error) {
	f, doc, err := pdfreader.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var tables []core.Dataset
	for pageNum := 1; pageNum <= doc.NumPage(); pageNum++ {
		page := doc.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		frags := pageFragments(page)
		tables = append(tables, tablesFromRows(groupRows(frags))...)
	}
	return tables, nil
}

// fragment is one positioned text run on a page.
type fragment struct {
	x, y float64
	text string
}

func pageFragments(page pdfreader.Page) []fragment {
	content := page.Content()
	frags := make([]fragment, 0, len(content.Text))
	for _, t := range content.Text {
		if strings.TrimSpace(t.S) == "" {
			continue
		}
		frags = append(frags, fragment{x: t.X, y: t.Y, text: t.S})
	}
	return frags
}

// groupRows clusters fragments into visual rows and cells. Rows are
// ordered top-to-bottom (PDF y grows upward), cells left-to-right.
func groupRows(frags []fragment) [][]string {
	if len(frags) == 0 {
		return nil
	}

	sort.SliceStable(frags, func(i, j int) bool {
		if frags[i].y != frags[j].y {
			return frags[i].y > frags[j].y
		}
		return frags[i].x < frags[j].x
	})

	var lines [][]fragment
	for _, f := range frags {
		if n := len(lines); n > 0 && abs(lines[n-1][0].y-f.y) <= lineTolerance {
			lines[n-1] = append(lines[n-1], f)
			continue
		}
		lines = append(lines, []fragment{f})
	}

	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		sort.SliceStable(line, func(i, j int) bool { return line[i].x < line[j].x })
		rows = append(rows, splitCells(line))
	}
	return rows
}

// splitCells merges adjacent fragments into cells. Fragments closer
// than cellGap are fused (a PDF often splits one word across runs);
// anything farther apart starts the next cell.
func splitCells(line []fragment) []string {
	var (
		cells []string
		cur   strings.Builder
		prev  fragment
	)
	for i, f := range line {
		if i > 0 {
			if f.x-prev.x >= cellGap+approxWidth(prev.text) {
				cells = append(cells, strings.TrimSpace(cur.String()))
				cur.Reset()
			}
		}
		cur.WriteString(f.text)
		prev = f
	}
	if cur.Len() > 0 {
		cells = append(cells, strings.TrimSpace(cur.String()))
	}
	return cells
}

// approxWidth estimates a fragment's rendered width. Good enough for
// gap detection; serology tables use narrow, well separated columns.
func approxWidth(s string) float64 {
	const avgGlyphWidth = 5.0
	return float64(len(s)) * avgGlyphWidth
}

// tablesFromRows turns row runs into datasets. A run of at least
// minTableRows consecutive rows with two or more cells each becomes a
// table; its first row is the header and data rows are padded or
// truncated to the header width.
func tablesFromRows(rows [][]string) []core.Dataset {
	var (
		tables []core.Dataset
		run    [][]string
	)

	flush := func() {
		if len(run) >= minTableRows {
			tables = append(tables, buildTable(run))
		}
		run = nil
	}

	for _, row := range rows {
		if len(row) >= 2 {
			run = append(run, row)
			continue
		}
		flush()
	}
	flush()

	return tables
}

func buildTable(rows [][]string) core.Dataset {
	header := rows[0]
	d := core.Dataset{
		Columns: append([]string(nil), header...),
		Rows:    make([][]string, 0, len(rows)-1),
	}
	for _, row := range rows[1:] {
		cells := make([]string, len(header))
		copy(cells, row)
		d.Rows = append(d.Rows, cells)
	}
	return d
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
