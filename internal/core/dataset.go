package core

import (
	"strconv"
	"strings"
)

// Canonical column names used throughout the serology workflow.
const (
	ColSpNr    = "Sp.Nr."
	ColSpender = "Spender"
	ColLISS    = "LISS"
	ColIndex   = "Index"

	colSpezAntigen = "Spez. Antigen"
	colGen         = "Gen."
	colLegacySpNr  = "spendernummer"
)

// LISSValues is the closed set of graded reaction strengths a LISS cell
// may hold. Anything else is clamped to "-" during preparation.
var LISSValues = []string{"-", "+/-", "1+", "2+", "3+", "4+"}

var validLISS = func() map[string]bool {
	m := make(map[string]bool, len(LISSValues))
	for _, v := range LISSValues {
		m[v] = true
	}
	return m
}()

// reactiveLISS holds the LISS values that count as a positive reaction.
var reactiveLISS = map[string]bool{
	"+/-": true, "1+": true, "2+": true, "3+": true, "4+": true,
}

// IsValidLISS reports whether v (after trimming) is a recognised
// reaction strength.
func IsValidLISS(v string) bool {
	return validLISS[strings.TrimSpace(v)]
}

// IsReactiveLISS reports whether v represents a positive reaction
// ("+/-" through "4+", but not "-").
func IsReactiveLISS(v string) bool {
	return reactiveLISS[strings.TrimSpace(v)]
}

// Dataset is an ordered tabular snapshot: a header row plus data rows,
// every row holding one cell per column. It represents either a freshly
// extracted import or a previously stored analysis table.
type Dataset struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// Empty reports whether the dataset carries no usable data.
func (d *Dataset) Empty() bool {
	return d == nil || len(d.Columns) == 0 || len(d.Rows) == 0
}

// ColumnIndex returns the position of the named column, or -1.
func (d *Dataset) ColumnIndex(name string) int {
	if d == nil {
		return -1
	}
	for i, col := range d.Columns {
		if col == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the named column exists.
func (d *Dataset) HasColumn(name string) bool {
	return d.ColumnIndex(name) >= 0
}

// Cell returns the value at (row, column name), or "" when either is
// out of range. Rows shorter than the header are treated as padded
// with empty cells.
func (d *Dataset) Cell(row int, name string) string {
	ci := d.ColumnIndex(name)
	if ci < 0 || row < 0 || row >= len(d.Rows) {
		return ""
	}
	r := d.Rows[row]
	if ci >= len(r) {
		return ""
	}
	return r[ci]
}

// Column returns a copy of the named column's cells, or nil when the
// column does not exist.
func (d *Dataset) Column(name string) []string {
	ci := d.ColumnIndex(name)
	if ci < 0 {
		return nil
	}
	out := make([]string, len(d.Rows))
	for i, r := range d.Rows {
		if ci < len(r) {
			out[i] = r[ci]
		}
	}
	return out
}

// Clone returns a deep copy. Mutating the copy never touches the
// original.
func (d *Dataset) Clone() *Dataset {
	if d == nil {
		return nil
	}
	c := &Dataset{
		Columns: append([]string(nil), d.Columns...),
		Rows:    make([][]string, len(d.Rows)),
	}
	for i, r := range d.Rows {
		c.Rows[i] = append([]string(nil), r...)
	}
	return c
}

// AntigenColumns returns the columns that name antigens, i.e. everything
// that is not one of the fixed structural columns.
func (d *Dataset) AntigenColumns() []string {
	if d == nil {
		return nil
	}
	var out []string
	for _, col := range d.Columns {
		switch col {
		case ColSpNr, colLegacySpNr, ColSpender, colSpezAntigen, colGen, ColLISS, ColIndex:
			continue
		}
		out = append(out, col)
	}
	return out
}

// Prepare normalizes a raw dataset into the canonical shape the analysis
// steps expect:
//
//   - the legacy "spendernummer" column is renamed to "Sp.Nr."
//   - "Spez. Antigen" is moved to the last position
//   - the "Gen." column is dropped
//   - LISS cells outside the valid reaction set are clamped to "-"
//   - an "Index" column (1..n) is inserted after "LISS" when absent
//
// The input is never mutated; Prepare always works on a copy.
func Prepare(d *Dataset) *Dataset {
	if d == nil {
		return nil
	}
	out := d.Clone()

	normalizeDonorColumn(out)

	if ci := out.ColumnIndex(colSpezAntigen); ci >= 0 {
		moveColumnLast(out, ci)
	}
	if ci := out.ColumnIndex(colGen); ci >= 0 {
		dropColumn(out, ci)
	}

	if ci := out.ColumnIndex(ColLISS); ci >= 0 {
		for _, row := range out.Rows {
			if ci >= len(row) {
				continue
			}
			if !IsValidLISS(row[ci]) {
				row[ci] = "-"
			}
		}
		if !out.HasColumn(ColIndex) {
			insertColumn(out, ci+1, ColIndex, func(i int) string {
				return strconv.Itoa(i + 1)
			})
		}
	}

	return out
}

// normalizeDonorColumn renames the legacy donor-number header in place.
func normalizeDonorColumn(d *Dataset) {
	for i, col := range d.Columns {
		if strings.EqualFold(col, colLegacySpNr) {
			d.Columns[i] = ColSpNr
		}
	}
}

func moveColumnLast(d *Dataset, ci int) {
	name := d.Columns[ci]
	d.Columns = append(append(d.Columns[:ci:ci], d.Columns[ci+1:]...), name)
	for i, row := range d.Rows {
		if ci >= len(row) {
			continue
		}
		v := row[ci]
		d.Rows[i] = append(append(row[:ci:ci], row[ci+1:]...), v)
	}
}

func dropColumn(d *Dataset, ci int) {
	d.Columns = append(d.Columns[:ci:ci], d.Columns[ci+1:]...)
	for i, row := range d.Rows {
		if ci >= len(row) {
			continue
		}
		d.Rows[i] = append(row[:ci:ci], row[ci+1:]...)
	}
}

func insertColumn(d *Dataset, ci int, name string, value func(row int) string) {
	if ci > len(d.Columns) {
		ci = len(d.Columns)
	}
	cols := make([]string, 0, len(d.Columns)+1)
	cols = append(cols, d.Columns[:ci]...)
	cols = append(cols, name)
	cols = append(cols, d.Columns[ci:]...)
	d.Columns = cols

	for i, row := range d.Rows {
		at := ci
		if at > len(row) {
			at = len(row)
		}
		nr := make([]string, 0, len(row)+1)
		nr = append(nr, row[:at]...)
		nr = append(nr, value(i))
		nr = append(nr, row[at:]...)
		d.Rows[i] = nr
	}
}
