package core

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// AnalysisResult holds the per-antigen outcome of an exclusion run.
// Statuses covers every antigen column; ExclusionReasons is populated
// only for excluded antigens and names the contributing rows.
type AnalysisResult struct {
	Statuses         map[string]AntigenStatus `json:"statuses"`
	ExclusionReasons map[string]string        `json:"exclusion_reasons"`
	SystemExcluded   []string                 `json:"system_excluded"`
}

// Excluded reports whether the named antigen was struck out by the
// system.
func (r *AnalysisResult) Excluded(ag string) bool {
	return r.Statuses[ag] == StatusExcluded
}

// SystemSelection returns the antigens the system would keep, i.e.
// every antigen column that was not excluded, in column order.
func (r *AnalysisResult) SystemSelection(antigenColumns []string) []string {
	var out []string
	for _, ag := range antigenColumns {
		if st, ok := r.Statuses[ag]; ok && st != StatusExcluded {
			out = append(out, ag)
		}
	}
	return out
}

// Analyze runs the antigen exclusion analysis over a prepared dataset.
//
// Non-reactive rows (LISS "-") exclude every antigen they express with
// "+". A second pass over the antithetical pairs re-strikes homozygous
// expression and, on heterozygous rows, antigens with
// dosage-independent antibodies; it contributes only row tracking on
// top of the plain rule. Remaining antigens are ranked by their "+"
// count on reactive rows: three or more confirms 3x, exactly two
// confirms 2x, one is not excluded, none is no reaction.
//
// In manual mode nothing is excluded automatically; every antigen
// starts as not excluded and the user strikes out columns directly.
func Analyze(d *Dataset, manual bool) *AnalysisResult {
	res := &AnalysisResult{
		Statuses:         make(map[string]AntigenStatus),
		ExclusionReasons: make(map[string]string),
	}
	if d.Empty() {
		return res
	}

	antigens := d.AntigenColumns()

	if manual {
		for _, ag := range antigens {
			res.Statuses[ag] = StatusNotExcluded
		}
		return res
	}

	lissIdx := d.ColumnIndex(ColLISS)

	// Track which rows drove each exclusion, 1-based for display.
	tracking := make(map[string][]int, len(antigens))
	excluded := make(map[string]bool)

	exclude := func(ag string, row int) {
		excluded[ag] = true
		tracking[ag] = append(tracking[ag], row+1)
	}

	for ri := range d.Rows {
		if lissIdx < 0 || strings.TrimSpace(d.Cell(ri, ColLISS)) != "-" {
			continue
		}
		for _, ag := range antigens {
			if d.Cell(ri, ag) == "+" {
				exclude(ag, ri)
			}
		}
		for _, pair := range exclusionPairs {
			if !d.HasColumn(pair.a) || !d.HasColumn(pair.b) {
				continue
			}
			v1, v2 := d.Cell(ri, pair.a), d.Cell(ri, pair.b)
			switch zygosity(v1, v2) {
			case "homo":
				if v1 == "+" {
					exclude(pair.a, ri)
				}
				if v2 == "+" {
					exclude(pair.b, ri)
				}
			case "hetero":
				for _, ag := range []string{pair.a, pair.b} {
					if allowedHetero[ag] && d.Cell(ri, ag) == "+" {
						exclude(ag, ri)
					}
				}
			}
		}
	}

	for _, ag := range antigens {
		if excluded[ag] {
			res.Statuses[ag] = StatusExcluded
			res.ExclusionReasons[ag] = fmt.Sprintf("Zeilen: %s", joinRows(tracking[ag]))
			res.SystemExcluded = append(res.SystemExcluded, ag)
			continue
		}
		res.Statuses[ag] = rankByReactions(reactionCount(d, ag))
	}
	sort.Strings(res.SystemExcluded)

	return res
}

// reactionCount counts "+" cells for the antigen on reactive LISS rows.
func reactionCount(d *Dataset, ag string) int {
	count := 0
	for ri := range d.Rows {
		if IsReactiveLISS(d.Cell(ri, ColLISS)) && d.Cell(ri, ag) == "+" {
			count++
		}
	}
	return count
}

func rankByReactions(count int) AntigenStatus {
	switch {
	case count >= 3:
		return StatusConfirmed3x
	case count == 2:
		return StatusConfirmed2x
	case count == 1:
		return StatusNotExcluded
	default:
		return StatusNoReaction
	}
}

// joinRows renders a sorted, deduplicated row list as "1, 4, 7".
func joinRows(rows []int) string {
	seen := make(map[int]bool, len(rows))
	uniq := rows[:0:0]
	for _, r := range rows {
		if !seen[r] {
			seen[r] = true
			uniq = append(uniq, r)
		}
	}
	sort.Ints(uniq)
	parts := make([]string, len(uniq))
	for i, r := range uniq {
		parts[i] = strconv.Itoa(r)
	}
	return strings.Join(parts, ", ")
}
