package core

import (
	"fmt"
	"strings"
)

// ProvisionalReport is the step-2 preliminary finding: which antibodies
// are confirmed at the two evidence levels.
type ProvisionalReport struct {
	Confirmed3x []string `json:"confirmed_3x"`
	Confirmed2x []string `json:"confirmed_2x"`
	Summary     []string `json:"summary"`
}

// MedicalReport carries the antibody findings plus the reaction table
// restricted to reactive rows and the selected antigen columns.
type MedicalReport struct {
	Findings     []string   `json:"findings"`
	TableColumns []string   `json:"table_columns"`
	ReactionRows [][]string `json:"reaction_rows"`
}

// AntigenOverview is one line of the lab-technical antigen summary.
type AntigenOverview struct {
	Antigen         string        `json:"antigen"`
	Label           string        `json:"label"`
	Reactions       int           `json:"reactions"`
	Status          AntigenStatus `json:"status"`
	UserSelected    bool          `json:"user_selected"`
	ExclusionReason string        `json:"exclusion_reason"`
	Differs         bool          `json:"differs"`
}

// LabReport is the lab-technical overview: per-antigen reaction counts,
// selection bookkeeping, and where the user diverged from the system.
type LabReport struct {
	DonorCount      int               `json:"donor_count"`
	SystemSelected  int               `json:"system_selected"`
	UserSelected    int               `json:"user_selected"`
	DifferenceCount int               `json:"difference_count"`
	Overview        []AntigenOverview `json:"overview"`
}

// FinalColumn pairs a dataset column with its display label.
type FinalColumn struct {
	Name  string `json:"name"`
	Label string `json:"label"`
}

// FinalTable is the result view after antigen selection: the panel
// restricted to the identifier columns and the included antigens,
// read-only. Highlighted names the antigen columns where the user's
// selection diverges from the included set.
type FinalTable struct {
	Columns     []FinalColumn `json:"columns"`
	Rows        [][]string    `json:"rows"`
	Highlighted []string      `json:"highlighted,omitempty"`
	PageSize    int           `json:"page_size"`
}

// finalTablePageSize caps the visible rows of the result tables.
const finalTablePageSize = 15

// BuildFinalTable produces the result table: Index, the donor number
// when present, Spender and LISS, followed by the included antigen
// columns with superscripted labels. When userSelections is non-nil,
// included antigens outside the user's selection are flagged for
// highlighting. Neither input is mutated.
func BuildFinalTable(d *Dataset, included []string, userSelections []string) FinalTable {
	display := []string{ColIndex}
	if d.HasColumn(ColSpNr) {
		display = append(display, ColSpNr)
	} else if d.HasColumn(colLegacySpNr) {
		display = append(display, colLegacySpNr)
	}
	display = append(display, ColSpender, ColLISS)
	display = append(display, included...)

	antigen := make(map[string]bool, len(included))
	for _, ag := range included {
		antigen[ag] = true
	}

	ft := FinalTable{PageSize: finalTablePageSize}
	for _, col := range display {
		label := col
		if antigen[col] {
			label = FormatAntigen(col)
		}
		ft.Columns = append(ft.Columns, FinalColumn{Name: col, Label: label})
	}

	for ri := range d.Rows {
		row := make([]string, len(display))
		for ci, col := range display {
			row[ci] = d.Cell(ri, col)
		}
		ft.Rows = append(ft.Rows, row)
	}

	if userSelections != nil {
		user := make(map[string]bool, len(userSelections))
		for _, ag := range userSelections {
			user[ag] = true
		}
		for _, col := range display {
			if antigen[col] != user[col] {
				ft.Highlighted = append(ft.Highlighted, col)
			}
		}
	}

	return ft
}

// BuildProvisionalReport summarises the confirmed antibodies among the
// user's selected antigens.
func BuildProvisionalReport(res *AnalysisResult, userSelections []string) ProvisionalReport {
	rep := ProvisionalReport{
		Confirmed3x: confirmedAt(res, userSelections, StatusConfirmed3x),
		Confirmed2x: confirmedAt(res, userSelections, StatusConfirmed2x),
	}
	if len(rep.Confirmed3x) > 0 {
		rep.Summary = append(rep.Summary,
			"3+ Antikörper vorhanden: "+strings.Join(rep.Confirmed3x, ", "))
	}
	if len(rep.Confirmed2x) > 0 {
		rep.Summary = append(rep.Summary,
			"2+ Antikörper vorhanden: "+strings.Join(rep.Confirmed2x, ", "))
	}
	if len(rep.Summary) == 0 {
		rep.Summary = []string{"Keine bestätigten Antikörper gefunden"}
	}
	return rep
}

// BuildMedicalReport produces the physician-facing findings. The
// reaction table keeps only rows with a reactive LISS value, showing
// the identifier columns followed by the selected antigens.
func BuildMedicalReport(d *Dataset, res *AnalysisResult, userSelections []string) MedicalReport {
	rep := MedicalReport{}

	if ags := confirmedAt(res, userSelections, StatusConfirmed3x); len(ags) > 0 {
		rep.Findings = append(rep.Findings,
			"3+ Antikörper vorhanden: "+antiList(ags))
	}
	if ags := confirmedAt(res, userSelections, StatusConfirmed2x); len(ags) > 0 {
		rep.Findings = append(rep.Findings,
			"2+ Antikörper vorhanden: "+antiList(ags))
	}
	if len(rep.Findings) == 0 {
		rep.Findings = []string{"Keine Antikörper nachgewiesen"}
	}

	if d.HasColumn(ColSpNr) {
		rep.TableColumns = append(rep.TableColumns, ColSpNr)
	}
	rep.TableColumns = append(rep.TableColumns, ColSpender, ColLISS)
	for _, ag := range userSelections {
		rep.TableColumns = append(rep.TableColumns, FormatAntigen(ag))
	}

	for ri := range d.Rows {
		if !IsReactiveLISS(d.Cell(ri, ColLISS)) {
			continue
		}
		row := make([]string, 0, len(rep.TableColumns))
		if d.HasColumn(ColSpNr) {
			row = append(row, d.Cell(ri, ColSpNr))
		}
		row = append(row, d.Cell(ri, ColSpender), d.Cell(ri, ColLISS))
		for _, ag := range userSelections {
			row = append(row, d.Cell(ri, ag))
		}
		rep.ReactionRows = append(rep.ReactionRows, row)
	}

	return rep
}

// BuildLabReport produces the lab-technical overview. Antigens where
// the user's selection diverges from the system's are flagged so the
// front-end can highlight them.
func BuildLabReport(d *Dataset, res *AnalysisResult, userSelections []string) LabReport {
	antigens := d.AntigenColumns()
	system := res.SystemSelection(antigens)

	selected := make(map[string]bool, len(userSelections))
	for _, ag := range userSelections {
		selected[ag] = true
	}
	inSystem := make(map[string]bool, len(system))
	for _, ag := range system {
		inSystem[ag] = true
	}

	rep := LabReport{
		DonorCount:     len(d.Rows),
		SystemSelected: len(system),
		UserSelected:   len(userSelections),
	}

	for _, ag := range antigens {
		differs := selected[ag] != inSystem[ag]
		if differs {
			rep.DifferenceCount++
		}
		rep.Overview = append(rep.Overview, AntigenOverview{
			Antigen:         ag,
			Label:           FormatAntigen(ag),
			Reactions:       reactionCount(d, ag),
			Status:          res.Statuses[ag],
			UserSelected:    selected[ag],
			ExclusionReason: res.ExclusionReasons[ag],
			Differs:         differs,
		})
	}

	return rep
}

func confirmedAt(res *AnalysisResult, selections []string, status AntigenStatus) []string {
	var out []string
	for _, ag := range selections {
		if res.Statuses[ag] == status {
			out = append(out, ag)
		}
	}
	return out
}

func antiList(ags []string) string {
	parts := make([]string, len(ags))
	for i, ag := range ags {
		parts[i] = fmt.Sprintf("Anti-%s", ag)
	}
	return strings.Join(parts, ", ")
}
