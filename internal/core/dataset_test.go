package core

import (
	"reflect"
	"testing"
)

func TestPrepare_RenamesDonorColumn(t *testing.T) {
	d := panelDataset([]string{"spendernummer", "LISS"}, []string{"101", "1+"})
	got := Prepare(d)
	if !got.HasColumn("Sp.Nr.") {
		t.Errorf("columns = %v, want Sp.Nr. present", got.Columns)
	}
	if got.HasColumn("spendernummer") {
		t.Error("legacy column name must be gone after Prepare")
	}
}

func TestPrepare_MovesSpezAntigenLastAndDropsGen(t *testing.T) {
	d := panelDataset(
		[]string{"Sp.Nr.", "Spez. Antigen", "Gen.", "LISS", "K"},
		[]string{"101", "x", "g", "1+", "+"},
	)
	got := Prepare(d)

	if got.HasColumn("Gen.") {
		t.Error("Gen. column must be dropped")
	}
	if last := got.Columns[len(got.Columns)-1]; last != "Spez. Antigen" {
		t.Errorf("last column = %q, want %q", last, "Spez. Antigen")
	}
	// Cell values must follow their columns.
	if v := got.Cell(0, "Spez. Antigen"); v != "x" {
		t.Errorf("Spez. Antigen cell = %q, want %q", v, "x")
	}
	if v := got.Cell(0, "K"); v != "+" {
		t.Errorf("K cell = %q, want %q", v, "+")
	}
}

func TestPrepare_ClampsLISS(t *testing.T) {
	d := panelDataset(
		[]string{"LISS"},
		[]string{"1+"},
		[]string{"weak"},
		[]string{""},
		[]string{" 2+ "},
		[]string{"+/-"},
	)
	got := Prepare(d)

	want := []string{"1+", "-", "-", " 2+ ", "+/-"}
	if liss := got.Column("LISS"); !reflect.DeepEqual(liss, want) {
		t.Errorf("LISS = %v, want %v", liss, want)
	}
}

func TestPrepare_InsertsIndexAfterLISS(t *testing.T) {
	d := panelDataset(
		[]string{"Spender", "LISS", "K"},
		[]string{"A", "1+", "+"},
		[]string{"B", "-", "-"},
	)
	got := Prepare(d)

	li := got.ColumnIndex("LISS")
	if got.Columns[li+1] != "Index" {
		t.Errorf("column after LISS = %q, want Index", got.Columns[li+1])
	}
	if idx := got.Column("Index"); !reflect.DeepEqual(idx, []string{"1", "2"}) {
		t.Errorf("Index = %v, want [1 2]", idx)
	}

	// An existing Index column is kept as-is.
	again := Prepare(got)
	count := 0
	for _, col := range again.Columns {
		if col == "Index" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("Index columns = %d, want 1", count)
	}
}

func TestPrepare_NoIndexWithoutLISS(t *testing.T) {
	d := panelDataset([]string{"Sp.Nr.", "Spender"}, []string{"101", "A"})
	if got := Prepare(d); got.HasColumn("Index") {
		t.Error("Index must not be inserted when LISS is absent")
	}
}

func TestPrepare_DoesNotMutateInput(t *testing.T) {
	d := panelDataset(
		[]string{"spendernummer", "Gen.", "LISS"},
		[]string{"101", "g", "junk"},
	)
	before := d.Clone()
	Prepare(d)
	if !reflect.DeepEqual(d, before) {
		t.Error("Prepare mutated its input")
	}
}

func TestDataset_CloneIsDeep(t *testing.T) {
	d := panelDataset([]string{"a"}, []string{"1"})
	c := d.Clone()
	c.Columns[0] = "changed"
	c.Rows[0][0] = "changed"
	if d.Columns[0] != "a" || d.Rows[0][0] != "1" {
		t.Error("Clone shares backing arrays with the original")
	}
}

func TestDataset_CellOutOfRange(t *testing.T) {
	d := panelDataset([]string{"a", "b"}, []string{"1"}) // short row
	if got := d.Cell(0, "b"); got != "" {
		t.Errorf("Cell on short row = %q, want empty", got)
	}
	if got := d.Cell(5, "a"); got != "" {
		t.Errorf("Cell out of range = %q, want empty", got)
	}
	if got := d.Cell(0, "missing"); got != "" {
		t.Errorf("Cell unknown column = %q, want empty", got)
	}
}

func TestDataset_AntigenColumns(t *testing.T) {
	d := panelDataset(
		[]string{"Sp.Nr.", "Spender", "LISS", "Index", "K", "k", "Jka", "Spez. Antigen"},
	)
	want := []string{"K", "k", "Jka"}
	if got := d.AntigenColumns(); !reflect.DeepEqual(got, want) {
		t.Errorf("AntigenColumns() = %v, want %v", got, want)
	}
}
