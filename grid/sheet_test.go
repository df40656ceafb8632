package grid

import (
	"testing"

	"github.com/gridkernel/sheetcore/a1"
)

func TestSheetSetAndGetCellValueDropsEmptyColumn(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	p := a1.Pos{X: 3, Y: 5}

	s.SetCellValue(p, NumberValue(42))
	if got := s.CellValueAt(p); got.Value != 42.0 {
		t.Fatalf("got %+v", got)
	}

	s.SetCellValue(p, CellValue{Type: CellTypeEmpty})
	if _, ok := s.columns[3]; ok {
		t.Fatalf("column should be dropped once its last value is cleared")
	}
	if got := s.CellValueAt(p); !got.IsEmpty() {
		t.Fatalf("expected empty, got %+v", got)
	}
}

func TestDataTableOrderingPreservedAcrossInserts(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	a := a1.Pos{X: 1, Y: 1}
	b := a1.Pos{X: 5, Y: 1}
	c := a1.Pos{X: 10, Y: 1}

	s.SetDataTable(a, NewDataTable(DataTableKindImport, "A"))
	s.SetDataTable(b, NewDataTable(DataTableKindImport, "B"))
	s.SetDataTable(c, NewDataTable(DataTableKindImport, "C"))

	order := s.DataTablesInOrder()
	if len(order) != 3 || order[0] != a || order[1] != b || order[2] != c {
		t.Fatalf("expected insertion order preserved, got %+v", order)
	}
}

// TestDeleteColumnRemovesAnchoredCodeRunTable exercises spec §4.6's
// "delete entire table" rule: a code-run table anchored in the deleted
// column is removed outright.
func TestDeleteColumnRemovesAnchoredCodeRunTable(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	anchor := a1.Pos{X: 3, Y: 1}
	dt := NewDataTable(DataTableKindCodeRun, "T")
	dt.Value = DataTableValue{Kind: DataTableValueSingle, Single: NumberValue(1)}
	s.SetDataTable(anchor, dt)

	result := s.DeleteColumn(3)

	if _, stillThere := s.DataTableAt(anchor); stillThere {
		t.Fatalf("anchored code-run table must be removed")
	}
	if _, removed := result.RemovedDataTables[anchor]; !removed {
		t.Fatalf("expected the removed table in the result for reverse-op synthesis")
	}
}

// TestDeleteColumnShiftsTrailingTableLeft exercises the "shift table
// leftwards" rule.
func TestDeleteColumnShiftsTrailingTableLeft(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	anchor := a1.Pos{X: 10, Y: 1}
	dt := NewDataTable(DataTableKindImport, "T")
	dt.Value = DataTableValue{Kind: DataTableValueArray, Array: [][]CellValue{{NumberValue(1), NumberValue(2)}}}
	s.SetDataTable(anchor, dt)

	s.DeleteColumn(1)

	newAnchor := a1.Pos{X: 9, Y: 1}
	if _, ok := s.DataTableAt(newAnchor); !ok {
		t.Fatalf("expected table re-anchored at %+v", newAnchor)
	}
	order := s.DataTablesInOrder()
	if len(order) != 1 || order[0] != newAnchor {
		t.Fatalf("expected ordered anchors to reflect the rekey, got %+v", order)
	}
}

func TestInsertColumnShiftsValuesRight(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	s.SetCellValue(a1.Pos{X: 5, Y: 1}, NumberValue(7))

	s.InsertColumn(3, CopyFormatsNone)

	if got := s.CellValueAt(a1.Pos{X: 6, Y: 1}); got.Value != 7.0 {
		t.Fatalf("expected value shifted from column 5 to 6, got %+v", got)
	}
	if got := s.CellValueAt(a1.Pos{X: 5, Y: 1}); !got.IsEmpty() {
		t.Fatalf("expected the newly-inserted column to be empty, got %+v", got)
	}
}

// TestDeleteColumnShiftsColumnFormatsLeft guards against the data-
// corruption bug where a column's format layers stay keyed to their
// pre-delete coordinate: after deleting column 2, what was column 3's
// format must be readable at column 2, and column 2's own prior format
// must be gone.
func TestDeleteColumnShiftsColumnFormatsLeft(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	s.Formats.SetFormatColumn(2, FormatUpdate{Bold: setField(true)})
	s.Formats.SetFormatColumn(3, FormatUpdate{Italic: setField(true)})
	s.Formats.SetFormat(a1.Rect{Min: a1.Pos{X: 3, Y: 4}, Max: a1.Pos{X: 3, Y: 4}}, FormatUpdate{FillColor: setField("red")})

	s.DeleteColumn(2)

	got := s.Formats.At(a1.Pos{X: 2, Y: 1})
	if got.Italic == nil || !*got.Italic {
		t.Fatalf("expected column 3's format shifted to column 2, got %+v", got)
	}
	if got.Bold != nil {
		t.Fatalf("expected column 2's original format to be dropped, got %+v", got)
	}
	cell := s.Formats.At(a1.Pos{X: 2, Y: 4})
	if cell.FillColor == nil || *cell.FillColor != "red" {
		t.Fatalf("expected cell-level format at (3,4) shifted to (2,4), got %+v", cell)
	}
}

// TestDeleteColumnShiftsOrDropsValidationSelections exercises spec
// §4.6's rule that validations sharing the deleted column shrink or
// vanish, and validations entirely past it shift left.
func TestDeleteColumnShiftsOrDropsValidationSelections(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	single := a1.NewA1Selection("Sheet1", a1.Pos{X: 2, Y: 1})
	s.Validations = append(s.Validations, Validation{ID: "only-col-2", Selection: single, Rule: ValidationNumberRange})

	wide := a1.A1Selection{
		Sheet:  "Sheet1",
		Cursor: a1.Pos{X: 5, Y: 1},
		Ranges: []a1.CellRefRange{a1.NewSheetRange(a1.RefRangeBounds{
			Start: a1.NewRelativeEnd(4, 1),
			End:   a1.NewRelativeEnd(6, 1),
		})},
	}
	s.Validations = append(s.Validations, Validation{ID: "spans-4-to-6", Selection: wide, Rule: ValidationNumberRange})

	result := s.DeleteColumn(2)

	if len(result.DroppedValidations) != 1 || result.DroppedValidations[0].ID != "only-col-2" {
		t.Fatalf("expected the single-column-2 validation dropped, got %+v", result.DroppedValidations)
	}
	if len(s.Validations) != 1 {
		t.Fatalf("expected one surviving validation, got %d", len(s.Validations))
	}
	remaining := s.Validations[0].Selection.Ranges[0].Sheet
	if remaining.Start.Col.Coord != 3 || remaining.End.Col.Coord != 5 {
		t.Fatalf("expected the spanning validation shifted to cols 3-5, got %+v", remaining)
	}
}

func TestDataTableFoldableScalarCode(t *testing.T) {
	dt := NewDataTable(DataTableKindCodeRun, "T")
	dt.Value = DataTableValue{Kind: DataTableValueSingle, Single: NumberValue(1)}
	if !dt.IsFoldableScalarCode() {
		t.Fatalf("a 1x1 error-free code run with no UI bands should be foldable")
	}
	dt.Code.Error = NewSpreadsheetError(ErrorCodeValue, "")
	if dt.IsFoldableScalarCode() {
		t.Fatalf("an errored code run must not be foldable")
	}
}

func TestApplicableFormatAppliesConditionalRule(t *testing.T) {
	s := NewSheet("Sheet1", "Sheet1")
	p := a1.Pos{X: 1, Y: 1}
	s.SetCellValue(p, NumberValue(100))

	sel := a1.NewA1Selection("Sheet1", p)
	s.ConditionalFormats = append(s.ConditionalFormats, ConditionalFormatRule{
		Selection: sel,
		Condition: ConditionNumberGreaterThan,
		Operand:   NumberValue(50),
		Style:     FormatUpdate{FillColor: setField("yellow")},
	})

	got := s.ApplicableFormat(p, nil)
	if got.FillColor == nil || *got.FillColor != "yellow" {
		t.Fatalf("expected conditional fill to apply, got %+v", got)
	}
}
