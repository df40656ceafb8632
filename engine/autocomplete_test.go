package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

func rangeSelection(sheet a1.SheetID, x1, y1, x2, y2 int64) a1.A1Selection {
	return a1.A1Selection{
		Sheet:  sheet,
		Cursor: a1.Pos{X: x1, Y: y1},
		Ranges: []a1.CellRefRange{a1.NewSheetRange(a1.RefRangeBounds{
			Start: a1.NewRelativeEnd(x1, y1),
			End:   a1.NewRelativeEnd(x2, y2),
		})},
	}
}

func autocompleteOp(sheet a1.SheetID, sel a1.A1Selection, target a1.Rect) Operation {
	op := Operation{Kind: OpAutocomplete, Sheet: sheet}
	op.Autocomplete.Selection = sel
	op.Autocomplete.Target = target
	return op
}

// TestAutocompleteContinuesArithmeticSeries drags a 1,2,3 row out to
// length 6 and expects 4,5,6 to be filled in, matching a spreadsheet's
// fill-handle behavior for a numeric run.
func TestAutocompleteContinuesArithmeticSeries(t *testing.T) {
	gc := newTestController()
	sheet, _ := gc.Sheet("Sheet1")
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, grid.NumberValue(1))
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, grid.NumberValue(2))
	sheet.SetCellValue(a1.Pos{X: 3, Y: 1}, grid.NumberValue(3))

	sel := rangeSelection("Sheet1", 1, 1, 3, 1)
	target := a1.Rect{Min: a1.Pos{X: 4, Y: 1}, Max: a1.Pos{X: 6, Y: 1}}
	_, err := gc.Transact([]Operation{autocompleteOp("Sheet1", sel, target)}, true)
	assert.NoError(t, err)

	assert.Equal(t, 4.0, sheet.CellValueAt(a1.Pos{X: 4, Y: 1}).Value)
	assert.Equal(t, 5.0, sheet.CellValueAt(a1.Pos{X: 5, Y: 1}).Value)
	assert.Equal(t, 6.0, sheet.CellValueAt(a1.Pos{X: 6, Y: 1}).Value)
}

// TestAutocompleteTilesNonNumericPattern falls back to a plain tile when
// the source isn't a constant-step numeric run.
func TestAutocompleteTilesNonNumericPattern(t *testing.T) {
	gc := newTestController()
	sheet, _ := gc.Sheet("Sheet1")
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, grid.StringValue("Mon"))
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, grid.StringValue("Tue"))

	sel := rangeSelection("Sheet1", 1, 1, 2, 1)
	target := a1.Rect{Min: a1.Pos{X: 3, Y: 1}, Max: a1.Pos{X: 4, Y: 1}}
	_, err := gc.Transact([]Operation{autocompleteOp("Sheet1", sel, target)}, true)
	assert.NoError(t, err)

	assert.Equal(t, "Mon", sheet.CellValueAt(a1.Pos{X: 3, Y: 1}).Value)
	assert.Equal(t, "Tue", sheet.CellValueAt(a1.Pos{X: 4, Y: 1}).Value)
}

// TestAutocompleteUndoRestoresPriorTargetValues matches the reverse
// shape execAutocomplete synthesizes: a plain SetCellValues undo.
func TestAutocompleteUndoRestoresPriorTargetValues(t *testing.T) {
	gc := newTestController()
	sheet, _ := gc.Sheet("Sheet1")
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, grid.NumberValue(10))
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, grid.NumberValue(20))
	sheet.SetCellValue(a1.Pos{X: 3, Y: 1}, grid.StringValue("prior"))

	sel := rangeSelection("Sheet1", 1, 1, 2, 1)
	target := a1.Rect{Min: a1.Pos{X: 3, Y: 1}, Max: a1.Pos{X: 3, Y: 1}}
	_, err := gc.Transact([]Operation{autocompleteOp("Sheet1", sel, target)}, true)
	assert.NoError(t, err)
	assert.Equal(t, 30.0, sheet.CellValueAt(a1.Pos{X: 3, Y: 1}).Value)

	_, err = gc.Undo()
	assert.NoError(t, err)
	assert.Equal(t, "prior", sheet.CellValueAt(a1.Pos{X: 3, Y: 1}).Value)
}
