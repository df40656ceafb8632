package fileformat

import (
	"testing"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

func TestUpgradeFoldsSingleCellCodeRun(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	dt := grid.NewDataTable(grid.DataTableKindCodeRun, "T")
	dt.Code.Language = "Formula"
	dt.Code.Code = "=1+1"
	dt.Value = grid.DataTableValue{Kind: grid.DataTableValueSingle, Single: grid.NumberValue(2)}
	anchor := a1.Pos{X: 1, Y: 1}
	sheet.SetDataTable(anchor, dt)

	doc := &Document{Version: 1, Sheets: map[string]*grid.Sheet{"Sheet1": sheet}}
	got, err := Upgrade(doc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Version != CurrentVersion {
		t.Fatalf("got version %d", got.Version)
	}

	if _, ok := sheet.DataTableAt(anchor); ok {
		t.Fatal("expected the 1x1 CodeRun table to be folded away")
	}
	cell := sheet.CellValueAt(anchor)
	if cell.Type != grid.CellTypeCode || cell.Value != 2.0 {
		t.Fatalf("got %+v", cell)
	}
	if sheet.ConditionalFormats == nil {
		t.Fatal("expected v2->v3 step to initialize ConditionalFormats")
	}
}

func TestUpgradeLeavesMultiCellTablesAlone(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	dt := grid.NewDataTable(grid.DataTableKindCodeRun, "T")
	dt.Value = grid.DataTableValue{
		Kind:  grid.DataTableValueArray,
		Array: [][]grid.CellValue{{grid.NumberValue(1), grid.NumberValue(2)}},
	}
	anchor := a1.Pos{X: 1, Y: 1}
	sheet.SetDataTable(anchor, dt)

	doc := &Document{Version: 1, Sheets: map[string]*grid.Sheet{"Sheet1": sheet}}
	if _, err := Upgrade(doc); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok := sheet.DataTableAt(anchor); !ok {
		t.Fatal("expected the 1x2 table to survive the upgrade")
	}
}
