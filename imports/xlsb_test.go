package imports

import (
	"testing"

	"github.com/TsubasaBE/go-xlsb/worksheet"

	"github.com/gridkernel/sheetcore/grid"
)

type fakeWorkbook struct{}

func (fakeWorkbook) FormatCell(v any, style int) string { return "1970-01-01" }

func TestConvertCellValueNumberVsText(t *testing.T) {
	ws := &worksheet.Worksheet{}
	wb := fakeWorkbook{}

	num := convertCellValue(wb, ws, worksheet.Cell{V: 42.0})
	if num.Type != grid.CellTypeNumber || num.Value != 42.0 {
		t.Fatalf("got %+v", num)
	}

	str := convertCellValue(wb, ws, worksheet.Cell{V: "hello"})
	if str.Type != grid.CellTypeString || str.Value != "hello" {
		t.Fatalf("got %+v", str)
	}

	empty := convertCellValue(wb, ws, worksheet.Cell{V: nil})
	if !empty.IsEmpty() {
		t.Fatalf("got %+v", empty)
	}

	b := convertCellValue(wb, ws, worksheet.Cell{V: true})
	if b.Type != grid.CellTypeBoolean || b.Value != true {
		t.Fatalf("got %+v", b)
	}
}
