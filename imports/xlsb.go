// Package imports turns external spreadsheet files into grid.Sheet
// contents — spec §6 "Import contract". One Reader implementation today:
// XLSBReader, grounded on github.com/TsubasaBE/go-xlsb.
package imports

import (
	"fmt"

	"github.com/TsubasaBE/go-xlsb"
	"github.com/TsubasaBE/go-xlsb/worksheet"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

// Reader loads every sheet of an external file into freshly constructed
// grid.Sheet values, keyed by their source display name.
type Reader interface {
	ReadFile(path string) (map[string]*grid.Sheet, error)
}

// XLSBReader reads Microsoft Excel Binary Workbook (.xlsb) files.
type XLSBReader struct{}

// ReadFile opens path as an .xlsb workbook and converts every worksheet.
func (XLSBReader) ReadFile(path string) (map[string]*grid.Sheet, error) {
	wb, err := xlsb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("imports: opening %q: %w", path, err)
	}
	defer wb.Close()

	out := make(map[string]*grid.Sheet, len(wb.Sheets()))
	for i, name := range wb.Sheets() {
		ws, err := wb.Sheet(i + 1)
		if err != nil {
			return nil, fmt.Errorf("imports: reading sheet %q: %w", name, err)
		}
		out[name] = convertSheet(wb, ws, name)
	}
	return out, nil
}

func convertSheet(wb importWorkbook, ws *worksheet.Worksheet, name string) *grid.Sheet {
	sheet := grid.NewSheet(a1.SheetID(name), name)

	for row := range ws.Rows(true) {
		for _, cell := range row {
			p := a1.Pos{X: int64(cell.C) + 1, Y: int64(cell.R) + 1}
			sheet.SetCellValue(p, convertCellValue(wb, ws, cell))
		}
	}

	for _, merge := range ws.MergeCells {
		sheet.MergeCells = append(sheet.MergeCells, a1.Rect{
			Min: a1.Pos{X: int64(merge.C) + 1, Y: int64(merge.R) + 1},
			Max: a1.Pos{X: int64(merge.C+merge.W) - 1 + 1, Y: int64(merge.R+merge.H) - 1 + 1},
		})
	}
	return sheet
}

// importWorkbook is the subset of *workbook.Workbook this package calls,
// kept as an interface so xlsb_test.go can substitute a fake without a
// real .xlsb fixture on disk.
type importWorkbook interface {
	FormatCell(v any, style int) string
}

func convertCellValue(wb importWorkbook, ws *worksheet.Worksheet, cell worksheet.Cell) grid.CellValue {
	switch v := cell.V.(type) {
	case nil:
		return grid.CellValue{}
	case string:
		return grid.StringValue(v)
	case bool:
		return grid.BoolValue(v)
	case float64:
		if ws.IsDateCell(cell.Style) {
			return grid.StringValue(wb.FormatCell(v, cell.Style))
		}
		return grid.NumberValue(v)
	default:
		return grid.StringValue(fmt.Sprintf("%v", v))
	}
}
