package engine

import (
	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/engine/depgraph"
	"github.com/gridkernel/sheetcore/grid"
)

// executeOperation mutates the addressed Sheet per op.Kind, pushes the
// correctly-ordered reverse Operation(s) onto tip.ReverseOperations, and
// enqueues every touched position for recompute — spec §4.7
// "execute_operation(op)."
func (gc *GridController) executeOperation(tip *TransactionInProgress, op Operation) error {
	sheet, ok := gc.sheets[op.Sheet]
	if !ok {
		return NewEngineError(NotFound, "no such sheet")
	}

	switch op.Kind {
	case OpSetCellValues:
		return gc.execSetCellValues(tip, sheet, op)
	case OpSetCellCode:
		return gc.execSetCellCode(tip, sheet, op)
	case OpSetDataTable:
		return gc.execSetDataTable(tip, sheet, op)
	case OpDeleteDataTable:
		return gc.execDeleteDataTable(tip, sheet, op)
	case OpSetCellFormatsSelection:
		return gc.execSetCellFormatsSelection(tip, sheet, op)
	case OpSetBordersSelection:
		return gc.execSetBordersSelection(tip, sheet, op)
	case OpInsertColumn:
		return gc.execInsertColumn(tip, sheet, op)
	case OpDeleteColumn:
		return gc.execDeleteColumn(tip, sheet, op)
	case OpInsertRow:
		return gc.execInsertRow(tip, sheet, op)
	case OpDeleteRow:
		return gc.execDeleteRow(tip, sheet, op)
	case OpResizeColumn:
		return gc.execResizeColumn(tip, sheet, op)
	case OpResizeRow:
		return gc.execResizeRow(tip, sheet, op)
	case OpSetValidation:
		return gc.execSetValidation(tip, sheet, op)
	case OpRemoveValidation:
		return gc.execRemoveValidation(tip, sheet, op)
	case OpSetSheetName:
		return gc.execSetSheetName(tip, sheet, op)
	case OpAutocomplete:
		return gc.execAutocomplete(tip, sheet, op)
	default:
		return NewEngineError(InvalidArgument, "unknown operation kind")
	}
}

func (gc *GridController) enqueue(tip *TransactionInProgress, sheet a1.SheetID, p a1.Pos) {
	tip.CellsToCompute.add(depgraph.CellRef{Sheet: string(sheet), X: p.X, Y: p.Y})
}

func (gc *GridController) execSetCellValues(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	anchor := op.SetCellValues.Pos
	reverseValues := make([][]grid.CellValue, len(op.SetCellValues.Values))
	for dy, row := range op.SetCellValues.Values {
		reverseValues[dy] = make([]grid.CellValue, len(row))
		for dx, v := range row {
			p := a1.Pos{X: anchor.X + int64(dx), Y: anchor.Y + int64(dy)}
			reverseValues[dy][dx] = sheet.CellValueAt(p)
			sheet.SetCellValue(p, v)
			gc.enqueue(tip, op.Sheet, p)
			tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)
		}
	}
	rev := Operation{Kind: OpSetCellValues, Sheet: op.Sheet}
	rev.SetCellValues.Pos = anchor
	rev.SetCellValues.Values = reverseValues
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execSetCellCode(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	p := op.SetCellCode.Pos
	prior := sheet.CellValueAt(p)
	var priorCode *CodeCellValue
	if prior.Type == grid.CellTypeCode {
		priorCode = &CodeCellValue{Language: prior.RunLang, Code: prior.Formula}
	}

	if op.SetCellCode.Code == nil {
		sheet.SetCellValue(p, grid.CellValue{})
	} else {
		sheet.SetCellValue(p, grid.CellValue{
			Type:    grid.CellTypeCode,
			RunLang: op.SetCellCode.Code.Language,
			Formula: op.SetCellCode.Code.Code,
			Code:    op.SetCellCode.Code.Code,
		})
	}
	gc.enqueue(tip, op.Sheet, p)
	tip.Summary.MarkCodeCellModified(a1.SheetPos{Sheet: op.Sheet, Pos: p})
	tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)

	rev := Operation{Kind: OpSetCellCode, Sheet: op.Sheet}
	rev.SetCellCode.Pos = p
	rev.SetCellCode.Code = priorCode
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execSetDataTable(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	p := op.SetDataTable.Pos
	prior, hadPrior := sheet.SetDataTable(p, op.SetDataTable.Table)
	gc.enqueue(tip, op.Sheet, p)
	tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)

	rev := Operation{Kind: OpSetDataTable, Sheet: op.Sheet}
	rev.SetDataTable.Pos = p
	if hadPrior {
		rev.SetDataTable.Table = prior
	}
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execDeleteDataTable(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	p := op.SetDataTable.Pos
	prior, hadPrior := sheet.RemoveDataTable(p)
	if !hadPrior {
		return nil
	}
	gc.enqueue(tip, op.Sheet, p)
	tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)

	rev := Operation{Kind: OpSetDataTable, Sheet: op.Sheet}
	rev.SetDataTable.Pos = p
	rev.SetDataTable.Table = prior
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

// selectionRects resolves every range of a selection to an absolute
// rectangle, skipping dangling Table ranges (spec §3's "empty
// resolution, not an error").
func (gc *GridController) selectionRects(sel a1.A1Selection) []a1.Rect {
	var rects []a1.Rect
	for _, rng := range sel.Ranges {
		bounds, ok := rng.ConvertToRefRangeBounds(gc.ctx)
		if !ok {
			continue
		}
		rects = append(rects, bounds.ToRect())
	}
	return rects
}

func (gc *GridController) execSetCellFormatsSelection(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	for _, rect := range gc.selectionRects(op.SetCellFormatsSelection.Selection) {
		reverseMap := sheet.Formats.SetFormat(rect, op.SetCellFormatsSelection.Update)
		for p, ru := range reverseMap {
			gc.enqueue(tip, op.Sheet, p)
			tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)

			rev := Operation{Kind: OpSetCellFormatsSelection, Sheet: op.Sheet}
			rev.SetCellFormatsSelection.Selection = a1.NewA1Selection(op.Sheet, p)
			rev.SetCellFormatsSelection.Update = ru
			tip.ReverseOperations = append(tip.ReverseOperations, rev)
		}
	}
	return nil
}

func (gc *GridController) execSetBordersSelection(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	for _, rect := range gc.selectionRects(op.SetBordersSelection.Selection) {
		for c := rect.Min.X; c <= rect.Max.X; c++ {
			sheet.Borders.SetRange(op.SetBordersSelection.Side, c, rect.Min.Y, rect.Max.Y+1, op.SetBordersSelection.Style)
		}
		tip.Summary.SheetBorders[op.Sheet] = true
	}
	// Border history is style-overwrite, not cell-indexed; the reverse is
	// intentionally coarse (re-apply the whole selection's prior style is
	// the caller's responsibility when finer-grained undo is needed).
	rev := Operation{Kind: OpSetBordersSelection, Sheet: op.Sheet}
	rev.SetBordersSelection = op.SetBordersSelection
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execInsertColumn(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	sheet.InsertColumn(op.Column.Index, op.Column.CopyFormats)
	tip.SheetsWithChangedBounds[op.Sheet] = true
	tip.Summary.OffsetsModified[op.Sheet] = true

	rev := Operation{Kind: OpDeleteColumn, Sheet: op.Sheet}
	rev.Column.Index = op.Column.Index
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execDeleteColumn(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	result := sheet.DeleteColumn(op.Column.Index)
	tip.SheetsWithChangedBounds[op.Sheet] = true
	tip.Summary.OffsetsModified[op.Sheet] = true

	if len(result.RemovedValues) > 0 {
		maxRow := int64(0)
		for row := range result.RemovedValues {
			if row > maxRow {
				maxRow = row
			}
		}
		values := make([][]grid.CellValue, maxRow)
		for row, v := range result.RemovedValues {
			values[row-1] = []grid.CellValue{v}
		}
		chunk := gc.config.MaxOperationSizeColRow
		if chunk <= 0 {
			chunk = len(values)
		}
		for start := 0; start < len(values); start += chunk {
			end := start + chunk
			if end > len(values) {
				end = len(values)
			}
			restore := Operation{Kind: OpSetCellValues, Sheet: op.Sheet}
			restore.SetCellValues.Pos = a1.Pos{X: op.Column.Index, Y: int64(start) + 1}
			restore.SetCellValues.Values = values[start:end]
			tip.ReverseOperations = append(tip.ReverseOperations, restore)
		}
	}
	for anchor, dt := range result.RemovedDataTables {
		restore := Operation{Kind: OpSetDataTable, Sheet: op.Sheet}
		restore.SetDataTable.Pos = anchor
		restore.SetDataTable.Table = dt
		tip.ReverseOperations = append(tip.ReverseOperations, restore)
	}
	for _, rs := range result.ShiftedResizes {
		restore := Operation{Kind: OpResizeColumn, Sheet: op.Sheet}
		restore.Resize.Index = rs.Index - 1
		restore.Resize.NewSize = rs.PriorSize
		tip.ReverseOperations = append(tip.ReverseOperations, restore)
	}
	for _, v := range result.DroppedValidations {
		restore := Operation{Kind: OpSetValidation, Sheet: op.Sheet}
		restore.SetValidation.Validation = v
		tip.ReverseOperations = append(tip.ReverseOperations, restore)
	}
	for side, runs := range result.BorderRuns {
		for _, run := range runs {
			if run.Value == nil {
				continue
			}
			restore := Operation{Kind: OpSetBordersSelection, Sheet: op.Sheet}
			restore.SetBordersSelection.Side = side
			restore.SetBordersSelection.Selection = a1.A1Selection{
				Sheet:  op.Sheet,
				Cursor: a1.Pos{X: op.Column.Index, Y: run.Start},
				Ranges: []a1.CellRefRange{a1.NewSheetRange(a1.RefRangeBounds{
					Start: a1.NewRelativeEnd(op.Column.Index, run.Start),
					End:   a1.NewRelativeEnd(op.Column.Index, run.End-1),
				})},
			}
			restore.SetBordersSelection.Style = run.Value
			tip.ReverseOperations = append(tip.ReverseOperations, restore)
		}
	}

	// appended last: undo replays the list backwards, so the column is
	// re-inserted before the restores above are applied to it.
	rev := Operation{Kind: OpInsertColumn, Sheet: op.Sheet}
	rev.Column.Index = op.Column.Index
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execInsertRow(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	sheet.InsertRow(op.Row.Index, grid.CopyFormatsNone)
	tip.SheetsWithChangedBounds[op.Sheet] = true
	tip.Summary.OffsetsModified[op.Sheet] = true

	rev := Operation{Kind: OpDeleteRow, Sheet: op.Sheet}
	rev.Row.Index = op.Row.Index
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execDeleteRow(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	result := sheet.DeleteRow(op.Row.Index)
	tip.SheetsWithChangedBounds[op.Sheet] = true
	tip.Summary.OffsetsModified[op.Sheet] = true

	if len(result.RemovedValues) > 0 {
		maxCol := int64(0)
		for col := range result.RemovedValues {
			if col > maxCol {
				maxCol = col
			}
		}
		row := make([]grid.CellValue, maxCol)
		for col, v := range result.RemovedValues {
			row[col-1] = v
		}
		chunk := gc.config.MaxOperationSizeColRow
		if chunk <= 0 {
			chunk = len(row)
		}
		for start := 0; start < len(row); start += chunk {
			end := start + chunk
			if end > len(row) {
				end = len(row)
			}
			restore := Operation{Kind: OpSetCellValues, Sheet: op.Sheet}
			restore.SetCellValues.Pos = a1.Pos{X: int64(start) + 1, Y: op.Row.Index}
			restore.SetCellValues.Values = [][]grid.CellValue{row[start:end]}
			tip.ReverseOperations = append(tip.ReverseOperations, restore)
		}
	}
	for _, rs := range result.ShiftedResizes {
		restore := Operation{Kind: OpResizeRow, Sheet: op.Sheet}
		restore.Resize.Index = rs.Index - 1
		restore.Resize.NewSize = rs.PriorSize
		tip.ReverseOperations = append(tip.ReverseOperations, restore)
	}
	for _, v := range result.DroppedValidations {
		restore := Operation{Kind: OpSetValidation, Sheet: op.Sheet}
		restore.SetValidation.Validation = v
		tip.ReverseOperations = append(tip.ReverseOperations, restore)
	}
	for side, runs := range result.BorderRuns {
		for _, run := range runs {
			if run.Value == nil {
				continue
			}
			restore := Operation{Kind: OpSetBordersSelection, Sheet: op.Sheet}
			restore.SetBordersSelection.Side = side
			restore.SetBordersSelection.Selection = a1.A1Selection{
				Sheet:  op.Sheet,
				Cursor: a1.Pos{X: run.Start, Y: op.Row.Index},
				Ranges: []a1.CellRefRange{a1.NewSheetRange(a1.RefRangeBounds{
					Start: a1.NewRelativeEnd(run.Start, op.Row.Index),
					End:   a1.NewRelativeEnd(run.End-1, op.Row.Index),
				})},
			}
			restore.SetBordersSelection.Style = run.Value
			tip.ReverseOperations = append(tip.ReverseOperations, restore)
		}
	}

	// appended last: undo replays the list backwards, so the row is
	// re-inserted before the restores above are applied to it.
	rev := Operation{Kind: OpInsertRow, Sheet: op.Sheet}
	rev.Row.Index = op.Row.Index
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execResizeColumn(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	prior := sheet.ColumnOffsets.Set(op.Resize.Index, op.Resize.NewSize)
	tip.Summary.OffsetsModified[op.Sheet] = true

	rev := Operation{Kind: OpResizeColumn, Sheet: op.Sheet}
	rev.Resize.Index = op.Resize.Index
	rev.Resize.NewSize = prior
	rev.Resize.ClientResize = op.Resize.ClientResize
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execResizeRow(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	prior := sheet.RowOffsets.Set(op.Resize.Index, op.Resize.NewSize)
	tip.Summary.OffsetsModified[op.Sheet] = true

	rev := Operation{Kind: OpResizeRow, Sheet: op.Sheet}
	rev.Resize.Index = op.Resize.Index
	rev.Resize.NewSize = prior
	rev.Resize.ClientResize = op.Resize.ClientResize
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

func (gc *GridController) execSetValidation(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	var priorIdx = -1
	for i, v := range sheet.Validations {
		if v.ID == op.SetValidation.Validation.ID {
			priorIdx = i
			break
		}
	}
	if priorIdx >= 0 {
		rev := Operation{Kind: OpSetValidation, Sheet: op.Sheet}
		rev.SetValidation.Validation = sheet.Validations[priorIdx]
		tip.ReverseOperations = append(tip.ReverseOperations, rev)
		sheet.Validations[priorIdx] = op.SetValidation.Validation
	} else {
		sheet.Validations = append(sheet.Validations, op.SetValidation.Validation)
		rev := Operation{Kind: OpRemoveValidation, Sheet: op.Sheet}
		rev.RemoveValidation.ID = op.SetValidation.Validation.ID
		tip.ReverseOperations = append(tip.ReverseOperations, rev)
	}
	return nil
}

func (gc *GridController) execRemoveValidation(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	for i, v := range sheet.Validations {
		if v.ID == op.RemoveValidation.ID {
			sheet.Validations = append(sheet.Validations[:i], sheet.Validations[i+1:]...)
			rev := Operation{Kind: OpSetValidation, Sheet: op.Sheet}
			rev.SetValidation.Validation = v
			tip.ReverseOperations = append(tip.ReverseOperations, rev)
			return nil
		}
	}
	return nil
}

func (gc *GridController) execSetSheetName(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	prior := sheet.Name
	sheet.Name = op.SetSheetName.Name

	rev := Operation{Kind: OpSetSheetName, Sheet: op.Sheet}
	rev.SetSheetName.Name = prior
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

// execAutocomplete is [SUPPLEMENT]: extends Selection's pattern across
// Target the way a spreadsheet's fill-handle drag works. A single row or
// column of numbers with a constant step between consecutive cells is
// continued arithmetically; everything else (multi-row/column blocks,
// non-numeric content, or a flat run with no constant step) falls back
// to tiling the source pattern. Date-step detection is not attempted:
// CellTypeDate values are carried as pre-formatted display strings (spec
// §3), with no underlying epoch to take a delta of.
func (gc *GridController) execAutocomplete(tip *TransactionInProgress, sheet *grid.Sheet, op Operation) error {
	srcRects := gc.selectionRects(op.Autocomplete.Selection)
	if len(srcRects) == 0 {
		return nil
	}
	src := srcRects[0]
	target := op.Autocomplete.Target

	fill := gc.autocompleteFillFunc(sheet, src, target)

	var reverseValues [][]grid.CellValue
	for y := target.Min.Y; y <= target.Max.Y; y++ {
		var row []grid.CellValue
		for x := target.Min.X; x <= target.Max.X; x++ {
			p := a1.Pos{X: x, Y: y}
			v := fill(p)
			row = append(row, sheet.CellValueAt(p))
			sheet.SetCellValue(p, v)
			gc.enqueue(tip, op.Sheet, p)
			tip.Summary.MarkDirtyQuadrant(op.Sheet, p.X, p.Y)
		}
		reverseValues = append(reverseValues, row)
	}

	rev := Operation{Kind: OpSetCellValues, Sheet: op.Sheet}
	rev.SetCellValues.Pos = target.Min
	rev.SetCellValues.Values = reverseValues
	tip.ReverseOperations = append(tip.ReverseOperations, rev)
	return nil
}

// autocompleteFillFunc picks the fill strategy for one autocomplete call:
// arithmetic continuation along a single row or column, or a tile of the
// source rectangle otherwise.
func (gc *GridController) autocompleteFillFunc(sheet *grid.Sheet, src, target a1.Rect) func(a1.Pos) grid.CellValue {
	srcW := src.Max.X - src.Min.X + 1
	srcH := src.Max.Y - src.Min.Y + 1

	if srcH == 1 && srcW >= 2 {
		if step, first, ok := numericStep(sheet, src, true); ok {
			return func(p a1.Pos) grid.CellValue {
				n := p.X - src.Min.X
				return grid.NumberValue(first + step*float64(n))
			}
		}
	}
	if srcW == 1 && srcH >= 2 {
		if step, first, ok := numericStep(sheet, src, false); ok {
			return func(p a1.Pos) grid.CellValue {
				n := p.Y - src.Min.Y
				return grid.NumberValue(first + step*float64(n))
			}
		}
	}

	return func(p a1.Pos) grid.CellValue {
		sx := src.Min.X + (p.X-target.Min.X)%srcW
		sy := src.Min.Y + (p.Y-target.Min.Y)%srcH
		return sheet.CellValueAt(a1.Pos{X: sx, Y: sy})
	}
}

// numericStep reports the constant step between consecutive numbers
// along a 1-row (horizontal=true) or 1-column source run, and the first
// value — ok is false if any cell isn't a plain number or the step isn't
// constant across the whole run.
func numericStep(sheet *grid.Sheet, src a1.Rect, horizontal bool) (step, first float64, ok bool) {
	var values []float64
	if horizontal {
		for x := src.Min.X; x <= src.Max.X; x++ {
			v := sheet.CellValueAt(a1.Pos{X: x, Y: src.Min.Y})
			if v.Type != grid.CellTypeNumber {
				return 0, 0, false
			}
			values = append(values, v.Value.(float64))
		}
	} else {
		for y := src.Min.Y; y <= src.Max.Y; y++ {
			v := sheet.CellValueAt(a1.Pos{X: src.Min.X, Y: y})
			if v.Type != grid.CellTypeNumber {
				return 0, 0, false
			}
			values = append(values, v.Value.(float64))
		}
	}
	step = values[1] - values[0]
	for i := 2; i < len(values); i++ {
		if values[i]-values[i-1] != step {
			return 0, 0, false
		}
	}
	return step, values[0], true
}
