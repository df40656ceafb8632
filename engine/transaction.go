package engine

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/engine/depgraph"
	"github.com/gridkernel/sheetcore/formulaeval"
	"github.com/gridkernel/sheetcore/grid"
)

// orderedCellSet is cells_to_compute: an OrderedSet<CellRef> — spec
// §4.7 "insertion order matters (stable iteration), duplicates
// ignored." Grounded on the same ordered-map pattern grid.Sheet uses
// for data_tables.
type orderedCellSet struct {
	order []depgraph.CellRef
	seen  map[depgraph.CellRef]bool
}

func newOrderedCellSet() *orderedCellSet {
	return &orderedCellSet{seen: make(map[depgraph.CellRef]bool)}
}

func (s *orderedCellSet) add(r depgraph.CellRef) {
	if s.seen[r] {
		return
	}
	s.seen[r] = true
	s.order = append(s.order, r)
}

func (s *orderedCellSet) empty() bool { return len(s.order) == 0 }

// shiftFront removes and returns the first element — spec §4.7
// "cells_to_compute.shift_remove_index(0)."
func (s *orderedCellSet) shiftFront() depgraph.CellRef {
	r := s.order[0]
	s.order = s.order[1:]
	delete(s.seen, r)
	return r
}

// TransactionInProgress is the live state machine for one transaction —
// spec §4.7 "TransactionInProgress state," field-for-field.
type TransactionInProgress struct {
	ReverseOperations []Operation
	CellsToCompute    *orderedCellSet
	CellsAccessed     []a1.Pos

	Summary                 *TransactionSummary
	SheetsWithChangedBounds map[a1.SheetID]bool

	CurrentCodeCell *CodeCellValue
	CurrentCellRef  *depgraph.CellRef

	WaitingForAsync *string // language, if suspended
	HasAsync        bool
	Complete        bool
	SuspendedAt     time.Time // set when WaitingForAsync begins, spec §5 suspension timeout

	pendingToken ScriptToken
}

func newTransactionInProgress() *TransactionInProgress {
	return &TransactionInProgress{
		CellsToCompute:          newOrderedCellSet(),
		Summary:                 NewTransactionSummary(),
		SheetsWithChangedBounds: make(map[a1.SheetID]bool),
	}
}

// loopCompute drains cells_to_compute until empty or a suspension is
// hit — spec §4.7 "loop_compute."
func (gc *GridController) loopCompute(tip *TransactionInProgress) {
	for {
		gc.compute(tip)
		if tip.WaitingForAsync != nil {
			return
		}
		if tip.CellsToCompute.empty() {
			tip.Complete = true
			tip.Summary.Save = true
			return
		}
	}
}

// compute pops one cell off the worklist and (re)evaluates it if it
// holds code — spec §4.7 "compute()."
func (gc *GridController) compute(tip *TransactionInProgress) {
	if tip.CellsToCompute.empty() {
		return
	}
	ref := tip.CellsToCompute.shiftFront()

	for _, dep := range gc.deps.DependentsOf(ref) {
		tip.CellsToCompute.add(dep)
	}

	sheet, ok := gc.sheets[a1.SheetID(ref.Sheet)]
	if !ok {
		return // sheet deleted mid-transaction
	}
	pos := a1.Pos{X: ref.X, Y: ref.Y}

	dt, hasTable := sheet.DataTableAt(pos)
	cell := sheet.CellValueAt(pos)

	var language, source string
	switch {
	case hasTable && dt.Kind == grid.DataTableKindCodeRun:
		language, source = dt.Code.Language, dt.Code.Code
	case cell.Type == grid.CellTypeCode:
		language, source = cell.RunLang, cell.Code
	case cell.Formula != "":
		// an evaluated Formula cell holds its result and keeps its source
		// in Formula.
		language, source = "Formula", cell.Formula
	default:
		return // not a code cell
	}

	tip.CurrentCellRef = &ref
	tip.CurrentCodeCell = &CodeCellValue{Language: language, Code: source}

	if language != "Formula" {
		gc.startAsync(tip, ref, language, source)
		return
	}

	gc.evaluateFormula(tip, sheet, ref, pos, source)
}

// startAsync kicks off an out-of-process script evaluation and
// suspends the loop — spec §4.7 "Python / script: start async
// execution ... waiting_for_async <- Some(language); has_async <- true;
// return." and spec §5's single suspension point.
func (gc *GridController) startAsync(tip *TransactionInProgress, ref depgraph.CellRef, language, source string) {
	if gc.executor == nil {
		gc.log.Error("no script executor configured; aborting suspended evaluation")
		return
	}
	token, err := gc.executor.Run(context.Background(), language, source)
	if err != nil {
		gc.log.Error("script executor failed to start", zap.Error(err))
		return
	}
	tip.pendingToken = token
	lang := language
	tip.WaitingForAsync = &lang
	tip.HasAsync = true
	tip.SuspendedAt = time.Now()
}

// evaluateFormula runs the Formula evaluator synchronously and commits
// its result — spec §4.7 "Formula: evaluate now; update cell value;
// update_deps; add spill/overwrite positions to cells_to_compute;
// continue."
func (gc *GridController) evaluateFormula(tip *TransactionInProgress, sheet *grid.Sheet, ref depgraph.CellRef, pos a1.Pos, source string) {
	var accessed []a1.Pos
	ctx := formulaeval.NewCtx(sheet, pos, &accessed)

	val, rerr := formulaeval.Evaluate(source, ctx)

	oldDeps := toCellRefs(ref.Sheet, tip.CellsAccessed)
	var newVal grid.CellValue
	if rerr != nil {
		newVal = grid.ErrorValue(grid.NewSpreadsheetError(grid.ErrorCodeValue, rerr.Error()))
	} else {
		newVal = val.Single
	}
	newVal.Formula = source

	sheet.SetCellValue(pos, newVal)
	tip.Summary.MarkCodeCellModified(a1.SheetPos{Sheet: a1.SheetID(ref.Sheet), Pos: pos})
	tip.Summary.MarkDirtyQuadrant(a1.SheetID(ref.Sheet), pos.X, pos.Y)

	newDeps := toCellRefs(ref.Sheet, accessed)
	gc.deps.UpdateDependentCells(ref, newDeps, oldDeps)
	tip.CellsAccessed = accessed

	tip.CurrentCellRef = nil
	tip.CurrentCodeCell = nil
}

func toCellRefs(sheet string, positions []a1.Pos) []depgraph.CellRef {
	out := make([]depgraph.CellRef, len(positions))
	for i, p := range positions {
		out[i] = depgraph.CellRef{Sheet: sheet, X: p.X, Y: p.Y}
	}
	return out
}

// CalculationComplete delivers an async script result and resumes the
// compute loop — spec §4.7 "Async completion." Must be called exactly
// once per suspension; calling it with no transaction suspended is an
// InternalError (spec §7).
func (gc *GridController) CalculationComplete(result ScriptResult) (*TransactionSummary, error) {
	tip := gc.current
	if tip == nil || tip.WaitingForAsync == nil {
		return nil, NewEngineError(Internal, "calculation_complete called with no suspended evaluation")
	}
	if tip.CurrentCellRef == nil {
		return nil, NewEngineError(Internal, "missing current_code_cell at async completion")
	}
	ref := *tip.CurrentCellRef
	sheet, ok := gc.sheets[a1.SheetID(ref.Sheet)]
	if !ok {
		tip.WaitingForAsync = nil
		gc.loopCompute(tip)
		gc.finalizeIfComplete(tip)
		return tip.Summary, nil
	}
	pos := a1.Pos{X: ref.X, Y: ref.Y}

	oldDeps := toCellRefs(ref.Sheet, tip.CellsAccessed)
	newDeps := toCellRefs(ref.Sheet, result.CellsAccessed)

	if result.Success {
		switch {
		case result.ArrayOutput != nil:
			gc.materializeArrayOutput(tip, sheet, ref, pos, result)
		case result.OutputValue != nil:
			sheet.SetCellValue(pos, *result.OutputValue)
		default:
			sheet.SetCellValue(pos, grid.CellValue{Type: CellTypeFor(result.ReturnType)})
		}
		gc.deps.UpdateDependentCells(ref, newDeps, oldDeps)
		tip.CellsAccessed = result.CellsAccessed
	} else {
		errVal := grid.ErrorValue(grid.NewSpreadsheetError(grid.ErrorCodeValue, result.ErrorMessage))
		sheet.SetCellValue(pos, errVal)
		// on failure the previous dependency set is retained (spec §5).
	}

	tip.Summary.MarkCodeCellModified(a1.SheetPos{Sheet: a1.SheetID(ref.Sheet), Pos: pos})
	tip.Summary.MarkDirtyQuadrant(a1.SheetID(ref.Sheet), pos.X, pos.Y)

	tip.WaitingForAsync = nil
	tip.CurrentCellRef = nil
	tip.CurrentCodeCell = nil
	tip.pendingToken = ""

	gc.loopCompute(tip)
	gc.finalizeIfComplete(tip)
	return tip.Summary, nil
}

// CellTypeFor maps a script return type straight through; kept as a
// function (not a type alias) so a future richer mapping has a home.
func CellTypeFor(t grid.CellType) grid.CellType { return t }

// materializeArrayOutput folds a script's array result into a DataTable
// anchored at pos, enqueuing every cell of its spill footprint for
// recompute — spec §4.7's array-output branch of calculation_complete.
// A footprint that collides with an existing value or table writes a
// spill error instead of the table (spec §4.7 "spill checks against
// other tables").
func (gc *GridController) materializeArrayOutput(tip *TransactionInProgress, sheet *grid.Sheet, ref depgraph.CellRef, pos a1.Pos, result ScriptResult) {
	rows := len(result.ArrayOutput)
	cols := 0
	if rows > 0 {
		cols = len(result.ArrayOutput[0])
	}
	if rows == 0 || cols == 0 || spillConflict(sheet, pos, int64(rows), int64(cols)) {
		sheet.SetCellValue(pos, grid.ErrorValue(grid.NewSpreadsheetError(grid.ErrorCodeSpill, "")))
		return
	}

	dt := grid.NewDataTable(grid.DataTableKindCodeRun, "")
	dt.Code = grid.CodeRun{
		Language:      tip.CurrentCodeCell.Language,
		Code:          tip.CurrentCodeCell.Code,
		CellsAccessed: toSheetCellRefs(ref.Sheet, result.CellsAccessed),
		ReturnType:    result.ReturnType,
	}
	dt.Value = grid.DataTableValue{Kind: grid.DataTableValueArray, Array: result.ArrayOutput}
	sheet.SetDataTable(pos, dt)

	w, h := dt.OutputRect(pos.X, pos.Y)
	for dy := int64(0); dy < h; dy++ {
		for dx := int64(0); dx < w; dx++ {
			gc.enqueue(tip, a1.SheetID(ref.Sheet), a1.Pos{X: pos.X + dx, Y: pos.Y + dy})
		}
	}
}

// spillConflict reports whether any cell in the (rows x cols) footprint
// anchored at anchor, other than anchor itself, already holds a value or
// a DataTable anchor.
func spillConflict(sheet *grid.Sheet, anchor a1.Pos, rows, cols int64) bool {
	for dy := int64(0); dy < rows; dy++ {
		for dx := int64(0); dx < cols; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			p := a1.Pos{X: anchor.X + dx, Y: anchor.Y + dy}
			if !sheet.CellValueAt(p).IsEmpty() {
				return true
			}
			if _, ok := sheet.DataTableAt(p); ok {
				return true
			}
		}
	}
	return false
}

// toSheetCellRefs adapts accessed positions into grid's lightweight
// SheetCellRef, for storage on a DataTable's CodeRun.
func toSheetCellRefs(sheet string, positions []a1.Pos) []grid.SheetCellRef {
	out := make([]grid.SheetCellRef, len(positions))
	for i, p := range positions {
		out[i] = grid.SheetCellRef{SheetID: sheet, X: p.X, Y: p.Y}
	}
	return out
}

// EnforceSuspensionTimeout cancels the current suspended script if it has
// been waiting longer than Config.ScriptSuspensionTimeoutMS — spec §5's
// host-polled timeout, since the host (not the engine) owns the clock
// that drives cancellation. Returns nil, nil if nothing is suspended or
// the timeout hasn't elapsed.
func (gc *GridController) EnforceSuspensionTimeout() (*TransactionSummary, error) {
	tip := gc.current
	if tip == nil || tip.WaitingForAsync == nil {
		return nil, nil
	}
	limit := time.Duration(gc.config.ScriptSuspensionTimeoutMS) * time.Millisecond
	if limit <= 0 || time.Since(tip.SuspendedAt) < limit {
		return nil, nil
	}
	return gc.CancelSuspended("script suspension timed out", nil)
}

// CancelSuspended implements spec §5's host-initiated cancellation:
// "code_cell_sheet_error(msg, line) ... writes an error output to the
// cell, clears waiting_for_async, and resumes the compute loop."
func (gc *GridController) CancelSuspended(message string, line *int) (*TransactionSummary, error) {
	return gc.CalculationComplete(ScriptResult{Success: false, ErrorMessage: message, ErrorLine: line})
}
