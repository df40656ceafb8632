package engine

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

func newTestController() *GridController {
	gc := NewGridController(nil, DefaultConfig(), zap.NewNop())
	gc.AddSheet("Sheet1", "Sheet1")
	return gc
}

func setValue(sheet a1.SheetID, p a1.Pos, v grid.CellValue) Operation {
	op := Operation{Kind: OpSetCellValues, Sheet: sheet}
	op.SetCellValues.Pos = p
	op.SetCellValues.Values = [][]grid.CellValue{{v}}
	return op
}

func setCode(sheet a1.SheetID, p a1.Pos, language, code string) Operation {
	op := Operation{Kind: OpSetCellCode, Sheet: sheet}
	op.SetCellCode.Pos = p
	op.SetCellCode.Code = &CodeCellValue{Language: language, Code: code}
	return op
}

// TestTransactFormulaRecompute is spec §8 scenario 6: setting A1=10 and
// B1="=A1+1" in the same transaction leaves B1 at 11, and a later edit
// to A1 alone recomputes B1 through the dependency graph.
func TestTransactFormulaRecompute(t *testing.T) {
	gc := newTestController()
	a1pos := a1.Pos{X: 1, Y: 1}
	b1pos := a1.Pos{X: 2, Y: 1}

	ops := []Operation{
		setValue("Sheet1", a1pos, grid.NumberValue(10)),
		setCode("Sheet1", b1pos, "Formula", "A1+1"),
	}
	summary, err := gc.Transact(ops, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !summary.Save {
		t.Fatal("expected the transaction to have completed (Save = true)")
	}

	sheet, _ := gc.Sheet("Sheet1")
	got := sheet.CellValueAt(b1pos)
	if got.Value != 11.0 {
		t.Fatalf("B1 = %+v, want 11", got)
	}

	// Editing A1 alone should recompute B1 via the dependency graph, with
	// no second reference to B1 in the operation batch.
	if _, err := gc.Transact([]Operation{setValue("Sheet1", a1pos, grid.NumberValue(20))}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got = sheet.CellValueAt(b1pos)
	if got.Value != 21.0 {
		t.Fatalf("B1 after A1 edit = %+v, want 21", got)
	}
}

// TestTransactFormulaErrorValue confirms a RunError surfaces as a cell
// error value rather than aborting the transaction.
func TestTransactFormulaErrorValue(t *testing.T) {
	gc := newTestController()
	pos := a1.Pos{X: 1, Y: 1}

	if _, err := gc.Transact([]Operation{setCode("Sheet1", pos, "Formula", "1/0")}, true); err != nil {
		t.Fatalf("unexpected transaction error: %v", err)
	}
	sheet, _ := gc.Sheet("Sheet1")
	got := sheet.CellValueAt(pos)
	if got.Type != grid.CellTypeError {
		t.Fatalf("expected an error cell, got %+v", got)
	}
}

// TestUndoRedoRoundTrip exercises spec §4.7's undo/redo stacks for a
// plain value edit.
func TestUndoRedoRoundTrip(t *testing.T) {
	gc := newTestController()
	pos := a1.Pos{X: 1, Y: 1}

	if _, err := gc.Transact([]Operation{setValue("Sheet1", pos, grid.NumberValue(5))}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sheet, _ := gc.Sheet("Sheet1")
	if got := sheet.CellValueAt(pos); got.Value != 5.0 {
		t.Fatalf("before undo: got %+v", got)
	}

	if _, err := gc.Undo(); err != nil {
		t.Fatalf("undo: %v", err)
	}
	if got := sheet.CellValueAt(pos); !got.IsEmpty() {
		t.Fatalf("after undo: got %+v, want empty", got)
	}

	if _, err := gc.Redo(); err != nil {
		t.Fatalf("redo: %v", err)
	}
	if got := sheet.CellValueAt(pos); got.Value != 5.0 {
		t.Fatalf("after redo: got %+v, want 5", got)
	}
}

// TestUndoWithNothingToUndoFails matches spec §4.7's "Undo / Redo" empty
// stack behavior.
func TestUndoWithNothingToUndoFails(t *testing.T) {
	gc := newTestController()
	if _, err := gc.Undo(); err == nil {
		t.Fatal("expected an error undoing an empty stack")
	}
}

// TestRedoStackClearedByNewTransaction matches spec §4.7: any non-undo/
// redo transaction clears the redo stack.
func TestRedoStackClearedByNewTransaction(t *testing.T) {
	gc := newTestController()
	pos := a1.Pos{X: 1, Y: 1}

	gc.Transact([]Operation{setValue("Sheet1", pos, grid.NumberValue(1))}, true)
	gc.Undo()
	if len(gc.redoStack) != 1 {
		t.Fatalf("expected one redo entry, got %d", len(gc.redoStack))
	}

	gc.Transact([]Operation{setValue("Sheet1", pos, grid.NumberValue(2))}, true)
	if len(gc.redoStack) != 0 {
		t.Fatalf("expected the redo stack to be cleared, got %d entries", len(gc.redoStack))
	}
}

// TestCalculationCompleteRequiresSuspendedTransaction matches spec §7:
// calling it outside a suspension is an InternalError, not a panic.
func TestCalculationCompleteRequiresSuspendedTransaction(t *testing.T) {
	gc := newTestController()
	if _, err := gc.CalculationComplete(ScriptResult{Success: true}); err == nil {
		t.Fatal("expected an error with no suspended transaction")
	}
}

// stubExecutor records the request and lets the test deliver the result
// asynchronously via CalculationComplete, exercising the suspend/resume
// half of loopCompute without a real kernel connection.
type stubExecutor struct {
	lastLanguage, lastSource string
}

func (s *stubExecutor) Run(ctx context.Context, language, source string) (ScriptToken, error) {
	s.lastLanguage, s.lastSource = language, source
	return ScriptToken("tok-1"), nil
}

func TestSuspendAndResumeAsyncScriptCell(t *testing.T) {
	gc := NewGridController(nil, DefaultConfig(), zap.NewNop())
	gc.AddSheet("Sheet1", "Sheet1")
	exec := &stubExecutor{}
	gc.executor = exec

	pos := a1.Pos{X: 1, Y: 1}
	summary, err := gc.Transact([]Operation{setCode("Sheet1", pos, "python", "1 + 1")}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Save {
		t.Fatal("expected the transaction to be suspended, not saved")
	}
	if !gc.InTransaction() {
		t.Fatal("expected InTransaction() to report true while suspended")
	}
	if exec.lastSource != "1 + 1" {
		t.Fatalf("expected the executor to receive the cell source, got %q", exec.lastSource)
	}

	result := ScriptResult{Success: true, OutputValue: &grid.CellValue{Type: grid.CellTypeNumber, Value: 2.0}}
	finalSummary, err := gc.CalculationComplete(result)
	if err != nil {
		t.Fatalf("calculation_complete: %v", err)
	}
	if !finalSummary.Save {
		t.Fatal("expected the transaction to complete after calculation_complete")
	}
	if gc.InTransaction() {
		t.Fatal("expected InTransaction() to report false once resolved")
	}

	sheet, _ := gc.Sheet("Sheet1")
	if got := sheet.CellValueAt(pos); got.Value != 2.0 {
		t.Fatalf("got %+v, want 2.0", got)
	}
}

// TestCalculationCompleteMaterializesArrayOutput matches spec §4.7's
// array-output branch: a script result shaped as rows of cells becomes a
// DataTable anchored at the code cell, spilling across its footprint.
func TestCalculationCompleteMaterializesArrayOutput(t *testing.T) {
	gc := NewGridController(nil, DefaultConfig(), zap.NewNop())
	gc.AddSheet("Sheet1", "Sheet1")
	gc.executor = &stubExecutor{}

	pos := a1.Pos{X: 1, Y: 1}
	if _, err := gc.Transact([]Operation{setCode("Sheet1", pos, "python", "grid()")}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	array := [][]grid.CellValue{
		{grid.NumberValue(1), grid.NumberValue(2)},
		{grid.NumberValue(3), grid.NumberValue(4)},
	}
	if _, err := gc.CalculationComplete(ScriptResult{Success: true, ArrayOutput: array}); err != nil {
		t.Fatalf("calculation_complete: %v", err)
	}

	sheet, _ := gc.Sheet("Sheet1")
	dt, ok := sheet.DataTableAt(pos)
	if !ok {
		t.Fatal("expected a DataTable anchored at the code cell")
	}
	if dt.Value.Kind != grid.DataTableValueArray {
		t.Fatalf("expected an array-kind value, got %+v", dt.Value.Kind)
	}
	if len(dt.Value.Array) != 2 || len(dt.Value.Array[0]) != 2 {
		t.Fatalf("unexpected array shape: %+v", dt.Value.Array)
	}
}

// TestCalculationCompleteArrayOutputSpillConflict matches spec §4.7's
// spill check: a pre-existing value inside the array's footprint writes
// a spill error instead of materializing the table.
func TestCalculationCompleteArrayOutputSpillConflict(t *testing.T) {
	gc := NewGridController(nil, DefaultConfig(), zap.NewNop())
	gc.AddSheet("Sheet1", "Sheet1")
	gc.executor = &stubExecutor{}
	sheet, _ := gc.Sheet("Sheet1")
	sheet.SetCellValue(a1.Pos{X: 2, Y: 1}, grid.NumberValue(99))

	pos := a1.Pos{X: 1, Y: 1}
	if _, err := gc.Transact([]Operation{setCode("Sheet1", pos, "python", "grid()")}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	array := [][]grid.CellValue{{grid.NumberValue(1), grid.NumberValue(2)}}
	if _, err := gc.CalculationComplete(ScriptResult{Success: true, ArrayOutput: array}); err != nil {
		t.Fatalf("calculation_complete: %v", err)
	}

	if _, ok := sheet.DataTableAt(pos); ok {
		t.Fatal("expected no DataTable to be materialized on spill conflict")
	}
	got := sheet.CellValueAt(pos)
	if got.Type != grid.CellTypeError {
		t.Fatalf("expected an error cell, got %+v", got)
	}
	se, ok := got.Value.(*grid.SpreadsheetError)
	if !ok || se.Code != grid.ErrorCodeSpill {
		t.Fatalf("expected a #SPILL! error, got %+v", got.Value)
	}
}

// TestNewOpAgainstSuspendedTransactionFails matches spec §5's
// re-entrancy rule: a new Transact call while suspended must be
// rejected, not silently queued or interleaved.
func TestNewOpAgainstSuspendedTransactionFails(t *testing.T) {
	gc := NewGridController(nil, DefaultConfig(), zap.NewNop())
	gc.AddSheet("Sheet1", "Sheet1")
	gc.executor = &stubExecutor{}

	pos := a1.Pos{X: 1, Y: 1}
	if _, err := gc.Transact([]Operation{setCode("Sheet1", pos, "python", "1")}, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := gc.Transact([]Operation{setValue("Sheet1", a1.Pos{X: 2, Y: 1}, grid.NumberValue(1))}, true); err == nil {
		t.Fatal("expected Transact to reject a new op while a transaction is suspended")
	}
}
