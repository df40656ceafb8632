package engine

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/engine/depgraph"
	"github.com/gridkernel/sheetcore/grid"
)

// ScriptToken is the opaque handle a ScriptExecutor returns for an
// in-flight async evaluation — spec §6 "run_python(source) → js_value
// returns an opaque token."
type ScriptToken string

// ScriptResult is what the host passes to CalculationComplete after an
// async script evaluation finishes — spec §6 "JsCodeResult."
type ScriptResult struct {
	Success       bool
	Stdout, Stderr string
	OutputValue   *grid.CellValue
	ArrayOutput   [][]grid.CellValue
	ReturnType    grid.CellType
	ErrorMessage  string
	ErrorLine     *int
	CellsAccessed []a1.Pos
}

// ScriptExecutor is the consumed contract for non-Formula code cells —
// spec §6 "Script-language executor contract (consumed)." Implemented
// by the `script` package's zmq4-backed KernelExecutor.
type ScriptExecutor interface {
	Run(ctx context.Context, language, source string) (ScriptToken, error)
}

// GridController owns every Sheet in a document, the shared A1Context,
// the dependency graph, and the undo/redo stacks — spec §4.7, §9
// "Shared resources."
type GridController struct {
	sheets     map[a1.SheetID]*grid.Sheet
	sheetOrder []a1.SheetID

	ctx  *a1.A1Context
	deps *depgraph.Graph

	undoStack []Transaction
	redoStack []Transaction

	executor ScriptExecutor
	config   Config
	log      *zap.Logger

	current *TransactionInProgress // non-nil only mid-transaction
}

// Transaction is an undo/redo-stack entry — spec §4.7 "Undo / Redo":
// `{ ops: Vec<Operation>, cursor: Option<String> }` where ops are the
// reverse operations that correctly undo the forward batch.
type Transaction struct {
	Ops    []Operation
	Cursor *string
}

// NewGridController builds an empty controller.
func NewGridController(executor ScriptExecutor, cfg Config, log *zap.Logger) *GridController {
	if log == nil {
		log = zap.NewNop()
	}
	return &GridController{
		sheets:   make(map[a1.SheetID]*grid.Sheet),
		ctx:      a1.NewA1Context(),
		deps:     depgraph.New(),
		executor: executor,
		config:   cfg,
		log:      log,
	}
}

// AddSheet registers a new sheet.
func (gc *GridController) AddSheet(id a1.SheetID, name string) *grid.Sheet {
	s := grid.NewSheet(id, name)
	gc.sheets[id] = s
	gc.sheetOrder = append(gc.sheetOrder, id)
	return s
}

// Sheet returns the sheet with the given id, if any.
func (gc *GridController) Sheet(id a1.SheetID) (*grid.Sheet, bool) {
	s, ok := gc.sheets[id]
	return s, ok
}

// SetScriptExecutor (re)binds the executor used for non-Formula code
// cells — exposed so a host can connect a script.KernelExecutor after
// construction, once it knows where a kernel is listening.
func (gc *GridController) SetScriptExecutor(executor ScriptExecutor) {
	gc.executor = executor
}

// A1Context returns the shared table-name index — read-only during a
// transaction, per spec §5 "Shared resources."
func (gc *GridController) A1Context() *a1.A1Context { return gc.ctx }

// InTransaction reports whether a transaction is currently suspended
// awaiting an async script result — spec §5 "Re-entrancy": new user
// operations arriving while waiting_for_async is set must be queued,
// not applied.
func (gc *GridController) InTransaction() bool {
	return gc.current != nil && !gc.current.Complete
}

// Transact runs ops as a new transaction and, if compute is true, runs
// the compute loop to quiescence (or suspension) — spec §4.7 "Main
// loop: new(ops, compute)."
func (gc *GridController) Transact(ops []Operation, compute bool) (*TransactionSummary, error) {
	if gc.InTransaction() {
		return nil, NewEngineError(FailedPrecondition, "a transaction is already suspended awaiting an async result")
	}
	tip := newTransactionInProgress()
	gc.current = tip

	if err := gc.transact(tip, ops); err != nil {
		return nil, err
	}
	if compute {
		gc.loopCompute(tip)
	} else {
		tip.Complete = true
	}
	gc.finalizeIfComplete(tip)
	return tip.Summary, nil
}

// transact applies ops serially — spec §4.7 "transact(ops) iterates ops
// in order, calling execute_operation."
func (gc *GridController) transact(tip *TransactionInProgress, ops []Operation) error {
	for _, op := range ops {
		if err := gc.executeOperation(tip, op); err != nil {
			return fmt.Errorf("engine: executing operation %d: %w", op.Kind, err)
		}
	}
	return nil
}

// finalizeIfComplete pushes the transaction's reverse ops onto the undo
// stack and clears the redo stack, once the transaction is quiescent —
// spec §4.7 "Undo / Redo": a non-undo/redo user action clears the redo
// stack; spec §4.7 loop_compute: "complete = true; summary.save = true."
func (gc *GridController) finalizeIfComplete(tip *TransactionInProgress) {
	if !tip.Complete {
		return
	}
	reversed := make([]Operation, len(tip.ReverseOperations))
	for i, op := range tip.ReverseOperations {
		reversed[len(reversed)-1-i] = op
	}
	gc.undoStack = append(gc.undoStack, Transaction{Ops: reversed})
	gc.redoStack = nil
	gc.current = nil
	gc.RebuildA1Context()
}

// Undo pops the top of the undo stack and replays it as a new
// compute=true transaction, pushing the produced reverse onto redo —
// spec §4.7 "Undo / Redo."
func (gc *GridController) Undo() (*TransactionSummary, error) {
	if len(gc.undoStack) == 0 {
		return nil, NewEngineError(FailedPrecondition, "nothing to undo")
	}
	top := gc.undoStack[len(gc.undoStack)-1]
	gc.undoStack = gc.undoStack[:len(gc.undoStack)-1]

	tip := newTransactionInProgress()
	gc.current = tip
	if err := gc.transact(tip, top.Ops); err != nil {
		return nil, err
	}
	gc.loopCompute(tip)

	reversed := make([]Operation, len(tip.ReverseOperations))
	for i, op := range tip.ReverseOperations {
		reversed[len(reversed)-1-i] = op
	}
	gc.redoStack = append(gc.redoStack, Transaction{Ops: reversed})
	gc.current = nil
	return tip.Summary, nil
}

// Redo is Undo's mirror.
func (gc *GridController) Redo() (*TransactionSummary, error) {
	if len(gc.redoStack) == 0 {
		return nil, NewEngineError(FailedPrecondition, "nothing to redo")
	}
	top := gc.redoStack[len(gc.redoStack)-1]
	gc.redoStack = gc.redoStack[:len(gc.redoStack)-1]

	tip := newTransactionInProgress()
	gc.current = tip
	if err := gc.transact(tip, top.Ops); err != nil {
		return nil, err
	}
	gc.loopCompute(tip)

	reversed := make([]Operation, len(tip.ReverseOperations))
	for i, op := range tip.ReverseOperations {
		reversed[len(reversed)-1-i] = op
	}
	gc.undoStack = append(gc.undoStack, Transaction{Ops: reversed})
	gc.current = nil
	return tip.Summary, nil
}
