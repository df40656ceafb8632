// Package formulaeval is the evaluator the engine calls into for
// Formula-language code cells — spec §6 "Formula evaluator contract
// (consumed)". Deliberately minimal: arithmetic operators and
// relative/absolute cell references only, grounded on the teacher's
// lexer.go/parser.go token and AST shape but not its full function
// library (builtin.go is explicitly out of scope — see DESIGN.md).
package formulaeval

import (
	"fmt"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

// ValueKind tags a Value's shape — spec §6 "Value (Single | Array |
// Tuple of CellValue)".
type ValueKind int

const (
	ValueSingle ValueKind = iota
	ValueArray
)

// Value is the evaluator's result shape.
type Value struct {
	Kind   ValueKind
	Single grid.CellValue
	Array  [][]grid.CellValue
}

// RunErrorKind enumerates the typed errors spec §6 names.
type RunErrorKind int

const (
	RunErrorDivideByZero RunErrorKind = iota
	RunErrorBadCellReference
	RunErrorCircularReference
	RunErrorSyntax
	RunErrorUnknownFunction
)

// RunError is a typed formula evaluation failure.
type RunError struct {
	Kind RunErrorKind
	Msg  string
}

func (e *RunError) Error() string { return e.Msg }

// Ctx is the evaluation context the engine threads through a single
// evaluation — spec §6 "Ctx { grid, current_cell_ref, cells_accessed }".
// CellsAccessed is appended to as cell references are read; the engine
// reads it back after evaluation to update the dependency graph.
type Ctx struct {
	Sheet           *grid.Sheet
	CurrentCellRef  a1.Pos
	CellsAccessed   *[]a1.Pos
	inFlight        map[a1.Pos]bool // circular-reference guard for this evaluation
}

// NewCtx builds an evaluation context.
func NewCtx(sheet *grid.Sheet, current a1.Pos, accessed *[]a1.Pos) *Ctx {
	return &Ctx{Sheet: sheet, CurrentCellRef: current, CellsAccessed: accessed, inFlight: map[a1.Pos]bool{current: true}}
}

// readCell fetches a referenced cell's numeric value, recording the
// access and guarding against a formula referencing itself mid-eval —
// spec §6 "Surfacing typed errors ... CircularReference."
func (c *Ctx) readCell(p a1.Pos) (float64, *RunError) {
	if c.inFlight[p] {
		return 0, &RunError{Kind: RunErrorCircularReference, Msg: "circular reference detected"}
	}
	*c.CellsAccessed = append(*c.CellsAccessed, p)
	v := c.Sheet.CellValueAt(p)
	switch v.Type {
	case grid.CellTypeEmpty:
		return 0, nil
	case grid.CellTypeNumber:
		return v.Value.(float64), nil
	default:
		return 0, &RunError{Kind: RunErrorBadCellReference, Msg: fmt.Sprintf("%v is not a number", p)}
	}
}

// Evaluate parses and runs source (a formula without its leading '='),
// returning a Value or RunError — spec §6's evaluator contract.
func Evaluate(source string, ctx *Ctx) (Value, *RunError) {
	toks, err := tokenize(source)
	if err != nil {
		return Value{}, err
	}
	p := &parser{toks: toks}
	node, err := p.parseExpr(0)
	if err != nil {
		return Value{}, err
	}
	if p.pos != len(p.toks) {
		return Value{}, &RunError{Kind: RunErrorSyntax, Msg: "unexpected trailing input"}
	}
	n, rerr := node.eval(ctx)
	if rerr != nil {
		return Value{}, rerr
	}
	return Value{Kind: ValueSingle, Single: grid.NumberValue(n)}, nil
}
