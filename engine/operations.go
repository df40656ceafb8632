package engine

import (
	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

// OpKind tags Operation's variant — spec §6 "Operation taxonomy (wire /
// undo format). A tagged union."
type OpKind int

const (
	OpSetCellValues OpKind = iota
	OpSetCellCode
	OpSetDataTable
	OpDeleteDataTable
	OpSetCellFormatsSelection
	OpSetBordersSelection
	OpInsertColumn
	OpDeleteColumn
	OpInsertRow
	OpDeleteRow
	OpResizeColumn
	OpResizeRow
	OpSetValidation
	OpRemoveValidation
	OpSetSheetName
	OpAutocomplete // [SUPPLEMENT]
)

// Operation is the wire/undo tagged union — spec §6. Exactly one of the
// per-variant fields is meaningful, selected by Kind; field order is
// explicitly not load-bearing per spec, so Go's single flat struct (the
// teacher's own preference for a self-describing record, cf. Cell in
// cell.go) is a faithful rendering of a Rust enum without needing an
// interface-per-variant hierarchy.
type Operation struct {
	Kind OpKind

	Sheet a1.SheetID

	SetCellValues struct {
		Pos    a1.Pos
		Values [][]grid.CellValue // row-major, anchored at Pos
	}

	SetCellCode struct {
		Pos  a1.Pos
		Code *CodeCellValue // nil clears code
	}

	SetDataTable struct {
		Pos   a1.Pos
		Table *grid.DataTable // nil deletes
		Index int
	}

	SetCellFormatsSelection struct {
		Selection a1.A1Selection
		Update    grid.FormatUpdate
	}

	SetBordersSelection struct {
		Selection a1.A1Selection
		Side      int // see grid border side constants
		Style     *grid.BorderStyleTimestamp
	}

	Column struct {
		Index       int64
		CopyFormats grid.CopyFormats
	}

	Row struct {
		Index int64
	}

	Resize struct {
		Index        int64
		NewSize      float64
		ClientResize bool
	}

	SetValidation struct {
		Validation grid.Validation
	}

	RemoveValidation struct {
		ID string
	}

	SetSheetName struct {
		Name string
	}

	Autocomplete struct {
		Selection a1.A1Selection
		Target    a1.Rect
	}
}

// CodeCellValue is the source + language of a code cell — spec §4.7
// "current_code_cell: Option<CodeCellValue>."
type CodeCellValue struct {
	Language string
	Code     string
}
