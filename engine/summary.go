package engine

import "github.com/gridkernel/sheetcore/a1"

// TransactionSummary accumulates dirty-region notifications for the
// renderer across one transaction — spec §4.7.
type TransactionSummary struct {
	CodeCellsModified  map[a1.SheetPos]bool
	SheetBorders       map[a1.SheetID]bool
	FillCells          map[a1.SheetID]bool
	OffsetsModified    map[a1.SheetID]bool
	DirtyHashes        map[a1.SheetID]map[[2]int64]bool // quadrant coords, CELL_SHEET_HEIGHT-aligned
	AddCodeCell        []a1.SheetPos
	AddHTMLCell        []a1.SheetPos
	AddImageCell       []a1.SheetPos
	Save               bool
}

// cellSheetHeight is the renderer's dirty-quadrant granularity in rows —
// spec §4.6 step 9 "aligned to renderer chunk size, currently
// CELL_SHEET_HEIGHT = 16 rows per quadrant."
const cellSheetHeight = 16

// NewTransactionSummary builds an empty summary.
func NewTransactionSummary() *TransactionSummary {
	return &TransactionSummary{
		CodeCellsModified: make(map[a1.SheetPos]bool),
		SheetBorders:      make(map[a1.SheetID]bool),
		FillCells:         make(map[a1.SheetID]bool),
		OffsetsModified:   make(map[a1.SheetID]bool),
		DirtyHashes:       make(map[a1.SheetID]map[[2]int64]bool),
	}
}

// MarkDirtyQuadrant marks the renderer quadrant containing (x,y) as
// needing a repaint.
func (s *TransactionSummary) MarkDirtyQuadrant(sheet a1.SheetID, x, y int64) {
	if s.DirtyHashes[sheet] == nil {
		s.DirtyHashes[sheet] = make(map[[2]int64]bool)
	}
	qx := x // columns are not currently chunked horizontally, only rows
	qy := y / cellSheetHeight
	s.DirtyHashes[sheet][[2]int64{qx, qy}] = true
}

// MarkCodeCellModified records a code-cell content change.
func (s *TransactionSummary) MarkCodeCellModified(p a1.SheetPos) {
	s.CodeCellsModified[p] = true
}
