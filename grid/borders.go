package grid

import (
	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/blocks"
)

// BorderStyleTimestamp is a border line style plus the logical time it
// was applied, used to resolve conflicting border writes from merged
// cells or overlapping operations — spec §3 "borders."
type BorderStyleTimestamp struct {
	Line      string // "none", "thin", "thick", "dashed", ...
	Color     string
	Timestamp int64
}

// borderSide is one of the four per-column/per-row stacks a Borders
// value keeps.
type borderSide int

const (
	borderTop borderSide = iota
	borderBottom
	borderLeft
	borderRight
)

// BorderSide constants are the exported wire values an Operation carries —
// spec §6 SetBordersSelection "side: one of top/bottom/left/right".
const (
	BorderSideTop = int(borderTop)
	BorderSideBottom = int(borderBottom)
	BorderSideLeft = int(borderLeft)
	BorderSideRight = int(borderRight)
)

// Borders holds the four ContiguousBlocks-per-axis stores spec §3
// describes: top/bottom are indexed by row within a column's run, and
// left/right by column within a row's run. We key all four uniformly by
// the perpendicular axis coordinate, matching the teacher's per-axis
// sparse-run approach in worksheet.go's column/row format stores.
type Borders struct {
	top, bottom *blocks.ContiguousBlocks[*BorderStyleTimestamp]
	left, right *blocks.ContiguousBlocks[*BorderStyleTimestamp]
}

// NewBorders builds an empty border store (every side unset everywhere).
func NewBorders() *Borders {
	return &Borders{
		top:    blocks.New[*BorderStyleTimestamp](),
		bottom: blocks.New[*BorderStyleTimestamp](),
		left:   blocks.New[*BorderStyleTimestamp](),
		right:  blocks.New[*BorderStyleTimestamp](),
	}
}

func (b *Borders) sideStore(side borderSide) *blocks.ContiguousBlocks[*BorderStyleTimestamp] {
	switch side {
	case borderTop:
		return b.top
	case borderBottom:
		return b.bottom
	case borderLeft:
		return b.left
	default:
		return b.right
	}
}

// SetColumnRange sets a border side across rows [start,end) of column col.
func (b *Borders) SetColumnRange(side borderSide, col, start, end int64, style *BorderStyleTimestamp) []blocks.Block[*BorderStyleTimestamp] {
	_ = col // column identity is carried by the caller; this store is per-column-run
	return b.sideStore(side).SetBlock(start, end, style)
}

// SetRange is SetColumnRange with an exported side selector, for callers
// outside the package (the engine's operation executor).
func (b *Borders) SetRange(side int, col, start, end int64, style *BorderStyleTimestamp) []blocks.Block[*BorderStyleTimestamp] {
	return b.SetColumnRange(borderSide(side), col, start, end, style)
}

// GetColumnOps reports every run of each side store (the whole store, not
// only the runs touching column c; c is not used), used by DeleteColumn
// to synthesize reverse SetBorders operations — spec §4.6 step 2
// "borders.get_column_ops(c)".
func (b *Borders) GetColumnOps(c int64) map[borderSide][]blocks.Block[*BorderStyleTimestamp] {
	out := make(map[borderSide][]blocks.Block[*BorderStyleTimestamp])
	for _, side := range []borderSide{borderTop, borderBottom, borderLeft, borderRight} {
		out[side] = b.sideStore(side).Blocks()
	}
	return out
}

// GetRowOps is GetColumnOps' row-axis twin, used by DeleteRow the same
// way DeleteColumn uses GetColumnOps — the four side-stores are keyed by
// perpendicular-axis coordinate only, so the lookup is identical either
// way.
func (b *Borders) GetRowOps(r int64) map[borderSide][]blocks.Block[*BorderStyleTimestamp] {
	return b.GetColumnOps(r)
}

// RemoveColumn shifts every border run left by one past column c — spec
// §4.6 step 6 "borders.remove_column(c)".
func (b *Borders) RemoveColumn(c int64) {
	b.top.ShiftRemove(c, c+1)
	b.bottom.ShiftRemove(c, c+1)
	b.left.ShiftRemove(c, c+1)
	b.right.ShiftRemove(c, c+1)
}

// InsertColumn shifts every border run right past column c — spec §4.6
// InsertColumn step 3 "borders.insert_column(c)".
func (b *Borders) InsertColumn(c int64) {
	var nilStyle *BorderStyleTimestamp
	b.top.ShiftInsert(c, c+1, nilStyle)
	b.bottom.ShiftInsert(c, c+1, nilStyle)
	b.left.ShiftInsert(c, c+1, nilStyle)
	b.right.ShiftInsert(c, c+1, nilStyle)
}

// RemoveRow and InsertRow are RemoveColumn/InsertColumn's row-axis twins —
// the four stores are keyed by perpendicular-axis coordinate only, so the
// same shift operation serves whichever axis the caller is editing.
func (b *Borders) RemoveRow(r int64) { b.RemoveColumn(r) }

func (b *Borders) InsertRow(r int64) { b.InsertColumn(r) }

// AdjustForMerge rewrites the border lookup for a merged rectangle so
// rendering and edge-style queries treat it as a single cell whose
// borders come from the anchor (min corner) — spec §3 "merge_cells."
func AdjustForMerge(b *Borders, merge a1.Rect) {
	anchorTop, _ := b.top.Get(merge.Min.Y)
	anchorLeft, _ := b.left.Get(merge.Min.X)
	b.top.SetBlock(merge.Min.Y, merge.Max.Y+1, anchorTop)
	b.left.SetBlock(merge.Min.X, merge.Max.X+1, anchorLeft)
}
