package grid

import (
	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/blocks"
)

// Format is a cell's resolved visual styling — spec §4.3. All fields are
// optional; nil means "not set at this layer."
type Format struct {
	Bold            *bool
	Italic          *bool
	TextColor       *string
	FillColor       *string
	NumericFormat   *string
	NumericDecimals *int8
	Underline       *bool
	StrikeThrough   *bool
	Align           *string
	VerticalAlign   *string
	WrapText        *bool
}

// combine merges two layers, more-specific (child) winning per field —
// spec §4.3: "a lower layer supplies fields the upper does not set."
func combine(base, override Format) Format {
	out := base
	if override.Bold != nil {
		out.Bold = override.Bold
	}
	if override.Italic != nil {
		out.Italic = override.Italic
	}
	if override.TextColor != nil {
		out.TextColor = override.TextColor
	}
	if override.FillColor != nil {
		out.FillColor = override.FillColor
	}
	if override.NumericFormat != nil {
		out.NumericFormat = override.NumericFormat
	}
	if override.NumericDecimals != nil {
		out.NumericDecimals = override.NumericDecimals
	}
	if override.Underline != nil {
		out.Underline = override.Underline
	}
	if override.StrikeThrough != nil {
		out.StrikeThrough = override.StrikeThrough
	}
	if override.Align != nil {
		out.Align = override.Align
	}
	if override.VerticalAlign != nil {
		out.VerticalAlign = override.VerticalAlign
	}
	if override.WrapText != nil {
		out.WrapText = override.WrapText
	}
	return out
}

// fieldUpdate is Option<Option<V>>: Unset means "leave this field alone,"
// Set(nil) means "clear it," Set(v) means "assign it" — spec §4.3.
type fieldUpdate[V any] struct {
	set   bool
	clear bool
	value V
}

func keep[V any]() fieldUpdate[V]            { return fieldUpdate[V]{} }
func clearField[V any]() fieldUpdate[V]      { return fieldUpdate[V]{set: true, clear: true} }
func setField[V any](v V) fieldUpdate[V]     { return fieldUpdate[V]{set: true, value: v} }
func (f fieldUpdate[V]) apply(cur *V) *V {
	if !f.set {
		return cur
	}
	if f.clear {
		return nil
	}
	v := f.value
	return &v
}

// FormatUpdate describes a requested change to a Format — spec §4.3. The
// identity value (all fields zero) is a no-op.
type FormatUpdate struct {
	Bold            fieldUpdate[bool]
	Italic          fieldUpdate[bool]
	TextColor       fieldUpdate[string]
	FillColor       fieldUpdate[string]
	NumericFormat   fieldUpdate[string]
	NumericDecimals fieldUpdate[int8]
	Underline       fieldUpdate[bool]
	StrikeThrough   fieldUpdate[bool]
	Align           fieldUpdate[string]
	VerticalAlign   fieldUpdate[string]
	WrapText        fieldUpdate[bool]
}

// IsIdentity reports whether u changes nothing.
func (u FormatUpdate) IsIdentity() bool {
	return !u.Bold.set && !u.Italic.set && !u.TextColor.set && !u.FillColor.set &&
		!u.NumericFormat.set && !u.NumericDecimals.set && !u.Underline.set &&
		!u.StrikeThrough.set && !u.Align.set && !u.VerticalAlign.set && !u.WrapText.set
}

// apply returns the Format after applying u, plus the reverse update that
// would undo it (spec §4.3's "set_format returns reverse_updates").
func (u FormatUpdate) apply(f Format) (Format, FormatUpdate) {
	rev := FormatUpdate{}
	next := f

	next.Bold = u.Bold.apply(f.Bold)
	if u.Bold.set {
		rev.Bold = fieldFromPtr(f.Bold)
	}
	next.Italic = u.Italic.apply(f.Italic)
	if u.Italic.set {
		rev.Italic = fieldFromPtr(f.Italic)
	}
	next.TextColor = u.TextColor.apply(f.TextColor)
	if u.TextColor.set {
		rev.TextColor = fieldFromPtr(f.TextColor)
	}
	next.FillColor = u.FillColor.apply(f.FillColor)
	if u.FillColor.set {
		rev.FillColor = fieldFromPtr(f.FillColor)
	}
	next.NumericFormat = u.NumericFormat.apply(f.NumericFormat)
	if u.NumericFormat.set {
		rev.NumericFormat = fieldFromPtr(f.NumericFormat)
	}
	next.NumericDecimals = u.NumericDecimals.apply(f.NumericDecimals)
	if u.NumericDecimals.set {
		rev.NumericDecimals = fieldFromPtr(f.NumericDecimals)
	}
	next.Underline = u.Underline.apply(f.Underline)
	if u.Underline.set {
		rev.Underline = fieldFromPtr(f.Underline)
	}
	next.StrikeThrough = u.StrikeThrough.apply(f.StrikeThrough)
	if u.StrikeThrough.set {
		rev.StrikeThrough = fieldFromPtr(f.StrikeThrough)
	}
	next.Align = u.Align.apply(f.Align)
	if u.Align.set {
		rev.Align = fieldFromPtr(f.Align)
	}
	next.VerticalAlign = u.VerticalAlign.apply(f.VerticalAlign)
	if u.VerticalAlign.set {
		rev.VerticalAlign = fieldFromPtr(f.VerticalAlign)
	}
	next.WrapText = u.WrapText.apply(f.WrapText)
	if u.WrapText.set {
		rev.WrapText = fieldFromPtr(f.WrapText)
	}
	return next, rev
}

func fieldFromPtr[V any](p *V) fieldUpdate[V] {
	if p == nil {
		return clearField[V]()
	}
	return setField(*p)
}

// needsToClearCellFormatForParent computes the cell-level FormatUpdate
// that clears fields a newly-assigned column/row format would now shadow
// — spec §4.3's needs_to_clear_cell_format_for_parent. Any field the
// incoming update sets (to a value or to clear) must stop being
// overridden at the cell layer, so the broader layer takes precedence.
func needsToClearCellFormatForParent(update FormatUpdate) FormatUpdate {
	out := FormatUpdate{}
	if update.Bold.set {
		out.Bold = clearField[bool]()
	}
	if update.Italic.set {
		out.Italic = clearField[bool]()
	}
	if update.TextColor.set {
		out.TextColor = clearField[string]()
	}
	if update.FillColor.set {
		out.FillColor = clearField[string]()
	}
	if update.NumericFormat.set {
		out.NumericFormat = clearField[string]()
	}
	if update.NumericDecimals.set {
		out.NumericDecimals = clearField[int8]()
	}
	if update.Underline.set {
		out.Underline = clearField[bool]()
	}
	if update.StrikeThrough.set {
		out.StrikeThrough = clearField[bool]()
	}
	if update.Align.set {
		out.Align = clearField[string]()
	}
	if update.VerticalAlign.set {
		out.VerticalAlign = clearField[string]()
	}
	if update.WrapText.set {
		out.WrapText = clearField[bool]()
	}
	return out
}

// SheetFormatting is the four-layer format store — spec §3/§4.3: a
// whole-sheet layer, per-row and per-column ContiguousBlocks<Format>
// layers, and a sparse per-cell map.
type SheetFormatting struct {
	SheetWide Format
	rows      *blocks.ContiguousBlocks[Format]
	cols      *blocks.ContiguousBlocks[Format]
	cells     map[a1.Pos]Format
}

// NewSheetFormatting builds an empty four-layer format store.
func NewSheetFormatting() *SheetFormatting {
	return &SheetFormatting{
		rows:  blocks.New[Format](),
		cols:  blocks.New[Format](),
		cells: make(map[a1.Pos]Format),
	}
}

// At resolves the combined format for a single cell — spec §4.3:
// sheet_wide, then row[y], then column[x], then cell[x][y], each more
// specific layer winning per-field.
func (s *SheetFormatting) At(p a1.Pos) Format {
	out := s.SheetWide
	if rowFmt, ok := s.rows.Get(p.Y); ok {
		out = combine(out, rowFmt)
	}
	if colFmt, ok := s.cols.Get(p.X); ok {
		out = combine(out, colFmt)
	}
	if cellFmt, ok := s.cells[p]; ok {
		out = combine(out, cellFmt)
	}
	return out
}

// SetFormat applies update to every cell in rect, returning the reverse
// update for each previously-distinct cell format touched, keyed by
// position — spec §4.3 "set_format(rect, update) → reverse_updates".
func (s *SheetFormatting) SetFormat(rect a1.Rect, update FormatUpdate) map[a1.Pos]FormatUpdate {
	if update.IsIdentity() {
		return nil
	}
	reverse := make(map[a1.Pos]FormatUpdate)
	for y := rect.Min.Y; y <= rect.Max.Y && y != a1.Unbounded; y++ {
		for x := rect.Min.X; x <= rect.Max.X && x != a1.Unbounded; x++ {
			p := a1.Pos{X: x, Y: y}
			cur := s.cells[p]
			next, rev := update.apply(cur)
			if next == (Format{}) {
				delete(s.cells, p)
			} else {
				s.cells[p] = next
			}
			reverse[p] = rev
		}
	}
	return reverse
}

// SetFormatColumn sets the column-wide format layer for col, clearing any
// cell-level fields it now shadows — spec §4.3.
func (s *SheetFormatting) SetFormatColumn(col int64, update FormatUpdate) {
	if update.IsIdentity() {
		return
	}
	cur, _ := s.cols.Get(col)
	next, _ := update.apply(cur)
	s.cols.Set(col, next)
	clearUpdate := needsToClearCellFormatForParent(update)
	if clearUpdate.IsIdentity() {
		return
	}
	for p := range s.cells {
		if p.X == col {
			next, _ := clearUpdate.apply(s.cells[p])
			if next == (Format{}) {
				delete(s.cells, p)
			} else {
				s.cells[p] = next
			}
		}
	}
}

// SetFormatRow sets the row-wide format layer for row, clearing shadowed
// cell-level fields — spec §4.3.
func (s *SheetFormatting) SetFormatRow(row int64, update FormatUpdate) {
	if update.IsIdentity() {
		return
	}
	cur, _ := s.rows.Get(row)
	next, _ := update.apply(cur)
	s.rows.Set(row, next)
	clearUpdate := needsToClearCellFormatForParent(update)
	if clearUpdate.IsIdentity() {
		return
	}
	for p := range s.cells {
		if p.Y == row {
			next, _ := clearUpdate.apply(s.cells[p])
			if next == (Format{}) {
				delete(s.cells, p)
			} else {
				s.cells[p] = next
			}
		}
	}
}

// movedCellFormat is one entry of a planned cells-map rekey: deletions
// and insertions are collected up front so the rekey doesn't mutate
// s.cells while its own range is in flight.
type movedCellFormat struct {
	from, to a1.Pos
	format   Format
}

// ShiftColumnDelete drops column c's cell- and column-level format
// overrides and shifts every later column's formats left by one — the
// Formats-store analogue of Sheet.dataTables.rekeyAnchor, so a deleted
// column's formatting doesn't linger keyed to the wrong coordinate
// (spec §4.6 step 6, applied to the cols/cells layers Borders and
// ColumnOffsets already shift in the same step).
func (s *SheetFormatting) ShiftColumnDelete(c int64) {
	s.cols.ShiftRemove(c, c+1)
	var moved []movedCellFormat
	for p, f := range s.cells {
		switch {
		case p.X == c:
			delete(s.cells, p)
		case p.X > c:
			moved = append(moved, movedCellFormat{from: p, to: a1.Pos{X: p.X - 1, Y: p.Y}, format: f})
		}
	}
	for _, m := range moved {
		delete(s.cells, m.from)
	}
	for _, m := range moved {
		s.cells[m.to] = m.format
	}
}

// ShiftColumnInsert opens a default-formatted gap at column c and shifts
// every column at or after c (and its cell-level overrides) right by
// one — the insert-axis twin of ShiftColumnDelete.
func (s *SheetFormatting) ShiftColumnInsert(c int64) {
	s.cols.ShiftInsert(c, c+1, Format{})
	var moved []movedCellFormat
	for p, f := range s.cells {
		if p.X >= c {
			moved = append(moved, movedCellFormat{from: p, to: a1.Pos{X: p.X + 1, Y: p.Y}, format: f})
		}
	}
	for _, m := range moved {
		delete(s.cells, m.from)
	}
	for _, m := range moved {
		s.cells[m.to] = m.format
	}
}

// ShiftRowDelete is ShiftColumnDelete's row-axis twin.
func (s *SheetFormatting) ShiftRowDelete(r int64) {
	s.rows.ShiftRemove(r, r+1)
	var moved []movedCellFormat
	for p, f := range s.cells {
		switch {
		case p.Y == r:
			delete(s.cells, p)
		case p.Y > r:
			moved = append(moved, movedCellFormat{from: p, to: a1.Pos{X: p.X, Y: p.Y - 1}, format: f})
		}
	}
	for _, m := range moved {
		delete(s.cells, m.from)
	}
	for _, m := range moved {
		s.cells[m.to] = m.format
	}
}

// ShiftRowInsert is ShiftColumnInsert's row-axis twin.
func (s *SheetFormatting) ShiftRowInsert(r int64) {
	s.rows.ShiftInsert(r, r+1, Format{})
	var moved []movedCellFormat
	for p, f := range s.cells {
		if p.Y >= r {
			moved = append(moved, movedCellFormat{from: p, to: a1.Pos{X: p.X, Y: p.Y + 1}, format: f})
		}
	}
	for _, m := range moved {
		delete(s.cells, m.from)
	}
	for _, m := range moved {
		s.cells[m.to] = m.format
	}
}
