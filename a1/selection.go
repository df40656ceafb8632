package a1

// A1Selection is an ordered list of ranges plus a cursor position — the
// user's active selection. Invariant: Ranges is never empty; after any
// mutation that would empty it, a singleton cursor range is inserted.
// Cursor is contained in at least one finite range after every
// operation, or falls back to (1,1) — spec §3.
type A1Selection struct {
	Sheet  SheetID
	Cursor Pos
	Ranges []CellRefRange
}

// NewA1Selection builds a selection containing a single cursor cell.
func NewA1Selection(sheet SheetID, cursor Pos) A1Selection {
	return A1Selection{
		Sheet:  sheet,
		Cursor: cursor,
		Ranges: []CellRefRange{NewSheetRange(RefRangeBounds{Start: NewRelativeEnd(cursor.X, cursor.Y), End: NewRelativeEnd(cursor.X, cursor.Y)})},
	}
}

// ContainsPos reports whether p is covered by any range in the selection.
func (s *A1Selection) ContainsPos(p Pos, ctx TableResolver) bool {
	for _, r := range s.Ranges {
		if r.MightContainPos(p, ctx) {
			return true
		}
	}
	return false
}

// AddRange appends a range to the selection (union). Deduplication is
// optional — the renderer tolerates overlap, per spec §4.4.
func (s *A1Selection) AddRange(r CellRefRange) {
	s.Ranges = append(s.Ranges, r)
}

// IsPosRange reports whether the selection is a single range shaped
// exactly like the rect spanned by p1/p2.
func (s *A1Selection) IsPosRange(p1 Pos, p2 *Pos, ctx TableResolver) bool {
	if len(s.Ranges) != 1 {
		return false
	}
	return s.Ranges[0].IsPosRange(p1, p2, ctx)
}

// ExcludeCells removes the rectangle spanned by p1 and p2 (or just the
// single cell p1, if p2 is nil) from every range in the selection,
// replacing intersecting ranges with their Top/Bottom/Left/Right
// remainder (a1.FindExcludedRects), resolving Table ranges to Sheet
// ranges first (spec §4.4: "once cut, they are Sheet ranges, period" —
// §9 Open Question, resolved by following the original source).
//
// Grounded on quadratic-core's a1_selection/exclude.rs::exclude_cells.
func (s *A1Selection) ExcludeCells(p1 Pos, p2 *Pos, ctx TableResolver) {
	// normalize p1/p2 the same way the driver loop does, before any
	// per-range comparison.
	if p2 != nil {
		np1 := Pos{X: minI(p1.X, p2.X), Y: minI(p1.Y, p2.Y)}
		np2 := Pos{X: maxI(p1.X, p2.X), Y: maxI(p1.Y, p2.Y)}
		p1, p2 = np1, &np2
	}

	var out []CellRefRange
	for _, r := range s.Ranges {
		// skip-whole rule: drop a range that equals E exactly, in
		// either corner order.
		if r.IsPosRange(p1, p2, ctx) {
			continue
		}
		if p2 != nil && r.IsPosRange(*p2, &p1, ctx) {
			continue
		}

		if p2 != nil {
			exclude := NewRect(p1, *p2)
			if r.MightIntersectRect(exclude, ctx) {
				out = append(out, removeRect(r, exclude, ctx)...)
			} else {
				out = append(out, r)
			}
		} else {
			if r.MightContainPos(p1, ctx) {
				out = append(out, removeRect(r, SingleCell(p1), ctx)...)
			} else {
				out = append(out, r)
			}
		}
	}

	if len(out) == 0 {
		out = append(out, NewSheetRange(RefRangeBounds{Start: NewRelativeEnd(p1.X, p1.Y), End: NewRelativeEnd(p1.X, p1.Y)}))
	}
	s.Ranges = out

	if !s.ContainsPos(s.Cursor, ctx) {
		s.Cursor = fallbackCursor(s.Ranges)
	}
}

// removeRect excludes `exclude` from a single range, resolving Table
// ranges to an absolute RefRangeBounds first — once cut, the remainder
// is always Sheet ranges (spec §9).
func removeRect(r CellRefRange, exclude Rect, ctx TableResolver) []CellRefRange {
	switch r.Kind {
	case CellRefRangeSheet:
		return FindExcludedRects(r.Sheet, exclude)
	case CellRefRangeTable:
		bounds, ok := ctx.ResolveTableBounds(r.Table)
		if !ok {
			return nil
		}
		return FindExcludedRects(bounds, exclude)
	}
	return nil
}

// fallbackCursor finds a cell to re-anchor the cursor on after an
// exclusion leaves it outside every range: prefer the End corner of the
// last finite range, then its Start corner, then (1,1).
func fallbackCursor(ranges []CellRefRange) Pos {
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		if r.Kind != CellRefRangeSheet {
			continue
		}
		if !r.Sheet.End.IsUnbounded() {
			return r.Sheet.End.pos()
		}
		if !r.Sheet.Start.IsUnbounded() {
			return r.Sheet.Start.pos()
		}
	}
	return Pos{X: 1, Y: 1}
}
