package a1

// CellRefRangeEnd is one (col, row) endpoint of a RefRangeBounds.
type CellRefRangeEnd struct {
	Col CellRefCoord
	Row CellRefCoord
}

// NewRelativeEnd builds a relative (non-absolute) endpoint at (col, row).
func NewRelativeEnd(col, row int64) CellRefRangeEnd {
	return CellRefRangeEnd{Col: CellRefCoord{Coord: col}, Row: CellRefCoord{Coord: row}}
}

// IsUnbounded reports whether either axis of this endpoint is Unbounded.
func (e CellRefRangeEnd) IsUnbounded() bool {
	return e.Col.Coord == Unbounded || e.Row.Coord == Unbounded
}

func (e CellRefRangeEnd) pos() Pos { return Pos{X: e.Col.Coord, Y: e.Row.Coord} }

// RefRangeBounds is a rectangular range, possibly half- or fully
// unbounded, expressed as two CellRefRangeEnds — spec §3.
type RefRangeBounds struct {
	Start CellRefRangeEnd
	End   CellRefRangeEnd
}

// All is the (1,1)..(Unbounded,Unbounded) range — "the entire sheet."
func All() RefRangeBounds {
	return RefRangeBounds{
		Start: NewRelativeEnd(1, 1),
		End:   NewRelativeEnd(Unbounded, Unbounded),
	}
}

// EntireColumn returns the range for "entire column c".
func EntireColumn(c int64) RefRangeBounds {
	return RefRangeBounds{Start: NewRelativeEnd(c, 1), End: NewRelativeEnd(c, Unbounded)}
}

// EntireRow returns the range for "entire row r".
func EntireRow(r int64) RefRangeBounds {
	return RefRangeBounds{Start: NewRelativeEnd(1, r), End: NewRelativeEnd(Unbounded, r)}
}

// FromRect builds a relative RefRangeBounds spanning rect.
func FromRect(rect Rect) RefRangeBounds {
	return RefRangeBounds{
		Start: NewRelativeEnd(rect.Min.X, rect.Min.Y),
		End:   NewRelativeEnd(rect.Max.X, rect.Max.Y),
	}
}

// NormalizeInPlace ensures Start <= End componentwise, treating Unbounded
// as +infinity. Idempotent — spec §8.
func (r *RefRangeBounds) NormalizeInPlace() {
	if r.Start.Col.Coord > r.End.Col.Coord && r.End.Col.Coord != Unbounded {
		r.Start.Col, r.End.Col = r.End.Col, r.Start.Col
	}
	if r.Start.Row.Coord > r.End.Row.Coord && r.End.Row.Coord != Unbounded {
		r.Start.Row, r.End.Row = r.End.Row, r.Start.Row
	}
}

// ToRect converts a normalized RefRangeBounds to a Rect.
func (r RefRangeBounds) ToRect() Rect {
	return Rect{Min: r.Start.pos(), Max: r.End.pos()}
}

// MightIntersectRect is a cheap bounding-box check used to short-circuit
// exclusion (spec §4.4).
func (r RefRangeBounds) MightIntersectRect(rect Rect) bool {
	return r.ToRect().Intersects(rect)
}

// MightContainPos is a cheap bounding-box check for a single position.
func (r RefRangeBounds) MightContainPos(p Pos) bool {
	return r.ToRect().Contains(p)
}

// IsPosRange reports whether this range is exactly the rect spanned by p1
// and p2 (or just p1, if p2 is absent) — used by the "skip whole range"
// rule in exclude_cells.
func (r RefRangeBounds) IsPosRange(p1 Pos, p2 *Pos) bool {
	rect := SingleCell(p1)
	if p2 != nil {
		rect = NewRect(p1, *p2)
	}
	rr := r
	rr.NormalizeInPlace()
	return rr.ToRect() == rect
}

// TableRowRangeKind is RowRange's tag.
type TableRowRangeKind int

const (
	RowRangeAll TableRowRangeKind = iota
	RowRangeCurrentRow
	RowRangeRows
)

// RowRange selects rows within a table reference.
type RowRange struct {
	Kind TableRowRangeKind
	// Rows holds (start,end) pairs when Kind == RowRangeRows.
	Rows [][2]int64
}

// ColRangeKind is ColRange's tag.
type ColRangeKind int

const (
	ColRangeSingle ColRangeKind = iota
	ColRangeSpan
	ColRangeToEnd
)

// ColRange selects columns within a table reference, by name.
type ColRange struct {
	Kind ColRangeKind
	Col  string   // ColRangeSingle, ColRangeToEnd
	From string   // ColRangeSpan
	To   string   // ColRangeSpan
}

// TableRef is a table-relative range: a named table plus row/column
// sections — spec §3.
type TableRef struct {
	TableName string
	Data      bool
	Headers   bool
	Totals    bool
	RowRange  RowRange
	ColRanges []ColRange
}

// CellRefRangeKind tags CellRefRange's variant.
type CellRefRangeKind int

const (
	CellRefRangeSheet CellRefRangeKind = iota
	CellRefRangeTable
)

// CellRefRange is the tagged union of a sheet-relative rectangular range
// or a table-relative range — spec §3.
type CellRefRange struct {
	Kind  CellRefRangeKind
	Sheet RefRangeBounds // valid iff Kind == CellRefRangeSheet
	Table TableRef       // valid iff Kind == CellRefRangeTable
}

// NewSheetRange wraps a RefRangeBounds as a CellRefRange.
func NewSheetRange(r RefRangeBounds) CellRefRange {
	return CellRefRange{Kind: CellRefRangeSheet, Sheet: r}
}

// NewTableRange wraps a TableRef as a CellRefRange.
func NewTableRange(t TableRef) CellRefRange {
	return CellRefRange{Kind: CellRefRangeTable, Table: t}
}

// TableResolver resolves a table name to its current absolute bounds.
// Dangling names must yield (zero, false) — "empty resolution," not an
// error — per spec §3's invariant on Table ranges.
type TableResolver interface {
	ResolveTableBounds(tableRef TableRef) (RefRangeBounds, bool)
}

// ConvertToRefRangeBounds resolves a CellRefRange to an absolute
// RefRangeBounds against ctx. Table ranges that no longer resolve return
// (zero, false).
func (c CellRefRange) ConvertToRefRangeBounds(ctx TableResolver) (RefRangeBounds, bool) {
	switch c.Kind {
	case CellRefRangeSheet:
		return c.Sheet, true
	case CellRefRangeTable:
		if ctx == nil {
			return RefRangeBounds{}, false
		}
		return ctx.ResolveTableBounds(c.Table)
	}
	return RefRangeBounds{}, false
}

// MightIntersectRect resolves the range (if needed) and checks bounds.
func (c CellRefRange) MightIntersectRect(rect Rect, ctx TableResolver) bool {
	bounds, ok := c.ConvertToRefRangeBounds(ctx)
	if !ok {
		return false
	}
	return bounds.MightIntersectRect(rect)
}

// MightContainPos resolves the range (if needed) and checks containment.
func (c CellRefRange) MightContainPos(p Pos, ctx TableResolver) bool {
	bounds, ok := c.ConvertToRefRangeBounds(ctx)
	if !ok {
		return false
	}
	return bounds.MightContainPos(p)
}

// IsPosRange reports shape equality against p1/p2, resolving table
// ranges first.
func (c CellRefRange) IsPosRange(p1 Pos, p2 *Pos, ctx TableResolver) bool {
	bounds, ok := c.ConvertToRefRangeBounds(ctx)
	if !ok {
		return false
	}
	return bounds.IsPosRange(p1, p2)
}

// FindExcludedRects produces the disjoint rectangles covering range \
// exclude, in the fixed Top, Bottom, Left, Right order spec §4.4
// requires (the order is observable and load-bearing for the UI's
// "iterate selection" semantics — do not reorder). Grounded on
// quadratic-core's a1_selection/exclude.rs::find_excluded_rects.
func FindExcludedRects(rangeIn RefRangeBounds, exclude Rect) []CellRefRange {
	r := rangeIn
	r.NormalizeInPlace()

	if !r.MightIntersectRect(exclude) {
		return []CellRefRange{NewSheetRange(r)}
	}

	var out []RefRangeBounds

	var top *int64
	if r.Start.Row.Coord < exclude.Min.Y {
		v := exclude.Min.Y
		top = &v
		end := CellRefRangeEnd{Col: r.End.Col, Row: CellRefCoord{Coord: exclude.Min.Y - 1}}
		out = append(out, RefRangeBounds{Start: r.Start, End: end})
	}

	var bottom *int64
	if r.End.Row.Coord > exclude.Max.Y {
		v := exclude.Max.Y
		bottom = &v
		start := CellRefRangeEnd{Col: r.Start.Col, Row: CellRefCoord{Coord: exclude.Max.Y + 1}}
		out = append(out, RefRangeBounds{Start: start, End: r.End})
	} else if r.End.IsUnbounded() && r.Start.Row.Coord == Unbounded {
		// special case: an infinite column cut by exclude produces a
		// Bottom that remains vertically infinite.
		v := exclude.Max.Y
		bottom = &v
		out = append(out, RefRangeBounds{
			Start: CellRefRangeEnd{Col: r.Start.Col, Row: CellRefCoord{Coord: exclude.Max.Y + 1}},
			End:   CellRefRangeEnd{Col: r.Start.Col, Row: CellRefCoord{Coord: Unbounded}},
		})
	}

	topOr := func(def int64) int64 {
		if top != nil {
			return *top
		}
		return def
	}
	bottomOr := func(def int64) int64 {
		if bottom != nil {
			return *bottom
		}
		return def
	}

	if r.Start.Col.Coord < exclude.Min.X {
		start := NewRelativeEnd(r.Start.Col.Coord, topOr(r.Start.Row.Coord))
		end := CellRefRangeEnd{
			Col: CellRefCoord{Coord: exclude.Min.X - 1},
			Row: CellRefCoord{Coord: bottomOr(r.End.Row.Coord)},
		}
		out = append(out, RefRangeBounds{Start: start, End: end})
	}

	if r.End.Col.Coord > exclude.Max.X {
		start := NewRelativeEnd(exclude.Max.X+1, topOr(r.Start.Row.Coord))
		end := CellRefRangeEnd{
			Col: r.End.Col,
			Row: CellRefCoord{Coord: bottomOr(r.End.Row.Coord)},
		}
		out = append(out, RefRangeBounds{Start: start, End: end})
	}

	result := make([]CellRefRange, 0, len(out))
	for _, rb := range out {
		result = append(result, NewSheetRange(rb))
	}
	return result
}
