// Package a1 implements addressing and the range algebra: Pos/Rect
// coordinates, RefRangeBounds, CellRefRange (sheet-relative or
// table-relative), and A1Selection — spec §3/§4.4.
package a1

import "fmt"

// SheetID identifies a sheet within a document.
type SheetID string

// Unbounded is the sentinel coordinate meaning "to infinity" on an axis —
// spec §3. It is only ever legal as the `max`/`end` side of a range.
const Unbounded int64 = 1<<63 - 1

// Pos is a signed grid coordinate. The valid sheet grid is x >= 1, y >= 1;
// either axis may hold Unbounded.
type Pos struct {
	X int64
	Y int64
}

// IsFiniteColumn reports whether X is a real (non-infinite) column.
func (p Pos) IsFiniteColumn() bool { return p.X != Unbounded }

// IsFiniteRow reports whether Y is a real (non-infinite) row.
func (p Pos) IsFiniteRow() bool { return p.Y != Unbounded }

func (p Pos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Y) }

// Rect is a closed rectangle normalized so Min <= Max componentwise. It
// may be half- or fully-unbounded by using Unbounded in Max.
type Rect struct {
	Min Pos
	Max Pos
}

// NewRect builds a normalized Rect from two arbitrary corners.
func NewRect(a, b Pos) Rect {
	r := Rect{
		Min: Pos{X: minI(a.X, b.X), Y: minI(a.Y, b.Y)},
		Max: Pos{X: maxI(a.X, b.X), Y: maxI(a.Y, b.Y)},
	}
	return r
}

// SingleCell returns the 1x1 rect at p.
func SingleCell(p Pos) Rect { return Rect{Min: p, Max: p} }

// Contains reports whether p falls within r.
func (r Rect) Contains(p Pos) bool {
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Intersects reports whether r and other share any cell.
func (r Rect) Intersects(other Rect) bool {
	if r.Max.X < other.Min.X || other.Max.X < r.Min.X {
		return false
	}
	if r.Max.Y < other.Min.Y || other.Max.Y < r.Min.Y {
		return false
	}
	return true
}

// Width returns Unbounded if the rect is horizontally infinite, else the
// finite cell count along X.
func (r Rect) Width() int64 {
	if r.Max.X == Unbounded {
		return Unbounded
	}
	return r.Max.X - r.Min.X + 1
}

func minI(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func maxI(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// CellRefCoord is a single axis coordinate plus the absolute/relative
// flag that affects only formula-copy semantics (spec §3) — for
// addressing purposes the flag is metadata and ignored.
type CellRefCoord struct {
	Coord      int64
	IsAbsolute bool
}

// SheetPos is a Pos scoped to a sheet.
type SheetPos struct {
	Sheet SheetID
	Pos   Pos
}

// SheetRect is a Rect scoped to a sheet.
type SheetRect struct {
	Sheet SheetID
	Rect  Rect
}
