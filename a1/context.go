package a1

import (
	"golang.org/x/text/cases"
)

// fold is the case-insensitive comparison key for table and sheet names.
// Grounded on the pack's golang.org/x/text dependency (carried by
// TsubasaBE-go-xlsb and joshuapare-hivekit) rather than strings.ToLower,
// since cases.Fold is Unicode-correct in a way a byte-wise lower-case is
// not (spec is silent on this, but the pack shows the idiomatic choice).
var foldCaser = cases.Fold()

func fold(s string) string { return foldCaser.String(s) }

// tableEntry mirrors the teacher's NamedRangeTable defined/undefined
// reference-counted shape (range.go), generalized from "named range
// address" to "table name -> current bounds."
type tableEntry struct {
	name     string // original-cased name, for display
	bounds   RefRangeBounds
	defined  bool
	refCount int
}

// A1Context is the table-name -> location index consulted when resolving
// Table ranges to absolute RefRangeBounds (spec §3, §4.4, §9). It is
// read-only during a transaction and rebuilt from Sheet state between
// transactions (spec §5, §9) — callers own that rebuild cadence; A1Context
// itself is just the index.
type A1Context struct {
	byFold map[string]*tableEntry
}

// NewA1Context creates an empty table-name index.
func NewA1Context() *A1Context {
	return &A1Context{byFold: make(map[string]*tableEntry)}
}

// DefineTable registers or redefines a table's current bounds.
func (c *A1Context) DefineTable(name string, bounds RefRangeBounds) {
	key := fold(name)
	if e, ok := c.byFold[key]; ok {
		e.bounds = bounds
		e.defined = true
		e.name = name
		return
	}
	c.byFold[key] = &tableEntry{name: name, bounds: bounds, defined: true}
}

// UndefineTable removes a table's definition (e.g. the table was
// deleted). A subsequent resolution attempt for this name yields an
// empty resolution, not an error, per spec §3.
func (c *A1Context) UndefineTable(name string) {
	delete(c.byFold, fold(name))
}

// ResolveTableBounds implements TableResolver. Dangling names — not
// currently defined — return (zero, false): "empty resolution," never
// an error, per spec §3's invariant on Table ranges.
func (c *A1Context) ResolveTableBounds(ref TableRef) (RefRangeBounds, bool) {
	e, ok := c.byFold[fold(ref.TableName)]
	if !ok || !e.defined {
		return RefRangeBounds{}, false
	}
	return applyTableSections(e.bounds, ref), true
}

// applyTableSections narrows a table's full bounds for a TableRef. Only an
// explicit RowRangeRows list narrows anything: the rows become the span
// from the smallest segment start to the largest segment end. Every other
// row-range kind, and every column selection, leaves the table's full
// bounds unchanged; column names are not resolved against the header row.
// Resolution stays total (never erroring) as spec §3 requires.
func applyTableSections(full RefRangeBounds, ref TableRef) RefRangeBounds {
	if ref.RowRange.Kind == RowRangeRows && len(ref.RowRange.Rows) > 0 {
		start, end := ref.RowRange.Rows[0][0], ref.RowRange.Rows[0][1]
		for _, seg := range ref.RowRange.Rows[1:] {
			if seg[0] < start {
				start = seg[0]
			}
			if seg[1] > end {
				end = seg[1]
			}
		}
		full.Start.Row = CellRefCoord{Coord: start}
		full.End.Row = CellRefCoord{Coord: end}
	}
	return full
}

// TableExists reports whether name has any entry (defined or not) —
// mirrors teacher's NamedRangeTable.Contains.
func (c *A1Context) TableExists(name string) bool {
	_, ok := c.byFold[fold(name)]
	return ok
}

// ListDefinedTables returns every currently-defined table name.
func (c *A1Context) ListDefinedTables() []string {
	out := make([]string, 0, len(c.byFold))
	for _, e := range c.byFold {
		if e.defined {
			out = append(out, e.name)
		}
	}
	return out
}
