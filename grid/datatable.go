package grid

// DataTableKind tags whether a DataTable is a code-run output or an
// imported static table — spec §3 "kind."
type DataTableKind int

const (
	DataTableKindCodeRun DataTableKind = iota
	DataTableKindImport
)

// CodeRun carries the state of an evaluated code cell that produced a
// DataTable-shaped (not 1x1 scalar) result — spec §3.
type CodeRun struct {
	Language     string // "Formula", "Python", "Javascript", ...
	Code         string
	CellsAccessed []SheetCellRef
	Error        *SpreadsheetError
	ReturnType   CellType
}

// SheetCellRef is a cell reference recorded for dependency tracking —
// a lightweight stand-in for engine.CellRef that grid does not need to
// import (grid is lower in the dependency chain than engine).
type SheetCellRef struct {
	SheetID string
	X, Y    int64
}

// Import carries the provenance of an imported static table — spec §3.
type Import struct {
	FileName string
}

// DataTableValueKind tags the shape of a DataTable's computed value.
type DataTableValueKind int

const (
	DataTableValueSingle DataTableValueKind = iota
	DataTableValueArray
	DataTableValueTuple
)

// DataTableValue is the Single | Array | Tuple union — spec §3 "value."
type DataTableValue struct {
	Kind   DataTableValueKind
	Single CellValue
	Array  [][]CellValue // row-major
	Tuple  []CellValue
}

// SortDirection is a column's sort direction — spec §3 "sort."
type SortDirection int

const (
	SortNone SortDirection = iota
	SortAscending
	SortDescending
)

// SortSpec is one entry of a DataTable's sort order.
type SortSpec struct {
	ColumnIndex int
	Direction   SortDirection
}

// ColumnHeader describes one display column of a DataTable — spec §3.
// ValueIndex is the permutation from display column to underlying data
// column, supporting column reordering and hiding via Display.
type ColumnHeader struct {
	Name       CellValue
	Display    bool
	ValueIndex uint32
}

// ChartOutput records a chart-shaped DataTable's rendered footprint, in
// cells — spec §3 "chart_output."
type ChartOutput struct {
	Width, Height int
}

// DataTable is a grid object anchored at one Pos that produces (or
// imports) an array of values spilling across a rectangular footprint
// — spec §3/§4.6. Grounded on the teacher's formula.go evaluation
// result shape, generalized from a single CellValue result to the full
// DataTable surface (columns, sort, chart) spec §3 requires — none of
// which the teacher's formula engine models, since it evaluates scalar
// formulas only.
type DataTable struct {
	Kind DataTableKind
	Code CodeRun // valid iff Kind == DataTableKindCodeRun
	Imp  Import  // valid iff Kind == DataTableKindImport

	Name string

	Value DataTableValue

	HeaderIsFirstRow bool
	ShowName         *bool
	ShowColumns      *bool
	Columns          []ColumnHeader

	Sort          []SortSpec
	SortDirty     bool
	DisplayBuffer []int // row permutation materializing Sort

	ChartOutput *ChartOutput

	Formats *SheetFormatting
	Borders *Borders
}

// NewDataTable builds an empty DataTable of the given kind.
func NewDataTable(kind DataTableKind, name string) *DataTable {
	return &DataTable{
		Kind:    kind,
		Name:    name,
		Formats: NewSheetFormatting(),
		Borders: NewBorders(),
	}
}

// rowCount and colCount report the DataTable's underlying data shape,
// ignoring UI bands (header/name rows) — used by OutputRect.
func (d *DataTable) rowCount() int {
	switch d.Value.Kind {
	case DataTableValueArray:
		return len(d.Value.Array)
	case DataTableValueSingle, DataTableValueTuple:
		return 1
	}
	return 0
}

func (d *DataTable) colCount() int {
	switch d.Value.Kind {
	case DataTableValueArray:
		if len(d.Value.Array) == 0 {
			return 0
		}
		return len(d.Value.Array[0])
	case DataTableValueTuple:
		return len(d.Value.Tuple)
	case DataTableValueSingle:
		return 1
	}
	return 0
}

// OutputRect returns the table's footprint in cells anchored at anchor,
// including the name/column UI bands when shown — spec §3 "Invariants:
// output_rect(anchor) depends on value shape and on show_name/
// show_columns UI bands."
func (d *DataTable) OutputRect(anchorX, anchorY int64) (width, height int64) {
	w, h := int64(d.colCount()), int64(d.rowCount())
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	if d.ShowName != nil && *d.ShowName {
		h++
	}
	if d.ShowColumns != nil && *d.ShowColumns {
		h++
	}
	if d.ChartOutput != nil {
		w, h = int64(d.ChartOutput.Width), int64(d.ChartOutput.Height)
	}
	return w, h
}

// IsFoldableScalarCode reports whether this table can collapse into a
// plain CellTypeCode cell (spec §4.6: "If kind == CodeRun and output is
// 1x1 with no UI bands and not an error/html/image, the table may be
// represented as a plain CellValue::Code in the column map").
func (d *DataTable) IsFoldableScalarCode() bool {
	if d.Kind != DataTableKindCodeRun {
		return false
	}
	if d.Code.Error != nil {
		return false
	}
	if d.ChartOutput != nil {
		return false
	}
	if d.ShowName != nil && *d.ShowName {
		return false
	}
	if d.ShowColumns != nil && *d.ShowColumns {
		return false
	}
	return d.rowCount() == 1 && d.colCount() == 1
}

// DeleteColumnSorted removes display column k, remapping the
// ValueIndex permutation, and marks SortDirty if k was a sort key —
// spec §4.6 "dt.delete_column_sorted(k) ... if the deleted underlying
// column is currently a sort key, set sort_dirty = true."
func (d *DataTable) DeleteColumnSorted(k int) {
	if k < 0 || k >= len(d.Columns) {
		return
	}
	removedIdx := d.Columns[k].ValueIndex
	d.Columns = append(d.Columns[:k], d.Columns[k+1:]...)
	for i := range d.Columns {
		if d.Columns[i].ValueIndex > removedIdx {
			d.Columns[i].ValueIndex--
		}
	}
	next := d.Sort[:0]
	for _, s := range d.Sort {
		if s.ColumnIndex == k {
			d.SortDirty = true
			continue
		}
		if s.ColumnIndex > k {
			s.ColumnIndex--
		}
		next = append(next, s)
	}
	d.Sort = next
}
