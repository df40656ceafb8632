package grid

import (
	"sort"
	"strings"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/blocks"
)

// ValidationRule is the kind of constraint a Validation checks — a
// generalization of the teacher's single numeric-range check in
// sheet.go into the enumerable set spec §3 names in passing.
type ValidationRule int

const (
	ValidationNone ValidationRule = iota
	ValidationNumberRange
	ValidationList
	ValidationTextLength
	ValidationCustomFormula
)

// Validation binds a rule to a selection — spec §3 "validations: list
// of Validation records, each bound to an A1Selection."
type Validation struct {
	ID        string
	Selection a1.A1Selection
	Rule      ValidationRule
	Min, Max  float64
	Options   []string
	Formula   string
	Message   string
}

// ConditionKind tags a ConditionalFormatRule's test — [SUPPLEMENT],
// grounded on original_source's conditional-formatting Condition enum
// (quadratic-core/src/grid/sheet/validations in spirit; no exact file
// survived distillation into spec.md, so the rule shape here is the
// minimal one the UI layer needs to evaluate a highlight).
type ConditionKind int

const (
	ConditionTextContains ConditionKind = iota
	ConditionNumberGreaterThan
	ConditionNumberLessThan
	ConditionIsBlank
	ConditionIsNotBlank
	ConditionCustomFormula
)

// ConditionalFormatRule is one entry of Sheet.ConditionalFormats —
// [SUPPLEMENT] to spec §3's persisted-field list (SPEC_FULL §3).
type ConditionalFormatRule struct {
	Selection a1.A1Selection
	Condition ConditionKind
	Operand   CellValue
	Style     FormatUpdate
}

// Sheet is the per-worksheet aggregate — spec §3. Columns and DataTables
// are both sparse/ordered; Formats, Borders, and Offsets are the layered
// stores of §4.2/§4.3.
type Sheet struct {
	ID   a1.SheetID
	Name string

	columns    map[int64]*Column
	dataTables *orderedDataTables

	Formats *SheetFormatting
	Borders *Borders

	ColumnOffsets *blocks.OffsetMap
	RowOffsets    *blocks.OffsetMap

	Validations []Validation
	Warnings    map[a1.Pos]string // pos -> validation ID

	MergeCells []a1.Rect

	ConditionalFormats []ConditionalFormatRule
}

// NewSheet builds an empty sheet.
func NewSheet(id a1.SheetID, name string) *Sheet {
	return &Sheet{
		ID:            id,
		Name:          name,
		columns:       make(map[int64]*Column),
		dataTables:    newOrderedDataTables(),
		Formats:       NewSheetFormatting(),
		Borders:       NewBorders(),
		ColumnOffsets: blocks.NewOffsetMap(blocks.DefaultColumnWidth),
		RowOffsets:    blocks.NewOffsetMap(blocks.DefaultRowHeight),
		Warnings:      make(map[a1.Pos]string),
	}
}

// column returns the Column at x, allocating it if create is set and it
// doesn't yet exist.
func (s *Sheet) column(x int64, create bool) *Column {
	c, ok := s.columns[x]
	if !ok && create {
		c = NewColumn()
		s.columns[x] = c
	}
	return c
}

// CellValueAt returns the value at p, or empty if the column is absent.
func (s *Sheet) CellValueAt(p a1.Pos) CellValue {
	c := s.column(p.X, false)
	if c == nil {
		return CellValue{Type: CellTypeEmpty}
	}
	return c.Get(p.Y)
}

// SetCellValue stores v at p, returning the prior value. An empty
// column is dropped once its last value is cleared, so absent columns
// remain the implicit-empty representation spec §3 requires.
func (s *Sheet) SetCellValue(p a1.Pos, v CellValue) CellValue {
	c := s.column(p.X, !v.IsEmpty())
	if c == nil {
		return CellValue{Type: CellTypeEmpty}
	}
	old := c.Set(p.Y, v)
	if c.IsEmpty() {
		delete(s.columns, p.X)
	}
	return old
}

// DataTableAt returns the table anchored exactly at p, if any.
func (s *Sheet) DataTableAt(p a1.Pos) (*DataTable, bool) {
	return s.dataTables.get(p)
}

// SetDataTable inserts or replaces the table anchored at p, preserving
// insertion order on first insert (spec §3: "Ordering is insertion
// order and is load-bearing for overlay precedence").
func (s *Sheet) SetDataTable(p a1.Pos, dt *DataTable) (prior *DataTable, hadPrior bool) {
	return s.dataTables.set(p, dt)
}

// RemoveDataTable deletes the table anchored at p, if present.
func (s *Sheet) RemoveDataTable(p a1.Pos) (*DataTable, bool) {
	return s.dataTables.remove(p)
}

// DataTablesInOrder returns every (anchor, table) pair in insertion
// order — spec §3.
func (s *Sheet) DataTablesInOrder() []a1.Pos {
	return s.dataTables.orderedAnchors()
}

// orderedDataTables is an insertion-ordered map from anchor to
// *DataTable — spec §3's "ordered map from anchor Pos to a DataTable."
// Go maps have no order, so we pair one with an explicit key slice,
// following the teacher's own pattern in graph.go for deterministic
// adjacency iteration.
type orderedDataTables struct {
	byAnchor map[a1.Pos]*DataTable
	order    []a1.Pos
}

func newOrderedDataTables() *orderedDataTables {
	return &orderedDataTables{byAnchor: make(map[a1.Pos]*DataTable)}
}

func (o *orderedDataTables) get(p a1.Pos) (*DataTable, bool) {
	dt, ok := o.byAnchor[p]
	return dt, ok
}

func (o *orderedDataTables) set(p a1.Pos, dt *DataTable) (*DataTable, bool) {
	prior, hadPrior := o.byAnchor[p]
	if !hadPrior {
		o.order = append(o.order, p)
	}
	o.byAnchor[p] = dt
	return prior, hadPrior
}

func (o *orderedDataTables) remove(p a1.Pos) (*DataTable, bool) {
	prior, ok := o.byAnchor[p]
	if !ok {
		return nil, false
	}
	delete(o.byAnchor, p)
	for i, q := range o.order {
		if q == p {
			o.order = append(o.order[:i], o.order[i+1:]...)
			break
		}
	}
	return prior, true
}

func (o *orderedDataTables) orderedAnchors() []a1.Pos {
	out := make([]a1.Pos, len(o.order))
	copy(out, o.order)
	return out
}

// rekeyAnchor moves a table's ordered-map slot from old to new anchor,
// preserving its position in insertion order — spec §4.6 "The table's
// slot in the ordered data_tables map is removed and re-inserted at the
// new anchor, preserving its index."
func (o *orderedDataTables) rekeyAnchor(old, new a1.Pos) {
	dt, ok := o.byAnchor[old]
	if !ok {
		return
	}
	delete(o.byAnchor, old)
	o.byAnchor[new] = dt
	for i, q := range o.order {
		if q == old {
			o.order[i] = new
			break
		}
	}
}

// DeleteColumnResult reports what a DeleteColumn call did, so the
// engine layer can synthesize reverse operations — spec §4.6 step 1-2.
type DeleteColumnResult struct {
	RemovedValues      map[int64]CellValue // row -> value, for column c
	RemovedDataTables  map[a1.Pos]*DataTable
	ResizedCharts      map[a1.Pos]int // anchor -> prior chart width
	ShiftedResizes     []blocks.Resize
	DroppedValidations []Validation
	// BorderRuns is column c's border state just before it was wiped by
	// Borders.RemoveColumn, keyed by the exported BorderSide* constants —
	// spec §4.6 step 2 "borders.get_column_ops(c)", consumed by the
	// engine to synthesize reverse SetBordersSelection ops.
	BorderRuns map[int][]blocks.Block[*BorderStyleTimestamp]
}

// DeleteColumn removes column c, shifts every later column left by one,
// and applies the DataTable interaction rules of spec §4.6.
func (s *Sheet) DeleteColumn(c int64) DeleteColumnResult {
	result := DeleteColumnResult{
		RemovedValues:     make(map[int64]CellValue),
		RemovedDataTables: make(map[a1.Pos]*DataTable),
		ResizedCharts:     make(map[a1.Pos]int),
	}

	if col, ok := s.columns[c]; ok {
		for row, v := range col.Values {
			result.RemovedValues[row] = v
		}
	}

	for _, anchor := range s.dataTables.orderedAnchors() {
		dt, _ := s.dataTables.get(anchor)
		w, _ := dt.OutputRect(anchor.X, anchor.Y)
		span := a1.Rect{Min: anchor, Max: a1.Pos{X: anchor.X + w - 1, Y: anchor.Y}}

		switch {
		case dt.Kind == DataTableKindCodeRun && anchor.X == c,
			span.Min.X >= c && span.Max.X <= c:
			result.RemovedDataTables[anchor] = dt
			s.dataTables.remove(anchor)

		case dt.ChartOutput != nil && span.Min.X <= c && c <= span.Max.X:
			result.ResizedCharts[anchor] = dt.ChartOutput.Width
			dt.ChartOutput.Width--
			if dt.ChartOutput.Width < 1 {
				dt.ChartOutput.Width = 1
			}

		case span.Min.X <= c && c <= span.Max.X:
			k := int(c - span.Min.X)
			dt.DeleteColumnSorted(k)

		case anchor.X > c:
			s.dataTables.rekeyAnchor(anchor, a1.Pos{X: anchor.X - 1, Y: anchor.Y})
		}
	}

	delete(s.columns, c)
	shiftKeys := make([]int64, 0, len(s.columns))
	for x := range s.columns {
		if x > c {
			shiftKeys = append(shiftKeys, x)
		}
	}
	sort.Sort(int64Slice(shiftKeys))
	for _, x := range shiftKeys {
		s.columns[x-1] = s.columns[x]
		delete(s.columns, x)
	}

	borderOps := s.Borders.GetColumnOps(c)
	result.BorderRuns = make(map[int][]blocks.Block[*BorderStyleTimestamp], len(borderOps))
	for side, runs := range borderOps {
		result.BorderRuns[int(side)] = runs
	}
	s.Borders.RemoveColumn(c)
	resizes, _ := s.ColumnOffsets.DeleteColumn(c)
	result.ShiftedResizes = resizes
	s.Formats.ShiftColumnDelete(c)

	kept := s.Validations[:0]
	for _, v := range s.Validations {
		shifted := v
		shifted.Selection = shiftSelectionForColumnDelete(v.Selection, c)
		if len(shifted.Selection.Ranges) == 0 {
			result.DroppedValidations = append(result.DroppedValidations, v)
			continue
		}
		kept = append(kept, shifted)
	}
	s.Validations = kept

	return result
}

// shiftSelectionForColumnDelete applies DeleteColumn's effect on the
// addressable grid to a Validation's selection: column c is cut out of
// every Sheet-kind range (via the same FindExcludedRects disjoint-
// rectangle split a1.A1Selection.ExcludeCells uses), and every
// surviving range at or past c is shifted left by one — spec §4.6 step
// 8 "rules that now have an empty selection are dropped." Table-kind
// ranges pass through untouched: resolving them needs the A1Context the
// engine layer owns, not anything grid has access to.
func shiftSelectionForColumnDelete(sel a1.A1Selection, c int64) a1.A1Selection {
	exclude := a1.Rect{Min: a1.Pos{X: c, Y: 1}, Max: a1.Pos{X: c, Y: a1.Unbounded}}

	var out []a1.CellRefRange
	for _, rng := range sel.Ranges {
		if rng.Kind != a1.CellRefRangeSheet {
			out = append(out, rng)
			continue
		}
		bounds := rng.Sheet
		bounds.NormalizeInPlace()
		if !bounds.MightIntersectRect(exclude) {
			out = append(out, shiftRangeLeftOfColumn(rng, c))
			continue
		}
		for _, remainder := range a1.FindExcludedRects(bounds, exclude) {
			out = append(out, shiftRangeLeftOfColumn(remainder, c))
		}
	}
	sel.Ranges = out

	if last := len(sel.Ranges) - 1; last >= 0 && !sel.ContainsPos(sel.Cursor, nil) {
		start := sel.Ranges[last].Sheet.Start
		sel.Cursor = a1.Pos{X: start.Col.Coord, Y: start.Row.Coord}
	}
	return sel
}

// shiftRangeLeftOfColumn shifts a Sheet-kind range's finite column
// endpoints left by one wherever they sit past c, leaving Unbounded ends
// alone.
func shiftRangeLeftOfColumn(rng a1.CellRefRange, c int64) a1.CellRefRange {
	if rng.Kind != a1.CellRefRangeSheet {
		return rng
	}
	shiftEnd := func(e a1.CellRefRangeEnd) a1.CellRefRangeEnd {
		if e.Col.Coord != a1.Unbounded && e.Col.Coord > c {
			e.Col.Coord--
		}
		return e
	}
	rng.Sheet.Start = shiftEnd(rng.Sheet.Start)
	rng.Sheet.End = shiftEnd(rng.Sheet.End)
	return rng
}

// InsertColumn inserts a new empty column at c, shifting every column at
// or after c right by one, and optionally copying formats from the
// neighboring column — spec §4.6.
type CopyFormats int

const (
	CopyFormatsNone CopyFormats = iota
	CopyFormatsBefore
	CopyFormatsAfter
)

func (s *Sheet) InsertColumn(c int64, copyFormats CopyFormats) {
	keys := make([]int64, 0, len(s.columns))
	for x := range s.columns {
		if x >= c {
			keys = append(keys, x)
		}
	}
	sort.Sort(sort.Reverse(int64Slice(keys)))
	for _, x := range keys {
		s.columns[x+1] = s.columns[x]
		delete(s.columns, x)
	}

	for _, anchor := range s.dataTables.orderedAnchors() {
		if anchor.X >= c {
			s.dataTables.rekeyAnchor(anchor, a1.Pos{X: anchor.X + 1, Y: anchor.Y})
		}
	}

	s.Borders.InsertColumn(c)
	s.ColumnOffsets.InsertColumn(c)
	s.Formats.ShiftColumnInsert(c)

	switch copyFormats {
	case CopyFormatsAfter:
		if fmtAt, ok := s.Formats.cols.Get(c + 1); ok {
			s.Formats.cols.Set(c, fmtAt)
		}
	case CopyFormatsBefore:
		if c > 1 {
			if fmtAt, ok := s.Formats.cols.Get(c - 1); ok {
				s.Formats.cols.Set(c, fmtAt)
			}
		}
	}
}

// DeleteRowResult mirrors DeleteColumnResult for the row axis.
type DeleteRowResult struct {
	RemovedValues      map[int64]CellValue // column -> value, for row r
	ShiftedResizes     []blocks.Resize
	DroppedValidations []Validation
	// BorderRuns is row r's border state just before it was wiped by
	// Borders.RemoveRow, keyed by the exported BorderSide* constants —
	// the row-axis twin of DeleteColumnResult.BorderRuns.
	BorderRuns map[int][]blocks.Block[*BorderStyleTimestamp]
}

// DeleteRow removes row r, shifting every later row up by one within every
// column's sparse Values map, and the row-keyed stores — spec §4.6's
// column rule applied to the row axis (no DataTable anchors move on the Y
// axis in the distilled spec; original_source's table-row interactions
// beyond that are out of scope here).
func (s *Sheet) DeleteRow(r int64) DeleteRowResult {
	result := DeleteRowResult{RemovedValues: make(map[int64]CellValue)}

	for x, col := range s.columns {
		if v, ok := col.Values[r]; ok {
			result.RemovedValues[x] = v
		}
		shiftKeys := make([]int64, 0)
		for y := range col.Values {
			if y > r {
				shiftKeys = append(shiftKeys, y)
			}
		}
		sort.Sort(int64Slice(shiftKeys))
		delete(col.Values, r)
		for _, y := range shiftKeys {
			col.Values[y-1] = col.Values[y]
			delete(col.Values, y)
		}
	}

	for _, anchor := range s.dataTables.orderedAnchors() {
		if anchor.Y > r {
			s.dataTables.rekeyAnchor(anchor, a1.Pos{X: anchor.X, Y: anchor.Y - 1})
		}
	}

	borderOps := s.Borders.GetRowOps(r)
	result.BorderRuns = make(map[int][]blocks.Block[*BorderStyleTimestamp], len(borderOps))
	for side, runs := range borderOps {
		result.BorderRuns[int(side)] = runs
	}
	s.Borders.RemoveRow(r)
	resizes, _ := s.RowOffsets.DeleteColumn(r)
	result.ShiftedResizes = resizes
	s.Formats.ShiftRowDelete(r)

	kept := s.Validations[:0]
	for _, v := range s.Validations {
		shifted := v
		shifted.Selection = shiftSelectionForRowDelete(v.Selection, r)
		if len(shifted.Selection.Ranges) == 0 {
			result.DroppedValidations = append(result.DroppedValidations, v)
			continue
		}
		kept = append(kept, shifted)
	}
	s.Validations = kept

	return result
}

// shiftSelectionForRowDelete is shiftSelectionForColumnDelete's row-axis
// twin — row r is cut out of every Sheet-kind range, and every surviving
// range at or past r is shifted up by one.
func shiftSelectionForRowDelete(sel a1.A1Selection, r int64) a1.A1Selection {
	exclude := a1.Rect{Min: a1.Pos{X: 1, Y: r}, Max: a1.Pos{X: a1.Unbounded, Y: r}}

	var out []a1.CellRefRange
	for _, rng := range sel.Ranges {
		if rng.Kind != a1.CellRefRangeSheet {
			out = append(out, rng)
			continue
		}
		bounds := rng.Sheet
		bounds.NormalizeInPlace()
		if !bounds.MightIntersectRect(exclude) {
			out = append(out, shiftRangeUpOfRow(rng, r))
			continue
		}
		for _, remainder := range a1.FindExcludedRects(bounds, exclude) {
			out = append(out, shiftRangeUpOfRow(remainder, r))
		}
	}
	sel.Ranges = out

	if last := len(sel.Ranges) - 1; last >= 0 && !sel.ContainsPos(sel.Cursor, nil) {
		start := sel.Ranges[last].Sheet.Start
		sel.Cursor = a1.Pos{X: start.Col.Coord, Y: start.Row.Coord}
	}
	return sel
}

// shiftRangeUpOfRow shifts a Sheet-kind range's finite row endpoints up by
// one wherever they sit past r, leaving Unbounded ends alone.
func shiftRangeUpOfRow(rng a1.CellRefRange, r int64) a1.CellRefRange {
	if rng.Kind != a1.CellRefRangeSheet {
		return rng
	}
	shiftEnd := func(e a1.CellRefRangeEnd) a1.CellRefRangeEnd {
		if e.Row.Coord != a1.Unbounded && e.Row.Coord > r {
			e.Row.Coord--
		}
		return e
	}
	rng.Sheet.Start = shiftEnd(rng.Sheet.Start)
	rng.Sheet.End = shiftEnd(rng.Sheet.End)
	return rng
}

// InsertRow inserts a new empty row at r, shifting every row at or after r
// down by one — the row-axis twin of InsertColumn.
func (s *Sheet) InsertRow(r int64, copyFormats CopyFormats) {
	for _, col := range s.columns {
		keys := make([]int64, 0)
		for y := range col.Values {
			if y >= r {
				keys = append(keys, y)
			}
		}
		sort.Sort(sort.Reverse(int64Slice(keys)))
		for _, y := range keys {
			col.Values[y+1] = col.Values[y]
			delete(col.Values, y)
		}
	}

	for _, anchor := range s.dataTables.orderedAnchors() {
		if anchor.Y >= r {
			s.dataTables.rekeyAnchor(anchor, a1.Pos{X: anchor.X, Y: anchor.Y + 1})
		}
	}

	s.Borders.InsertRow(r)
	s.RowOffsets.InsertColumn(r)
	s.Formats.ShiftRowInsert(r)

	switch copyFormats {
	case CopyFormatsAfter:
		if fmtAt, ok := s.Formats.rows.Get(r + 1); ok {
			s.Formats.rows.Set(r, fmtAt)
		}
	case CopyFormatsBefore:
		if r > 1 {
			if fmtAt, ok := s.Formats.rows.Get(r - 1); ok {
				s.Formats.rows.Set(r, fmtAt)
			}
		}
	}
}

type int64Slice []int64

func (s int64Slice) Len() int           { return len(s) }
func (s int64Slice) Less(i, j int) bool { return s[i] < s[j] }
func (s int64Slice) Swap(i, j int)      { s[i], s[j] = s[j], s[i] }

// ApplicableFormat layers any matching ConditionalFormatRule's style on
// top of the normal §4.3 layered format — [SUPPLEMENT], spec §3's
// additional ConditionalFormats field. Every matching rule is applied in
// list order, so where two matching rules set the same field the later
// rule wins.
func (s *Sheet) ApplicableFormat(p a1.Pos, ctx a1.TableResolver) Format {
	base := s.Formats.At(p)
	for _, rule := range s.ConditionalFormats {
		if !rule.Selection.ContainsPos(p, ctx) {
			continue
		}
		if !evaluateCondition(rule.Condition, rule.Operand, s.CellValueAt(p)) {
			continue
		}
		base, _ = rule.Style.apply(base)
	}
	return base
}

func evaluateCondition(kind ConditionKind, operand, actual CellValue) bool {
	switch kind {
	case ConditionIsBlank:
		return actual.IsEmpty()
	case ConditionIsNotBlank:
		return !actual.IsEmpty()
	case ConditionTextContains:
		as, aok := actual.Value.(string)
		os, ook := operand.Value.(string)
		return aok && ook && containsFold(as, os)
	case ConditionNumberGreaterThan:
		av, aok := actual.Value.(float64)
		ov, ook := operand.Value.(float64)
		return aok && ook && av > ov
	case ConditionNumberLessThan:
		av, aok := actual.Value.(float64)
		ov, ook := operand.Value.(float64)
		return aok && ook && av < ov
	case ConditionCustomFormula:
		// Custom-formula conditions are evaluated by the formula layer
		// (out of grid's scope); grid reports false until wired by the
		// engine, which has access to formulaeval.
		return false
	}
	return false
}

// containsFold is a case-insensitive substring test for
// ConditionTextContains. A trivial string op like this has no pack
// library fit beyond what strings already gives for free — **STD**.
func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
