// Package fileformat chains pure version-to-version upgrade functions
// over a persisted document, the way the original engine's v1_7 and
// v1_12 upgrade modules do — spec §6 "not specified further," grounded
// on original_source/quadratic-core/src/grid/file/{v1_7,v1_12}/upgrade.rs.
package fileformat

import (
	"fmt"

	"github.com/gridkernel/sheetcore/grid"
)

// Document is the on-disk unit fileformat upgrades operate over: a
// version tag plus every sheet keyed by name.
type Document struct {
	Version int
	Sheets  map[string]*grid.Sheet
}

// CurrentVersion is the version new documents are created at and the
// fixed point upgrades converge to.
const CurrentVersion = 3

// upgradeFunc takes a document at version v and returns the equivalent
// document at version v+1.
type upgradeFunc func(*Document) (*Document, error)

var chain = map[int]upgradeFunc{
	1: upgradeV1ToV2,
	2: upgradeV2ToV3,
}

// Upgrade repeatedly applies chain[doc.Version] until doc.Version reaches
// CurrentVersion — spec §6's "pure function v(n)→v(n+1), chained at
// load" shape.
func Upgrade(doc *Document) (*Document, error) {
	for doc.Version < CurrentVersion {
		step, ok := chain[doc.Version]
		if !ok {
			return nil, fmt.Errorf("fileformat: no upgrade path from version %d", doc.Version)
		}
		next, err := step(doc)
		if err != nil {
			return nil, fmt.Errorf("fileformat: upgrading v%d -> v%d: %w", doc.Version, doc.Version+1, err)
		}
		doc = next
	}
	return doc, nil
}

// upgradeV1ToV2 folds every 1x1, UI-less CodeRun DataTable into a plain
// CellTypeCode cell in its anchor column — original_source's v1_12
// upgrade.rs::is_single_cell_code, applied here as the v1->v2 step since
// this engine's v1 predates the DataTable/cell split entirely.
func upgradeV1ToV2(doc *Document) (*Document, error) {
	for _, sheet := range doc.Sheets {
		for _, anchor := range sheet.DataTablesInOrder() {
			dt, ok := sheet.DataTableAt(anchor)
			if !ok || !dt.IsFoldableScalarCode() {
				continue
			}
			sheet.RemoveDataTable(anchor)
			sheet.SetCellValue(anchor, grid.CellValue{
				Type:    grid.CellTypeCode,
				RunLang: dt.Code.Language,
				Formula: dt.Code.Code,
				Code:    dt.Code.Code,
				Value:   foldedOutputValue(dt),
			})
		}
	}
	return &Document{Version: 2, Sheets: doc.Sheets}, nil
}

func foldedOutputValue(dt *grid.DataTable) any {
	if dt.Value.Kind == grid.DataTableValueArray && len(dt.Value.Array) == 1 && len(dt.Value.Array[0]) == 1 {
		return dt.Value.Array[0][0].Value
	}
	return dt.Value.Single.Value
}

// upgradeV2ToV3 introduces per-sheet ConditionalFormats — [SUPPLEMENT],
// a purely additive field with an empty default, matching the "add a
// field with a safe zero value" shape of most upgrade.rs steps that
// don't need to migrate existing data.
func upgradeV2ToV3(doc *Document) (*Document, error) {
	for _, sheet := range doc.Sheets {
		if sheet.ConditionalFormats == nil {
			sheet.ConditionalFormats = []grid.ConditionalFormatRule{}
		}
	}
	return &Document{Version: 3, Sheets: doc.Sheets}, nil
}
