package grid

import (
	"testing"

	"github.com/gridkernel/sheetcore/a1"
)

func ptr[V any](v V) *V { return &v }

func TestSheetFormattingLayering(t *testing.T) {
	sf := NewSheetFormatting()
	sf.SheetWide = Format{Bold: ptr(true)}
	sf.SetFormatColumn(2, FormatUpdate{Italic: setField(true)})
	sf.SetFormatRow(3, FormatUpdate{TextColor: setField("red")})
	rev := sf.SetFormat(a1.SingleCell(a1.Pos{X: 2, Y: 3}), FormatUpdate{Bold: setField(false)})

	got := sf.At(a1.Pos{X: 2, Y: 3})
	if got.Bold == nil || *got.Bold != false {
		t.Fatalf("cell-level Bold should win over sheet-wide, got %+v", got)
	}
	if got.Italic == nil || !*got.Italic {
		t.Fatalf("column-level Italic should apply, got %+v", got)
	}
	if got.TextColor == nil || *got.TextColor != "red" {
		t.Fatalf("row-level TextColor should apply, got %+v", got)
	}

	// a cell outside column 2 / row 3 only sees the sheet-wide layer.
	other := sf.At(a1.Pos{X: 5, Y: 5})
	if other.Bold == nil || !*other.Bold {
		t.Fatalf("sheet-wide layer should still apply elsewhere, got %+v", other)
	}
	if other.Italic != nil || other.TextColor != nil {
		t.Fatalf("column/row layers should not leak to unrelated cells, got %+v", other)
	}

	if len(rev) != 1 {
		t.Fatalf("expected one reverse entry, got %d", len(rev))
	}
}

func TestFormatUpdateIdentityIsNoOp(t *testing.T) {
	sf := NewSheetFormatting()
	rev := sf.SetFormat(a1.SingleCell(a1.Pos{X: 1, Y: 1}), FormatUpdate{})
	if rev != nil {
		t.Fatalf("identity update must return no reverse entries, got %+v", rev)
	}
}

func TestNeedsToClearCellFormatForParentShadowsCellLayer(t *testing.T) {
	sf := NewSheetFormatting()
	sf.SetFormat(a1.SingleCell(a1.Pos{X: 2, Y: 2}), FormatUpdate{Bold: setField(true)})
	sf.SetFormatColumn(2, FormatUpdate{Bold: setField(false)})

	got := sf.At(a1.Pos{X: 2, Y: 2})
	if got.Bold == nil || *got.Bold {
		t.Fatalf("column format should now win since the cell-level Bold was cleared, got %+v", got)
	}
}
