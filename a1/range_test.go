package a1

import "testing"

func rect(x1, y1, x2, y2 int64) Rect {
	return Rect{Min: Pos{X: x1, Y: y1}, Max: Pos{X: x2, Y: y2}}
}

func sheetRange(x1, y1, x2, y2 int64) RefRangeBounds {
	return RefRangeBounds{Start: NewRelativeEnd(x1, y1), End: NewRelativeEnd(x2, y2)}
}

func assertSheetRange(t *testing.T, got CellRefRange, want RefRangeBounds) {
	t.Helper()
	if got.Kind != CellRefRangeSheet {
		t.Fatalf("expected a Sheet range, got kind %d", got.Kind)
	}
	if got.Sheet != want {
		t.Fatalf("got %+v want %+v", got.Sheet, want)
	}
}

// TestFindExcludedRectsDonut is spec §8 scenario 1 / concrete scenario 1:
// "Find excluded — full donut."
func TestFindExcludedRectsDonut(t *testing.T) {
	got := FindExcludedRects(sheetRange(1, 1, 6, 6), rect(2, 2, 4, 4))
	if len(got) != 4 {
		t.Fatalf("expected exactly 4 rectangles, got %d: %+v", len(got), got)
	}
	assertSheetRange(t, got[0], sheetRange(1, 1, 6, 1)) // top
	assertSheetRange(t, got[1], sheetRange(1, 5, 6, 6)) // bottom
	assertSheetRange(t, got[2], sheetRange(1, 2, 1, 4)) // left
	assertSheetRange(t, got[3], sheetRange(5, 2, 6, 4)) // right
}

// TestFindExcludedRectsCutOfAll is spec §8 concrete scenario 2.
func TestFindExcludedRectsCutOfAll(t *testing.T) {
	got := FindExcludedRects(All(), rect(2, 2, 4, 4))
	if len(got) != 4 {
		t.Fatalf("expected 4 rectangles, got %d: %+v", len(got), got)
	}
	assertSheetRange(t, got[0], sheetRange(1, 1, Unbounded, 1))         // top = row 1
	assertSheetRange(t, got[1], sheetRange(1, 5, Unbounded, Unbounded)) // bottom = rows 5..inf
	assertSheetRange(t, got[2], sheetRange(1, 2, 1, 4))                 // left = A2:A4
	assertSheetRange(t, got[3], sheetRange(5, 2, Unbounded, 4))         // right = E2:inf,4
}

// TestFindExcludedRectsTopLeftCorner matches spec §8's boundary case:
// excluding from the top-left corner of an ALL range leaves only Bottom
// and Right.
func TestFindExcludedRectsTopLeftCorner(t *testing.T) {
	got := FindExcludedRects(All(), rect(1, 1, 4, 4))
	if len(got) != 2 {
		t.Fatalf("expected 2 rectangles (bottom, right), got %d: %+v", len(got), got)
	}
	assertSheetRange(t, got[0], sheetRange(1, 5, Unbounded, Unbounded))
	assertSheetRange(t, got[1], sheetRange(5, 1, Unbounded, 4))
}

// TestFindExcludedRectsDisjoint: E and R disjoint returns [R] unchanged.
func TestFindExcludedRectsDisjoint(t *testing.T) {
	got := FindExcludedRects(sheetRange(1, 1, 3, 3), rect(10, 10, 12, 12))
	if len(got) != 1 {
		t.Fatalf("expected 1 rectangle, got %d", len(got))
	}
	assertSheetRange(t, got[0], sheetRange(1, 1, 3, 3))
}

// TestFindExcludedRectsInfiniteColumn: excluding a cell from an infinite
// column C yields [C1:C{k-1}, C{k+1}:C-infinity].
func TestFindExcludedRectsInfiniteColumn(t *testing.T) {
	got := FindExcludedRects(EntireColumn(3), rect(3, 5, 3, 5))
	if len(got) != 2 {
		t.Fatalf("expected 2 rectangles, got %d: %+v", len(got), got)
	}
	assertSheetRange(t, got[0], sheetRange(3, 1, 3, 4))
	assertSheetRange(t, got[1], sheetRange(3, 6, 3, Unbounded))
}

func TestNormalizeInPlaceIdempotent(t *testing.T) {
	r := RefRangeBounds{Start: NewRelativeEnd(5, 5), End: NewRelativeEnd(1, 1)}
	r.NormalizeInPlace()
	once := r
	r.NormalizeInPlace()
	if r != once {
		t.Fatalf("normalize is not idempotent: %+v vs %+v", once, r)
	}
	if r.Start.Col.Coord != 1 || r.End.Col.Coord != 5 {
		t.Fatalf("expected start <= end after normalize, got %+v", r)
	}
}
