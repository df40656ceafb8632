package formulaeval

import (
	"testing"

	"github.com/gridkernel/sheetcore/a1"
	"github.com/gridkernel/sheetcore/grid"
)

// TestEvaluateSimpleReference is spec §8 scenario 6's evaluator half:
// B1 = "=A1+1" with A1 = 10 evaluates to 11 and records A1 as accessed.
func TestEvaluateSimpleReference(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	sheet.SetCellValue(a1.Pos{X: 1, Y: 1}, grid.NumberValue(10))

	var accessed []a1.Pos
	ctx := NewCtx(sheet, a1.Pos{X: 2, Y: 1}, &accessed)

	got, err := Evaluate("A1+1", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Single.Value != 11.0 {
		t.Fatalf("got %+v", got.Single)
	}
	if len(accessed) != 1 || accessed[0] != (a1.Pos{X: 1, Y: 1}) {
		t.Fatalf("expected A1 recorded as accessed, got %+v", accessed)
	}
}

func TestEvaluateDivideByZero(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	var accessed []a1.Pos
	ctx := NewCtx(sheet, a1.Pos{X: 1, Y: 1}, &accessed)

	_, err := Evaluate("1/0", ctx)
	if err == nil || err.Kind != RunErrorDivideByZero {
		t.Fatalf("expected RunErrorDivideByZero, got %+v", err)
	}
}

func TestEvaluateOperatorPrecedence(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	var accessed []a1.Pos
	ctx := NewCtx(sheet, a1.Pos{X: 1, Y: 1}, &accessed)

	got, err := Evaluate("2+3*4", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Single.Value != 14.0 {
		t.Fatalf("got %+v", got.Single)
	}
}

func TestEvaluateCircularReference(t *testing.T) {
	sheet := grid.NewSheet("Sheet1", "Sheet1")
	var accessed []a1.Pos
	// A1's own evaluation references itself.
	ctx := NewCtx(sheet, a1.Pos{X: 1, Y: 1}, &accessed)

	_, err := Evaluate("A1+1", ctx)
	if err == nil || err.Kind != RunErrorCircularReference {
		t.Fatalf("expected RunErrorCircularReference, got %+v", err)
	}
}
