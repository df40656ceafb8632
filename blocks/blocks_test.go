package blocks

import "testing"

func TestNewIsSingleDefaultBlock(t *testing.T) {
	cb := New[uint8]()
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	bs := cb.Blocks()
	if len(bs) != 1 || bs[0].Start != 1 || bs[0].End != Max || bs[0].Value != 0 {
		t.Fatalf("expected single default block, got %+v", bs)
	}
}

// TestSetBlockRoundTrip is spec §8 scenario 5: apply set_block([3,7), 9)
// to a default uint8 structure, then apply the reverse, and check both
// states satisfy the invariants and the final state matches the origin.
func TestSetBlockRoundTrip(t *testing.T) {
	cb := New[uint8]()

	reverse := cb.SetBlock(3, 7, 9)
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants after SetBlock: %v", err)
	}
	bs := cb.Blocks()
	if len(bs) != 3 {
		t.Fatalf("expected 3 blocks, got %d: %+v", len(bs), bs)
	}
	want := []Block[uint8]{{1, 3, 0}, {3, 7, 9}, {7, Max, 0}}
	for i, b := range want {
		if bs[i] != b {
			t.Fatalf("block %d: got %+v want %+v", i, bs[i], b)
		}
	}

	// undo: reverse holds the blocks that were replaced — restore them.
	for _, r := range reverse {
		cb.SetBlock(r.Start, r.End, r.Value)
	}
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants after undo: %v", err)
	}
	bs = cb.Blocks()
	if len(bs) != 1 || bs[0] != (Block[uint8]{1, Max, 0}) {
		t.Fatalf("expected single default block after undo, got %+v", bs)
	}
}

func TestSetBlockNoOpOnInvertedRange(t *testing.T) {
	cb := New[int]()
	rev := cb.SetBlock(10, 5, 99)
	if rev != nil {
		t.Fatalf("expected no-op, got reverse %+v", rev)
	}
	if v, _ := cb.Get(10); v != 0 {
		t.Fatalf("expected untouched default, got %v", v)
	}
}

func TestSetClampsToOne(t *testing.T) {
	cb := New[int]()
	cb.Set(0, 42)
	v, ok := cb.Get(1)
	if !ok || v != 42 {
		t.Fatalf("expected write at 1 to take effect, got %v %v", v, ok)
	}
	if _, ok := cb.Get(0); ok {
		t.Fatalf("coordinate 0 must never resolve")
	}
}

func TestShiftInsertOnDefaultMapLeavesSingleNonDefaultBlock(t *testing.T) {
	cb := New[int]()
	cb.ShiftInsert(5, 8, 77)
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	bs := cb.Blocks()
	if len(bs) != 3 {
		t.Fatalf("expected 3 blocks (before/inserted/after), got %d: %+v", len(bs), bs)
	}
	if bs[1] != (Block[int]{5, 8, 77}) {
		t.Fatalf("expected inserted run [5,8)=77, got %+v", bs[1])
	}
}

func TestShiftInsertThenShiftRemoveRoundTrips(t *testing.T) {
	cb := New[int]()
	cb.Set(10, 123)
	cb.ShiftInsert(5, 9, 0)
	cb.ShiftRemove(5, 9)
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
	v, ok := cb.Get(10)
	if !ok || v != 123 {
		t.Fatalf("expected value to be restored at original coordinate, got %v %v", v, ok)
	}
}

func TestUpdateRangePerBlockReverse(t *testing.T) {
	cb := New[int]()
	cb.SetBlock(1, 5, 10)
	cb.SetBlock(5, 9, 20)

	out := UpdateRange[int, int](cb, 3, 7, func(old int) (int, int) {
		return old + 1, old
	})
	if len(out) != 2 {
		t.Fatalf("expected one output block per pre-coalesce input block, got %d: %+v", len(out), out)
	}
	if out[0].Value != 10 || out[1].Value != 20 {
		t.Fatalf("expected reverse trace to carry old values, got %+v", out)
	}
	if v, _ := cb.Get(3); v != 11 {
		t.Fatalf("expected updated value 11, got %d", v)
	}
	if v, _ := cb.Get(6); v != 21 {
		t.Fatalf("expected updated value 21, got %d", v)
	}
	if err := cb.CheckInvariants(); err != nil {
		t.Fatalf("invariants: %v", err)
	}
}

func TestFiniteMax(t *testing.T) {
	cb := New[int]()
	if cb.FiniteMax() != 0 {
		t.Fatalf("expected 0 on all-default structure")
	}
	cb.SetBlock(100, 105, 7)
	if got := cb.FiniteMax(); got != 104 {
		t.Fatalf("expected 104, got %d", got)
	}
}

func TestMergePolicyCoalescesEqualNeighbors(t *testing.T) {
	cb := New[int]()
	cb.SetBlock(5, 10, 1)
	cb.SetBlock(10, 15, 1) // same value as the block before it — must merge
	bs := cb.Blocks()
	for _, b := range bs {
		if b.Start == 5 {
			if b.End != 15 {
				t.Fatalf("expected merged block [5,15), got %+v", b)
			}
		}
	}
}
