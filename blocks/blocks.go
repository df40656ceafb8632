// Package blocks implements ContiguousBlocks, the run-length sparse map
// that underlies per-column/per-row formats, borders, and offsets. Every
// coordinate from 1 to Max is covered by exactly one block; adjacent
// blocks holding equal values are always coalesced.
package blocks

import "github.com/google/btree"

// Max is the sentinel upper bound for a ContiguousBlocks domain — the
// largest coordinate a sheet can address. It plays the role of the
// "UNBOUNDED" sentinel used elsewhere in the grid/a1 packages.
const Max int64 = 1<<63 - 1

// Block is a half-open run [Start, End) holding a single value. It is
// returned by mutating operations so callers can synthesize a reverse
// operation from the blocks that were replaced.
type Block[T any] struct {
	Start int64
	End   int64
	Value T
}

// Len reports the number of coordinates covered by the block.
func (b Block[T]) Len() int64 { return b.End - b.Start }

// ContiguousBlocks is a sorted map from the first coordinate of a run to
// that run's Block. It never contains an entry for coordinate 0, and its
// final block may run up to Max.
type ContiguousBlocks[T comparable] struct {
	// blocks is keyed by each block's Start; runs are disjoint and cover
	// every coordinate in [1, Max].
	blocks map[int64]*Block[T]
	// starts is blocks' keys held in an ordered index, so lookups for the
	// run straddling a coordinate, or a range of starts, run in O(log n)
	// instead of scanning/shifting a sorted slice.
	starts *btree.BTreeG[int64]
}

func lessInt64(a, b int64) bool { return a < b }

// newContiguousBlocks allocates an empty blocks map and starts index,
// shared by New and the package-level constructors that can't call New
// directly (their element type differs from the receiver's).
func newContiguousBlocks[T comparable]() *ContiguousBlocks[T] {
	return &ContiguousBlocks[T]{
		blocks: make(map[int64]*Block[T]),
		starts: btree.NewG(32, lessInt64),
	}
}

// New creates a ContiguousBlocks with a single block [1, Max) holding the
// zero value of T.
func New[T comparable]() *ContiguousBlocks[T] {
	var zero T
	cb := newContiguousBlocks[T]()
	cb.insertBlock(&Block[T]{Start: 1, End: Max, Value: zero})
	return cb
}

func (cb *ContiguousBlocks[T]) insertBlock(b *Block[T]) {
	cb.blocks[b.Start] = b
	cb.starts.ReplaceOrInsert(b.Start)
}

func (cb *ContiguousBlocks[T]) removeStart(start int64) {
	delete(cb.blocks, start)
	cb.starts.Delete(start)
}

// blockContaining returns the block whose run contains coord, if any.
func (cb *ContiguousBlocks[T]) blockContaining(coord int64) *Block[T] {
	var floor int64
	found := false
	cb.starts.DescendLessOrEqual(coord, func(item int64) bool {
		floor = item
		found = true
		return false
	})
	if !found {
		return nil
	}
	b := cb.blocks[floor]
	if b != nil && coord >= b.Start && coord < b.End {
		return b
	}
	return nil
}

// Get returns the value at coordinate i, or false if i < 1.
func (cb *ContiguousBlocks[T]) Get(i int64) (T, bool) {
	var zero T
	if i < 1 {
		return zero, false
	}
	b := cb.blockContaining(i)
	if b == nil {
		return zero, false
	}
	return b.Value, true
}

// Set performs a point update at coordinate i, clamped to 1 if i < 1.
// Returns the prior value.
func (cb *ContiguousBlocks[T]) Set(i int64, v T) T {
	if i < 1 {
		i = 1
	}
	blocksBefore := cb.SetBlock(i, i+1, v)
	if len(blocksBefore) > 0 {
		return blocksBefore[0].Value
	}
	var zero T
	return zero
}

// SetBlock replaces the run [start, end) with a single block holding v,
// splitting and removing whatever blocks previously covered that range.
// It returns the blocks that were removed/split (pre-coalesce): the block
// straddling start, then the block straddling end, then the blocks lying
// wholly inside the range — enough to synthesize an undo of this call via
// a sequence of further SetBlock calls, in any order.
func (cb *ContiguousBlocks[T]) SetBlock(start, end int64, v T) []Block[T] {
	if start < 1 {
		start = 1
	}
	if start >= end {
		return nil
	}
	if end > Max {
		end = Max
	}

	removed := cb.splitAndRemoveRange(start, end)

	cb.insertBlock(&Block[T]{Start: start, End: end, Value: v})
	cb.tryMergeAt(start)
	cb.tryMergeAt(end)

	return removed
}

// splitAndRemoveRange removes every block overlapping [start, end),
// re-inserting the non-overlapping slivers of any block that straddles a
// boundary, and returns the set of blocks (pre-split) that were touched.
func (cb *ContiguousBlocks[T]) splitAndRemoveRange(start, end int64) []Block[T] {
	var removed []Block[T]

	// the block straddling `start` may need its tail [start, b.End) cut
	// off and a new sliver [b.Start, start) re-inserted.
	if b := cb.blockContaining(start); b != nil {
		removed = append(removed, *b)
		if b.Start < start {
			cb.removeStart(b.Start)
			cb.insertBlock(&Block[T]{Start: b.Start, End: start, Value: b.Value})
			if b.End > end {
				cb.insertBlock(&Block[T]{Start: end, End: b.End, Value: b.Value})
			}
		} else if b.End > end {
			cb.removeStart(b.Start)
			cb.insertBlock(&Block[T]{Start: end, End: b.End, Value: b.Value})
		} else {
			cb.removeStart(b.Start)
		}
	}

	// the block straddling `end` (if different from the one above) may
	// need its head [b.Start, end) cut off.
	if b := cb.blockContaining(end); b != nil && b.Start < end {
		removed = append(removed, *b)
		cb.removeStart(b.Start)
		cb.insertBlock(&Block[T]{Start: end, End: b.End, Value: b.Value})
	}

	// remove every block whose start falls fully within [start, end)
	for _, s := range cb.startsInRange(start, end) {
		b := cb.blocks[s]
		if b == nil {
			continue
		}
		removed = append(removed, *b)
		cb.removeStart(s)
	}

	return removed
}

func (cb *ContiguousBlocks[T]) startsInRange(start, end int64) []int64 {
	var out []int64
	cb.starts.AscendRange(start, end, func(item int64) bool {
		out = append(out, item)
		return true
	})
	return out
}

// tryMergeAt merges the blocks immediately before and after coord if they
// hold equal values — an O(log n) pair lookup, per spec §4.1/§9.
func (cb *ContiguousBlocks[T]) tryMergeAt(coord int64) {
	var before, after *Block[T]
	cb.starts.DescendLessOrEqual(coord-1, func(item int64) bool {
		before = cb.blocks[item]
		return false
	})
	cb.starts.AscendGreaterOrEqual(coord, func(item int64) bool {
		after = cb.blocks[item]
		return false
	})
	if before == nil || after == nil {
		return
	}
	if before.End != after.Start {
		return
	}
	if before.Value != after.Value {
		return
	}
	newEnd := after.End
	cb.removeStart(after.Start)
	cb.removeStart(before.Start)
	cb.insertBlock(&Block[T]{Start: before.Start, End: newEnd, Value: before.Value})
}

// UpdateRange mutates every block overlapping [start, end) in place via f,
// which receives the old value and returns the new value plus an
// arbitrary reverse payload R. Touched blocks are removed, mutated,
// re-inserted, then coalesced; the function returns one output block per
// pre-coalesce input block, in left-to-right order.
func UpdateRange[T comparable, R any](cb *ContiguousBlocks[T], start, end int64, f func(T) (T, R)) []Block[R] {
	if start < 1 {
		start = 1
	}
	if start >= end {
		return nil
	}
	if end > Max {
		end = Max
	}

	// split the blocks straddling start and end, keeping their values,
	// so every block inside [start,end) can be mutated on its own.
	for _, at := range []int64{start, end} {
		if b := cb.blockContaining(at); b != nil && b.Start < at {
			cb.removeStart(b.Start)
			cb.insertBlock(&Block[T]{Start: b.Start, End: at, Value: b.Value})
			cb.insertBlock(&Block[T]{Start: at, End: b.End, Value: b.Value})
		}
	}
	var out []Block[R]
	pos := start
	for pos < end {
		b := cb.blockContaining(pos)
		var segEnd int64
		if b == nil {
			// shouldn't happen after splitAndRemoveRange, but guard
			segEnd = end
		} else {
			segEnd = b.End
			if segEnd > end {
				segEnd = end
			}
		}
		var oldVal T
		if b != nil {
			oldVal = b.Value
		}
		newVal, rev := f(oldVal)
		if b != nil {
			cb.removeStart(b.Start)
		}
		cb.insertBlock(&Block[T]{Start: pos, End: segEnd, Value: newVal})
		out = append(out, Block[R]{Start: pos, End: segEnd, Value: rev})
		pos = segEnd
	}

	for _, o := range out {
		cb.tryMergeAt(o.Start)
	}
	cb.tryMergeAt(end)
	return out
}

// UpdateAll visits every block and replaces its value via f. Blocks for
// which f returns ok=false keep f's zero-valued R in the output but are
// otherwise unaffected in T-space — callers typically use this for bulk
// transforms like "clear all colors."
func UpdateAll[T comparable, R any](cb *ContiguousBlocks[T], f func(T) (R, bool)) *ContiguousBlocks[R] {
	out := newContiguousBlocks[R]()
	for _, s := range cb.sortedStarts() {
		b := cb.blocks[s]
		v, ok := f(b.Value)
		if !ok {
			var zero R
			v = zero
		}
		out.insertBlock(&Block[R]{Start: b.Start, End: b.End, Value: v})
	}
	out.coalesceAll()
	return out
}

// UpdateNonDefaultFrom applies f only at coordinates where other holds a
// non-default value, producing a ContiguousBlocks[*R] (nil where other
// was default, f's result otherwise). default is U's zero value.
func UpdateNonDefaultFrom[T comparable, U comparable, R any](cb *ContiguousBlocks[T], other *ContiguousBlocks[U], f func(T, U) R) *ContiguousBlocks[*R] {
	var zeroU U
	out := New[*R]()
	for _, s := range other.sortedStarts() {
		ob := other.blocks[s]
		if ob.Value == zeroU {
			continue
		}
		UpdateRange[*R, struct{}](out, ob.Start, ob.End, func(T) (*R, struct{}) {
			tv, _ := cb.Get(ob.Start)
			r := f(tv, ob.Value)
			return &r, struct{}{}
		})
	}
	return out
}

// Map applies f pointwise to every block's value, then coalesces.
func Map[T comparable, R comparable](cb *ContiguousBlocks[T], f func(T) R) *ContiguousBlocks[R] {
	out := newContiguousBlocks[R]()
	for _, s := range cb.sortedStarts() {
		b := cb.blocks[s]
		out.insertBlock(&Block[R]{Start: b.Start, End: b.End, Value: f(b.Value)})
	}
	out.coalesceAll()
	return out
}

func (cb *ContiguousBlocks[T]) coalesceAll() {
	starts := cb.sortedStarts()
	for i := 0; i < len(starts); i++ {
		cb.tryMergeAt(starts[i])
	}
}

// ShiftInsert shifts every coordinate >= start right by (end-start) and
// fills the opened gap [start,end) with v.
func (cb *ContiguousBlocks[T]) ShiftInsert(start, end int64, v T) {
	if end < start {
		return
	}
	width := end - start
	if width <= 0 {
		return
	}
	if b := cb.blockContaining(start); b != nil && b.Start < start {
		cb.removeStart(b.Start)
		cb.insertBlock(&Block[T]{Start: b.Start, End: start, Value: b.Value})
		cb.insertBlock(&Block[T]{Start: start, End: b.End, Value: b.Value})
	}
	cb.shiftFrom(start, width)
	cb.SetBlock(start, end, v)
}

// ShiftRemove removes [start, end) and shifts later coordinates left by
// (end-start).
func (cb *ContiguousBlocks[T]) ShiftRemove(start, end int64) {
	if end < start {
		return
	}
	width := end - start
	if width <= 0 {
		return
	}
	cb.splitAndRemoveRange(start, end)
	cb.shiftFrom(end, -width)
}

// shiftFrom moves every block whose start is >= at by delta (positive or
// negative), re-deriving the block list from scratch to avoid key
// collisions while shifting.
func (cb *ContiguousBlocks[T]) shiftFrom(at int64, delta int64) {
	old := cb.sortedStarts()
	type mv struct {
		b     Block[T]
		moved bool
	}
	var moves []mv
	for _, s := range old {
		b := *cb.blocks[s]
		if b.Start >= at {
			moves = append(moves, mv{b, true})
		}
	}
	for _, m := range moves {
		cb.removeStart(m.b.Start)
	}
	for _, m := range moves {
		ns, ne := m.b.Start+delta, m.b.End+delta
		if ns < 1 {
			ns = 1
		}
		if ne <= ns {
			continue
		}
		if ne > Max {
			ne = Max
		}
		cb.insertBlock(&Block[T]{Start: ns, End: ne, Value: m.b.Value})
	}
	// fill any hole created at the tail of the unshifted region, or at
	// the very end of the domain, with the zero value so the "every
	// coordinate covered" invariant holds.
	cb.fillHoles()
	cb.coalesceAll()
}

// fillHoles inserts zero-valued blocks into any gap in [1, Max] left by a
// shift; ContiguousBlocks never leaves an uncovered coordinate.
func (cb *ContiguousBlocks[T]) fillHoles() {
	var zero T
	starts := cb.sortedStarts()
	cursor := int64(1)
	for _, s := range starts {
		b := cb.blocks[s]
		if b.Start > cursor {
			cb.insertBlock(&Block[T]{Start: cursor, End: b.Start, Value: zero})
		}
		if b.End > cursor {
			cursor = b.End
		}
	}
	if cursor < Max {
		cb.insertBlock(&Block[T]{Start: cursor, End: Max, Value: zero})
	}
}

// FiniteMax returns the largest coordinate holding a non-default value,
// or 0 if every block holds the zero value.
func (cb *ContiguousBlocks[T]) FiniteMax() int64 {
	var zero T
	starts := cb.sortedStarts()
	for i := len(starts) - 1; i >= 0; i-- {
		b := cb.blocks[starts[i]]
		if b.Value != zero {
			return b.End - 1
		}
	}
	return 0
}

// Blocks returns every block in left-to-right order. Intended for tests
// and diagnostics, not hot paths.
func (cb *ContiguousBlocks[T]) Blocks() []Block[T] {
	starts := cb.sortedStarts()
	out := make([]Block[T], 0, len(starts))
	for _, s := range starts {
		out = append(out, *cb.blocks[s])
	}
	return out
}

func (cb *ContiguousBlocks[T]) sortedStarts() []int64 {
	out := make([]int64, 0, cb.starts.Len())
	cb.starts.Ascend(func(item int64) bool {
		out = append(out, item)
		return true
	})
	return out
}

// CheckInvariants reports whether the structure's three invariants
// (no duplicate-value adjacent blocks, every coordinate covered exactly
// once, nothing at coordinate 0) all hold. Used by property tests.
func (cb *ContiguousBlocks[T]) CheckInvariants() error {
	starts := cb.sortedStarts()
	if len(starts) == 0 {
		return errInvariant("no blocks at all")
	}
	if starts[0] != 1 {
		return errInvariant("domain does not start at 1")
	}
	cursor := int64(1)
	for i, s := range starts {
		b := cb.blocks[s]
		if b.Start != s {
			return errInvariant("key/start mismatch")
		}
		if b.Start >= b.End {
			return errInvariant("empty or inverted block")
		}
		if b.Start != cursor {
			return errInvariant("gap or overlap in coverage")
		}
		if i > 0 {
			prev := cb.blocks[starts[i-1]]
			if prev.Value == b.Value {
				return errInvariant("adjacent blocks with equal values not coalesced")
			}
		}
		cursor = b.End
	}
	if cursor != Max {
		return errInvariant("domain does not end at Max")
	}
	return nil
}

type invariantError string

func (e invariantError) Error() string { return string(e) }

func errInvariant(msg string) error { return invariantError("blocks: invariant violated: " + msg) }
