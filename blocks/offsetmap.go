package blocks

import "sort"

// DefaultColumnWidth and DefaultRowHeight are the fallback sizes used by
// OffsetMap when an index has no override — spec §4.2.
const (
	DefaultColumnWidth float64 = 100
	DefaultRowHeight   float64 = 21
)

// Resize records the index and prior size an insert/delete shifted, so
// the caller can synthesize a ResizeColumn/ResizeRow reverse operation
// per entry (spec §4.2).
type Resize struct {
	Index     int64
	PriorSize float64
}

// OffsetMap is a sparse override map: index -> size, with everything
// absent defaulting to `Default`. Unlike ContiguousBlocks it does no run
// coalescing — spec §4.2 is explicit that this structure has "no run
// coalescing."
type OffsetMap struct {
	Default float64
	sizes   map[int64]float64
}

// NewOffsetMap creates an OffsetMap with the given default size.
func NewOffsetMap(def float64) *OffsetMap {
	return &OffsetMap{Default: def, sizes: make(map[int64]float64)}
}

// Get returns the size at index i, or Default if unset.
func (m *OffsetMap) Get(i int64) float64 {
	if v, ok := m.sizes[i]; ok {
		return v
	}
	return m.Default
}

// Set overrides the size at index i. Setting to Default removes the
// override (keeps the map sparse).
func (m *OffsetMap) Set(i int64, size float64) float64 {
	old := m.Get(i)
	if size == m.Default {
		delete(m.sizes, i)
	} else {
		m.sizes[i] = size
	}
	return old
}

// sortedIndices returns every overridden index in ascending order.
func (m *OffsetMap) sortedIndices() []int64 {
	out := make([]int64, 0, len(m.sizes))
	for i := range m.sizes {
		out = append(out, i)
	}
	sort.Slice(out, func(a, b int) bool { return out[a] < out[b] })
	return out
}

// InsertColumn (or row — the axis is caller-determined) shifts every
// override at index >= i right by one, opening a default-sized gap at i.
// Returns the shifted entries reporting the size they held *before* the
// shift, so the caller can push one ResizeColumn/Row reverse op per
// entry (spec §4.2).
func (m *OffsetMap) InsertColumn(i int64) []Resize {
	var shifted []Resize
	indices := m.sortedIndices()
	// walk from the highest index down so writes never clobber an
	// not-yet-moved entry.
	for j := len(indices) - 1; j >= 0; j-- {
		idx := indices[j]
		if idx < i {
			continue
		}
		size := m.sizes[idx]
		delete(m.sizes, idx)
		m.sizes[idx+1] = size
		shifted = append(shifted, Resize{Index: idx, PriorSize: size})
	}
	// the newly opened column has no override (default size).
	delete(m.sizes, i)
	return shifted
}

// DeleteColumn removes the override at i (if any) and shifts every
// override at index > i left by one. Returns the shifted entries and,
// if i itself held a non-default size, that prior size as "newSize" is
// not reinserted — deletion simply drops it; callers reconstruct the
// ResizeColumn reverse op for index i themselves from the return value.
func (m *OffsetMap) DeleteColumn(i int64) (shifted []Resize, removedPriorSize *float64) {
	if v, ok := m.sizes[i]; ok {
		removedPriorSize = &v
		delete(m.sizes, i)
	}
	indices := m.sortedIndices()
	for _, idx := range indices {
		if idx <= i {
			continue
		}
		size := m.sizes[idx]
		delete(m.sizes, idx)
		m.sizes[idx-1] = size
		shifted = append(shifted, Resize{Index: idx, PriorSize: size})
	}
	return shifted, removedPriorSize
}
