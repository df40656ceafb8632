package blocks

import "testing"

func TestOffsetMapDefault(t *testing.T) {
	m := NewOffsetMap(DefaultColumnWidth)
	if m.Get(5) != DefaultColumnWidth {
		t.Fatalf("expected default width")
	}
	m.Set(5, 250)
	if m.Get(5) != 250 {
		t.Fatalf("expected override to take")
	}
	m.Set(5, DefaultColumnWidth)
	if _, ok := m.sizes[5]; ok {
		t.Fatalf("setting back to default should remove the override, keeping the map sparse")
	}
}

func TestOffsetMapInsertShiftsOverridesRight(t *testing.T) {
	m := NewOffsetMap(DefaultColumnWidth)
	m.Set(3, 150)
	m.Set(5, 300)

	shifted := m.InsertColumn(4)
	if m.Get(3) != 150 {
		t.Fatalf("column before insert point must be untouched")
	}
	if m.Get(4) != DefaultColumnWidth {
		t.Fatalf("newly opened column must default")
	}
	if m.Get(6) != 300 {
		t.Fatalf("column at/after insert point must shift right")
	}
	found := false
	for _, r := range shifted {
		if r.Index == 5 && r.PriorSize == 300 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected shifted entry reporting prior size, got %+v", shifted)
	}
}

func TestOffsetMapDeleteShiftsOverridesLeft(t *testing.T) {
	m := NewOffsetMap(DefaultColumnWidth)
	m.Set(3, 150)
	m.Set(5, 300)

	shifted, removed := m.DeleteColumn(3)
	if removed == nil || *removed != 150 {
		t.Fatalf("expected removed prior size 150, got %v", removed)
	}
	if m.Get(4) != 300 {
		t.Fatalf("column after delete point must shift left, got %v", m.Get(4))
	}
	found := false
	for _, r := range shifted {
		if r.Index == 5 && r.PriorSize == 300 {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected shifted entry, got %+v", shifted)
	}
}

func TestOffsetMapInsertThenDeleteRoundTrips(t *testing.T) {
	m := NewOffsetMap(DefaultColumnWidth)
	m.Set(10, 500)
	m.InsertColumn(3)
	m.DeleteColumn(3)
	if m.Get(10) != 500 {
		t.Fatalf("expected structural equality after insert+delete round trip, got %v", m.Get(10))
	}
}
