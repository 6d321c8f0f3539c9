package adv

import "testing"

func TestPersistRoundTrip(t *testing.T) {
	var p Persist
	p.Set(0, 42)
	p.Set(PersistSlotCount-1, -7)
	if got := p.Get(0); got != 42 {
		t.Errorf("Get(0) = %d, want 42", got)
	}
	if got := p.Get(PersistSlotCount - 1); got != -7 {
		t.Errorf("Get(last) = %d, want -7", got)
	}
}

func TestPersistOutOfRange(t *testing.T) {
	var p Persist
	p.Set(-1, 99)
	p.Set(PersistSlotCount, 99)
	if got := p.Get(-1); got != 0 {
		t.Errorf("Get(-1) = %d, want 0", got)
	}
	if got := p.Get(PersistSlotCount); got != 0 {
		t.Errorf("Get(%d) = %d, want 0", PersistSlotCount, got)
	}
	for i, cell := range p.Raw() {
		if cell != 0 {
			t.Fatalf("cell %d = %d after out-of-range writes", i, cell)
		}
	}
}

func TestSaveInfoLevels(t *testing.T) {
	var s SaveInfo
	s.Set(0, "chapter 1")
	s.Set(3, "in the clubroom")
	s.Set(4, "dropped")
	s.Set(-1, "dropped")
	want := [4]string{"chapter 1", "", "", "in the clubroom"}
	if s.Levels != want {
		t.Errorf("Levels = %q, want %q", s.Levels, want)
	}
}
