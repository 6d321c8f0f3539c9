package adv

import (
	"testing"

	"github.com/DCNick3/shin-sub001/pkg/vm"
)

func TestAllocatorFirstBankIsZero(t *testing.T) {
	a := NewLayerbankAllocator()
	bank, ok := a.Alloc(0, 5)
	if !ok || bank != 0 {
		t.Fatalf("first Alloc = (%d, %v), want (0, true)", bank, ok)
	}
	if bank, ok = a.Alloc(0, 6); !ok || bank != 1 {
		t.Fatalf("second Alloc = (%d, %v), want (1, true)", bank, ok)
	}
}

func TestAllocatorDoubleAllocReturnsSameBank(t *testing.T) {
	a := NewLayerbankAllocator()
	first, _ := a.Alloc(1, 10)
	second, ok := a.Alloc(1, 10)
	if !ok || second != first {
		t.Errorf("re-Alloc = (%d, %v), want (%d, true)", second, ok, first)
	}
	if got := a.AllocatedCount(); got != 1 {
		t.Errorf("AllocatedCount = %d, want 1", got)
	}
}

func TestAllocatorPlanesAreIndependent(t *testing.T) {
	a := NewLayerbankAllocator()
	b0, _ := a.Alloc(0, 7)
	b1, _ := a.Alloc(1, 7)
	if b0 == b1 {
		t.Errorf("same layer id on two planes shares bank %d", b0)
	}
	if _, ok := a.Get(2, 7); ok {
		t.Error("Get found a bank on an untouched plane")
	}
}

func TestAllocatorExhaustion(t *testing.T) {
	a := NewLayerbankAllocator()
	for i := 0; i < vm.LayerbankCount; i++ {
		if _, ok := a.Alloc(0, vm.LayerID(i)); !ok {
			t.Fatalf("Alloc %d failed before the pool was full", i)
		}
	}
	if _, ok := a.Alloc(0, 200); ok {
		t.Fatal("Alloc succeeded on a full pool")
	}
	a.Free(0, 3)
	if _, ok := a.Alloc(0, 200); !ok {
		t.Fatal("Alloc failed after a Free")
	}
}

func TestAllocatorFreeUnallocatedIsNoop(t *testing.T) {
	a := NewLayerbankAllocator()
	a.Free(0, 42)
	if got := a.AllocatedCount(); got != 0 {
		t.Errorf("AllocatedCount = %d, want 0", got)
	}
}

func TestAllocatorSwap(t *testing.T) {
	a := NewLayerbankAllocator()
	bx, _ := a.Alloc(0, 1)
	by, _ := a.Alloc(0, 2)
	a.Swap(0, 1, 2)
	if got, _ := a.Get(0, 1); got != by {
		t.Errorf("layer 1 has bank %d after swap, want %d", got, by)
	}
	if got, _ := a.Get(0, 2); got != bx {
		t.Errorf("layer 2 has bank %d after swap, want %d", got, bx)
	}
}

func TestAllocatorSwapOneSided(t *testing.T) {
	a := NewLayerbankAllocator()
	bank, _ := a.Alloc(0, 1)
	a.Swap(0, 1, 9)
	if _, ok := a.Get(0, 1); ok {
		t.Error("layer 1 kept its bank after a one-sided swap")
	}
	if got, ok := a.Get(0, 9); !ok || got != bank {
		t.Errorf("layer 9 has bank (%d, %v), want (%d, true)", got, ok, bank)
	}
}

func TestLayersInRangeSortedAndFiltered(t *testing.T) {
	a := NewLayerbankAllocator()
	a.Alloc(0, 30)
	a.Alloc(0, 10)
	a.Alloc(0, 20)
	a.Alloc(1, 15)

	targets := a.LayersInRange(0, 10, 25)
	if len(targets) != 2 {
		t.Fatalf("got %d targets, want 2", len(targets))
	}
	if targets[0].Layer != 10 || targets[1].Layer != 20 {
		t.Errorf("targets not sorted by layer id: %v", targets)
	}
}

func TestLayersInRangeCacheInvalidation(t *testing.T) {
	a := NewLayerbankAllocator()
	a.Alloc(0, 5)
	if got := len(a.LayersInRange(0, 0, 10)); got != 1 {
		t.Fatalf("got %d targets, want 1", got)
	}
	a.Free(0, 5)
	if got := len(a.LayersInRange(0, 0, 10)); got != 0 {
		t.Errorf("got %d targets after Free, want 0", got)
	}
	a.Alloc(0, 7)
	if got := len(a.LayersInRange(0, 0, 10)); got != 1 {
		t.Errorf("got %d targets after Alloc, want 1", got)
	}
}

func TestLayerSelectionContains(t *testing.T) {
	s := LayerSelection{From: 5, To: 10}
	for _, tc := range []struct {
		id   vm.LayerID
		want bool
	}{
		{4, false}, {5, true}, {7, true}, {10, true}, {11, false},
	} {
		if got := s.Contains(tc.id); got != tc.want {
			t.Errorf("Contains(%d) = %v, want %v", tc.id, got, tc.want)
		}
	}
}

func TestTargetsForSelection(t *testing.T) {
	layers := NewLayersState()
	layers.Allocator.Alloc(0, 3)
	layers.Allocator.Alloc(0, 8)
	layers.Selection = LayerSelection{From: 0, To: 5}

	targets := layers.targetsFor(vm.VLayerSelected)
	if len(targets) != 1 || targets[0].Layer != 3 {
		t.Errorf("selected targets = %v, want just layer 3", targets)
	}

	targets = layers.targetsFor(vm.VLayerID(8))
	if len(targets) != 1 || targets[0].Layer != 8 {
		t.Errorf("real-id targets = %v, want just layer 8", targets)
	}

	if targets = layers.targetsFor(vm.VLayerScreen); targets != nil {
		t.Errorf("aggregate target resolved to %v, want nil", targets)
	}
}

func TestSnapshotForFollowsCurrentPlane(t *testing.T) {
	layers := NewLayersState()
	if layers.snapshotFor(vm.VLayerPlaneGroup) != layers.Planes[0].Properties {
		t.Error("plane group snapshot is not plane 0's")
	}
	layers.CurrentPlane = 2
	if layers.snapshotFor(vm.VLayerPlaneGroup) != layers.Planes[2].Properties {
		t.Error("plane group snapshot did not follow the plane select")
	}
	if layers.snapshotFor(vm.VLayerID(5)) != nil {
		t.Error("real layer id produced a snapshot")
	}
}

func TestNewLayersStateDefaults(t *testing.T) {
	layers := NewLayersState()
	for i, plane := range layers.Planes {
		if plane.MaskID != -1 {
			t.Errorf("plane %d MaskID = %d, want -1", i, plane.MaskID)
		}
	}
	if layers.Allocator.AllocatedCount() != 0 {
		t.Error("fresh state has allocated layerbanks")
	}
}
