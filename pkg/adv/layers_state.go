package adv

import (
	"sort"

	"github.com/DCNick3/shin-sub001/pkg/layer"
	"github.com/DCNick3/shin-sub001/pkg/vm"
)

// LayerbankID indexes the dense pool of loadable layer slots shared by
// all planes.
type LayerbankID uint8

// fullLayerID addresses a logical layer across planes.
type fullLayerID int32

func makeFullLayerID(plane int32, id vm.LayerID) fullLayerID {
	return fullLayerID(plane)*vm.LayerCount + fullLayerID(id)
}

func (f fullLayerID) layer() vm.LayerID { return vm.LayerID(f % vm.LayerCount) }

// LayerOperationTarget is one layer a ranged layer command acts on.
type LayerOperationTarget struct {
	Layer     vm.LayerID
	Layerbank LayerbankID
}

type rangeKey struct {
	plane    int32
	from, to vm.LayerID
}

// LayerbankAllocator hands out the layerbank slots. Allocation takes
// the first unused slot; running out is a caller-side warning, not a
// failure. Range lookups are cached until the next allocation change.
type LayerbankAllocator struct {
	free        []LayerbankID
	layerToBank map[fullLayerID]LayerbankID
	bankToLayer map[LayerbankID]fullLayerID
	rangeCache  map[rangeKey][]LayerOperationTarget
}

func NewLayerbankAllocator() *LayerbankAllocator {
	a := &LayerbankAllocator{
		layerToBank: make(map[fullLayerID]LayerbankID),
		bankToLayer: make(map[LayerbankID]fullLayerID),
		rangeCache:  make(map[rangeKey][]LayerOperationTarget),
	}
	for i := vm.LayerbankCount - 1; i >= 0; i-- {
		a.free = append(a.free, LayerbankID(i))
	}
	return a
}

func (a *LayerbankAllocator) invalidate() {
	clear(a.rangeCache)
}

// Get looks up the layerbank a layer occupies.
func (a *LayerbankAllocator) Get(plane int32, id vm.LayerID) (LayerbankID, bool) {
	bank, ok := a.layerToBank[makeFullLayerID(plane, id)]
	return bank, ok
}

// Alloc assigns a layerbank to a layer, returning the existing one if
// the layer already has one. Reports false when the pool is exhausted.
func (a *LayerbankAllocator) Alloc(plane int32, id vm.LayerID) (LayerbankID, bool) {
	full := makeFullLayerID(plane, id)
	if bank, ok := a.layerToBank[full]; ok {
		return bank, true
	}
	if len(a.free) == 0 {
		return 0, false
	}
	bank := a.free[len(a.free)-1]
	a.free = a.free[:len(a.free)-1]
	a.layerToBank[full] = bank
	a.bankToLayer[bank] = full
	a.invalidate()
	return bank, true
}

// Free returns a layer's layerbank to the pool. Freeing an unallocated
// layer is a no-op.
func (a *LayerbankAllocator) Free(plane int32, id vm.LayerID) {
	full := makeFullLayerID(plane, id)
	bank, ok := a.layerToBank[full]
	if !ok {
		return
	}
	delete(a.layerToBank, full)
	delete(a.bankToLayer, bank)
	a.free = append(a.free, bank)
	a.invalidate()
}

// Swap exchanges the layerbank assignments of two layers. A layer
// without a bank simply receives the other's, if any.
func (a *LayerbankAllocator) Swap(plane int32, x, y vm.LayerID) {
	if x == y {
		return
	}
	fx, fy := makeFullLayerID(plane, x), makeFullLayerID(plane, y)
	bx, okx := a.layerToBank[fx]
	by, oky := a.layerToBank[fy]
	delete(a.layerToBank, fx)
	delete(a.layerToBank, fy)
	if okx {
		a.layerToBank[fy] = bx
		a.bankToLayer[bx] = fy
	}
	if oky {
		a.layerToBank[fx] = by
		a.bankToLayer[by] = fx
	}
	a.invalidate()
}

// AllocatedCount returns the number of occupied layerbanks.
func (a *LayerbankAllocator) AllocatedCount() int {
	return vm.LayerbankCount - len(a.free)
}

// LayersInRange lists the allocated layers on a plane with ids in
// [from, to], ordered by layer id. The result is cached; callers must
// not hold it across allocation changes.
func (a *LayerbankAllocator) LayersInRange(plane int32, from, to vm.LayerID) []LayerOperationTarget {
	key := rangeKey{plane: plane, from: from, to: to}
	if cached, ok := a.rangeCache[key]; ok {
		return cached
	}
	var targets []LayerOperationTarget
	for full, bank := range a.layerToBank {
		if full < makeFullLayerID(plane, from) || full > makeFullLayerID(plane, to) {
			continue
		}
		targets = append(targets, LayerOperationTarget{Layer: full.layer(), Layerbank: bank})
	}
	sort.Slice(targets, func(i, j int) bool { return targets[i].Layer < targets[j].Layer })
	a.rangeCache[key] = targets
	return targets
}

// LayerSelection is the layer id range set by LAYERSELECT.
type LayerSelection struct {
	From vm.LayerID
	To   vm.LayerID
}

func (s LayerSelection) Contains(id vm.LayerID) bool {
	return id >= s.From && id <= s.To
}

// LayerbankState mirrors one loaded layer for the save file.
type LayerbankState struct {
	Loaded      bool
	LayerType   vm.LayerType
	Plane       int32
	Layer       vm.LayerID
	LoadCounter uint32
	Params      [8]int32
	Properties  *layer.Snapshot
}

// PlaneState is the save-visible state of one plane layer group.
type PlaneState struct {
	Properties *layer.Snapshot
	MaskID     int32
	MaskFlags  vm.MaskFlags
}

// LayersState is the scene graph as the VM sees it: property
// snapshots for the aggregate nodes, the layerbank table and the
// bookkeeping ranged layer commands need.
type LayersState struct {
	Root   *layer.Snapshot
	Screen *layer.Snapshot
	Page   *layer.Snapshot
	Planes [vm.PlaneCount]PlaneState

	Layerbanks [vm.LayerbankCount]LayerbankState
	Allocator  *LayerbankAllocator

	Selection    LayerSelection
	CurrentPlane int32

	PageBackStarted bool

	LoadCounter         uint32
	LoadWithInitCounter uint32
}

func NewLayersState() *LayersState {
	s := &LayersState{
		Root:      layer.NewSnapshot(),
		Screen:    layer.NewSnapshot(),
		Page:      layer.NewSnapshot(),
		Allocator: NewLayerbankAllocator(),
	}
	for i := range s.Planes {
		s.Planes[i] = PlaneState{Properties: layer.NewSnapshot(), MaskID: -1}
	}
	for i := range s.Layerbanks {
		s.Layerbanks[i].Properties = layer.NewSnapshot()
	}
	return s
}

// targetsFor resolves a virtual layer id into the list of real layers
// a ranged command acts on. Aggregate targets resolve to nil; the
// caller handles them through the snapshot accessors.
func (s *LayersState) targetsFor(id vm.VLayerID) []LayerOperationTarget {
	switch id {
	case vm.VLayerSelected:
		return s.Allocator.LayersInRange(s.CurrentPlane, s.Selection.From, s.Selection.To)
	default:
		if real, ok := id.Layer(); ok {
			return s.Allocator.LayersInRange(s.CurrentPlane, real, real)
		}
		return nil
	}
}

// snapshotFor returns the property snapshot of an aggregate target,
// or nil for a real layer id.
func (s *LayersState) snapshotFor(id vm.VLayerID) *layer.Snapshot {
	switch id {
	case vm.VLayerRootGroup:
		return s.Root
	case vm.VLayerScreen:
		return s.Screen
	case vm.VLayerPage:
		return s.Page
	case vm.VLayerPlaneGroup:
		return s.Planes[s.CurrentPlane].Properties
	default:
		return nil
	}
}
