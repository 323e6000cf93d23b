// Defines the LTE time-frequency resource grid: the per-TTI allocation
// bookkeeping the scheduler mutates. Frame -> Subframe/TTI -> Slot -> RB.

package sim

import "fmt"

// rbPerSlotByBandwidth maps cell bandwidth (MHz) to resource blocks per slot.
var rbPerSlotByBandwidth = map[float64]int{
	1.4: 6,
	3:   15,
	5:   25,
	10:  50,
	15:  75,
	20:  100,
}

// rbgSizeByBandwidth maps cell bandwidth (MHz) to RBG size in RBs (TS 36.213).
var rbgSizeByBandwidth = map[float64]int{
	1.4: 1,
	3:   2,
	5:   2,
	10:  3,
	15:  4,
	20:  4,
}

// RB identifies a single resource block by (tti, slot, freq) and tracks its
// owning UE, if any. A free RB has UEID == 0 and Assigned == false; an
// assigned RB has exactly one owner.
type RB struct {
	TTI      int64
	Slot     int // 0 or 1
	FreqIdx  int
	Assigned bool
	UEID     int
}

// ResourceGrid owns every RB across the simulation horizon and maintains
// aggregate allocation counters. RBs are mutated only through
// AllocateRB/ReleaseRB and the RBG/pair wrappers built on top of them.
type ResourceGrid struct {
	bandwidthMHz float64
	numTTI       int64
	rbPerSlot    int
	rbgSize      int
	totalRBG     int

	// rbs[tti][slot][freq]
	rbs [][2][]RB

	totalAllocatedRBs int
	perUEAllocCount   map[int]int
	perTTIAllocCount  map[int64]int
}

// NewResourceGrid constructs a grid for the given bandwidth and horizon.
// bandwidthMHz must be one of {1.4, 3, 5, 10, 15, 20} or construction fails
// with a ConfigurationError. numFrames must be >= 1.
func NewResourceGrid(bandwidthMHz float64, numFrames int) (*ResourceGrid, error) {
	rbPerSlot, ok := rbPerSlotByBandwidth[bandwidthMHz]
	if !ok {
		return nil, fmt.Errorf("ConfigurationError: unsupported bandwidth %vMHz", bandwidthMHz)
	}
	rbgSize := rbgSizeByBandwidth[bandwidthMHz]
	if numFrames < 1 {
		return nil, fmt.Errorf("ConfigurationError: numFrames must be >= 1, got %d", numFrames)
	}

	numTTI := int64(numFrames) * 10
	totalRBG := (rbPerSlot + rbgSize - 1) / rbgSize

	g := &ResourceGrid{
		bandwidthMHz:     bandwidthMHz,
		numTTI:           numTTI,
		rbPerSlot:        rbPerSlot,
		rbgSize:          rbgSize,
		totalRBG:         totalRBG,
		rbs:              make([][2][]RB, numTTI),
		perUEAllocCount:  make(map[int]int),
		perTTIAllocCount: make(map[int64]int),
	}
	for tti := int64(0); tti < numTTI; tti++ {
		for slot := 0; slot < 2; slot++ {
			row := make([]RB, rbPerSlot)
			for f := 0; f < rbPerSlot; f++ {
				row[f] = RB{TTI: tti, Slot: slot, FreqIdx: f}
			}
			g.rbs[tti][slot] = row
		}
	}
	return g, nil
}

// RBPerSlot returns the number of RBs per slot for this grid's bandwidth.
func (g *ResourceGrid) RBPerSlot() int { return g.rbPerSlot }

// RBGSize returns the RBG size in RBs for this grid's bandwidth.
func (g *ResourceGrid) RBGSize() int { return g.rbgSize }

// TotalRBG returns the number of RBGs per slot-pair (TTI).
func (g *ResourceGrid) TotalRBG() int { return g.totalRBG }

// NumTTI returns the simulation horizon in TTIs.
func (g *ResourceGrid) NumTTI() int64 { return g.numTTI }

func (g *ResourceGrid) inRange(tti int64, slot int, freq int) bool {
	if tti < 0 || tti >= g.numTTI {
		return false
	}
	if slot != 0 && slot != 1 {
		return false
	}
	if freq < 0 || freq >= g.rbPerSlot {
		return false
	}
	return true
}

// GetRB returns the RB at (tti, slot, freq), or nil if indices are out of range.
func (g *ResourceGrid) GetRB(tti int64, slot int, freq int) *RB {
	if !g.inRange(tti, slot, freq) {
		return nil
	}
	return &g.rbs[tti][slot][freq]
}

// AllocateRB assigns a single RB to ueID. Returns false (no mutation) if the
// indices are out of range or the RB is not free.
func (g *ResourceGrid) AllocateRB(tti int64, slot int, freq int, ueID int) bool {
	if !g.inRange(tti, slot, freq) {
		return false
	}
	rb := &g.rbs[tti][slot][freq]
	if rb.Assigned {
		return false
	}
	rb.Assigned = true
	rb.UEID = ueID
	g.totalAllocatedRBs++
	g.perUEAllocCount[ueID]++
	g.perTTIAllocCount[tti]++
	return true
}

// ReleaseRB frees the RB at (tti, slot, freq). No-op if already free or
// out of range.
func (g *ResourceGrid) ReleaseRB(tti int64, slot int, freq int) {
	if !g.inRange(tti, slot, freq) {
		return
	}
	rb := &g.rbs[tti][slot][freq]
	if !rb.Assigned {
		return
	}
	ueID := rb.UEID
	rb.Assigned = false
	rb.UEID = 0

	g.totalAllocatedRBs--
	g.perUEAllocCount[ueID]--
	if g.perUEAllocCount[ueID] <= 0 {
		delete(g.perUEAllocCount, ueID)
	}
	g.perTTIAllocCount[tti]--
	if g.perTTIAllocCount[tti] <= 0 {
		delete(g.perTTIAllocCount, tti)
	}
}

// AllocateRBPair atomically allocates freqIdx in both slots of tti to ueID.
// On partial failure the successfully-allocated slot is released and false
// is returned.
func (g *ResourceGrid) AllocateRBPair(tti int64, freqIdx int, ueID int) bool {
	if !g.AllocateRB(tti, 0, freqIdx, ueID) {
		return false
	}
	if !g.AllocateRB(tti, 1, freqIdx, ueID) {
		g.ReleaseRB(tti, 0, freqIdx)
		return false
	}
	return true
}

// ReleaseRBPair releases freqIdx in both slots of tti.
func (g *ResourceGrid) ReleaseRBPair(tti int64, freqIdx int) {
	g.ReleaseRB(tti, 0, freqIdx)
	g.ReleaseRB(tti, 1, freqIdx)
}

// GetRBGIndices returns the frequency indices covered by RBG rbgIdx. The
// last group of a bandwidth whose rbPerSlot isn't a multiple of rbgSize is
// shorter than rbgSize.
func (g *ResourceGrid) GetRBGIndices(rbgIdx int) []int {
	if rbgIdx < 0 || rbgIdx >= g.totalRBG {
		return nil
	}
	start := rbgIdx * g.rbgSize
	end := start + g.rbgSize
	if end > g.rbPerSlot {
		end = g.rbPerSlot
	}
	indices := make([]int, 0, end-start)
	for f := start; f < end; f++ {
		indices = append(indices, f)
	}
	return indices
}

// AllocateRBG atomically allocates every RB in both slots of RBG rbgIdx to
// ueID. On any sub-failure, every RB allocated so far in this call is rolled
// back and false is returned.
func (g *ResourceGrid) AllocateRBG(tti int64, rbgIdx int, ueID int) bool {
	indices := g.GetRBGIndices(rbgIdx)
	if len(indices) == 0 {
		return false
	}

	allocated := make([]int, 0, 2*len(indices))
	rollback := func() {
		for _, freq := range allocated {
			g.ReleaseRBPair(tti, freq)
		}
	}

	for _, freq := range indices {
		if !g.AllocateRBPair(tti, freq, ueID) {
			rollback()
			return false
		}
		allocated = append(allocated, freq)
	}
	return true
}

// ReleaseRBG releases every RB in both slots of RBG rbgIdx.
func (g *ResourceGrid) ReleaseRBG(tti int64, rbgIdx int) {
	for _, freq := range g.GetRBGIndices(rbgIdx) {
		g.ReleaseRBPair(tti, freq)
	}
}

// FreeRBsForTTI returns every currently-free RB across both slots of tti.
func (g *ResourceGrid) FreeRBsForTTI(tti int64) []RB {
	if tti < 0 || tti >= g.numTTI {
		return nil
	}
	free := make([]RB, 0, 2*g.rbPerSlot)
	for slot := 0; slot < 2; slot++ {
		for _, rb := range g.rbs[tti][slot] {
			if !rb.Assigned {
				free = append(free, rb)
			}
		}
	}
	return free
}

// GenerateBitmap returns a Resource-Allocation type-0 style RBG bitmap for
// tti: bitmap[k] is true iff RBG k is (wholly) assigned to ueID.
func (g *ResourceGrid) GenerateBitmap(tti int64, ueID int) []bool {
	bitmap := make([]bool, g.totalRBG)
	if tti < 0 || tti >= g.numTTI {
		return bitmap
	}
	for k := 0; k < g.totalRBG; k++ {
		indices := g.GetRBGIndices(k)
		if len(indices) == 0 {
			continue
		}
		owned := true
		for _, freq := range indices {
			for slot := 0; slot < 2; slot++ {
				rb := &g.rbs[tti][slot][freq]
				if !rb.Assigned || rb.UEID != ueID {
					owned = false
					break
				}
			}
			if !owned {
				break
			}
		}
		bitmap[k] = owned
	}
	return bitmap
}

// TotalAllocatedRBs returns the cumulative count of currently-assigned RBs
// across the whole grid.
func (g *ResourceGrid) TotalAllocatedRBs() int { return g.totalAllocatedRBs }

// PerUEAllocationCount returns the current RB count assigned to ueID. A UE
// with zero allocated RBs has no entry (returns 0).
func (g *ResourceGrid) PerUEAllocationCount(ueID int) int { return g.perUEAllocCount[ueID] }

// PerTTIAllocationCount returns the current RB count allocated in tti.
func (g *ResourceGrid) PerTTIAllocationCount(tti int64) int { return g.perTTIAllocCount[tti] }

// ResetGrid clears every RB back to free and zeroes all counters, preserving
// the grid's bandwidth and horizon.
func (g *ResourceGrid) ResetGrid() {
	for tti := int64(0); tti < g.numTTI; tti++ {
		for slot := 0; slot < 2; slot++ {
			for f := range g.rbs[tti][slot] {
				g.rbs[tti][slot][f].Assigned = false
				g.rbs[tti][slot][f].UEID = 0
			}
		}
	}
	g.totalAllocatedRBs = 0
	g.perUEAllocCount = make(map[int]int)
	g.perTTIAllocCount = make(map[int64]int)
}
