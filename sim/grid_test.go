package sim

import "testing"

func TestNewResourceGrid_UnsupportedBandwidth_Errors(t *testing.T) {
	// GIVEN a bandwidth not in the whitelist
	// WHEN NewResourceGrid is called
	_, err := NewResourceGrid(7, 1)

	// THEN construction fails with a ConfigurationError
	if err == nil {
		t.Fatal("expected error for unsupported bandwidth, got nil")
	}
}

func TestNewResourceGrid_Dimensions(t *testing.T) {
	// GIVEN a 10MHz, 2-frame grid
	g, err := NewResourceGrid(10, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// THEN RB/slot, RBG size and TTI count match TS 36.213 tables
	if g.RBPerSlot() != 50 {
		t.Errorf("RBPerSlot = %d, want 50", g.RBPerSlot())
	}
	if g.RBGSize() != 3 {
		t.Errorf("RBGSize = %d, want 3", g.RBGSize())
	}
	if g.TotalRBG() != 17 {
		t.Errorf("TotalRBG = %d, want 17 (ceil(50/3))", g.TotalRBG())
	}
	if g.NumTTI() != 20 {
		t.Errorf("NumTTI = %d, want 20", g.NumTTI())
	}
}

func TestGetRB_OutOfRange_ReturnsNil(t *testing.T) {
	// GIVEN a 5MHz grid
	g, _ := NewResourceGrid(5, 1)

	// WHEN indices are out of range
	// THEN GetRB returns nil
	if g.GetRB(-1, 0, 0) != nil {
		t.Error("negative tti: expected nil")
	}
	if g.GetRB(0, 2, 0) != nil {
		t.Error("invalid slot: expected nil")
	}
	if g.GetRB(0, 0, 100) != nil {
		t.Error("freq out of range: expected nil")
	}
}

func TestAllocateRB_FreeRB_Succeeds(t *testing.T) {
	// GIVEN a free RB
	g, _ := NewResourceGrid(5, 1)

	// WHEN allocated to UE 1
	ok := g.AllocateRB(0, 0, 0, 1)

	// THEN allocation succeeds and counters update
	if !ok {
		t.Fatal("AllocateRB returned false for free RB")
	}
	rb := g.GetRB(0, 0, 0)
	if !rb.Assigned || rb.UEID != 1 {
		t.Errorf("RB not assigned to UE1: %+v", rb)
	}
	if g.TotalAllocatedRBs() != 1 {
		t.Errorf("TotalAllocatedRBs = %d, want 1", g.TotalAllocatedRBs())
	}
	if g.PerUEAllocationCount(1) != 1 {
		t.Errorf("PerUEAllocationCount(1) = %d, want 1", g.PerUEAllocationCount(1))
	}
}

func TestAllocateRB_AlreadyAssigned_Fails(t *testing.T) {
	// GIVEN an RB already assigned to UE1
	g, _ := NewResourceGrid(5, 1)
	g.AllocateRB(0, 0, 0, 1)

	// WHEN UE2 tries to allocate the same RB
	ok := g.AllocateRB(0, 0, 0, 2)

	// THEN allocation fails and ownership is unchanged
	if ok {
		t.Fatal("AllocateRB succeeded on an already-assigned RB")
	}
	if g.GetRB(0, 0, 0).UEID != 1 {
		t.Error("ownership changed despite failed allocation")
	}
}

func TestReleaseRB_RemovesZeroCountEntry(t *testing.T) {
	// GIVEN an RB assigned to UE1
	g, _ := NewResourceGrid(5, 1)
	g.AllocateRB(0, 0, 0, 1)

	// WHEN released
	g.ReleaseRB(0, 0, 0)

	// THEN the RB is free and UE1's counter entry is removed (zero, not present)
	if g.GetRB(0, 0, 0).Assigned {
		t.Error("RB still assigned after release")
	}
	if g.PerUEAllocationCount(1) != 0 {
		t.Errorf("PerUEAllocationCount(1) = %d, want 0 after release", g.PerUEAllocationCount(1))
	}
}

func TestAllocateRBPair_AtomicAcrossSlots(t *testing.T) {
	// GIVEN a free grid
	g, _ := NewResourceGrid(5, 1)

	// WHEN allocating a pair for freq 3 to UE1
	ok := g.AllocateRBPair(0, 3, 1)

	// THEN both slots are assigned
	if !ok {
		t.Fatal("AllocateRBPair failed on free grid")
	}
	if !g.GetRB(0, 0, 3).Assigned || !g.GetRB(0, 1, 3).Assigned {
		t.Error("both slots should be assigned after AllocateRBPair")
	}
}

func TestAllocateRBPair_PartialFailure_RollsBack(t *testing.T) {
	// GIVEN slot 1 of freq 3 already assigned to UE2
	g, _ := NewResourceGrid(5, 1)
	g.AllocateRB(0, 1, 3, 2)

	// WHEN UE1 tries to allocate the pair
	ok := g.AllocateRBPair(0, 3, 1)

	// THEN it fails and slot 0 (which would have succeeded) is rolled back to free
	if ok {
		t.Fatal("AllocateRBPair should fail when one slot is taken")
	}
	if g.GetRB(0, 0, 3).Assigned {
		t.Error("slot 0 should have been released on rollback")
	}
	if g.GetRB(0, 1, 3).UEID != 2 {
		t.Error("slot 1 ownership should be untouched")
	}
}

func TestGetRBGIndices_LastGroupShort(t *testing.T) {
	// GIVEN a 3MHz grid: 15 RB/slot, RBG size 2 -> 8 groups, last sized 1
	g, _ := NewResourceGrid(3, 1)

	if g.TotalRBG() != 8 {
		t.Fatalf("TotalRBG = %d, want 8", g.TotalRBG())
	}
	last := g.GetRBGIndices(7)
	if len(last) != 1 || last[0] != 14 {
		t.Errorf("last RBG indices = %v, want [14]", last)
	}
	first := g.GetRBGIndices(0)
	if len(first) != 2 {
		t.Errorf("first RBG indices = %v, want length 2", first)
	}
}

func TestAllocateRBG_AtomicOverBothSlots(t *testing.T) {
	// GIVEN a 3MHz grid
	g, _ := NewResourceGrid(3, 1)

	// WHEN RBG 0 is allocated to UE5
	ok := g.AllocateRBG(0, 0, 5)
	if !ok {
		t.Fatal("AllocateRBG failed on free grid")
	}

	// THEN every RB of RBG 0 in both slots belongs to UE5
	for _, freq := range g.GetRBGIndices(0) {
		for slot := 0; slot < 2; slot++ {
			rb := g.GetRB(0, slot, freq)
			if !rb.Assigned || rb.UEID != 5 {
				t.Errorf("RB (slot=%d,freq=%d) not assigned to UE5: %+v", slot, freq, rb)
			}
		}
	}
}

func TestAllocateRBG_SubFailure_RollsBackWholeGroup(t *testing.T) {
	// GIVEN RBG 0 covers freq {0,1}; freq 1 slot 1 is pre-assigned to UE9
	g, _ := NewResourceGrid(3, 1)
	g.AllocateRB(0, 1, 1, 9)

	// WHEN UE5 tries to allocate RBG 0
	ok := g.AllocateRBG(0, 0, 5)

	// THEN it fails and freq 0 (which would have succeeded first) is rolled back
	if ok {
		t.Fatal("AllocateRBG should fail when any sub-RB is taken")
	}
	if g.GetRB(0, 0, 0).Assigned || g.GetRB(0, 1, 0).Assigned {
		t.Error("freq 0 should be rolled back to free")
	}
}

func TestGenerateBitmap_MarksOnlyOwnedRBGs(t *testing.T) {
	// GIVEN UE1 owns RBG 0, UE2 owns RBG 1, in a 3MHz grid (8 RBGs)
	g, _ := NewResourceGrid(3, 1)
	g.AllocateRBG(0, 0, 1)
	g.AllocateRBG(0, 1, 2)

	bitmap := g.GenerateBitmap(0, 1)

	if len(bitmap) != 8 {
		t.Fatalf("bitmap length = %d, want 8", len(bitmap))
	}
	if !bitmap[0] {
		t.Error("bitmap[0] should be true (owned by UE1)")
	}
	if bitmap[1] {
		t.Error("bitmap[1] should be false (owned by UE2)")
	}
	for k := 2; k < 8; k++ {
		if bitmap[k] {
			t.Errorf("bitmap[%d] should be false (unallocated)", k)
		}
	}
}

func TestFreeRBsForTTI_ExcludesAssigned(t *testing.T) {
	// GIVEN a 5MHz grid with freq 0 allocated in both slots
	g, _ := NewResourceGrid(5, 1)
	g.AllocateRBPair(0, 0, 1)

	free := g.FreeRBsForTTI(0)

	// THEN free count is 2*25 - 2
	want := 2*g.RBPerSlot() - 2
	if len(free) != want {
		t.Errorf("FreeRBsForTTI length = %d, want %d", len(free), want)
	}
}

func TestResetGrid_ClearsAllStateAndCounters(t *testing.T) {
	// GIVEN a grid with several allocations
	g, _ := NewResourceGrid(5, 1)
	g.AllocateRBG(0, 0, 1)
	g.AllocateRBG(0, 1, 2)

	// WHEN reset
	g.ResetGrid()

	// THEN every RB is free and counters are zero
	if g.TotalAllocatedRBs() != 0 {
		t.Errorf("TotalAllocatedRBs = %d, want 0 after reset", g.TotalAllocatedRBs())
	}
	if len(g.FreeRBsForTTI(0)) != 2*g.RBPerSlot() {
		t.Error("not all RBs free after reset")
	}
}

func TestGridConservation_AcrossAllocations(t *testing.T) {
	// Free and allocated RB counts must always sum to the TTI's total capacity.
	g, _ := NewResourceGrid(10, 1)
	g.AllocateRBG(0, 0, 1)
	g.AllocateRBG(0, 1, 2)
	g.AllocateRBG(0, 2, 1)

	free := len(g.FreeRBsForTTI(0))
	allocated := g.TotalAllocatedRBs()
	total := 2 * g.RBPerSlot()

	if free+allocated != total {
		t.Errorf("conservation violated: free=%d allocated=%d total=%d", free, allocated, total)
	}
}
