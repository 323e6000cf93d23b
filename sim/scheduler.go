// Implements the per-TTI scheduling pipeline: common pre/post-processing
// shared by every policy, plus the three concrete policies (Round-Robin,
// Best-CQI, Proportional-Fair) that decide which UE each RBG goes to.

package sim

import (
	"fmt"
	"sort"
)

// UEView is the read-mostly snapshot the scheduler consumes for one UE in
// one TTI. Handle is a non-owning reference back to the UE's persistent
// state (CurrentDLThroughputBitsPerTTI, AverageDLThroughput, PFMetric) so
// policies and the post-allocation dequeue step can update it in place.
type UEView struct {
	UEID            int
	CQI             int
	BufferSizeBytes int64
	Handle          *UE
}

// Policy assigns RBGs to UEs for one TTI. Implementations mutate grid via
// AllocateRBG and return the freq-index allocation and RA bitmap built from
// it. active holds only UEs with a non-empty buffer and a valid CQI;
// allViews holds every UE regardless of eligibility (needed by PF, which
// decays every UE's average even when it received nothing).
type Policy interface {
	Name() string
	Allocate(tti int64, grid *ResourceGrid, active []*UEView, allViews []*UEView, pf PFConfig) (allocation map[int][]int, bitmap map[int][]bool)
}

// externalPolicies holds Policy constructors registered by collaborator
// packages that must not be imported by sim directly (plugin imports sim,
// so the reverse import would cycle). RegisterPolicy lets such a package
// add itself to NewPolicy/IsValidPolicy's recognized name set without the
// core special-casing it anywhere, the same open-registration idiom
// database/sql drivers and image format decoders use.
var externalPolicies = map[string]func() Policy{}

// RegisterPolicy adds name as a recognized scheduler, constructed via
// factory. Intended to be called from a collaborator package's init().
func RegisterPolicy(name string, factory func() Policy) {
	externalPolicies[name] = factory
}

// NewPolicy constructs a Policy by name. Built-in names: "round_robin",
// "best_cqi", "proportional_fair", plus anything registered via
// RegisterPolicy. Panics on unrecognized names.
func NewPolicy(name string) Policy {
	switch name {
	case "round_robin":
		return NewRoundRobinPolicy()
	case "best_cqi":
		return &BestCQIPolicy{}
	case "proportional_fair":
		return &ProportionalFairPolicy{}
	}
	if factory, ok := externalPolicies[name]; ok {
		return factory()
	}
	panic(fmt.Sprintf("unknown scheduler %q", name))
}

// IsValidPolicy reports whether name is a recognized scheduling policy,
// built-in or registered via RegisterPolicy.
func IsValidPolicy(name string) bool {
	switch name {
	case "round_robin", "best_cqi", "proportional_fair":
		return true
	}
	_, ok := externalPolicies[name]
	return ok
}

// === Round-Robin ===

// RoundRobinPolicy carries last_served_ue_id across TTIs so the starting
// cursor advances past whoever was served last, even across empty TTIs.
type RoundRobinPolicy struct {
	lastServedUEID int
	hasLast        bool
}

// NewRoundRobinPolicy returns a RoundRobinPolicy with no serving history.
func NewRoundRobinPolicy() *RoundRobinPolicy { return &RoundRobinPolicy{} }

func (p *RoundRobinPolicy) Name() string { return "round_robin" }

func (p *RoundRobinPolicy) Allocate(tti int64, grid *ResourceGrid, active []*UEView, _ []*UEView, _ PFConfig) (map[int][]int, map[int][]bool) {
	allocation := map[int][]int{}
	bitmap := map[int][]bool{}
	if len(active) == 0 {
		return allocation, bitmap
	}

	remaining := make(map[int]int64, len(active))
	for _, v := range active {
		remaining[v.UEID] = v.BufferSizeBytes * 8
	}

	cursor := 0
	if p.hasLast {
		for i, v := range active {
			if v.UEID == p.lastServedUEID {
				cursor = (i + 1) % len(active)
				break
			}
		}
	}

	allocatedAny := false
	lastAllocated := p.lastServedUEID

	for rbg := 0; rbg < grid.TotalRBG(); rbg++ {
		found := -1
		idx := cursor
		for i := 0; i < len(active); i++ {
			if remaining[active[idx].UEID] > 0 {
				found = idx
				break
			}
			idx = (idx + 1) % len(active)
		}
		if found == -1 {
			break // no UE has remaining bits left; nothing more to schedule this TTI
		}

		v := active[found]
		cursor = (found + 1) % len(active)

		if grid.AllocateRBG(tti, rbg, v.UEID) {
			indices := grid.GetRBGIndices(rbg)
			allocation[v.UEID] = append(allocation[v.UEID], indices...)
			dec := int64(len(indices)) * int64(MustBitsPerRB(v.CQI)) * 2
			if dec > remaining[v.UEID] {
				dec = remaining[v.UEID]
			}
			remaining[v.UEID] -= dec
			lastAllocated = v.UEID
			allocatedAny = true
		}
		// On a grid refusal, RR does not retry the same RBG with another
		// candidate: it moves on to the next RBG.
	}

	if allocatedAny {
		p.lastServedUEID = lastAllocated
		p.hasLast = true
	}
	for _, v := range active {
		bitmap[v.UEID] = grid.GenerateBitmap(tti, v.UEID)
	}
	return allocation, bitmap
}

// === Best-CQI ===

// BestCQIPolicy is stateless: every TTI it re-ranks the active set by CQI.
type BestCQIPolicy struct{}

func (p *BestCQIPolicy) Name() string { return "best_cqi" }

func (p *BestCQIPolicy) Allocate(tti int64, grid *ResourceGrid, active []*UEView, _ []*UEView, _ PFConfig) (map[int][]int, map[int][]bool) {
	return allocateByMetric(tti, grid, active, func(v *UEView) float64 { return float64(v.CQI) })
}

// === Proportional-Fair ===

// ProportionalFairPolicy ranks the active set by the PF metric
// (instantaneous achievable rate over a smoothed average rate) and decays
// every UE's average throughput after allocating, whether or not it was
// scheduled this TTI.
type ProportionalFairPolicy struct{}

func (p *ProportionalFairPolicy) Name() string { return "proportional_fair" }

func (p *ProportionalFairPolicy) Allocate(tti int64, grid *ResourceGrid, active []*UEView, allViews []*UEView, pf PFConfig) (map[int][]int, map[int][]bool) {
	if len(active) == 0 {
		return map[int][]int{}, map[int][]bool{}
	}

	nRBPerSlot := grid.RBPerSlot()
	for _, v := range active {
		instantRate := float64(nRBPerSlot) * float64(MustBitsPerRB(v.CQI)) * 2 * 1000
		avg := v.Handle.AverageDLThroughput
		if avg < pf.AvgFloor {
			avg = pf.AvgFloor
		}
		v.Handle.PFMetric = instantRate / avg
	}

	allocation, bitmap := allocateByMetric(tti, grid, active, func(v *UEView) float64 { return v.Handle.PFMetric })

	// EMA decay applies to every UE, active or not, after this TTI's
	// allocation loop runs (Kushner-Whiting: never freeze an idle UE's
	// average). Dequeue (and hence CurrentDLThroughputBitsPerTTI) happens
	// in the post-allocation step the caller runs right after Allocate, so
	// the caller is responsible for invoking DecayAverages once dequeue has
	// set each UE's current-TTI sample.
	_ = allViews
	return allocation, bitmap
}

// DecayAverages applies the PF EMA update to every UE in views, regardless
// of whether it received an allocation this TTI. Callers must run the
// post-allocation dequeue step (which sets CurrentDLThroughputBitsPerTTI)
// before calling this.
func (p *ProportionalFairPolicy) DecayAverages(allViews []*UEView, pf PFConfig) {
	for _, v := range allViews {
		v.Handle.UpdateEMA(pf.Alpha, pf.AvgFloor)
	}
}

// allocateByMetric implements the shared Best-CQI/PF allocation loop: for
// each RBG, among active UEs with remaining_bits > 0, pick the one with the
// highest metric (tie-break by lowest UE ID), try to allocate, and on a
// grid refusal retry the next-best candidate for the same RBG.
func allocateByMetric(tti int64, grid *ResourceGrid, active []*UEView, metric func(*UEView) float64) (map[int][]int, map[int][]bool) {
	allocation := map[int][]int{}
	bitmap := map[int][]bool{}

	remaining := make(map[int]int64, len(active))
	byID := make(map[int]*UEView, len(active))
	for _, v := range active {
		remaining[v.UEID] = v.BufferSizeBytes * 8
		byID[v.UEID] = v
	}

	for rbg := 0; rbg < grid.TotalRBG(); rbg++ {
		candidates := make([]*UEView, 0, len(active))
		for _, v := range active {
			if remaining[v.UEID] > 0 {
				candidates = append(candidates, v)
			}
		}
		rankByMetricDesc(candidates, metric)

		for _, v := range candidates {
			if grid.AllocateRBG(tti, rbg, v.UEID) {
				indices := grid.GetRBGIndices(rbg)
				allocation[v.UEID] = append(allocation[v.UEID], indices...)
				dec := int64(len(indices)) * int64(MustBitsPerRB(v.CQI)) * 2
				if dec > remaining[v.UEID] {
					dec = remaining[v.UEID]
				}
				remaining[v.UEID] -= dec
				break
			}
			// Grid refusal: try the next-best candidate for this RBG.
		}
	}

	for _, v := range active {
		bitmap[v.UEID] = grid.GenerateBitmap(tti, v.UEID)
	}
	return allocation, bitmap
}

// rankByMetricDesc sorts candidates by metric descending, breaking ties by
// lowest UE ID, in place.
func rankByMetricDesc(candidates []*UEView, metric func(*UEView) float64) {
	sort.SliceStable(candidates, func(i, j int) bool {
		mi, mj := metric(candidates[i]), metric(candidates[j])
		if mi != mj {
			return mi > mj
		}
		return candidates[i].UEID < candidates[j].UEID
	})
}

// Result is the per-TTI output of SchedulerCore.Schedule.
type Result struct {
	Allocation map[int][]int
	Bitmap     map[int][]bool
	Statistics StatsSnapshot
}

// SchedulerCore runs the common pre/post-processing around one Policy: it
// builds UE views, hands the active set to the policy, dequeues bytes from
// the buffer according to what was allocated, and builds the per-TTI stats
// snapshot.
type SchedulerCore struct {
	Policy Policy
	PF     PFConfig
}

// NewSchedulerCore pairs a policy with its PF tuning (unused by RR/Best-CQI).
func NewSchedulerCore(policy Policy, pf PFConfig) *SchedulerCore {
	return &SchedulerCore{Policy: policy, PF: pf}
}

// Schedule runs one TTI of the pipeline: zero throughput counters, build the
// active set, delegate RBG assignment to the policy, dequeue bytes per UE,
// decay PF averages if applicable, and build the stats snapshot.
func (sc *SchedulerCore) Schedule(tti int64, ues []*UE, buffer *DLBuffer, grid *ResourceGrid) Result {
	for _, u := range ues {
		u.ResetForTTI()
	}

	allViews := make([]*UEView, 0, len(ues))
	active := make([]*UEView, 0, len(ues))
	viewByID := make(map[int]*UEView, len(ues))
	for _, u := range ues {
		view := &UEView{UEID: u.ID, CQI: u.CQI, BufferSizeBytes: buffer.BufferSize(u.ID), Handle: u}
		allViews = append(allViews, view)
		viewByID[u.ID] = view
		if view.BufferSizeBytes > 0 && ValidCQI(u.CQI) {
			active = append(active, view)
		}
	}

	if len(active) == 0 {
		if pfPolicy, ok := sc.Policy.(*ProportionalFairPolicy); ok {
			pfPolicy.DecayAverages(allViews, sc.PF)
		}
		return Result{Allocation: map[int][]int{}, Bitmap: map[int][]bool{}, Statistics: StatsSnapshot{TTI: tti}}
	}

	allocation, bitmap := sc.Policy.Allocate(tti, grid, active, allViews, sc.PF)

	for ueID, freqIdx := range allocation {
		v := viewByID[ueID]
		allocatedRBCount := 2 * len(freqIdx)
		if allocatedRBCount == 0 {
			continue
		}
		bitsPerRB := MustBitsPerRB(v.CQI)
		maxBytes := int64(allocatedRBCount) * int64(bitsPerRB) / 8
		_, bytesSent := buffer.GetPackets(ueID, maxBytes, bitsPerRB, tti)
		v.Handle.CurrentDLThroughputBitsPerTTI = bytesSent * 8
	}

	if pfPolicy, ok := sc.Policy.(*ProportionalFairPolicy); ok {
		pfPolicy.DecayAverages(allViews, sc.PF)
	}

	return Result{
		Allocation: allocation,
		Bitmap:     bitmap,
		Statistics: BuildStatsSnapshot(tti, allocation, viewByID),
	}
}
