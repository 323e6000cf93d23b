// Package plugin hosts scheduling policies outside the core's scheduler
// set: a deterministic stand-in for the MATLAB glue code's external
// CatBoost per-RB classifier, wired behind the same sim.Policy interface
// the core's round-robin/best-CQI/PF policies implement, so the core never
// special-cases it.
package plugin

import (
	"sort"

	sim "github.com/ltemacsim/ltemacsim/sim"
)

// CatBoostStub scores each UE/RBG pairing with a fixed linear model over
// CQI and buffer backlog in place of a real trained classifier, giving
// callers a policy they can select without standing up the external model.
type CatBoostStub struct {
	cqiWeight    float64
	backlogWeight float64
}

// NewCatBoostStub builds the placeholder scorer. Default weights favor CQI
// over backlog, mirroring a classifier that was trained primarily on
// channel quality.
func NewCatBoostStub() *CatBoostStub {
	return &CatBoostStub{cqiWeight: 1.0, backlogWeight: 0.0001}
}

func (c *CatBoostStub) Name() string { return "catboost-stub" }

func (c *CatBoostStub) score(v *sim.UEView) float64 {
	return c.cqiWeight*float64(v.CQI) + c.backlogWeight*float64(v.BufferSizeBytes)
}

// Allocate ranks active UEs by the stub's score and grants each RBG to the
// highest-scoring UE with remaining backlog, retrying the next-best
// candidate on grid refusal — the same fallback behavior as best-CQI/PF.
func (c *CatBoostStub) Allocate(tti int64, grid *sim.ResourceGrid, active []*sim.UEView, _ []*sim.UEView, _ sim.PFConfig) (map[int][]int, map[int][]bool) {
	allocation := map[int][]int{}
	bitmap := map[int][]bool{}

	remaining := make(map[int]int64, len(active))
	for _, v := range active {
		remaining[v.UEID] = v.BufferSizeBytes * 8
	}

	for rbg := 0; rbg < grid.TotalRBG(); rbg++ {
		candidates := make([]*sim.UEView, 0, len(active))
		for _, v := range active {
			if remaining[v.UEID] > 0 {
				candidates = append(candidates, v)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			si, sj := c.score(candidates[i]), c.score(candidates[j])
			if si != sj {
				return si > sj
			}
			return candidates[i].UEID < candidates[j].UEID
		})

		for _, v := range candidates {
			if grid.AllocateRBG(tti, rbg, v.UEID) {
				indices := grid.GetRBGIndices(rbg)
				allocation[v.UEID] = append(allocation[v.UEID], indices...)
				dec := int64(len(indices)) * int64(sim.MustBitsPerRB(v.CQI)) * 2
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
