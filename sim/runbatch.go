// Drives the same UE population through more than one SimulationConfig and
// collects a ComparisonReport keyed by scheduler name. Runs are independent
// and reproducible from their own seed; a small heap orders completion so
// the emitted report is the same regardless of which run actually finishes
// first, the one piece of ordering machinery the per-TTI core itself never
// needs.

package sim

import "container/heap"

// runJob pairs a SimulationConfig with the population to run it against.
type runJob struct {
	cfg    SimulationConfig
	ueIDs  []int
	models func(*Simulator) // optional hook to wire traffic/mobility/channel before Run
}

// runResult is one completed job, ordered by submission index so results
// are emitted in the order the caller listed them.
type runResult struct {
	index int
	name  string
	report Report
}

type runResultHeap []runResult

func (h runResultHeap) Len() int            { return len(h) }
func (h runResultHeap) Less(i, j int) bool  { return h[i].index < h[j].index }
func (h runResultHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *runResultHeap) Push(x interface{}) { *h = append(*h, x.(runResult)) }
func (h *runResultHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// RunComparison runs each config's simulation to completion, one after
// another in the order given, and returns the reports in a map keyed by
// Policy.Scheduler name; when two configs share a name, the later config's
// report is the one kept. configure, if non-nil, is called
// on each constructed Simulator before Run (to set traffic/mobility/channel
// models); pass nil to run with whatever defaults NewSimulator leaves.
func RunComparison(configs []SimulationConfig, ueIDs []int, configure func(*Simulator)) (ComparisonReport, error) {
	pending := &runResultHeap{}
	heap.Init(pending)

	for i, cfg := range configs {
		sim, err := NewSimulator(cfg, ueIDs)
		if err != nil {
			return ComparisonReport{}, err
		}
		if configure != nil {
			configure(sim)
		}
		report := sim.Run()
		heap.Push(pending, runResult{index: i, name: cfg.Policy.Scheduler, report: report})
	}

	results := make(map[string]Report, len(configs))
	for pending.Len() > 0 {
		r := heap.Pop(pending).(runResult)
		results[r.name] = r.report
	}
	return ComparisonReport{Results: results}, nil
}
