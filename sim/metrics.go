// Builds the per-TTI stats snapshot the scheduler attaches to its Result,
// and aggregates a run's snapshots into per-frame and overall throughput,
// fairness and spectral-efficiency figures.

package sim

import "sort"

// StatsSnapshot is the per-TTI throughput picture built right after
// SchedulerCore.Schedule runs its dequeue step.
type StatsSnapshot struct {
	TTI                     int64
	TotalAllocatedRBs       int
	UserMaxThroughput       map[int]int64 // bits deliverable in this 1ms TTI, per UE
	UserEffectiveThroughput map[int]int64 // bits actually dequeued, capped at UserMaxThroughput
	UserThroughput          map[int]int64 // alias of UserEffectiveThroughput, kept for call-site clarity
	TotalEffectiveBits      int64
	AverageDLThroughput     float64 // mean effective bits over UEs with throughput > 0; 0 if none
}

// BuildStatsSnapshot computes one TTI's StatsSnapshot from the scheduler's
// allocation map and UE views (already updated by the post-allocation
// dequeue step, so Handle.CurrentDLThroughputBitsPerTTI reflects this TTI).
func BuildStatsSnapshot(tti int64, allocation map[int][]int, viewByID map[int]*UEView) StatsSnapshot {
	snap := StatsSnapshot{
		TTI:                     tti,
		UserMaxThroughput:       make(map[int]int64, len(allocation)),
		UserEffectiveThroughput: make(map[int]int64, len(allocation)),
		UserThroughput:          make(map[int]int64, len(allocation)),
	}

	var sumEffective int64
	activeCount := 0
	for ueID, freqIdx := range allocation {
		rbCount := 2 * len(freqIdx)
		snap.TotalAllocatedRBs += rbCount

		view := viewByID[ueID]
		maxT := int64(rbCount) * int64(MustBitsPerRB(view.CQI))
		snap.UserMaxThroughput[ueID] = maxT

		eff := view.Handle.CurrentDLThroughputBitsPerTTI
		if eff > maxT {
			eff = maxT
		}
		snap.UserEffectiveThroughput[ueID] = eff
		snap.UserThroughput[ueID] = eff
		sumEffective += eff
		if eff > 0 {
			activeCount++
		}
	}

	snap.TotalEffectiveBits = sumEffective
	if activeCount > 0 {
		snap.AverageDLThroughput = float64(sumEffective) / float64(activeCount)
	}
	return snap
}

// jainsIndex computes Jain's fairness index over xs, with the convention
// that an all-zero input is perfectly fair (J=1).
func jainsIndex(xs []float64) float64 {
	if len(xs) == 0 {
		return 1
	}
	var sum, sumSq float64
	allZero := true
	for _, x := range xs {
		sum += x
		sumSq += x * x
		if x != 0 {
			allZero = false
		}
	}
	if allZero {
		return 1
	}
	return (sum * sum) / (float64(len(xs)) * sumSq)
}

const ttisPerFrame = 10

// FrameStats summarizes one 10-TTI frame.
type FrameStats struct {
	FrameIndex              int             `json:"frame_index"`
	CellThroughputMbps      float64         `json:"cell_throughput_mbps"`
	PerUEThroughputMbps     map[int]float64 `json:"per_ue_throughput_mbps"`
	JainIndex               float64         `json:"jain_index"`
	SpectralEfficiencyBpsHz float64         `json:"spectral_efficiency_mbps_per_mhz"`
}

// Report is the end-of-run aggregate produced by StatsAggregator.BuildReport.
type Report struct {
	NumTTIs                     int                 `json:"num_ttis"`
	Frames                      []FrameStats        `json:"frames"`
	CellThroughputMbpsPerFrame  []float64           `json:"cell_throughput_mbps_per_frame"`
	PerUEThroughputMbpsPerFrame map[int][]float64   `json:"per_ue_throughput_mbps_per_frame"`
	JainPerFrame                []float64           `json:"jain_per_frame"`
	JainOverall                 float64             `json:"jain_overall"`
	SpectralEfficiencyPerFrame  []float64           `json:"spectral_efficiency_mbps_per_mhz_per_frame"`
}

// StatsAggregator accumulates per-TTI snapshots over a run and builds the
// end-of-run Report.
type StatsAggregator struct {
	bandwidthMHz float64
	snapshots    []StatsSnapshot
}

// NewStatsAggregator constructs an aggregator for a cell of the given
// bandwidth (used only to compute spectral efficiency).
func NewStatsAggregator(bandwidthMHz float64) *StatsAggregator {
	return &StatsAggregator{bandwidthMHz: bandwidthMHz}
}

// RecordTTI appends one TTI's snapshot to the run history.
func (a *StatsAggregator) RecordTTI(snap StatsSnapshot) {
	a.snapshots = append(a.snapshots, snap)
}

// Snapshots returns the recorded per-TTI history, oldest first.
func (a *StatsAggregator) Snapshots() []StatsSnapshot { return a.snapshots }

// BuildReport aggregates the recorded snapshots into per-frame (10-TTI) cell
// and per-UE throughput, Jain's fairness index, and spectral efficiency, plus
// an overall Jain's index across the whole horizon.
func (a *StatsAggregator) BuildReport() Report {
	numFrames := (len(a.snapshots) + ttisPerFrame - 1) / ttisPerFrame
	report := Report{
		NumTTIs:                     len(a.snapshots),
		Frames:                      make([]FrameStats, 0, numFrames),
		CellThroughputMbpsPerFrame:  make([]float64, 0, numFrames),
		PerUEThroughputMbpsPerFrame: make(map[int][]float64),
		JainPerFrame:                make([]float64, 0, numFrames),
		SpectralEfficiencyPerFrame:  make([]float64, 0, numFrames),
	}

	for f := 0; f < numFrames; f++ {
		start := f * ttisPerFrame
		end := start + ttisPerFrame
		if end > len(a.snapshots) {
			end = len(a.snapshots)
		}
		frame := a.snapshots[start:end]
		n := float64(len(frame))

		var sumEffective int64
		perUESum := make(map[int]int64)
		for _, snap := range frame {
			sumEffective += snap.TotalEffectiveBits
			for ueID, eff := range snap.UserEffectiveThroughput {
				perUESum[ueID] += eff
			}
		}

		meanBitsPerTTI := float64(sumEffective) / n
		cellMbps := meanBitsPerTTI * ttiPerSecond / 1e6

		ueIDs := make([]int, 0, len(perUESum))
		for ueID := range perUESum {
			ueIDs = append(ueIDs, ueID)
		}
		sort.Ints(ueIDs)

		perUEMbps := make(map[int]float64, len(ueIDs))
		ueThroughputs := make([]float64, 0, len(ueIDs))
		for _, ueID := range ueIDs {
			mbps := (float64(perUESum[ueID]) / n) * ttiPerSecond / 1e6
			perUEMbps[ueID] = mbps
			report.PerUEThroughputMbpsPerFrame[ueID] = append(report.PerUEThroughputMbpsPerFrame[ueID], mbps)
			ueThroughputs = append(ueThroughputs, mbps)
		}

		jain := jainsIndex(ueThroughputs)
		spectralEff := 0.0
		if a.bandwidthMHz > 0 {
			spectralEff = cellMbps / a.bandwidthMHz
		}

		report.CellThroughputMbpsPerFrame = append(report.CellThroughputMbpsPerFrame, cellMbps)
		report.JainPerFrame = append(report.JainPerFrame, jain)
		report.SpectralEfficiencyPerFrame = append(report.SpectralEfficiencyPerFrame, spectralEff)
		report.Frames = append(report.Frames, FrameStats{
			FrameIndex:              f,
			CellThroughputMbps:      cellMbps,
			PerUEThroughputMbps:     perUEMbps,
			JainIndex:               jain,
			SpectralEfficiencyBpsHz: spectralEff,
		})
	}

	overallPerUE := make(map[int]int64)
	for _, snap := range a.snapshots {
		for ueID, eff := range snap.UserEffectiveThroughput {
			overallPerUE[ueID] += eff
		}
	}
	overallUEIDs := make([]int, 0, len(overallPerUE))
	for ueID := range overallPerUE {
		overallUEIDs = append(overallUEIDs, ueID)
	}
	sort.Ints(overallUEIDs)
	overallThroughputs := make([]float64, 0, len(overallUEIDs))
	for _, ueID := range overallUEIDs {
		overallThroughputs = append(overallThroughputs, float64(overallPerUE[ueID]))
	}
	report.JainOverall = jainsIndex(overallThroughputs)

	return report
}

// ttiPerSecond converts a per-TTI (1ms) bit count into a per-second rate.
const ttiPerSecond = 1000
