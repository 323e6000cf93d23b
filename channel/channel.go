// Package channel implements 3GPP TR 38.901-style propagation models (RMa,
// UMa, UMi) that turn a UE's position into a discretized CQI. Each model
// satisfies sim.ChannelModel's CQI(ueID, tti, position, rng) signature.
// The cell is assumed to sit at the origin; a UE's 2D distance is its
// distance from (0,0).
package channel

import (
	"math"
	"math/rand"
)

// BSParams groups the base-station radio parameters every variant needs.
type BSParams struct {
	HeightM       float64
	FrequencyGHz  float64
	TxPowerDBm    float64
	AntennaGainDB float64
	BandwidthMHz  float64
}

type ueState struct {
	initialized   bool
	los           bool
	shadowFadeDB  float64
	lastX, lastY  float64
}

// Model is the local name for the interface sim.ChannelModel expects.
type Model interface {
	CQI(ueID int, tti int64, position [2]float64, rng *rand.Rand) int
}

// pathLossFunc computes path loss in dB given 2D/3D distance and UE height,
// for either LOS or NLOS condition. Implemented per variant.
type pathLossFunc func(los bool, d2D, d3D, ueHeightM float64) float64

// losProbFunc computes the LOS probability at distance d2D.
type losProbFunc func(d2D, ueHeightM float64) float64

// base holds the shared per-UE shadow-fading/LOS-caching logic common to
// RMa/UMa/UMi; each variant supplies its own path-loss and LOS-probability
// formulas plus correlation distances and shadow-fading sigmas.
type base struct {
	bs                BSParams
	ueHeightM         float64
	sigmaLOS, sigmaNLOS float64
	corrLOS, corrNLOS float64

	pathLoss pathLossFunc
	losProb  losProbFunc

	states map[int]*ueState
}

func newBase(bs BSParams, ueHeightM, sigmaLOS, sigmaNLOS, corrLOS, corrNLOS float64, pl pathLossFunc, lp losProbFunc) base {
	return base{
		bs: bs, ueHeightM: ueHeightM,
		sigmaLOS: sigmaLOS, sigmaNLOS: sigmaNLOS,
		corrLOS: corrLOS, corrNLOS: corrNLOS,
		pathLoss: pl, losProb: lp,
		states: make(map[int]*ueState),
	}
}

func (b *base) cqiFor(ueID int, position [2]float64, rng *rand.Rand) int {
	st, ok := b.states[ueID]
	if !ok {
		st = &ueState{}
		b.states[ueID] = st
	}

	x, y := position[0], position[1]
	d2D := math.Hypot(x, y)
	d3D := math.Hypot(d2D, b.bs.HeightM-b.ueHeightM)

	if !st.initialized {
		st.los = rng.Float64() <= b.losProb(d2D, b.ueHeightM)
		st.lastX, st.lastY = x, y
		st.initialized = true
	}

	displacement := math.Hypot(x-st.lastX, y-st.lastY)
	st.lastX, st.lastY = x, y

	sigma := b.sigmaNLOS
	corrDist := b.corrNLOS
	if st.los {
		sigma = b.sigmaLOS
		corrDist = b.corrLOS
	}

	if corrDist <= 0 {
		st.shadowFadeDB = rng.NormFloat64() * sigma
	} else {
		r := math.Exp(-displacement / corrDist)
		st.shadowFadeDB = r*st.shadowFadeDB + math.Sqrt(1-r*r)*rng.NormFloat64()*sigma
	}

	pl := b.pathLoss(st.los, d2D, d3D, b.ueHeightM) + st.shadowFadeDB

	const cableLossDB = 2
	const interferenceMarginDB = 2
	const interferencePowerDBm = -95

	signalDBm := b.bs.TxPowerDBm + b.bs.AntennaGainDB - cableLossDB - pl - interferenceMarginDB
	noiseDBm := -174 + 10*math.Log10(b.bs.BandwidthMHz*1e6)
	sinrDB := signalDBm - 10*math.Log10(math.Pow(10, interferencePowerDBm/10)+math.Pow(10, noiseDBm/10))

	return SINRToCQI(sinrDB)
}

// sinrThresholds gives the minimum SINR (dB) required for each CQI index
// 1..15, following the conventional 3GPP CQI/SINR mapping table used by
// link-adaptation simulators.
var sinrThresholds = []float64{
	-6.7, -4.7, -2.3, 0.2, 2.4, 4.3, 5.9, 8.1, 10.3, 11.7, 14.1, 16.3, 18.7, 21.0, 22.7,
}

// SINRToCQI discretizes a SINR in dB into a CQI in [1,15] via a fixed
// threshold table; SINR below the first threshold still maps to CQI 1
// (the scheduler treats CQI 1 as "servable but very poor" rather than
// excluding the UE outright).
func SINRToCQI(sinrDB float64) int {
	cqi := 1
	for i, threshold := range sinrThresholds {
		if sinrDB >= threshold {
			cqi = i + 1
		}
	}
	return cqi
}
