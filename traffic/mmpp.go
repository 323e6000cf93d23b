package traffic

import "math/rand"

// MMPP is a two-state Markov-modulated Poisson process: arrivals follow a
// Poisson process whose rate switches between lowRatePerSec and
// highRatePerSec according to a continuous-time two-state Markov chain
// with transition rates lowToHigh/highToLow (per ms).
type MMPP struct {
	low, high      *Poisson
	lowToHigh      float64
	highToLow      float64
	inHighState    bool
	initialized    bool
}

func NewMMPP(lowRatePerSec, highRatePerSec float64, minSizeBytes, maxSizeBytes int, lowToHigh, highToLow float64) *MMPP {
	return &MMPP{
		low:       NewPoisson(lowRatePerSec, minSizeBytes, maxSizeBytes),
		high:      NewPoisson(highRatePerSec, minSizeBytes, maxSizeBytes),
		lowToHigh: lowToHigh,
		highToLow: highToLow,
	}
}

func (m *MMPP) GenerateArrivals(fromMs, toMs int64, rng *rand.Rand) []int {
	if !m.initialized {
		steady := m.lowToHigh / (m.lowToHigh + m.highToLow)
		m.inHighState = rng.Float64() < steady
		m.initialized = true
	}

	var sizes []int
	cursor := fromMs
	for cursor < toMs {
		rate := m.lowToHigh
		if m.inHighState {
			rate = m.highToLow
		}
		segmentEnd := toMs
		switches := false
		if rate > 0 {
			if end := float64(cursor) + rng.ExpFloat64()/rate; end < float64(toMs) {
				segmentEnd = int64(end)
				switches = true
			}
		}

		model := m.low
		if m.inHighState {
			model = m.high
		}
		sizes = append(sizes, model.GenerateArrivals(cursor, segmentEnd, rng)...)

		cursor = segmentEnd
		if switches {
			m.inHighState = !m.inHighState
		}
	}
	return sizes
}
