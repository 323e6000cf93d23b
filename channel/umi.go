package channel

import (
	"math"
	"math/rand"
)

// UMi implements the Urban Micro propagation model (3GPP TR 38.901 7.4.1).
type UMi struct {
	base
}

func NewUMi(bs BSParams, ueHeightM float64) *UMi {
	if bs.HeightM == 0 {
		bs.HeightM = 10
	}
	m := &UMi{}
	m.base = newBase(bs, ueHeightM, 4.0, 7.82, 10, 13, m.pathLoss, m.losProbability)
	return m
}

func (m *UMi) breakpointDistance(ueHeightM float64) float64 {
	const hE = 1.0
	bsHeightPrime := m.bs.HeightM - hE
	ueHeightPrime := ueHeightM - hE
	freqHz := m.bs.FrequencyGHz * 1e9
	return (4 * bsHeightPrime * ueHeightPrime * freqHz) / 3.0e8
}

func (m *UMi) losProbability(d2D, ueHeightM float64) float64 {
	if d2D <= 18 {
		return 1
	}
	return (18 / d2D) + math.Exp(-d2D/36)*(1-(18/d2D))
}

func (m *UMi) losPathLoss(d2D, d3D, ueHeightM float64) float64 {
	dBP := m.breakpointDistance(ueHeightM)
	switch {
	case d2D >= 10 && d2D <= dBP:
		return 32.4 + 21*math.Log10(d3D) + 20*math.Log10(m.bs.FrequencyGHz)
	case d2D > dBP && d2D <= 5000:
		return 32.4 + 40*math.Log10(d3D) + 20*math.Log10(m.bs.FrequencyGHz) -
			9.5*math.Log10(math.Pow(dBP, 2)+math.Pow(m.bs.HeightM-ueHeightM, 2))
	default:
		return 10000
	}
}

func (m *UMi) pathLoss(los bool, d2D, d3D, ueHeightM float64) float64 {
	if d2D < 10 || d2D > 5000 {
		return 10000
	}
	plLOS := m.losPathLoss(d2D, d3D, ueHeightM)
	if los {
		return plLOS
	}
	plNLOS := 35.3*math.Log10(d3D) + 22.4 + 21.3*math.Log10(m.bs.FrequencyGHz) - 0.3*(ueHeightM-1.5)
	return math.Max(plLOS, plNLOS)
}

func (m *UMi) CQI(ueID int, tti int64, position [2]float64, rng *rand.Rand) int {
	return m.cqiFor(ueID, position, rng)
}

// NewModel builds a channel model by name, matching the factory-by-name
// idiom used for tagged-union dispatch elsewhere in this repository.
// Panics on an unrecognized name.
func NewModel(name string, bs BSParams, ueHeightM float64) Model {
	switch name {
	case "rma":
		return NewRMa(bs, ueHeightM)
	case "uma":
		return NewUMa(bs, ueHeightM)
	case "umi":
		return NewUMi(bs, ueHeightM)
	default:
		panic("channel: unknown model name " + name)
	}
}
