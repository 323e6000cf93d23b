package channel

import (
	"math"
	"math/rand"
)

// RMa implements the Rural Macro propagation model (3GPP TR 38.901 7.4.1,
// rural macro scenario): low building density, long breakpoint distances.
type RMa struct {
	base
	streetWidthM, buildingHeightM float64
}

// NewRMa constructs an RMa model. bs.HeightM is overridden to the RMa
// default (35m) if left at zero.
func NewRMa(bs BSParams, ueHeightM float64) *RMa {
	if bs.HeightM == 0 {
		bs.HeightM = 35
	}
	m := &RMa{streetWidthM: 20, buildingHeightM: 5}
	m.base = newBase(bs, ueHeightM, 4.0, 8.0, 37, 120, m.pathLoss, m.losProbability)
	return m
}

func (m *RMa) breakpointDistance(ueHeightM float64) float64 {
	freqHz := m.bs.FrequencyGHz * 1e9
	return (2 * math.Pi * m.bs.HeightM * ueHeightM * freqHz) / 3.0e8
}

func (m *RMa) losProbability(d2D, ueHeightM float64) float64 {
	if d2D <= 10 {
		return 1
	}
	return math.Exp(-(d2D - 10) / 1000)
}

func (m *RMa) losPathLoss(d2D, d3D, ueHeightM float64) float64 {
	dBP := m.breakpointDistance(ueHeightM)
	h := m.buildingHeightM
	switch {
	case d2D >= 10 && d2D <= dBP:
		return 20*math.Log10(40*math.Pi*d3D*m.bs.FrequencyGHz/3.0) +
			math.Min(0.03*math.Pow(h, 1.72), 10)*math.Log10(d3D) -
			math.Min(0.044*math.Pow(h, 1.72), 14.77) + 0.002*math.Log10(h)*d3D
	case d2D > dBP && d2D <= 10000:
		plAtBP := 20*math.Log10(40*math.Pi*dBP*m.bs.FrequencyGHz/3.0) +
			math.Min(0.03*math.Pow(h, 1.72), 10)*math.Log10(dBP) -
			math.Min(0.044*math.Pow(h, 1.72), 14.77) + 0.002*math.Log10(h)*dBP
		return plAtBP + 40*math.Log10(d3D/dBP)
	default:
		return 10000
	}
}

func (m *RMa) pathLoss(los bool, d2D, d3D, ueHeightM float64) float64 {
	if d2D < 10 || d2D > 5000 {
		return 10000
	}
	plLOS := m.losPathLoss(d2D, d3D, ueHeightM)
	if los {
		return plLOS
	}
	h := m.buildingHeightM
	plNLOS := 161.04 - 7.1*math.Log10(m.streetWidthM) + 7.5*math.Log10(h) -
		(24.37-3.7*math.Pow(h/m.bs.HeightM, 2))*math.Log10(m.bs.HeightM) +
		(43.42-3.1*math.Log10(m.bs.HeightM))*(math.Log10(d3D)-3) +
		20*math.Log10(m.bs.FrequencyGHz) -
		(3.2*math.Pow(math.Log10(11.75*ueHeightM), 2) - 4.97)
	return math.Max(plLOS, plNLOS)
}

func (m *RMa) CQI(ueID int, tti int64, position [2]float64, rng *rand.Rand) int {
	return m.cqiFor(ueID, position, rng)
}
