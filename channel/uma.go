package channel

import (
	"math"
	"math/rand"
)

// UMa implements the Urban Macro propagation model (3GPP TR 38.901 7.4.1).
type UMa struct {
	base
}

func NewUMa(bs BSParams, ueHeightM float64) *UMa {
	if bs.HeightM == 0 {
		bs.HeightM = 25
	}
	m := &UMa{}
	m.base = newBase(bs, ueHeightM, 4.0, 6.0, 37, 50, m.pathLoss, m.losProbability)
	return m
}

func (m *UMa) breakpointDistance(ueHeightM, d2D float64) float64 {
	var hE float64 = 1
	if ueHeightM >= 13 && ueHeightM <= 23 {
		var g float64
		if d2D > 18 {
			g = 1.25 * math.Pow(d2D/100, 3) * math.Exp(-d2D/150)
		}
		c := math.Pow((ueHeightM-13)/10, 1.5) * g
		if c > 0 {
			hE = 12 // deterministic fallback for the probabilistic effective-height draw
		}
	}
	bsHeightPrime := m.bs.HeightM - hE
	ueHeightPrime := ueHeightM - hE
	freqHz := m.bs.FrequencyGHz * 1e9
	return (4 * bsHeightPrime * ueHeightPrime * freqHz) / 3.0e8
}

func (m *UMa) losProbability(d2D, ueHeightM float64) float64 {
	if d2D <= 18 {
		return 1
	}
	cPrime := 0.0
	if ueHeightM >= 13 && ueHeightM <= 23 {
		cPrime = math.Pow((ueHeightM-13)/10, 1.5)
	}
	return ((18/d2D)+math.Exp(-d2D/63)*(1-(18/d2D)))*
		(1+cPrime*1.25*math.Pow(d2D/100, 3)*math.Exp(-d2D/150))
}

func (m *UMa) losPathLoss(d2D, d3D, ueHeightM float64) float64 {
	dBP := m.breakpointDistance(ueHeightM, d2D)
	switch {
	case d2D >= 10 && d2D <= dBP:
		return 28 + 22*math.Log10(d3D) + 20*math.Log10(m.bs.FrequencyGHz)
	case d2D > dBP && d2D <= 5000:
		return 28 + 40*math.Log10(d3D) + 20*math.Log10(m.bs.FrequencyGHz) -
			9*math.Log10(math.Pow(dBP, 2)+math.Pow(m.bs.HeightM-ueHeightM, 2))
	default:
		return 10000
	}
}

func (m *UMa) pathLoss(los bool, d2D, d3D, ueHeightM float64) float64 {
	if d2D < 10 || d2D > 5000 {
		return 10000
	}
	plLOS := m.losPathLoss(d2D, d3D, ueHeightM)
	if los {
		return plLOS
	}
	plNLOS := 13.54 + 39.08*math.Log10(d3D) + 20*math.Log10(m.bs.FrequencyGHz) - 0.6*(ueHeightM-1.5)
	return math.Max(plLOS, plNLOS)
}

func (m *UMa) CQI(ueID int, tti int64, position [2]float64, rng *rand.Rand) int {
	return m.cqiFor(ueID, position, rng)
}
