// Implements the Adaptive Modulation and Coding table: a pure, stateless
// mapping from CQI (1..15) to modulation order / code rate / bits-per-RB.

package sim

import "fmt"

// amcEntry holds the modulation order and code rate for one CQI value.
type amcEntry struct {
	modOrder  int     // bits per symbol (QPSK=2, 16QAM=4, 64QAM=6)
	codeRate  float64 // effective code rate R, 0 < R < 1
}

// amcTable is the immutable 15-entry CQI -> (modulation order, code rate)
// table, matching CQI=15 -> (64QAM, 0.978) exactly as worked through in the
// throughput scenarios (bits_per_rb(15) = floor(84*6*0.978) = 492).
var amcTable = [16]amcEntry{
	// index 0 unused (CQI is 1-indexed)
	1:  {2, 0.152},
	2:  {2, 0.234},
	3:  {2, 0.377},
	4:  {2, 0.601},
	5:  {4, 0.369},
	6:  {4, 0.479},
	7:  {4, 0.601},
	8:  {6, 0.455},
	9:  {6, 0.554},
	10: {6, 0.650},
	11: {6, 0.754},
	12: {6, 0.852},
	13: {6, 0.926},
	14: {6, 0.953},
	15: {6, 0.978},
}

// resourceElementsPerRB is 12 subcarriers * 7 OFDM symbols (normal CP).
const resourceElementsPerRB = 12 * 7

// ValidCQI reports whether cqi is within the defined AMC table range [1,15].
func ValidCQI(cqi int) bool {
	return cqi >= 1 && cqi <= 15
}

// BitsPerRB returns floor(84 * M * R) bits for one RB, one slot, given cqi.
// cqi outside [1,15] is a fatal InvalidArgument error.
func BitsPerRB(cqi int) (int, error) {
	if !ValidCQI(cqi) {
		return 0, fmt.Errorf("InvalidArgument: cqi %d out of range [1,15]", cqi)
	}
	e := amcTable[cqi]
	return int(float64(resourceElementsPerRB) * float64(e.modOrder) * e.codeRate), nil
}

// MustBitsPerRB is BitsPerRB without the error return, for call sites that
// have already validated cqi via the scheduler's active-set filter.
func MustBitsPerRB(cqi int) int {
	bits, err := BitsPerRB(cqi)
	if err != nil {
		panic(err)
	}
	return bits
}

// ModulationOrder returns the modulation order (bits/symbol) for cqi.
func ModulationOrder(cqi int) (int, error) {
	if !ValidCQI(cqi) {
		return 0, fmt.Errorf("InvalidArgument: cqi %d out of range [1,15]", cqi)
	}
	return amcTable[cqi].modOrder, nil
}

// CodeRate returns the effective code rate for cqi.
func CodeRate(cqi int) (float64, error) {
	if !ValidCQI(cqi) {
		return 0, fmt.Errorf("InvalidArgument: cqi %d out of range [1,15]", cqi)
	}
	return amcTable[cqi].codeRate, nil
}
