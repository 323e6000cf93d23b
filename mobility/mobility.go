// Package mobility implements position-update models for UEs: random-walk,
// random-waypoint, random-direction and Gauss-Markov. Each satisfies
// sim.MobilityModel's Step(ueID, tti, rng, position) signature; per-UE
// velocity/direction/pause state that the update needs across calls is
// kept internally, keyed by UE ID, since the interface itself is stateless
// from the caller's perspective.
package mobility

import (
	"math"
	"math/rand"
)

// Bounds clamps the simulated area; every model confines UEs to it.
type Bounds struct {
	XMin, XMax, YMin, YMax float64
}

func (b Bounds) contains(x, y float64) bool {
	return x >= b.XMin && x <= b.XMax && y >= b.YMin && y <= b.YMax
}

// VelocityRange bounds the speed (m/s) a model draws for a UE.
type VelocityRange struct {
	Min, Max float64
}

func (v VelocityRange) sample(rng *rand.Rand) float64 {
	return v.Min + rng.Float64()*(v.Max-v.Min)
}

// NewModel builds a mobility model by name, matching the factory-by-name
// idiom used elsewhere in this repository for tagged-union dispatch.
// Panics on an unrecognized name.
func NewModel(name string, bounds Bounds, velocity VelocityRange, pauseMs float64) Model {
	switch name {
	case "random_walk":
		return NewRandomWalk(bounds, velocity)
	case "random_waypoint":
		return NewRandomWaypoint(bounds, velocity, pauseMs)
	case "random_direction":
		return NewRandomDirection(bounds, velocity, pauseMs)
	case "gauss_markov":
		return NewGaussMarkov(bounds, velocity, 0.75, pauseMs)
	default:
		panic("mobility: unknown model name " + name)
	}
}

// Model is the local name for the interface sim.MobilityModel expects;
// every variant below implements it structurally without importing sim.
type Model interface {
	Step(ueID int, tti int64, rng *rand.Rand, position [2]float64) [2]float64
}

func clampReflect(v, lo, hi float64) float64 {
	if v < lo {
		return lo + (lo - v)
	}
	if v > hi {
		return hi - (v - hi)
	}
	return v
}

func wrap2Pi(theta float64) float64 {
	for theta < 0 {
		theta += 2 * math.Pi
	}
	for theta >= 2*math.Pi {
		theta -= 2 * math.Pi
	}
	return theta
}
