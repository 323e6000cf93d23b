package mobility

import (
	"math"
	"math/rand"
)

type gaussMarkovState struct {
	velocity      float64
	direction     float64
	meanDirection float64
	initialized   bool
}

// GaussMarkov evolves velocity and direction as a correlated random process:
// next = alpha*previous + (1-alpha)*mean + noise, steering away from the
// area boundary once within boundaryThreshold of it.
type GaussMarkov struct {
	bounds            Bounds
	velocity          VelocityRange
	alpha             float64
	boundaryThreshold float64
	states            map[int]*gaussMarkovState
}

func NewGaussMarkov(bounds Bounds, velocity VelocityRange, alpha float64, boundaryThreshold float64) *GaussMarkov {
	return &GaussMarkov{
		bounds:            bounds,
		velocity:          velocity,
		alpha:             alpha,
		boundaryThreshold: boundaryThreshold,
		states:            make(map[int]*gaussMarkovState),
	}
}

func (m *GaussMarkov) steerForBoundary(st *gaussMarkovState, x, y float64) {
	switch {
	case x < m.bounds.XMin+m.boundaryThreshold:
		switch {
		case y < m.bounds.YMin+m.boundaryThreshold:
			st.meanDirection = deg2rad(45)
		case y > m.bounds.YMax-m.boundaryThreshold:
			st.meanDirection = deg2rad(315)
		default:
			st.meanDirection = deg2rad(0)
		}
	case x > m.bounds.XMax-m.boundaryThreshold:
		switch {
		case y < m.bounds.YMin+m.boundaryThreshold:
			st.meanDirection = deg2rad(135)
		case y > m.bounds.YMax-m.boundaryThreshold:
			st.meanDirection = deg2rad(225)
		default:
			st.meanDirection = deg2rad(180)
		}
	case y < m.bounds.YMin+m.boundaryThreshold:
		st.meanDirection = deg2rad(90)
	case y > m.bounds.YMax-m.boundaryThreshold:
		st.meanDirection = deg2rad(270)
	}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }

func (m *GaussMarkov) Step(ueID int, tti int64, rng *rand.Rand, position [2]float64) [2]float64 {
	st, ok := m.states[ueID]
	if !ok {
		st = &gaussMarkovState{meanDirection: rng.Float64() * 2 * math.Pi}
		m.states[ueID] = st
	}
	if !st.initialized {
		st.velocity = m.velocity.sample(rng)
		st.direction = st.meanDirection
		st.initialized = true
	}

	m.steerForBoundary(st, position[0], position[1])

	meanVelocity := (m.velocity.Min + m.velocity.Max) / 2
	velocityNoise := rng.NormFloat64() * (m.velocity.Max - m.velocity.Min) * 0.1
	directionNoise := rng.NormFloat64() * 0.1

	st.velocity = m.alpha*st.velocity + (1-m.alpha)*meanVelocity + velocityNoise
	if st.velocity < m.velocity.Min {
		st.velocity = m.velocity.Min
	}
	if st.velocity > m.velocity.Max {
		st.velocity = m.velocity.Max
	}
	st.direction = m.alpha*st.direction + (1-m.alpha)*st.meanDirection + directionNoise

	const dtSeconds = 0.001
	x := position[0] + st.velocity*math.Cos(st.direction)*dtSeconds
	y := position[1] + st.velocity*math.Sin(st.direction)*dtSeconds
	x = clampReflect(x, m.bounds.XMin, m.bounds.XMax)
	y = clampReflect(y, m.bounds.YMin, m.bounds.YMax)

	return [2]float64{x, y}
}
