package vehicle

import "math"

// Multirotor models a quadrotor/hexrotor-class vehicle: zero minimum turn
// radius, independent yaw control, vertical-speed-bounded climb/descent.
type Multirotor struct {
	constraints        Constraints
	velocityResolution float64
	yawRateResolution  float64
	samples            int
}

// NewMultirotor builds a Multirotor model. A zero velocityResolution,
// yawRateResolution, or samples falls back to the DWA defaults (0.1 m/s,
// 5 deg/s, 21x21 samples).
func NewMultirotor(c Constraints, velocityResolution, yawRateResolution float64, samples int) *Multirotor {
	if velocityResolution <= 0 {
		velocityResolution = defaultVelocityResolution
	}
	if yawRateResolution <= 0 {
		yawRateResolution = defaultYawRateResolution
	}
	if samples <= 0 {
		samples = defaultSamples
	}
	return &Multirotor{
		constraints:        c,
		velocityResolution: velocityResolution,
		yawRateResolution:  yawRateResolution,
		samples:            samples,
	}
}

func (m *Multirotor) Type() Type { return TypeMultirotor }

func (m *Multirotor) Constraints() Constraints { return m.constraints }

// ReachableVelocities computes the dynamic window around the current
// speed and yaw rate and samples it on an m.samples x m.samples grid.
func (m *Multirotor) ReachableVelocities(state State, dt float64) []Velocity {
	c := m.constraints

	vMin := math.Max(c.MinSpeed, state.Speed-c.MaxDecel*dt)
	vMax := math.Min(c.MaxSpeed, state.Speed+c.MaxAccel*dt)
	wMin := math.Max(-c.MaxYawRate, state.YawRate-c.MaxYawAccel*dt)
	wMax := math.Min(c.MaxYawRate, state.YawRate+c.MaxYawAccel*dt)

	half := m.samples / 2
	out := make([]Velocity, 0, m.samples*m.samples)
	for i := -half; i <= half; i++ {
		v := state.Speed + float64(i)*m.velocityResolution
		if v < vMin || v > vMax {
			continue
		}
		for j := -half; j <= half; j++ {
			w := state.YawRate + float64(j)*m.yawRateResolution
			if w < wMin || w > wMax {
				continue
			}
			out = append(out, Velocity{V: v, W: w})
		}
	}
	return out
}

func (m *Multirotor) PredictTrajectory(state State, v Velocity, dt, horizon float64) [][3]float64 {
	return predictUnicycle(state, v, dt, horizon)
}

func (m *Multirotor) IsFeasiblePath(start, end [3]float64, speed float64) bool {
	return isFeasiblePath(m.constraints, start, end, speed)
}

func (m *Multirotor) ComputeTurnWaypoints(p1, p2, p3 [3]float64) [][3]float64 {
	return turnWaypoints(p1, p2, p3)
}
