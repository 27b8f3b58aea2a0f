package vehicle

import "math"

const gravity = 9.80665 // m/s^2

// FixedWing models a fixed-wing aircraft: non-zero minimum turn radius
// derived from stall speed and maximum bank angle, and a single-family
// (LSL) Dubins connector between oriented waypoints.
//
// Only the Left-Straight-Left Dubins family is implemented. RSR/RSL/LSR/
// RLR/LRL are not attempted; ComputeDubinsPath reports ok=false when it
// cannot build an LSL connector rather than falling back to another
// family, so callers
// must treat a FixedWing connector failure as "try a different heading"
// rather than "no connector exists."
type FixedWing struct {
	constraints   Constraints
	maxBankDeg    float64
	stallSpeed    float64
	velocitySamples int
	yawRateSamples  int
}

// NewFixedWing builds a FixedWing model. MinTurnRadius in constraints is
// overridden by the bank-angle-derived radius at MinSpeed (floored to the
// stall speed) if zero.
func NewFixedWing(c Constraints, maxBankDeg, stallSpeed float64) *FixedWing {
	if c.MinSpeed < stallSpeed {
		c.MinSpeed = stallSpeed
	}
	if c.MinTurnRadius <= 0 {
		c.MinTurnRadius = turnRadius(c.MinSpeed, maxBankDeg)
	}
	return &FixedWing{
		constraints:     c,
		maxBankDeg:      maxBankDeg,
		stallSpeed:      stallSpeed,
		velocitySamples: defaultSamples,
		yawRateSamples:  defaultSamples,
	}
}

// turnRadius computes the minimum turn radius at speed v with bank angle
// bankDeg: r = v^2 / (g * tan(bank)).
func turnRadius(v, bankDeg float64) float64 {
	bank := bankDeg * math.Pi / 180
	t := math.Tan(bank)
	if t <= 0 {
		return math.Inf(1)
	}
	return (v * v) / (gravity * t)
}

func (f *FixedWing) Type() Type { return TypeFixedWing }

func (f *FixedWing) Constraints() Constraints { return f.constraints }

func (f *FixedWing) ReachableVelocities(state State, dt float64) []Velocity {
	c := f.constraints

	vMin := math.Max(c.MinSpeed, state.Speed-c.MaxDecel*dt)
	vMax := math.Min(c.MaxSpeed, state.Speed+c.MaxAccel*dt)

	maxW := c.MaxYawRate
	if maxW <= 0 && c.MinTurnRadius > 0 {
		maxW = state.Speed / c.MinTurnRadius
	}
	wMin := math.Max(-maxW, state.YawRate-c.MaxYawAccel*dt)
	wMax := math.Min(maxW, state.YawRate+c.MaxYawAccel*dt)

	half := f.velocitySamples / 2
	out := make([]Velocity, 0, f.velocitySamples*f.yawRateSamples)
	for i := -half; i <= half; i++ {
		v := state.Speed + float64(i)*defaultVelocityResolution
		if v < vMin || v > vMax || v < f.stallSpeed {
			continue
		}
		// A fixed-wing vehicle bounds turn rate by its turn radius at the
		// sampled speed, not the constant dynamic-window bound above.
		speedMaxW := maxW
		if c.MinTurnRadius > 0 {
			speedMaxW = math.Min(maxW, v/c.MinTurnRadius)
		}
		wHalf := f.yawRateSamples / 2
		for j := -wHalf; j <= wHalf; j++ {
			w := state.YawRate + float64(j)*defaultYawRateResolution
			if w < math.Max(wMin, -speedMaxW) || w > math.Min(wMax, speedMaxW) {
				continue
			}
			out = append(out, Velocity{V: v, W: w})
		}
	}
	return out
}

func (f *FixedWing) PredictTrajectory(state State, v Velocity, dt, horizon float64) [][3]float64 {
	return predictUnicycle(state, v, dt, horizon)
}

func (f *FixedWing) IsFeasiblePath(start, end [3]float64, speed float64) bool {
	if speed < f.stallSpeed {
		return false
	}
	return isFeasiblePath(f.constraints, start, end, speed)
}

func (f *FixedWing) ComputeTurnWaypoints(p1, p2, p3 [3]float64) [][3]float64 {
	return turnWaypoints(p1, p2, p3)
}

// Pose is a 2-D position with heading, the input to Dubins path planning.
type Pose struct {
	X, Y, Theta float64
}

// DubinsLSLPath is the arc-straight-arc decomposition of a Left-Straight-
// Left Dubins connector: turn left by Alpha on a circle of radius R,
// fly straight for Straight, then turn left by Beta on a circle of
// radius R.
type DubinsLSLPath struct {
	Alpha, Straight, Beta float64
	Radius                float64
	Length                float64
}

// ComputeDubinsPath solves the LSL family connecting start to goal at
// the vehicle's minimum turn radius. It returns false only when that
// radius is not positive or the two turn circles coincide; callers
// should not interpret that as "unreachable," only as "not reachable via
// LSL."
func (f *FixedWing) ComputeDubinsPath(start, goal Pose) (DubinsLSLPath, bool) {
	r := f.constraints.MinTurnRadius
	if r <= 0 {
		return DubinsLSLPath{}, false
	}

	// Centers of the left-turn circles, offset 90 deg counter-clockwise
	// from each pose's heading.
	c1x := start.X - r*math.Sin(start.Theta)
	c1y := start.Y + r*math.Cos(start.Theta)
	c2x := goal.X - r*math.Sin(goal.Theta)
	c2y := goal.Y + r*math.Cos(goal.Theta)

	dx, dy := c2x-c1x, c2y-c1y
	d := math.Hypot(dx, dy)
	if d < 1e-9 {
		return DubinsLSLPath{}, false
	}

	centerAngle := math.Atan2(dy, dx)
	alpha := normalizeAngle(centerAngle - start.Theta)
	beta := normalizeAngle(goal.Theta - centerAngle)
	alpha = math.Mod(alpha+2*math.Pi, 2*math.Pi)
	beta = math.Mod(beta+2*math.Pi, 2*math.Pi)

	straight := d

	length := r*alpha + straight + r*beta
	return DubinsLSLPath{Alpha: alpha, Straight: straight, Beta: beta, Radius: r, Length: length}, true
}
