// Package trajectory shapes a raw waypoint sequence into a flyable path:
// smoothing via moving average, Bezier, and B-spline fits, simplification,
// and a forward/backward velocity profile respecting acceleration limits.
package trajectory

import (
	"math"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MovingAverage smooths a point sequence with a centered window of the
// given size, clamped at the ends (an even size averages window+1 points,
// window/2 on each side). The first and last points are kept unchanged.
func MovingAverage(points []geometry.LocalPoint, window int) []geometry.LocalPoint {
	if window <= 1 || len(points) == 0 {
		return points
	}
	out := make([]geometry.LocalPoint, len(points))
	half := window / 2
	for i := range points {
		lo := i - half
		hi := i + half
		if lo < 0 {
			lo = 0
		}
		if hi >= len(points) {
			hi = len(points) - 1
		}
		var sx, sy float64
		n := 0
		for j := lo; j <= hi; j++ {
			sx += points[j].X
			sy += points[j].Y
			n++
		}
		out[i] = geometry.LocalPoint{X: sx / float64(n), Y: sy / float64(n)}
	}
	out[0] = points[0]
	out[len(points)-1] = points[len(points)-1]
	return out
}

// CubicBezier evaluates a single cubic Bezier segment with the four
// control points at numSamples evenly-spaced parameter values.
func CubicBezier(p0, p1, p2, p3 geometry.LocalPoint, numSamples int) []geometry.LocalPoint {
	if numSamples < 2 {
		numSamples = 2
	}
	out := make([]geometry.LocalPoint, numSamples)
	for i := 0; i < numSamples; i++ {
		t := float64(i) / float64(numSamples-1)
		mt := 1 - t
		x := mt*mt*mt*p0.X + 3*mt*mt*t*p1.X + 3*mt*t*t*p2.X + t*t*t*p3.X
		y := mt*mt*mt*p0.Y + 3*mt*mt*t*p1.Y + 3*mt*t*t*p2.Y + t*t*t*p3.Y
		out[i] = geometry.LocalPoint{X: x, Y: y}
	}
	return out
}

// BSpline fits a uniform B-spline of the given degree through the given
// control points using the Cox-de Boor recursion and samples it
// numSamples times. Requires at least degree+1 control points.
func BSpline(control []geometry.LocalPoint, degree, numSamples int) []geometry.LocalPoint {
	n := len(control)
	if n < degree+1 || numSamples < 2 {
		return control
	}

	knots := uniformClampedKnots(n, degree)
	cx := mat.NewVecDense(n, nil)
	cy := mat.NewVecDense(n, nil)
	for i, p := range control {
		cx.SetVec(i, p.X)
		cy.SetVec(i, p.Y)
	}

	uMin, uMax := knots[degree], knots[n]
	out := make([]geometry.LocalPoint, numSamples)
	for s := 0; s < numSamples; s++ {
		u := uMin + (uMax-uMin)*float64(s)/float64(numSamples-1)
		var x, y float64
		for i := 0; i < n; i++ {
			basis := coxDeBoor(knots, i, degree, u)
			x += basis * cx.AtVec(i)
			y += basis * cy.AtVec(i)
		}
		out[s] = geometry.LocalPoint{X: x, Y: y}
	}
	return out
}

// uniformClampedKnots builds a clamped uniform knot vector with n+degree+1
// entries so the curve interpolates its first and last control points.
func uniformClampedKnots(n, degree int) []float64 {
	numKnots := n + degree + 1
	knots := make([]float64, numKnots)
	numInternal := numKnots - 2*(degree+1)
	for i := 0; i <= degree; i++ {
		knots[i] = 0
	}
	for i := 0; i < numInternal; i++ {
		knots[degree+1+i] = float64(i+1) / float64(numInternal+1)
	}
	for i := numKnots - degree - 1; i < numKnots; i++ {
		knots[i] = 1
	}
	return knots
}

// coxDeBoor evaluates basis function N_{i,degree}(u) recursively.
func coxDeBoor(knots []float64, i, degree int, u float64) float64 {
	if degree == 0 {
		if knots[i] <= u && u < knots[i+1] {
			return 1
		}
		// At the domain's right end, close the last non-empty span.
		if u == knots[len(knots)-1] && knots[i] < u && knots[i+1] == u {
			return 1
		}
		return 0
	}

	var left, right float64
	denomLeft := knots[i+degree] - knots[i]
	if denomLeft > 1e-12 {
		left = (u - knots[i]) / denomLeft * coxDeBoor(knots, i, degree-1, u)
	}
	denomRight := knots[i+degree+1] - knots[i+1]
	if denomRight > 1e-12 {
		right = (knots[i+degree+1] - u) / denomRight * coxDeBoor(knots, i+1, degree-1, u)
	}
	return left + right
}

// Simplify reuses the Douglas-Peucker polyline simplification from the
// geometry package, thinning a dense trajectory to within tolerance
// meters of its original shape.
func Simplify(points []geometry.LocalPoint, tolerance float64) []geometry.LocalPoint {
	return geometry.SimplifyDP(points, tolerance)
}

// ProfiledPoint is a trajectory point annotated with a target speed.
type ProfiledPoint struct {
	Point geometry.LocalPoint
	Speed float64
}

// VelocityProfile computes a speed at each point bounded by cruiseSpeed,
// cornering (Menger-radius curvature: tighter turns get slower speeds,
// v_max = sqrt(maxLateralAccel * radius)), and forward/backward
// acceleration-limited smoothing so the profile never demands more than
// maxAccel/maxDecel between consecutive points.
func VelocityProfile(points []geometry.LocalPoint, cruiseSpeed, maxLateralAccel, maxAccel, maxDecel float64) []ProfiledPoint {
	n := len(points)
	out := make([]ProfiledPoint, n)
	if n == 0 {
		return out
	}
	for i := range points {
		out[i] = ProfiledPoint{Point: points[i], Speed: cruiseSpeed}
	}
	if n < 3 {
		return out
	}

	for i := 1; i < n-1; i++ {
		r := mengerRadius(points[i-1], points[i], points[i+1])
		if r > 0 {
			vMax := math.Sqrt(maxLateralAccel * r)
			out[i].Speed = floats.Min([]float64{out[i].Speed, vMax})
		}
	}
	out[0].Speed = floats.Min([]float64{out[0].Speed, cruiseSpeed})
	out[n-1].Speed = 0

	// Forward pass: cap acceleration out of slow corners.
	for i := 1; i < n; i++ {
		d := distance(points[i-1], points[i])
		vReachable := math.Sqrt(out[i-1].Speed*out[i-1].Speed + 2*maxAccel*d)
		out[i].Speed = floats.Min([]float64{out[i].Speed, vReachable})
	}
	// Backward pass: cap deceleration into slow corners and the final stop.
	for i := n - 2; i >= 0; i-- {
		d := distance(points[i], points[i+1])
		vReachable := math.Sqrt(out[i+1].Speed*out[i+1].Speed + 2*maxDecel*d)
		out[i].Speed = floats.Min([]float64{out[i].Speed, vReachable})
	}
	return out
}

// mengerRadius returns the radius of the circle through three points via
// the Menger curvature formula (r = abc / 4*Area); +Inf for collinear points.
func mengerRadius(a, b, c geometry.LocalPoint) float64 {
	ab := distance(a, b)
	bc := distance(b, c)
	ca := distance(c, a)
	area := math.Abs((b.X-a.X)*(c.Y-a.Y)-(c.X-a.X)*(b.Y-a.Y)) / 2
	if area < 1e-9 {
		return math.Inf(1)
	}
	return (ab * bc * ca) / (4 * area)
}

func distance(a, b geometry.LocalPoint) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}
