package swarm

import (
	"math"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
)

// FlightEnvelope is the swept space a vehicle's mission occupies: the
// convex hull of its ground track widened by the vehicle's collision
// radius, plus an altitude band. Built from a mission's
// waypoint track rather than its raw boundary, so the check reflects
// where the vehicle actually flies.
type FlightEnvelope struct {
	VehicleID   string
	Track       []geometry.LocalPoint // ordered ground-track points
	RadiusM     float64
	AltitudeM   float64
	AltitudeTolM float64
}

// CheckSimultaneous reports every pair of envelopes whose widened convex
// hulls overlap in the horizontal plane and whose altitude bands also
// overlap. A pure axis-aligned-bbox over-approximation would flag long
// diagonal corridors as conflicting even when their actual footprints
// never touch; the convex hull keeps false positives down, at the cost of
// the extra hull + separating-axis step per pair.
func CheckSimultaneous(envelopes []FlightEnvelope) error {
	var pairs [][2]string
	for i := 0; i < len(envelopes); i++ {
		for j := i + 1; j < len(envelopes); j++ {
			a, b := envelopes[i], envelopes[j]
			if !altitudeBandsOverlap(a, b) {
				continue
			}
			if orientedHullsOverlap(a, b) {
				pairs = append(pairs, [2]string{a.VehicleID, b.VehicleID})
			}
		}
	}
	if len(pairs) > 0 {
		return planerr.SpatialConflictf(pairs)
	}
	return nil
}

func altitudeBandsOverlap(a, b FlightEnvelope) bool {
	aLo, aHi := a.AltitudeM-a.AltitudeTolM, a.AltitudeM+a.AltitudeTolM
	bLo, bHi := b.AltitudeM-b.AltitudeTolM, b.AltitudeM+b.AltitudeTolM
	return aLo <= bHi && bLo <= aHi
}

// orientedHullsOverlap builds each envelope's convex hull, pushes every
// hull vertex RadiusM further out from the hull's centroid, and tests the
// two resulting polygons for intersection via separating axis theorem.
func orientedHullsOverlap(a, b FlightEnvelope) bool {
	hullA := widenedHull(a)
	hullB := widenedHull(b)
	if len(hullA) < 3 || len(hullB) < 3 {
		return boundingCirclesOverlap(a, b)
	}
	return satOverlap(hullA, hullB)
}

func widenedHull(e FlightEnvelope) []geometry.LocalPoint {
	hull := geometry.ConvexHull(e.Track)
	if len(hull) < 2 {
		return hull
	}
	center := geometry.Polygon(hull).Centroid()
	out := make([]geometry.LocalPoint, len(hull))
	for i, p := range hull {
		dx, dy := p.X-center.X, p.Y-center.Y
		l := math.Hypot(dx, dy)
		if l < 1e-9 {
			out[i] = p
			continue
		}
		scale := (l + e.RadiusM) / l
		out[i] = geometry.LocalPoint{X: center.X + dx*scale, Y: center.Y + dy*scale}
	}
	return out
}

func boundingCirclesOverlap(a, b FlightEnvelope) bool {
	if len(a.Track) == 0 || len(b.Track) == 0 {
		return false
	}
	ca := geometry.Polygon(a.Track).Centroid()
	cb := geometry.Polygon(b.Track).Centroid()
	return geometry.DistancePlanar(ca, cb) < a.RadiusM+b.RadiusM
}

// satOverlap tests two convex polygons for intersection using the
// separating axis theorem: they overlap unless some edge normal of
// either polygon separates their projections.
func satOverlap(p, q []geometry.LocalPoint) bool {
	for _, poly := range [][]geometry.LocalPoint{p, q} {
		n := len(poly)
		for i := 0; i < n; i++ {
			a, b := poly[i], poly[(i+1)%n]
			axisX, axisY := -(b.Y - a.Y), b.X - a.X
			length := math.Hypot(axisX, axisY)
			if length < 1e-9 {
				continue
			}
			axisX, axisY = axisX/length, axisY/length

			minP, maxP := projectOnAxis(p, axisX, axisY)
			minQ, maxQ := projectOnAxis(q, axisX, axisY)
			if maxP < minQ || maxQ < minP {
				return false
			}
		}
	}
	return true
}

func projectOnAxis(poly []geometry.LocalPoint, ax, ay float64) (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, p := range poly {
		d := p.X*ax + p.Y*ay
		if d < min {
			min = d
		}
		if d > max {
			max = d
		}
	}
	return min, max
}
