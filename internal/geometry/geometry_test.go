package geometry

import (
	"math"
	"testing"
)

func TestProjectionRoundTrip(t *testing.T) {
	origin := [2]float64{23.7027, 120.4193}
	p := NewProjector(origin[0], origin[1])

	cases := []struct {
		lat, lon float64
	}{
		{23.7030, 120.4200},
		{23.7100, 120.4300},
		{23.6950, 120.4100},
	}

	for _, c := range cases {
		local := p.Project(c.lat, c.lon)
		lat, lon := p.Unproject(local)
		if math.Abs(lat-c.lat) > 1e-7 || math.Abs(lon-c.lon) > 1e-7 {
			t.Errorf("round trip mismatch: got (%v,%v), want (%v,%v)", lat, lon, c.lat, c.lon)
		}
	}
}

func TestAreaIgnoresWinding(t *testing.T) {
	square := Polygon{{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}}
	reversed := Polygon{{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 100}, {X: 0, Y: 100}}

	if got := square.Area(); got != 10000 {
		t.Errorf("Area() = %v, want 10000", got)
	}
	if got := reversed.Area(); got != 10000 {
		t.Errorf("Area() (reversed) = %v, want 10000", got)
	}
}

func TestPointInPolygonStableUnderRotation(t *testing.T) {
	square := Polygon{{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}}
	inside := LocalPoint{X: 50, Y: 50}
	outside := LocalPoint{X: 150, Y: 50}
	centroid := square.Centroid()

	for angle := 0.0; angle < 360.0; angle += 37.0 {
		rotated := square.Rotate(centroid, angle)
		rIn := inside.rotateAbout(centroid, angle)
		rOut := outside.rotateAbout(centroid, angle)

		if !PointInPolygon(rotated, rIn) {
			t.Errorf("angle %v: expected interior point to stay inside", angle)
		}
		if PointInPolygon(rotated, rOut) {
			t.Errorf("angle %v: expected exterior point to stay outside", angle)
		}
	}
}

func (p LocalPoint) rotateAbout(center LocalPoint, angleDeg float64) LocalPoint {
	poly := Polygon{p}.Rotate(center, angleDeg)
	return poly[0]
}

func TestSegmentIntersect(t *testing.T) {
	a1, a2 := LocalPoint{X: 0, Y: 0}, LocalPoint{X: 10, Y: 10}
	b1, b2 := LocalPoint{X: 0, Y: 10}, LocalPoint{X: 10, Y: 0}

	pt, ok := SegmentIntersect(a1, a2, b1, b2)
	if !ok {
		t.Fatal("expected intersection")
	}
	if math.Abs(pt.X-5) > 1e-9 || math.Abs(pt.Y-5) > 1e-9 {
		t.Errorf("intersection = %v, want (5,5)", pt)
	}

	if _, ok := SegmentIntersect(a1, a2, LocalPoint{X: 20, Y: 0}, LocalPoint{X: 30, Y: 10}); ok {
		t.Error("expected no intersection for disjoint segments")
	}
}

func TestSegmentCircleIntersect(t *testing.T) {
	p1 := LocalPoint{X: -10, Y: 0}
	p2 := LocalPoint{X: 10, Y: 0}
	center := LocalPoint{X: 0, Y: 0}

	hits := SegmentCircleIntersect(p1, p2, center, 5)
	if len(hits) != 2 {
		t.Fatalf("expected 2 intersections, got %d", len(hits))
	}
}

func TestSimplifyDPIdempotent(t *testing.T) {
	pts := []LocalPoint{
		{X: 0, Y: 0}, {X: 1, Y: 0.1}, {X: 2, Y: -0.1}, {X: 3, Y: 5}, {X: 4, Y: 6}, {X: 5, Y: 7},
	}
	once := SimplifyDP(pts, 0.5)
	twice := SimplifyDP(once, 0.5)

	if len(once) != len(twice) {
		t.Fatalf("simplify not idempotent: len %d vs %d", len(once), len(twice))
	}
	for i := range once {
		if once[i] != twice[i] {
			t.Fatalf("simplify not idempotent at %d: %v vs %v", i, once[i], twice[i])
		}
	}
}

func TestOffsetShrinksSquare(t *testing.T) {
	square := Polygon{{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}}
	shrunk := Offset(square, -10)

	area := shrunk.Area()
	if area >= square.Area() {
		t.Errorf("expected shrunk area < original, got %v vs %v", area, square.Area())
	}
}

func TestConvexHullOfSquareWithInteriorPoint(t *testing.T) {
	points := []LocalPoint{
		{X: 0, Y: 0}, {X: 0, Y: 100}, {X: 100, Y: 100}, {X: 100, Y: 0}, {X: 50, Y: 50},
	}
	hull := ConvexHull(points)
	if len(hull) != 4 {
		t.Fatalf("expected hull of 4 points, got %d: %v", len(hull), hull)
	}
}
