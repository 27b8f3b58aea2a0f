package survey

import (
	"testing"

	"github.com/PossumXI/Asgard/Skylark/internal/camera"
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
)

func squareBoundary() []geometry.GeoPoint {
	return []geometry.GeoPoint{
		{Lat: 23.7000, Lon: 120.4000},
		{Lat: 23.7000, Lon: 120.4100},
		{Lat: 23.7100, Lon: 120.4100},
		{Lat: 23.7100, Lon: 120.4000},
	}
}

func testCameraSpec() camera.Spec {
	return camera.Spec{
		SensorWidthMM:  13.2,
		SensorHeightMM: 8.8,
		FocalLengthMM:  8.8,
		ImageWidthPx:   4000,
		ImageHeightPx:  3000,
	}
}

func TestGenerateProducesCoverageOverSquare(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80

	res, err := Generate(squareBoundary(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Diagnostic != nil {
		t.Fatalf("unexpected diagnostic: %v", res.Diagnostic)
	}
	if res.Stats.TotalLines == 0 {
		t.Fatal("expected at least one scan line over a ~1.1km square")
	}
	if len(res.Waypoints) == 0 {
		t.Fatal("expected non-empty waypoint sequence")
	}
	if res.Waypoints[0].Role != RoleTakeoff {
		t.Errorf("expected first waypoint to be takeoff, got %v", res.Waypoints[0].Role)
	}
	if cfg.RTLAtEnd && res.Waypoints[len(res.Waypoints)-1].Role != RoleRTL {
		t.Errorf("expected last waypoint to be RTL, got %v", res.Waypoints[len(res.Waypoints)-1].Role)
	}
}

func TestGenerateZigzagAlternatesDirection(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80
	cfg.Pattern = PatternZigzag
	cfg.HeadingDeg = 0

	res, err := Generate(squareBoundary(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Stats.TotalLines < 2 {
		t.Skip("not enough lines generated to exercise zigzag alternation")
	}

	centerLat, centerLon := centroidOf(squareBoundary())
	proj := geometry.NewProjector(centerLat, centerLon)

	var dx []float64
	var start geometry.LocalPoint
	haveStart := false
	for _, w := range res.Waypoints {
		if w.Role != RolePhotoStart && w.Role != RolePhotoEnd {
			continue
		}
		pt := proj.Project(w.Point.Lat, w.Point.Lon)
		if w.Role == RolePhotoStart {
			start = pt
			haveStart = true
			continue
		}
		if haveStart {
			dx = append(dx, pt.X-start.X)
			haveStart = false
		}
	}
	if len(dx) < 2 {
		t.Skip("not enough photo-run legs to exercise zigzag alternation")
	}
	for i := 1; i < len(dx); i++ {
		if (dx[i] > 0) == (dx[i-1] > 0) {
			t.Errorf("expected alternating sweep direction between line %d and %d, got dx=%v, %v", i-1, i, dx[i-1], dx[i])
		}
	}
}

func TestGenerateEmptyCoverageDiagnosticIsNonFatal(t *testing.T) {
	tiny := []geometry.GeoPoint{
		{Lat: 23.70000, Lon: 120.40000},
		{Lat: 23.70000, Lon: 120.40001},
		{Lat: 23.70001, Lon: 120.40001},
		{Lat: 23.70001, Lon: 120.40000},
	}
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80

	res, err := Generate(tiny, nil, cfg)
	if err != nil {
		t.Fatalf("EmptyCoverage must be a non-fatal diagnostic, got error: %v", err)
	}
	if res.Diagnostic == nil {
		t.Fatal("expected an EmptyCoverage diagnostic for a boundary smaller than the camera footprint")
	}
}

func TestGenerateRejectsDegenerateBoundary(t *testing.T) {
	_, err := Generate([]geometry.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 1}}, nil, DefaultConfig())
	if err == nil {
		t.Fatal("expected InvalidInput error for a 2-vertex boundary")
	}
}

func TestGenerateRejectsNonPositiveAltitude(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 0

	_, err := Generate(squareBoundary(), nil, cfg)
	if !planerr.Is(err, planerr.KindInvalidInput) {
		t.Errorf("expected KindInvalidInput for non-positive altitude, got %v", err)
	}
}

func TestGenerateSpiralProducesInwardRing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80
	cfg.Pattern = PatternSpiral

	res, err := Generate(squareBoundary(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Waypoints) < 4 {
		t.Fatalf("expected a multi-point spiral ring, got %d waypoints", len(res.Waypoints))
	}
	if res.Waypoints[0].Role != RoleTakeoff {
		t.Errorf("expected first waypoint to be takeoff, got %v", res.Waypoints[0].Role)
	}
}

func TestGenerateExpandingSquareProducesConcentricRings(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80
	cfg.Pattern = PatternExpandingSquare

	res, err := Generate(squareBoundary(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Waypoints) < 4 {
		t.Fatalf("expected a multi-point expanding-square path, got %d waypoints", len(res.Waypoints))
	}
}

func TestGenerateHomeThreadedIntoTakeoffAndRTL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Camera = testCameraSpec()
	cfg.Altitude = 80
	home := geometry.GeoPoint{Lat: 23.6995, Lon: 120.3995}
	cfg.Home = &home

	res, err := Generate(squareBoundary(), nil, cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	takeoff := res.Waypoints[0]
	if takeoff.Point.Lat != home.Lat || takeoff.Point.Lon != home.Lon {
		t.Errorf("expected takeoff at home %+v, got %+v", home, takeoff.Point)
	}
	last := res.Waypoints[len(res.Waypoints)-1]
	if cfg.RTLAtEnd && (last.Point.Lat != home.Lat || last.Point.Lon != home.Lon) {
		t.Errorf("expected RTL leg to return to home %+v, got %+v", home, last.Point)
	}
}
