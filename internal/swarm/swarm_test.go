package swarm

import (
	"testing"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
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

func TestPartitionBilinearStripsCoversAllVehicles(t *testing.T) {
	regions, err := Partition(squareBoundary(), []string{"v1", "v2", "v3"}, StrategyBilinearStrips, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 3 {
		t.Fatalf("expected 3 sub-regions, got %d", len(regions))
	}
	seen := map[string]bool{}
	for _, r := range regions {
		if r.MissionID == "" {
			t.Error("expected a non-empty UUID mission id")
		}
		if seen[r.MissionID] {
			t.Error("expected unique mission ids across sub-regions")
		}
		seen[r.MissionID] = true
		if len(r.Boundary) < 3 {
			t.Errorf("sub-region for %s has degenerate boundary: %v", r.VehicleID, r.Boundary)
		}
	}
}

func TestPartitionSingleVehicleReturnsFullBoundary(t *testing.T) {
	regions, err := Partition(squareBoundary(), []string{"solo"}, StrategyBilinearStrips, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 1 || len(regions[0].Boundary) != 4 {
		t.Fatalf("expected the full boundary unpartitioned for a single vehicle, got %+v", regions)
	}
}

func TestPartitionRejectsEmptyFleet(t *testing.T) {
	_, err := Partition(squareBoundary(), nil, StrategyBilinearStrips, 0)
	if !planerr.Is(err, planerr.KindInvalidInput) {
		t.Errorf("expected KindInvalidInput, got %v", err)
	}
}

func TestStratifyAltitudesAssignsDistinctLevels(t *testing.T) {
	regions := []SubRegion{
		{VehicleID: "b"}, {VehicleID: "a"}, {VehicleID: "c"},
	}
	StratifyAltitudes(regions, 50, 10)

	seen := map[float64]bool{}
	for _, r := range regions {
		if seen[r.AltitudeM] {
			t.Error("expected distinct altitudes across sub-regions")
		}
		seen[r.AltitudeM] = true
	}
	// base + (N-i-1)*increment over input order: the last-returning
	// vehicle (final element, "c") is lowest at the base altitude.
	want := map[string]float64{"b": 70, "a": 60, "c": 50}
	for _, r := range regions {
		if r.AltitudeM != want[r.VehicleID] {
			t.Errorf("vehicle %q altitude = %v, want %v", r.VehicleID, r.AltitudeM, want[r.VehicleID])
		}
	}
}

func TestPartitionGrid2x2GapMatchesScenarioS5(t *testing.T) {
	boundary := []geometry.GeoPoint{
		{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.0009}, {Lat: 0.0009, Lon: 0.0009}, {Lat: 0.0009, Lon: 0},
	}
	// ~100x100 m square at the equator (1 deg lat ~= 111320 m).
	regions, err := Partition(boundary, []string{"v1", "v2", "v3", "v4"}, StrategyGrid2x2, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(regions) != 4 {
		t.Fatalf("expected 4 sub-regions, got %d", len(regions))
	}
	for _, r := range regions {
		if len(r.Boundary) < 3 {
			t.Fatalf("sub-region for %s has degenerate boundary", r.VehicleID)
		}
	}
}

func TestResolveSequentialHoldsLaterVehiclesWithIncreasingDelay(t *testing.T) {
	build := func(vehicleID string) *mission.Sequence {
		seq := mission.NewSequence(vehicleID)
		seq.Append(mission.Waypoint{Point: geometry.GeoPoint{Lat: 23.70, Lon: 120.40}, Command: mission.CommandTakeoff})
		seq.Append(mission.Waypoint{Point: geometry.GeoPoint{Lat: 23.701, Lon: 120.40}, Command: mission.CommandWaypoint})
		seq.Append(mission.Waypoint{Point: geometry.GeoPoint{Lat: 23.702, Lon: 120.40}, Command: mission.CommandWaypoint})
		return seq
	}
	sequences := []*mission.Sequence{build("v1"), build("v2"), build("v3")}

	ResolveSequential(sequences, 10, 50)

	if len(sequences[0].Waypoints) != 3 {
		t.Fatalf("expected the lead vehicle to remain unheld, got %d waypoints", len(sequences[0].Waypoints))
	}

	var holds []float64
	for _, seq := range sequences[1:] {
		if len(seq.Waypoints) != 4 {
			t.Fatalf("vehicle %s: expected a loiter waypoint inserted, got %d waypoints", seq.VehicleID, len(seq.Waypoints))
		}
		loiter := seq.Waypoints[1]
		if loiter.Command != mission.CommandLoiterTime {
			t.Fatalf("vehicle %s: expected waypoint 1 to be a loiter, got %v", seq.VehicleID, loiter.Command)
		}
		holds = append(holds, loiter.LoiterTime)
	}
	for i := 1; i < len(holds); i++ {
		if holds[i] <= holds[i-1] {
			t.Errorf("expected strictly increasing hold times across vehicles, got %v", holds)
		}
	}
}

func TestCheckSimultaneousDetectsOverlappingTracks(t *testing.T) {
	envelopes := []FlightEnvelope{
		{
			VehicleID: "v1",
			Track:     []geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			RadiusM:   2, AltitudeM: 50, AltitudeTolM: 5,
		},
		{
			VehicleID: "v2",
			Track:     []geometry.LocalPoint{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}, {X: 5, Y: 15}},
			RadiusM:   2, AltitudeM: 50, AltitudeTolM: 5,
		},
	}
	err := CheckSimultaneous(envelopes)
	if !planerr.Is(err, planerr.KindSpatialConflict) {
		t.Errorf("expected overlapping tracks at the same altitude to conflict, got %v", err)
	}
}

func TestCheckSimultaneousAllowsSeparatedAltitudes(t *testing.T) {
	envelopes := []FlightEnvelope{
		{
			VehicleID: "v1",
			Track:     []geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			RadiusM:   2, AltitudeM: 50, AltitudeTolM: 2,
		},
		{
			VehicleID: "v2",
			Track:     []geometry.LocalPoint{{X: 5, Y: 5}, {X: 15, Y: 5}, {X: 15, Y: 15}, {X: 5, Y: 15}},
			RadiusM:   2, AltitudeM: 80, AltitudeTolM: 2,
		},
	}
	if err := CheckSimultaneous(envelopes); err != nil {
		t.Errorf("expected no conflict when altitude bands don't overlap, got %v", err)
	}
}

func TestCheckSimultaneousAllowsDistantTracks(t *testing.T) {
	envelopes := []FlightEnvelope{
		{
			VehicleID: "v1",
			Track:     []geometry.LocalPoint{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10}, {X: 0, Y: 10}},
			RadiusM:   2, AltitudeM: 50, AltitudeTolM: 5,
		},
		{
			VehicleID: "v2",
			Track:     []geometry.LocalPoint{{X: 500, Y: 500}, {X: 510, Y: 500}, {X: 510, Y: 510}, {X: 500, Y: 510}},
			RadiusM:   2, AltitudeM: 50, AltitudeTolM: 5,
		},
	}
	if err := CheckSimultaneous(envelopes); err != nil {
		t.Errorf("expected no conflict for distant tracks, got %v", err)
	}
}
