package localplanner

import (
	"context"
	"testing"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/PossumXI/Asgard/Skylark/internal/vehicle"
)

func testModel() vehicle.Model {
	return vehicle.NewMultirotor(vehicle.Constraints{
		MinSpeed:         0,
		MaxSpeed:         10,
		MaxVerticalSpeed: 5,
		MaxAccel:         2,
		MaxDecel:         2,
		MaxYawRate:       1.0,
		MaxYawAccel:      2.0,
		MinAltitude:      0,
		MaxAltitude:      120,
	}, 0, 0, 0)
}

func TestComputeVelocityPicksForwardMotionToGoal(t *testing.T) {
	proj := geometry.NewProjector(23.7, 120.4)
	idx := obstacles.NewIndex(100)
	p := NewPlanner(DefaultConfig(), testModel(), idx, proj)

	state := vehicle.State{Position: [3]float64{0, 0, 50}, Heading: 0, Speed: 2}
	path := []geometry.LocalPoint{{X: 10, Y: 0}, {X: 30, Y: 0}, {X: 50, Y: 0}}
	goal := geometry.LocalPoint{X: 50, Y: 0}

	res, err := p.ComputeVelocity(context.Background(), state, path, goal)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.PathAvailable {
		t.Fatal("expected a feasible velocity candidate")
	}
	if res.Velocity.V <= 0 {
		t.Errorf("expected forward velocity toward goal ahead, got %v", res.Velocity.V)
	}
}

func TestComputeVelocityReportsObstacleSaturation(t *testing.T) {
	proj := geometry.NewProjector(23.7, 120.4)
	idx := obstacles.NewIndex(100)
	// Blanket the entire reachable neighborhood with an obstacle so every
	// candidate trajectory is blocked.
	idx.Add(obstacles.NewCircular("wall", 23.7, 120.4, 500, 0))

	p := NewPlanner(DefaultConfig(), testModel(), idx, proj)
	state := vehicle.State{Position: [3]float64{0, 0, 50}, Heading: 0, Speed: 1}
	goal := geometry.LocalPoint{X: 50, Y: 0}

	res, err := p.ComputeVelocity(context.Background(), state, nil, goal)
	if err == nil {
		t.Fatal("expected an error when every candidate is obstructed")
	}
	if !planerr.Is(err, planerr.KindObstacleSaturation) {
		t.Errorf("expected KindObstacleSaturation, got %v", err)
	}
	if res.PathAvailable {
		t.Error("expected PathAvailable=false under full saturation")
	}
}

func TestComputeVelocityRespectsCancellation(t *testing.T) {
	proj := geometry.NewProjector(23.7, 120.4)
	idx := obstacles.NewIndex(100)
	p := NewPlanner(DefaultConfig(), testModel(), idx, proj)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	state := vehicle.State{Position: [3]float64{0, 0, 50}}
	_, err := p.ComputeVelocity(ctx, state, nil, geometry.LocalPoint{X: 10, Y: 0})
	if !planerr.Is(err, planerr.KindCancelled) {
		t.Errorf("expected KindCancelled, got %v", err)
	}
}
