package vehicle

import (
	"math"
	"testing"
)

func testConstraints() Constraints {
	return Constraints{
		MinSpeed:         0,
		MaxSpeed:         15,
		MaxVerticalSpeed: 5,
		MaxAccel:         2,
		MaxDecel:         2,
		MaxYawRate:       1.0,
		MaxYawAccel:      2.0,
		MinAltitude:      0,
		MaxAltitude:      120,
	}
}

func TestMultirotorReachableVelocitiesWithinBounds(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	state := State{Speed: 5, YawRate: 0}

	velocities := m.ReachableVelocities(state, 0.2)
	if len(velocities) == 0 {
		t.Fatal("expected non-empty reachable set")
	}
	for _, v := range velocities {
		if v.V < 0 || v.V > 15 {
			t.Errorf("velocity %v out of [min,max] speed bounds", v.V)
		}
		if math.Abs(v.W) > 1.0+1e-9 {
			t.Errorf("yaw rate %v exceeds max", v.W)
		}
	}
}

func TestPredictTrajectoryStraightLine(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	state := State{Position: [3]float64{0, 0, 50}, Heading: 0}
	traj := m.PredictTrajectory(state, Velocity{V: 2, W: 0}, 0.5, 2.0)

	if len(traj) != 4 {
		t.Fatalf("expected 4 steps, got %d", len(traj))
	}
	last := traj[len(traj)-1]
	wantX := 2 * 0.5 * 4
	if math.Abs(last[0]-wantX) > 1e-9 {
		t.Errorf("x = %v, want %v", last[0], wantX)
	}
	if math.Abs(last[1]) > 1e-9 {
		t.Errorf("y = %v, want 0 (straight line along heading 0)", last[1])
	}
}

func TestIsFeasiblePathRejectsAltitudeOutOfRange(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	if m.IsFeasiblePath([3]float64{0, 0, 10}, [3]float64{100, 0, 200}, 5) {
		t.Error("expected infeasible: altitude exceeds max")
	}
}

func TestIsFeasiblePathRejectsExcessiveClimbRate(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	// 1m planar distance at 10 m/s takes 0.1s; climbing 50m in that time
	// requires 500 m/s vertical speed, far exceeding MaxVerticalSpeed=5.
	if m.IsFeasiblePath([3]float64{0, 0, 10}, [3]float64{1, 0, 60}, 10) {
		t.Error("expected infeasible: required vertical speed exceeds bound")
	}
}

func TestComputeTurnWaypointsInsertsOnSharpCorner(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	p1 := [3]float64{0, 0, 50}
	p2 := [3]float64{10, 0, 50}
	p3 := [3]float64{10, 10, 50} // 90 degree turn

	wps := m.ComputeTurnWaypoints(p1, p2, p3)
	if len(wps) != 3 {
		t.Fatalf("expected decel/turn/accel triple for sharp corner, got %d points", len(wps))
	}
}

func TestComputeTurnWaypointsSkipsOnGentleCorner(t *testing.T) {
	m := NewMultirotor(testConstraints(), 0, 0, 0)
	p1 := [3]float64{0, 0, 50}
	p2 := [3]float64{10, 0, 50}
	p3 := [3]float64{20, 1, 50} // nearly straight

	wps := m.ComputeTurnWaypoints(p1, p2, p3)
	if len(wps) != 1 {
		t.Fatalf("expected pass-through for gentle corner, got %d points", len(wps))
	}
}

func TestFixedWingMinTurnRadiusFromBankAngle(t *testing.T) {
	c := testConstraints()
	c.MinSpeed = 12
	fw := NewFixedWing(c, 30, 10)

	want := turnRadius(12, 30)
	if math.Abs(fw.Constraints().MinTurnRadius-want) > 1e-6 {
		t.Errorf("min turn radius = %v, want %v", fw.Constraints().MinTurnRadius, want)
	}
}

func TestFixedWingEnforcesStallSpeedAsFloor(t *testing.T) {
	c := testConstraints()
	c.MinSpeed = 0
	fw := NewFixedWing(c, 30, 12)

	if fw.Constraints().MinSpeed != 12 {
		t.Errorf("expected min speed raised to stall speed 12, got %v", fw.Constraints().MinSpeed)
	}
}

func TestDubinsLSLConnectsOffsetHeadings(t *testing.T) {
	c := testConstraints()
	c.MinSpeed = 12
	fw := NewFixedWing(c, 30, 10)

	start := Pose{X: 0, Y: 0, Theta: 0}
	goal := Pose{X: 200, Y: 50, Theta: math.Pi / 2}

	path, ok := fw.ComputeDubinsPath(start, goal)
	if !ok {
		t.Fatal("expected a feasible LSL path for a modest lateral offset")
	}
	if path.Length <= 0 {
		t.Errorf("expected positive path length, got %v", path.Length)
	}
}

func TestFactoryDispatch(t *testing.T) {
	m, ok := New(TypeMultirotor, Params{Constraints: testConstraints()})
	if !ok || m.Type() != TypeMultirotor {
		t.Fatal("expected multirotor model from factory")
	}

	fw, ok := New(TypeFixedWing, Params{Constraints: testConstraints(), MaxBankDeg: 25, StallSpeed: 11})
	if !ok || fw.Type() != TypeFixedWing {
		t.Fatal("expected fixed-wing model from factory")
	}

	if _, ok := New(TypeVTOL, Params{}); ok {
		t.Fatal("expected VTOL to be unregistered in the factory")
	}
}
