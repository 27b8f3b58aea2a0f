// Package localplanner implements the Dynamic Window Approach: at each
// control tick it samples the vehicle's reachable velocities, predicts a
// short trajectory for each, scores them against heading alignment,
// obstacle clearance, path adherence, and goal progress, and selects the
// best-scoring admissible candidate.
package localplanner

import (
	"context"
	"math"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/PossumXI/Asgard/Skylark/internal/vehicle"
)

// Config mirrors the reference planner's weighting and timing knobs.
type Config struct {
	DT                  float64
	PredictTime         float64
	HeadingWeight       float64
	VelocityWeight      float64
	ObstacleWeight      float64
	GoalWeight          float64
	PathWeight          float64
	RobotRadius         float64
	GoalDistanceThreshold float64
	WaypointLookahead   int
}

// DefaultConfig mirrors the Python reference's DWAConfig defaults.
func DefaultConfig() Config {
	return Config{
		DT:                    0.1,
		PredictTime:           3.0,
		HeadingWeight:         0.15,
		VelocityWeight:        0.10,
		ObstacleWeight:        0.40,
		GoalWeight:            0.25,
		PathWeight:            0.10,
		RobotRadius:           1.0,
		GoalDistanceThreshold: 0.5,
		WaypointLookahead:     3,
	}
}

// Result is the outcome of one control-tick selection.
type Result struct {
	Velocity      vehicle.Velocity
	Trajectory    [][3]float64
	PathAvailable bool // distinguishes "no admissible candidate" from "on path, zero cost"
	Cost          float64
}

// Planner runs DWA local obstacle avoidance against a fixed global path.
type Planner struct {
	cfg   Config
	model vehicle.Model
	obs   *obstacles.Index
	proj  *geometry.Projector
}

// NewPlanner builds a local planner over a vehicle model, an obstacle
// index in geographic coordinates, and the projector used to convert
// local-frame trajectory points back to lat/lon for obstacle queries.
func NewPlanner(cfg Config, model vehicle.Model, obs *obstacles.Index, proj *geometry.Projector) *Planner {
	if cfg.DT <= 0 {
		cfg.DT = DefaultConfig().DT
	}
	if cfg.PredictTime <= 0 {
		cfg.PredictTime = DefaultConfig().PredictTime
	}
	if cfg.WaypointLookahead <= 0 {
		cfg.WaypointLookahead = DefaultConfig().WaypointLookahead
	}
	return &Planner{cfg: cfg, model: model, obs: obs, proj: proj}
}

// ComputeVelocity selects the best admissible (v, w) for the current
// state given a reference path; path[0] is assumed to be the nearest
// upcoming waypoint. goal is the final destination used for the
// goal-progress cost term.
func (p *Planner) ComputeVelocity(ctx context.Context, state vehicle.State, path []geometry.LocalPoint, goal geometry.LocalPoint) (Result, error) {
	select {
	case <-ctx.Done():
		return Result{}, planerr.New(planerr.KindCancelled, "context cancelled before velocity computation")
	default:
	}

	candidates := p.model.ReachableVelocities(state, p.cfg.DT)
	if len(candidates) == 0 {
		return Result{PathAvailable: false}, planerr.New(planerr.KindNoPathFound, "no reachable velocity samples")
	}

	lookaheadGoal := goal
	if len(path) > 0 {
		idx := p.cfg.WaypointLookahead
		if idx >= len(path) {
			idx = len(path) - 1
		}
		lookaheadGoal = path[idx]
	}

	best := Result{PathAvailable: false}
	bestCost := math.Inf(1)
	saturatedCount := 0

	for _, v := range candidates {
		traj := p.model.PredictTrajectory(state, v, p.cfg.DT, p.cfg.PredictTime)
		if len(traj) == 0 {
			continue
		}

		obstacleCost, blocked := p.obstacleCost(traj)
		if blocked {
			saturatedCount++
			continue
		}

		headingCost := p.headingCost(traj, lookaheadGoal)
		velocityCost := (p.model.Constraints().MaxSpeed - v.V) / math.Max(p.model.Constraints().MaxSpeed, 1e-9)
		goalCost := p.goalCost(traj, lookaheadGoal)
		pathCost := p.pathCost(traj, path)

		total := p.cfg.HeadingWeight*headingCost +
			p.cfg.VelocityWeight*velocityCost +
			p.cfg.ObstacleWeight*obstacleCost +
			p.cfg.GoalWeight*goalCost +
			p.cfg.PathWeight*pathCost

		if total < bestCost {
			bestCost = total
			best = Result{Velocity: v, Trajectory: traj, PathAvailable: true, Cost: total}
		}
	}

	if !best.PathAvailable {
		if saturatedCount == len(candidates) && len(candidates) > 0 {
			return best, planerr.New(planerr.KindObstacleSaturation, "every reachable velocity is obstructed")
		}
		return best, planerr.New(planerr.KindNoPathFound, "no admissible velocity candidate")
	}
	return best, nil
}

// obstacleCost returns (cost, blocked): blocked is true if any point of
// the trajectory lies inside an active obstacle or within the vehicle's
// collision radius of the nearest obstacle's center, signalling the
// candidate must be discarded outright. The obstacle's own radius is not
// added to the collision radius.
func (p *Planner) obstacleCost(traj [][3]float64) (float64, bool) {
	if p.obs == nil || p.proj == nil {
		return 0, false
	}
	minDist := math.Inf(1)
	for _, pt := range traj {
		lat, lon := p.proj.Unproject(geometry.LocalPoint{X: pt[0], Y: pt[1]})
		if _, found := p.obs.PointInObstacle(lat, lon); found {
			return 0, true
		}
		if o, dist, found := p.obs.NearestObstacle(lat, lon); found {
			_ = o
			if dist < p.cfg.RobotRadius {
				return 0, true
			}
			if dist < minDist {
				minDist = dist
			}
		}
	}
	if math.IsInf(minDist, 1) {
		return 0, false
	}
	return 1.0 / (1.0 + minDist), false
}

func (p *Planner) headingCost(traj [][3]float64, goal geometry.LocalPoint) float64 {
	last := traj[len(traj)-1]
	dx, dy := goal.X-last[0], goal.Y-last[1]
	if dx == 0 && dy == 0 {
		return 0
	}
	targetHeading := math.Atan2(dy, dx)

	var achievedHeading float64
	if len(traj) >= 2 {
		prev := traj[len(traj)-2]
		achievedHeading = math.Atan2(last[1]-prev[1], last[0]-prev[0])
	} else {
		achievedHeading = targetHeading
	}

	diff := math.Abs(normalizeAngleDiff(targetHeading - achievedHeading))
	return diff / math.Pi
}

func (p *Planner) goalCost(traj [][3]float64, goal geometry.LocalPoint) float64 {
	last := traj[len(traj)-1]
	return math.Hypot(goal.X-last[0], goal.Y-last[1])
}

func (p *Planner) pathCost(traj [][3]float64, path []geometry.LocalPoint) float64 {
	if len(path) == 0 {
		return 0
	}
	last := traj[len(traj)-1]
	minDist := math.Inf(1)
	for _, wp := range path {
		d := math.Hypot(wp.X-last[0], wp.Y-last[1])
		if d < minDist {
			minDist = d
		}
	}
	return minDist
}

func normalizeAngleDiff(theta float64) float64 {
	for theta > math.Pi {
		theta -= 2 * math.Pi
	}
	for theta < -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}
