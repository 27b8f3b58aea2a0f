// Package globalplanner provides grid-based A* path search over the
// planar survey area, used to route around obstacles the coverage
// scanline fill cannot clear directly.
package globalplanner

import (
	"container/heap"
	"context"
	"math"
	"time"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
)

// Heuristic selects the distance estimate driving the search.
type Heuristic int

const (
	HeuristicEuclidean Heuristic = iota
	HeuristicManhattan
	HeuristicChebyshev
	HeuristicDiagonal
)

// Config parameters the search.
type Config struct {
	CellSize      float64 // meters per grid cell
	Heuristic     Heuristic
	HeuristicWeight float64 // >1 trades optimality for speed
	MaxIterations int
	Timeout       time.Duration
}

// DefaultConfig mirrors the reference planner's defaults.
func DefaultConfig() Config {
	return Config{
		CellSize:        2.0,
		Heuristic:       HeuristicDiagonal,
		HeuristicWeight: 1.0,
		MaxIterations:   10000,
		Timeout:         30 * time.Second,
	}
}

type cell struct{ x, y int }

var neighborOffsets = []cell{
	{1, 0}, {-1, 0}, {0, 1}, {0, -1},
	{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
}

type node struct {
	c         cell
	pt        geometry.LocalPoint // exact (non-quantized) position this node was reached at
	g         float64
	h         float64
	parent    *node
	heapIndex int
}

func (n *node) f() float64 { return n.g + n.h }

type openSet []*node

func (s openSet) Len() int            { return len(s) }
func (s openSet) Less(i, j int) bool  { return s[i].f() < s[j].f() }
func (s openSet) Swap(i, j int) {
	s[i], s[j] = s[j], s[i]
	s[i].heapIndex = i
	s[j].heapIndex = j
}
func (s *openSet) Push(x any) {
	n := x.(*node)
	n.heapIndex = len(*s)
	*s = append(*s, n)
}
func (s *openSet) Pop() any {
	old := *s
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*s = old[:n-1]
	return item
}

// Planner searches a rectangular planar region, discretized into cells of
// Config.CellSize, for a collision-free path between two local points.
type Planner struct {
	cfg     Config
	idx     *obstacles.Index
	minX, minY, maxX, maxY float64
}

// NewPlanner builds a Planner over the given bounding box and obstacle
// index. The bounding box should be expressed in the same local ENU
// frame as the start/goal points passed to Plan.
func NewPlanner(cfg Config, idx *obstacles.Index, minX, minY, maxX, maxY float64) *Planner {
	if cfg.CellSize <= 0 {
		cfg.CellSize = DefaultConfig().CellSize
	}
	if cfg.HeuristicWeight <= 0 {
		cfg.HeuristicWeight = 1.0
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultConfig().MaxIterations
	}
	return &Planner{cfg: cfg, idx: idx, minX: minX, minY: minY, maxX: maxX, maxY: maxY}
}

// Obstacles returns the obstacle index this planner was built with, so
// callers can reuse the same index for point/segment queries outside of
// Plan's cell-grid search.
func (p *Planner) Obstacles() *obstacles.Index { return p.idx }

func (p *Planner) toCell(pt geometry.LocalPoint) cell {
	return cell{
		x: int(math.Round((pt.X - p.minX) / p.cfg.CellSize)),
		y: int(math.Round((pt.Y - p.minY) / p.cfg.CellSize)),
	}
}

func (p *Planner) toLocal(c cell) geometry.LocalPoint {
	return geometry.LocalPoint{
		X: p.minX + float64(c.x)*p.cfg.CellSize,
		Y: p.minY + float64(c.y)*p.cfg.CellSize,
	}
}

func (p *Planner) inBounds(c cell) bool {
	pt := p.toLocal(c)
	return pt.X >= p.minX && pt.X <= p.maxX && pt.Y >= p.minY && pt.Y <= p.maxY
}

func (p *Planner) heuristic(a, b cell) float64 {
	dx := math.Abs(float64(a.x - b.x))
	dy := math.Abs(float64(a.y - b.y))
	var h float64
	switch p.cfg.Heuristic {
	case HeuristicManhattan:
		h = dx + dy
	case HeuristicChebyshev:
		h = math.Max(dx, dy)
	case HeuristicDiagonal:
		h = 1.414*math.Min(dx, dy) + math.Abs(dx-dy)
	default: // HeuristicEuclidean
		h = math.Hypot(dx, dy)
	}
	return h * p.cfg.CellSize * p.cfg.HeuristicWeight
}

// Plan runs A* from start to goal, validating every candidate move
// against obstructed and treating isObstructed(p) == true as blocked.
// isObstructed receives local-frame coordinates.
func (p *Planner) Plan(ctx context.Context, start, goal geometry.LocalPoint, isObstructed func(geometry.LocalPoint) bool) ([]geometry.LocalPoint, error) {
	startedAt := time.Now()
	startCell := p.toCell(start)
	goalCell := p.toCell(goal)

	open := &openSet{}
	heap.Init(open)
	startNode := &node{c: startCell, pt: start, g: 0, h: p.heuristic(startCell, goalCell)}
	heap.Push(open, startNode)

	visited := map[cell]*node{startCell: startNode}
	closed := map[cell]bool{}

	iterations := 0
	for open.Len() > 0 {
		iterations++
		if iterations > p.cfg.MaxIterations {
			return nil, planerr.Searchf(planerr.KindNoPathFound, iterations, time.Since(startedAt).Seconds(),
				"exceeded max iterations (%d)", p.cfg.MaxIterations)
		}
		if p.cfg.Timeout > 0 && time.Since(startedAt) > p.cfg.Timeout {
			return nil, planerr.Searchf(planerr.KindTimeout, iterations, time.Since(startedAt).Seconds(),
				"search exceeded timeout %s", p.cfg.Timeout)
		}
		select {
		case <-ctx.Done():
			return nil, planerr.Searchf(planerr.KindCancelled, iterations, time.Since(startedAt).Seconds(), "context cancelled")
		default:
		}

		current := heap.Pop(open).(*node)
		if closed[current.c] {
			continue
		}
		closed[current.c] = true

		if current.c == goalCell {
			return p.reconstruct(current), nil
		}

		for _, off := range neighborOffsets {
			nc := cell{current.c.x + off.x, current.c.y + off.y}
			if !p.inBounds(nc) || closed[nc] {
				continue
			}
			nPoint := p.toLocal(nc)
			if isObstructed != nil && isObstructed(nPoint) {
				continue
			}

			stepCost := p.cfg.CellSize
			if off.x != 0 && off.y != 0 {
				stepCost *= math.Sqrt2
			}
			tentativeG := current.g + stepCost

			existing, seen := visited[nc]
			if !seen {
				nn := &node{c: nc, pt: nPoint, g: tentativeG, h: p.heuristic(nc, goalCell), parent: current}
				visited[nc] = nn
				heap.Push(open, nn)
			} else if tentativeG < existing.g {
				existing.g = tentativeG
				existing.pt = nPoint
				existing.parent = current
				if existing.heapIndex >= 0 && existing.heapIndex < open.Len() {
					heap.Fix(open, existing.heapIndex)
				}
			}
		}

		// One additional candidate alongside the 8 lattice moves: a direct
		// continuous-space step of length CellSize toward the goal, so a
		// non-axis-aligned goal doesn't force a staircase path.
		if directPt, ok := p.directStep(current.pt, goal); ok {
			dc := p.toCell(directPt)
			if p.inBounds(dc) && !closed[dc] && (isObstructed == nil || !isObstructed(directPt)) {
				stepCost := geometry.DistancePlanar(current.pt, directPt)
				tentativeG := current.g + stepCost
				existing, seen := visited[dc]
				if !seen {
					nn := &node{c: dc, pt: directPt, g: tentativeG, h: p.heuristic(dc, goalCell), parent: current}
					visited[dc] = nn
					heap.Push(open, nn)
				} else if tentativeG < existing.g {
					existing.g = tentativeG
					existing.pt = directPt
					existing.parent = current
					if existing.heapIndex >= 0 && existing.heapIndex < open.Len() {
						heap.Fix(open, existing.heapIndex)
					}
				}
			}
		}
	}

	return nil, planerr.Searchf(planerr.KindNoPathFound, iterations, time.Since(startedAt).Seconds(), "open set exhausted")
}

// directStep returns the point CellSize meters from from toward goal
// (clamped to goal itself if closer), or false if from is already at
// goal.
func (p *Planner) directStep(from, goal geometry.LocalPoint) (geometry.LocalPoint, bool) {
	dx, dy := goal.X-from.X, goal.Y-from.Y
	dist := math.Hypot(dx, dy)
	if dist < 1e-9 {
		return geometry.LocalPoint{}, false
	}
	step := p.cfg.CellSize
	if step > dist {
		step = dist
	}
	return geometry.LocalPoint{X: from.X + dx/dist*step, Y: from.Y + dy/dist*step}, true
}

func (p *Planner) reconstruct(n *node) []geometry.LocalPoint {
	var pts []geometry.LocalPoint
	for cur := n; cur != nil; cur = cur.parent {
		pts = append(pts, cur.pt)
	}
	path := make([]geometry.LocalPoint, len(pts))
	for i, pt := range pts {
		path[len(pts)-1-i] = pt
	}
	return path
}
