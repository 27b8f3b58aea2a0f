// Package obstacles provides a uniform-grid spatial index over circular and
// polygonal obstacles, queried by point, segment, and region.
package obstacles

import (
	"fmt"
	"math"
	"sync"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
)

// Kind distinguishes obstacle shapes.
type Kind int

const (
	KindCircular Kind = iota
	KindPolygonal
)

func (k Kind) String() string {
	if k == KindCircular {
		return "circular"
	}
	return "polygonal"
}

// Obstacle is the common interface implemented by Circular and Polygonal.
type Obstacle interface {
	ID() string
	Kind() Kind
	Active() bool
	SetActive(bool)
	Metadata() map[string]any
	// Bounds returns the lat/lon AABB including the safety margin.
	Bounds() (minLat, minLon, maxLat, maxLon float64)
	// ContainsPoint reports whether the given lat/lon lies within the
	// effective (margin-inflated) obstacle.
	ContainsPoint(lat, lon float64) bool
	// IntersectsSegment reports whether the great-circle-approximated
	// segment between two lat/lon points intersects the obstacle.
	IntersectsSegment(lat1, lon1, lat2, lon2 float64) bool
}

type base struct {
	id       string
	active   bool
	metadata map[string]any
}

func (b *base) ID() string              { return b.id }
func (b *base) Active() bool             { return b.active }
func (b *base) SetActive(v bool)         { b.active = v }
func (b *base) Metadata() map[string]any { return b.metadata }
func (b *base) setID(id string)          { b.id = id }

// Circular is a circular obstacle: center, radius, and a safety margin.
type Circular struct {
	base
	Lat, Lon     float64
	Radius       float64
	SafetyMargin float64
}

// NewCircular constructs an active circular obstacle.
func NewCircular(id string, lat, lon, radius, margin float64) *Circular {
	return &Circular{
		base:         base{id: id, active: true, metadata: map[string]any{}},
		Lat:          lat,
		Lon:          lon,
		Radius:       radius,
		SafetyMargin: margin,
	}
}

func (c *Circular) Kind() Kind { return KindCircular }

// EffectiveRadius is radius + safety margin.
func (c *Circular) EffectiveRadius() float64 { return c.Radius + c.SafetyMargin }

func (c *Circular) Bounds() (minLat, minLon, maxLat, maxLon float64) {
	r := c.EffectiveRadius()
	latOffset := r / 111111.0
	lonOffset := r / (111111.0 * math.Cos(geometry.Radians(c.Lat)))
	return c.Lat - latOffset, c.Lon - lonOffset, c.Lat + latOffset, c.Lon + lonOffset
}

func (c *Circular) ContainsPoint(lat, lon float64) bool {
	return geometry.DistanceHaversine(lat, lon, c.Lat, c.Lon) <= c.EffectiveRadius()
}

func (c *Circular) IntersectsSegment(lat1, lon1, lat2, lon2 float64) bool {
	proj := geometry.NewProjector(c.Lat, c.Lon)
	p1 := proj.Project(lat1, lon1)
	p2 := proj.Project(lat2, lon2)
	center := proj.Project(c.Lat, c.Lon)
	hits := geometry.SegmentCircleIntersect(p1, p2, center, c.EffectiveRadius())
	if len(hits) > 0 {
		return true
	}
	// A segment entirely inside the circle has no boundary crossing.
	return pointToSegmentDistance(center, p1, p2) <= c.EffectiveRadius()
}

// Polygonal is a polygonal obstacle defined by lat/lon vertices plus a
// safety margin applied as an outward offset in the local frame.
type Polygonal struct {
	base
	Vertices     []geometry.GeoPoint
	SafetyMargin float64
}

// NewPolygonal constructs an active polygonal obstacle.
func NewPolygonal(id string, vertices []geometry.GeoPoint, margin float64) *Polygonal {
	return &Polygonal{
		base:         base{id: id, active: true, metadata: map[string]any{}},
		Vertices:     vertices,
		SafetyMargin: margin,
	}
}

func (p *Polygonal) Kind() Kind { return KindPolygonal }

func (p *Polygonal) centroid() (lat, lon float64) {
	for _, v := range p.Vertices {
		lat += v.Lat
		lon += v.Lon
	}
	n := float64(len(p.Vertices))
	return lat / n, lon / n
}

func (p *Polygonal) localPolygon() (*geometry.Projector, geometry.Polygon) {
	clat, clon := p.centroid()
	proj := geometry.NewProjector(clat, clon)
	poly := make(geometry.Polygon, len(p.Vertices))
	for i, v := range p.Vertices {
		poly[i] = proj.Project(v.Lat, v.Lon)
	}
	if p.SafetyMargin > 0 {
		poly = geometry.Offset(poly, p.SafetyMargin)
	}
	return proj, poly
}

func (p *Polygonal) Bounds() (minLat, minLon, maxLat, maxLon float64) {
	proj, poly := p.localPolygon()
	minLatR, minLonR := math.MaxFloat64, math.MaxFloat64
	maxLatR, maxLonR := -math.MaxFloat64, -math.MaxFloat64
	for _, v := range poly {
		lat, lon := proj.Unproject(v)
		minLatR = math.Min(minLatR, lat)
		maxLatR = math.Max(maxLatR, lat)
		minLonR = math.Min(minLonR, lon)
		maxLonR = math.Max(maxLonR, lon)
	}
	return minLatR, minLonR, maxLatR, maxLonR
}

func (p *Polygonal) ContainsPoint(lat, lon float64) bool {
	proj, poly := p.localPolygon()
	return geometry.PointInPolygon(poly, proj.Project(lat, lon))
}

func (p *Polygonal) IntersectsSegment(lat1, lon1, lat2, lon2 float64) bool {
	proj, poly := p.localPolygon()
	p1 := proj.Project(lat1, lon1)
	p2 := proj.Project(lat2, lon2)
	if len(geometry.SegmentPolygonIntersect(p1, p2, poly)) > 0 {
		return true
	}
	return geometry.PointInPolygon(poly, p1) || geometry.PointInPolygon(poly, p2)
}

func pointToSegmentDistance(p, a, b geometry.LocalPoint) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	lenSq := dx*dx + dy*dy
	if lenSq < 1e-12 {
		return geometry.DistancePlanar(p, a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))
	proj := geometry.LocalPoint{X: a.X + t*dx, Y: a.Y + t*dy}
	return geometry.DistancePlanar(p, proj)
}

// Stats summarizes index contents.
type Stats struct {
	Total      int
	Circular   int
	Polygonal  int
	CellsUsed  int
}

const defaultCellSize = 100.0

// Index is a uniform-grid spatial index over obstacles, keyed by id.
// Add/remove are serialized against queries with a RWMutex, matching the
// teacher's concurrency idiom for shared mutable state
// (actuators.MAVLinkController.mu).
type Index struct {
	mu       sync.RWMutex
	cellSize float64
	nextID   int

	obstacles map[string]Obstacle
	cells     map[cellKey]map[string]bool
}

type cellKey struct{ cx, cy int64 }

// NewIndex creates an obstacle index with the given cell side in meters; a
// non-positive size falls back to the 100m default.
func NewIndex(cellSize float64) *Index {
	if cellSize <= 0 {
		cellSize = defaultCellSize
	}
	return &Index{
		cellSize:  cellSize,
		obstacles: make(map[string]Obstacle),
		cells:     make(map[cellKey]map[string]bool),
	}
}

// Add inserts an obstacle, auto-assigning an id if empty. Returns the id
// used.
func (idx *Index) Add(o Obstacle) string {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	id := o.ID()
	if id == "" {
		idx.nextID++
		id = fmt.Sprintf("obstacle-%d", idx.nextID)
		if setter, ok := o.(interface{ setID(string) }); ok {
			setter.setID(id)
		}
	}
	idx.obstacles[id] = o
	idx.indexCells(id, o)
	return id
}

func (idx *Index) indexCells(id string, o Obstacle) {
	minLat, minLon, maxLat, maxLon := o.Bounds()
	refLat := (minLat + maxLat) / 2
	lonScale := metersPerLonUnit(refLat)
	minCX := int64(math.Floor(minLon * lonScale / idx.cellSize))
	maxCX := int64(math.Floor(maxLon * lonScale / idx.cellSize))
	minCY := int64(math.Floor(minLat * metersPerDegreeConst / idx.cellSize))
	maxCY := int64(math.Floor(maxLat * metersPerDegreeConst / idx.cellSize))

	for cx := minCX; cx <= maxCX; cx++ {
		for cy := minCY; cy <= maxCY; cy++ {
			k := cellKey{cx, cy}
			if idx.cells[k] == nil {
				idx.cells[k] = make(map[string]bool)
			}
			idx.cells[k][id] = true
		}
	}
}

const metersPerDegreeConst = 111111.0

func metersPerLonUnit(lat float64) float64 {
	return metersPerDegreeConst * math.Cos(geometry.Radians(lat))
}

func (idx *Index) cellOf(lat, lon float64) cellKey {
	cx := int64(math.Floor(lon * metersPerLonUnit(lat) / idx.cellSize))
	cy := int64(math.Floor(lat * metersPerDegreeConst / idx.cellSize))
	return cellKey{cx, cy}
}

// Remove deletes an obstacle by id.
func (idx *Index) Remove(id string) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	delete(idx.obstacles, id)
	for _, ids := range idx.cells {
		delete(ids, id)
	}
}

// Clear empties the index.
func (idx *Index) Clear() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.obstacles = make(map[string]Obstacle)
	idx.cells = make(map[cellKey]map[string]bool)
}

// candidatesNear returns the union of obstacle ids in the 3x3 neighborhood
// of the cell containing (lat, lon).
func (idx *Index) candidatesNear(lat, lon float64) map[string]bool {
	center := idx.cellOf(lat, lon)
	out := make(map[string]bool)
	for dx := int64(-1); dx <= 1; dx++ {
		for dy := int64(-1); dy <= 1; dy++ {
			k := cellKey{center.cx + dx, center.cy + dy}
			for id := range idx.cells[k] {
				out[id] = true
			}
		}
	}
	return out
}

// PointInObstacle reports whether (lat, lon) falls within any active
// obstacle, checking the point's cell and its eight neighbors.
func (idx *Index) PointInObstacle(lat, lon float64) (Obstacle, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for id := range idx.candidatesNear(lat, lon) {
		o := idx.obstacles[id]
		if o == nil || !o.Active() {
			continue
		}
		if o.ContainsPoint(lat, lon) {
			return o, true
		}
	}
	return nil, false
}

// SegmentIntersectsObstacle reports whether the segment between two
// lat/lon points intersects any active obstacle. This is an approximate
// query: it reads only the endpoint cell neighborhoods, so callers needing
// exact results on long segments should sample intermediate points.
func (idx *Index) SegmentIntersectsObstacle(lat1, lon1, lat2, lon2 float64) (Obstacle, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	candidates := idx.candidatesNear(lat1, lon1)
	for id := range idx.candidatesNear(lat2, lon2) {
		candidates[id] = true
	}
	for id := range candidates {
		o := idx.obstacles[id]
		if o == nil || !o.Active() {
			continue
		}
		if o.IntersectsSegment(lat1, lon1, lat2, lon2) {
			return o, true
		}
	}
	return nil, false
}

// ObstaclesInRegion returns every active obstacle whose bounds overlap the
// given lat/lon bounding box.
func (idx *Index) ObstaclesInRegion(minLat, minLon, maxLat, maxLon float64) []Obstacle {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var out []Obstacle
	for _, o := range idx.obstacles {
		if !o.Active() {
			continue
		}
		oMinLat, oMinLon, oMaxLat, oMaxLon := o.Bounds()
		if oMaxLat < minLat || oMinLat > maxLat || oMaxLon < minLon || oMinLon > maxLon {
			continue
		}
		out = append(out, o)
	}
	return out
}

// NearestObstacle returns the closest active obstacle to (lat, lon) by
// center distance, scanning the whole index (the grid only accelerates
// bounded-radius queries).
func (idx *Index) NearestObstacle(lat, lon float64) (Obstacle, float64, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var best Obstacle
	bestDist := math.MaxFloat64
	for _, o := range idx.obstacles {
		if !o.Active() {
			continue
		}
		var d float64
		switch v := o.(type) {
		case *Circular:
			d = geometry.DistanceHaversine(lat, lon, v.Lat, v.Lon)
		case *Polygonal:
			clat, clon := v.centroid()
			d = geometry.DistanceHaversine(lat, lon, clat, clon)
		}
		if d < bestDist {
			bestDist = d
			best = o
		}
	}
	return best, bestDist, best != nil
}

// Statistics reports index totals.
func (idx *Index) Statistics() Stats {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	var s Stats
	s.Total = len(idx.obstacles)
	s.CellsUsed = len(idx.cells)
	for _, o := range idx.obstacles {
		if o.Kind() == KindCircular {
			s.Circular++
		} else {
			s.Polygonal++
		}
	}
	return s
}
