// Package swarm partitions a coverage survey across a fleet, assigns
// conflict-free altitude strata, and checks sub-missions for spatial
// overlap before they're handed to per-vehicle execution.
package swarm

import (
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/google/uuid"
)

// PartitionStrategy selects how the boundary is split across vehicles.
type PartitionStrategy int

const (
	StrategyBilinearStrips PartitionStrategy = iota
	StrategyGrid2x2
	StrategyLatitudeBands
)

// Coordination selects whether sub-missions run at the same time
// (requiring altitude/spatial separation) or one after another.
type Coordination int

const (
	CoordinationSequential Coordination = iota
	CoordinationSimultaneous
)

// SubRegion is one vehicle's share of the overall survey boundary.
type SubRegion struct {
	MissionID string // uuid, stable identity for this vehicle's sub-mission
	VehicleID string
	Boundary  []geometry.GeoPoint
	AltitudeM float64 // altitude stratum assigned by StratifyAltitudes
}

// Partition splits boundary into len(vehicleIDs) sub-regions using
// strategy, leaving an inter-subregion gap of gapM meters (subtracted
// once per internal boundary between adjacent strips/cells; 0 = no gap).
// Vehicle count must be >= 1.
func Partition(boundary []geometry.GeoPoint, vehicleIDs []string, strategy PartitionStrategy, gapM float64) ([]SubRegion, error) {
	n := len(vehicleIDs)
	if n == 0 {
		return nil, planerr.New(planerr.KindInvalidInput, "at least one vehicle is required to partition a survey")
	}
	if len(boundary) < 3 {
		return nil, planerr.New(planerr.KindInvalidInput, "boundary must have at least 3 vertices")
	}
	if n == 1 {
		return []SubRegion{{MissionID: uuid.NewString(), VehicleID: vehicleIDs[0], Boundary: boundary}}, nil
	}

	centerLat, centerLon := centroidOf(boundary)
	proj := geometry.NewProjector(centerLat, centerLon)
	local := make(geometry.Polygon, len(boundary))
	for i, g := range boundary {
		local[i] = proj.Project(g.Lat, g.Lon)
	}
	minX, minY, maxX, maxY := local.BoundingBox()

	var localRegions []geometry.Polygon
	switch strategy {
	case StrategyGrid2x2:
		localRegions = partitionGrid2x2(minX, minY, maxX, maxY, n, gapM)
	case StrategyLatitudeBands:
		localRegions = partitionBands(minX, minY, maxX, maxY, n, false, gapM)
	default: // StrategyBilinearStrips
		localRegions = partitionBands(minX, minY, maxX, maxY, n, true, gapM)
	}

	regions := make([]SubRegion, n)
	for i := 0; i < n; i++ {
		clipped := clipToBoundary(localRegions[i], local)
		geo := make([]geometry.GeoPoint, len(clipped))
		for j, pt := range clipped {
			lat, lon := proj.Unproject(pt)
			geo[j] = geometry.GeoPoint{Lat: lat, Lon: lon}
		}
		regions[i] = SubRegion{
			MissionID: uuid.NewString(),
			VehicleID: vehicleIDs[i],
			Boundary:  geo,
		}
	}
	return regions, nil
}

func centroidOf(boundary []geometry.GeoPoint) (lat, lon float64) {
	var sLat, sLon float64
	for _, g := range boundary {
		sLat += g.Lat
		sLon += g.Lon
	}
	n := float64(len(boundary))
	return sLat / n, sLon / n
}

// partitionBands splits the bounding box into n equal-width vertical
// strips when vertical is true, otherwise into n equal-height horizontal
// bands ("latitude bands"). The cuts are straight lines across the
// bounding box, not interpolated between the boundary's corners, and the
// caller's strategy alone picks strips or bands; neither falls back to
// the other. gapM is subtracted once per internal boundary (n-1 of
// them), shared equally by the n cells.
func partitionBands(minX, minY, maxX, maxY float64, n int, vertical bool, gapM float64) []geometry.Polygon {
	out := make([]geometry.Polygon, n)
	if vertical {
		width := ((maxX - minX) - float64(n-1)*gapM) / float64(n)
		for i := 0; i < n; i++ {
			x0 := minX + float64(i)*(width+gapM)
			x1 := x0 + width
			out[i] = geometry.Polygon{
				{X: x0, Y: minY}, {X: x1, Y: minY}, {X: x1, Y: maxY}, {X: x0, Y: maxY},
			}
		}
		return out
	}
	height := ((maxY - minY) - float64(n-1)*gapM) / float64(n)
	for i := 0; i < n; i++ {
		y0 := minY + float64(i)*(height+gapM)
		y1 := y0 + height
		out[i] = geometry.Polygon{
			{X: minX, Y: y0}, {X: maxX, Y: y0}, {X: maxX, Y: y1}, {X: minX, Y: y1},
		}
	}
	return out
}

// partitionGrid2x2 splits into a roughly-square grid sized to cover n
// vehicles (e.g. n=4 -> 2x2); for odd n the last row holds a single cell
// spanning the full width. gapM is subtracted once per internal column/row boundary.
func partitionGrid2x2(minX, minY, maxX, maxY float64, n int, gapM float64) []geometry.Polygon {
	cols := 2
	rows := (n + 1) / 2
	if n == 1 {
		cols, rows = 1, 1
	}
	width := ((maxX - minX) - float64(cols-1)*gapM) / float64(cols)
	height := ((maxY - minY) - float64(rows-1)*gapM) / float64(rows)

	out := make([]geometry.Polygon, 0, rows*cols)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if len(out) >= n {
				break
			}
			x0, x1 := minX+float64(c)*(width+gapM), minX+float64(c)*(width+gapM)+width
			if r == rows-1 && n%2 == 1 {
				// An odd n leaves one cell in the last row: stretch it
				// across the full width.
				x1 = maxX
			}
			y0, y1 := minY+float64(r)*(height+gapM), minY+float64(r)*(height+gapM)+height
			out = append(out, geometry.Polygon{
				{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
			})
		}
	}
	return out
}

// clipToBoundary keeps each corner of cell that lies inside boundary and
// replaces each corner outside it with the nearest boundary vertex. This
// is a coarse approximation, not a Sutherland-Hodgman clip; it is adequate
// only for convex or near-convex survey boundaries.
func clipToBoundary(cellPoly geometry.Polygon, boundary geometry.Polygon) geometry.Polygon {
	out := make(geometry.Polygon, 0, len(cellPoly))
	for _, p := range cellPoly {
		if geometry.PointInPolygon(boundary, p) {
			out = append(out, p)
			continue
		}
		out = append(out, nearestBoundaryPoint(p, boundary))
	}
	return out
}

func nearestBoundaryPoint(p geometry.LocalPoint, boundary geometry.Polygon) geometry.LocalPoint {
	best := boundary[0]
	bestDist := geometry.DistancePlanar(p, best)
	for _, v := range boundary[1:] {
		d := geometry.DistancePlanar(p, v)
		if d < bestDist {
			bestDist = d
			best = v
		}
	}
	return best
}

// StratifyAltitudes assigns each sub-region a distinct altitude stratum
// (AltitudeM), base + (N-i-1)*separationM over regions' existing order,
// so the last-returning vehicle (the final element of regions) is lowest.
// It sets no separate RTL altitude.
func StratifyAltitudes(regions []SubRegion, baseAltitude, separationM float64) {
	n := len(regions)
	for i := range regions {
		regions[i].AltitudeM = baseAltitude + float64(n-i-1)*separationM
	}
}
