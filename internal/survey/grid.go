package survey

import (
	"context"
	"math"
	"sort"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/globalplanner"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/PossumXI/Asgard/Skylark/internal/trajectory"
)

// Waypoint is one point of a generated coverage path, in geographic
// coordinates with an explicit role tag.
type Waypoint struct {
	Point geometry.GeoPoint
	Role  Role
	Speed float64 // m/s, from the C8 velocity profile; 0 on takeoff/RTL bookends
}

// Role tags the purpose of a waypoint in the generated sequence.
type Role int

const (
	RoleTakeoff Role = iota
	RoleLeadIn
	RolePhotoStart
	RolePhotoEnd
	RoleOvershoot
	RoleTransit
	RoleRTL
)

// Result is the outcome of Generate.
type Result struct {
	Waypoints  []Waypoint
	Stats      Statistics
	Diagnostic *planerr.Error // non-nil only for the non-fatal EmptyCoverage case
}

// Generate builds a boustrophedon coverage path over boundary, optionally
// routing individual scan lines around obstacles in obs. boundary must
// have at least 3 vertices describing a simple polygon.
func Generate(boundary []geometry.GeoPoint, obs *obstacles.Index, cfg Config) (Result, error) {
	if len(boundary) < 3 {
		return Result{}, planerr.New(planerr.KindInvalidInput, "boundary must have at least 3 vertices")
	}
	if err := cfg.Validate(); err != nil {
		return Result{}, err
	}

	centerLat, centerLon := centroidOf(boundary)
	proj := geometry.NewProjector(centerLat, centerLon)

	localBoundary := make(geometry.Polygon, len(boundary))
	for i, g := range boundary {
		localBoundary[i] = proj.Project(g.Lat, g.Lon)
	}
	areaM2 := localBoundary.Area()

	var homeLocal *geometry.LocalPoint
	if cfg.Home != nil {
		pt := proj.Project(cfg.Home.Lat, cfg.Home.Lon)
		homeLocal = &pt
	}

	spacing := cfg.Camera.LineSpacing(cfg.Altitude, cfg.SideOverlapPct)
	if spacing <= 0 {
		spacing = 10
	}

	var localPath []geometry.LocalPoint
	var roles []Role
	var totalLines int

	switch cfg.Pattern {
	case PatternSpiral, PatternExpandingSquare:
		var ring []geometry.LocalPoint
		if cfg.Pattern == PatternSpiral {
			ring = spiralPath(localBoundary, spacing)
		} else {
			ring = expandingSquarePath(localBoundary, spacing)
		}
		if len(ring) == 0 {
			return Result{
				Diagnostic: planerr.New(planerr.KindEmptyCoverage, "boundary too small relative to camera footprint to inscribe a ring"),
				Stats:      Statistics{AreaM2: areaM2, LineSpacingM: spacing},
			}, nil
		}
		localPath = ring
		roles = make([]Role, len(ring))
		for i := range roles {
			roles[i] = RoleTransit
		}
		roles[0] = RolePhotoStart
		roles[len(roles)-1] = RolePhotoEnd
		totalLines = 1

	default:
		heading := cfg.HeadingDeg
		if heading == 0 {
			heading = longestEdgeHeading(localBoundary)
		}
		center := localBoundary.Centroid()
		rotated := localBoundary.Rotate(center, -heading)

		_, rMinY, _, rMaxY := rotated.BoundingBox()
		if rMaxY-rMinY < spacing/2 {
			return Result{
				Diagnostic: planerr.New(planerr.KindEmptyCoverage, "boundary narrower than half the line spacing: no scan line fits"),
				Stats:      Statistics{AreaM2: areaM2, LineSpacingM: spacing},
			}, nil
		}

		shrunk := geometry.Offset(rotated, -spacing/2)
		if shrunk.Area() < 1.0 {
			return Result{
				Diagnostic: planerr.New(planerr.KindEmptyCoverage, "boundary too small relative to camera footprint to place any scan line"),
				Stats:      Statistics{AreaM2: areaM2, LineSpacingM: spacing},
			}, nil
		}

		minX, minY, maxX, maxY := shrunk.BoundingBox()

		var lines [][2]geometry.LocalPoint
		lineIndex := 0
		for y := minY; y <= maxY+1e-9; y += spacing {
			seg, ok := scanlineSegment(shrunk, y)
			if !ok {
				continue
			}
			if cfg.Pattern == PatternZigzag && lineIndex%2 == 1 {
				seg[0], seg[1] = seg[1], seg[0]
			}
			lines = append(lines, seg)
			lineIndex++
		}

		if len(lines) == 0 {
			return Result{
				Diagnostic: planerr.New(planerr.KindEmptyCoverage, "no scan lines intersected the shrunk boundary"),
				Stats:      Statistics{AreaM2: areaM2, LineSpacingM: spacing},
			}, nil
		}

		var homeRotated *geometry.LocalPoint
		if homeLocal != nil {
			pt := rotatePoint(*homeLocal, center, -heading)
			homeRotated = &pt
		}
		applyEntryBias(lines, cfg.Entry, minX, minY, maxX, maxY, homeRotated)

		var planner *globalplanner.Planner
		if obs != nil {
			planner = globalplanner.NewPlanner(globalplanner.DefaultConfig(), obs, minX-spacing, minY-spacing, maxX+spacing, maxY+spacing)
		}

		for _, line := range lines {
			entry, exit := line[0], line[1]
			dirX, dirY := direction(entry, exit)

			leadIn := geometry.LocalPoint{X: entry.X - dirX*cfg.LeadInM, Y: entry.Y - dirY*cfg.LeadInM}
			overshoot := geometry.LocalPoint{X: exit.X + dirX*cfg.OvershootM, Y: exit.Y + dirY*cfg.OvershootM}

			segment := mitigateObstacles(planner, proj, leadIn, entry, exit, overshoot)
			if cfg.SimplifyEpsilonM > 0 {
				segment = simplifyDetour(segment, cfg.SimplifyEpsilonM)
			}
			for j, pt := range segment.points {
				localPath = append(localPath, pt)
				roles = append(roles, segment.roles[j])
			}
		}
		totalLines = len(lines)

		// De-rotate back to the original frame.
		for i := range localPath {
			localPath[i] = rotatePoint(localPath[i], center, heading)
		}
	}

	speeds := velocityProfile(localPath, cfg)

	waypoints := make([]Waypoint, 0, len(localPath)+2)
	if len(localPath) > 0 {
		takeoffLat, takeoffLon := proj.Unproject(localPath[0])
		if cfg.Home != nil {
			takeoffLat, takeoffLon = cfg.Home.Lat, cfg.Home.Lon
		}
		waypoints = append(waypoints, Waypoint{
			Point: geometry.GeoPoint{Lat: takeoffLat, Lon: takeoffLon, Alt: cfg.TakeoffAlt, HasAlt: true},
			Role:  RoleTakeoff,
		})
	}
	for i, pt := range localPath {
		lat, lon := proj.Unproject(pt)
		waypoints = append(waypoints, Waypoint{
			Point: geometry.GeoPoint{Lat: lat, Lon: lon, Alt: cfg.Altitude, HasAlt: true},
			Role:  roles[i],
			Speed: speeds[i],
		})
	}
	if cfg.RTLAtEnd {
		rtlLat, rtlLon := centerLat, centerLon
		if cfg.Home != nil {
			rtlLat, rtlLon = cfg.Home.Lat, cfg.Home.Lon
		}
		waypoints = append(waypoints, Waypoint{
			Point: geometry.GeoPoint{Lat: rtlLat, Lon: rtlLon, Alt: cfg.TakeoffAlt, HasAlt: true},
			Role:  RoleRTL,
		})
	}

	cruise := cfg.CruiseSpeedMS
	if cruise <= 0 {
		cruise = DefaultConfig().CruiseSpeedMS
	}

	if cfg.Vehicle != nil {
		if err := validateFeasibility(proj, waypoints, cfg.Vehicle, cruise); err != nil {
			return Result{}, err
		}
	}

	totalLength := 0.0
	for i := 1; i < len(localPath); i++ {
		totalLength += geometry.DistancePlanar(localPath[i-1], localPath[i])
	}
	photoInterval := cfg.Camera.PhotoInterval(cfg.Altitude, cfg.FrontOverlapPct)
	estimatedPhotos := 0
	if photoInterval > 0 {
		estimatedPhotos = int(totalLength / photoInterval)
	}

	return Result{
		Waypoints: waypoints,
		Stats: Statistics{
			TotalLines:       totalLines,
			TotalLengthM:     totalLength,
			AreaM2:           areaM2,
			EstimatedPhotos:  estimatedPhotos,
			LineSpacingM:     spacing,
			EstimatedFlightS: totalLength / cruise,
			PhotoIntervalM:   photoInterval,
		},
	}, nil
}

// velocityProfile runs the C8 forward/backward acceleration-limited speed
// pass over the local path, deriving the cornering-accel bound from the
// configured vehicle's minimum turn radius when one is set.
func velocityProfile(localPath []geometry.LocalPoint, cfg Config) []float64 {
	cruise := cfg.CruiseSpeedMS
	if cruise <= 0 {
		cruise = DefaultConfig().CruiseSpeedMS
	}
	maxAccel, maxDecel, maxLateralAccel := 1.0, 1.0, 3.0
	if cfg.Vehicle != nil {
		c := cfg.Vehicle.Constraints()
		if c.MaxAccel > 0 {
			maxAccel = c.MaxAccel
		}
		if c.MaxDecel > 0 {
			maxDecel = c.MaxDecel
		}
		if c.MinTurnRadius > 0 {
			maxLateralAccel = (cruise * cruise) / c.MinTurnRadius
		}
	}
	profiled := trajectory.VelocityProfile(localPath, cruise, maxLateralAccel, maxAccel, maxDecel)
	speeds := make([]float64, len(profiled))
	for i, p := range profiled {
		speeds[i] = p.Speed
	}
	return speeds
}

// simplifyDetour runs Douglas-Peucker simplification over each contiguous
// run of RoleTransit points in seg (the obstacle-detour legs the global
// planner produces), leaving the lead-in/photo/overshoot points untouched.
func simplifyDetour(seg lineSegment, epsilon float64) lineSegment {
	out := lineSegment{}
	i := 0
	for i < len(seg.points) {
		if seg.roles[i] != RoleTransit {
			out.points = append(out.points, seg.points[i])
			out.roles = append(out.roles, seg.roles[i])
			i++
			continue
		}
		j := i
		for j < len(seg.points) && seg.roles[j] == RoleTransit {
			j++
		}
		run := trajectory.Simplify(seg.points[i:j], epsilon)
		for _, p := range run {
			out.points = append(out.points, p)
			out.roles = append(out.roles, RoleTransit)
		}
		i = j
	}
	return out
}

// validateFeasibility checks every consecutive waypoint pair against the
// vehicle's altitude and vertical-speed limits, returning a hard
// KindInfeasibleConstraint failure on the first violation.
func validateFeasibility(proj *geometry.Projector, waypoints []Waypoint, model interface {
	IsFeasiblePath(start, end [3]float64, speed float64) bool
}, cruise float64) error {
	for i := 1; i < len(waypoints); i++ {
		a, b := waypoints[i-1], waypoints[i]
		pa := proj.Project(a.Point.Lat, a.Point.Lon)
		pb := proj.Project(b.Point.Lat, b.Point.Lon)
		speed := cruise
		if b.Speed > 0 {
			speed = b.Speed
		}
		start := [3]float64{pa.X, pa.Y, a.Point.Alt}
		end := [3]float64{pb.X, pb.Y, b.Point.Alt}
		if !model.IsFeasiblePath(start, end, speed) {
			return planerr.New(planerr.KindInfeasibleConstraint,
				"vehicle cannot fly the altitude/vertical-speed profile between two consecutive waypoints")
		}
	}
	return nil
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

// longestEdgeHeading returns the heading (degrees, 0=along +X) of the
// polygon's longest boundary edge, used as the scan-line direction when
// no explicit heading is configured.
func longestEdgeHeading(poly geometry.Polygon) float64 {
	n := len(poly)
	bestLen := -1.0
	bestHeading := 0.0
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		l := geometry.DistancePlanar(a, b)
		if l > bestLen {
			bestLen = l
			bestHeading = geometry.Degrees(math.Atan2(b.Y-a.Y, b.X-a.X))
		}
	}
	return bestHeading
}

// scanlineSegment finds the entry/exit crossing of a horizontal line at
// height y against the polygon's edges, returning the segment ordered by
// ascending X. ok is false when the line doesn't cross the polygon.
func scanlineSegment(poly geometry.Polygon, y float64) ([2]geometry.LocalPoint, bool) {
	n := len(poly)
	var xs []float64
	for i := 0; i < n; i++ {
		a, b := poly[i], poly[(i+1)%n]
		crosses := (a.Y <= y && y < b.Y) || (b.Y <= y && y < a.Y)
		if !crosses {
			continue
		}
		x := a.X + (y-a.Y)/(b.Y-a.Y)*(b.X-a.X)
		xs = append(xs, x)
	}
	if len(xs) < 2 {
		return [2]geometry.LocalPoint{}, false
	}
	sort.Float64s(xs)
	return [2]geometry.LocalPoint{{X: xs[0], Y: y}, {X: xs[len(xs)-1], Y: y}}, true
}

// applyEntryBias orders and, where needed, reverses the scan lines (built
// bottom-to-top, the first one left-to-right) so the sweep starts from the
// configured corner. The scanline loop always proceeds south to north, so:
//   - EntrySouthWest: no change (the natural order already starts there).
//   - EntrySouthEast: flip each line's own direction (east start).
//   - EntryNorthWest: reverse line order (north start), keep line direction.
//   - EntryNorthEast: reverse line order and flip each line's direction.
//   - EntryAuto: pick the corner nearest home (when home is set; otherwise
//     behaves like EntrySouthWest).
//   - EntryHomeClosest: apply the natural order first, then reverse the
//     whole sequence if that leaves the last waypoint nearer home than the
//     first.
func applyEntryBias(lines [][2]geometry.LocalPoint, entry EntryLocation, minX, minY, maxX, maxY float64, home *geometry.LocalPoint) {
	if entry == EntryAuto {
		entry = EntrySouthWest
		if home != nil {
			entry = nearestCorner(minX, minY, maxX, maxY, *home)
		}
	}

	switch entry {
	case EntrySouthEast:
		flipEachLine(lines)
	case EntryNorthWest:
		reverseLineOrder(lines)
	case EntryNorthEast:
		reverseLineOrder(lines)
		flipEachLine(lines)
	case EntryHomeClosest:
		if home != nil && len(lines) > 0 {
			first := lines[0][0]
			last := lines[len(lines)-1][1]
			if geometry.DistancePlanar(*home, last) < geometry.DistancePlanar(*home, first) {
				reverseLineOrder(lines)
				flipEachLine(lines)
			}
		}
	}
}

// nearestCorner returns whichever EntryLocation corner of the bounding box
// is closest to home.
func nearestCorner(minX, minY, maxX, maxY float64, home geometry.LocalPoint) EntryLocation {
	corners := []struct {
		loc EntryLocation
		pt  geometry.LocalPoint
	}{
		{EntrySouthWest, geometry.LocalPoint{X: minX, Y: minY}},
		{EntrySouthEast, geometry.LocalPoint{X: maxX, Y: minY}},
		{EntryNorthWest, geometry.LocalPoint{X: minX, Y: maxY}},
		{EntryNorthEast, geometry.LocalPoint{X: maxX, Y: maxY}},
	}
	best := corners[0]
	bestDist := geometry.DistancePlanar(home, best.pt)
	for _, c := range corners[1:] {
		if d := geometry.DistancePlanar(home, c.pt); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best.loc
}

func reverseLineOrder(lines [][2]geometry.LocalPoint) {
	for i, j := 0, len(lines)-1; i < j; i, j = i+1, j-1 {
		lines[i], lines[j] = lines[j], lines[i]
	}
}

func flipEachLine(lines [][2]geometry.LocalPoint) {
	for i := range lines {
		lines[i][0], lines[i][1] = lines[i][1], lines[i][0]
	}
}

// spiralPath inscribes successive inward offsets of the boundary, spaced
// by spacing, into one continuous ring-to-ring path: the documented
// fallback for PatternSpiral, used in place of the rotated-scanline fill.
func spiralPath(boundary geometry.Polygon, spacing float64) []geometry.LocalPoint {
	var path []geometry.LocalPoint
	ring := boundary
	lastArea := ring.Area()
	for lastArea > spacing*spacing {
		for _, v := range ring {
			path = append(path, v)
		}
		// close the ring before spiraling further inward
		path = append(path, ring[0])

		next := geometry.Offset(ring, -spacing)
		area := next.Area()
		if len(next) < 3 || area >= lastArea {
			break
		}
		ring = next
		lastArea = area
	}
	return path
}

// expandingSquarePath builds concentric axis-aligned rectangles from the
// boundary's bounding-box center outward in spacing increments: the
// documented fallback for PatternExpandingSquare.
func expandingSquarePath(boundary geometry.Polygon, spacing float64) []geometry.LocalPoint {
	minX, minY, maxX, maxY := boundary.BoundingBox()
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	maxHalf := math.Max(maxX-minX, maxY-minY) / 2

	var path []geometry.LocalPoint
	for half := spacing; half <= maxHalf+1e-9; half += spacing {
		ring := []geometry.LocalPoint{
			{X: cx - half, Y: cy - half},
			{X: cx + half, Y: cy - half},
			{X: cx + half, Y: cy + half},
			{X: cx - half, Y: cy + half},
			{X: cx - half, Y: cy - half},
		}
		path = append(path, ring...)
	}
	if len(path) == 0 {
		path = []geometry.LocalPoint{{X: cx, Y: cy}}
	}
	return path
}

func direction(a, b geometry.LocalPoint) (x, y float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l < 1e-9 {
		return 0, 0
	}
	return dx / l, dy / l
}

func rotatePoint(p, center geometry.LocalPoint, angleDeg float64) geometry.LocalPoint {
	theta := geometry.Radians(angleDeg)
	cosT, sinT := math.Cos(theta), math.Sin(theta)
	dx, dy := p.X-center.X, p.Y-center.Y
	return geometry.LocalPoint{
		X: center.X + dx*cosT - dy*sinT,
		Y: center.Y + dx*sinT + dy*cosT,
	}
}

type lineSegment struct {
	points []geometry.LocalPoint
	roles  []Role
}

// mitigateObstacles assembles the per-line point sequence, rerouting the
// photo-run (entry->exit) around any obstacle it crosses using the
// global A* planner when one is configured.
func mitigateObstacles(planner *globalplanner.Planner, proj *geometry.Projector, leadIn, entry, exit, overshoot geometry.LocalPoint) lineSegment {
	seg := lineSegment{
		points: []geometry.LocalPoint{leadIn, entry},
		roles:  []Role{RoleLeadIn, RolePhotoStart},
	}

	if planner == nil {
		seg.points = append(seg.points, exit, overshoot)
		seg.roles = append(seg.roles, RolePhotoEnd, RoleOvershoot)
		return seg
	}

	isObstructed := func(pt geometry.LocalPoint) bool {
		lat, lon := proj.Unproject(pt)
		_, found := planner.Obstacles().PointInObstacle(lat, lon)
		return found
	}

	if !isObstructed(entry) && !isObstructed(exit) && !segmentObstructed(planner, proj, entry, exit) {
		seg.points = append(seg.points, exit, overshoot)
		seg.roles = append(seg.roles, RolePhotoEnd, RoleOvershoot)
		return seg
	}

	path, err := planner.Plan(context.Background(), entry, exit, isObstructed)
	if err != nil || len(path) == 0 {
		// Fall back to the direct segment, which still crosses the
		// obstacle; nothing later in Generate re-checks it.
		seg.points = append(seg.points, exit, overshoot)
		seg.roles = append(seg.roles, RolePhotoEnd, RoleOvershoot)
		return seg
	}
	// path[0] is the entry point itself, already present in seg.points;
	// skip it to avoid a duplicate waypoint. If entry and exit share a
	// cell, path has only that one point, so fall back to exit directly.
	if len(path) == 1 {
		seg.points = append(seg.points, exit)
		seg.roles = append(seg.roles, RolePhotoEnd)
	}
	for i := 1; i < len(path); i++ {
		role := RoleTransit
		if i == len(path)-1 {
			role = RolePhotoEnd
		}
		seg.points = append(seg.points, path[i])
		seg.roles = append(seg.roles, role)
	}
	seg.points = append(seg.points, overshoot)
	seg.roles = append(seg.roles, RoleOvershoot)
	return seg
}

func segmentObstructed(planner *globalplanner.Planner, proj *geometry.Projector, a, b geometry.LocalPoint) bool {
	latA, lonA := proj.Unproject(a)
	latB, lonB := proj.Unproject(b)
	_, found := planner.Obstacles().SegmentIntersectsObstacle(latA, lonA, latB, lonB)
	return found
}
