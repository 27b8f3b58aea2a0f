// Package survey generates a boustrophedon (zigzag) coverage flight path
// over a polygonal area: rotate to the scan-line heading, shrink by half
// the line spacing, sweep scanlines across the boundary, connect them
// end to end, then de-rotate and bookend with takeoff/RTL legs.
package survey

import (
	"github.com/PossumXI/Asgard/Skylark/internal/camera"
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/PossumXI/Asgard/Skylark/internal/vehicle"
)

// Pattern selects the scan-line fill strategy.
type Pattern int

const (
	PatternParallel Pattern = iota
	PatternZigzag
	// PatternSpiral and PatternExpandingSquare are documented fallback
	// inscribing constructions: neither relies on the rotated-scanline
	// machinery of Parallel/Zigzag, so they bypass Generate's shrink/
	// scanline/obstacle-mitigation steps and build their ring sequence
	// directly from the boundary.
	PatternSpiral
	PatternExpandingSquare
)

// EntryLocation selects which boundary corner the sweep starts from, or
// how home bears on that choice.
type EntryLocation int

const (
	EntryAuto EntryLocation = iota
	EntryNorthWest
	EntryNorthEast
	EntrySouthWest
	EntrySouthEast
	// EntryHomeClosest reverses the computed sweep order if its last
	// waypoint lies nearer home than its first, so the final leg closes
	// the distance to home rather than opening it.
	EntryHomeClosest
)

// Config parameters a coverage survey.
type Config struct {
	Camera          camera.Spec
	Altitude        float64 // meters AGL
	SideOverlapPct  float64
	FrontOverlapPct float64
	Pattern         Pattern
	Entry           EntryLocation
	HeadingDeg      float64 // scan-line heading; 0 = auto (longest boundary edge)
	OvershootM      float64 // distance flown past the boundary before turning
	LeadInM         float64 // straight run-up before the first photo on each line
	TakeoffAlt      float64
	RTLAtEnd        bool
	CruiseSpeedMS   float64 // caps the velocity profile; also the feasibility-check speed and flight-time estimate

	// Home, when set, is used as the takeoff/RTL coordinate and as the
	// reference point EntryAuto and EntryHomeClosest bias the sweep
	// toward. A nil Home falls back to the polygon's first computed
	// waypoint and centroid, as before home-threading existed.
	Home *geometry.GeoPoint

	// Vehicle, when set, is used to validate every consecutive waypoint
	// pair's feasibility (altitude bounds, vertical speed) before Generate
	// returns; a violation is a hard KindInfeasibleConstraint failure.
	Vehicle vehicle.Model

	// SimplifyEpsilonM, when >0, runs Douglas-Peucker simplification
	// (the C8 trajectory shaper) over each line's obstacle-detour run
	// before de-rotation.
	SimplifyEpsilonM float64
}

// Validate reports the spec's InvalidInput triggers: non-positive
// altitude, out-of-range overlap percentages, or (via the camera spec)
// non-positive focal length. Generate calls this before planning.
func (c Config) Validate() error {
	if c.Altitude <= 0 {
		return planerr.New(planerr.KindInvalidInput, "altitude must be positive")
	}
	if c.SideOverlapPct < 0 || c.SideOverlapPct >= 100 {
		return planerr.New(planerr.KindInvalidInput, "side overlap must be in [0,100)")
	}
	if c.FrontOverlapPct < 0 || c.FrontOverlapPct >= 100 {
		return planerr.New(planerr.KindInvalidInput, "front overlap must be in [0,100)")
	}
	if c.Camera.FocalLengthMM <= 0 {
		return planerr.New(planerr.KindInvalidInput, "camera focal length must be positive")
	}
	if c.Vehicle != nil {
		if err := c.Vehicle.Constraints().Validate(); err != nil {
			return planerr.New(planerr.KindInfeasibleConstraint, err.Error())
		}
	}
	return nil
}

// DefaultConfig mirrors the reference planner's survey defaults.
func DefaultConfig() Config {
	return Config{
		Altitude:        100,
		SideOverlapPct:  60,
		FrontOverlapPct: 80,
		Pattern:         PatternZigzag,
		Entry:           EntryAuto,
		OvershootM:      10,
		LeadInM:         5,
		TakeoffAlt:      30,
		RTLAtEnd:        true,
		CruiseSpeedMS:   8.0,
	}
}

// Statistics summarizes a generated survey.
type Statistics struct {
	TotalLines       int
	TotalLengthM     float64
	AreaM2           float64
	EstimatedPhotos  int
	LineSpacingM     float64
	EstimatedFlightS float64
	PhotoIntervalM   float64 // distance between triggers; feeds C10's cam-trigger-distance leg
}
