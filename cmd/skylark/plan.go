package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/PossumXI/Asgard/Skylark/internal/export"
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/survey"
	"github.com/PossumXI/Asgard/Skylark/pkg/utils"
)

func runPlan(args []string) {
	fs := flag.NewFlagSet("plan", flag.ExitOnError)
	boundaryPath := fs.String("polygon", "", "path to a lat,lon[,alt] boundary polygon file (required)")
	obstaclesPath := fs.String("obstacles", "", "path to an obstacle file (optional)")
	outPath := fs.String("out", "mission.plan", "output file path")
	format := fs.String("format", "qgc", "export format: qgc, kml, gpx, json")
	vehicleID := fs.String("vehicle", "uav-1", "vehicle identifier tagged onto the mission sequence")

	altitude := fs.Float64("altitude", 100, "survey altitude, meters AGL")
	speed := fs.Float64("speed", 8.0, "cruise speed used for the flight-time estimate, m/s")
	sideOverlap := fs.Float64("side-overlap", 60, "side overlap percentage")
	frontOverlap := fs.Float64("front-overlap", 80, "front overlap percentage")
	angleDeg := fs.Float64("angle", 0, "scan-line heading in degrees; 0 = auto")
	zigzag := fs.Bool("zigzag", true, "alternate scan-line direction (boustrophedon) vs always-parallel")
	overshoot := fs.Float64("overshoot", 10, "overshoot distance past the boundary, meters")
	leadIn := fs.Float64("lead-in", 5, "lead-in distance before the first photo on each line, meters")
	takeoffAlt := fs.Float64("takeoff-altitude", 30, "takeoff altitude, meters AGL")
	rtl := fs.Bool("rtl", true, "append a return-to-launch leg")
	homeStr := fs.String("home", "", "home coordinate lat,lon; sets the takeoff/RTL point and biases entry-location/auto/home-closest sweeps")
	slowSpeed := fs.Float64("return-speed", 0, "speed, m/s, set just before the return-to-home leg; 0 omits the leg")
	simplifyEpsilon := fs.Float64("simplify-epsilon-m", 0, "Douglas-Peucker tolerance, meters, applied to obstacle-detour legs; 0 disables")

	cameraName := fs.String("camera", "generic", "named camera profile (generic, sony-a7r, phantom4pro, m300-p1)")
	sensorWidthMM := fs.Float64("sensor-width-mm", 0, "override: camera sensor width, mm")
	sensorHeightMM := fs.Float64("sensor-height-mm", 0, "override: camera sensor height, mm")
	focalLengthMM := fs.Float64("focal-length-mm", 0, "override: camera focal length, mm")
	imageWidthPx := fs.Int("image-width-px", 0, "override: camera image width, pixels")
	imageHeightPx := fs.Int("image-height-px", 0, "override: camera image height, pixels")

	fs.Parse(args)

	if *boundaryPath == "" {
		fmt.Fprintln(os.Stderr, "plan: -polygon is required")
		os.Exit(exitBadInput)
	}

	overridden := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { overridden[f.Name] = true })

	camSpec := cameraProfile(*cameraName)
	if overridden["sensor-width-mm"] {
		camSpec.SensorWidthMM = *sensorWidthMM
	}
	if overridden["sensor-height-mm"] {
		camSpec.SensorHeightMM = *sensorHeightMM
	}
	if overridden["focal-length-mm"] {
		camSpec.FocalLengthMM = *focalLengthMM
	}
	if overridden["image-width-px"] {
		camSpec.ImageWidthPx = *imageWidthPx
	}
	if overridden["image-height-px"] {
		camSpec.ImageHeightPx = *imageHeightPx
	}

	boundary, err := loadBoundary(*boundaryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(exitCodeFor(err))
	}

	var idx *obstacles.Index
	if *obstaclesPath != "" {
		idx, err = loadObstacles(*obstaclesPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan: %v\n", err)
			os.Exit(exitCodeFor(err))
		}
	}

	pattern := survey.PatternParallel
	if *zigzag {
		pattern = survey.PatternZigzag
	}

	var home *geometry.GeoPoint
	if *homeStr != "" {
		h, err := parseLatLon(*homeStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "plan: -home: %v\n", err)
			os.Exit(exitBadInput)
		}
		home = &h
	}

	cfg := survey.Config{
		Camera:           camSpec,
		Altitude:         *altitude,
		SideOverlapPct:   *sideOverlap,
		FrontOverlapPct:  *frontOverlap,
		Pattern:          pattern,
		Entry:            survey.EntryAuto,
		HeadingDeg:       *angleDeg,
		OvershootM:       *overshoot,
		LeadInM:          *leadIn,
		TakeoffAlt:       *takeoffAlt,
		RTLAtEnd:         *rtl,
		CruiseSpeedMS:    *speed,
		Home:             home,
		SimplifyEpsilonM: *simplifyEpsilon,
	}
	result, err := survey.Generate(boundary, idx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: generating coverage grid: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
	if result.Diagnostic != nil {
		utils.Logger.WithField("diagnostic", result.Diagnostic.Error()).Warn("survey produced a non-fatal diagnostic")
	}

	seq := mission.NewSequence(*vehicleID)
	seq.AppendSurveyResult(result, mission.AssemblyParams{
		Home:           home,
		CruiseSpeedMS:  *speed,
		SlowSpeedMS:    *slowSpeed,
		PhotoIntervalM: result.Stats.PhotoIntervalM,
	})

	out, err := os.Create(*outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "plan: creating %s: %v\n", *outPath, err)
		os.Exit(exitIOError)
	}
	defer out.Close()

	if err := writeExport(out, seq, *format); err != nil {
		fmt.Fprintf(os.Stderr, "plan: %v\n", err)
		os.Exit(exitIOError)
	}

	utils.Logger.WithFields(map[string]any{
		"mission_id":    seq.ID,
		"vehicle":       seq.VehicleID,
		"waypoints":     len(seq.Waypoints),
		"total_lines":   result.Stats.TotalLines,
		"length_m":      result.Stats.TotalLengthM,
		"flight_time_s": result.Stats.EstimatedFlightS,
		"out":           *outPath,
	}).Info("mission plan generated")
}

func writeExport(w *os.File, seq *mission.Sequence, format string) error {
	switch strings.ToLower(format) {
	case "qgc", "wpl":
		return export.WriteQGCWPL110(w, seq)
	case "kml":
		return export.WriteKML(w, seq)
	case "gpx":
		return export.WriteGPX(w, seq)
	case "json":
		return export.WriteJSON(w, seq)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func loadBoundary(path string) ([]geometry.GeoPoint, error) {
	tuples, err := parseLatLonFile(path)
	if err != nil {
		return nil, err
	}
	points := make([]geometry.GeoPoint, len(tuples))
	for i, t := range tuples {
		points[i] = geometry.GeoPoint{Lat: t[0], Lon: t[1], Alt: t[2], HasAlt: t[2] != 0}
	}
	return points, nil
}
