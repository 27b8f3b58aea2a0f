package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PossumXI/Asgard/Skylark/internal/export"
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/survey"
	"github.com/PossumXI/Asgard/Skylark/internal/swarm"
	"github.com/PossumXI/Asgard/Skylark/pkg/utils"
)

func runSplit(args []string) {
	fs := flag.NewFlagSet("split", flag.ExitOnError)
	boundaryPath := fs.String("polygon", "", "path to a lat,lon[,alt] boundary polygon file (required)")
	drones := fs.Int("drones", 0, "number of vehicles to split the survey across (required)")
	vehiclesCSV := fs.String("vehicles", "", "comma-separated vehicle identifiers; overrides the uav-1..uav-N default naming from -drones")
	outDir := fs.String("out-dir", ".", "directory to write one boundary file per vehicle")
	strategyFlag := fs.String("strategy", "strips", "partition strategy: strips or grid2x2")
	baseAltitude := fs.Float64("base-altitude", 100, "base survey altitude, meters AGL")
	spacing := fs.Float64("spacing", 5, "inter-subregion gap between partitioned sub-regions, meters")
	altitudeStep := fs.Float64("altitude-step", 3, "survey altitude separation between stratified vehicles, meters")
	coordinationFlag := fs.String("coordination", "simultaneous", "inter-vehicle conflict resolution: sequential or simultaneous")
	vehicleSpeed := fs.Float64("vehicle-speed", 8.0, "assumed vehicle ground speed, m/s, used by sequential hold-time computation")
	safetyDistance := fs.Float64("safety-distance", 15, "minimum separation, meters, sequential coordination holds for")
	missions := fs.Bool("missions", false, "also generate and export a full per-vehicle mission, not just the boundary file")
	format := fs.String("format", "qgc", "export format for -missions: qgc, kml, gpx, json")
	fs.Parse(args)

	if *boundaryPath == "" || (*drones <= 0 && *vehiclesCSV == "") {
		fmt.Fprintln(os.Stderr, "split: -polygon and -drones are required")
		os.Exit(exitBadInput)
	}

	boundary, err := loadBoundary(*boundaryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "split: %v\n", err)
		os.Exit(exitCodeFor(err))
	}

	var vehicleIDs []string
	if *vehiclesCSV != "" {
		for _, id := range strings.Split(*vehiclesCSV, ",") {
			id = strings.TrimSpace(id)
			if id != "" {
				vehicleIDs = append(vehicleIDs, id)
			}
		}
	} else {
		for i := 1; i <= *drones; i++ {
			vehicleIDs = append(vehicleIDs, fmt.Sprintf("uav-%d", i))
		}
	}

	strategy := swarm.StrategyBilinearStrips
	if strings.EqualFold(*strategyFlag, "grid2x2") {
		strategy = swarm.StrategyGrid2x2
	}

	regions, err := swarm.Partition(boundary, vehicleIDs, strategy, *spacing)
	if err != nil {
		fmt.Fprintf(os.Stderr, "split: partitioning fleet: %v\n", err)
		os.Exit(exitCodeFor(err))
	}
	swarm.StratifyAltitudes(regions, *baseAltitude, *altitudeStep)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "split: creating %s: %v\n", *outDir, err)
		os.Exit(exitIOError)
	}

	for _, region := range regions {
		path := filepath.Join(*outDir, region.VehicleID+".csv")
		if err := writeBoundaryFile(path, region); err != nil {
			fmt.Fprintf(os.Stderr, "split: %v\n", err)
			os.Exit(exitIOError)
		}
		utils.Logger.WithFields(map[string]any{
			"vehicle":    region.VehicleID,
			"mission_id": region.MissionID,
			"altitude_m": region.AltitudeM,
			"out":        path,
		}).Info("wrote sub-region boundary")
	}

	if !*missions {
		return
	}

	coordination := swarm.CoordinationSimultaneous
	if strings.EqualFold(*coordinationFlag, "sequential") {
		coordination = swarm.CoordinationSequential
	}

	sequences := make([]*mission.Sequence, len(regions))
	envelopes := make([]swarm.FlightEnvelope, len(regions))
	for i, region := range regions {
		cfg := survey.DefaultConfig()
		cfg.Altitude = region.AltitudeM

		result, err := survey.Generate(region.Boundary, nil, cfg)
		if err != nil {
			fmt.Fprintf(os.Stderr, "split: generating sub-mission for %s: %v\n", region.VehicleID, err)
			os.Exit(exitCodeFor(err))
		}

		seq := mission.NewSequence(region.VehicleID)
		seq.AppendSurveyResult(result, mission.AssemblyParams{
			CruiseSpeedMS:  cfg.CruiseSpeedMS,
			PhotoIntervalM: result.Stats.PhotoIntervalM,
		})
		sequences[i] = seq

		track := make([]geometry.LocalPoint, len(seq.Waypoints))
		proj := geometry.NewProjector(region.Boundary[0].Lat, region.Boundary[0].Lon)
		for j, w := range seq.Waypoints {
			track[j] = proj.Project(w.Point.Lat, w.Point.Lon)
		}
		envelopes[i] = swarm.FlightEnvelope{
			VehicleID: region.VehicleID, Track: track,
			RadiusM: *spacing / 2, AltitudeM: region.AltitudeM, AltitudeTolM: *altitudeStep / 2,
		}
	}

	switch coordination {
	case swarm.CoordinationSequential:
		swarm.ResolveSequential(sequences, *vehicleSpeed, *safetyDistance)
	case swarm.CoordinationSimultaneous:
		if err := swarm.CheckSimultaneous(envelopes); err != nil {
			fmt.Fprintf(os.Stderr, "split: %v\n", err)
			os.Exit(exitCodeFor(err))
		}
	}

	for _, seq := range sequences {
		path := filepath.Join(*outDir, seq.VehicleID+".plan")
		out, err := os.Create(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "split: creating %s: %v\n", path, err)
			os.Exit(exitIOError)
		}
		if err := writeMissionExport(out, seq, *format); err != nil {
			out.Close()
			fmt.Fprintf(os.Stderr, "split: %v\n", err)
			os.Exit(exitIOError)
		}
		out.Close()
		utils.Logger.WithFields(map[string]any{
			"vehicle":      seq.VehicleID,
			"mission_id":   seq.ID,
			"waypoints":    len(seq.Waypoints),
			"coordination": *coordinationFlag,
			"out":          path,
		}).Info("wrote sub-mission")
	}
}

func writeMissionExport(w *os.File, seq *mission.Sequence, format string) error {
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

func writeBoundaryFile(path string, region swarm.SubRegion) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# mission_id=%s vehicle=%s altitude_m=%.2f\n", region.MissionID, region.VehicleID, region.AltitudeM)
	for _, v := range region.Boundary {
		fmt.Fprintf(f, "%.8f,%.8f\n", v.Lat, v.Lon)
	}
	return nil
}
