package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/PossumXI/Asgard/Skylark/internal/camera"
	"github.com/PossumXI/Asgard/Skylark/internal/export"
	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/livefeed"
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
	"github.com/PossumXI/Asgard/Skylark/internal/security"
	"github.com/PossumXI/Asgard/Skylark/internal/survey"
	"github.com/PossumXI/Asgard/Skylark/pkg/utils"
)

// server holds the dependencies wired into the HTTP/WS mission-planning
// service.
type server struct {
	streamer *livefeed.Streamer
	gate     *security.Gate
}

func runServe(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	httpPort := fs.Int("http-port", 8093, "HTTP API port")
	jwtSecret := fs.String("jwt-secret", "", "HMAC secret for admin API bearer tokens (required to enable /api/v1/plan)")
	jwtIssuer := fs.String("jwt-issuer", "skylark", "JWT issuer claim expected on admin bearer tokens")
	fs.Parse(args)

	printBanner()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := &server{streamer: livefeed.NewStreamer()}
	if *jwtSecret != "" {
		srv.gate = security.NewGate([]byte(*jwtSecret), *jwtIssuer)
	} else {
		utils.Logger.Warn("no -jwt-secret supplied: /api/v1/plan is disabled")
	}

	go func() {
		if err := srv.streamer.Run(ctx); err != nil && err != context.Canceled {
			utils.Logger.WithError(err).Error("livefeed streamer stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/health", srv.healthHandler)
	mux.HandleFunc("/api/v1/version", srv.versionHandler)
	mux.HandleFunc("/ws/plan", srv.streamer.HandleWebSocket)
	if srv.gate != nil {
		mux.Handle("/api/v1/plan", srv.gate.RequireRole(http.HandlerFunc(srv.planHandler), "operator", "commander", "admin"))
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", *httpPort),
		Handler: mux,
	}

	go func() {
		utils.Logger.WithField("port", *httpPort).Info("HTTP API listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			utils.Logger.WithError(err).Error("HTTP server error")
		}
	}()

	waitForSignal(cancel)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		utils.Logger.WithError(err).Error("HTTP shutdown error")
	}
	utils.Logger.Info("skylark shutdown complete")
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok", "service": "skylark"})
}

func (s *server) versionHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"version": version, "build_time": buildTime, "git_commit": gitCommit})
}

// planRequest is the admin API's POST /api/v1/plan body: a boundary
// polygon and survey parameters. Obstacles are omitted from this
// surface; use the CLI's -obstacles flag for offline planning runs.
type planRequest struct {
	VehicleID       string              `json:"vehicle_id"`
	Boundary        []planRequestVertex `json:"boundary"`
	Altitude        float64             `json:"altitude_m"`
	SideOverlapPct  float64             `json:"side_overlap_pct"`
	FrontOverlapPct float64             `json:"front_overlap_pct"`
	Zigzag          bool                `json:"zigzag"`
	Format          string              `json:"format"`
}

type planRequestVertex struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (s *server) planHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req planRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("decoding request: %v", err), http.StatusBadRequest)
		return
	}
	if len(req.Boundary) < 3 {
		http.Error(w, "boundary needs at least 3 vertices", http.StatusBadRequest)
		return
	}

	boundary := make([]geometry.GeoPoint, len(req.Boundary))
	for i, v := range req.Boundary {
		boundary[i] = geometry.GeoPoint{Lat: v.Lat, Lon: v.Lon}
	}

	cfg := survey.DefaultConfig()
	cfg.Camera = camera.Spec{SensorWidthMM: 13.2, SensorHeightMM: 8.8, FocalLengthMM: 8.8, ImageWidthPx: 4000, ImageHeightPx: 3000}
	if req.Altitude > 0 {
		cfg.Altitude = req.Altitude
	}
	if req.SideOverlapPct > 0 {
		cfg.SideOverlapPct = req.SideOverlapPct
	}
	if req.FrontOverlapPct > 0 {
		cfg.FrontOverlapPct = req.FrontOverlapPct
	}
	cfg.Pattern = survey.PatternParallel
	if req.Zigzag {
		cfg.Pattern = survey.PatternZigzag
	}

	s.streamer.Publish(&livefeed.PlanEvent{
		Timestamp: time.Now(), Stage: livefeed.StageCoverageGrid, PercentDone: 0,
		Clearance: livefeed.ClearanceOperator, Message: "generating coverage grid",
	})

	var idx *obstacles.Index
	result, err := survey.Generate(boundary, idx, cfg)
	if err != nil {
		s.streamer.Publish(&livefeed.PlanEvent{Timestamp: time.Now(), Stage: livefeed.StageFailed, Clearance: livefeed.ClearanceOperator, Message: err.Error()})
		http.Error(w, fmt.Sprintf("generating coverage grid: %v", err), http.StatusUnprocessableEntity)
		return
	}

	vehicleID := req.VehicleID
	if vehicleID == "" {
		vehicleID = "uav-1"
	}
	seq := mission.NewSequence(vehicleID)
	seq.AppendSurveyResult(result, mission.AssemblyParams{
		CruiseSpeedMS:  cfg.CruiseSpeedMS,
		PhotoIntervalM: result.Stats.PhotoIntervalM,
	})

	s.streamer.Publish(&livefeed.PlanEvent{
		Timestamp: time.Now(), MissionID: seq.ID, VehicleID: vehicleID,
		Stage: livefeed.StageComplete, PercentDone: 100, Clearance: livefeed.ClearanceOperator,
		WaypointTotal: len(seq.Waypoints),
	})

	w.Header().Set("Content-Type", "application/json")
	switch req.Format {
	case "qgc":
		w.Header().Set("Content-Type", "text/plain")
		export.WriteQGCWPL110(w, seq)
	case "kml":
		w.Header().Set("Content-Type", "application/vnd.google-earth.kml+xml")
		export.WriteKML(w, seq)
	case "gpx":
		w.Header().Set("Content-Type", "application/gpx+xml")
		export.WriteGPX(w, seq)
	default:
		export.WriteJSON(w, seq)
	}
}

