// SKYLARK - Autonomous Coverage Survey Mission Planner
//
// Plans boustrophedon coverage missions over a polygonal area of
// interest, partitions them across a fleet, and exports or uploads the
// resulting waypoint sequences.
package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
)

var (
	version   = "0.1.0"
	buildTime = "unknown"
	gitCommit = "unknown"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(exitBadInput)
	}

	switch os.Args[1] {
	case "plan":
		runPlan(os.Args[2:])
	case "split":
		runSplit(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	case "version":
		fmt.Printf("skylark %s (built %s, commit %s)\n", version, buildTime, gitCommit)
	case "-h", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand %q\n\n", os.Args[1])
		usage()
		os.Exit(exitBadInput)
	}
}

func usage() {
	fmt.Println(`skylark - UAV coverage-survey mission planner

Usage:
  skylark plan   -polygon FILE -camera NAME -altitude M -speed M/S -front-overlap PCT -side-overlap PCT -angle DEG -out FILE [-format qgc|kml|gpx|json] [-obstacles FILE] [-home LAT,LON] [-return-speed M/S] [-simplify-epsilon-m M] ...
  skylark split  -polygon FILE -drones N -spacing M [-out-dir DIR] [-strategy strips|grid2x2] [-altitude-step M] [-missions] [-coordination sequential|simultaneous] [-vehicle-speed M/S] [-safety-distance M] [-format qgc|kml|gpx|json]
  skylark serve  [-http-port 8093] [-jwt-secret SECRET]
  skylark version`)
}

func printBanner() {
	fmt.Println(`
 ____  _            _            _
/ ___|| | ___   _  | | __ _ _ __| | __
\___ \| |/ / | | | | |/ _` + "`" + ` | '__| |/ /
 ___) |   <| |_| | | | (_| | |  |   <
|____/|_|\_\\__, | |_|\__,_|_|  |_|\_\
            |___/
Coverage Survey Mission Planner v` + version + `
`)
}

// parseLatLonFile reads a boundary or fence polygon as one "lat,lon[,alt]"
// tuple per line; blank lines and lines starting with # are skipped.
func parseLatLonFile(path string) ([][3]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var points [][3]float64
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			return nil, fmt.Errorf("%s:%d: expected at least lat,lon", path, lineNo)
		}
		lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid latitude: %w", path, lineNo, err)
		}
		lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("%s:%d: invalid longitude: %w", path, lineNo, err)
		}
		alt := 0.0
		if len(fields) >= 3 {
			alt, err = strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid altitude: %w", path, lineNo, err)
			}
		}
		points = append(points, [3]float64{lat, lon, alt})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(points) < 3 {
		return nil, fmt.Errorf("%s: boundary needs at least 3 vertices, found %d", path, len(points))
	}
	return points, nil
}

// parseLatLon parses a single "lat,lon" coordinate, as used by the -home
// flag.
func parseLatLon(s string) (geometry.GeoPoint, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 2 {
		return geometry.GeoPoint{}, fmt.Errorf("expected lat,lon, got %q", s)
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return geometry.GeoPoint{}, fmt.Errorf("invalid latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return geometry.GeoPoint{}, fmt.Errorf("invalid longitude: %w", err)
	}
	return geometry.GeoPoint{Lat: lat, Lon: lon}, nil
}

func waitForSignal(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Println("shutdown signal received, stopping gracefully")
	cancel()
}
