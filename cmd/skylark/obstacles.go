package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/obstacles"
)

// loadObstacles reads a no-fly-zone file, one obstacle per line:
//
//	circle,id,lat,lon,radius_m,margin_m
//	polygon,id,margin_m,lat1,lon1,lat2,lon2,...
func loadObstacles(path string) (*obstacles.Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	idx := obstacles.NewIndex(500)
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Split(line, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}

		switch strings.ToLower(fields[0]) {
		case "circle":
			if len(fields) != 6 {
				return nil, fmt.Errorf("%s:%d: circle needs id,lat,lon,radius,margin", path, lineNo)
			}
			lat, lon, radius, margin, perr := parseFour(fields[2], fields[3], fields[4], fields[5])
			if perr != nil {
				return nil, fmt.Errorf("%s:%d: %w", path, lineNo, perr)
			}
			idx.Add(obstacles.NewCircular(fields[1], lat, lon, radius, margin))
		case "polygon":
			if len(fields) < 9 || (len(fields)-3)%2 != 0 {
				return nil, fmt.Errorf("%s:%d: polygon needs id,margin,then >=3 lat,lon pairs", path, lineNo)
			}
			margin, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid margin: %w", path, lineNo, err)
			}
			var verts []geometry.GeoPoint
			for i := 3; i+1 < len(fields); i += 2 {
				lat, err := strconv.ParseFloat(fields[i], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: invalid latitude: %w", path, lineNo, err)
				}
				lon, err := strconv.ParseFloat(fields[i+1], 64)
				if err != nil {
					return nil, fmt.Errorf("%s:%d: invalid longitude: %w", path, lineNo, err)
				}
				verts = append(verts, geometry.GeoPoint{Lat: lat, Lon: lon})
			}
			idx.Add(obstacles.NewPolygonal(fields[1], verts, margin))
		default:
			return nil, fmt.Errorf("%s:%d: unknown obstacle kind %q", path, lineNo, fields[0])
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return idx, nil
}

func parseFour(a, b, c, d string) (w, x, y, z float64, err error) {
	vals := [4]*float64{&w, &x, &y, &z}
	strs := [4]string{a, b, c, d}
	for i, s := range strs {
		*vals[i], err = strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, 0, 0, 0, fmt.Errorf("invalid number %q: %w", s, err)
		}
	}
	return w, x, y, z, nil
}
