package export

import "github.com/PossumXI/Asgard/Skylark/internal/geometry"

func geoPoint(lat, lon, alt float64) geometry.GeoPoint {
	return geometry.GeoPoint{Lat: lat, Lon: lon, Alt: alt, HasAlt: true}
}
