// Package camera derives ground-sampling distance, footprint, and survey
// spacing from a camera's optical parameters and overlap percentages.
package camera

import "math"

// Spec describes a camera's sensor and lens geometry.
type Spec struct {
	SensorWidthMM  float64
	SensorHeightMM float64
	FocalLengthMM  float64
	ImageWidthPx   int
	ImageHeightPx  int
}

// GSD returns the ground sampling distance in meters/pixel at the given
// altitude (meters AGL).
func (s Spec) GSD(altitude float64) float64 {
	groundWidth, _ := s.GroundFootprint(altitude)
	return groundWidth / float64(s.ImageWidthPx)
}

// GroundFootprint returns the (width, height) of ground covered by one
// frame at the given altitude, in meters.
func (s Spec) GroundFootprint(altitude float64) (width, height float64) {
	width = altitude * s.SensorWidthMM / s.FocalLengthMM
	height = altitude * s.SensorHeightMM / s.FocalLengthMM
	return width, height
}

// FOV returns the (horizontal, vertical) field of view in degrees.
func (s Spec) FOV() (horizontal, vertical float64) {
	horizontal = 2 * degrees(math.Atan(s.SensorWidthMM/(2*s.FocalLengthMM)))
	vertical = 2 * degrees(math.Atan(s.SensorHeightMM/(2*s.FocalLengthMM)))
	return horizontal, vertical
}

// LineSpacing returns the flight-line spacing in meters for the given
// altitude and side overlap percentage.
func (s Spec) LineSpacing(altitude, sideOverlapPct float64) float64 {
	groundWidth, _ := s.GroundFootprint(altitude)
	return groundWidth * (1 - sideOverlapPct/100.0)
}

// PhotoInterval returns the along-track photo-triggering distance in
// meters for the given altitude and front overlap percentage.
func (s Spec) PhotoInterval(altitude, frontOverlapPct float64) float64 {
	_, groundHeight := s.GroundFootprint(altitude)
	return groundHeight * (1 - frontOverlapPct/100.0)
}

func degrees(rad float64) float64 { return rad * 180.0 / math.Pi }
