package main

import "github.com/PossumXI/Asgard/Skylark/internal/camera"

// cameraProfiles names a handful of common survey camera bodies so
// -camera can take a short name instead of five sensor-geometry flags.
// Any name not listed here falls back to the generic profile, which the
// sensor/focal/image-size flags then override.
var cameraProfiles = map[string]camera.Spec{
	"generic": {
		SensorWidthMM: 13.2, SensorHeightMM: 8.8, FocalLengthMM: 8.8,
		ImageWidthPx: 4000, ImageHeightPx: 3000,
	},
	"sony-a7r": {
		SensorWidthMM: 35.9, SensorHeightMM: 24.0, FocalLengthMM: 35,
		ImageWidthPx: 7952, ImageHeightPx: 5304,
	},
	"phantom4pro": {
		SensorWidthMM: 13.2, SensorHeightMM: 8.8, FocalLengthMM: 8.8,
		ImageWidthPx: 5472, ImageHeightPx: 3648,
	},
	"m300-p1": {
		SensorWidthMM: 35.9, SensorHeightMM: 23.9, FocalLengthMM: 35,
		ImageWidthPx: 8192, ImageHeightPx: 5460,
	},
}

func cameraProfile(name string) camera.Spec {
	if spec, ok := cameraProfiles[name]; ok {
		return spec
	}
	return cameraProfiles["generic"]
}
