package export

import (
	"fmt"
	"io"
	"text/template"

	"github.com/PossumXI/Asgard/Skylark/internal/mission"
)

const gpxTemplateSrc = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="skylark" xmlns="http://www.topografix.com/GPX/1/1">
<trk>
<name>{{.ID}}</name>
<trkseg>
{{range .Waypoints}}<trkpt lat="{{.Point.Lat}}" lon="{{.Point.Lon}}"><ele>{{.Point.Alt}}</ele></trkpt>
{{end}}</trkseg>
</trk>
</gpx>
`

var gpxTemplate = template.Must(template.New("gpx").Parse(gpxTemplateSrc))

// WriteGPX renders seq as a GPX 1.1 track.
func WriteGPX(w io.Writer, seq *mission.Sequence) error {
	if err := gpxTemplate.Execute(w, seq); err != nil {
		return fmt.Errorf("export: rendering GPX: %w", err)
	}
	return nil
}
