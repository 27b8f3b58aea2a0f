package export

import (
	"fmt"
	"io"
	"text/template"

	"github.com/PossumXI/Asgard/Skylark/internal/mission"
)

const kmlTemplateSrc = `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
<Document>
<name>{{.ID}}</name>
<Placemark>
<name>{{.VehicleID}}</name>
<LineString>
<altitudeMode>relativeToGround</altitudeMode>
<coordinates>
{{range .Waypoints}}{{.Point.Lon}},{{.Point.Lat}},{{.Point.Alt}}
{{end}}</coordinates>
</LineString>
</Placemark>
{{range .Waypoints}}<Placemark>
<name>WP{{.Index}}</name>
<Point>
<altitudeMode>relativeToGround</altitudeMode>
<coordinates>{{.Point.Lon}},{{.Point.Lat}},{{.Point.Alt}}</coordinates>
</Point>
</Placemark>
{{end}}</Document>
</kml>
`

var kmlTemplate = template.Must(template.New("kml").Parse(kmlTemplateSrc))

// WriteKML renders seq as a KML 2.2 document: one LineString placemark
// for the flight path and one Point placemark per waypoint.
func WriteKML(w io.Writer, seq *mission.Sequence) error {
	if err := kmlTemplate.Execute(w, seq); err != nil {
		return fmt.Errorf("export: rendering KML: %w", err)
	}
	return nil
}
