package export

import (
	"bytes"
	"strconv"
	"strings"
	"testing"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func testSequence() *mission.Sequence {
	s := mission.NewSequence("uav-01")
	s.Append(mission.Waypoint{Point: geoPoint(23.7000, 120.4000, 30), Command: mission.CommandTakeoff})
	s.Append(mission.Waypoint{Point: geoPoint(23.7010, 120.4005, 80), Command: mission.CommandWaypoint})
	s.Append(mission.Waypoint{Point: geoPoint(23.7020, 120.4010, 80), Command: mission.CommandLoiterTime, LoiterTime: 15})
	s.Append(mission.Waypoint{Point: geoPoint(23.7000, 120.4000, 30), Command: mission.CommandRTL})
	return s
}

func TestQGCWPL110RoundTrip(t *testing.T) {
	original := testSequence()

	var buf bytes.Buffer
	if err := WriteQGCWPL110(&buf, original); err != nil {
		t.Fatalf("write: %v", err)
	}

	parsed, err := ReadQGCWPL110(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}

	diff := cmp.Diff(original.Waypoints, parsed.Waypoints,
		cmpopts.IgnoreFields(geometry.GeoPoint{}, "HasAlt"),
		cmpopts.EquateApprox(0, 1e-6),
	)
	if diff != "" {
		t.Errorf("round-trip mismatch (-want +got):\n%s", diff)
	}
}

func TestQGCWPL110EmitsExactWaypointFormat(t *testing.T) {
	s := mission.NewSequence("uav-01")
	for i := 0; i < 3; i++ {
		s.Append(mission.Waypoint{})
	}
	s.Append(mission.Waypoint{Point: geoPoint(23.7, 120.4, 50), Command: mission.CommandWaypoint})

	var buf bytes.Buffer
	if err := WriteQGCWPL110(&buf, s); err != nil {
		t.Fatalf("write: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header + 4 waypoint lines, got %d", len(lines))
	}
	want := "3\t0\t3\t16\t0\t0\t0\t0\t23.70000000\t120.40000000\t50.00\t1"
	if got := lines[4]; got != want {
		t.Errorf("waypoint line = %q, want %q", got, want)
	}
}

func TestQGCWPL110RejectsMissingHeader(t *testing.T) {
	_, err := ReadQGCWPL110(strings.NewReader("0\t1\t3\t16\t0\t0\t0\t0\t23.7\t120.4\t80\t1\n"))
	if err == nil {
		t.Fatal("expected an error for a plan missing the QGC WPL header")
	}
}

func TestWriteKMLContainsAllWaypoints(t *testing.T) {
	s := testSequence()
	var buf bytes.Buffer
	if err := WriteKML(&buf, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()
	for i := range s.Waypoints {
		if !strings.Contains(out, "WP"+strconv.Itoa(i)) {
			t.Errorf("expected placemark WP%d in KML output", i)
		}
	}
}

func TestWriteGPXContainsTrackPoints(t *testing.T) {
	s := testSequence()
	var buf bytes.Buffer
	if err := WriteGPX(&buf, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Count(buf.String(), "<trkpt") != len(s.Waypoints) {
		t.Errorf("expected %d trkpt elements", len(s.Waypoints))
	}
}

func TestWriteJSONIncludesVehicleID(t *testing.T) {
	s := testSequence()
	var buf bytes.Buffer
	if err := WriteJSON(&buf, s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "uav-01") {
		t.Error("expected vehicle id to appear in JSON output")
	}
}

