// Package export serializes an assembled mission.Sequence into the wire
// formats ground-control software consumes: QGroundControl's WPL 110
// plain-text plan, KML 2.2, GPX 1.1, and a plain JSON dump.
package export

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
)

// mavCommand maps a mission.Command to its MAV_CMD identifier.
func mavCommand(c mission.Command) int {
	switch c {
	case mission.CommandTakeoff:
		return 22 // MAV_CMD_NAV_TAKEOFF
	case mission.CommandLand:
		return 21 // MAV_CMD_NAV_LAND
	case mission.CommandRTL:
		return 20 // MAV_CMD_NAV_RETURN_TO_LAUNCH
	case mission.CommandLoiterTime:
		return 19 // MAV_CMD_NAV_LOITER_TIME
	case mission.CommandLoiterUnlimited:
		return 17 // MAV_CMD_NAV_LOITER_UNLIM
	case mission.CommandDelay:
		return 112 // MAV_CMD_NAV_DELAY
	case mission.CommandConditionYaw:
		return 115 // MAV_CMD_CONDITION_YAW
	case mission.CommandChangeSpeed:
		return 178 // MAV_CMD_DO_CHANGE_SPEED
	case mission.CommandSetHome:
		return 179 // MAV_CMD_DO_SET_HOME
	case mission.CommandSetROI:
		return 201 // MAV_CMD_DO_SET_ROI
	case mission.CommandSetCamTriggerDistance:
		return 206 // MAV_CMD_DO_SET_CAM_TRIGG_DIST
	default:
		return 16 // MAV_CMD_NAV_WAYPOINT
	}
}

func commandFromMAV(id int) mission.Command {
	switch id {
	case 22:
		return mission.CommandTakeoff
	case 21:
		return mission.CommandLand
	case 20:
		return mission.CommandRTL
	case 19:
		return mission.CommandLoiterTime
	case 17:
		return mission.CommandLoiterUnlimited
	case 112:
		return mission.CommandDelay
	case 115:
		return mission.CommandConditionYaw
	case 178:
		return mission.CommandChangeSpeed
	case 179:
		return mission.CommandSetHome
	case 201:
		return mission.CommandSetROI
	case 206:
		return mission.CommandSetCamTriggerDistance
	default:
		return mission.CommandWaypoint
	}
}

// WriteQGCWPL110 writes seq in QGroundControl's WPL 110 plain-text plan
// format: a header line "QGC WPL 110" followed by one tab-separated
// record per waypoint.
func WriteQGCWPL110(w io.Writer, seq *mission.Sequence) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintln(bw, "QGC WPL 110"); err != nil {
		return err
	}
	for i, wp := range seq.Waypoints {
		current := 0
		if i == 0 {
			current = 1
		}
		frame := 3 // MAV_FRAME_GLOBAL_RELATIVE_ALT
		param1, param2, param3, param4 := 0.0, 0.0, 0.0, 0.0
		if wp.Command == mission.CommandLoiterTime {
			param1 = wp.LoiterTime
		}
		if wp.Command == mission.CommandChangeSpeed || wp.Command == mission.CommandConditionYaw ||
			wp.Command == mission.CommandSetCamTriggerDistance {
			param1 = wp.Speed
		}
		line := strings.Join([]string{
			strconv.Itoa(i),
			strconv.Itoa(current),
			strconv.Itoa(frame),
			strconv.Itoa(mavCommand(wp.Command)),
			formatParam(param1),
			formatParam(param2),
			formatParam(param3),
			formatParam(param4),
			formatCoord(wp.Point.Lat),
			formatCoord(wp.Point.Lon),
			formatAlt(wp.Point.Alt),
			"1",
		}, "\t")
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// formatCoord prints a latitude/longitude at the 8 fractional digits the
// WPL 110 format requires.
func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 8, 64)
}

// formatAlt prints an altitude at the 2 fractional digits the WPL 110
// format requires.
func formatAlt(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// formatParam prints a MAV_CMD parameter in its minimal decimal form
// (e.g. "0", not "0.00000000"), matching QGroundControl's own emission.
func formatParam(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ReadQGCWPL110 parses a QGC WPL 110 plan back into a mission.Sequence,
// round-tripping Point, Command, and LoiterTime (param1) for each
// waypoint. The caller is responsible for setting the returned
// sequence's VehicleID and ID.
func ReadQGCWPL110(r io.Reader) (*mission.Sequence, error) {
	scanner := bufio.NewScanner(r)
	if !scanner.Scan() {
		return nil, planerr.New(planerr.KindSerializationError, "empty QGC WPL file")
	}
	header := strings.TrimSpace(scanner.Text())
	if !strings.HasPrefix(header, "QGC WPL") {
		return nil, planerr.New(planerr.KindSerializationError, "missing QGC WPL header")
	}

	seq := mission.NewSequence("")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 12 {
			return nil, planerr.New(planerr.KindSerializationError, fmt.Sprintf("malformed WPL record: %q", line))
		}
		cmdID, err := strconv.Atoi(fields[3])
		if err != nil {
			return nil, planerr.New(planerr.KindSerializationError, "non-numeric command field")
		}
		param1, err := strconv.ParseFloat(fields[4], 64)
		if err != nil {
			return nil, planerr.New(planerr.KindSerializationError, "non-numeric param1 field")
		}
		lat, err := strconv.ParseFloat(fields[8], 64)
		if err != nil {
			return nil, planerr.New(planerr.KindSerializationError, "non-numeric latitude field")
		}
		lon, err := strconv.ParseFloat(fields[9], 64)
		if err != nil {
			return nil, planerr.New(planerr.KindSerializationError, "non-numeric longitude field")
		}
		alt, err := strconv.ParseFloat(fields[10], 64)
		if err != nil {
			return nil, planerr.New(planerr.KindSerializationError, "non-numeric altitude field")
		}

		cmd := commandFromMAV(cmdID)
		wp := mission.Waypoint{
			Point:   geoPoint(lat, lon, alt),
			Command: cmd,
		}
		switch cmd {
		case mission.CommandLoiterTime:
			wp.LoiterTime = param1
		case mission.CommandChangeSpeed, mission.CommandConditionYaw, mission.CommandSetCamTriggerDistance:
			wp.Speed = param1
		}
		seq.Waypoints = append(seq.Waypoints, wp)
	}
	if err := scanner.Err(); err != nil {
		return nil, planerr.New(planerr.KindSerializationError, err.Error())
	}
	seq.Reindex()
	return seq, nil
}
