// Package mission assembles planner output (survey coverage legs, global
// detours, swarm sub-missions) into a single ordered Sequence ready for
// export or upload. The wire-format exporters live in package export.
package mission

import (
	"fmt"

	"github.com/PossumXI/Asgard/Skylark/internal/geometry"
	"github.com/PossumXI/Asgard/Skylark/internal/survey"
	"github.com/google/uuid"
)

// Command tags a waypoint's MAVLink-style semantics.
type Command int

const (
	CommandWaypoint Command = iota
	CommandTakeoff
	CommandLand
	CommandRTL
	CommandLoiterTime
	CommandLoiterUnlimited
	CommandDelay                 // MAV_CMD_NAV_DELAY (112)
	CommandConditionYaw          // MAV_CMD_CONDITION_YAW (115)
	CommandChangeSpeed           // MAV_CMD_DO_CHANGE_SPEED (178)
	CommandSetHome               // MAV_CMD_DO_SET_HOME (179)
	CommandSetROI                // MAV_CMD_DO_SET_ROI (201)
	CommandSetCamTriggerDistance // MAV_CMD_DO_SET_CAM_TRIGG_DIST (206)
)

// Waypoint is one point of an assembled mission: a geographic position,
// the command it carries, and survey-specific metadata needed by camera
// triggering and ground-station display.
type Waypoint struct {
	Index      int // 0-based sequence position; set by Sequence.Reindex
	Point      geometry.GeoPoint
	Command    Command
	Speed      float64 // m/s, 0 = use vehicle default
	LoiterTime float64 // seconds, only meaningful for CommandLoiterTime
	Role       survey.Role
}

// Sequence is an ordered, ID-tagged mission for a single vehicle.
type Sequence struct {
	ID        string // uuid
	VehicleID string
	Waypoints []Waypoint
}

// NewSequence builds an empty, freshly UUID-tagged sequence for vehicleID.
func NewSequence(vehicleID string) *Sequence {
	return &Sequence{ID: uuid.NewString(), VehicleID: vehicleID}
}

// Reindex assigns Index = 0..n-1 in current order. Every mutator in this
// package calls Reindex before returning so Index always matches
// position; callers appending directly to Waypoints must call it too.
func (s *Sequence) Reindex() {
	for i := range s.Waypoints {
		s.Waypoints[i].Index = i
	}
}

// Append adds a waypoint at the end and reindexes.
func (s *Sequence) Append(w Waypoint) {
	s.Waypoints = append(s.Waypoints, w)
	s.Reindex()
}

// AssemblyParams carries the command legs AppendSurveyResult wraps around
// a survey.Result's takeoff/nav/RTL waypoints, completing the §4.10
// assembly order [home?, speed-set, takeoff?, cam-trigger?, nav..,
// speed-set-slow?, return-to-home-coord, rtl?]. No loiter leg is built
// here: swarm sequential conflict resolution inserts one after assembly
// via Sequence.InsertLoiter, just before the first survey nav waypoint,
// so it follows the takeoff leg rather than preceding it.
type AssemblyParams struct {
	Home           *geometry.GeoPoint // non-nil emits a DO_SET_HOME leg first
	CruiseSpeedMS  float64            // >0 emits a DO_CHANGE_SPEED leg after Home
	SlowSpeedMS    float64            // >0 emits a DO_CHANGE_SPEED leg before the return leg
	PhotoIntervalM float64            // >0 emits a DO_SET_CAM_TRIGG_DIST leg after takeoff
}

// AppendSurveyResult converts a survey.Result's role-tagged waypoints
// into mission waypoints, bookended by the home/speed-set/cam-trigger
// legs described by params, and appends them in assembly order.
func (s *Sequence) AppendSurveyResult(res survey.Result, params AssemblyParams) {
	if params.Home != nil {
		s.Waypoints = append(s.Waypoints, Waypoint{Point: *params.Home, Command: CommandSetHome})
	}
	if params.CruiseSpeedMS > 0 && len(res.Waypoints) > 0 {
		s.Waypoints = append(s.Waypoints, Waypoint{
			Point: res.Waypoints[0].Point, Command: CommandChangeSpeed, Speed: params.CruiseSpeedMS,
		})
	}

	n := len(res.Waypoints)
	hasRTL := n > 0 && res.Waypoints[n-1].Role == survey.RoleRTL
	navEnd := n
	if hasRTL {
		navEnd = n - 1
	}

	triggerPending := params.PhotoIntervalM > 0
	for i := 0; i < navEnd; i++ {
		w := res.Waypoints[i]
		cmd := CommandWaypoint
		if w.Role == survey.RoleTakeoff {
			cmd = CommandTakeoff
		}
		s.Waypoints = append(s.Waypoints, Waypoint{Point: w.Point, Command: cmd, Role: w.Role})
		if triggerPending && w.Role == survey.RoleTakeoff {
			s.Waypoints = append(s.Waypoints, Waypoint{
				Point: w.Point, Command: CommandSetCamTriggerDistance, Speed: params.PhotoIntervalM,
			})
			triggerPending = false
		}
	}

	if hasRTL {
		home := res.Waypoints[n-1].Point
		if params.SlowSpeedMS > 0 {
			s.Waypoints = append(s.Waypoints, Waypoint{Point: home, Command: CommandChangeSpeed, Speed: params.SlowSpeedMS})
		}
		s.Waypoints = append(s.Waypoints, Waypoint{Point: home, Command: CommandWaypoint, Role: survey.RoleRTL})
		s.Waypoints = append(s.Waypoints, Waypoint{Point: home, Command: CommandRTL, Role: survey.RoleRTL})
	}

	s.Reindex()
}

// InsertLoiter inserts a timed loiter waypoint at position idx (0-based,
// before the existing waypoint at idx) and reindexes.
func (s *Sequence) InsertLoiter(idx int, at geometry.GeoPoint, seconds float64) error {
	if idx < 0 || idx > len(s.Waypoints) {
		return fmt.Errorf("mission: loiter insertion index %d out of range [0,%d]", idx, len(s.Waypoints))
	}
	w := Waypoint{Point: at, Command: CommandLoiterTime, LoiterTime: seconds}
	s.Waypoints = append(s.Waypoints, Waypoint{})
	copy(s.Waypoints[idx+1:], s.Waypoints[idx:])
	s.Waypoints[idx] = w
	s.Reindex()
	return nil
}

// TotalDistanceM sums the great-circle distance between consecutive
// waypoints.
func (s *Sequence) TotalDistanceM() float64 {
	var total float64
	for i := 1; i < len(s.Waypoints); i++ {
		a, b := s.Waypoints[i-1].Point, s.Waypoints[i].Point
		total += geometry.DistanceHaversine(a.Lat, a.Lon, b.Lat, b.Lon)
	}
	return total
}
