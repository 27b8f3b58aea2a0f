package swarm

import (
	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/survey"
)

// minSequentialBufferS is the minimum inter-vehicle hold regardless of
// how quickly the safety distance is covered.
const minSequentialBufferS = 2.0

// ResolveSequential holds each vehicle but the first at takeoff until the
// vehicle ahead of it has cleared safetyDistanceM, via a loiter waypoint
// inserted after the initial speed-set leg and before the first
// navigation waypoint. sequences must already be in takeoff order
// (sequences[0] departs immediately, unheld). vehicleSpeedMS is the
// assumed ground speed used to convert safetyDistanceM into a hold time.
func ResolveSequential(sequences []*mission.Sequence, vehicleSpeedMS, safetyDistanceM float64) {
	if len(sequences) < 2 {
		return
	}
	if vehicleSpeedMS <= 0 {
		vehicleSpeedMS = 1.0
	}
	hold := safetyDistanceM / vehicleSpeedMS
	if hold < minSequentialBufferS {
		hold = minSequentialBufferS
	}

	cumulative := 0.0
	for i := 1; i < len(sequences); i++ {
		cumulative += hold
		insertLoiterHold(sequences[i], cumulative)
	}
}

// insertLoiterHold inserts a timed loiter just before the first
// navigation waypoint, at the position of the waypoint preceding it (or
// at the navigation waypoint itself when nothing precedes it), holding
// the vehicle there for seconds before it proceeds.
func insertLoiterHold(seq *mission.Sequence, seconds float64) {
	idx := firstNavWaypointIndex(seq)
	if idx >= len(seq.Waypoints) {
		return
	}
	at := seq.Waypoints[idx].Point
	if idx > 0 {
		at = seq.Waypoints[idx-1].Point
	}
	seq.InsertLoiter(idx, at, seconds)
}

// firstNavWaypointIndex returns the index of the first waypoint carrying
// the actual survey sweep (as opposed to the home/speed-set/takeoff/cam-
// trigger/return legs AppendSurveyResult builds around it).
func firstNavWaypointIndex(seq *mission.Sequence) int {
	for i, w := range seq.Waypoints {
		if w.Command == mission.CommandWaypoint && w.Role != survey.RoleRTL {
			return i
		}
	}
	return len(seq.Waypoints)
}
