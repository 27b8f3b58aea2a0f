package uplink

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/PossumXI/Asgard/Skylark/internal/mission"
	"github.com/PossumXI/Asgard/Skylark/internal/planerr"
	"github.com/sirupsen/logrus"
)

// Uploader drives the MAVLink mission-upload handshake over a Protocol.
type Uploader struct {
	proto           *Protocol
	targetSystem    uint8
	targetComponent uint8
	requestTimeout  time.Duration
	logger          *logrus.Logger
}

// NewUploader builds an Uploader targeting the given autopilot system
// and component IDs.
func NewUploader(proto *Protocol, targetSystem, targetComponent uint8, logger *logrus.Logger) *Uploader {
	if logger == nil {
		logger = logrus.New()
	}
	return &Uploader{
		proto:           proto,
		targetSystem:    targetSystem,
		targetComponent: targetComponent,
		requestTimeout:  2 * time.Second,
		logger:          logger,
	}
}

// Upload sends seq via MISSION_COUNT, then answers the autopilot's
// MISSION_REQUEST(_INT) messages with MISSION_ITEM_INT until it replies
// MISSION_ACK. It returns a planerr.KindTimeout error if the autopilot
// stops requesting items before the full sequence was delivered.
func (u *Uploader) Upload(seq *mission.Sequence) error {
	if len(seq.Waypoints) == 0 {
		return planerr.New(planerr.KindInvalidInput, "cannot upload an empty mission sequence")
	}

	if err := u.sendMissionCount(len(seq.Waypoints)); err != nil {
		return fmt.Errorf("uplink: sending mission count: %w", err)
	}

	delivered := 0
	deadline := time.Now().Add(u.requestTimeout * time.Duration(len(seq.Waypoints)+2))
	for time.Now().Before(deadline) {
		msg, err := u.proto.ReadMessage(u.requestTimeout)
		if err != nil {
			continue
		}
		switch msg.MessageID {
		case msgIDMissionRequest, msgIDMissionRequestInt:
			idx := int(binary.LittleEndian.Uint16(msg.Payload[2:4]))
			if idx < 0 || idx >= len(seq.Waypoints) {
				continue
			}
			if err := u.sendMissionItem(idx, seq.Waypoints[idx]); err != nil {
				return fmt.Errorf("uplink: sending mission item %d: %w", idx, err)
			}
			delivered++
			u.logger.WithFields(logrus.Fields{"mission_id": seq.ID, "index": idx}).Debug("mission item delivered")
		case msgIDMissionAck:
			if delivered < len(seq.Waypoints) {
				return planerr.New(planerr.KindSerializationError, "autopilot acknowledged mission before all items were delivered")
			}
			u.logger.WithField("mission_id", seq.ID).Info("mission upload acknowledged")
			return nil
		}
	}
	return planerr.Searchf(planerr.KindTimeout, delivered, u.requestTimeout.Seconds(), "autopilot stopped requesting items after %d/%d", delivered, len(seq.Waypoints))
}

func (u *Uploader) sendMissionCount(count int) error {
	payload := make([]byte, 4)
	binary.LittleEndian.PutUint16(payload[0:2], uint16(u.targetSystem)|uint16(u.targetComponent)<<8)
	binary.LittleEndian.PutUint16(payload[2:4], uint16(count))
	return u.proto.sendMessage(msgIDMissionCount, payload)
}

func (u *Uploader) sendMissionItem(seq int, wp mission.Waypoint) error {
	payload := make([]byte, 38)
	binary.LittleEndian.PutUint16(payload[0:2], uint16(seq))
	payload[2] = u.targetSystem
	payload[3] = u.targetComponent
	payload[4] = mavFrameGlobalRelativeAlt
	binary.LittleEndian.PutUint16(payload[5:7], uint16(mavCommand(wp.Command)))
	current := uint8(0)
	if seq == 0 {
		current = 1
	}
	payload[7] = current
	payload[8] = 1 // autocontinue

	param1 := float32(0)
	if wp.Command == mission.CommandLoiterTime {
		param1 = float32(wp.LoiterTime)
	}
	copy(payload[9:13], float32Bytes(param1))
	copy(payload[13:17], float32Bytes(0))
	copy(payload[17:21], float32Bytes(0))
	copy(payload[21:25], float32Bytes(0))

	binary.LittleEndian.PutUint32(payload[25:29], uint32(int32(wp.Point.Lat*1e7)))
	binary.LittleEndian.PutUint32(payload[29:33], uint32(int32(wp.Point.Lon*1e7)))
	copy(payload[33:37], float32Bytes(float32(wp.Point.Alt)))
	payload[37] = mavMissionTypeMission

	return u.proto.sendMessage(msgIDMissionItemInt, payload)
}

func mavCommand(c mission.Command) int {
	switch c {
	case mission.CommandTakeoff:
		return 22
	case mission.CommandLand:
		return 21
	case mission.CommandRTL:
		return 20
	case mission.CommandLoiterTime:
		return 19
	case mission.CommandLoiterUnlimited:
		return 17
	default:
		return mavCmdNavWaypoint
	}
}
