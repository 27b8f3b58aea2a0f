package uplink

import (
	"testing"
)

func TestSerializeMessageRoundTripsChecksum(t *testing.T) {
	msg := &Message{Length: 4, Sequence: 7, SystemID: 1, ComponentID: 1, MessageID: msgIDHeartbeat, Payload: []byte{1, 2, 3, 4}}
	buf := serializeMessage(msg)

	if buf[0] != mavlinkV2Magic {
		t.Fatalf("expected magic byte 0x%02x, got 0x%02x", mavlinkV2Magic, buf[0])
	}
	if buf[1] != msg.Length {
		t.Errorf("length byte = %d, want %d", buf[1], msg.Length)
	}
	// Last two bytes are the little-endian checksum; recomputing from the
	// same message must match exactly.
	want := calculateChecksum(msg)
	got := uint16(buf[len(buf)-2]) | uint16(buf[len(buf)-1])<<8
	if got != want {
		t.Errorf("checksum in buffer = 0x%04x, want 0x%04x", got, want)
	}
}

func TestCrcExtraKnownMessages(t *testing.T) {
	if crcExtra(msgIDMissionCount) == 0 {
		t.Error("expected a non-zero CRC extra for MISSION_COUNT")
	}
	if crcExtra(9999) != 0 {
		t.Error("expected zero CRC extra for an unrecognized message id")
	}
}

func TestFloat32BytesLength(t *testing.T) {
	b := float32Bytes(3.14)
	if len(b) != 4 {
		t.Fatalf("expected 4 bytes, got %d", len(b))
	}
}
