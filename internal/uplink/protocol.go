// Package uplink sends an assembled mission.Sequence to a vehicle's
// autopilot over a serial link using the MAVLink v2 mission-upload
// handshake (MISSION_COUNT -> MISSION_REQUEST_INT -> MISSION_ITEM_INT x N
// -> MISSION_ACK). It is upload-only: no telemetry or command streams are
// read back, per the planner's offline scope.
package uplink

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Protocol is a MAVLink v2 message encoder/decoder bound to one serial
// link.
type Protocol struct {
	port     serial.Port
	mu       sync.RWMutex
	sequence uint8
	systemID uint8
	compID   uint8
}

// Message is one decoded MAVLink v2 frame.
type Message struct {
	Length      uint8
	Sequence    uint8
	SystemID    uint8
	ComponentID uint8
	MessageID   uint32
	Payload     []byte
	Checksum    uint16
}

// Mission-relevant MAVLink message IDs.
const (
	msgIDHeartbeat        = 0
	msgIDMissionItemInt   = 73
	msgIDMissionRequest   = 40
	msgIDMissionRequestInt = 51
	msgIDMissionCount     = 44
	msgIDMissionAck       = 47
	msgIDMissionClearAll  = 45
	msgIDCommandLong      = 76
)

const (
	mavFrameGlobalRelativeAlt = 3
	mavCmdNavWaypoint         = 16
	mavMissionTypeMission     = 0
)

const mavlinkV2Magic = 0xFD

// NewProtocol builds a Protocol that sends as the given system and
// component IDs, with outgoing sequence numbers starting at 0.
func NewProtocol(systemID, compID uint8) *Protocol {
	return &Protocol{systemID: systemID, compID: compID}
}

// Open opens the named serial port at baudRate with MAVLink's standard
// 8N1 framing.
func (p *Protocol) Open(portName string, baudRate int) error {
	mode := &serial.Mode{BaudRate: baudRate, DataBits: 8, Parity: serial.NoParity, StopBits: serial.OneStopBit}
	port, err := serial.Open(portName, mode)
	if err != nil {
		return fmt.Errorf("uplink: opening serial port %s: %w", portName, err)
	}
	p.mu.Lock()
	p.port = port
	p.mu.Unlock()
	return nil
}

// Close closes the underlying serial port.
func (p *Protocol) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port != nil {
		return p.port.Close()
	}
	return nil
}

// ListPorts lists USB serial ports available for mission upload.
func ListPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, err
	}
	var names []string
	for _, port := range ports {
		if port.IsUSB {
			names = append(names, port.Name)
		}
	}
	return names, nil
}

func (p *Protocol) sendMessage(messageID uint32, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.port == nil {
		return fmt.Errorf("uplink: serial port not open")
	}

	msg := &Message{Length: uint8(len(payload)), Sequence: p.sequence, SystemID: p.systemID, ComponentID: p.compID, MessageID: messageID, Payload: payload}
	p.sequence++

	buf := serializeMessage(msg)
	_, err := p.port.Write(buf)
	return err
}

func serializeMessage(msg *Message) []byte {
	buf := new(bytes.Buffer)
	buf.WriteByte(mavlinkV2Magic)
	buf.WriteByte(msg.Length)
	buf.WriteByte(0) // incompat flags
	buf.WriteByte(0) // compat flags
	buf.WriteByte(msg.Sequence)
	buf.WriteByte(msg.SystemID)
	buf.WriteByte(msg.ComponentID)

	idBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBytes, msg.MessageID)
	buf.Write(idBytes[:3])

	buf.Write(msg.Payload)

	checksum := calculateChecksum(msg)
	buf.WriteByte(uint8(checksum & 0xFF))
	buf.WriteByte(uint8((checksum >> 8) & 0xFF))
	return buf.Bytes()
}

func calculateChecksum(msg *Message) uint16 {
	crc := crcAccumulate(0xFFFF, []byte{msg.Length, 0, 0, msg.Sequence, msg.SystemID, msg.ComponentID})
	idBytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(idBytes, msg.MessageID)
	crc = crcAccumulate(crc, idBytes[:3])
	crc = crcAccumulate(crc, msg.Payload)
	crc = crcAccumulate(crc, []byte{crcExtra(msg.MessageID)})
	return crc
}

func crcAccumulate(crc uint16, data []byte) uint16 {
	for _, b := range data {
		tmp := b ^ uint8(crc)
		tmp ^= tmp << 4
		crc = (crc >> 8) ^ (uint16(tmp) << 8) ^ (uint16(tmp) << 3) ^ (uint16(tmp) >> 4)
	}
	return crc
}

// crcExtra returns the MAVLink v2 CRC_EXTRA byte for the mission-upload
// message subset this package speaks; unrecognized IDs return 0.
func crcExtra(messageID uint32) uint8 {
	switch messageID {
	case msgIDHeartbeat:
		return 50
	case msgIDMissionItemInt:
		return 38
	case msgIDMissionRequest:
		return 230
	case msgIDMissionRequestInt:
		return 196
	case msgIDMissionCount:
		return 221
	case msgIDMissionAck:
		return 153
	case msgIDMissionClearAll:
		return 232
	case msgIDCommandLong:
		return 152
	default:
		return 0
	}
}

// ReadMessage blocks up to timeout for the next frame on the serial port.
func (p *Protocol) ReadMessage(timeout time.Duration) (*Message, error) {
	p.mu.RLock()
	port := p.port
	p.mu.RUnlock()
	if port == nil {
		return nil, fmt.Errorf("uplink: serial port not open")
	}
	port.SetReadTimeout(timeout)

	magic := make([]byte, 1)
	if _, err := port.Read(magic); err != nil {
		return nil, err
	}
	if magic[0] != mavlinkV2Magic {
		return nil, fmt.Errorf("uplink: invalid magic byte 0x%02x", magic[0])
	}

	header := make([]byte, 9)
	if _, err := io.ReadFull(port, header); err != nil {
		return nil, err
	}
	msg := &Message{
		Length:      header[0],
		Sequence:    header[3],
		SystemID:    header[4],
		ComponentID: header[5],
		MessageID:   uint32(header[6]) | uint32(header[7])<<8 | uint32(header[8])<<16,
	}
	msg.Payload = make([]byte, msg.Length)
	if _, err := io.ReadFull(port, msg.Payload); err != nil {
		return nil, err
	}
	checksumBytes := make([]byte, 2)
	if _, err := io.ReadFull(port, checksumBytes); err != nil {
		return nil, err
	}
	msg.Checksum = uint16(checksumBytes[0]) | uint16(checksumBytes[1])<<8
	return msg, nil
}

func float32Bytes(v float32) []byte {
	b := make([]byte, 4)
	binary.LittleEndian.PutUint32(b, math.Float32bits(v))
	return b
}

var crcTable = [256]uint16{
	0x0000, 0x1021, 0x2042, 0x3063, 0x4084, 0x50a5, 0x60c6, 0x70e7,
	0x8108, 0x9129, 0xa14a, 0xb16b, 0xc18c, 0xd1ad, 0xe1ce, 0xf1ef,
	0x1231, 0x0210, 0x3273, 0x2252, 0x52b5, 0x4294, 0x72f7, 0x62d6,
	0x9339, 0x8318, 0xb37b, 0xa35a, 0xd3bd, 0xc39c, 0xf3ff, 0xe3de,
	0x2462, 0x3443, 0x0420, 0x1401, 0x64e6, 0x74c7, 0x44a4, 0x5485,
	0xa56a, 0xb54b, 0x8528, 0x9509, 0xe5ee, 0xf5cf, 0xc5ac, 0xd58d,
	0x3653, 0x2672, 0x1611, 0x0630, 0x76d7, 0x66f6, 0x5695, 0x46b4,
	0xb75b, 0xa77a, 0x9719, 0x8738, 0xf7df, 0xe7fe, 0xd79d, 0xc7bc,
	0x48c4, 0x58e5, 0x6886, 0x78a7, 0x0840, 0x1861, 0x2802, 0x3823,
	0xc9cc, 0xd9ed, 0xe98e, 0xf9af, 0x8948, 0x9969, 0xa90a, 0xb92b,
	0x5af5, 0x4ad4, 0x7ab7, 0x6a96, 0x1a71, 0x0a50, 0x3a33, 0x2a12,
	0xdbfd, 0xcbdc, 0xfbbf, 0xeb9e, 0x9b79, 0x8b58, 0xbb3b, 0xab1a,
	0x6ca6, 0x7c87, 0x4ce4, 0x5cc5, 0x2c22, 0x3c03, 0x0c60, 0x1c41,
	0xedae, 0xfd8f, 0xcdec, 0xddcd, 0xad2a, 0xbd0b, 0x8d68, 0x9d49,
	0x7e97, 0x6eb6, 0x5ed5, 0x4ef4, 0x3e13, 0x2e32, 0x1e51, 0x0e70,
	0xff9f, 0xefbe, 0xdfdd, 0xcffc, 0xbf1b, 0xaf3a, 0x9f59, 0x8f78,
	0x9188, 0x81a9, 0xb1ca, 0xa1eb, 0xd10c, 0xc12d, 0xf14e, 0xe16f,
	0x1080, 0x00a1, 0x30c2, 0x20e3, 0x5004, 0x4025, 0x7046, 0x6067,
	0x83b9, 0x9398, 0xa3fb, 0xb3da, 0xc33d, 0xd31c, 0xe37f, 0xf35e,
	0x02b1, 0x1290, 0x22f3, 0x32d2, 0x4235, 0x5214, 0x6277, 0x7256,
	0xb5ea, 0xa5cb, 0x95a8, 0x8589, 0xf56e, 0xe54f, 0xd52c, 0xc50d,
	0x34e2, 0x24c3, 0x14a0, 0x0481, 0x7466, 0x6447, 0x5424, 0x4405,
	0xa7db, 0xb7fa, 0x8799, 0x97b8, 0xe75f, 0xf77e, 0xc71d, 0xd73c,
	0x26d3, 0x36f2, 0x0691, 0x16b0, 0x6657, 0x7676, 0x4615, 0x5634,
	0xd94c, 0xc96d, 0xf90e, 0xe92f, 0x99c8, 0x89e9, 0xb98a, 0xa9ab,
	0x5844, 0x4865, 0x7806, 0x6827, 0x18c0, 0x08e1, 0x3882, 0x28a3,
	0xcb7d, 0xdb5c, 0xeb3f, 0xfb1e, 0x8bf9, 0x9bd8, 0xabbb, 0xbb9a,
	0x4a75, 0x5a54, 0x6a37, 0x7a16, 0x0af1, 0x1ad0, 0x2ab3, 0x3a92,
	0xfd2e, 0xed0f, 0xdd6c, 0xcd4d, 0xbdaa, 0xad8b, 0x9de8, 0x8dc9,
	0x7c26, 0x6c07, 0x5c64, 0x4c45, 0x3ca2, 0x2c83, 0x1ce0, 0x0cc1,
	0xef1f, 0xff3e, 0xcf5d, 0xdf7c, 0xaf9b, 0xbfba, 0x8fd9, 0x9ff8,
	0x6e17, 0x7e36, 0x4e55, 0x5e74, 0x2e93, 0x3eb2, 0x0ed1, 0x1ef0,
}
