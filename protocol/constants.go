package protocol

import "strings"

// Generic link & protocol constants (platform independent). All higher layers should depend on this file.
const (
	// Frame sizing
	// Layout:
	//   Ack (1) | Salt (4) | Type (1) | Broadcast (1) | Seq (2) | Len (2) | CRC16 (2) | Payload (0-237)
	// Multi-byte fields are little-endian. Len counts payload bytes only.

	AddressSize = 6

	ackOffset       = 0
	saltOffset      = 1
	typeOffset      = 5
	broadcastOffset = 6
	seqOffset       = 7
	lenOffset       = 9
	crcOffset       = 11

	CRCSize         = 2
	FrameHeaderSize = crcOffset + CRCSize // 13 bytes

	// Total maximum frame length on air
	MaxFrameSize = 250

	// Application-level payload allowance
	MaxPayloadSize = MaxFrameSize - FrameHeaderSize

	// Timeouts / intervals (microseconds)
	LivenessTimeoutUs  = 1_000_000
	HandshakeTimeoutUs = 1_000_000

	// Event queue depth between radio callbacks and the protocol context
	DefaultQueueSize = 16

	// Handshake attempts after the first CONNECT went unanswered
	DefaultMaxConnectRetries = 1
)

// FrameType identifies what a frame carries.
type FrameType uint8

const (
	FrameTypeBeacon    FrameType = 0x01
	FrameTypeConnect   FrameType = 0x02
	FrameTypeReject    FrameType = 0x03
	FrameTypeHeartbeat FrameType = 0x04
	FrameTypeData      FrameType = 0x05
	FrameTypeText      FrameType = 0x06
)

var frameTypeNames = map[FrameType]string{
	FrameTypeBeacon:    "BEACON",
	FrameTypeConnect:   "CONNECT",
	FrameTypeReject:    "REJECT",
	FrameTypeHeartbeat: "HEARTBEAT",
	FrameTypeData:      "DATA",
	FrameTypeText:      "TEXT",
}

func (t FrameType) String() string {
	if name, ok := frameTypeNames[t]; ok {
		return name
	}
	return "UNKNOWN"
}

// Valid reports whether t is one of the defined frame types.
func (t FrameType) Valid() bool {
	_, ok := frameTypeNames[t]
	return ok
}

// ParseFrameType accepts the names printed by String, case-insensitively.
func ParseFrameType(s string) (FrameType, bool) {
	for t, name := range frameTypeNames {
		if strings.EqualFold(name, s) {
			return t, true
		}
	}
	return 0, false
}

// AckFlag marks a frame as a request (NACK) or a reply (ACK).
type AckFlag uint8

const (
	NACK AckFlag = 0
	ACK  AckFlag = 1
)

func (a AckFlag) String() string {
	switch a {
	case NACK:
		return "NACK"
	case ACK:
		return "ACK"
	default:
		return "INVALID"
	}
}

// BroadcastFlag tells the receiver whether the frame was sent to everyone.
type BroadcastFlag uint8

const (
	Broadcast BroadcastFlag = 0
	Unicast   BroadcastFlag = 1
)

func (b BroadcastFlag) String() string {
	switch b {
	case Broadcast:
		return "BROADCAST"
	case Unicast:
		return "UNICAST"
	default:
		return "INVALID"
	}
}
