package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/howeyc/crc16"
)

// Frame represents a frame of data transferred over the radio link.
// Layout: Ack(1) | Salt(4) | Type(1) | Broadcast(1) | Seq(2) | Len(2) | CRC16(2) | Payload(0-237)
// The checksum covers the whole frame with the CRC field zeroed.
type Frame struct {
	Ack       AckFlag
	Salt      uint32
	Type      FrameType
	Broadcast BroadcastFlag
	Seq       uint16
	Payload   []byte
	CRC       uint16 // decoded frames only; ignored by encoder
}

// Encode builds a frame with a fresh salt and returns its wire bytes.
func Encode(t FrameType, ack AckFlag, bc BroadcastFlag, seq uint16, payload []byte) ([]byte, error) {
	return EncodeFrame(&Frame{
		Ack:       ack,
		Salt:      NewSalt(),
		Type:      t,
		Broadcast: bc,
		Seq:       seq,
		Payload:   payload,
	})
}

// EncodeFrame serialises f into a newly allocated buffer and stores the checksum in it.
func EncodeFrame(f *Frame) ([]byte, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: nil frame", ErrInvalidArgument)
	}
	if len(f.Payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes, max %d", ErrPayloadTooLarge, len(f.Payload), MaxPayloadSize)
	}

	data := make([]byte, FrameHeaderSize+len(f.Payload))
	data[ackOffset] = byte(f.Ack)
	binary.LittleEndian.PutUint32(data[saltOffset:typeOffset], f.Salt)
	data[typeOffset] = byte(f.Type)
	data[broadcastOffset] = byte(f.Broadcast)
	binary.LittleEndian.PutUint16(data[seqOffset:lenOffset], f.Seq)
	binary.LittleEndian.PutUint16(data[lenOffset:crcOffset], uint16(len(f.Payload)))
	copy(data[FrameHeaderSize:], f.Payload)

	// CRC field is still zero here
	binary.LittleEndian.PutUint16(data[crcOffset:FrameHeaderSize], Checksum(data))
	return data, nil
}

// DecodeFrame parses data. On success the returned payload is a view into data,
// so the caller must not reuse the buffer while the frame is in use.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < FrameHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, header is %d", ErrFrameTooShort, len(data), FrameHeaderSize)
	}

	payloadLen := int(binary.LittleEndian.Uint16(data[lenOffset:crcOffset]))
	if remainder := len(data) - FrameHeaderSize; payloadLen != remainder {
		return nil, fmt.Errorf("%w: len=%d, remainder=%d", ErrFrameLengthMismatch, payloadLen, remainder)
	}

	stored := binary.LittleEndian.Uint16(data[crcOffset:FrameHeaderSize])
	if calc := checksumZeroed(data); calc != stored {
		return nil, fmt.Errorf("%w: crc=%04X, calc=%04X", ErrFrameCRCMismatch, stored, calc)
	}

	return &Frame{
		Ack:       AckFlag(data[ackOffset]),
		Salt:      binary.LittleEndian.Uint32(data[saltOffset:typeOffset]),
		Type:      FrameType(data[typeOffset]),
		Broadcast: BroadcastFlag(data[broadcastOffset]),
		Seq:       binary.LittleEndian.Uint16(data[seqOffset:lenOffset]),
		Payload:   data[FrameHeaderSize:],
		CRC:       stored,
	}, nil
}

// Validate checks the enum fields a decoder cannot reject on its own.
func (f *Frame) Validate() error {
	if f.Ack != ACK && f.Ack != NACK {
		return fmt.Errorf("%w: ack flag %d", ErrInvalidArgument, f.Ack)
	}
	if f.Broadcast != Broadcast && f.Broadcast != Unicast {
		return fmt.Errorf("%w: broadcast flag %d", ErrInvalidArgument, f.Broadcast)
	}
	if !f.Type.Valid() {
		return fmt.Errorf("%w: frame type 0x%02X", ErrInvalidArgument, uint8(f.Type))
	}
	return nil
}

func (f *Frame) IsBroadcast() bool { return f.Broadcast == Broadcast }

// carriesPayload reports whether f is application data for the handler.
func (f *Frame) carriesPayload() bool {
	return f.Type == FrameTypeData || f.Type == FrameTypeText
}

func (f *Frame) isConnectRequest() bool {
	return f.Type == FrameTypeConnect && f.Ack == NACK
}

// Checksum is the CRC-16/CCITT of data as given.
func Checksum(data []byte) uint16 {
	return crc16.Update(0, crc16.CCITTTable, data)
}

// checksumZeroed computes the checksum as if the CRC field were zero without
// mutating the caller's buffer.
func checksumZeroed(data []byte) uint16 {
	var zero [CRCSize]byte
	crc := crc16.Update(0, crc16.CCITTTable, data[:crcOffset])
	crc = crc16.Update(crc, crc16.CCITTTable, zero[:])
	return crc16.Update(crc, crc16.CCITTTable, data[FrameHeaderSize:])
}
