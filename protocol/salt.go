package protocol

import (
	crand "crypto/rand"
	"encoding/binary"
	mrand "math/rand"
)

// NewSalt returns a random per-frame nonce. It only makes identical frames
// differ on air; nothing relies on it for security.
// If crypto/rand fails (rare on host), falls back to math/rand.
func NewSalt() uint32 {
	var b [4]byte
	if _, err := crand.Read(b[:]); err == nil {
		return binary.LittleEndian.Uint32(b[:])
	}
	return mrand.Uint32()
}

// RandomAddress returns a locally administered unicast address for nodes
// that have no hardware address of their own.
func RandomAddress() Address {
	var a Address
	binary.LittleEndian.PutUint32(a[:4], NewSalt())
	binary.LittleEndian.PutUint16(a[4:], uint16(NewSalt()))
	a[0] = a[0]&^0x01 | 0x02
	return a
}
