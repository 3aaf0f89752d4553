package protocol

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// Address is the fixed hardware address identifying a node on the link.
type Address [AddressSize]byte

// BroadcastAddress reaches every node in range.
var BroadcastAddress = Address{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}

func (a Address) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
}

func (a Address) IsBroadcast() bool { return a == BroadcastAddress }

func (a Address) IsZero() bool { return a == Address{} }

// AddressFromBytes copies b into an Address. b must be exactly AddressSize long.
func AddressFromBytes(b []byte) (Address, error) {
	var a Address
	if len(b) != AddressSize {
		return a, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidAddress, len(b), AddressSize)
	}
	copy(a[:], b)
	return a, nil
}

// ParseAddress accepts "aa:bb:cc:dd:ee:ff", "aa-bb-cc-dd-ee-ff" or "aabbccddeeff".
func ParseAddress(s string) (Address, error) {
	clean := strings.NewReplacer(":", "", "-", "").Replace(strings.TrimSpace(s))
	raw, err := hex.DecodeString(clean)
	if err != nil {
		return Address{}, fmt.Errorf("%w: %q: %v", ErrInvalidAddress, s, err)
	}
	return AddressFromBytes(raw)
}

func (a Address) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}
