package protocol

import (
	"errors"
	"testing"
)

func TestParseAddress(t *testing.T) {
	want := Address{0xAA, 0xBB, 0xCC, 0x01, 0x02, 0x03}
	for _, in := range []string{"aa:bb:cc:01:02:03", "AA-BB-CC-01-02-03", "aabbcc010203", " aa:bb:cc:01:02:03 "} {
		got, err := ParseAddress(in)
		if err != nil {
			t.Fatalf("ParseAddress(%q) error = %v", in, err)
		}
		if got != want {
			t.Errorf("ParseAddress(%q) = %v, want %v", in, got, want)
		}
	}

	for _, in := range []string{"", "aa:bb", "zz:bb:cc:01:02:03", "aa:bb:cc:01:02:03:04"} {
		if _, err := ParseAddress(in); !errors.Is(err, ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) error = %v, want %v", in, err, ErrInvalidAddress)
		}
	}
}

func TestAddressString(t *testing.T) {
	a := Address{0x0A, 0x00, 0xFF, 0x10, 0x20, 0x30}
	if got := a.String(); got != "0a:00:ff:10:20:30" {
		t.Errorf("String() = %q", got)
	}
	if !BroadcastAddress.IsBroadcast() || a.IsBroadcast() {
		t.Error("IsBroadcast() mismatch")
	}

	var back Address
	text, _ := a.MarshalText()
	if err := back.UnmarshalText(text); err != nil || back != a {
		t.Errorf("UnmarshalText(%s) = %v, %v", text, back, err)
	}
}

func TestRandomAddress(t *testing.T) {
	for i := 0; i < 32; i++ {
		a := RandomAddress()
		if a[0]&0x01 != 0 || a[0]&0x02 == 0 {
			t.Fatalf("RandomAddress() = %s, want locally administered unicast", a)
		}
		if a.IsZero() || a.IsBroadcast() {
			t.Fatalf("RandomAddress() = %s", a)
		}
	}
}
