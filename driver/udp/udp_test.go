package udp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	proto "github.com/ystepanoff/nowlink/protocol"
)

var (
	self  = proto.Address{0x02, 0, 0, 0, 0, 0x01}
	other = proto.Address{0x02, 0, 0, 0, 0, 0x02}
	third = proto.Address{0x02, 0, 0, 0, 0, 0x03}
)

func TestDatagramRoundTrip(t *testing.T) {
	frame := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	b := appendDatagram(nil, other, self, frame)
	if len(b) != linkHeaderSize+len(frame) {
		t.Fatalf("datagram is %d bytes, want %d", len(b), linkHeaderSize+len(frame))
	}

	dst, src, got, err := parseDatagram(b)
	if err != nil {
		t.Fatalf("parseDatagram() error = %v", err)
	}
	if dst != other || src != self || !bytes.Equal(got, frame) {
		t.Errorf("parseDatagram() = %s, %s, %x", dst, src, got)
	}
}

func TestParseDatagramShort(t *testing.T) {
	if _, _, _, err := parseDatagram(make([]byte, linkHeaderSize-1)); !errors.Is(err, ErrShortDatagram) {
		t.Errorf("parseDatagram() error = %v, want %v", err, ErrShortDatagram)
	}
}

func TestAccepts(t *testing.T) {
	d := &Driver{addr: self}
	tests := []struct {
		name     string
		dst, src proto.Address
		want     bool
	}{
		{name: "unicast to us", dst: self, src: other, want: true},
		{name: "broadcast", dst: proto.BroadcastAddress, src: other, want: true},
		{name: "unicast to someone else", dst: third, src: other},
		{name: "our own broadcast", dst: proto.BroadcastAddress, src: self},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.accepts(tt.dst, tt.src); got != tt.want {
				t.Errorf("accepts(%s, %s) = %v, want %v", tt.dst, tt.src, got, tt.want)
			}
		})
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	if _, err := New(Config{Address: proto.BroadcastAddress}, zerolog.Nop()); !errors.Is(err, proto.ErrInvalidAddress) {
		t.Errorf("New(broadcast address) error = %v, want %v", err, proto.ErrInvalidAddress)
	}
	if _, err := New(Config{Address: self, Group: "127.0.0.1:47000"}, zerolog.Nop()); !errors.Is(err, proto.ErrInvalidArgument) {
		t.Errorf("New(unicast group) error = %v, want %v", err, proto.ErrInvalidArgument)
	}
}
