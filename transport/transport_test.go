package transport

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"

	proto "github.com/ystepanoff/nowlink/protocol"
)

var (
	addrA = proto.Address{0x02, 0, 0, 0, 0, 0x0A}
	addrB = proto.Address{0x02, 0, 0, 0, 0, 0x0B}
	addrC = proto.Address{0x02, 0, 0, 0, 0, 0x0C}
)

const second = int64(1_000_000)

type sentFrame struct {
	dst  proto.Address
	data []byte
}

// MockDriver implements the RadioDriver interface for testing
type MockDriver struct {
	mutex  sync.Mutex
	addr   proto.Address
	txLog  []sentFrame
	onRecv ReceiveHandler
	onSent SendHandler
	err    error
	closed bool
}

func NewMockDriver(addr proto.Address) *MockDriver {
	return &MockDriver{addr: addr}
}

func (d *MockDriver) Address() proto.Address { return d.addr }

func (d *MockDriver) Start(onRecv ReceiveHandler, onSent SendHandler) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.onRecv, d.onSent = onRecv, onSent
	return nil
}

func (d *MockDriver) Send(dst proto.Address, data []byte) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.err != nil {
		return d.err
	}

	// Make a copy to avoid data races
	dataCopy := make([]byte, len(data))
	copy(dataCopy, data)

	d.txLog = append(d.txLog, sentFrame{dst: dst, data: dataCopy})
	return nil
}

func (d *MockDriver) Close() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.closed = true
	return nil
}

// Test helper methods
func (d *MockDriver) GetTxLog() []sentFrame {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return append([]sentFrame(nil), d.txLog...)
}

func (d *MockDriver) ClearTxLog() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.txLog = d.txLog[:0]
}

func (d *MockDriver) FailSends(err error) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.err = err
}

// decodedTx decodes every logged transmission, failing the test on garbage.
func (d *MockDriver) decodedTx(t *testing.T) []*proto.Frame {
	t.Helper()
	var out []*proto.Frame
	for _, s := range d.GetTxLog() {
		f, err := proto.DecodeFrame(s.data)
		if err != nil {
			t.Fatalf("transmitted invalid frame to %s: %v", s.dst, err)
		}
		out = append(out, f)
	}
	return out
}

type fakeClock struct{ now int64 }

func (c *fakeClock) Now() int64 { return c.now }

func newTestNode(t *testing.T, cfg Config, opts ...Option) (*Node, *MockDriver, *fakeClock) {
	t.Helper()
	driver := NewMockDriver(addrA)
	clock := &fakeClock{}
	opts = append([]Option{WithClock(clock.Now), WithLogger(zerolog.Nop())}, opts...)
	n, err := NewNode(driver, cfg, opts...)
	if err != nil {
		t.Fatalf("NewNode() error = %v", err)
	}
	return n, driver, clock
}

// frameFrom encodes a frame as if src had sent it.
func frameFrom(t *testing.T, src proto.Address, ft proto.FrameType, ack proto.AckFlag, bc proto.BroadcastFlag, payload []byte) FrameReceived {
	t.Helper()
	data, err := proto.Encode(ft, ack, bc, 0, payload)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	return FrameReceived{Address: src, Data: data}
}

func beaconFrom(t *testing.T, src proto.Address) FrameReceived {
	return frameFrom(t, src, proto.FrameTypeBeacon, proto.NACK, proto.Broadcast, nil)
}

func mustPeer(t *testing.T, n *Node, addr proto.Address) *proto.Peer {
	t.Helper()
	p, _ := n.Table().Lookup(addr)
	if p == nil {
		t.Fatalf("peer %s not in table", addr)
	}
	return p
}
