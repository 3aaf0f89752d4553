package stub

import (
	"bytes"
	"errors"
	"sync"
	"testing"

	proto "github.com/ystepanoff/nowlink/protocol"
)

type recorder struct {
	mu    sync.Mutex
	rx    []proto.Address
	sent  []bool
	bytes [][]byte
}

func (r *recorder) onRecv(src proto.Address, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rx = append(r.rx, src)
	r.bytes = append(r.bytes, append([]byte(nil), data...))
}

func (r *recorder) onSent(_ proto.Address, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, ok)
}

func attach(t *testing.T, m *Medium, last byte) (*Driver, *recorder) {
	t.Helper()
	d := m.Attach(proto.Address{0x02, 0, 0, 0, 0, last})
	r := &recorder{}
	if err := d.Start(r.onRecv, r.onSent); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	return d, r
}

func TestMedium_Unicast(t *testing.T) {
	m := NewMedium()
	a, ra := attach(t, m, 1)
	b, rb := attach(t, m, 2)
	_, rc := attach(t, m, 3)

	if err := a.Send(b.Address(), []byte("ping")); err != nil {
		t.Fatalf("Send() error = %v", err)
	}

	if len(rb.rx) != 1 || rb.rx[0] != a.Address() || !bytes.Equal(rb.bytes[0], []byte("ping")) {
		t.Errorf("receiver got %v %q, want one frame from %s", rb.rx, rb.bytes, a.Address())
	}
	if len(rc.rx) != 0 {
		t.Errorf("bystander received %d frames", len(rc.rx))
	}
	if len(ra.rx) != 0 {
		t.Error("sender heard its own frame")
	}
	if len(ra.sent) != 1 || !ra.sent[0] {
		t.Errorf("send completions = %v, want [true]", ra.sent)
	}
}

func TestMedium_Broadcast(t *testing.T) {
	m := NewMedium()
	a, _ := attach(t, m, 1)
	_, rb := attach(t, m, 2)
	_, rc := attach(t, m, 3)

	if err := a.Send(proto.BroadcastAddress, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if len(rb.rx) != 1 || len(rc.rx) != 1 {
		t.Errorf("broadcast reached %d and %d receivers, want 1 and 1", len(rb.rx), len(rc.rx))
	}
}

func TestMedium_UnicastToNobodyFails(t *testing.T) {
	m := NewMedium()
	a, ra := attach(t, m, 1)

	if err := a.Send(proto.Address{0x02, 0, 0, 0, 0, 9}, []byte{1}); err != nil {
		t.Fatal(err)
	}
	if len(ra.sent) != 1 || ra.sent[0] {
		t.Errorf("send completions = %v, want [false]", ra.sent)
	}
}

func TestMedium_Loss(t *testing.T) {
	m := NewMedium()
	m.SetSeed(1)
	a, _ := attach(t, m, 1)
	_, rb := attach(t, m, 2)

	m.SetLoss(1)
	for i := 0; i < 10; i++ {
		a.Send(proto.BroadcastAddress, []byte{byte(i)})
	}
	if len(rb.rx) != 0 {
		t.Errorf("received %d frames with total loss", len(rb.rx))
	}

	m.SetLoss(0)
	a.Send(proto.BroadcastAddress, []byte{0xFF})
	if len(rb.rx) != 1 {
		t.Errorf("received %d frames without loss, want 1", len(rb.rx))
	}
}

func TestDriver_DetachAndTxLog(t *testing.T) {
	m := NewMedium()
	a, _ := attach(t, m, 1)
	b, rb := attach(t, m, 2)

	for i := 0; i < ringCapacity+5; i++ {
		a.Send(b.Address(), []byte{byte(i)})
	}
	log := a.TxLog()
	if len(log) != ringCapacity {
		t.Fatalf("TxLog() holds %d frames, want %d", len(log), ringCapacity)
	}
	if log[0][0] != 5 || log[len(log)-1][0] != ringCapacity+4 {
		t.Errorf("TxLog() spans %d..%d, want 5..%d", log[0][0], log[len(log)-1][0], ringCapacity+4)
	}

	b.Detach()
	before := len(rb.rx)
	a.Send(b.Address(), []byte{1})
	if len(rb.rx) != before {
		t.Error("detached driver still receives")
	}
	if err := b.Send(a.Address(), []byte{1}); !errors.Is(err, proto.ErrClosed) {
		t.Errorf("Send() after Detach error = %v, want %v", err, proto.ErrClosed)
	}
}
