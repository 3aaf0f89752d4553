package stub

import (
	"math/rand"
	"sync"
	"time"

	proto "github.com/ystepanoff/nowlink/protocol"
	"github.com/ystepanoff/nowlink/transport"
)

// Medium is an in-process radio channel shared by every attached Driver.
// Delivery is synchronous: Send returns after every receiver callback ran.
type Medium struct {
	mu    sync.Mutex
	nodes []*Driver
	loss  float64
	rng   *rand.Rand
}

func NewMedium() *Medium {
	return &Medium{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// SetLoss sets the probability in [0, 1] that a single delivery is dropped.
func (m *Medium) SetLoss(p float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loss = min(max(p, 0), 1)
}

// SetSeed makes loss decisions reproducible.
func (m *Medium) SetSeed(seed int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rng = rand.New(rand.NewSource(seed))
}

// Attach adds a radio with the given address to the medium.
func (m *Medium) Attach(addr proto.Address) *Driver {
	d := &Driver{medium: m, addr: addr}
	m.mu.Lock()
	m.nodes = append(m.nodes, d)
	m.mu.Unlock()
	return d
}

func (m *Medium) detach(d *Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.nodes {
		if n == d {
			m.nodes = append(m.nodes[:i], m.nodes[i+1:]...)
			return
		}
	}
}

// receivers picks the drivers that hear a frame from src to dst, after loss.
func (m *Medium) receivers(src *Driver, dst proto.Address) (out []*Driver, addressed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.nodes {
		if n == src || (!dst.IsBroadcast() && n.addr != dst) {
			continue
		}
		addressed = true
		if m.loss > 0 && m.rng.Float64() < m.loss {
			continue
		}
		out = append(out, n)
	}
	return out, addressed
}

// Driver implements a mock radio driver for host-side testing
type Driver struct {
	medium *Medium
	addr   proto.Address

	mu     sync.Mutex
	onRecv transport.ReceiveHandler
	onSent transport.SendHandler
	closed bool
	txBuf  ringBuffer
}

var _ transport.RadioDriver = (*Driver)(nil)

func (d *Driver) Address() proto.Address { return d.addr }

func (d *Driver) Start(onRecv transport.ReceiveHandler, onSent transport.SendHandler) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return proto.ErrClosed
	}
	d.onRecv, d.onSent = onRecv, onSent
	return nil
}

func (d *Driver) Send(dst proto.Address, data []byte) error {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return proto.ErrClosed
	}
	frame := make([]byte, len(data))
	copy(frame, data)
	d.txBuf.push(frame)
	onSent := d.onSent
	d.mu.Unlock()

	targets, addressed := d.medium.receivers(d, dst)
	for _, r := range targets {
		r.deliver(d.addr, frame)
	}
	if onSent != nil {
		// unicast to nobody never gets a link-layer ack
		onSent(dst, dst.IsBroadcast() || addressed)
	}
	return nil
}

func (d *Driver) deliver(src proto.Address, frame []byte) {
	d.mu.Lock()
	onRecv := d.onRecv
	d.mu.Unlock()
	if onRecv != nil {
		onRecv(src, frame)
	}
}

// Detach removes the driver from its medium. Further sends fail.
func (d *Driver) Detach() {
	d.mu.Lock()
	d.closed = true
	d.onRecv, d.onSent = nil, nil
	d.mu.Unlock()
	d.medium.detach(d)
}

func (d *Driver) Close() error {
	d.Detach()
	return nil
}

// TxLog returns copies of the most recent transmitted frames, oldest first.
func (d *Driver) TxLog() [][]byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.txBuf.snapshot()
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity][]byte
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(frame []byte) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.data[rb.tail] = nil
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = frame
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) snapshot() [][]byte {
	out := make([][]byte, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		p := rb.data[i]
		cp := make([]byte, len(p))
		copy(cp, p)
		out[c] = cp
		i = (i + 1) % ringCapacity
	}
	return out
}
