package transport

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	metrics "github.com/rcrowley/go-metrics"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// Clock returns a monotonic timestamp in microseconds.
type Clock func() int64

// TransitionHook observes every peer status change.
type TransitionHook func(addr proto.Address, from, to proto.Status)

// DataHandler receives DATA and TEXT payloads accepted from peers. The payload
// is only valid for the duration of the call.
type DataHandler func(addr proto.Address, t proto.FrameType, payload []byte)

// PeerInfo is a read-only copy of a peer record.
type PeerInfo struct {
	Index               int           `json:"index" yaml:"index"`
	Address             proto.Address `json:"address" yaml:"address"`
	Status              proto.Status  `json:"status" yaml:"status"`
	SeqTx               uint16        `json:"seq_tx" yaml:"seq_tx"`
	SeqRx               uint16        `json:"seq_rx" yaml:"seq_rx"`
	ConnRetry           uint32        `json:"conn_retry" yaml:"conn_retry"`
	LastSeenBroadcastUs int64         `json:"last_seen_broadcast_us" yaml:"last_seen_broadcast_us"`
	LastSeenUnicastUs   int64         `json:"last_seen_unicast_us" yaml:"last_seen_unicast_us"`
}

// Node owns one peer table and runs the connection protocol over a driver.
//
// All protocol state is mutated by a single owner goroutine (Run). Driver
// callbacks and public commands only enqueue events. Connected, Peers and
// Stats are safe from any goroutine.
type Node struct {
	cfg      Config
	timeouts proto.Timeouts
	policy   proto.Policy
	driver   RadioDriver
	self     proto.Address
	log      zerolog.Logger
	clock    Clock
	metrics  *nodeMetrics

	onTransition TransitionHook
	onData       DataHandler

	events eventQueue
	table  *PeerTable
	seqTx  uint16 // broadcasts and unknown destinations

	lastBeaconUs int64
	beaconSent   bool

	connected atomic.Bool
	peers     atomic.Pointer[[]PeerInfo]
	started   atomic.Bool
	closed    atomic.Bool
}

type Option func(*Node)

func WithClock(c Clock) Option {
	return func(n *Node) { n.clock = c }
}

func WithLogger(l zerolog.Logger) Option {
	return func(n *Node) { n.log = l }
}

func WithRegistry(r metrics.Registry) Option {
	return func(n *Node) { n.metrics = newNodeMetrics(r) }
}

func WithTransitionHook(h TransitionHook) Option {
	return func(n *Node) { n.onTransition = h }
}

func WithDataHandler(h DataHandler) Option {
	return func(n *Node) { n.onData = h }
}

func NewNode(d RadioDriver, cfg Config, opts ...Option) (*Node, error) {
	if d == nil {
		return nil, fmt.Errorf("%w: nil driver", proto.ErrInvalidArgument)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	n := &Node{
		cfg:      cfg,
		timeouts: cfg.timeouts(),
		policy:   cfg.policy(),
		driver:   d,
		self:     d.Address(),
		log:      log.Logger,
		clock:    func() int64 { return time.Since(start).Microseconds() },
		events:   newEventQueue(cfg.QueueSize),
		table:    NewPeerTable(cfg.MaxPeers),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.metrics == nil {
		n.metrics = newNodeMetrics(nil)
	}
	n.log = n.log.With().Str("node", n.self.String()).Logger()
	n.publish()
	return n, nil
}

func (n *Node) Address() proto.Address { return n.self }

// Now reads the node's clock, the time base of every PeerInfo timestamp.
func (n *Node) Now() int64 { return n.clock() }

// Run starts the driver and serves events and reconciliation ticks until ctx
// is done. Events still queued at cancellation are dropped unprocessed and the
// driver is closed on return.
func (n *Node) Run(ctx context.Context) error {
	if !n.started.CompareAndSwap(false, true) {
		return proto.ErrClosed
	}
	if err := n.driver.Start(n.handleReceive, n.handleSent); err != nil {
		n.closed.Store(true)
		return fmt.Errorf("start driver: %w", err)
	}
	n.log.Info().
		Dur("reconcile", n.cfg.ReconcileInterval).
		Dur("liveness", n.cfg.LivenessTimeout).
		Msg("node started")

	ticker := time.NewTicker(n.cfg.ReconcileInterval)
	defer ticker.Stop()

	for {
		// cancellation wins over queued work
		select {
		case <-ctx.Done():
			n.shutdown()
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			n.shutdown()
			return nil
		case ev := <-n.events:
			n.Dispatch(ev)
		case <-ticker.C:
			n.Tick()
		}
	}
}

func (n *Node) shutdown() {
	n.closed.Store(true)
	if err := n.driver.Close(); err != nil {
		n.log.Warn().Err(err).Msg("close driver")
	}
	dropped := n.events.drain()
	n.publish()
	n.table.Release()
	n.log.Info().Int("dropped_events", dropped).Msg("node stopped")
}

// handleReceive is the driver's receive callback. It copies data and enqueues
// it without blocking.
func (n *Node) handleReceive(src proto.Address, data []byte) {
	if n.closed.Load() {
		return
	}
	if len(data) == 0 || src.IsZero() {
		n.log.Error().Str("src", src.String()).Int("len", len(data)).Msg("receive callback: invalid arguments")
		return
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	if !n.enqueue(FrameReceived{Address: src, Data: buf}) {
		n.log.Warn().Str("src", src.String()).Msg("event queue full, frame dropped")
	}
}

// handleSent is the driver's send-completion callback.
func (n *Node) handleSent(dst proto.Address, ok bool) {
	if n.closed.Load() {
		return
	}
	if !n.enqueue(SendCompleted{Address: dst, Success: ok}) {
		n.log.Warn().Str("dst", dst.String()).Msg("event queue full, send completion dropped")
	}
}

func (n *Node) enqueue(ev Event) bool {
	if n.closed.Load() {
		return false
	}
	if !n.events.offer(ev) {
		n.metrics.queueOverflow.Inc(1)
		return false
	}
	return true
}

func (n *Node) command(ev Event) error {
	if n.closed.Load() {
		return proto.ErrClosed
	}
	if !n.enqueue(ev) {
		return proto.ErrQueueFull
	}
	return nil
}

// Connect asks the node to start a handshake with addr.
func (n *Node) Connect(addr proto.Address) error {
	if addr.IsZero() || addr.IsBroadcast() {
		return fmt.Errorf("%w: %s", proto.ErrInvalidAddress, addr)
	}
	return n.command(connectRequest{Address: addr})
}

// SendData queues a DATA frame for addr. Peers that are not connected are
// reached by broadcast.
func (n *Node) SendData(addr proto.Address, payload []byte) error {
	return n.send(addr, proto.FrameTypeData, payload)
}

// SendText queues a TEXT frame for addr.
func (n *Node) SendText(addr proto.Address, text string) error {
	return n.send(addr, proto.FrameTypeText, []byte(text))
}

// Broadcast queues a frame of type t for every node in range.
func (n *Node) Broadcast(t proto.FrameType, payload []byte) error {
	return n.send(proto.BroadcastAddress, t, payload)
}

func (n *Node) send(addr proto.Address, t proto.FrameType, payload []byte) error {
	if !t.Valid() {
		return fmt.Errorf("%w: frame type 0x%02X", proto.ErrInvalidArgument, uint8(t))
	}
	if len(payload) > proto.MaxPayloadSize {
		return fmt.Errorf("%w: %d bytes, max %d", proto.ErrPayloadTooLarge, len(payload), proto.MaxPayloadSize)
	}
	if addr.IsZero() {
		return fmt.Errorf("%w: %s", proto.ErrInvalidAddress, addr)
	}
	buf := make([]byte, len(payload))
	copy(buf, payload)
	return n.command(sendRequest{Address: addr, Type: t, Payload: buf})
}

// Connected reports whether at least one peer was CONNECTED at the last pass.
func (n *Node) Connected() bool { return n.connected.Load() }

// Peers returns the last published peer listing in insertion order.
func (n *Node) Peers() []PeerInfo {
	if p := n.peers.Load(); p != nil {
		return *p
	}
	return nil
}

func (n *Node) Stats() map[string]int64 { return n.metrics.snapshot() }

// Table exposes the peer table to callers running their own owner loop.
func (n *Node) Table() *PeerTable { return n.table }

// publish copies the table into the lock-free snapshot read by Peers and
// recomputes the aggregate connectivity flag.
func (n *Node) publish() {
	list := make([]PeerInfo, 0, n.table.Len())
	connected := 0
	n.table.Each(func(i int, p *proto.Peer) {
		if p.Status == proto.StatusConnected {
			connected++
		}
		list = append(list, PeerInfo{
			Index:               i,
			Address:             p.Address,
			Status:              p.Status,
			SeqTx:               p.SeqTx,
			SeqRx:               p.SeqRx,
			ConnRetry:           p.ConnRetry,
			LastSeenBroadcastUs: p.LastSeenBroadcastUs,
			LastSeenUnicastUs:   p.LastSeenUnicastUs,
		})
	})
	n.peers.Store(&list)
	n.connected.Store(connected > 0)
	n.metrics.peersConnected.Update(int64(connected))
	n.metrics.peersTotal.Update(int64(len(list)))
}

func (n *Node) setStatus(p *proto.Peer, to proto.Status) {
	from := p.Status
	if from == to {
		return
	}
	p.Status = to
	n.metrics.transitions.Inc(1)
	n.log.Info().
		Str("peer", p.Address.String()).
		Stringer("from", from).
		Stringer("to", to).
		Msg("peer status changed")
	if n.onTransition != nil {
		n.onTransition(p.Address, from, to)
	}
}
