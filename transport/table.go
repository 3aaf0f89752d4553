package transport

import (
	"fmt"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// chunkSize is the number of peers stored per arena chunk. Chunks are never
// reallocated, so a *Peer stays valid for the lifetime of the table.
const chunkSize = 16

// PeerTable is an insertion-ordered registry of peers keyed by address.
// It is owned by a single goroutine and is not safe for concurrent use.
type PeerTable struct {
	chunks   [][]proto.Peer
	size     int
	maxPeers int // 0 = unbounded
}

func NewPeerTable(maxPeers int) *PeerTable {
	return &PeerTable{maxPeers: maxPeers}
}

func (t *PeerTable) Len() int { return t.size }

// At returns the peer at insertion index i.
func (t *PeerTable) At(i int) *proto.Peer {
	if i < 0 || i >= t.size {
		return nil
	}
	return &t.chunks[i/chunkSize][i%chunkSize]
}

// Lookup finds the peer with addr and its index, or nil and -1.
func (t *PeerTable) Lookup(addr proto.Address) (*proto.Peer, int) {
	for i := 0; i < t.size; i++ {
		p := t.At(i)
		if p.Address == addr {
			return p, i
		}
	}
	return nil, -1
}

// LookupOrInsert returns the peer for addr, appending a new UNKNOWN entry
// stamped with nowUs if it was not present. inserted reports which happened.
func (t *PeerTable) LookupOrInsert(addr proto.Address, nowUs int64) (p *proto.Peer, inserted bool, err error) {
	if p, _ := t.Lookup(addr); p != nil {
		return p, false, nil
	}
	if t.maxPeers > 0 && t.size >= t.maxPeers {
		return nil, false, fmt.Errorf("%w: peer table full (%d)", proto.ErrAllocation, t.maxPeers)
	}

	if t.size == len(t.chunks)*chunkSize {
		t.chunks = append(t.chunks, make([]proto.Peer, chunkSize))
	}
	p = &t.chunks[t.size/chunkSize][t.size%chunkSize]
	*p = proto.NewPeer(addr, nowUs)
	t.size++
	return p, true, nil
}

// Each calls fn for every peer in insertion order.
func (t *PeerTable) Each(fn func(i int, p *proto.Peer)) {
	for i := 0; i < t.size; i++ {
		fn(i, t.At(i))
	}
}

// CountConnected returns the number of peers in CONNECTED status.
func (t *PeerTable) CountConnected() int {
	n := 0
	for i := 0; i < t.size; i++ {
		if t.At(i).Status == proto.StatusConnected {
			n++
		}
	}
	return n
}

// Release drops every entry. Pointers handed out earlier must not be used
// afterwards.
func (t *PeerTable) Release() {
	t.chunks = nil
	t.size = 0
}
