package protocol

// Status is the connection lifecycle state of a remote peer.
type Status uint8

const (
	StatusUnknown Status = iota
	StatusInRange
	StatusAvailable
	StatusConnecting
	StatusConnected
	StatusNoReply
	StatusRejected
	StatusProtocolError
	StatusLost

	statusCount
)

var statusNames = [statusCount]string{
	StatusUnknown:       "UNKNOWN",
	StatusInRange:       "IN_RANGE",
	StatusAvailable:     "AVAILABLE",
	StatusConnecting:    "CONNECTING",
	StatusConnected:     "CONNECTED",
	StatusNoReply:       "NOREPLY",
	StatusRejected:      "REJECTED",
	StatusProtocolError: "PROTOCOL_ERROR",
	StatusLost:          "LOST",
}

func (s Status) String() string {
	if s < statusCount {
		return statusNames[s]
	}
	return "INVALID"
}

func (s Status) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Statuses lists every status in declaration order.
func Statuses() []Status {
	out := make([]Status, 0, statusCount)
	for s := StatusUnknown; s < statusCount; s++ {
		out = append(out, s)
	}
	return out
}

// Peer is everything a node remembers about one remote address.
// Timestamps are microseconds on the owning node's clock.
type Peer struct {
	Address   Address
	Status    Status
	SeqTx     uint16
	SeqRx     uint16
	ConnRetry uint32

	LastSeenBroadcastUs int64
	LastSeenUnicastUs   int64
	LastSentUnicastUs   int64
	ConnectTimeUs       int64
}

// NewPeer returns a record for a first sighting at nowUs.
func NewPeer(addr Address, nowUs int64) Peer {
	return Peer{
		Address:             addr,
		Status:              StatusUnknown,
		LastSeenBroadcastUs: nowUs,
		LastSeenUnicastUs:   nowUs,
	}
}

// Touch refreshes the liveness timestamp matching how f was addressed.
func (p *Peer) Touch(f *Frame, nowUs int64) {
	if f.IsBroadcast() {
		p.LastSeenBroadcastUs = nowUs
	} else {
		p.LastSeenUnicastUs = nowUs
	}
	p.SeqRx = f.Seq
}
