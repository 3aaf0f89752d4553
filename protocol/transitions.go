package protocol

// Timer selects which peer timestamp a reconciliation rule ages.
type Timer uint8

const (
	TimerNone Timer = iota // rule fires on every pass
	TimerBroadcast
	TimerUnicast
	TimerConnect
)

// Action is a side effect the owner must perform when a rule fires.
type Action uint8

const (
	ActionNone Action = iota
	ActionSendConnect
)

// Rule is one row of the reconciliation table.
type Rule struct {
	To     Status
	Timer  Timer
	Action Action
}

// reconcileRules is indexed by the current status. A missing row means the
// status is left alone by reconciliation.
var reconcileRules = [statusCount]*Rule{
	StatusUnknown:       {To: StatusLost, Timer: TimerBroadcast},
	StatusInRange:       {To: StatusLost, Timer: TimerBroadcast},
	StatusNoReply:       {To: StatusLost, Timer: TimerBroadcast},
	StatusRejected:      {To: StatusLost, Timer: TimerBroadcast},
	StatusProtocolError: {To: StatusLost, Timer: TimerBroadcast},
	StatusConnected:     {To: StatusLost, Timer: TimerUnicast},
	StatusConnecting:    {To: StatusNoReply, Timer: TimerConnect},
	StatusAvailable:     {To: StatusConnecting, Timer: TimerNone, Action: ActionSendConnect},
	StatusLost:          nil,
}

// Timeouts bounds how long a peer may stay silent, in microseconds.
type Timeouts struct {
	LivenessUs  int64
	HandshakeUs int64
}

func DefaultTimeouts() Timeouts {
	return Timeouts{LivenessUs: LivenessTimeoutUs, HandshakeUs: HandshakeTimeoutUs}
}

// NextOnReconcile evaluates the reconciliation table for p at nowUs.
// It reports the rule that fires, if any; it does not mutate p.
func NextOnReconcile(p *Peer, nowUs int64, t Timeouts) (Rule, bool) {
	if p.Status >= statusCount {
		return Rule{}, false
	}
	rule := reconcileRules[p.Status]
	if rule == nil {
		return Rule{}, false
	}
	switch rule.Timer {
	case TimerNone:
		return *rule, true
	case TimerBroadcast:
		return *rule, nowUs-p.LastSeenBroadcastUs > t.LivenessUs
	case TimerUnicast:
		return *rule, nowUs-p.LastSeenUnicastUs > t.LivenessUs
	case TimerConnect:
		return *rule, nowUs-p.ConnectTimeUs > t.HandshakeUs
	}
	return Rule{}, false
}

// Reply is a frame the owner must send back after accepting a frame.
type Reply uint8

const (
	ReplyNone Reply = iota
	ReplyConnectAck
	ReplyReject
)

// Policy holds the node-local knobs that shape receive-side promotions.
type Policy struct {
	AutoConnect       bool
	AcceptConnections bool
	MaxConnectRetries uint32
}

func DefaultPolicy() Policy {
	return Policy{
		AutoConnect:       true,
		AcceptConnections: true,
		MaxConnectRetries: DefaultMaxConnectRetries,
	}
}

// Verdict is what the receive path decided for one accepted frame.
type Verdict struct {
	Next       Status
	Reply      Reply
	Deliver    bool // hand the payload to the application
	ResetRetry bool
	BumpRetry  bool
}

// OnReceive decides how an accepted frame from p changes p. inserted is true
// when this frame is the first sighting of p. A first sighting leaves p
// UNKNOWN unless it is a connect request, which is answered from any state.
// It does not mutate p.
func OnReceive(p *Peer, f *Frame, inserted bool, pol Policy) Verdict {
	v := Verdict{Next: p.Status}
	if f.IsBroadcast() {
		if inserted {
			v.Deliver = f.carriesPayload()
			return v
		}
		return onBroadcast(p, f, pol)
	}
	if inserted && !f.isConnectRequest() {
		return v
	}

	switch f.Type {
	case FrameTypeConnect:
		v.ResetRetry = true
		if f.Ack == NACK {
			if pol.AcceptConnections {
				v.Next = StatusConnected
				v.Reply = ReplyConnectAck
			} else {
				v.Reply = ReplyReject
			}
			return v
		}
		switch p.Status {
		case StatusConnecting, StatusNoReply:
			v.Next = StatusConnected
		case StatusConnected:
		default:
			v.Next = StatusProtocolError
		}
	case FrameTypeReject:
		if p.Status == StatusConnecting || p.Status == StatusNoReply {
			v.Next = StatusRejected
			v.ResetRetry = true
		}
	case FrameTypeHeartbeat, FrameTypeData, FrameTypeText:
		switch p.Status {
		case StatusConnected:
			v.Deliver = f.Type != FrameTypeHeartbeat
		case StatusConnecting:
			v.Next = StatusConnected
			v.ResetRetry = true
			v.Deliver = f.Type != FrameTypeHeartbeat
		default:
			v.Next = StatusProtocolError
		}
	case FrameTypeBeacon:
		// a beacon sent unicast still only proves presence
	}
	return v
}

func onBroadcast(p *Peer, f *Frame, pol Policy) Verdict {
	v := Verdict{Next: p.Status, Deliver: f.carriesPayload()}
	switch p.Status {
	case StatusUnknown, StatusLost:
		v.Next = StatusInRange
	case StatusInRange:
		if pol.AutoConnect {
			v.Next = StatusAvailable
		}
	case StatusNoReply:
		if pol.AutoConnect && p.ConnRetry < pol.MaxConnectRetries {
			v.Next = StatusAvailable
			v.BumpRetry = true
		}
	case StatusAvailable, StatusConnecting, StatusConnected, StatusRejected, StatusProtocolError:
	}
	return v
}
