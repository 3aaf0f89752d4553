package transport

import (
	"errors"

	proto "github.com/ystepanoff/nowlink/protocol"
)

// Dispatch processes one event. It must only be called from the owner
// goroutine; Run calls it for every dequeued event.
func (n *Node) Dispatch(ev Event) {
	switch e := ev.(type) {
	case SendCompleted:
		n.handleSendCompleted(e)
	case FrameReceived:
		n.handleFrame(e)
		n.publish()
	case connectRequest:
		n.handleConnect(e)
		n.publish()
	case sendRequest:
		n.handleSend(e)
	default:
		n.log.Error().Type("event", ev).Msg("unknown event")
	}
}

func (n *Node) handleSendCompleted(e SendCompleted) {
	if e.Success {
		n.metrics.txCompleted.Inc(1)
		n.log.Trace().Str("dst", e.Address.String()).Msg("send completed")
		return
	}
	n.metrics.txFailed.Inc(1)
	n.log.Debug().Str("dst", e.Address.String()).Msg("send failed")
}

func (n *Node) handleFrame(e FrameReceived) {
	frame, err := proto.DecodeFrame(e.Data)
	if err != nil {
		n.metrics.rxDecodeErrors.Inc(1)
		n.log.Warn().Err(err).Str("src", e.Address.String()).Int("len", len(e.Data)).Msg("dropping malformed frame")
		return
	}
	n.metrics.rxFrames.Inc(1)

	if err := frame.Validate(); err != nil {
		// a well-formed frame with bogus fields marks a misbehaving sender
		n.log.Warn().Err(err).Str("src", e.Address.String()).Msg("invalid frame")
		if p, _ := n.table.Lookup(e.Address); p != nil {
			n.setStatus(p, proto.StatusProtocolError)
		}
		return
	}

	now := n.clock()
	p, inserted, err := n.table.LookupOrInsert(e.Address, now)
	if err != nil {
		n.log.Error().Err(err).Str("src", e.Address.String()).Msg("cannot track peer")
		return
	}
	if inserted {
		n.log.Info().Str("peer", e.Address.String()).Stringer("type", frame.Type).Msg("new peer")
	}
	p.Touch(frame, now)

	v := proto.OnReceive(p, frame, inserted, n.policy)
	if v.ResetRetry {
		p.ConnRetry = 0
	}
	if v.BumpRetry {
		p.ConnRetry++
	}
	if v.Next == proto.StatusProtocolError && p.Status != proto.StatusProtocolError {
		n.metrics.rxUnsolicited.Inc(1)
	}
	n.setStatus(p, v.Next)

	switch v.Reply {
	case proto.ReplyConnectAck:
		n.reply(p, proto.FrameTypeConnect, proto.ACK)
	case proto.ReplyReject:
		n.reply(p, proto.FrameTypeReject, proto.ACK)
	}

	if v.Deliver && n.onData != nil {
		n.onData(p.Address, frame.Type, frame.Payload)
	}
	n.log.Debug().
		Str("src", e.Address.String()).
		Stringer("type", frame.Type).
		Stringer("ack", frame.Ack).
		Stringer("mode", frame.Broadcast).
		Uint16("seq", frame.Seq).
		Int("len", len(frame.Payload)).
		Msg("frame received")
}

func (n *Node) reply(p *proto.Peer, t proto.FrameType, ack proto.AckFlag) {
	if err := n.sendUnicast(p, t, ack, nil); err != nil {
		n.log.Warn().Err(err).Str("peer", p.Address.String()).Stringer("type", t).Msg("reply failed")
	}
}

// handleConnect makes addr AVAILABLE so the next pass sends CONNECT.
func (n *Node) handleConnect(e connectRequest) {
	p, _, err := n.table.LookupOrInsert(e.Address, n.clock())
	if err != nil {
		n.log.Error().Err(err).Str("peer", e.Address.String()).Msg("connect")
		return
	}
	switch p.Status {
	case proto.StatusConnected, proto.StatusConnecting:
		n.log.Debug().Str("peer", e.Address.String()).Stringer("status", p.Status).Msg("connect ignored")
		return
	}
	p.ConnRetry = 0
	n.setStatus(p, proto.StatusAvailable)
}

func (n *Node) handleSend(e sendRequest) {
	err := n.sendTo(e.Address, e.Type, e.Payload)
	if err != nil && !errors.Is(err, proto.ErrTransport) {
		n.log.Error().Err(err).Str("dst", e.Address.String()).Stringer("type", e.Type).Msg("send")
	}
}
